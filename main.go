package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"towertalk/config"
	"towertalk/storage"
)

var (
	cfg      *config.Config
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the toml config")
	noTUI := flag.Bool("notui", false, "serve the api only, without the terminal ui")
	replayPath := flag.String("replay", "", "replay a recorded track of lat,lon lines")
	flag.Parse()
	var err error
	cfg, err = config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	logfile, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("failed to open log file", "error", err, "filename", cfg.LogFile)
		os.Exit(1)
	}
	defer logfile.Close()
	setLogLevel(cfg.LogLevel)
	logger = slog.New(slog.NewTextHandler(logfile, &slog.HandlerOptions{Level: logLevel}))
	if err := run(*noTUI, *replayPath); err != nil {
		logger.Error("towertalk stopped", "error", err)
		os.Exit(1)
	}
}

func run(noTUI bool, replayPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	store, err := storage.NewProviderSQL(cfg.DBPATH, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	session := newTowerSession(ctx, cfg, logger, store)
	if replayPath != "" {
		go func() {
			if err := session.replay(ctx, replayPath, cfg.ReplayInterval()); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("replay failed", "path", replayPath, "error", err)
			}
		}()
	}
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newServer(logger, session).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("api listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", "error", err)
		}
	}()
	if noTUI {
		<-ctx.Done()
	} else {
		initTUI(session)
		if err := runTUI(ctx, session); err != nil {
			logger.Error("failed to start tview app", "error", err)
		}
		stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api shutdown", "error", err)
	}
	session.wait()
	return nil
}

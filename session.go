package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"towertalk/config"
	"towertalk/dialogue"
	"towertalk/extra"
	"towertalk/location"
	"towertalk/models"
	"towertalk/storage"
	"towertalk/tower"
)

// journalBuffer absorbs bursts of events while sqlite writes are slow.
const journalBuffer = 4096

var errNoRelay = errors.New("typed transmissions are disabled while speech recognition is on")

// towerSession is one running tower: the dialogue controller plus the
// collaborators feeding it and the journal recording it.
type towerSession struct {
	logger  *slog.Logger
	ctrl    *dialogue.Controller
	relay   *extra.RelayListener
	tracker *location.Tracker
	journal *storage.Journal
	store   storage.SessionLog
	wg      sync.WaitGroup
}

func newGenerator(cfg *config.Config) *tower.Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return tower.NewGenerator(rand.New(rand.NewPCG(seed, seed>>1|1)), tower.WithPhoneticDigits(cfg.PhoneticDigits))
}

// newTowerSession wires the configured adapters and starts every loop; they
// stop when ctx is cancelled.
func newTowerSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, store storage.SessionLog) *towerSession {
	out := newVoiceOutput(logger, cfg)
	in, relay := newVoiceInput(logger, cfg)
	ctrl := dialogue.New(logger, cfg.Dialogue(), newGenerator(cfg), out, in)
	s := &towerSession{logger: logger, ctrl: ctrl, relay: relay, store: store}
	if cfg.GEOCODING_ENABLED {
		client := location.NewClient(logger, location.DefaultClientConfig("osm"))
		geo := location.NewOSMGeocoder(client, location.OSMConfig{
			NominatimURL: cfg.NominatimURL,
			OverpassURL:  cfg.OverpassURL,
			Radius:       cfg.CrossRadiusM,
			Email:        cfg.GeocoderEmail,
		})
		s.tracker = location.NewTracker(logger, geo, ctrl.UpdateLocation, location.TrackerConfig{
			MinDistance: cfg.MinDistanceM,
		})
	}
	s.start(ctx)
	return s
}

func (s *towerSession) start(ctx context.Context) {
	if s.store != nil {
		s.journal = storage.NewJournal(s.logger, s.store)
		events, cancel := s.ctrl.Subscribe(journalBuffer)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer cancel()
			s.journal.Run(ctx, events)
		}()
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("dialogue loop failed", "error", err)
		}
	}()
	if s.tracker != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_ = s.tracker.Run(ctx)
		}()
	}
}

// wait blocks until every loop returned.
func (s *towerSession) wait() {
	s.wg.Wait()
}

// pushFix hands a GPS fix to the tracker.
func (s *towerSession) pushFix(fix location.Fix) error {
	if err := fix.Validate(); err != nil {
		return err
	}
	if s.tracker == nil {
		return errors.New("geocoding is disabled")
	}
	s.tracker.Push(fix)
	return nil
}

// setStreet bypasses geocoding with an explicit street snapshot.
func (s *towerSession) setStreet(street, cross string) {
	s.ctrl.UpdateLocation(location.Snapshot(location.Place{Street: street, Nearby: []string{cross}}))
}

func (s *towerSession) submit(text string) error {
	if s.relay == nil {
		return errNoRelay
	}
	return s.relay.Submit(text)
}

// replay drives the tracker with a recorded track.
func (s *towerSession) replay(ctx context.Context, path string, interval time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	fixes, err := location.ParseTrack(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("track %s: %w", path, err)
	}
	if s.tracker == nil {
		return errors.New("replay needs geocoding enabled")
	}
	s.logger.Info("replaying track", "path", path, "fixes", len(fixes))
	return location.Replay(ctx, fixes, interval, s.tracker.Push)
}

func (s *towerSession) history() []models.Turn {
	return s.ctrl.History()
}

package extra

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ConsoleOrator stands in for a synthesiser: it logs the line and stays
// busy for as long as reading it aloud would take.
type ConsoleOrator struct {
	logger  *slog.Logger
	perWord time.Duration

	mu       sync.Mutex
	speaking bool
	stop     chan struct{}
}

func NewConsoleOrator(logger *slog.Logger, perWord time.Duration) *ConsoleOrator {
	if perWord <= 0 {
		perWord = 350 * time.Millisecond
	}
	return &ConsoleOrator{logger: logger, perWord: perWord}
}

func (o *ConsoleOrator) Speak(ctx context.Context, text string) error {
	stop := make(chan struct{})
	o.mu.Lock()
	o.speaking = true
	o.stop = stop
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		if o.stop == stop {
			o.speaking = false
			o.stop = nil
		}
		o.mu.Unlock()
	}()
	o.logger.Info("tower says", "text", text)
	timer := time.NewTimer(time.Duration(len(strings.Fields(text))) * o.perWord)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *ConsoleOrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stop != nil {
		close(o.stop)
		o.stop = nil
		o.speaking = false
	}
}

func (o *ConsoleOrator) IsSpeaking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speaking
}

package extra

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"towertalk/models"
)

var ErrNotListening = errors.New("tower is not listening")

// RelayListener is a voice input fed from outside: the terminal UI, the
// HTTP API or a websocket client. A submitted text is a whole transmission.
type RelayListener struct {
	logger *slog.Logger
	mu     sync.Mutex
	ch     chan models.Transcript
}

func NewRelayListener(logger *slog.Logger) *RelayListener {
	return &RelayListener{logger: logger}
}

func (r *RelayListener) StartListening(ctx context.Context) (<-chan models.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
	ch := make(chan models.Transcript, 1)
	r.ch = ch
	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.ch == ch {
			r.closeLocked()
		}
	}()
	return ch, nil
}

// Submit delivers text as the driver's transmission and ends the capture.
func (r *RelayListener) Submit(text string) error {
	text = normalizeTranscript(text)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ch == nil {
		return ErrNotListening
	}
	r.logger.Debug("relay transmission", "text", text)
	r.ch <- models.Transcript{Text: text}
	r.closeLocked()
	return nil
}

func (r *RelayListener) StopListening() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *RelayListener) closeLocked() {
	if r.ch != nil {
		close(r.ch)
		r.ch = nil
	}
}

func (r *RelayListener) IsListening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ch != nil
}

func (r *RelayListener) Authorized() bool { return true }

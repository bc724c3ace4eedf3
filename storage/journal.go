package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"towertalk/dialogue"
	"towertalk/models"

	"github.com/google/uuid"
)

// Journal writes the conversation to a SessionLog as controller events
// arrive. Storage errors are logged and never reach the conversation.
type Journal struct {
	logger *slog.Logger
	store  SessionLog
	now    func() time.Time

	mu      sync.Mutex
	current string
}

func NewJournal(logger *slog.Logger, store SessionLog) *Journal {
	return &Journal{logger: logger, store: store, now: time.Now}
}

// CurrentSession returns the id of the open session or "".
func (j *Journal) CurrentSession() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current
}

// Run consumes events until the channel closes or ctx is done; the open
// session is ended on the way out.
func (j *Journal) Run(ctx context.Context, events <-chan dialogue.Event) {
	defer j.endCurrent()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			j.Handle(ev)
		}
	}
}

func (j *Journal) Handle(ev dialogue.Event) {
	switch e := ev.(type) {
	case dialogue.SessionEvent:
		j.endCurrent()
		if e.Registered {
			j.begin(e.CallSign)
		}
	case dialogue.TurnEvent:
		j.appendTurn(e.Turn)
	}
}

func (j *Journal) begin(callSign string) {
	rec := &models.SessionRecord{
		ID:        uuid.NewString(),
		CallSign:  callSign,
		StartedAt: j.now(),
	}
	if _, err := j.store.CreateSession(rec); err != nil {
		j.logger.Error("failed to create session", "call_sign", callSign, "error", err)
		return
	}
	j.mu.Lock()
	j.current = rec.ID
	j.mu.Unlock()
	j.logger.Debug("journal session started", "id", rec.ID, "call_sign", callSign)
}

func (j *Journal) endCurrent() {
	j.mu.Lock()
	id := j.current
	j.current = ""
	j.mu.Unlock()
	if id == "" {
		return
	}
	if err := j.store.EndSession(id, j.now()); err != nil {
		j.logger.Error("failed to end session", "id", id, "error", err)
	}
}

func (j *Journal) appendTurn(t models.Turn) {
	id := j.CurrentSession()
	if id == "" {
		return
	}
	rec := &models.TurnRecord{
		SessionID: id,
		Speaker:   t.Speaker.String(),
		Text:      t.Text,
		Valid:     t.Valid,
		CreatedAt: t.At,
	}
	if _, err := j.store.AppendTurn(rec); err != nil {
		j.logger.Error("failed to append turn", "session", id, "error", err)
	}
}

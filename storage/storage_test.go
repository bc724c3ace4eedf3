package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"towertalk/dialogue"
	"towertalk/models"
)

func newTestProvider(t *testing.T) *ProviderSQL {
	t.Helper()
	p, err := NewProviderSQL(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Failed to open SQLite in-memory database: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestSessionsAndTurns(t *testing.T) {
	provider := newTestProvider(t)
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	sessions, err := provider.ListSessions()
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("Expected no sessions, got: %v", sessions)
	}
	created, err := provider.CreateSession(&models.SessionRecord{ID: "s1", CallSign: "HONDA747", StartedAt: start})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if created.ID != "s1" || created.CallSign != "HONDA747" || created.EndedAt != nil {
		t.Errorf("unexpected session: %+v", created)
	}
	turns := []models.TurnRecord{
		{SessionID: "s1", Speaker: "tower", Text: "HONDA747 maintain position.", Valid: true, CreatedAt: start.Add(3 * time.Second)},
		{SessionID: "s1", Speaker: "driver", Text: "ready", Valid: false, CreatedAt: start.Add(6 * time.Second)},
	}
	for i, tc := range turns {
		t.Run(fmt.Sprintf("run_%d", i), func(t *testing.T) {
			got, err := provider.AppendTurn(&tc)
			if err != nil {
				t.Fatalf("Failed to append turn: %v", err)
			}
			if got.ID == 0 || got.Text != tc.Text || got.Valid != tc.Valid {
				t.Errorf("unexpected turn: %+v", got)
			}
		})
	}
	listed, err := provider.ListTurns("s1")
	if err != nil {
		t.Fatalf("Failed to list turns: %v", err)
	}
	if len(listed) != 2 || listed[0].Speaker != "tower" || listed[1].Valid {
		t.Errorf("unexpected turns: %+v", listed)
	}
	if err := provider.EndSession("s1", start.Add(time.Minute)); err != nil {
		t.Fatalf("Failed to end session: %v", err)
	}
	if err := provider.EndSession("s1", start.Add(2*time.Minute)); !errors.Is(err, ErrNoOpenSession) {
		t.Errorf("second EndSession = %v, want ErrNoOpenSession", err)
	}
	sessions, err = provider.ListSessions()
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].EndedAt == nil {
		t.Errorf("unexpected sessions: %+v", sessions)
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	provider := newTestProvider(t)
	if err := provider.Migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestJournal(t *testing.T) {
	provider := newTestProvider(t)
	j := NewJournal(slog.New(slog.NewTextHandler(io.Discard, nil)), provider)
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	// turns outside a session are not recorded
	j.Handle(dialogue.TurnEvent{Turn: models.TowerTurn("stray", at)})
	j.Handle(dialogue.SessionEvent{CallSign: "HONDA747", Registered: true})
	first := j.CurrentSession()
	if first == "" {
		t.Fatal("no session opened")
	}
	j.Handle(dialogue.TurnEvent{Turn: models.TowerTurn("HONDA747 maintain position.", at)})
	j.Handle(dialogue.TurnEvent{Turn: models.DriverTurn("HONDA747 roger HONDA747", at.Add(time.Second), true)})
	j.Handle(dialogue.StateEvent{From: models.StateIdle, To: models.StateSpeaking})
	// registering again closes the first session
	j.Handle(dialogue.SessionEvent{CallSign: "FORD12", Registered: true})
	second := j.CurrentSession()
	if second == "" || second == first {
		t.Fatalf("sessions: first %q second %q", first, second)
	}
	j.Handle(dialogue.SessionEvent{Registered: false})
	if id := j.CurrentSession(); id != "" {
		t.Errorf("session still open after reset: %q", id)
	}

	turns, err := provider.ListTurns(first)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 || turns[1].Speaker != "driver" || !turns[1].Valid {
		t.Errorf("turns = %+v", turns)
	}
	sessions, err := provider.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %+v", sessions)
	}
	for _, s := range sessions {
		if s.EndedAt == nil {
			t.Errorf("session %s not ended", s.ID)
		}
	}
}

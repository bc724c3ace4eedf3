package storage

import (
	"fmt"
	"log/slog"
	"time"

	"towertalk/models"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

type SessionLog interface {
	CreateSession(s *models.SessionRecord) (*models.SessionRecord, error)
	EndSession(id string, at time.Time) error
	AppendTurn(t *models.TurnRecord) (*models.TurnRecord, error)
	ListSessions() ([]models.SessionRecord, error)
	ListTurns(sessionID string) ([]models.TurnRecord, error)
}

type ProviderSQL struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func (p ProviderSQL) CreateSession(s *models.SessionRecord) (*models.SessionRecord, error) {
	query := `
        INSERT INTO sessions (id, call_sign, started_at)
        VALUES (:id, :call_sign, :started_at)
        RETURNING *;`
	stmt, err := p.db.PrepareNamed(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	var resp models.SessionRecord
	err = stmt.Get(&resp, s)
	return &resp, err
}

func (p ProviderSQL) EndSession(id string, at time.Time) error {
	res, err := p.db.Exec("UPDATE sessions SET ended_at = $1 WHERE id = $2 AND ended_at IS NULL;", at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNoOpenSession)
	}
	return nil
}

func (p ProviderSQL) AppendTurn(t *models.TurnRecord) (*models.TurnRecord, error) {
	query := `
        INSERT INTO turns (session_id, speaker, text, valid, created_at)
        VALUES (:session_id, :speaker, :text, :valid, :created_at)
        RETURNING *;`
	stmt, err := p.db.PrepareNamed(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	var resp models.TurnRecord
	err = stmt.Get(&resp, t)
	return &resp, err
}

func (p ProviderSQL) ListSessions() ([]models.SessionRecord, error) {
	resp := []models.SessionRecord{}
	err := p.db.Select(&resp, "SELECT * FROM sessions ORDER BY started_at DESC;")
	return resp, err
}

func (p ProviderSQL) ListTurns(sessionID string) ([]models.TurnRecord, error) {
	resp := []models.TurnRecord{}
	err := p.db.Select(&resp, "SELECT * FROM turns WHERE session_id = $1 ORDER BY id;", sessionID)
	return resp, err
}

func (p ProviderSQL) Close() error {
	return p.db.Close()
}

// NewProviderSQL opens the journal database and applies migrations.
func NewProviderSQL(dbPath string, logger *slog.Logger) (*ProviderSQL, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	// sqlite allows one writer; :memory: databases are per connection
	db.SetMaxOpenConns(1)
	var version string
	if err := db.Get(&version, "select sqlite_version()"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dbPath, err)
	}
	logger.Debug("sqlite opened", "path", dbPath, "version", version)
	p := &ProviderSQL{db: db, logger: logger}
	if err := p.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

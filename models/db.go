package models

import "time"

type SessionRecord struct {
	ID        string     `db:"id" json:"id"`
	CallSign  string     `db:"call_sign" json:"call_sign"`
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}

type TurnRecord struct {
	ID        int64     `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Speaker   string    `db:"speaker" json:"speaker"`
	Text      string    `db:"text" json:"text"`
	Valid     bool      `db:"valid" json:"valid"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

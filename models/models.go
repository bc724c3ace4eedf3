package models

import (
	"fmt"
	"strings"
	"time"
)

type Speaker int

const (
	SpeakerTower Speaker = iota
	SpeakerDriver
)

func (s Speaker) String() string {
	switch s {
	case SpeakerTower:
		return "tower"
	case SpeakerDriver:
		return "driver"
	default:
		return "unknown"
	}
}

func (s Speaker) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Speaker) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "tower":
		*s = SpeakerTower
	case "driver":
		*s = SpeakerDriver
	default:
		return fmt.Errorf("unknown speaker %q", b)
	}
	return nil
}

// Turn is one entry of the conversation history.
// Valid is only meaningful for driver turns.
type Turn struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
	Valid   bool      `json:"valid"`
}

func TowerTurn(text string, at time.Time) Turn {
	return Turn{Speaker: SpeakerTower, Text: text, At: at, Valid: true}
}

func DriverTurn(text string, at time.Time, valid bool) Turn {
	return Turn{Speaker: SpeakerDriver, Text: text, At: at, Valid: valid}
}

func (t Turn) ToText() string {
	mark := ""
	if t.Speaker == SpeakerDriver && !t.Valid {
		mark = " (no call sign)"
	}
	return t.At.Format("15:04:05") + " " + strings.ToUpper(t.Speaker.String()) + mark + ": " + t.Text
}

// LocationSnapshot is replaced as a whole; street and cross street always
// come from the same geocode.
type LocationSnapshot struct {
	PrimaryStreet string `json:"street"`
	CrossStreet   string `json:"cross_street,omitempty"`
	QualityValid  bool   `json:"quality_valid"`
}

func (l LocationSnapshot) HasStreet() bool {
	return strings.TrimSpace(l.PrimaryStreet) != ""
}

type DialogueState int

const (
	StateIdle DialogueState = iota
	StateAwaitingWelcome
	StateListening
	StateProcessing
	StateSpeaking
)

func (s DialogueState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAwaitingWelcome:
		return "AWAITING_WELCOME"
	case StateListening:
		return "LISTENING"
	case StateProcessing:
		return "PROCESSING"
	case StateSpeaking:
		return "SPEAKING"
	default:
		return "UNKNOWN"
	}
}

func (s DialogueState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *DialogueState) UnmarshalText(b []byte) error {
	for st := StateIdle; st <= StateSpeaking; st++ {
		if strings.EqualFold(st.String(), string(b)) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown dialogue state %q", b)
}

// Transcript is one element of a listener stream. Text supersedes the
// previous element; a non-nil Err ends the capture.
type Transcript struct {
	Text string
	Err  error
}

package dialogue

import "towertalk/models"

// Event is published to subscribers after the loop applied a change.
type Event interface {
	EventType() string
}

type StateEvent struct {
	From models.DialogueState `json:"from"`
	To   models.DialogueState `json:"to"`
}

func (e StateEvent) EventType() string { return "state.changed" }

type TurnEvent struct {
	Turn models.Turn `json:"turn"`
}

func (e TurnEvent) EventType() string { return "turn.appended" }

// SessionEvent marks a registration (Registered true) or a reset to setup.
type SessionEvent struct {
	CallSign   string `json:"call_sign,omitempty"`
	Registered bool   `json:"registered"`
}

func (e SessionEvent) EventType() string { return "session.changed" }

type LocationEvent struct {
	Snapshot models.LocationSnapshot `json:"snapshot"`
}

func (e LocationEvent) EventType() string { return "location.updated" }

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	State    models.DialogueState    `json:"state"`
	CallSign string                  `json:"call_sign,omitempty"`
	Location models.LocationSnapshot `json:"location"`
	History  []models.Turn           `json:"history"`
}

package dialogue

import (
	"context"

	"towertalk/models"
)

// VoiceOutput synthesises tower lines. Speak blocks until playback has
// finished or ctx is cancelled.
type VoiceOutput interface {
	Speak(ctx context.Context, text string) error
	Stop()
	IsSpeaking() bool
}

// VoiceInput captures driver speech. The returned channel carries
// superseding transcripts and must be closed once the capture ends, either
// by StopListening or by ctx cancellation.
type VoiceInput interface {
	StartListening(ctx context.Context) (<-chan models.Transcript, error)
	StopListening()
	IsListening() bool
	Authorized() bool
}

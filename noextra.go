//go:build !extra

package main

import (
	"log/slog"

	"towertalk/config"
	"towertalk/dialogue"
	"towertalk/extra"
)

// Without the extra modules there is no synthesiser or microphone: tower
// lines go to the log and transmissions are typed.

func newVoiceOutput(logger *slog.Logger, cfg *config.Config) dialogue.VoiceOutput {
	if !cfg.TTS_ENABLED {
		return nil
	}
	return extra.NewConsoleOrator(logger, 0)
}

func newVoiceInput(logger *slog.Logger, cfg *config.Config) (dialogue.VoiceInput, *extra.RelayListener) {
	if cfg.STT_ENABLED {
		logger.Warn("STT not available - extra modules disabled; using typed transmissions")
	}
	relay := extra.NewRelayListener(logger)
	return relay, relay
}

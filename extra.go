//go:build extra
// +build extra

package main

import (
	"log/slog"
	"strings"

	"towertalk/config"
	"towertalk/dialogue"
	"towertalk/extra"
)

func newVoiceOutput(logger *slog.Logger, cfg *config.Config) dialogue.VoiceOutput {
	if !cfg.TTS_ENABLED {
		return nil
	}
	var radio *extra.RadioConfig
	if cfg.RadioEffect {
		rc := extra.DefaultRadioConfig()
		radio = &rc
	}
	switch strings.ToLower(cfg.TTS_TYPE) {
	case "kokoro":
		return extra.NewKokoroOrator(logger, cfg.TTS_URL, cfg.TTS_VOICE, cfg.TTS_SPEED, radio)
	default:
		return extra.NewGoogleTranslateOrator(logger, cfg.TTS_LANG, cfg.TTS_SPEED, radio)
	}
}

func newVoiceInput(logger *slog.Logger, cfg *config.Config) (dialogue.VoiceInput, *extra.RelayListener) {
	if cfg.STT_ENABLED {
		logger.Debug("stt init, chosen whisper server")
		return extra.NewWhisperListener(logger, cfg.STT_URL, cfg.STT_SR, cfg.STT_LANG, cfg.PartialInterval()), nil
	}
	relay := extra.NewRelayListener(logger)
	return relay, relay
}

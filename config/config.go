package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"towertalk/dialogue"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	LogFile    string `toml:"LogFile"`
	LogLevel   string `toml:"LogLevel"` // debug, info, warn, error
	ListenAddr string `toml:"ListenAddr"`
	DBPATH     string `toml:"DBPATH"`
	// ColorScheme names a tui theme: default, gruvbox, solarized, dracula
	ColorScheme string `toml:"ColorScheme"`
	// conversation timings, milliseconds
	SettleDelayMs    int  `toml:"SettleDelayMs"`
	CooldownMs       int  `toml:"CooldownMs"`
	SilenceWindowMs  int  `toml:"SilenceWindowMs"`
	ListenTimeoutMs  int  `toml:"ListenTimeoutMs"`
	SpeechBufferMs   int  `toml:"SpeechBufferMs"`
	LocationQuietMs  int  `toml:"LocationQuietMs"`
	AutoConversation bool `toml:"AutoConversation"`
	PhoneticDigits   bool `toml:"PhoneticDigits"`
	// Seed for template choice; 0 picks a random seed
	Seed uint64 `toml:"Seed"`
	// TTS
	TTS_ENABLED bool    `toml:"TTS_ENABLED"`
	TTS_TYPE    string  `toml:"TTS_TYPE"` // google, kokoro
	TTS_URL     string  `toml:"TTS_URL"`
	TTS_SPEED   float32 `toml:"TTS_SPEED"`
	TTS_LANG    string  `toml:"TTS_LANG"`
	TTS_VOICE   string  `toml:"TTS_VOICE"`
	RadioEffect bool    `toml:"RadioEffect"`
	// STT
	STT_ENABLED       bool   `toml:"STT_ENABLED"`
	STT_URL           string `toml:"STT_URL"`
	STT_SR            int    `toml:"STT_SR"`
	STT_LANG          string `toml:"STT_LANG"`
	PartialIntervalMs int    `toml:"PartialIntervalMs"`
	// geocoding
	GEOCODING_ENABLED bool    `toml:"GEOCODING_ENABLED"`
	NominatimURL      string  `toml:"NominatimURL"`
	OverpassURL       string  `toml:"OverpassURL"`
	GeocoderEmail     string  `toml:"GeocoderEmail"`
	CrossRadiusM      int     `toml:"CrossRadiusM"`
	MinDistanceM      float64 `toml:"MinDistanceM"`
	ReplayIntervalMs  int     `toml:"ReplayIntervalMs"`
}

func Default() *Config {
	return &Config{
		LogFile:           "log.txt",
		LogLevel:          "info",
		ListenAddr:        "127.0.0.1:3333",
		DBPATH:            "towertalk.db",
		ColorScheme:       "default",
		SettleDelayMs:     3000,
		CooldownMs:        12000,
		SilenceWindowMs:   1500,
		ListenTimeoutMs:   8000,
		SpeechBufferMs:    600,
		LocationQuietMs:   4000,
		AutoConversation:  true,
		PhoneticDigits:    true,
		TTS_ENABLED:       true,
		TTS_TYPE:          "google",
		TTS_URL:           "http://localhost:8880/v1/audio/speech",
		TTS_SPEED:         1.0,
		TTS_LANG:          "en",
		TTS_VOICE:         "am_adam",
		RadioEffect:       true,
		STT_URL:           "http://localhost:8081/inference",
		STT_SR:            16000,
		STT_LANG:          "en",
		PartialIntervalMs: 1000,
		GEOCODING_ENABLED: true,
		CrossRadiusM:      60,
		MinDistanceM:      25,
		ReplayIntervalMs:  2000,
	}
}

// envOverrides maps environment variables to the fields they replace.
var envOverrides = map[string]func(c *Config, v string){
	"TOWERTALK_LISTEN":         func(c *Config, v string) { c.ListenAddr = v },
	"TOWERTALK_DBPATH":         func(c *Config, v string) { c.DBPATH = v },
	"TOWERTALK_TTS_URL":        func(c *Config, v string) { c.TTS_URL = v },
	"TOWERTALK_STT_URL":        func(c *Config, v string) { c.STT_URL = v },
	"TOWERTALK_GEOCODER_EMAIL": func(c *Config, v string) { c.GeocoderEmail = v },
	"TOWERTALK_LOG_LEVEL":      func(c *Config, v string) { c.LogLevel = v },
}

// LoadConfig reads fn over the defaults. A missing file is not an error.
// Variables from .env and the environment are applied last.
func LoadConfig(fn string) (*Config, error) {
	if fn == "" {
		fn = "config.toml"
	}
	config := Default()
	_, err := toml.DecodeFile(fn, config)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	// .env is optional
	_ = godotenv.Load()
	config.applyEnv(os.Getenv)
	config.fillDefaults()
	return config, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	for key, set := range envOverrides {
		if v := getenv(key); v != "" {
			set(c, v)
		}
	}
}

// fillDefaults replaces zero or negative values a file may have set.
func (c *Config) fillDefaults() {
	def := Default()
	ints := []struct{ v, d *int }{
		{&c.SettleDelayMs, &def.SettleDelayMs},
		{&c.CooldownMs, &def.CooldownMs},
		{&c.SilenceWindowMs, &def.SilenceWindowMs},
		{&c.ListenTimeoutMs, &def.ListenTimeoutMs},
		{&c.SpeechBufferMs, &def.SpeechBufferMs},
		{&c.LocationQuietMs, &def.LocationQuietMs},
		{&c.STT_SR, &def.STT_SR},
		{&c.PartialIntervalMs, &def.PartialIntervalMs},
		{&c.CrossRadiusM, &def.CrossRadiusM},
		{&c.ReplayIntervalMs, &def.ReplayIntervalMs},
	}
	for _, el := range ints {
		if *el.v <= 0 {
			*el.v = *el.d
		}
	}
	if c.TTS_SPEED <= 0 {
		c.TTS_SPEED = def.TTS_SPEED
	}
	if c.MinDistanceM < 0 {
		c.MinDistanceM = def.MinDistanceM
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.DBPATH == "" {
		c.DBPATH = def.DBPATH
	}
	if c.TTS_TYPE == "" {
		c.TTS_TYPE = def.TTS_TYPE
	}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Dialogue converts the timing section for the dialogue controller.
func (c *Config) Dialogue() dialogue.Config {
	return dialogue.Config{
		SettleDelay:      ms(c.SettleDelayMs),
		Cooldown:         ms(c.CooldownMs),
		SilenceWindow:    ms(c.SilenceWindowMs),
		ListenTimeout:    ms(c.ListenTimeoutMs),
		SpeechBuffer:     ms(c.SpeechBufferMs),
		LocationQuiet:    ms(c.LocationQuietMs),
		AutoConversation: c.AutoConversation,
	}
}

func (c *Config) PartialInterval() time.Duration {
	return ms(c.PartialIntervalMs)
}

func (c *Config) ReplayInterval() time.Duration {
	return ms(c.ReplayIntervalMs)
}

package dialogue

import "time"

type Config struct {
	// SettleDelay is the wait between registration and the welcome, giving
	// the first location fix time to arrive.
	SettleDelay time.Duration
	// Cooldown keeps movement announcements off until the welcome is out.
	Cooldown time.Duration
	// SilenceWindow ends the driver's turn once no new partial arrived.
	SilenceWindow time.Duration
	// ListenTimeout ends a capture in which the driver never spoke.
	ListenTimeout time.Duration
	// SpeechBuffer is the pause after playback before the mic opens.
	SpeechBuffer time.Duration
	// LocationQuiet debounces street changes.
	LocationQuiet time.Duration
	// AutoConversation opens the mic after every tower line.
	AutoConversation bool
}

func DefaultConfig() Config {
	return Config{
		SettleDelay:      3 * time.Second,
		Cooldown:         12 * time.Second,
		SilenceWindow:    1500 * time.Millisecond,
		ListenTimeout:    8 * time.Second,
		SpeechBuffer:     600 * time.Millisecond,
		LocationQuiet:    4 * time.Second,
		AutoConversation: true,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SettleDelay <= 0 {
		c.SettleDelay = def.SettleDelay
	}
	if c.Cooldown <= 0 {
		c.Cooldown = def.Cooldown
	}
	if c.SilenceWindow <= 0 {
		c.SilenceWindow = def.SilenceWindow
	}
	if c.ListenTimeout <= 0 {
		c.ListenTimeout = def.ListenTimeout
	}
	if c.SpeechBuffer <= 0 {
		c.SpeechBuffer = def.SpeechBuffer
	}
	if c.LocationQuiet <= 0 {
		c.LocationQuiet = def.LocationQuiet
	}
	return c
}

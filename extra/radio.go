package extra

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
)

// RadioConfig shapes the handheld radio sound of the tower voice.
type RadioConfig struct {
	// LowCutHz and HighCutHz bound the voice band.
	LowCutHz  float64
	HighCutHz float64
	// Drive pushes the signal into the soft clipper; 1 is clean.
	Drive float64
	// Hiss is the amplitude of the background noise.
	Hiss float64
	// SquelchHz and Squelch describe the tone played after the line.
	SquelchHz float64
	Squelch   time.Duration
	Seed      uint64
}

func DefaultRadioConfig() RadioConfig {
	return RadioConfig{
		LowCutHz:  300,
		HighCutHz: 3400,
		Drive:     2.5,
		Hiss:      0.02,
		SquelchHz: 1200,
		Squelch:   120 * time.Millisecond,
		Seed:      1,
	}
}

// Radio wraps st with the radio effect chain: band limiting, drive, soft
// clipping, hiss and a squelch tail.
func Radio(st beep.Streamer, sr beep.SampleRate, cfg RadioConfig) (beep.Streamer, error) {
	if cfg.Drive < 1 {
		cfg.Drive = 1
	}
	band := effects.NewEqualizer(st, sr, effects.MonoEqualizerSections{
		{F0: cfg.LowCutHz / 2, Bf: cfg.LowCutHz, GB: -3, G0: 0, G: -24},
		{F0: math.Sqrt(cfg.LowCutHz * cfg.HighCutHz), Bf: cfg.HighCutHz - cfg.LowCutHz, GB: 3, G0: 0, G: 4},
		{F0: cfg.HighCutHz * 2, Bf: cfg.HighCutHz * 2, GB: -3, G0: 0, G: -24},
	})
	body := crackle(band, cfg.Drive, cfg.Hiss, cfg.Seed)
	if cfg.Squelch <= 0 || cfg.SquelchHz <= 0 {
		return body, nil
	}
	tone, err := generators.SineTone(sr, cfg.SquelchHz)
	if err != nil {
		return nil, fmt.Errorf("squelch tone: %w", err)
	}
	tail := &effects.Gain{Streamer: beep.Take(sr.N(cfg.Squelch), tone), Gain: -0.85}
	return beep.Seq(body, tail), nil
}

// softClip is tanh saturation scaled so that ±1 maps to ±1.
func softClip(x, drive float64) float64 {
	return math.Tanh(drive*x) / math.Tanh(drive)
}

func crackle(st beep.Streamer, drive, hiss float64, seed uint64) beep.Streamer {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := st.Stream(samples)
		for i := range samples[:n] {
			noise := (rng.Float64()*2 - 1) * hiss
			for c := range samples[i] {
				samples[i][c] = clamp(softClip(samples[i][c], drive) + noise)
			}
		}
		return n, ok
	})
}

func clamp(x float64) float64 {
	return max(-1, min(1, x))
}

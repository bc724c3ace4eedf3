package extra

import (
	"fmt"
	"math"
	"testing"

	"github.com/gopxl/beep/v2"
)

// tone yields n samples of a full scale sine.
func tone(n int, freq float64, sr beep.SampleRate) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= n {
			return 0, false
		}
		i := 0
		for ; i < len(samples) && pos < n; i++ {
			v := math.Sin(2 * math.Pi * freq * float64(pos) / float64(sr))
			samples[i] = [2]float64{v, v}
			pos++
		}
		return i, true
	})
}

func drain(t *testing.T, st beep.Streamer) [][2]float64 {
	t.Helper()
	var out [][2]float64
	buf := make([][2]float64, 512)
	for guard := 0; guard < 10000; guard++ {
		n, ok := st.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
	t.Fatal("streamer never ended")
	return nil
}

func TestSoftClip(t *testing.T) {
	cases := []struct {
		x, drive float64
	}{
		{x: 0, drive: 2.5},
		{x: 0.5, drive: 2.5},
		{x: 1, drive: 2.5},
		{x: -3, drive: 4},
		{x: 0.2, drive: 1},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("run_%d", i), func(t *testing.T) {
			got := softClip(tc.x, tc.drive)
			if math.Abs(got) > 1+1e-9 && math.Abs(tc.x) <= 1 {
				t.Errorf("softClip(%v) = %v out of range", tc.x, got)
			}
			if tc.x != 0 && math.Signbit(got) != math.Signbit(tc.x) {
				t.Errorf("softClip(%v) = %v flipped sign", tc.x, got)
			}
			if tc.x == 0 && got != 0 {
				t.Errorf("softClip(0) = %v", got)
			}
		})
	}
	if got := softClip(1, 3); math.Abs(got-1) > 1e-9 {
		t.Errorf("softClip(1) = %v, want 1", got)
	}
}

func TestRadioChain(t *testing.T) {
	sr := beep.SampleRate(16000)
	cfg := DefaultRadioConfig()
	const n = 4000
	st, err := Radio(tone(n, 1000, sr), sr, cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := drain(t, st)
	want := n + sr.N(cfg.Squelch)
	if len(out) != want {
		t.Fatalf("samples = %d, want %d", len(out), want)
	}
	var energy float64
	for i, s := range out {
		for _, v := range s {
			if math.IsNaN(v) || math.Abs(v) > 1 {
				t.Fatalf("sample %d = %v", i, v)
			}
		}
		energy += s[0] * s[0]
	}
	if energy == 0 {
		t.Error("chain produced silence")
	}
}

func TestRadioWithoutSquelch(t *testing.T) {
	sr := beep.SampleRate(8000)
	cfg := DefaultRadioConfig()
	cfg.Squelch = 0
	cfg.Hiss = 0
	st, err := Radio(tone(1000, 500, sr), sr, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(drain(t, st)); got != 1000 {
		t.Errorf("samples = %d, want 1000", got)
	}
}

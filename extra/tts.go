//go:build extra
// +build extra

package extra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"towertalk/models"

	google_translate_tts "github.com/GrailFinder/google-translate-tts"
	"github.com/GrailFinder/google-translate-tts/handlers"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// player owns the speaker and the stream currently playing.
type player struct {
	logger *slog.Logger
	radio  *RadioConfig

	initOnce sync.Once
	rate     beep.SampleRate
	initErr  error

	mu       sync.Mutex
	ctrl     *beep.Ctrl
	stopped  chan struct{}
	speaking atomic.Bool
}

func (p *player) play(ctx context.Context, st beep.Streamer, format beep.Format) error {
	p.initOnce.Do(func() {
		p.rate = format.SampleRate
		p.initErr = speaker.Init(p.rate, p.rate.N(time.Second/10))
	})
	if p.initErr != nil {
		return fmt.Errorf("failed to init speaker: %w", p.initErr)
	}
	if format.SampleRate != p.rate {
		st = beep.Resample(4, format.SampleRate, p.rate, st)
	}
	if p.radio != nil {
		var err error
		st, err = Radio(st, p.rate, *p.radio)
		if err != nil {
			return err
		}
	}
	done := make(chan struct{})
	stopped := make(chan struct{})
	ctrl := &beep.Ctrl{Streamer: beep.Seq(st, beep.Callback(func() {
		close(done)
	}))}
	p.mu.Lock()
	p.ctrl = ctrl
	p.stopped = stopped
	p.mu.Unlock()
	speaker.Play(ctrl)
	select {
	case <-done:
		return nil
	case <-stopped:
		return nil
	case <-ctx.Done():
		p.Stop()
		return ctx.Err()
	}
}

func (p *player) Stop() {
	p.mu.Lock()
	ctrl, stopped := p.ctrl, p.stopped
	p.ctrl, p.stopped = nil, nil
	p.mu.Unlock()
	if ctrl == nil {
		return
	}
	p.logger.Debug("stopping playback")
	speaker.Lock()
	ctrl.Streamer = nil
	speaker.Unlock()
	close(stopped)
}

func (p *player) IsSpeaking() bool {
	return p.speaking.Load()
}

// speakEach fetches and plays every sentence of text in order.
func (p *player) speakEach(ctx context.Context, text string, fetch func(ctx context.Context, sentence string) (beep.StreamSeekCloser, beep.Format, error)) error {
	p.speaking.Store(true)
	defer p.speaking.Store(false)
	for _, sentence := range splitSentences(text) {
		if err := ctx.Err(); err != nil {
			return err
		}
		streamer, format, err := fetch(ctx, sentence)
		if err != nil {
			p.logger.Error("tts failed", "sentence", sentence, "error", err)
			return err
		}
		err = p.play(ctx, streamer, format)
		streamer.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// KokoroOrator talks to a Kokoro-FastAPI server,
// impl https://github.com/remsky/Kokoro-FastAPI
type KokoroOrator struct {
	player
	URL      string
	Format   models.AudioFormat
	Speed    float32
	Language string
	Voice    string
	client   *http.Client
}

func NewKokoroOrator(logger *slog.Logger, url, voice string, speed float32, radio *RadioConfig) *KokoroOrator {
	return &KokoroOrator{
		player:   player{logger: logger, radio: radio},
		URL:      url,
		Format:   models.AFMP3,
		Speed:    speed,
		Language: "a",
		Voice:    voice,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (o *KokoroOrator) requestSound(ctx context.Context, text string) (io.ReadCloser, error) {
	payload := map[string]any{
		"input":           text,
		"voice":           o.Voice,
		"response_format": o.Format,
		"download_format": o.Format,
		"stream":          false,
		"speed":           o.Speed,
		"lang_code":       o.Language,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.URL, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (o *KokoroOrator) Speak(ctx context.Context, text string) error {
	o.logger.Debug("fn: Speak is called", "text-len", len(text))
	return o.speakEach(ctx, text, func(ctx context.Context, sentence string) (beep.StreamSeekCloser, beep.Format, error) {
		body, err := o.requestSound(ctx, sentence)
		if err != nil {
			return nil, beep.Format{}, err
		}
		streamer, format, err := mp3.Decode(body)
		if err != nil {
			body.Close()
			return nil, beep.Format{}, fmt.Errorf("mp3 decode failed: %w", err)
		}
		return streamer, format, nil
	})
}

// GoogleTranslateOrator synthesises through the Google Translate voice.
type GoogleTranslateOrator struct {
	player
	speech *google_translate_tts.Speech
}

func NewGoogleTranslateOrator(logger *slog.Logger, language string, speed float32, radio *RadioConfig) *GoogleTranslateOrator {
	if language == "" {
		language = "en"
	}
	speech := &google_translate_tts.Speech{
		Folder:   filepath.Join(os.TempDir(), "towertalk-tts"),
		Language: language,
		Speed:    speed,
		Handler:  &handlers.Beep{},
	}
	return &GoogleTranslateOrator{
		player: player{logger: logger, radio: radio},
		speech: speech,
	}
}

func (o *GoogleTranslateOrator) Speak(ctx context.Context, text string) error {
	o.logger.Debug("fn: Speak is called", "text-len", len(text))
	return o.speakEach(ctx, text, func(ctx context.Context, sentence string) (beep.StreamSeekCloser, beep.Format, error) {
		reader, err := o.speech.GenerateSpeech(sentence)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("generate speech failed: %w", err)
		}
		streamer, format, err := mp3.Decode(io.NopCloser(reader))
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("mp3 decode failed: %w", err)
		}
		if speed := o.speech.Speed; speed > 0 && speed != 1.0 {
			// faster playback through a higher effective sample rate
			format.SampleRate = beep.SampleRate(float64(format.SampleRate) * float64(speed))
		}
		return streamer, format, nil
	})
}

func (o *GoogleTranslateOrator) Stop() {
	o.player.Stop()
	if o.speech != nil {
		_ = o.speech.Stop()
	}
}

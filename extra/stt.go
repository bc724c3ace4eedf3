//go:build extra
// +build extra

package extra

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"syscall"
	"time"

	"towertalk/models"

	"github.com/gordonklaus/portaudio"
)

// maxCapture bounds the audio re-sent to whisper on every partial.
const maxCapture = 30 * time.Second

// WhisperListener records the microphone and posts the growing recording to
// a whisper server every PartialInterval; each answer supersedes the last.
type WhisperListener struct {
	logger          *slog.Logger
	ServerURL       string
	SampleRate      int
	Language        string
	PartialInterval time.Duration
	client          *http.Client

	initOnce sync.Once
	initErr  error

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewWhisperListener(logger *slog.Logger, url string, sampleRate int, lang string, interval time.Duration) *WhisperListener {
	if interval <= 0 {
		interval = time.Second
	}
	return &WhisperListener{
		logger:          logger,
		ServerURL:       url,
		SampleRate:      sampleRate,
		Language:        lang,
		PartialInterval: interval,
		client:          &http.Client{Timeout: 20 * time.Second},
	}
}

// initAudio initialises PortAudio once with stderr silenced, ALSA is noisy.
func (l *WhisperListener) initAudio() error {
	l.initOnce.Do(func() {
		origStderr, err := syscall.Dup(syscall.Stderr)
		if err == nil {
			nullFD, err := syscall.Open("/dev/null", syscall.O_WRONLY, 0)
			if err == nil {
				_ = syscall.Dup2(nullFD, syscall.Stderr)
				defer func() {
					_ = syscall.Dup2(origStderr, syscall.Stderr)
					syscall.Close(origStderr)
					syscall.Close(nullFD)
				}()
			}
		}
		if err := portaudio.Initialize(); err != nil {
			l.initErr = fmt.Errorf("portaudio init failed: %w", err)
		}
	})
	return l.initErr
}

// Authorized reports whether a microphone can be opened.
func (l *WhisperListener) Authorized() bool {
	return l.initAudio() == nil
}

func (l *WhisperListener) IsListening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

func (l *WhisperListener) StopListening() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (l *WhisperListener) StartListening(ctx context.Context) (<-chan models.Transcript, error) {
	if err := l.initAudio(); err != nil {
		return nil, err
	}
	in := make([]int16, 256)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(l.SampleRate), len(in), in)
	if err != nil {
		return nil, fmt.Errorf("failed to open microphone: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start microphone: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	l.StopListening()
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()

	var (
		bufMu sync.Mutex
		audio bytes.Buffer
	)
	limit := l.SampleRate * 2 * int(maxCapture/time.Second)
	recorded := make(chan struct{})
	go func() {
		defer close(recorded)
		defer stream.Close()
		defer stream.Stop()
		for ctx.Err() == nil {
			if err := stream.Read(); err != nil {
				l.logger.Error("reading stream", "error", err)
				return
			}
			bufMu.Lock()
			if audio.Len() < limit {
				if err := binary.Write(&audio, binary.LittleEndian, in); err != nil {
					l.logger.Error("writing to buffer", "error", err)
				}
			}
			bufMu.Unlock()
		}
	}()

	out := make(chan models.Transcript, 4)
	go func() {
		defer close(out)
		defer cancel()
		ticker := time.NewTicker(l.PartialInterval)
		defer ticker.Stop()
		last := ""
		for {
			select {
			case <-ctx.Done():
				<-recorded
				return
			case <-recorded:
				return
			case <-ticker.C:
			}
			bufMu.Lock()
			pcm := bytes.Clone(audio.Bytes())
			bufMu.Unlock()
			if len(pcm) == 0 {
				continue
			}
			text, err := transcribe(ctx, l.client, l.ServerURL, l.SampleRate, l.Language, pcm)
			if ctx.Err() != nil {
				<-recorded
				return
			}
			if err != nil {
				out <- models.Transcript{Err: err}
				return
			}
			if text == "" || text == last {
				continue
			}
			last = text
			l.logger.Debug("partial transcript", "text", text)
			out <- models.Transcript{Text: text}
		}
	}()
	return out, nil
}

package dialogue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"towertalk/models"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.clock.ignoreStop {
		return false
	}
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock only moves on Advance. Due callbacks run on the caller's
// goroutine in deadline order.
type fakeClock struct {
	mu         sync.Mutex
	now        time.Time
	timers     []*fakeTimer
	ignoreStop bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.fired && (!t.stopped || c.ignoreStop) && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) active(d time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.timers {
		if t.d == d && !t.fired && !t.stopped {
			return true
		}
	}
	return false
}

func (c *fakeClock) armedCount(d time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if t.d == d {
			n++
		}
	}
	return n
}

// waitArmed blocks until at least n timers with duration d were created.
func (c *fakeClock) waitArmed(t *testing.T, d time.Duration, n int) {
	t.Helper()
	eventually(t, func() bool { return c.armedCount(d) >= n }, "timer %v armed fewer than %d times", d, n)
}

// waitTimer blocks until a pending timer with duration d exists.
func (c *fakeClock) waitTimer(t *testing.T, d time.Duration) {
	t.Helper()
	eventually(t, func() bool { return c.active(d) }, "timer %v never armed", d)
}

type fakeOutput struct {
	mu       sync.Mutex
	lines    []string
	speaking bool
	stops    int
	release  chan struct{}
	err      error
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{release: make(chan struct{}, 16)}
}

func (o *fakeOutput) Speak(ctx context.Context, text string) error {
	o.mu.Lock()
	o.lines = append(o.lines, text)
	o.speaking = true
	err := o.err
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.speaking = false
		o.mu.Unlock()
	}()
	select {
	case <-o.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *fakeOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stops++
}

func (o *fakeOutput) IsSpeaking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speaking
}

// finish lets the current utterance complete.
func (o *fakeOutput) finish() {
	o.release <- struct{}{}
}

func (o *fakeOutput) spoken() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.lines))
	copy(out, o.lines)
	return out
}

func (o *fakeOutput) stopCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stops
}

type fakeInput struct {
	mu         sync.Mutex
	ch         chan models.Transcript
	listening  bool
	captures   int
	authorized bool
	startErr   error
}

func newFakeInput() *fakeInput {
	return &fakeInput{authorized: true}
}

func (in *fakeInput) StartListening(ctx context.Context) (<-chan models.Transcript, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.startErr != nil {
		return nil, in.startErr
	}
	ch := make(chan models.Transcript, 16)
	in.ch = ch
	in.listening = true
	in.captures++
	go func() {
		<-ctx.Done()
		in.close(ch)
	}()
	return ch, nil
}

func (in *fakeInput) close(ch chan models.Transcript) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.ch == ch {
		close(ch)
		in.ch = nil
		in.listening = false
	}
}

func (in *fakeInput) StopListening() {
	in.mu.Lock()
	ch := in.ch
	in.mu.Unlock()
	if ch != nil {
		in.close(ch)
	}
}

func (in *fakeInput) IsListening() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.listening
}

func (in *fakeInput) Authorized() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.authorized
}

func (in *fakeInput) send(tr models.Transcript) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.ch == nil {
		return errors.New("not listening")
	}
	in.ch <- tr
	return nil
}

func (in *fakeInput) say(t *testing.T, text string) {
	t.Helper()
	if err := in.send(models.Transcript{Text: text}); err != nil {
		t.Fatal(err)
	}
}

func (in *fakeInput) fail(t *testing.T, err error) {
	t.Helper()
	if err := in.send(models.Transcript{Err: err}); err != nil {
		t.Fatal(err)
	}
}

// hangUp ends the capture from the input side.
func (in *fakeInput) hangUp() {
	in.StopListening()
}

func (in *fakeInput) captureCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.captures
}

func eventually(t *testing.T, cond func() bool, format string, args ...any) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf(format, args...)
}

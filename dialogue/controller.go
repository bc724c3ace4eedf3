// Package dialogue runs the tower/driver conversation. A single goroutine
// owns the conversation state; callers, adapters and timers talk to it
// through a mailbox, so transitions never interleave.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"towertalk/models"
	"towertalk/tower"
)

var (
	ErrNoVehicle       = errors.New("no vehicle registered")
	ErrAwaitingWelcome = errors.New("welcome not sent yet")
	ErrSpeaking        = errors.New("tower is speaking")
	ErrNoVoiceInput    = errors.New("voice input unavailable")
	ErrClosed          = errors.New("controller stopped")
)

const mailboxSize = 64

type timerKind int

const (
	timerSettle timerKind = iota
	timerCooldown
	timerSilence
	timerSpeechBuffer
	timerLocationQuiet
)

func (k timerKind) String() string {
	switch k {
	case timerSettle:
		return "settle"
	case timerCooldown:
		return "cooldown"
	case timerSilence:
		return "silence"
	case timerSpeechBuffer:
		return "speech_buffer"
	case timerLocationQuiet:
		return "location_quiet"
	default:
		return "unknown"
	}
}

type armedTimer struct {
	seq   uint64
	timer Timer
}

// mailbox messages
type (
	registerReq struct {
		cs   models.CallSign
		done chan struct{}
	}
	resetReq struct {
		done chan struct{}
	}
	refreshReq struct {
		reply chan error
	}
	talkReq struct {
		reply chan error
	}
	snapshotReq struct {
		reply chan Snapshot
	}
	locationMsg struct {
		snap models.LocationSnapshot
	}
	partialMsg struct {
		seq uint64
		tr  models.Transcript
	}
	captureEnded struct {
		seq uint64
	}
	speechDone struct {
		seq uint64
		err error
	}
	timerFired struct {
		kind timerKind
		seq  uint64
	}
)

type Controller struct {
	cfg    Config
	logger *slog.Logger
	gen    *tower.Generator
	out    VoiceOutput
	in     VoiceInput
	clock  Clock

	mailbox chan any
	done    chan struct{}

	subMu   sync.Mutex
	dropped atomic.Uint64
	subs    map[int]chan Event
	nextSub int

	// everything below is owned by the Run goroutine
	runCtx        context.Context
	state         models.DialogueState
	callSign      models.CallSign
	history       []models.Turn
	location      models.LocationSnapshot
	cooldownOver  bool
	statusPending bool
	heard         string
	timers        map[timerKind]armedTimer
	seq           uint64
	listenSeq     uint64
	listenCancel  context.CancelFunc
	speechSeq     uint64
	speechCancel  context.CancelFunc
}

type Option func(*Controller)

func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// New builds a controller. out and in may be nil: without output lines are
// only logged, without input the driver cannot be heard.
func New(logger *slog.Logger, cfg Config, gen *tower.Generator, out VoiceOutput, in VoiceInput, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg.withDefaults(),
		logger:  logger,
		gen:     gen,
		out:     out,
		in:      in,
		clock:   realClock{},
		mailbox: make(chan any, mailboxSize),
		done:    make(chan struct{}),
		subs:    make(map[int]chan Event),
		timers:  make(map[timerKind]armedTimer),
		runCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes events until ctx is cancelled. It must be called once.
func (c *Controller) Run(ctx context.Context) error {
	c.runCtx = ctx
	defer close(c.done)
	c.logger.Debug("dialogue loop started")
	for {
		select {
		case <-ctx.Done():
			c.abortActivity()
			c.logger.Debug("dialogue loop stopped")
			return ctx.Err()
		case msg := <-c.mailbox:
			c.handle(msg)
		}
	}
}

func (c *Controller) post(msg any) bool {
	select {
	case c.mailbox <- msg:
		return true
	case <-c.done:
		return false
	}
}

// RegisterVehicle validates the input synchronously and starts a new session.
// Any previous session is reset first.
func (c *Controller) RegisterVehicle(vehicleMake, plateDigits string) error {
	cs, err := models.MakeCallSign(vehicleMake, plateDigits)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	if !c.post(registerReq{cs: cs, done: done}) {
		return ErrClosed
	}
	return c.wait(done)
}

// ResetSession returns to setup; it returns once the controller is idle.
func (c *Controller) ResetSession() error {
	done := make(chan struct{})
	if !c.post(resetReq{done: done}) {
		return ErrClosed
	}
	return c.wait(done)
}

// RequestStatusRefresh speaks the location status right away.
func (c *Controller) RequestStatusRefresh() error {
	reply := make(chan error, 1)
	if !c.post(refreshReq{reply: reply}) {
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrClosed
	}
}

// Talk opens the microphone outside of automatic turn taking.
func (c *Controller) Talk() error {
	reply := make(chan error, 1)
	if !c.post(talkReq{reply: reply}) {
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrClosed
	}
}

// UpdateLocation hands over a new snapshot from the location collaborator.
func (c *Controller) UpdateLocation(snap models.LocationSnapshot) {
	c.post(locationMsg{snap: snap})
}

func (c *Controller) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	if !c.post(snapshotReq{reply: reply}) {
		return Snapshot{}
	}
	select {
	case s := <-reply:
		return s
	case <-c.done:
		return Snapshot{}
	}
}

func (c *Controller) State() models.DialogueState {
	return c.Snapshot().State
}

func (c *Controller) History() []models.Turn {
	return c.Snapshot().History
}

// Subscribe returns a channel of events and a function to cancel it.
// Events are dropped for a subscriber whose buffer is full.
func (c *Controller) Subscribe(buf int) (<-chan Event, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan Event, buf)
	c.subs[id] = ch
	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if ch, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
}

func (c *Controller) wait(done chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Dropped counts events lost to lagging subscribers.
func (c *Controller) Dropped() uint64 {
	return c.dropped.Load()
}

func (c *Controller) emit(ev Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.dropped.Add(1)
			c.logger.Warn("subscriber lagging, event dropped", "event", ev.EventType(),
				"call_sign", c.callSign.String(), "dropped", c.dropped.Load())
		}
	}
}

func (c *Controller) handle(msg any) {
	switch m := msg.(type) {
	case registerReq:
		c.register(m.cs)
		close(m.done)
	case resetReq:
		c.reset()
		close(m.done)
	case refreshReq:
		m.reply <- c.refresh()
	case talkReq:
		m.reply <- c.talk()
	case snapshotReq:
		m.reply <- c.snapshot()
	case locationMsg:
		c.onLocation(m.snap)
	case partialMsg:
		c.onPartial(m)
	case captureEnded:
		if m.seq != 0 && m.seq == c.listenSeq && c.state == models.StateListening {
			c.logger.Debug("capture ended by input")
			c.finishTurn()
		}
	case speechDone:
		c.onSpeechDone(m)
	case timerFired:
		c.onTimer(m)
	default:
		c.logger.Warn("unknown mailbox message", "type", fmt.Sprintf("%T", msg))
	}
}

func (c *Controller) snapshot() Snapshot {
	history := make([]models.Turn, len(c.history))
	copy(history, c.history)
	s := Snapshot{
		State:    c.state,
		Location: c.location,
		History:  history,
	}
	if !c.callSign.IsZero() {
		s.CallSign = c.callSign.String()
	}
	return s
}

func (c *Controller) setState(to models.DialogueState) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.logger.Debug("state changed", "from", from, "to", to)
	c.emit(StateEvent{From: from, To: to})
}

func (c *Controller) appendTurn(t models.Turn) {
	c.history = append(c.history, t)
	c.emit(TurnEvent{Turn: t})
}

func (c *Controller) register(cs models.CallSign) {
	c.abortActivity()
	c.history = nil
	c.callSign = cs
	c.cooldownOver = false
	c.logger.Info("vehicle registered", "call_sign", cs.String())
	c.emit(SessionEvent{CallSign: cs.String(), Registered: true})
	c.setState(models.StateAwaitingWelcome)
	c.arm(timerSettle, c.cfg.SettleDelay)
	c.arm(timerCooldown, c.cfg.Cooldown)
}

func (c *Controller) reset() {
	c.abortActivity()
	c.history = nil
	c.callSign = models.CallSign{}
	c.cooldownOver = false
	c.logger.Info("session reset")
	c.setState(models.StateIdle)
	c.emit(SessionEvent{Registered: false})
}

// abortActivity cancels timers, the capture and the utterance in flight.
func (c *Controller) abortActivity() {
	c.disarmAll()
	c.stopCapture()
	c.stopSpeech()
	c.heard = ""
	c.statusPending = false
}

func (c *Controller) refresh() error {
	switch {
	case c.callSign.IsZero():
		return ErrNoVehicle
	case c.state == models.StateAwaitingWelcome:
		return ErrAwaitingWelcome
	case c.state == models.StateSpeaking:
		return ErrSpeaking
	}
	if c.state == models.StateListening {
		c.disarm(timerSilence)
		c.stopCapture()
		c.heard = ""
	}
	c.speakStatus()
	return nil
}

func (c *Controller) talk() error {
	switch {
	case c.callSign.IsZero():
		return ErrNoVehicle
	case c.state == models.StateAwaitingWelcome:
		return ErrAwaitingWelcome
	case c.state == models.StateSpeaking:
		return ErrSpeaking
	case c.state == models.StateListening:
		return nil
	case c.in == nil || !c.in.Authorized():
		return ErrNoVoiceInput
	}
	c.startCapture()
	return nil
}

func (c *Controller) onLocation(snap models.LocationSnapshot) {
	changed := snap.PrimaryStreet != c.location.PrimaryStreet || snap.CrossStreet != c.location.CrossStreet
	c.location = snap
	c.emit(LocationEvent{Snapshot: snap})
	if !changed || c.callSign.IsZero() {
		return
	}
	c.arm(timerLocationQuiet, c.cfg.LocationQuiet)
}

func (c *Controller) onPartial(m partialMsg) {
	if m.seq == 0 || m.seq != c.listenSeq || c.state != models.StateListening {
		return
	}
	if m.tr.Err != nil {
		c.logger.Warn("recognition failed", "error", m.tr.Err)
		c.disarm(timerSilence)
		c.stopCapture()
		c.heard = ""
		c.toIdle()
		return
	}
	c.heard = m.tr.Text
	c.arm(timerSilence, c.cfg.SilenceWindow)
}

func (c *Controller) onSpeechDone(m speechDone) {
	if m.seq == 0 || m.seq != c.speechSeq {
		return
	}
	c.speechSeq = 0
	if c.speechCancel != nil {
		c.speechCancel()
		c.speechCancel = nil
	}
	if m.err != nil && !errors.Is(m.err, context.Canceled) {
		c.logger.Warn("speech synthesis failed", "error", m.err)
	}
	if c.state != models.StateSpeaking {
		return
	}
	if c.cfg.AutoConversation && c.in != nil {
		c.arm(timerSpeechBuffer, c.cfg.SpeechBuffer)
		return
	}
	c.toIdle()
}

func (c *Controller) onTimer(m timerFired) {
	armed, ok := c.timers[m.kind]
	if !ok || armed.seq != m.seq {
		c.logger.Debug("stale timer dropped", "timer", m.kind)
		return
	}
	delete(c.timers, m.kind)
	switch m.kind {
	case timerSettle:
		if c.state != models.StateAwaitingWelcome {
			return
		}
		street := ""
		if c.location.HasStreet() {
			street = c.location.PrimaryStreet
		}
		c.speak(c.gen.Welcome(c.callSign, street))
	case timerCooldown:
		c.cooldownOver = true
	case timerSilence:
		if c.state == models.StateListening {
			c.finishTurn()
		}
	case timerSpeechBuffer:
		if c.state == models.StateSpeaking {
			c.startCapture()
		}
	case timerLocationQuiet:
		if !c.cooldownOver {
			c.logger.Debug("movement before cooldown ignored")
			return
		}
		switch c.state {
		case models.StateIdle:
			c.speakStatus()
		case models.StateAwaitingWelcome, models.StateListening, models.StateProcessing, models.StateSpeaking:
			c.statusPending = true
		}
	}
}

// finishTurn closes the driver's transmission and answers it.
func (c *Controller) finishTurn() {
	text := strings.TrimSpace(c.heard)
	c.heard = ""
	c.disarm(timerSilence)
	c.stopCapture()
	if text == "" {
		c.toIdle()
		return
	}
	valid := c.callSign.Brackets(text)
	c.appendTurn(models.DriverTurn(text, c.clock.Now(), valid))
	if !valid {
		c.logger.Info("transmission without call sign", "text", text)
		c.speak(c.gen.Correction(c.callSign))
		return
	}
	c.setState(models.StateProcessing)
	if c.statusPending || tower.AsksForPosition(text) {
		c.speakStatus()
		return
	}
	c.speak(c.gen.Acknowledge(c.callSign))
}

// toIdle ends activity within the session; a movement announcement that
// arrived while busy goes out now.
func (c *Controller) toIdle() {
	c.setState(models.StateIdle)
	if c.statusPending && c.cooldownOver && !c.callSign.IsZero() {
		c.speakStatus()
	}
}

func (c *Controller) speakStatus() {
	c.statusPending = false
	c.speak(c.gen.LocationStatus(c.callSign, c.location.PrimaryStreet, c.location.CrossStreet))
}

// speak stops any utterance in flight before starting the new one.
func (c *Controller) speak(text string) {
	c.stopSpeech()
	c.appendTurn(models.TowerTurn(text, c.clock.Now()))
	c.logger.Info("tower", "text", text)
	c.setState(models.StateSpeaking)
	seq := c.nextSeq()
	c.speechSeq = seq
	if c.out == nil {
		go c.post(speechDone{seq: seq})
		return
	}
	ctx, cancel := context.WithCancel(c.runCtx)
	c.speechCancel = cancel
	spoken := c.gen.Spoken(text, c.callSign)
	out := c.out
	go func() {
		err := out.Speak(ctx, spoken)
		c.post(speechDone{seq: seq, err: err})
	}()
}

func (c *Controller) stopSpeech() {
	c.speechSeq = 0
	if c.speechCancel == nil {
		return
	}
	c.speechCancel()
	c.speechCancel = nil
	if c.out != nil {
		c.out.Stop()
	}
}

func (c *Controller) startCapture() {
	if c.in == nil || !c.in.Authorized() {
		c.logger.Warn("voice input unavailable")
		c.toIdle()
		return
	}
	ctx, cancel := context.WithCancel(c.runCtx)
	ch, err := c.in.StartListening(ctx)
	if err != nil {
		cancel()
		c.logger.Warn("failed to start listening", "error", err)
		c.toIdle()
		return
	}
	seq := c.nextSeq()
	c.listenSeq = seq
	c.listenCancel = cancel
	c.heard = ""
	c.setState(models.StateListening)
	c.arm(timerSilence, c.cfg.ListenTimeout)
	go func() {
		for tr := range ch {
			if !c.post(partialMsg{seq: seq, tr: tr}) {
				return
			}
		}
		c.post(captureEnded{seq: seq})
	}()
}

func (c *Controller) stopCapture() {
	c.listenSeq = 0
	if c.listenCancel == nil {
		return
	}
	c.listenCancel()
	c.listenCancel = nil
	if c.in != nil {
		c.in.StopListening()
	}
}

func (c *Controller) nextSeq() uint64 {
	c.seq++
	return c.seq
}

func (c *Controller) arm(kind timerKind, d time.Duration) {
	c.disarm(kind)
	seq := c.nextSeq()
	t := c.clock.AfterFunc(d, func() {
		c.post(timerFired{kind: kind, seq: seq})
	})
	c.timers[kind] = armedTimer{seq: seq, timer: t}
}

func (c *Controller) disarm(kind timerKind) {
	if armed, ok := c.timers[kind]; ok {
		armed.timer.Stop()
		delete(c.timers, kind)
	}
}

func (c *Controller) disarmAll() {
	for kind := range c.timers {
		c.disarm(kind)
	}
}

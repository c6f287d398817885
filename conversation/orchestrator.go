package conversation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kinodev/chatfolio/logger"
	"github.com/kinodev/chatfolio/reveal"
	"github.com/kinodev/chatfolio/script"
)

const inboxSize = 64

// ErrAlreadyRunning is returned when Run is called twice.
var ErrAlreadyRunning = errors.New("conversation: orchestrator already running")

// Orchestrator owns one conversation. All state changes happen on the
// goroutine executing Run; other goroutines talk to it through Submit, Edit
// and React, and read it through Snapshot.
type Orchestrator struct {
	script *script.Script
	pacing Pacing
	clock  clockwork.Clock
	sink   Sink
	input  *Input

	inbox   chan command
	done    chan struct{}
	running atomic.Bool

	// run identifies the prompt currently being revealed. Loop goroutine only.
	run uint64

	mu    sync.RWMutex
	state State
}

// Option configures an Orchestrator.
type Option func(*options)

type options struct {
	pacing Pacing
	clock  clockwork.Clock
	effect reveal.Effect
	sink   Sink
}

// WithPacing overrides the default timings.
func WithPacing(p Pacing) Option { return func(o *options) { o.pacing = p } }

// WithClock sets the clock used for every delay.
func WithClock(c clockwork.Clock) Option { return func(o *options) { o.clock = c } }

// WithEffect sets the reveal effect used by the input widget.
func WithEffect(e reveal.Effect) Option { return func(o *options) { o.effect = e } }

// WithSink sets the event receiver.
func WithSink(s Sink) Option { return func(o *options) { o.sink = s } }

// New creates an orchestrator for sc. sc must be valid.
func New(sc *script.Script, opts ...Option) *Orchestrator {
	cfg := options{pacing: DefaultPacing()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clock == nil {
		cfg.clock = clockwork.NewRealClock()
	}
	if cfg.effect == nil {
		cfg.effect = reveal.NewTypewriter(cfg.clock)
	}
	if cfg.sink == nil {
		cfg.sink = discardSink{}
	}
	return &Orchestrator{
		script: sc,
		pacing: cfg.pacing,
		clock:  cfg.clock,
		sink:   cfg.sink,
		input:  NewInput(cfg.effect, cfg.pacing.RevealSpeed),
		inbox:  make(chan command, inboxSize),
		done:   make(chan struct{}),
	}
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := o.state
	s.History = append([]Message(nil), o.state.History...)
	return s
}

// Done is closed when Run returns.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

type command interface{ isCommand() }

type submitCmd struct{ reply chan bool }
type editCmd struct {
	text  string
	reply chan bool
}
type reactCmd struct {
	key   string
	reply chan bool
}
type revealProgress struct {
	run  uint64
	text string
}
type revealDone struct{ run uint64 }

func (submitCmd) isCommand()      {}
func (editCmd) isCommand()        {}
func (reactCmd) isCommand()       {}
func (revealProgress) isCommand() {}
func (revealDone) isCommand()     {}

// Submit sends the input surface. It reports false, changing nothing, when
// the visitor may not send right now or the surface is blank.
func (o *Orchestrator) Submit() bool {
	return o.request(func(reply chan bool) command { return submitCmd{reply: reply} })
}

// Edit replaces the input surface while the visitor may send.
func (o *Orchestrator) Edit(text string) bool {
	return o.request(func(reply chan bool) command { return editCmd{text: text, reply: reply} })
}

// React plays the reaction with the given key. Only allowed once the script
// has finished.
func (o *Orchestrator) React(key string) bool {
	return o.request(func(reply chan bool) command { return reactCmd{key: key, reply: reply} })
}

func (o *Orchestrator) request(build func(chan bool) command) bool {
	if !o.running.Load() {
		return false
	}
	reply := make(chan bool, 1)
	select {
	case o.inbox <- build(reply):
	case <-o.done:
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-o.done:
		return false
	}
}

// post delivers a command from a reveal callback. Progress is cosmetic and
// dropped when the inbox is full; completion always waits for room.
func (o *Orchestrator) post(cmd command) {
	if _, ok := cmd.(revealProgress); ok {
		select {
		case o.inbox <- cmd:
		default:
		}
		return
	}
	select {
	case o.inbox <- cmd:
	case <-o.done:
	}
}

// Run plays the script until ctx is cancelled. The in-flight reveal is
// released on return.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(o.done)
	defer o.input.Release()

	o.emitStatus(EventState)
	if err := o.wait(ctx, o.pacing.Startup); err != nil {
		return err
	}
	o.presentPrompt(0)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-o.inbox:
			if err := o.handle(ctx, cmd); err != nil {
				return err
			}
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, cmd command) error {
	phase := o.phase()

	switch c := cmd.(type) {
	case submitCmd:
		if phase != PhaseUserTurn {
			c.reply <- false
			return nil
		}
		text, ok := o.input.Submit()
		c.reply <- ok
		if !ok {
			return nil
		}
		return o.playTurn(ctx, text)

	case editCmd:
		ok := phase == PhaseUserTurn && o.input.SetText(c.text)
		c.reply <- ok
		if ok {
			o.emitInput()
		}

	case reactCmd:
		r, found := o.script.Reaction(c.key)
		ok := phase == PhaseFinished && found
		c.reply <- ok
		if ok {
			return o.playReaction(ctx, r)
		}

	case revealProgress:
		if c.run == o.run && phase == PhasePromptReveal {
			o.sink.Emit(Event{Type: EventInput, Input: &InputView{Text: c.text, Revealing: true}})
		}

	case revealDone:
		if c.run != o.run || phase != PhasePromptReveal {
			return nil
		}
		o.update(func(s *State) {
			s.Phase = PhaseUserTurn
			s.AwaitingUserInput = true
		})
		logger.Debug("prompt revealed", "stage", o.Snapshot().StageCursor)
		o.emitStatus(EventState)
		o.emitInput()
	}
	return nil
}

// wait pauses for d while still answering requests: anything arriving now is
// rejected, and stale reveal callbacks are dropped.
func (o *Orchestrator) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := o.clock.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.Chan():
			return nil
		case cmd := <-o.inbox:
			reject(cmd)
		}
	}
}

func reject(cmd command) {
	switch c := cmd.(type) {
	case submitCmd:
		c.reply <- false
	case editCmd:
		c.reply <- false
	case reactCmd:
		c.reply <- false
	}
}

func (o *Orchestrator) presentPrompt(i int) {
	prompt, ok := o.script.Prompt(i)
	if !ok {
		o.finish()
		return
	}
	o.run++
	run := o.run
	o.update(func(s *State) {
		s.Phase = PhasePromptReveal
		s.StageCursor = i
		s.AwaitingUserInput = false
		s.PendingPrompt = prompt
	})
	o.emitStatus(EventState)
	logger.Debug("revealing prompt", "stage", i, "prompt", prompt)

	o.input.Present(prompt,
		func(text string) { o.post(revealProgress{run: run, text: text}) },
		func() { o.post(revealDone{run: run}) },
	)
}

func (o *Orchestrator) playTurn(ctx context.Context, text string) error {
	o.appendMessage(Message{Text: text, Speaker: SpeakerUser, Kind: KindPlain})
	o.update(func(s *State) {
		s.Phase = PhaseAssistantTurn
		s.AwaitingUserInput = false
		s.PendingPrompt = ""
	})
	o.input.Release()
	o.emitStatus(EventState)
	o.emitInput()

	cursor := o.Snapshot().StageCursor
	if err := o.wait(ctx, o.pacing.Reply); err != nil {
		return err
	}

	stage, _ := o.script.Stage(cursor)
	logger.Debug("playing stage", "stage", cursor, "lines", len(stage.Lines))
	for _, line := range stage.Lines {
		if err := o.playLine(ctx, line); err != nil {
			return err
		}
	}

	o.update(func(s *State) { s.Phase = PhaseStageComplete })
	o.emitStatus(EventState)
	if err := o.wait(ctx, o.pacing.StageBuffer); err != nil {
		return err
	}

	next := cursor + 1
	if _, ok := o.script.Prompt(next); ok && next < len(o.script.Stages) {
		o.presentPrompt(next)
		return nil
	}
	o.finish()
	return nil
}

func (o *Orchestrator) playLine(ctx context.Context, line script.Line) error {
	if !o.pacing.SkipLineDelays {
		if err := o.wait(ctx, line.Delay()); err != nil {
			return err
		}
	}

	if line.IsFooter() {
		if err := o.wait(ctx, o.pacing.FooterSettle); err != nil {
			return err
		}
		o.appendMessage(o.messageFor(line))
		return nil
	}

	if err := o.typingCycle(ctx); err != nil {
		return err
	}
	o.appendMessage(o.messageFor(line))
	return o.wait(ctx, o.pacing.Between)
}

func (o *Orchestrator) typingCycle(ctx context.Context) error {
	o.setTyping(true)
	err := o.wait(ctx, o.pacing.Thinking)
	o.setTyping(false)
	return err
}

func (o *Orchestrator) playReaction(ctx context.Context, r script.Reaction) error {
	logger.Debug("playing reaction", "key", r.Key)
	o.appendMessage(Message{Text: r.Emoji, Speaker: SpeakerUser, Kind: KindPlain})
	if err := o.typingCycle(ctx); err != nil {
		return err
	}
	o.appendMessage(Message{Text: r.Reply, Speaker: SpeakerAssistant, Kind: KindPlain})
	return nil
}

func (o *Orchestrator) finish() {
	o.update(func(s *State) {
		s.Phase = PhaseFinished
		s.AwaitingUserInput = false
		s.PendingPrompt = ""
		s.ScriptComplete = true
	})
	logger.Info("script complete", "messages", len(o.Snapshot().History))
	o.emitStatus(EventState)
	o.emitStatus(EventFinished)
}

func (o *Orchestrator) messageFor(line script.Line) Message {
	m := Message{Text: line.Text(), Speaker: SpeakerAssistant, Kind: KindPlain}
	switch line.Kind() {
	case script.LineLink:
		m.Kind = KindLink
		m.URL = line.URL()
		m.DownloadName = line.DownloadName()
	case script.LineProjects:
		m.Kind = KindProjects
		m.Projects = append([]script.Project(nil), o.script.Projects...)
	case script.LineFooter:
		m.Kind = KindFooter
	}
	return m
}

func (o *Orchestrator) appendMessage(m Message) {
	m.At = o.clock.Now()
	m.ID = newMessageID(m.At)
	o.update(func(s *State) { s.History = append(s.History, m) })
	o.sink.Emit(Event{Type: EventMessage, Message: &m})
}

func (o *Orchestrator) setTyping(visible bool) {
	o.update(func(s *State) { s.TypingIndicatorVisible = visible })
	o.emitStatus(EventTyping)
}

func (o *Orchestrator) phase() Phase {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.Phase
}

func (o *Orchestrator) update(fn func(s *State)) {
	o.mu.Lock()
	fn(&o.state)
	o.mu.Unlock()
}

func (o *Orchestrator) emitStatus(t EventType) {
	o.mu.RLock()
	st := o.state.Status
	o.mu.RUnlock()
	o.sink.Emit(Event{Type: t, Status: &st})
}

func (o *Orchestrator) emitInput() {
	view := InputView{
		Text:      o.input.Value(),
		Revealing: o.input.Revealing(),
		Sendable:  o.phase() == PhaseUserTurn,
	}
	o.sink.Emit(Event{Type: EventInput, Input: &view})
}

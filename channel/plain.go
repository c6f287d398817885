package channel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/term"

	"github.com/kinodev/chatfolio/bus"
	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/logger"
	"github.com/kinodev/chatfolio/markup"
	"github.com/kinodev/chatfolio/script"
)

const plainSessionID = "plain"

var errChannelStopped = errors.New("channel stopped")

// signal sets a one-slot flag without blocking.
func signal(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PlainOptions configures a PlainChannel.
type PlainOptions struct {
	In  io.Reader // visitor input, one line per send; nil with AutoSubmit
	Out io.Writer

	// AutoSubmit sends each prompt as soon as it is revealed and stops after
	// the last stage.
	AutoSubmit bool

	// Render formats assistant text. Defaults to markup.Plain.
	Render func(string) string

	Conversation []conversation.Option
}

// PlainChannel prints the conversation line by line. Without AutoSubmit it
// reads stdin: any line sends the pending prompt, and after the script is
// finished a line naming a reaction key plays that reaction.
type PlainChannel struct {
	bus    *bus.Bus
	script *script.Script
	opts   PlainOptions

	session  *Session
	subID    string
	finished atomic.Bool

	ready    chan struct{} // a prompt became sendable
	replied  chan struct{} // a reaction reply was printed
	over     chan struct{} // closed once the script is finished
	overOnce sync.Once

	mu   sync.Mutex // guards writes to opts.Out
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewPlainChannel creates a plain text channel for sc.
func NewPlainChannel(b *bus.Bus, sc *script.Script, opts PlainOptions) *PlainChannel {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Render == nil {
		opts.Render = markup.Plain
	}
	return &PlainChannel{
		bus:    b,
		script: sc,
		opts:    opts,
		done:    make(chan struct{}),
		ready:   make(chan struct{}, 1),
		replied: make(chan struct{}, 1),
		over:    make(chan struct{}),
	}
}

func (c *PlainChannel) Name() string { return "plain" }

func (c *PlainChannel) Start(ctx context.Context) error {
	c.session = NewSession(c.bus, plainSessionID, c.script, c.opts.Conversation...)
	c.subID = c.bus.Subscribe(bus.EventConversation, c.onEvent)
	c.printf("%s · %s\n\n", c.script.Profile.Name, c.script.Profile.Status)
	c.session.Start(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		select {
		case <-c.session.Done():
			c.finish()
		case <-c.done:
		}
	}()

	if !c.opts.AutoSubmit && c.opts.In != nil {
		go c.readInput(ctx)
	}

	logger.Info("plain channel started", "auto", c.opts.AutoSubmit)
	return nil
}

// Done is closed when playback is over: after the last stage with
// AutoSubmit, otherwise when input ends or the visitor quits.
func (c *PlainChannel) Done() <-chan struct{} { return c.done }

func (c *PlainChannel) Stop() error {
	c.finish()
	if c.session != nil {
		c.session.Stop()
	}
	c.wg.Wait()
	if c.subID != "" {
		c.bus.Unsubscribe(c.subID)
	}
	logger.Info("plain channel stopped")
	return nil
}

func (c *PlainChannel) finish() {
	c.once.Do(func() { close(c.done) })
}

func (c *PlainChannel) onEvent(_ context.Context, e *bus.Event) {
	if e.Source != plainSessionID || e.Conversation == nil {
		return
	}
	ev := e.Conversation
	switch ev.Type {
	case conversation.EventMessage:
		c.printf("%s\n", FormatMessage(*ev.Message, c.opts.Render))
		if c.finished.Load() && ev.Message.Speaker == conversation.SpeakerAssistant {
			signal(c.replied)
		}

	case conversation.EventInput:
		if !ev.Input.Sendable {
			return
		}
		if c.opts.AutoSubmit {
			// The orchestrator may be waiting on this bus; submit off the
			// dispatch goroutine.
			go c.session.Orchestrator.Submit()
			return
		}
		c.printf("› %s  [enter to send]\n", ev.Input.Text)
		signal(c.ready)

	case conversation.EventFinished:
		c.finished.Store(true)
		c.overOnce.Do(func() { close(c.over) })
		if c.opts.AutoSubmit {
			c.finish()
			return
		}
		if len(c.script.Reactions) > 0 {
			keys := make([]string, 0, len(c.script.Reactions))
			for _, r := range c.script.Reactions {
				keys = append(keys, r.Key)
			}
			c.printf("\nreact with: %s\n", strings.Join(keys, ", "))
		}
	}
}

// readInput sends one prompt per line. Lines that arrive early wait for
// their prompt, so piped input plays the whole script.
func (c *PlainChannel) readInput(ctx context.Context) {
	defer c.finish()

	scanner := bufio.NewScanner(c.opts.In)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" || line == "/exit" || line == "/quit" {
			return
		}
		if !c.finished.Load() {
			sent, err := c.submit(ctx)
			if err != nil {
				return
			}
			if sent {
				continue
			}
		}
		if line == "" {
			continue
		}
		if err := c.react(ctx, line); err != nil {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("plain channel input error", "err", err)
	}

	// Input is exhausted: stay until the script is over or stalls on a
	// prompt no line will send.
	select {
	case <-ctx.Done():
	case <-c.done:
	case <-c.over:
	case <-c.ready:
	}
}

// submit waits for the pending prompt to become sendable and sends it. It
// reports false when the script finished first.
func (c *PlainChannel) submit(ctx context.Context) (bool, error) {
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-c.done:
			return false, errChannelStopped
		case <-c.over:
			return false, nil
		case <-c.ready:
			if c.session.Orchestrator.Submit() {
				return true, nil
			}
		}
	}
}

// react plays the reaction named key and waits for its reply.
func (c *PlainChannel) react(ctx context.Context, key string) error {
	if _, ok := c.script.Reaction(key); !ok {
		c.printf("unknown reaction %q\n", key)
		return nil
	}
	if !c.session.Orchestrator.React(key) {
		c.printf("reaction %q is not available right now\n", key)
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return errChannelStopped
	case <-c.replied:
		return nil
	}
}

func (c *PlainChannel) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.opts.Out, format, args...)
}

// FormatMessage renders one history entry as plain transcript text.
func FormatMessage(m conversation.Message, render func(string) string) string {
	if m.Speaker == conversation.SpeakerUser {
		return "> " + m.Text
	}
	switch m.Kind {
	case conversation.KindLink:
		if m.DownloadName != "" {
			return fmt.Sprintf("%s ⤓ %s (%s)", render(m.Text), m.URL, m.DownloadName)
		}
		return fmt.Sprintf("%s ↗ %s", render(m.Text), m.URL)
	case conversation.KindProjects:
		var b strings.Builder
		for i, p := range m.Projects {
			if i > 0 {
				b.WriteByte('\n')
			}
			icon := p.Icon
			if icon == "" {
				icon = "•"
			}
			fmt.Fprintf(&b, "  %s %s (%s) View on GitHub: %s", icon, p.Title, p.Tech, p.URL)
		}
		return b.String()
	case conversation.KindFooter:
		return "— " + render(m.Text) + " —"
	default:
		return render(m.Text)
	}
}

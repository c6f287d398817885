package channel

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kinodev/chatfolio/bus"
	"github.com/kinodev/chatfolio/channel/tui"
	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/logger"
	"github.com/kinodev/chatfolio/script"
)

const tuiSessionID = "local"

// TUIOptions configures a TUIChannel.
type TUIOptions struct {
	ShowLogs     bool
	LogRatio     float64
	Conversation []conversation.Option
	Program      []tea.ProgramOption
}

// TUIChannel runs one conversation in a full-screen bubbletea program.
type TUIChannel struct {
	bus    *bus.Bus
	script *script.Script
	opts   TUIOptions

	session  *Session
	subID    string
	program  *tea.Program
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewTUIChannel creates a terminal channel for sc.
func NewTUIChannel(b *bus.Bus, sc *script.Script, opts TUIOptions) *TUIChannel {
	if opts.Program == nil {
		opts.Program = []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
	}
	return &TUIChannel{
		bus:    b,
		script: sc,
		opts:   opts,
		done:   make(chan struct{}),
	}
}

func (c *TUIChannel) Name() string { return "tui" }

func (c *TUIChannel) Start(ctx context.Context) error {
	c.session = NewSession(c.bus, tuiSessionID, c.script, c.opts.Conversation...)
	app := tui.NewApp(tui.Options{
		Profile:    c.script.Profile,
		Reactions:  c.script.Reactions,
		Controller: c.session.Orchestrator,
		ShowLogs:   c.opts.ShowLogs,
		LogRatio:   c.opts.LogRatio,
	})
	c.program = tea.NewProgram(app, c.opts.Program...)

	// Redirect logger output to the TUI log panel.
	logger.Intercept(&logWriter{program: c.program})

	c.subID = c.bus.Subscribe(bus.EventConversation, func(_ context.Context, e *bus.Event) {
		if e.Source == tuiSessionID && e.Conversation != nil {
			c.program.Send(tui.EventMsg{Event: *e.Conversation})
		}
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.done)
		if _, err := c.program.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		}
	}()

	c.session.Start(ctx)
	logger.Info("tui channel started")
	return nil
}

// Done is closed when the program exits, usually because the visitor quit.
func (c *TUIChannel) Done() <-chan struct{} { return c.done }

func (c *TUIChannel) Stop() error {
	c.stopOnce.Do(func() {
		if c.session != nil {
			c.session.Stop()
		}
		if c.program != nil {
			c.program.Quit()
		}
		c.wg.Wait()
		if c.subID != "" {
			c.bus.Unsubscribe(c.subID)
		}
		logger.Restore()
		logger.Info("tui channel stopped")
	})
	return nil
}

// logWriter implements io.Writer and sends each write as a LogLineMsg to the TUI.
type logWriter struct {
	program *tea.Program
}

func (w *logWriter) Write(p []byte) (int, error) {
	// Split on newlines in case a single write contains multiple lines.
	lines := bytes.Split(p, []byte("\n"))
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		w.program.Send(tui.LogLineMsg{Line: string(line)})
	}
	return len(p), nil
}

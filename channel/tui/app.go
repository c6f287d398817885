package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/logger"
	"github.com/kinodev/chatfolio/script"
)

const defaultLogRatio = 0.25

// Options configures the App.
type Options struct {
	Profile    script.Profile
	Reactions  []script.Reaction
	Controller Controller
	ShowLogs   bool
	LogRatio   float64 // share of the body height given to the log panel
}

// App is the root bubbletea model that orchestrates panels and layout.
type App struct {
	header     *Header
	logPanel   Panel
	chatPanel  Panel
	inputPanel *InputPanel
	picker     *ReactionPicker
	help       help.Model
	keys       keyMap

	ctrl     Controller
	seq      *sequencer
	showLogs bool
	finished bool

	width, height int
	logRatio      float64
}

// NewApp creates the root TUI model.
func NewApp(opts Options) *App {
	ratio := opts.LogRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = defaultLogRatio
	}
	return &App{
		header:     NewHeader(opts.Profile),
		logPanel:   NewLogPanel(),
		chatPanel:  NewChatPanel(),
		inputPanel: NewInputPanel("› "),
		picker:     NewReactionPicker(opts.Reactions),
		help:       help.New(),
		keys:       defaultKeyMap(),
		ctrl:       opts.Controller,
		seq:        newSequencer(),
		showLogs:   opts.ShowLogs,
		logRatio:   ratio,
	}
}

func (m *App) Init() tea.Cmd {
	return nil
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.ToggleLogs):
			m.showLogs = !m.showLogs
			m.recalcLayout()
			return m, nil
		case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
			p, cmd := m.chatPanel.Update(msg)
			m.chatPanel = p
			return m, cmd
		}
		if m.finished {
			_, cmd := m.picker.Update(msg)
			return m, cmd
		}
		if !m.inputPanel.Sendable() {
			return m, nil
		}
		if key.Matches(msg, m.keys.Send) {
			return m, m.act("submit", func(c Controller) bool { return c.Submit() })
		}
		before := m.inputPanel.Value()
		_, cmd := m.inputPanel.Update(msg)
		cmds = append(cmds, cmd)
		if after := m.inputPanel.Value(); after != before {
			cmds = append(cmds, m.act("edit", func(c Controller) bool { return c.Edit(after) }))
		}

	case reactMsg:
		k := msg.Key
		return m, m.act("react", func(c Controller) bool { return c.React(k) })

	case actionResultMsg:
		return m, nil

	case EventMsg:
		if isFinished(msg.Event) && !m.finished {
			m.finished = true
			m.recalcLayout()
		}
		chat, chatCmd := m.chatPanel.Update(msg)
		m.chatPanel = chat
		_, inputCmd := m.inputPanel.Update(msg)
		cmds = append(cmds, chatCmd, inputCmd)

	case typingTickMsg:
		p, cmd := m.chatPanel.Update(msg)
		m.chatPanel = p
		cmds = append(cmds, cmd)

	case LogLineMsg:
		p, cmd := m.logPanel.Update(msg)
		m.logPanel = p
		cmds = append(cmds, cmd)

	default:
		// Cursor blink and the like belong to the input panel.
		_, cmd := m.inputPanel.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func isFinished(ev conversation.Event) bool {
	if ev.Type == conversation.EventFinished {
		return true
	}
	return ev.Status != nil && ev.Status.ScriptComplete
}

// act runs a controller call off the update loop, after every call issued
// before it. Logging happens here too: the logger may be routed back into
// this program.
func (m *App) act(name string, call func(Controller) bool) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	c := m.ctrl
	ticket := m.seq.ticket()
	return func() tea.Msg {
		var ok bool
		m.seq.run(ticket, func() { ok = call(c) })
		if !ok {
			logger.Debug("action rejected", "action", name)
		}
		return actionResultMsg{Action: name, OK: ok}
	}
}

// sequencer orders controller calls by ticket. Tickets are taken in Update;
// the calls themselves run on tea.Cmd goroutines in any order.
type sequencer struct {
	mu   sync.Mutex
	cond *sync.Cond
	next uint64
	turn uint64
}

func newSequencer() *sequencer {
	s := &sequencer{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *sequencer) ticket() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.next
	s.next++
	return t
}

// run blocks until every earlier ticket has run, then calls fn.
func (s *sequencer) run(ticket uint64, fn func()) {
	s.mu.Lock()
	for s.turn != ticket {
		s.cond.Wait()
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.turn++
		s.cond.Broadcast()
		s.mu.Unlock()
	}()
	fn()
}

func (m *App) View() string {
	if m.width == 0 || m.height == 0 {
		return "initializing..."
	}

	sep := separatorStyle.Render(strings.Repeat("─", m.width))

	parts := []string{m.header.View(), sep}
	if m.showLogs {
		parts = append(parts, m.logPanel.View(), sep)
	}
	parts = append(parts, m.chatPanel.View(), sep, m.bottomView(), m.helpView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *App) bottomView() string {
	if m.finished {
		return m.picker.View()
	}
	return m.inputPanel.View()
}

func (m *App) helpView() string {
	bindings := m.keys.chatHelp()
	if m.finished {
		bindings = m.keys.pickerHelp()
	}
	return m.help.ShortHelpView(bindings)
}

func (m *App) bottomHeight() int {
	if m.finished {
		return m.picker.Rows()
	}
	return 1
}

func (m *App) recalcLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	const headerH = 1
	const helpH = 1

	seps := 2 // below header, above input
	if m.showLogs {
		seps++
	}
	usable := max(m.height-headerH-helpH-m.bottomHeight()-seps, 2)

	chatH := usable
	if m.showLogs {
		logH := max(int(float64(usable)*m.logRatio), 1)
		chatH = max(usable-logH, 1)
		m.logPanel.SetSize(m.width, logH)
	}

	m.header.SetSize(m.width, headerH)
	m.chatPanel.SetSize(m.width, chatH)
	m.inputPanel.SetSize(m.width, 1)
	m.picker.SetSize(m.width, m.bottomHeight())
	m.help.Width = m.width
}

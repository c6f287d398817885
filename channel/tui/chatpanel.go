package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/markup"
	"github.com/kinodev/chatfolio/script"
)

const bubbleWidthRatio = 0.7

// ChatPanel displays conversation history in a scrollable viewport.
type ChatPanel struct {
	viewport viewport.Model
	messages []conversation.Message
	typing   *TypingIndicator
	width    int
}

// NewChatPanel creates a chat panel.
func NewChatPanel() *ChatPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	return &ChatPanel{viewport: vp, typing: NewTypingIndicator(0, 0)}
}

func (p *ChatPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		return p, p.apply(msg.Event)
	case typingTickMsg:
		cmd := p.typing.Update(msg)
		p.refresh()
		return p, cmd
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *ChatPanel) apply(ev conversation.Event) tea.Cmd {
	var cmd tea.Cmd
	switch ev.Type {
	case conversation.EventMessage:
		p.messages = append(p.messages, *ev.Message)
	case conversation.EventTyping:
		if ev.Status.TypingIndicatorVisible {
			cmd = p.typing.Start()
		} else {
			p.typing.Stop()
		}
	default:
		return nil
	}
	p.refresh()
	return cmd
}

func (p *ChatPanel) View() string {
	return p.viewport.View()
}

func (p *ChatPanel) SetSize(width, height int) {
	p.width = width
	p.viewport.Width = width
	p.viewport.Height = height
	p.refresh()
}

func (p *ChatPanel) refresh() {
	blocks := make([]string, 0, len(p.messages)+1)
	for _, m := range p.messages {
		blocks = append(blocks, renderMessage(m, p.width))
	}
	if t := p.typing.View(); t != "" {
		blocks = append(blocks, t)
	}
	p.viewport.SetContent(strings.Join(blocks, "\n\n"))
	p.viewport.GotoBottom()
}

func renderMessage(m conversation.Message, width int) string {
	if width <= 0 {
		width = 80
	}
	maxBubble := max(int(float64(width)*bubbleWidthRatio), 10)

	if m.Speaker == conversation.SpeakerUser {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble(userBubbleStyle, m.Text, maxBubble))
	}

	switch m.Kind {
	case conversation.KindLink:
		marker := "↗"
		if !m.OpensInNewTab() {
			marker = "⤓ " + m.DownloadName
		}
		body := markup.ANSI(m.Text) + " " + linkMarkerStyle.Render(marker) + "\n" + dimStyle.Render(m.URL)
		return bubble(assistantBubbleStyle, body, maxBubble)
	case conversation.KindProjects:
		return renderProjects(m.Projects, width)
	case conversation.KindFooter:
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, footerStyle.Render(markup.ANSI(m.Text)))
	default:
		return bubble(assistantBubbleStyle, markup.ANSI(m.Text), maxBubble)
	}
}

func bubble(style lipgloss.Style, text string, maxWidth int) string {
	w := min(lipgloss.Width(text)+style.GetHorizontalFrameSize(), maxWidth)
	return style.Width(w).Render(text)
}

// renderProjects lays cards out side by side when they fit, stacked otherwise.
func renderProjects(projects []script.Project, width int) string {
	cards := make([]string, 0, len(projects))
	for _, pr := range projects {
		title := pr.Title
		if pr.Icon != "" {
			title = pr.Icon + " " + title
		}
		cards = append(cards, cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			cardTitleStyle.Render(title),
			dimStyle.Render(pr.Tech),
			cardLinkStyle.Render("View on GitHub"),
		)))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if lipgloss.Width(row) <= width {
		return row
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

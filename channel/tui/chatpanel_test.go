package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/script"
)

func TestRenderLinkMarkers(t *testing.T) {
	tab := renderMessage(conversation.Message{
		Text: "LinkedIn", Speaker: conversation.SpeakerAssistant,
		Kind: conversation.KindLink, URL: "https://linkedin.com/in/kino",
	}, 80)
	if !strings.Contains(tab, "↗") || !strings.Contains(tab, "linkedin.com") {
		t.Fatalf("new-tab link = %q", tab)
	}

	dl := renderMessage(conversation.Message{
		Text: "Resume", Speaker: conversation.SpeakerAssistant,
		Kind: conversation.KindLink, URL: "https://example.com/cv.pdf", DownloadName: "Kino_Resume.pdf",
	}, 80)
	if !strings.Contains(dl, "⤓ Kino_Resume.pdf") || strings.Contains(dl, "↗") {
		t.Fatalf("download link = %q", dl)
	}
}

func TestRenderProjectCards(t *testing.T) {
	out := renderMessage(conversation.Message{
		Speaker: conversation.SpeakerAssistant,
		Kind:    conversation.KindProjects,
		Projects: []script.Project{
			{Title: "Relay", Tech: "Go", URL: "https://github.com/k/relay"},
			{Title: "Atlas", Tech: "Rust", Icon: "🗺", URL: "https://github.com/k/atlas"},
		},
	}, 120)
	if strings.Count(out, "View on GitHub") != 2 {
		t.Fatalf("cards = %q", out)
	}
	if !strings.Contains(out, "🗺 Atlas") {
		t.Fatalf("icon missing: %q", out)
	}
}

func TestRenderFooterPill(t *testing.T) {
	out := renderMessage(conversation.Message{
		Text: "Thanks for reading", Speaker: conversation.SpeakerAssistant, Kind: conversation.KindFooter,
	}, 60)
	if !strings.Contains(out, "Thanks for reading") {
		t.Fatalf("footer = %q", out)
	}
	if !strings.HasPrefix(out, " ") {
		t.Fatalf("footer not centered: %q", out)
	}
}

func TestChatPanelShowsTyping(t *testing.T) {
	p := NewChatPanel()
	p.SetSize(60, 10)

	p.Update(EventMsg{Event: conversation.Event{
		Type:   conversation.EventTyping,
		Status: &conversation.Status{TypingIndicatorVisible: true},
	}})
	if !strings.Contains(p.View(), "●") {
		t.Fatalf("typing dots missing:\n%s", p.View())
	}

	p.Update(EventMsg{Event: conversation.Event{
		Type:   conversation.EventTyping,
		Status: &conversation.Status{TypingIndicatorVisible: false},
	}})
	if strings.Contains(p.View(), "●") {
		t.Fatalf("typing dots still shown:\n%s", p.View())
	}
}

func TestTypingIndicatorWindow(t *testing.T) {
	now := time.Unix(0, 0)
	ti := NewTypingIndicator(100*time.Millisecond, 200*time.Millisecond)
	ti.now = func() time.Time { return now }

	if ti.Visible() {
		t.Fatal("visible before Start")
	}
	ti.Start()
	if ti.Visible() {
		t.Fatal("visible before appearAfter")
	}
	now = now.Add(150 * time.Millisecond)
	if !ti.Visible() || ti.View() == "" {
		t.Fatal("hidden inside the window")
	}
	now = now.Add(200 * time.Millisecond)
	if ti.Visible() {
		t.Fatal("visible after visibleFor")
	}
	if cmd := ti.Update(typingTickMsg{gen: ti.gen, frame: 1}); cmd != nil {
		t.Fatal("animation kept running after the window closed")
	}
}

func TestTypingIndicatorIgnoresStaleTicks(t *testing.T) {
	ti := NewTypingIndicator(0, 0)
	ti.Start()
	stale := typingTickMsg{gen: ti.gen, frame: 2}
	ti.Start()

	if cmd := ti.Update(stale); cmd != nil {
		t.Fatal("stale tick advanced the animation")
	}
	if ti.frame != 0 {
		t.Fatalf("frame = %d, want 0", ti.frame)
	}
	ti.Stop()
	if ti.Visible() {
		t.Fatal("visible after Stop")
	}
}

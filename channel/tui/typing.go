package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const typingFrameInterval = 300 * time.Millisecond

var typingFrames = []string{"●∙∙", "∙●∙", "∙∙●"}

type typingTickMsg struct {
	gen   int
	frame int
}

// TypingIndicator is the animated "typing" bubble. Once started it becomes
// visible after AppearAfter and hides again after VisibleFor; a zero
// VisibleFor keeps it up until Stop.
type TypingIndicator struct {
	AppearAfter time.Duration
	VisibleFor  time.Duration

	now     func() time.Time
	started time.Time
	active  bool
	gen     int
	frame   int
}

// NewTypingIndicator returns a stopped indicator.
func NewTypingIndicator(appearAfter, visibleFor time.Duration) *TypingIndicator {
	return &TypingIndicator{
		AppearAfter: appearAfter,
		VisibleFor:  visibleFor,
		now:         time.Now,
	}
}

// Start restarts the visibility window and the dot animation.
func (t *TypingIndicator) Start() tea.Cmd {
	t.started = t.now()
	t.active = true
	t.gen++
	t.frame = 0
	return t.tick()
}

// Stop hides the indicator and ends the animation.
func (t *TypingIndicator) Stop() {
	t.active = false
	t.gen++
}

// Visible reports whether the indicator is inside its visibility window.
func (t *TypingIndicator) Visible() bool {
	if !t.active {
		return false
	}
	elapsed := t.now().Sub(t.started)
	if elapsed < t.AppearAfter {
		return false
	}
	return t.VisibleFor <= 0 || elapsed < t.AppearAfter+t.VisibleFor
}

func (t *TypingIndicator) expired() bool {
	return t.VisibleFor > 0 && t.now().Sub(t.started) >= t.AppearAfter+t.VisibleFor
}

// Update advances the animation. Ticks from an earlier Start are ignored.
func (t *TypingIndicator) Update(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(typingTickMsg)
	if !ok || tick.gen != t.gen || !t.active {
		return nil
	}
	if t.expired() {
		t.active = false
		return nil
	}
	t.frame = tick.frame
	return t.tick()
}

func (t *TypingIndicator) tick() tea.Cmd {
	gen, next := t.gen, (t.frame+1)%len(typingFrames)
	return tea.Tick(typingFrameInterval, func(time.Time) tea.Msg {
		return typingTickMsg{gen: gen, frame: next}
	})
}

func (t *TypingIndicator) View() string {
	if !t.Visible() {
		return ""
	}
	return typingStyle.Render(typingFrames[t.frame])
}

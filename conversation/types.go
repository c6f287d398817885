// Package conversation plays a scripted portfolio chat: it reveals canned
// visitor prompts in the input widget, accepts the visitor's send, and paces
// the assistant's scripted replies behind a typing indicator.
package conversation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kinodev/chatfolio/script"
)

// Speaker identifies who a message belongs to.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Kind selects how a message is rendered.
type Kind string

const (
	KindPlain    Kind = "plain"
	KindLink     Kind = "link"
	KindProjects Kind = "projects"
	KindFooter   Kind = "footer"
)

// Message is one entry of the append-only history.
type Message struct {
	ID           string           `json:"id"`
	Text         string           `json:"text"`
	Speaker      Speaker          `json:"speaker"`
	Kind         Kind             `json:"kind"`
	URL          string           `json:"url,omitempty"`
	DownloadName string           `json:"downloadName,omitempty"`
	Projects     []script.Project `json:"projects,omitempty"`
	At           time.Time        `json:"at"`
}

// OpensInNewTab reports whether a link message opens a new tab. Links with a
// download name trigger a download instead.
func (m Message) OpensInNewTab() bool {
	return m.Kind == KindLink && m.DownloadName == ""
}

func newMessageID(at time.Time) string {
	return fmt.Sprintf("%d-%s", at.UnixMilli(), uuid.NewString()[:8])
}

// Phase is the orchestrator's position in the script.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePromptReveal
	PhaseUserTurn
	PhaseAssistantTurn
	PhaseStageComplete
	PhaseFinished
)

var phaseNames = [...]string{
	PhaseIdle:          "idle",
	PhasePromptReveal:  "prompt_reveal",
	PhaseUserTurn:      "user_turn",
	PhaseAssistantTurn: "assistant_turn",
	PhaseStageComplete: "stage_complete",
	PhaseFinished:      "finished",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Status is the conversation state without the history.
type Status struct {
	Phase                  Phase  `json:"phase"`
	StageCursor            int    `json:"stage"`
	AwaitingUserInput      bool   `json:"awaitingUserInput"`
	TypingIndicatorVisible bool   `json:"typing"`
	PendingPrompt          string `json:"pendingPrompt,omitempty"`
	ScriptComplete         bool   `json:"scriptComplete"`
}

// State is a point-in-time copy of the conversation.
type State struct {
	Status
	History []Message `json:"history"`
}

// InputView is what the input line should display.
type InputView struct {
	Text      string `json:"text"`
	Revealing bool   `json:"revealing"`
	Sendable  bool   `json:"sendable"`
}

// EventType names an orchestrator event.
type EventType string

const (
	EventState    EventType = "state"
	EventTyping   EventType = "typing"
	EventMessage  EventType = "message"
	EventInput    EventType = "input"
	EventFinished EventType = "finished"
)

// EventTypes lists every event the orchestrator emits.
var EventTypes = []EventType{EventState, EventTyping, EventMessage, EventInput, EventFinished}

// Event is emitted, in order, for every visible change.
type Event struct {
	Type    EventType  `json:"type"`
	Status  *Status    `json:"status,omitempty"`
	Message *Message   `json:"message,omitempty"`
	Input   *InputView `json:"input,omitempty"`
}

// Sink receives orchestrator events on the orchestrator goroutine. It must
// not block for long.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

type discardSink struct{}

func (discardSink) Emit(Event) {}

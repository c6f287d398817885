package channel

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinodev/chatfolio/bus"
	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/reveal"
	"github.com/kinodev/chatfolio/script"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type stubChannel struct {
	name    string
	failing bool
	log     *[]string
}

func (s *stubChannel) Name() string { return s.name }

func (s *stubChannel) Start(context.Context) error {
	if s.failing {
		return errors.New("boom")
	}
	*s.log = append(*s.log, "start "+s.name)
	return nil
}

func (s *stubChannel) Stop() error {
	*s.log = append(*s.log, "stop "+s.name)
	return nil
}

func instant() []conversation.Option {
	return []conversation.Option{
		conversation.WithPacing(conversation.InstantPacing()),
		conversation.WithEffect(reveal.Instant{}),
	}
}

func TestManagerOrder(t *testing.T) {
	var log []string
	m := NewManager()
	m.Register(&stubChannel{name: "a", log: &log})
	m.Register(nil)
	m.Register(&stubChannel{name: "b", log: &log})

	require.NoError(t, m.StartAll(context.Background()))
	require.NoError(t, m.StopAll())
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)

	ch, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b", ch.Name())
	_, ok = m.Get("missing")
	assert.False(t, ok)

	var names []string
	m.Each(func(ch Channel) { names = append(names, ch.Name()) })
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestManagerStartFailureStopsStarted(t *testing.T) {
	var log []string
	m := NewManager()
	m.Register(&stubChannel{name: "a", log: &log})
	m.Register(&stubChannel{name: "bad", failing: true, log: &log})

	require.Error(t, m.StartAll(context.Background()))
	assert.Equal(t, []string{"start a", "stop a"}, log)
}

func TestBusSinkTagsSession(t *testing.T) {
	b := bus.NewBus(0)
	got := make(chan *bus.Event, 1)
	b.Subscribe(bus.EventConversation, func(_ context.Context, e *bus.Event) { got <- e })

	BusSink{Bus: b, Session: "s1"}.Emit(conversation.Event{Type: conversation.EventTyping, Status: &conversation.Status{}})
	b.Close()

	e := <-got
	assert.Equal(t, "s1", e.Source)
	assert.Equal(t, conversation.EventTyping, e.Conversation.Type)
}

func TestSessionLifecycleEvents(t *testing.T) {
	b := bus.NewBus(0)
	var mu sync.Mutex
	var seen []bus.EventType
	record := func(_ context.Context, e *bus.Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	}
	b.Subscribe(bus.EventSessionStarted, record)
	b.Subscribe(bus.EventSessionEnded, record)

	s := NewSession(b, "s1", script.Default(), instant()...)
	s.Stop() // not started yet
	s.Start(context.Background())
	s.Stop()
	b.Close()

	assert.Equal(t, []bus.EventType{bus.EventSessionStarted, bus.EventSessionEnded}, seen)
}

func TestPlainChannelTranscript(t *testing.T) {
	b := bus.NewBus(0)
	defer b.Close()
	var out syncBuffer

	ch := NewPlainChannel(b, script.Default(), PlainOptions{
		Out:          &out,
		AutoSubmit:   true,
		Conversation: instant(),
	})
	require.NoError(t, ch.Start(context.Background()))

	select {
	case <-ch.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("transcript did not finish; output so far:\n%s", out.String())
	}
	require.NoError(t, ch.Stop())

	text := out.String()
	for _, want := range []string{
		"Kino · Online",
		"> Hey, who's this?",
		"I build full-stack apps with NestJS, .NET Core, and React.",
		"> Can I see your projects?",
		"View on GitHub",
		"> How can I contact you?",
		"💼 LinkedIn ↗ https://linkedin.com",
		"⤓ https://example.com/Kino_Resume.pdf (Kino_Resume.pdf)",
		"— 👾 Portfolio v1.0 – Last updated May 2025 —",
	} {
		assert.Contains(t, text, want)
	}
	assert.Less(t, strings.Index(text, "> Hey, who's this?"), strings.Index(text, "I'm Kino"))
	assert.NotContains(t, text, "**")
}

func TestPlainChannelInteractive(t *testing.T) {
	b := bus.NewBus(0)
	defer b.Close()
	var out syncBuffer
	in, feed := io.Pipe()
	defer feed.Close()

	ch := NewPlainChannel(b, script.Default(), PlainOptions{
		In:           in,
		Out:          &out,
		Conversation: instant(),
	})
	require.NoError(t, ch.Start(context.Background()))
	defer ch.Stop()

	sc := script.Default()
	for i := range sc.Prompts {
		require.Eventually(t, func() bool {
			return strings.Count(out.String(), "[enter to send]") > i
		}, 5*time.Second, 5*time.Millisecond, "prompt %d never became sendable", i)
		_, err := io.WriteString(feed, "\n")
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "react with:")
	}, 5*time.Second, 5*time.Millisecond)

	_, err := io.WriteString(feed, "coffee\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Always. Oat milk, no sugar.")
	}, 5*time.Second, 5*time.Millisecond)

	_, err = io.WriteString(feed, "quit\n")
	require.NoError(t, err)
	select {
	case <-ch.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("quit did not end the channel")
	}
}

func TestPlainChannelPipedInput(t *testing.T) {
	b := bus.NewBus(0)
	defer b.Close()
	var out syncBuffer

	opts := []conversation.Option{
		conversation.WithPacing(conversation.Pacing{Startup: 20 * time.Millisecond, RevealSpeed: time.Millisecond, SkipLineDelays: true}),
		conversation.WithEffect(reveal.Instant{}),
	}
	ch := NewPlainChannel(b, script.Default(), PlainOptions{
		In:           strings.NewReader("\n\n\n\ncoffee\n"),
		Out:          &out,
		Conversation: opts,
	})
	require.NoError(t, ch.Start(context.Background()))
	defer ch.Stop()

	select {
	case <-ch.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("piped chat did not finish; output so far:\n%s", out.String())
	}

	text := out.String()
	for _, want := range script.Default().Prompts {
		assert.Contains(t, text, "> "+want)
	}
	assert.Contains(t, text, "— 👾 Portfolio v1.0 – Last updated May 2025 —")
	assert.Contains(t, text, "Always. Oat milk, no sugar.")
	assert.NotContains(t, text, "unknown reaction")
}

func TestPlainChannelShortInputStopsAtNextPrompt(t *testing.T) {
	b := bus.NewBus(0)
	defer b.Close()
	var out syncBuffer

	ch := NewPlainChannel(b, script.Default(), PlainOptions{
		In:           strings.NewReader("\n"),
		Out:          &out,
		Conversation: instant(),
	})
	require.NoError(t, ch.Start(context.Background()))
	defer ch.Stop()

	select {
	case <-ch.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("chat kept waiting after input ran out; output so far:\n%s", out.String())
	}

	text := out.String()
	assert.Contains(t, text, "> Hey, who's this?")
	assert.Contains(t, text, "I'm Kino")
	assert.Contains(t, text, "› What are you currently working on?  [enter to send]")
	assert.NotContains(t, text, "> What are you currently working on?")
}

func TestFormatMessage(t *testing.T) {
	plain := func(s string) string { return s }

	assert.Equal(t, "> hi", FormatMessage(conversation.Message{Text: "hi", Speaker: conversation.SpeakerUser}, plain))
	assert.Equal(t, "— bye —", FormatMessage(conversation.Message{
		Text: "bye", Speaker: conversation.SpeakerAssistant, Kind: conversation.KindFooter,
	}, plain))

	cards := FormatMessage(conversation.Message{
		Speaker: conversation.SpeakerAssistant,
		Kind:    conversation.KindProjects,
		Projects: []script.Project{
			{Title: "Relay", Tech: "Go", URL: "https://github.com/k/relay"},
		},
	}, plain)
	assert.Equal(t, "  • Relay (Go) View on GitHub: https://github.com/k/relay", cards)
}

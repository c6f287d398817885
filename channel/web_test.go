package channel

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/kinodev/chatfolio/bus"
	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/script"
)

func startWeb(t *testing.T) *WebChannel {
	t.Helper()
	b := bus.NewBus(0)
	ch := NewWebChannel(b, script.Default(), WebOptions{
		Addr:         "127.0.0.1:0",
		Conversation: instant(),
	})
	require.NoError(t, ch.Start(context.Background()))
	t.Cleanup(func() {
		assert.NoError(t, ch.Stop())
		b.Close()
	})
	return ch
}

func dial(t *testing.T, ch *WebChannel) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws://"+ch.Addr()+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// readUntil reads frames until match accepts one, checking that sequence
// numbers only grow.
func readUntil(t *testing.T, conn *websocket.Conn, lastSeq *int64, match func(gjson.Result) bool) gjson.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		f := gjson.ParseBytes(data)
		if f.Get("type").String() != frameHello {
			seq := f.Get("seq").Int()
			require.Greater(t, seq, *lastSeq, "frame %s out of order", data)
			*lastSeq = seq
		}
		if match(f) {
			return f
		}
	}
}

func write(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(frame)))
}

func sendable(f gjson.Result) bool {
	return f.Get("type").String() == "input" && f.Get("data.sendable").Bool()
}

func TestWebConversation(t *testing.T) {
	ch := startWeb(t)
	conn := dial(t, ch)
	var seq int64

	hello := readUntil(t, conn, &seq, func(f gjson.Result) bool { return f.Get("type").String() == frameHello })
	assert.Equal(t, "Kino", hello.Get("data.profile.name").String())
	assert.Equal(t, "K", hello.Get("data.profile.initial").String())
	assert.NotEmpty(t, hello.Get("data.session").String())
	assert.Len(t, hello.Get("data.reactions").Array(), len(script.Default().Reactions))
	assert.False(t, hello.Get("data.reactions.0.reply").Exists())

	first := readUntil(t, conn, &seq, sendable)
	assert.Equal(t, "Hey, who's this?", first.Get("data.text").String())

	write(t, conn, `{"type":"submit"}`)
	user := readUntil(t, conn, &seq, func(f gjson.Result) bool {
		return f.Get("type").String() == "message" && f.Get("data.speaker").String() == "user"
	})
	assert.Equal(t, "Hey, who's this?", user.Get("data.text").String())

	bold := readUntil(t, conn, &seq, func(f gjson.Result) bool {
		return f.Get("type").String() == "message" && f.Get("data.html").String() != f.Get("data.text").String()
	})
	assert.Contains(t, bold.Get("data.html").String(), "<b>NestJS</b>")

	next := readUntil(t, conn, &seq, sendable)
	assert.Equal(t, "What are you currently working on?", next.Get("data.text").String())
}

func TestWebEditAndGarbageFrames(t *testing.T) {
	ch := startWeb(t)
	conn := dial(t, ch)
	var seq int64

	readUntil(t, conn, &seq, sendable)
	write(t, conn, `not json`)
	write(t, conn, `{"type":"dance"}`)
	write(t, conn, `{"type":"edit","text":"Who are you?"}`)

	edited := readUntil(t, conn, &seq, func(f gjson.Result) bool {
		return sendable(f) && f.Get("data.text").String() == "Who are you?"
	})
	assert.False(t, edited.Get("data.revealing").Bool())

	write(t, conn, `{"type":"submit"}`)
	user := readUntil(t, conn, &seq, func(f gjson.Result) bool {
		return f.Get("type").String() == "message" && f.Get("data.speaker").String() == "user"
	})
	assert.Equal(t, "Who are you?", user.Get("data.text").String())
}

func TestWebBurstOfEditsSubmitsLastText(t *testing.T) {
	ch := startWeb(t)
	conn := dial(t, ch)
	var seq int64

	readUntil(t, conn, &seq, sendable)
	// Typed faster than the echoes come back.
	for _, text := range []string{"W", "Wh", "Who", "Who?"} {
		write(t, conn, `{"type":"edit","text":"`+text+`"}`)
	}
	write(t, conn, `{"type":"submit"}`)

	user := readUntil(t, conn, &seq, func(f gjson.Result) bool {
		return f.Get("type").String() == "message" && f.Get("data.speaker").String() == "user"
	})
	assert.Equal(t, "Who?", user.Get("data.text").String())
}

func TestWebHealthAndPage(t *testing.T) {
	ch := startWeb(t)
	conn := dial(t, ch)
	var seq int64
	readUntil(t, conn, &seq, func(f gjson.Result) bool { return f.Get("type").String() == frameHello })

	resp, err := http.Get("http://" + ch.Addr() + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "healthy", gjson.GetBytes(body, "status").String())
	assert.EqualValues(t, 1, gjson.GetBytes(body, "sessions.active").Int())
	assert.EqualValues(t, 1, gjson.GetBytes(body, "sessions.total").Int())

	resp, err = http.Get("http://" + ch.Addr() + "/")
	require.NoError(t, err)
	page, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(page), "new WebSocket")
	assert.Contains(t, string(page), "if (!editing) input.value = d.text;")
}

func TestWebSweepDropsIdleVisitors(t *testing.T) {
	ch := startWeb(t)
	conn := dial(t, ch)
	var seq int64
	readUntil(t, conn, &seq, func(f gjson.Result) bool { return f.Get("type").String() == frameHello })

	assert.Equal(t, 0, ch.Sweep(time.Now()))
	assert.Equal(t, 1, ch.Sweep(time.Now().Add(time.Hour)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		_, _, err := conn.Read(ctx)
		if err != nil {
			assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
			break
		}
	}
	require.Eventually(t, func() bool { return ch.counts().Active == 0 }, 5*time.Second, 5*time.Millisecond)
}

func TestEncodeFrame(t *testing.T) {
	frame, err := encodeFrame(7, conversation.Event{
		Type: conversation.EventMessage,
		Message: &conversation.Message{
			Text: "📄 Resume", Speaker: conversation.SpeakerAssistant, Kind: conversation.KindLink,
			URL: "https://example.com/cv.pdf", DownloadName: "cv.pdf",
		},
	})
	require.NoError(t, err)
	f := gjson.ParseBytes(frame)
	assert.Equal(t, "message", f.Get("type").String())
	assert.EqualValues(t, 7, f.Get("seq").Int())
	assert.Equal(t, "cv.pdf", f.Get("data.downloadName").String())
	assert.False(t, f.Get("data.newTab").Bool())
	assert.Equal(t, "📄 Resume", f.Get("data.html").String())

	frame, err = encodeFrame(8, conversation.Event{
		Type:   conversation.EventState,
		Status: &conversation.Status{Phase: conversation.PhaseUserTurn, AwaitingUserInput: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "user_turn", gjson.GetBytes(frame, "data.phase").String())

	_, err = encodeFrame(9, conversation.Event{Type: conversation.EventMessage})
	assert.Error(t, err)
}

func TestParseClientFrame(t *testing.T) {
	f, err := parseClientFrame([]byte(`{"type":"react","key":"coffee"}`))
	require.NoError(t, err)
	assert.Equal(t, clientFrame{Type: clientReact, Key: "coffee"}, f)

	_, err = parseClientFrame([]byte(`{"type":`))
	assert.Error(t, err)
	_, err = parseClientFrame([]byte(`["submit"]`))
	assert.Error(t, err)
}

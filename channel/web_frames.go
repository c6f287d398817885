package channel

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/markup"
	"github.com/kinodev/chatfolio/script"
)

const frameHello = "hello"

// Client frame types.
const (
	clientSubmit = "submit"
	clientEdit   = "edit"
	clientReact  = "react"
)

// webMessage is a history entry as the browser receives it: the message plus
// its text rendered to HTML.
type webMessage struct {
	conversation.Message
	HTML   string `json:"html"`
	NewTab bool   `json:"newTab,omitempty"`
}

// encodeFrame wraps an orchestrator event as {"type","seq","data"}.
func encodeFrame(seq int64, ev conversation.Event) ([]byte, error) {
	var payload any
	switch ev.Type {
	case conversation.EventMessage:
		if ev.Message == nil {
			return nil, fmt.Errorf("message event without message")
		}
		payload = webMessage{
			Message: *ev.Message,
			HTML:    markup.HTML(ev.Message.Text),
			NewTab:  ev.Message.OpensInNewTab(),
		}
	case conversation.EventInput:
		payload = ev.Input
	default:
		payload = ev.Status
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", ev.Type, err)
	}
	return envelope(string(ev.Type), seq, data)
}

// encodeHello builds the first frame of a session: who is chatting and which
// reactions the picker offers. Reaction replies stay on the server.
func encodeHello(session string, sc *script.Script) ([]byte, error) {
	data := []byte(`{}`)
	var err error
	set := func(path string, v any) {
		if err == nil {
			data, err = sjson.SetBytes(data, path, v)
		}
	}
	set("session", session)
	set("profile.name", sc.Profile.Name)
	set("profile.initial", sc.Profile.InitialOrDefault())
	set("profile.status", sc.Profile.Status)
	set("reactions", []any{})
	for _, r := range sc.Reactions {
		set("reactions.-1", map[string]string{"key": r.Key, "emoji": r.Emoji, "label": r.Label})
	}
	if err != nil {
		return nil, fmt.Errorf("encode hello frame: %w", err)
	}
	return envelope(frameHello, 0, data)
}

func envelope(typ string, seq int64, data []byte) ([]byte, error) {
	frame, err := sjson.SetBytes([]byte(`{}`), "type", typ)
	if err != nil {
		return nil, err
	}
	if frame, err = sjson.SetBytes(frame, "seq", seq); err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(frame, "data", data)
}

// clientFrame is one request from the browser.
type clientFrame struct {
	Type string
	Text string
	Key  string
}

func parseClientFrame(data []byte) (clientFrame, error) {
	if !gjson.ValidBytes(data) {
		return clientFrame{}, fmt.Errorf("invalid json frame")
	}
	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return clientFrame{}, fmt.Errorf("frame is not an object")
	}
	return clientFrame{
		Type: r.Get("type").String(),
		Text: r.Get("text").String(),
		Key:  r.Get("key").String(),
	}, nil
}

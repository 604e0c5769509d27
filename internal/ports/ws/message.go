package ws

import (
	"github.com/goccy/go-json"

	"bigtwo/internal/app"
	"bigtwo/internal/domain"
	"bigtwo/internal/ports"
)

// Client -> server message types.
const (
	MsgPlayCards    = ports.ActionPlayCards
	MsgPassTurn     = ports.ActionPassTurn
	MsgRequestState = ports.ActionRequestState
)

// MsgState is the server -> client participant view.
const MsgState = string(app.EventState)

// Message is the server -> client envelope.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Inbound is a client -> server message. ActionID makes play and pass retries idempotent.
type Inbound struct {
	Type     string        `json:"type"`
	Cards    []domain.Card `json:"cards,omitempty"`
	ActionID string        `json:"action_id,omitempty"`
}

func encode(msgType string, data any) ([]byte, error) {
	return json.Marshal(Message{Type: msgType, Data: data})
}

func encodeEvent(ev app.Event) ([]byte, error) {
	return encode(string(ev.Kind), ev.Payload)
}

func encodeError(code, message string) []byte {
	b, _ := encode(string(app.EventPlayError), app.PlayErrorPayload{Code: code, Message: message})
	return b
}

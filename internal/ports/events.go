package ports

import (
	"context"

	"bigtwo/internal/app"
	"bigtwo/internal/domain"
)

// EventPublisher fans room events out to connected participants.
// Delivery is best-effort; clients recover missed updates by requesting state.
type EventPublisher interface {
	// Publish delivers events produced by one room operation, in order.
	Publish(ctx context.Context, roomID string, events []app.Event) error
}

// EventSink receives events for local delivery, e.g. from a cross-instance relay.
type EventSink interface {
	Deliver(roomID string, events []app.Event) error
}

// Action types carried by Action.Type.
const (
	ActionPlayCards    = "play_cards"
	ActionPassTurn     = "pass_turn"
	ActionRequestState = "request_state"
)

// Action is a participant request received on one instance for a room that
// may live on another.
type Action struct {
	RoomID        string        `json:"room_id"`
	ParticipantID string        `json:"participant_id"`
	Type          string        `json:"type"`
	Cards         []domain.Card `json:"cards,omitempty"`
}

// ActionForwarder sends an action towards the instance that owns the room.
type ActionForwarder interface {
	Forward(ctx context.Context, action Action) error
}

// ActionHandler applies forwarded actions for rooms it owns and ignores the rest.
// Results travel back as events through the EventPublisher.
type ActionHandler interface {
	HandleAction(ctx context.Context, action Action) error
}

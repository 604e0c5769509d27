package app

import "bigtwo/internal/domain"

// EventKind identifies emitted room events for transport dispatch.
type EventKind string

const (
	EventRoomUpdate EventKind = "room_update"
	EventDealCards  EventKind = "deal_cards"
	EventGameUpdate EventKind = "game_update"
	EventPlayError  EventKind = "play_error"
	EventState      EventKind = "state" // one participant's view, always private
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // participant IDs; empty means broadcast
}

// Private reports whether the event targets specific participants.
func (e Event) Private() bool {
	return len(e.Recipients) > 0
}

// RoomPlayer is one seat in a room_update.
type RoomPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

type RoomUpdatePayload struct {
	RoomID      string       `json:"room_id"`
	Players     []RoomPlayer `json:"players"`
	Ready       int          `json:"ready"`
	Total       int          `json:"total"`
	GameStarted bool         `json:"game_started"`
	Seq         uint64       `json:"seq"`
}

type DealCardsPayload struct {
	Hand          []domain.Card `json:"hand"`
	FaceUpCard    domain.Card   `json:"face_up_card"`
	FaceUpOwner   string        `json:"face_up_owner,omitempty"`
	CurrentPlayer string        `json:"current_player"`
	DrawPileSize  int           `json:"draw_pile_size"`
	Seq           uint64        `json:"seq"`
}

type GameUpdatePayload struct {
	Actor         string         `json:"actor"`
	LastPlayed    []domain.Card  `json:"last_played"`
	Combination   string         `json:"combination,omitempty"`
	CurrentPlayer string         `json:"current_player"`
	CardCounts    map[string]int `json:"card_counts"`
	Winner        string         `json:"winner,omitempty"`
	Scores        map[string]int `json:"scores,omitempty"`
	// Seq is the room's change counter after this update. Updates may arrive out
	// of order; a client ignores an older Seq and requests state on a gap.
	Seq uint64 `json:"seq"`
}

type PlayErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlayErrorEvent builds the private rejection notice for an initiator.
func PlayErrorEvent(participantID string, err error) Event {
	return Event{
		Kind:       EventPlayError,
		Payload:    PlayErrorPayload{Code: ErrorCode(err), Message: err.Error()},
		Recipients: []string{participantID},
	}
}

// StateEvent carries a participant's own view back to that participant.
func StateEvent(participantID string, view domain.View) Event {
	return Event{Kind: EventState, Payload: view, Recipients: []string{participantID}}
}

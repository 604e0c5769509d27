package ws

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"bigtwo/internal/app"
)

// Hub tracks the sockets connected on this instance, grouped by room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   logger.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[c.roomID]
	if !ok {
		set = make(map[*Client]struct{})
		h.rooms[c.roomID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.rooms[c.roomID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.rooms, c.roomID)
	}
}

// Connections counts sockets attached to a room.
func (h *Hub) Connections(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Deliver sends events to the room's local sockets. Private events only reach
// their recipients. Slow sockets drop messages instead of blocking the room.
func (h *Hub) Deliver(roomID string, events []app.Event) error {
	for _, ev := range events {
		msg, err := encodeEvent(ev)
		if err != nil {
			return fmt.Errorf("encode %s: %w", ev.Kind, err)
		}

		h.mu.RLock()
		for c := range h.rooms[roomID] {
			if ev.Private() && !slices.Contains(ev.Recipients, c.participantID) {
				continue
			}
			if !c.enqueue(msg) {
				h.log.Warn().Str("room_id", roomID).Str("participant_id", c.participantID).
					Str("event", string(ev.Kind)).Msg("send buffer full, dropping message")
			}
		}
		h.mu.RUnlock()
	}
	return nil
}

// Publish implements ports.EventPublisher for single-instance deployments.
func (h *Hub) Publish(_ context.Context, roomID string, events []app.Event) error {
	return h.Deliver(roomID, events)
}

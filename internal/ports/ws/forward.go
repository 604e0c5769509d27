package ws

import (
	"context"
	"fmt"

	"bigtwo/internal/app"
	"bigtwo/internal/ports"
)

// WithForwarder lets sockets attach to rooms owned by another instance.
// Their actions go to the owner through f; results come back as relayed events.
func (s *Server) WithForwarder(f ports.ActionForwarder) *Server {
	s.forward = f
	return s
}

func (s *Server) owns(roomID string) bool {
	return s.svc.Rooms().Exists(roomID)
}

func (s *Server) handleRemote(ctx context.Context, c *Client, in Inbound) {
	if !c.firstSeen(in.ActionID) {
		c.log.Debug().Str("action_id", in.ActionID).Msg("duplicate action, requesting state")
		s.forwardAction(ctx, c, ports.Action{Type: ports.ActionRequestState})
		return
	}
	switch in.Type {
	case MsgPlayCards, MsgPassTurn, MsgRequestState:
		s.forwardAction(ctx, c, ports.Action{Type: in.Type, Cards: in.Cards})
	default:
		c.enqueue(encodeError(app.CodeBadRequest, "unknown message type "+in.Type))
	}
}

func (s *Server) forwardAction(ctx context.Context, c *Client, a ports.Action) {
	a.RoomID = c.roomID
	a.ParticipantID = c.participantID
	if err := s.forward.Forward(ctx, a); err != nil {
		c.log.Warn().Err(err).Str("type", a.Type).Msg("forward action")
		c.enqueue(encodeError(app.CodeInternal, "room unavailable"))
	}
}

// HandleAction applies an action forwarded from another instance. Actions for
// rooms not held here are ignored; every instance sees every action.
func (s *Server) HandleAction(ctx context.Context, a ports.Action) error {
	if !s.owns(a.RoomID) {
		return nil
	}
	var (
		events []app.Event
		err    error
	)
	switch a.Type {
	case ports.ActionPlayCards:
		_, events, err = s.svc.Play(a.RoomID, a.ParticipantID, a.Cards)
	case ports.ActionPassTurn:
		_, events, err = s.svc.Pass(a.RoomID, a.ParticipantID)
	case ports.ActionRequestState:
		view, qerr := s.svc.QueryState(a.RoomID, a.ParticipantID)
		if qerr != nil {
			events = []app.Event{app.PlayErrorEvent(a.ParticipantID, qerr)}
		} else {
			events = []app.Event{app.StateEvent(a.ParticipantID, view)}
		}
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	if err != nil && !app.IsRejection(err) {
		s.log.Error().Err(err).Str("room_id", a.RoomID).Str("type", a.Type).Msg("forwarded action failed")
	}
	if len(events) == 0 {
		return nil
	}
	return s.events.Publish(ctx, a.RoomID, events)
}

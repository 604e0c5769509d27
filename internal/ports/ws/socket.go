package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"

	"bigtwo/internal/app"
	"bigtwo/internal/domain"
	"bigtwo/internal/ports"
)

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	local := s.owns(claims.RoomID)
	var view domain.View
	if local {
		v, err := s.svc.QueryState(claims.RoomID, claims.ParticipantID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		view = v
	} else if s.forward == nil {
		s.writeError(w, app.ErrRoomNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket accept")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := newClient(claims.RoomID, claims.ParticipantID, conn, s.socket.SendBuffer, s.socket.DedupeSize, s.socket.DedupeTTL, s.log)
	s.hub.Register(c)
	defer s.disconnect(c)
	c.log.Info().Msg("socket connected")

	if local {
		if msg, err := encode(MsgState, view); err == nil {
			c.enqueue(msg)
		}
	} else {
		// Registered before forwarding so the owner's reply is not missed.
		s.forwardAction(ctx, c, ports.Action{Type: ports.ActionRequestState})
	}

	go func() {
		c.writePump(ctx, s.socket.PingInterval)
		cancel()
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			c.log.Info().Err(err).Msg("socket closed")
			return
		}
		s.handleMessage(ctx, c, data)
	}
}

func (s *Server) handleMessage(ctx context.Context, c *Client, data []byte) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		c.enqueue(encodeError(app.CodeBadRequest, "malformed message"))
		return
	}

	if !s.owns(c.roomID) && s.forward != nil {
		s.handleRemote(ctx, c, in)
		return
	}

	if !c.firstSeen(in.ActionID) {
		c.log.Debug().Str("action_id", in.ActionID).Msg("duplicate action, resending state")
		s.sendState(c)
		return
	}

	var (
		events []app.Event
		err    error
	)
	switch in.Type {
	case MsgPlayCards:
		_, events, err = s.svc.Play(c.roomID, c.participantID, in.Cards)
	case MsgPassTurn:
		_, events, err = s.svc.Pass(c.roomID, c.participantID)
	case MsgRequestState:
		s.sendState(c)
		return
	default:
		c.enqueue(encodeError(app.CodeBadRequest, "unknown message type "+in.Type))
		return
	}

	if err != nil && !app.IsRejection(err) {
		c.log.Error().Err(err).Str("type", in.Type).Msg("action failed")
	}
	if len(events) == 0 {
		return
	}
	if perr := s.events.Publish(ctx, c.roomID, events); perr != nil {
		c.log.Warn().Err(perr).Msg("publish events")
	}
}

func (s *Server) sendState(c *Client) {
	view, err := s.svc.QueryState(c.roomID, c.participantID)
	if err != nil {
		c.enqueue(encodeError(app.ErrorCode(err), err.Error()))
		return
	}
	msg, err := encode(MsgState, view)
	if err != nil {
		c.log.Error().Err(err).Msg("encode state")
		return
	}
	c.enqueue(msg)
}

// disconnect unregisters the socket and tears down a finished room once its
// last local socket is gone.
func (s *Server) disconnect(c *Client) {
	s.hub.Unregister(c)
	if s.hub.Connections(c.roomID) > 0 {
		return
	}
	view, err := s.svc.QueryState(c.roomID, c.participantID)
	if err == nil && view.Phase == domain.PhaseFinished {
		s.svc.CloseRoom(c.roomID)
		s.log.Info().Str("room_id", c.roomID).Msg("finished room closed")
	}
}

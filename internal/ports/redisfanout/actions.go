package redisfanout

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"bigtwo/internal/ports"
)

func actionChannel(prefix, roomID string) string {
	return prefix + ":action:" + roomID
}

// Forwarder implements ports.ActionForwarder by PUBLISHing to the room's
// action channel, where the owning instance picks it up.
type Forwarder struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewForwarder(rdb redis.UniversalClient, prefix string) *Forwarder {
	return &Forwarder{rdb: rdb, prefix: prefix}
}

func (f *Forwarder) Forward(ctx context.Context, action ports.Action) error {
	b, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("encode action %s: %w", action.Type, err)
	}
	n, err := f.rdb.Publish(ctx, actionChannel(f.prefix, action.RoomID), b).Result()
	if err != nil {
		return fmt.Errorf("forward action to room %s: %w", action.RoomID, err)
	}
	if n == 0 {
		return fmt.Errorf("forward action to room %s: no subscribers", action.RoomID)
	}
	return nil
}

// ActionRelay subscribes to every action channel and hands actions to a
// local handler. Handlers drop actions for rooms they do not own.
type ActionRelay struct {
	rdb     redis.UniversalClient
	prefix  string
	handler ports.ActionHandler
	log     zerolog.Logger
	ready   chan struct{}
}

func NewActionRelay(rdb redis.UniversalClient, prefix string, handler ports.ActionHandler, logger zerolog.Logger) *ActionRelay {
	return &ActionRelay{
		rdb:     rdb,
		prefix:  prefix,
		handler: handler,
		log:     logger.With().Str("component", "redis_action_relay").Logger(),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the pattern subscription is confirmed.
func (r *ActionRelay) Ready() <-chan struct{} {
	return r.ready
}

// Run blocks until ctx is cancelled or the subscription fails.
func (r *ActionRelay) Run(ctx context.Context) error {
	pattern := actionChannel(r.prefix, "*")
	sub := r.rdb.PSubscribe(ctx, pattern)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("psubscribe %s: %w", pattern, err)
	}
	close(r.ready)
	r.log.Info().Str("pattern", pattern).Msg("action relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, msg)
		}
	}
}

func (r *ActionRelay) handle(ctx context.Context, msg *redis.Message) {
	var action ports.Action
	if err := json.Unmarshal([]byte(msg.Payload), &action); err != nil {
		r.log.Warn().Err(err).Str("channel", msg.Channel).Msg("drop malformed action")
		return
	}
	roomID := strings.TrimPrefix(msg.Channel, r.prefix+":action:")
	if action.RoomID != roomID {
		r.log.Warn().Str("channel", msg.Channel).Str("room_id", action.RoomID).Msg("drop action for mismatched room")
		return
	}
	if err := r.handler.HandleAction(ctx, action); err != nil {
		r.log.Warn().Err(err).Str("room_id", roomID).Str("type", action.Type).Msg("handle forwarded action")
	}
}

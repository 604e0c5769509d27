// Package redisfanout relays room events between server instances over Redis pub/sub.
// Match state stays on the instance that owns the room; only events travel.
package redisfanout

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"bigtwo/internal/app"
	"bigtwo/internal/ports"
)

type wireEvent struct {
	Kind       app.EventKind   `json:"kind"`
	Recipients []string        `json:"recipients,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

type envelope struct {
	RoomID string      `json:"room_id"`
	Events []wireEvent `json:"events"`
}

func roomChannel(prefix, roomID string) string {
	return prefix + ":room:" + roomID
}

// Publisher implements ports.EventPublisher by PUBLISHing to the room's channel.
type Publisher struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewPublisher(rdb redis.UniversalClient, prefix string) *Publisher {
	return &Publisher{rdb: rdb, prefix: prefix}
}

func (p *Publisher) Publish(ctx context.Context, roomID string, events []app.Event) error {
	env := envelope{RoomID: roomID, Events: make([]wireEvent, 0, len(events))}
	for _, ev := range events {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return fmt.Errorf("encode %s: %w", ev.Kind, err)
		}
		env.Events = append(env.Events, wireEvent{Kind: ev.Kind, Recipients: ev.Recipients, Payload: payload})
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, roomChannel(p.prefix, roomID), b).Err(); err != nil {
		return fmt.Errorf("publish room %s: %w", roomID, err)
	}
	return nil
}

// Relay subscribes to every room channel and hands events to a local sink.
type Relay struct {
	rdb    redis.UniversalClient
	prefix string
	sink   ports.EventSink
	log    zerolog.Logger
	ready  chan struct{}
}

func NewRelay(rdb redis.UniversalClient, prefix string, sink ports.EventSink, logger zerolog.Logger) *Relay {
	return &Relay{
		rdb:    rdb,
		prefix: prefix,
		sink:   sink,
		log:    logger.With().Str("component", "redis_relay").Logger(),
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the pattern subscription is confirmed.
func (r *Relay) Ready() <-chan struct{} {
	return r.ready
}

// Run blocks until ctx is cancelled or the subscription fails.
func (r *Relay) Run(ctx context.Context) error {
	pattern := roomChannel(r.prefix, "*")
	sub := r.rdb.PSubscribe(ctx, pattern)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("psubscribe %s: %w", pattern, err)
	}
	close(r.ready)
	r.log.Info().Str("pattern", pattern).Msg("relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg)
		}
	}
}

func (r *Relay) handle(msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		r.log.Warn().Err(err).Str("channel", msg.Channel).Msg("drop malformed envelope")
		return
	}
	roomID := strings.TrimPrefix(msg.Channel, r.prefix+":room:")
	if env.RoomID != roomID {
		r.log.Warn().Str("channel", msg.Channel).Str("room_id", env.RoomID).Msg("drop envelope for mismatched room")
		return
	}

	events := make([]app.Event, 0, len(env.Events))
	for _, we := range env.Events {
		events = append(events, app.Event{Kind: we.Kind, Recipients: we.Recipients, Payload: we.Payload})
	}
	if err := r.sink.Deliver(roomID, events); err != nil {
		r.log.Warn().Err(err).Str("room_id", roomID).Msg("deliver relayed events")
	}
}

package redisfanout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bigtwo/internal/app"
)

type recordingSink struct {
	mu     sync.Mutex
	got    map[string][]app.Event
	notify chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{got: map[string][]app.Event{}, notify: make(chan struct{}, 16)}
}

func (s *recordingSink) Deliver(roomID string, events []app.Event) error {
	s.mu.Lock()
	s.got[roomID] = append(s.got[roomID], events...)
	s.mu.Unlock()
	s.notify <- struct{}{}
	return nil
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return client, mr
}

func startRelay(t *testing.T, client *redis.Client, sink *recordingSink) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	relay := NewRelay(client, "test", sink, zerolog.Nop())
	go func() { _ = relay.Run(ctx) }()
	select {
	case <-relay.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("relay never subscribed")
	}
}

func TestPublishRelaysToSink(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	sink := newRecordingSink()
	startRelay(t, client, sink)

	pub := NewPublisher(client, "test")
	events := []app.Event{
		{Kind: app.EventGameUpdate, Payload: app.GameUpdatePayload{Actor: "a", CurrentPlayer: "b"}},
		{Kind: app.EventPlayError, Payload: app.PlayErrorPayload{Code: app.CodeNotYourTurn}, Recipients: []string{"b"}},
	}
	require.NoError(t, pub.Publish(context.Background(), "1234", events))

	select {
	case <-sink.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not deliver")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	got := sink.got["1234"]
	require.Len(t, got, 2)
	assert.Equal(t, app.EventGameUpdate, got[0].Kind)
	assert.False(t, got[0].Private())
	assert.Equal(t, []string{"b"}, got[1].Recipients)

	var upd app.GameUpdatePayload
	raw, ok := got[0].Payload.(json.RawMessage)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal(raw, &upd))
	assert.Equal(t, "b", upd.CurrentPlayer)
}

func TestRelayIgnoresMalformedMessages(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	sink := newRecordingSink()
	startRelay(t, client, sink)

	ctx := context.Background()
	require.NoError(t, client.Publish(ctx, "test:room:1", "not json").Err())
	require.NoError(t, client.Publish(ctx, "test:room:1", `{"room_id":"2","events":[]}`).Err())
	require.NoError(t, NewPublisher(client, "test").Publish(ctx, "1", []app.Event{{Kind: app.EventRoomUpdate, Payload: app.RoomUpdatePayload{RoomID: "1"}}}))

	select {
	case <-sink.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not deliver")
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.got["1"], 1)
	assert.Empty(t, sink.got["2"])
}

func TestRoomChannel(t *testing.T) {
	assert.Equal(t, "bigtwo:room:42", roomChannel("bigtwo", "42"))
}

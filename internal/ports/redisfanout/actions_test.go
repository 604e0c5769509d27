package redisfanout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bigtwo/internal/domain"
	"bigtwo/internal/ports"
)

type recordingHandler struct {
	mu     sync.Mutex
	got    []ports.Action
	notify chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{notify: make(chan struct{}, 16)}
}

func (h *recordingHandler) HandleAction(_ context.Context, a ports.Action) error {
	h.mu.Lock()
	h.got = append(h.got, a)
	h.mu.Unlock()
	h.notify <- struct{}{}
	return nil
}

func startActionRelay(t *testing.T, relay *ActionRelay) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() { _ = relay.Run(ctx) }()
	select {
	case <-relay.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("action relay never subscribed")
	}
}

func TestForwardReachesActionHandler(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	h := newRecordingHandler()
	startActionRelay(t, NewActionRelay(client, "test", h, zerolog.Nop()))

	three := domain.Card{Rank: domain.Rank3, Suit: domain.SuitDiamonds}
	action := ports.Action{RoomID: "1234", ParticipantID: "p1", Type: ports.ActionPlayCards, Cards: []domain.Card{three}}
	require.NoError(t, NewForwarder(client, "test").Forward(context.Background(), action))

	select {
	case <-h.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("action not handled")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.got, 1)
	assert.Equal(t, action, h.got[0])
}

func TestForwardWithoutOwnerFails(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	err := NewForwarder(client, "test").Forward(context.Background(), ports.Action{RoomID: "1234", ParticipantID: "p1", Type: ports.ActionPassTurn})
	require.Error(t, err)
}

func TestActionRelayDropsMismatchedRoom(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	h := newRecordingHandler()
	startActionRelay(t, NewActionRelay(client, "test", h, zerolog.Nop()))

	ctx := context.Background()
	require.NoError(t, client.Publish(ctx, "test:action:1", "not json").Err())
	require.NoError(t, client.Publish(ctx, "test:action:1", `{"room_id":"2","participant_id":"p","type":"pass_turn"}`).Err())
	require.NoError(t, NewForwarder(client, "test").Forward(ctx, ports.Action{RoomID: "1", ParticipantID: "p", Type: ports.ActionPassTurn}))

	select {
	case <-h.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("action not handled")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.got, 1)
	assert.Equal(t, "1", h.got[0].RoomID)
}

func TestActionChannel(t *testing.T) {
	assert.Equal(t, "bigtwo:action:42", actionChannel("bigtwo", "42"))
}

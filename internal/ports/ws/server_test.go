package ws

import (
	"bytes"
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bigtwo/internal/app"
	"bigtwo/internal/config"
	"bigtwo/internal/domain"
	"bigtwo/internal/session"
)

type testEnv struct {
	srv *httptest.Server
	svc *app.Service
	hub *Hub
}

func testConfig() *config.ServerConfig {
	return &config.ServerConfig{
		AllowedOrigins: []string{"localhost:*"},
		Socket: config.SocketConfig{
			SendBuffer:   64,
			PingInterval: time.Minute,
			DedupeSize:   16,
			DedupeTTL:    time.Minute,
		},
	}
}

func testSigner(t *testing.T) *session.Signer {
	t.Helper()
	signer, err := session.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)
	return signer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	svc := app.NewService(rand.New(rand.NewSource(42)))
	hub := NewHub(logger)
	srv := httptest.NewServer(NewServer(svc, testSigner(t), hub, hub, testConfig(), logger).Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, svc: svc, hub: hub}
}

func (e *testEnv) post(t *testing.T, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(t, req)
}

func (e *testEnv) get(t *testing.T, path, token string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(t, req)
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (e *testEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// readUntil reads socket messages until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) json.RawMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err, "waiting for %s", msgType)
		var msg received
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == msgType {
			return msg.Data
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, in Inbound) {
	t.Helper()
	b, err := json.Marshal(in)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, b))
}

func TestCreateJoinAndErrors(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.post(t, "/create_game", "", map[string]string{"player_name": "alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	roomID := body["room_id"].(string)
	assert.Len(t, roomID, 4)
	assert.NotEmpty(t, body["player_id"])
	assert.NotEmpty(t, body["token"])

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, body["token"], cookie.Value)

	resp, _ = env.post(t, "/join_game", "", map[string]string{"room_id": "0000", "player_name": "bob"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	for _, name := range []string{"bob", "carol"} {
		resp, _ = env.post(t, "/join_game", "", map[string]string{"room_id": roomID, "player_name": name})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body = env.post(t, "/join_game", "", map[string]string{"room_id": roomID, "player_name": "dave"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, app.CodeRoomFull, body["code"])

	resp, _ = env.post(t, "/create_game", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.post(t, "/ready", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.get(t, "/game_state", "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.get(t, "/ws", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReadyAndStartOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, alice := env.post(t, "/create_game", "", map[string]string{"player_name": "alice"})
	_, bob := env.post(t, "/join_game", "", map[string]string{"room_id": alice["room_id"].(string), "player_name": "bob"})
	aliceToken, bobToken := alice["token"].(string), bob["token"].(string)

	resp, body := env.post(t, "/ready", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["show_face_up_card"])
	assert.EqualValues(t, 1, body["ready"])

	resp, body = env.post(t, "/start_game", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["game_started"])
	assert.EqualValues(t, 2, body["total"])

	_, body = env.post(t, "/ready", bobToken, nil)
	assert.Equal(t, true, body["show_face_up_card"])

	_, body = env.post(t, "/start_game", bobToken, nil)
	assert.Equal(t, true, body["game_started"])
	assert.NotEmpty(t, body["current_player"])
	assert.NotNil(t, body["face_up_card"])

	resp, body = env.get(t, "/game_state", aliceToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["game_started"])
	assert.Len(t, body["opponents"], 1)

	resp, _ = env.post(t, "/start_game", bobToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSocketPlay(t *testing.T) {
	env := newTestEnv(t)
	_, alice := env.post(t, "/create_game", "", map[string]string{"player_name": "alice"})
	roomID := alice["room_id"].(string)
	_, bob := env.post(t, "/join_game", "", map[string]string{"room_id": roomID, "player_name": "bob"})

	tokens := map[string]string{
		alice["player_id"].(string): alice["token"].(string),
		bob["player_id"].(string):   bob["token"].(string),
	}
	conns := map[string]*websocket.Conn{}
	for id, token := range tokens {
		conns[id] = env.dial(t, token)
		readUntil(t, conns[id], MsgState)
	}
	require.Equal(t, 2, env.hub.Connections(roomID))

	for _, token := range tokens {
		env.post(t, "/ready", token, nil)
	}
	_, start := env.post(t, "/start_game", alice["token"].(string), nil)
	require.Equal(t, true, start["game_started"])
	current := start["current_player"].(string)

	hands := map[string][]domain.Card{}
	for id, conn := range conns {
		var deal app.DealCardsPayload
		require.NoError(t, json.Unmarshal(readUntil(t, conn, string(app.EventDealCards)), &deal))
		assert.Equal(t, current, deal.CurrentPlayer)
		hands[id] = deal.Hand
	}

	lead := hands[current][0]
	send(t, conns[current], Inbound{Type: MsgPlayCards, Cards: []domain.Card{lead}, ActionID: "act-1"})

	var other string
	for id := range conns {
		if id != current {
			other = id
		}
	}
	for _, conn := range conns {
		var upd app.GameUpdatePayload
		require.NoError(t, json.Unmarshal(readUntil(t, conn, string(app.EventGameUpdate)), &upd))
		assert.Equal(t, []domain.Card{lead}, upd.LastPlayed)
		assert.Equal(t, other, upd.CurrentPlayer)
		assert.Equal(t, "single", upd.Combination)
	}

	// A retried action is answered with state and not applied twice.
	send(t, conns[current], Inbound{Type: MsgPlayCards, Cards: []domain.Card{lead}, ActionID: "act-1"})
	var view domain.View
	require.NoError(t, json.Unmarshal(readUntil(t, conns[current], MsgState), &view))
	assert.Len(t, view.Hand, len(hands[current])-1)
	assert.Equal(t, other, view.CurrentTurn)

	send(t, conns[current], Inbound{Type: MsgPassTurn, ActionID: "act-2"})
	var rejected app.PlayErrorPayload
	require.NoError(t, json.Unmarshal(readUntil(t, conns[current], string(app.EventPlayError)), &rejected))
	assert.Equal(t, app.CodeNotYourTurn, rejected.Code)

	send(t, conns[other], Inbound{Type: MsgPassTurn, ActionID: "act-3"})
	var passed app.GameUpdatePayload
	require.NoError(t, json.Unmarshal(readUntil(t, conns[current], string(app.EventGameUpdate)), &passed))
	assert.Nil(t, passed.LastPlayed)
	assert.Equal(t, current, passed.CurrentPlayer)

	send(t, conns[other], Inbound{Type: MsgRequestState})
	require.NoError(t, json.Unmarshal(readUntil(t, conns[other], MsgState), &view))
	assert.Equal(t, other, view.ParticipantID)
	assert.False(t, view.IsCurrentPlayer)
}

func TestHealthAndCORS(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodOptions, env.srv.URL+"/create_game", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest(http.MethodOptions, env.srv.URL+"/create_game", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestTokenFrom(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/game_state?token=q", nil)
	assert.Equal(t, "q", tokenFrom(r))

	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "c"})
	assert.Equal(t, "c", tokenFrom(r))

	r.Header.Set("Authorization", "Bearer h")
	assert.Equal(t, "h", tokenFrom(r))
}

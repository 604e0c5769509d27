package ws

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"bigtwo/internal/app"
	"bigtwo/internal/config"
	"bigtwo/internal/domain"
	"bigtwo/internal/ports"
	"bigtwo/internal/session"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "bigtwo_session"

// Server exposes the lobby over HTTP and play over WebSocket.
type Server struct {
	svc     *app.Service
	signer  *session.Signer
	hub     *Hub
	events  ports.EventPublisher
	forward ports.ActionForwarder
	origins []string
	socket  config.SocketConfig
	log     zerolog.Logger
}

// NewServer wires the transport. events may be the hub itself or a
// cross-instance publisher that eventually feeds the hub.
func NewServer(svc *app.Service, signer *session.Signer, hub *Hub, events ports.EventPublisher, cfg *config.ServerConfig, logger zerolog.Logger) *Server {
	return &Server{
		svc:     svc,
		signer:  signer,
		hub:     hub,
		events:  events,
		origins: cfg.AllowedOrigins,
		socket:  cfg.Socket,
		log:     logger.With().Str("component", "http").Logger(),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /create_game", s.handleCreateGame)
	mux.HandleFunc("POST /join_game", s.handleJoinGame)
	mux.HandleFunc("POST /ready", s.handleReady)
	mux.HandleFunc("POST /start_game", s.handleStartGame)
	mux.HandleFunc("GET /game_state", s.handleGameState)
	mux.HandleFunc("GET /ws", s.handleSocket)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return cors(s.origins, mux)
}

type createGameRequest struct {
	PlayerName string `json:"player_name"`
}

type joinGameRequest struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

type seatResponse struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
	Token    string `json:"token"`
}

type readyResponse struct {
	Ready          int  `json:"ready"`
	Total          int  `json:"total"`
	ShowFaceUpCard bool `json:"show_face_up_card"`
	GameStarted    bool `json:"game_started"`
}

type startResponse struct {
	GameStarted   bool         `json:"game_started"`
	CurrentPlayer string       `json:"current_player,omitempty"`
	FaceUpCard    *domain.Card `json:"face_up_card,omitempty"`
	Ready         int          `json:"ready"`
	Total         int          `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.PlayerName) == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "player_name is required", Code: app.CodeBadRequest})
		return
	}

	seat, events, err := s.svc.CreateMatch("", strings.TrimSpace(req.PlayerName))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info().Str("room_id", seat.RoomID).Str("participant_id", seat.ParticipantID).Msg("room created")
	s.publish(r, seat.RoomID, events)
	s.writeSeat(w, seat)
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" || strings.TrimSpace(req.PlayerName) == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "room_id and player_name are required", Code: app.CodeBadRequest})
		return
	}

	seat, events, err := s.svc.Join(req.RoomID, "", strings.TrimSpace(req.PlayerName))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info().Str("room_id", seat.RoomID).Str("participant_id", seat.ParticipantID).Msg("participant joined")
	s.publish(r, seat.RoomID, events)
	s.writeSeat(w, seat)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	res, events, err := s.svc.SetReady(claims.RoomID, claims.ParticipantID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(r, claims.RoomID, events)
	s.writeJSON(w, http.StatusOK, readyResponse{
		Ready:          res.Ready,
		Total:          res.Total,
		ShowFaceUpCard: res.ShowFaceUp,
	})
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	res, events, err := s.svc.TryStart(claims.RoomID)
	switch {
	case errors.Is(err, domain.ErrNotEnoughReady):
		s.writeJSON(w, http.StatusOK, startResponse{Ready: res.Ready, Total: res.Total})
		return
	case err != nil:
		s.writeError(w, err)
		return
	}

	s.log.Info().Str("room_id", claims.RoomID).Str("current_player", res.CurrentTurn).
		Str("face_up", res.FaceUp.String()).Msg("match started")
	s.publish(r, claims.RoomID, events)
	faceUp := res.FaceUp
	s.writeJSON(w, http.StatusOK, startResponse{
		GameStarted:   true,
		CurrentPlayer: res.CurrentTurn,
		FaceUpCard:    &faceUp,
		Ready:         res.Ready,
		Total:         res.Total,
	})
}

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	view, err := s.svc.QueryState(claims.RoomID, claims.ParticipantID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// tokenFrom reads the session token from the Authorization header, the session
// cookie or the token query parameter, in that order.
func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (session.Claims, bool) {
	token := tokenFrom(r)
	if token == "" {
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing session token", Code: "unauthorized"})
		return session.Claims{}, false
	}
	claims, err := s.signer.Verify(token)
	if err != nil {
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "unauthorized"})
		return session.Claims{}, false
	}
	return claims, true
}

func (s *Server) writeSeat(w http.ResponseWriter, seat app.Seat) {
	token, err := s.signer.Issue(seat.RoomID, seat.ParticipantID)
	if err != nil {
		s.log.Error().Err(err).Msg("issue session token")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not issue session", Code: app.CodeInternal})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.writeJSON(w, http.StatusOK, seatResponse{RoomID: seat.RoomID, PlayerID: seat.ParticipantID, Token: token})
}

func (s *Server) publish(r *http.Request, roomID string, events []app.Event) {
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(r.Context(), roomID, events); err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("publish events")
	}
}

func statusFor(err error) int {
	switch app.ErrorCode(err) {
	case app.CodeRoomNotFound:
		return http.StatusNotFound
	case app.CodeRoomFull, app.CodeUnknownParticipant, app.CodeInvalidCount:
		return http.StatusBadRequest
	case app.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusConflict
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Code: app.ErrorCode(err)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Debug().Err(err).Msg("write response")
	}
}

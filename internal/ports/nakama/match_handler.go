package nakama

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/goccy/go-json"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/spf13/cast"

	"bigtwo/internal/app"
	"bigtwo/internal/bot"
	"bigtwo/internal/domain"
)

const (
	defaultBotMinDelay      = 1
	defaultBotMaxDelay      = 3
	defaultBotAutoFillDelay = 5
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Room      *app.Room                   `json:"-"`
	Presences map[string]runtime.Presence `json:"-"` // UserId -> Presence for targeted messaging
	Tick      int64                       `json:"tick"`

	BotsEnabled          bool                  `json:"bots_enabled"`
	BotLevel             bot.BotLevel          `json:"bot_level"`
	BotMinDelay          int                   `json:"bot_min_delay"`
	BotMaxDelay          int                   `json:"bot_max_delay"`
	BotAutoFillDelay     int                   `json:"bot_auto_fill_delay"`
	BotWaitUntil         int64                 `json:"bot_wait_until"`          // Tick when the pending bot acts
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"` // Tick when a lone human started waiting
	Bots                 map[string]*bot.Agent `json:"-"`

	rng *rand.Rand
}

// humanCount returns the seated participants that are not bots.
func (ms *MatchState) humanCount() int {
	n := 0
	for _, id := range ms.Room.Participants() {
		if !bot.IsBot(id) {
			n++
		}
	}
	return n
}

// connectedHumans returns how many human presences are still attached.
func (ms *MatchState) connectedHumans() int {
	n := 0
	for id := range ms.Presences {
		if !bot.IsBot(id) {
			n++
		}
	}
	return n
}

func (ms *MatchState) seated(userID string) bool {
	for _, id := range ms.Room.Participants() {
		if id == userID {
			return true
		}
	}
	return false
}

// anyBot returns a seated bot id, or "".
func (ms *MatchState) anyBot() string {
	for _, id := range ms.Room.Participants() {
		if bot.IsBot(id) {
			return id
		}
	}
	return ""
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return newMatchHandler(), nil
}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	roomID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	if id := cast.ToString(params["room_id"]); id != "" {
		roomID = id
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	state := &MatchState{
		Room:             app.NewRoom(roomID, rand.New(rand.NewSource(rng.Int63()))),
		Presences:        make(map[string]runtime.Presence),
		Bots:             make(map[string]*bot.Agent),
		BotLevel:         bot.BotLevelGood,
		BotMinDelay:      defaultBotMinDelay,
		BotMaxDelay:      defaultBotMaxDelay,
		BotAutoFillDelay: defaultBotAutoFillDelay,
		rng:              rng,
	}
	applyEnv(ctx, state)

	label, err := buildLabel(state.Room.Summary())
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	logger.Debug("MatchInit: room %s ready (bots=%v).", roomID, state.BotsEnabled)

	tickRate := 1
	return state, tickRate, label
}

// applyEnv reads bot settings from the runtime env; absent keys keep defaults.
func applyEnv(ctx context.Context, state *MatchState) {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if env == nil {
		return
	}
	if val, ok := env[EnvBotsEnabled]; ok {
		state.BotsEnabled = cast.ToBool(val)
	}
	if val, ok := env[EnvBotLevel]; ok {
		state.BotLevel = bot.ParseLevel(val)
	}
	if i := cast.ToInt(env[EnvBotMinDelay]); i > 0 {
		state.BotMinDelay = i
	}
	if i := cast.ToInt(env[EnvBotMaxDelay]); i > 0 {
		state.BotMaxDelay = i
	}
	if i := cast.ToInt(env[EnvBotAutoFillDelay]); i > 0 {
		state.BotAutoFillDelay = i
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay
	}
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Seated participants may always reconnect.
	if matchState.seated(presence.GetUserId()) {
		return state, true, ""
	}

	summary := matchState.Room.Summary()
	if summary.Phase != domain.PhaseWaiting {
		return state, false, "Match started"
	}
	// Allow join if there is an open seat or a bot to replace.
	if summary.OpenSeats <= 0 && matchState.anyBot() == "" {
		return state, false, "Match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if matchState.seated(userID) {
			logger.Debug("MatchJoin: User %s reconnected.", userID)
			mh.sendState(matchState, dispatcher, logger, userID)
			continue
		}

		if matchState.Room.Summary().OpenSeats <= 0 {
			if botID := matchState.anyBot(); botID != "" {
				events, err := matchState.Room.Leave(botID)
				if err != nil {
					logger.Warn("MatchJoin: Could not free bot seat %s: %v", botID, err)
				} else {
					logger.Info("MatchJoin: Replacing bot %s with human %s", botID, userID)
					delete(matchState.Bots, botID)
					mh.dispatchEvents(matchState, dispatcher, logger, events)
				}
			}
		}

		events, err := matchState.Room.Join(userID, p.GetUsername())
		if err != nil {
			// Another join took the last seat after this attempt was accepted.
			logger.Warn("MatchJoin: User %s joined but could not be seated: %v", userID, err)
			mh.sendError(matchState, dispatcher, logger, userID, err)
			delete(matchState.Presences, userID)
			if err := dispatcher.MatchKick([]runtime.Presence{p}); err != nil {
				logger.Error("MatchJoin: Failed to kick %s: %v", userID, err)
			}
			continue
		}
		mh.dispatchEvents(matchState, dispatcher, logger, events)
		mh.sendState(matchState, dispatcher, logger, userID)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		// Seats are fixed once dealt; the participant may reconnect.
		events, err := matchState.Room.Leave(userID)
		switch {
		case err == nil:
			logger.Debug("MatchLeave: User %s left, seat freed.", userID)
			mh.dispatchEvents(matchState, dispatcher, logger, events)
		case errors.Is(err, domain.ErrMatchStarted):
			logger.Debug("MatchLeave: User %s disconnected mid-match.", userID)
		default:
			logger.Warn("MatchLeave: User %s: %v", userID, err)
		}
	}

	if matchState.connectedHumans() == 0 {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpReady:
			mh.handleReady(matchState, dispatcher, logger, msg.GetUserId())
		case OpStartGame:
			mh.handleStartGame(matchState, dispatcher, logger, msg.GetUserId())
		case OpPlayCards:
			mh.handlePlayCards(matchState, dispatcher, logger, msg)
		case OpPassTurn:
			mh.handlePassTurn(matchState, dispatcher, logger, msg.GetUserId())
		case OpRequestState:
			mh.sendState(matchState, dispatcher, logger, msg.GetUserId())
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(matchState, dispatcher, logger)
	}

	return matchState
}

func (mh *matchHandler) handleReady(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	res, events, err := state.Room.SetReady(userID)
	if err != nil {
		logger.Warn("handleReady: User %s: %v", userID, err)
		mh.sendError(state, dispatcher, logger, userID, err)
		return
	}
	logger.Debug("handleReady: %d/%d ready.", res.Ready, res.Total)
	mh.dispatchEvents(state, dispatcher, logger, events)
}

func (mh *matchHandler) handleStartGame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	res, events, err := state.Room.TryStart()
	if err != nil {
		logger.Warn("StartGame: Request from %s rejected (%d/%d ready): %v", userID, res.Ready, res.Total, err)
		mh.sendError(state, dispatcher, logger, userID, err)
		return
	}
	mh.dispatchEvents(state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
	logger.Info("StartGame: Game started with %d players, %s leads.", res.Total, res.CurrentTurn)
}

func (mh *matchHandler) handlePlayCards(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	userID := msg.GetUserId()
	req, err := decodeRequest(msg.GetData())
	if err != nil {
		logger.Warn("handlePlayCards: Bad payload from %s: %v", userID, err)
		mh.sendBadRequest(state, dispatcher, logger, userID, "malformed payload")
		return
	}
	cards, err := cardsFromRequest(req)
	if err != nil {
		logger.Warn("handlePlayCards: Bad cards from %s: %v", userID, err)
		mh.sendBadRequest(state, dispatcher, logger, userID, err.Error())
		return
	}

	res, events, err := state.Room.Play(userID, cards)
	if err != nil {
		logger.Warn("handlePlayCards: User %s failed to play %v: %v", userID, cards, err)
	}
	mh.dispatchEvents(state, dispatcher, logger, events)
	if res.Finished {
		logger.Info("handlePlayCards: %s won.", res.Winner)
		mh.updateLabel(state, dispatcher, logger)
	}
}

func (mh *matchHandler) handlePassTurn(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	_, events, err := state.Room.Pass(userID)
	if err != nil {
		logger.Warn("handlePassTurn: User %s failed to pass: %v", userID, err)
	}
	mh.dispatchEvents(state, dispatcher, logger, events)
}

func (mh *matchHandler) processBots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	summary := state.Room.Summary()

	// 1. Seat one bot opposite a lone human who has waited long enough.
	if summary.Phase == domain.PhaseWaiting {
		if summary.Participants == 1 && state.humanCount() == 1 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}
			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				mh.addBot(state, dispatcher, logger)
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		return
	}

	// 2. Play the bot whose turn it is.
	if summary.Phase != domain.PhasePlaying {
		return
	}
	for id, agent := range state.Bots {
		view, err := state.Room.View(id)
		if err != nil || !view.IsCurrentPlayer {
			continue
		}

		if state.BotWaitUntil == 0 {
			delay := state.BotMinDelay
			if spread := state.BotMaxDelay - state.BotMinDelay; spread > 0 {
				delay += state.rng.Intn(spread + 1)
			}
			state.BotWaitUntil = state.Tick + int64(delay)
			logger.Debug("processBots: Bot %s will act at tick %d (current %d)", id, state.BotWaitUntil, state.Tick)
		}
		if state.Tick < state.BotWaitUntil {
			return
		}
		state.BotWaitUntil = 0
		mh.playBot(state, dispatcher, logger, agent, view)
		return
	}
	// Not a bot turn.
	state.BotWaitUntil = 0
}

func (mh *matchHandler) addBot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	taken := make(map[string]bool)
	for _, id := range state.Room.Participants() {
		taken[id] = true
	}
	identity := bot.NextIdentity(state.Room.ID(), taken)
	brain, err := bot.NewBrain(state.BotLevel)
	if err != nil {
		logger.Error("processBots: Failed to create bot brain: %v", err)
		return
	}

	events, err := state.Room.Join(identity.ID, identity.Name)
	if err != nil {
		logger.Warn("processBots: Could not seat bot %s: %v", identity.ID, err)
		return
	}
	state.Bots[identity.ID] = &bot.Agent{ID: identity.ID, Name: identity.Name, Strategy: brain}
	mh.dispatchEvents(state, dispatcher, logger, events)

	_, events, err = state.Room.SetReady(identity.ID)
	if err != nil {
		logger.Warn("processBots: Bot %s could not ready: %v", identity.ID, err)
	}
	mh.dispatchEvents(state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
	logger.Info("processBots: Added bot %s (%s)", identity.Name, identity.ID)
}

func (mh *matchHandler) playBot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, agent *bot.Agent, view domain.View) {
	move, err := agent.Play(view)
	if err != nil {
		logger.Error("processBots: Bot %s failed to calculate move: %v", agent.ID, err)
	}

	if !move.Pass {
		res, events, err := state.Room.Play(agent.ID, move.Cards)
		if err == nil {
			mh.dispatchEvents(state, dispatcher, logger, events)
			if res.Finished {
				mh.updateLabel(state, dispatcher, logger)
			}
			return
		}
		logger.Warn("processBots: Bot %s play %v rejected: %v", agent.ID, move.Cards, err)
	}

	_, events, err := state.Room.Pass(agent.ID)
	if err != nil {
		logger.Error("processBots: Bot %s could not pass: %v", agent.ID, err)
		return
	}
	mh.dispatchEvents(state, dispatcher, logger, events)
}

// dispatchEvents converts app events to Nakama messages.
func (mh *matchHandler) dispatchEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		opCode, ok := opCodeFor(ev.Kind)
		if !ok {
			logger.Warn("Unknown event kind: %v", ev.Kind)
			continue
		}
		bytes, err := encodePayload(ev.Payload)
		if err != nil {
			logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
			continue
		}

		var recipients []runtime.Presence
		if ev.Private() {
			for _, uid := range ev.Recipients {
				if p, ok := state.Presences[uid]; ok {
					recipients = append(recipients, p)
				}
			}
			// Intended recipients are bots or offline: never widen to a broadcast.
			if len(recipients) == 0 {
				continue
			}
		}

		if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
			logger.Error("Failed to broadcast %v: %v", ev.Kind, err)
		}
	}
}

// sendError sends a play_error event to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, err error) {
	mh.dispatchEvents(state, dispatcher, logger, []app.Event{app.PlayErrorEvent(userID, err)})
}

// sendBadRequest reports a message that could not be decoded.
func (mh *matchHandler) sendBadRequest(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID, message string) {
	mh.dispatchEvents(state, dispatcher, logger, []app.Event{{
		Kind:       app.EventPlayError,
		Payload:    app.PlayErrorPayload{Code: app.CodeBadRequest, Message: message},
		Recipients: []string{userID},
	}})
}

// sendState sends the participant's own view.
func (mh *matchHandler) sendState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send state to %s: Presence not found", userID)
		return
	}
	view, err := state.Room.View(userID)
	if err != nil {
		mh.sendError(state, dispatcher, logger, userID, err)
		return
	}
	bytes, err := encodePayload(view)
	if err != nil {
		logger.Error("Failed to marshal state for %s: %v", userID, err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpState, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send state to %s: %v", userID, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := buildLabel(state.Room.Summary())
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

// signalRequest asks the match for one participant's view.
type signalRequest struct {
	ParticipantID string `json:"participant_id"`
}

type signalError struct {
	Error string `json:"error"`
}

// MatchSignal answers query_state lookups with the participant's view as JSON.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}

	var req signalRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return state, signalReply(signalError{Error: app.CodeUnknownParticipant})
	}
	view, err := matchState.Room.View(req.ParticipantID)
	if err != nil {
		return state, signalReply(signalError{Error: app.ErrorCode(err)})
	}
	return state, signalReply(view)
}

func signalReply(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"internal"}`
	}
	return string(b)
}

package nakama

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/heroiclabs/nakama-common/runtime"

	"bigtwo/internal/domain"
)

var errMissingMatchID = runtime.NewError("match_id is required", 3) // INVALID_ARGUMENT

// MatchResponse is returned by create_match and find_match.
type MatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

type queryStateRequest struct {
	MatchID       string `json:"match_id"`
	ParticipantID string `json:"participant_id,omitempty"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcCreateMatch:    RpcCreate,
		RpcNameFindMatch:  RpcFindMatch,
		RpcNameQueryState: RpcQueryState,
	}
	for name, fn := range rpcs {
		if err := initializer.RegisterRpc(name, fn); err != nil {
			return fmt.Errorf("register rpc %s: %w", name, err)
		}
	}
	return nil
}

// RpcCreate always creates a fresh match.
func RpcCreate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	matchId, err := nk.MatchCreate(ctx, MatchNameBigTwo, map[string]interface{}{})
	if err != nil {
		logger.Error("RpcCreateMatch [User:%s]: Failed to create match: %v", userId, err)
		return "", err
	}
	logger.Info("RpcCreateMatch [User:%s]: Created match %s", userId, matchId)
	return marshalResponse(MatchResponse{MatchID: matchId, IsNew: true})
}

// RpcFindMatch returns a waiting match with at least one open seat,
// creating one when none is available.
func RpcFindMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	limit := 1
	authoritative := true
	labelQuery := fmt.Sprintf("+label.%s:>=1 +label.%s:%s", MatchLabelKey_OpenSeats, MatchLabelKey_State, domain.PhaseWaiting)
	minSize := 0
	maxSize := domain.MaxParticipants

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, labelQuery)
	if err != nil {
		logger.Error("RpcFindMatch [User:%s]: Failed to list matches: %v", userId, err)
		return "", err
	}

	if len(matches) > 0 {
		matchId := matches[0].MatchId
		logger.Info("RpcFindMatch [User:%s]: Found existing match %s", userId, matchId)
		return marshalResponse(MatchResponse{MatchID: matchId})
	}

	matchId, err := nk.MatchCreate(ctx, MatchNameBigTwo, map[string]interface{}{})
	if err != nil {
		logger.Error("RpcFindMatch [User:%s]: Failed to create match: %v", userId, err)
		return "", err
	}
	logger.Info("RpcFindMatch [User:%s]: Created new match %s", userId, matchId)
	return marshalResponse(MatchResponse{MatchID: matchId, IsNew: true})
}

// RpcQueryState returns the caller's view of a match. participant_id
// defaults to the calling user.
func RpcQueryState(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req queryStateRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", 3)
	}
	if req.MatchID == "" {
		return "", errMissingMatchID
	}
	if req.ParticipantID == "" {
		req.ParticipantID, _ = ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	}

	data, err := json.Marshal(signalRequest{ParticipantID: req.ParticipantID})
	if err != nil {
		return "", err
	}
	reply, err := nk.MatchSignal(ctx, req.MatchID, string(data))
	if err != nil {
		logger.Warn("RpcQueryState: signal %s failed: %v", req.MatchID, err)
		return "", err
	}
	if reply == "" {
		return "", errors.New("match did not answer")
	}
	return reply, nil
}

func marshalResponse(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

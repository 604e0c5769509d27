package app

import (
	"errors"

	"bigtwo/internal/domain"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrNoRoomCode        = errors.New("no free room code")
)

// Stable error codes carried by play_error events and HTTP error bodies.
const (
	CodeRoomNotFound       = "room_not_found"
	CodeRoomAlreadyExists  = "room_already_exists"
	CodeRoomFull           = "room_full"
	CodeDuplicate          = "duplicate_participant"
	CodeUnknownParticipant = "unknown_participant"
	CodeInvalidCount       = "invalid_participant_count"
	CodeNotYourTurn        = "not_your_turn"
	CodeCardsNotInHand     = "cards_not_in_hand"
	CodeInvalidCombination = "invalid_combination"
	CodeMatchOver          = "match_already_over"
	CodeNotEnoughReady     = "not_enough_ready"
	CodeMatchStarted       = "match_started"
	CodeMatchNotStarted    = "match_not_started"
	CodeInternal           = "internal"

	// CodeBadRequest marks a client message that could not be decoded.
	CodeBadRequest = "bad_request"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrRoomNotFound, CodeRoomNotFound},
	{ErrRoomAlreadyExists, CodeRoomAlreadyExists},
	{domain.ErrRoomFull, CodeRoomFull},
	{domain.ErrDuplicateParticipant, CodeDuplicate},
	{domain.ErrUnknownParticipant, CodeUnknownParticipant},
	{domain.ErrInvalidParticipantCount, CodeInvalidCount},
	{domain.ErrNotYourTurn, CodeNotYourTurn},
	{domain.ErrCardsNotInHand, CodeCardsNotInHand},
	{domain.ErrInvalidCombination, CodeInvalidCombination},
	{domain.ErrMatchAlreadyOver, CodeMatchOver},
	{domain.ErrNotEnoughReady, CodeNotEnoughReady},
	{domain.ErrMatchStarted, CodeMatchStarted},
	{domain.ErrMatchNotStarted, CodeMatchNotStarted},
}

// ErrorCode maps an error to its stable wire code. Unknown errors and
// invariant violations map to CodeInternal.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// IsRejection reports whether err is an ordinary refusal of a player action
// rather than a server defect.
func IsRejection(err error) bool {
	return err != nil && ErrorCode(err) != CodeInternal
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRoomFull                 = errors.New("room is full")
	ErrDuplicateParticipant     = errors.New("participant already joined")
	ErrUnknownParticipant       = errors.New("participant not found")
	ErrInvalidParticipantCount  = errors.New("invalid participant count")
	ErrNotYourTurn              = errors.New("it's not your turn")
	ErrCardsNotInHand           = errors.New("you don't have these cards")
	ErrInvalidCombination       = errors.New("invalid combination")
	ErrMatchAlreadyOver         = errors.New("match already over")
	ErrNotEnoughReady           = errors.New("not enough ready participants")
	ErrMatchStarted             = errors.New("match already started")
	ErrMatchNotStarted          = errors.New("match not started")
	ErrEngineInvariantViolation = errors.New("engine invariant violation")
)

// CombinationError explains why a proposed play is illegal.
type CombinationError struct {
	Reason string
}

func (e *CombinationError) Error() string {
	return e.Reason
}

// Is lets errors.Is(err, ErrInvalidCombination) match.
func (e *CombinationError) Is(target error) bool {
	return target == ErrInvalidCombination
}

// InvariantError reports a deck/hand bookkeeping mismatch. It is a defect, not a user error.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrEngineInvariantViolation, e.Op, e.Detail)
}

func (e *InvariantError) Unwrap() error {
	return ErrEngineInvariantViolation
}

package app

import (
	"errors"
	"fmt"
	"testing"

	"bigtwo/internal/domain"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrRoomNotFound, CodeRoomNotFound},
		{fmt.Errorf("join: %w", domain.ErrRoomFull), CodeRoomFull},
		{domain.ErrNotYourTurn, CodeNotYourTurn},
		{&domain.CombinationError{Reason: domain.ReasonTriple}, CodeInvalidCombination},
		{&domain.InvariantError{Op: "play", Detail: "x"}, CodeInternal},
		{errors.New("boom"), CodeInternal},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Fatalf("ErrorCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
	if IsRejection(&domain.InvariantError{}) || !IsRejection(domain.ErrCardsNotInHand) {
		t.Fatalf("IsRejection misclassified errors")
	}
}

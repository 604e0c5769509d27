package bot

import (
	"bigtwo/internal/domain"
)

// Move represents the decision made by the AI.
type Move struct {
	Pass  bool
	Cards []domain.Card
}

// Brain is the interface that all bot strategies must implement.
// Bots only see what a participant may see.
type Brain interface {
	CalculateMove(view domain.View) (Move, error)
}

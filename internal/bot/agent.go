package bot

import (
	"bigtwo/internal/domain"
)

// Agent represents an autonomous bot participant.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// Play asks the agent for its move. Agents pass when the view is not theirs
// or it is not their turn.
func (a *Agent) Play(view domain.View) (Move, error) {
	if view.ParticipantID != a.ID || !view.IsCurrentPlayer {
		return Move{Pass: true}, nil
	}
	move, err := a.Strategy.CalculateMove(view)
	if err != nil {
		return Move{Pass: true}, err
	}
	return move, nil
}

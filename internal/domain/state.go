package domain

import "math/rand"

// Phase represents the lifecycle stage of a Big Two match.
type Phase string

const (
	// PhaseWaiting is the lobby state where participants join and ready up.
	PhaseWaiting Phase = "waiting"
	// PhaseDealing is the transient state while the deck is split and the starter chosen.
	PhaseDealing Phase = "dealing"
	// PhasePlaying is the active game state where cards are played.
	PhasePlaying Phase = "playing"
	// PhaseFinished is the state after a participant empties their hand.
	PhaseFinished Phase = "finished"
)

// Participant holds state for one seat in the match.
type Participant struct {
	ID    string
	Name  string
	Hand  []Card // private to the participant
	Ready bool
	Score int // remaining cards at match end; 0 until then
}

// Match holds authoritative state for a single Big Two room.
// It is not safe for concurrent use; callers serialize access per room.
type Match struct {
	RoomID string
	Phase  Phase

	Participants map[string]*Participant
	Order        []string // join order, defines turn rotation

	CurrentTurn string
	LastPlay    []Card // nil after a pass or at match start

	FaceUp      Card
	HasFaceUp   bool // set once dealt
	FaceUpOwner string
	DrawPile    []Card
	Discard     []Card // every card accepted in a play

	Winner string
	Scores map[string]int

	// Seq increases by one on every accepted change; clients use it to order updates.
	Seq uint64

	rng *rand.Rand
}

// NewMatch creates an empty match in the waiting phase.
func NewMatch(roomID string, rng *rand.Rand) *Match {
	return &Match{
		RoomID:       roomID,
		Phase:        PhaseWaiting,
		Participants: make(map[string]*Participant),
		rng:          rng,
	}
}

// ReadyCounts returns how many participants are ready and how many joined.
func (m *Match) ReadyCounts() (ready, total int) {
	for _, id := range m.Order {
		if m.Participants[id].Ready {
			ready++
		}
	}
	return ready, len(m.Order)
}

// Started reports whether cards have been dealt.
func (m *Match) Started() bool {
	return m.Phase == PhasePlaying || m.Phase == PhaseFinished
}

// nextAfter returns the participant after id in join order, wrapping around.
func (m *Match) nextAfter(id string) string {
	for i, pid := range m.Order {
		if pid == id {
			return m.Order[(i+1)%len(m.Order)]
		}
	}
	return id
}

// accountedCards lists every pile that must add up to the full deck once dealt.
func (m *Match) accountedCards() [][]Card {
	piles := make([][]Card, 0, len(m.Order)+3)
	for _, id := range m.Order {
		piles = append(piles, m.Participants[id].Hand)
	}
	piles = append(piles, m.DrawPile, m.Discard)
	if m.HasFaceUp && m.FaceUpOwner == "" {
		piles = append(piles, []Card{m.FaceUp})
	}
	return piles
}

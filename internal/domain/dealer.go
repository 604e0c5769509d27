package domain

import "fmt"

const (
	// MinParticipants is the smallest table that can be dealt.
	MinParticipants = 2
	// MaxParticipants is the largest table that can be dealt.
	MaxParticipants = 3
	// HandSize is the number of cards dealt to every participant.
	HandSize = 17
)

// Deal is the result of splitting a shuffled deck across a table.
type Deal struct {
	Hands    map[string][]Card
	FaceUp   Card
	DrawPile []Card
}

// DealCards partitions a shuffled deck into hands, a face-up card and a draw pile.
// The face-up card is popped from the end of the deck. Three participants take
// contiguous 17-card slices; two participants are dealt alternately and the 17
// leftover cards form the draw pile.
func DealCards(deck []Card, participantIDs []string) (Deal, error) {
	n := len(participantIDs)
	if n < MinParticipants || n > MaxParticipants {
		return Deal{}, fmt.Errorf("%w: %d", ErrInvalidParticipantCount, n)
	}
	if len(deck) != DeckSize {
		return Deal{}, &InvariantError{Op: "deal", Detail: fmt.Sprintf("deck has %d cards", len(deck))}
	}

	faceUp := deck[len(deck)-1]
	rest := deck[:len(deck)-1]

	hands := make(map[string][]Card, n)
	for _, id := range participantIDs {
		hands[id] = make([]Card, 0, HandSize+1)
	}

	var drawPile []Card
	switch n {
	case 3:
		for i, id := range participantIDs {
			hands[id] = append(hands[id], rest[i*HandSize:(i+1)*HandSize]...)
		}
	case 2:
		dealt := HandSize * n
		for i := 0; i < dealt; i++ {
			id := participantIDs[i%n]
			hands[id] = append(hands[id], rest[i])
		}
		drawPile = append([]Card{}, rest[dealt:]...)
	}

	return Deal{Hands: hands, FaceUp: faceUp, DrawPile: drawPile}, nil
}

// CheckConservation verifies that the given piles hold every card of the deck exactly once.
func CheckConservation(op string, piles ...[]Card) error {
	seen := make(map[Card]bool, DeckSize)
	total := 0
	for _, pile := range piles {
		for _, c := range pile {
			if !c.Rank.Valid() || !c.Suit.Valid() {
				return &InvariantError{Op: op, Detail: fmt.Sprintf("malformed card %v", c)}
			}
			if seen[c] {
				return &InvariantError{Op: op, Detail: fmt.Sprintf("duplicate card %s", c)}
			}
			seen[c] = true
			total++
		}
	}
	if total != DeckSize {
		return &InvariantError{Op: op, Detail: fmt.Sprintf("accounted for %d of %d cards", total, DeckSize)}
	}
	return nil
}

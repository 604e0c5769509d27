package domain

import "math/rand"

// TurnOrder names who leads the first trick and who receives the face-up card.
// Recipient is empty when no card was assigned.
type TurnOrder struct {
	Starter   string
	Recipient string
}

// StartTarget returns the card whose holder leads: the 3 of diamonds, or the
// 3 of clubs when the 3 of diamonds is the face-up card.
func StartTarget(faceUp Card) Card {
	target := NewCard(Rank3, SuitDiamonds)
	if faceUp == target {
		return NewCard(Rank3, SuitClubs)
	}
	return target
}

// ResolveTurnOrder picks the starting participant. hands are scanned in order.
// rng is only consulted when every hand is empty.
func ResolveTurnOrder(order []string, hands map[string][]Card, faceUp Card, rng *rand.Rand) TurnOrder {
	target := StartTarget(faceUp)
	for _, id := range order {
		for _, c := range hands[id] {
			if c == target {
				return TurnOrder{Starter: id, Recipient: id}
			}
		}
	}

	holder := ""
	var smallest Card
	for _, id := range order {
		for _, c := range hands[id] {
			if holder == "" || c.Less(smallest) {
				holder = id
				smallest = c
			}
		}
	}
	if holder != "" {
		return TurnOrder{Starter: holder, Recipient: holder}
	}

	if len(order) == 0 {
		return TurnOrder{}
	}
	return TurnOrder{Starter: order[rng.Intn(len(order))]}
}

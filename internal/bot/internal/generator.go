package internal

import "bigtwo/internal/domain"

// ValidMove represents a possible legal play.
type ValidMove struct {
	Cards []domain.Card
}

// GetValidMoves returns a representative set of legal plays for a hand: every
// single, every pair, and for five-card plays the lowest straight per rank
// window, the lowest flush per suit and the lowest full houses.
func GetValidMoves(hand []domain.Card) []ValidMove {
	sorted := append([]domain.Card{}, hand...)
	domain.SortHand(sorted)

	var moves []ValidMove
	moves = append(moves, findAllSingles(sorted)...)
	moves = append(moves, findAllPairs(sorted)...)
	moves = append(moves, findStraights(sorted)...)
	moves = append(moves, findFlushes(sorted)...)
	moves = append(moves, findFullHouses(sorted)...)
	return moves
}

func findAllSingles(hand []domain.Card) []ValidMove {
	moves := make([]ValidMove, 0, len(hand))
	for _, c := range hand {
		moves = append(moves, ValidMove{Cards: []domain.Card{c}})
	}
	return moves
}

func findAllPairs(hand []domain.Card) []ValidMove {
	var moves []ValidMove
	for i := 0; i < len(hand)-1; i++ {
		for j := i + 1; j < len(hand) && hand[j].Rank == hand[i].Rank; j++ {
			moves = append(moves, ValidMove{Cards: []domain.Card{hand[i], hand[j]}})
		}
	}
	return moves
}

// byRank groups a sorted hand; each bucket stays in ascending suit order.
func byRank(hand []domain.Card) map[domain.Rank][]domain.Card {
	groups := make(map[domain.Rank][]domain.Card)
	for _, c := range hand {
		groups[c.Rank] = append(groups[c.Rank], c)
	}
	return groups
}

func findStraights(hand []domain.Card) []ValidMove {
	groups := byRank(hand)
	var moves []ValidMove
	for start := domain.Rank3; start+4 <= domain.Rank2; start++ {
		cards := make([]domain.Card, 0, 5)
		for r := start; r < start+5; r++ {
			g, ok := groups[r]
			if !ok {
				break
			}
			cards = append(cards, g[0])
		}
		if len(cards) == 5 {
			moves = append(moves, ValidMove{Cards: cards})
		}
	}
	return moves
}

func findFlushes(hand []domain.Card) []ValidMove {
	bySuit := make(map[domain.Suit][]domain.Card)
	for _, c := range hand {
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}
	var moves []ValidMove
	for s := domain.SuitDiamonds; s <= domain.SuitSpades; s++ {
		if cards := bySuit[s]; len(cards) >= 5 {
			moves = append(moves, ValidMove{Cards: append([]domain.Card{}, cards[:5]...)})
		}
	}
	return moves
}

func findFullHouses(hand []domain.Card) []ValidMove {
	groups := byRank(hand)
	var moves []ValidMove
	for tr := domain.Rank3; tr <= domain.Rank2; tr++ {
		triple := groups[tr]
		if len(triple) < 3 {
			continue
		}
		for pr := domain.Rank3; pr <= domain.Rank2; pr++ {
			pair := groups[pr]
			if pr == tr || len(pair) < 2 {
				continue
			}
			cards := append(append([]domain.Card{}, triple[:3]...), pair[:2]...)
			moves = append(moves, ValidMove{Cards: cards})
			break
		}
	}
	return moves
}

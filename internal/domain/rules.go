package domain

import "sort"

// CombinationType represents the type of card combination.
type CombinationType int

const (
	Invalid CombinationType = iota
	Single
	Pair
	Straight
	Flush
	FullHouse
	StraightFlush
)

func (t CombinationType) String() string {
	switch t {
	case Single:
		return "single"
	case Pair:
		return "pair"
	case Straight:
		return "straight"
	case Flush:
		return "flush"
	case FullHouse:
		return "full_house"
	case StraightFlush:
		return "straight_flush"
	default:
		return "invalid"
	}
}

// Combination is a classified play.
type Combination struct {
	Type  CombinationType
	Cards []Card // sorted by ascending power
}

// Rejection reasons reported by ValidateCombination.
const (
	ReasonPairRank   = "pairs must share rank"
	ReasonTriple     = "triples not supported"
	ReasonFiveCard   = "invalid five-card combination"
	ReasonInvalidSet = "invalid combination"
)

// ValidateCombination checks whether cards form a legal play on their own.
// It returns nil for a legal play and a *CombinationError otherwise.
// The previous play on the table is never consulted.
func ValidateCombination(cards []Card) error {
	switch len(cards) {
	case 1:
		return nil
	case 2:
		if cards[0].Rank != cards[1].Rank {
			return &CombinationError{Reason: ReasonPairRank}
		}
		return nil
	case 3:
		return &CombinationError{Reason: ReasonTriple}
	case 5:
		if isStraight(cards) || isFlush(cards) || isFullHouse(cards) {
			return nil
		}
		return &CombinationError{Reason: ReasonFiveCard}
	default:
		return &CombinationError{Reason: ReasonInvalidSet}
	}
}

// IdentifyCombination classifies a set of cards. Illegal plays yield Invalid.
func IdentifyCombination(cards []Card) Combination {
	if ValidateCombination(cards) != nil {
		return Combination{Type: Invalid}
	}

	sorted := append([]Card{}, cards...)
	SortHand(sorted)

	switch len(sorted) {
	case 1:
		return Combination{Type: Single, Cards: sorted}
	case 2:
		return Combination{Type: Pair, Cards: sorted}
	}

	straight, flush := isStraight(sorted), isFlush(sorted)
	switch {
	case straight && flush:
		return Combination{Type: StraightFlush, Cards: sorted}
	case isFullHouse(sorted):
		return Combination{Type: FullHouse, Cards: sorted}
	case flush:
		return Combination{Type: Flush, Cards: sorted}
	default:
		return Combination{Type: Straight, Cards: sorted}
	}
}

// isStraight requires five strictly consecutive rank positions; 2 never wraps to 3.
func isStraight(cards []Card) bool {
	if len(cards) != 5 {
		return false
	}
	ranks := make([]int, len(cards))
	for i, c := range cards {
		ranks[i] = int(c.Rank)
	}
	sort.Ints(ranks)
	for i := 1; i < len(ranks); i++ {
		if ranks[i] != ranks[i-1]+1 {
			return false
		}
	}
	return true
}

func isFlush(cards []Card) bool {
	if len(cards) != 5 {
		return false
	}
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			return false
		}
	}
	return true
}

func isFullHouse(cards []Card) bool {
	if len(cards) != 5 {
		return false
	}
	counts := make(map[Rank]int, 2)
	for _, c := range cards {
		counts[c.Rank]++
	}
	if len(counts) != 2 {
		return false
	}
	for _, n := range counts {
		if n != 2 && n != 3 {
			return false
		}
	}
	return true
}

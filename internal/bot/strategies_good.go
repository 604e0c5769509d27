package bot

import (
	"sort"

	"bigtwo/internal/bot/internal"
	"bigtwo/internal/domain"
)

// GoodBot sheds as many cards per turn as it can, lowest cards first.
type GoodBot struct{}

func (b *GoodBot) CalculateMove(view domain.View) (Move, error) {
	if len(view.Hand) == 0 {
		return Move{Pass: true}, nil
	}

	moves := internal.GetValidMoves(view.Hand)
	if len(moves) == 0 {
		return Move{Pass: true}, nil
	}

	sort.SliceStable(moves, func(i, j int) bool {
		if len(moves[i].Cards) != len(moves[j].Cards) {
			return len(moves[i].Cards) > len(moves[j].Cards)
		}
		return highest(moves[i].Cards).Less(highest(moves[j].Cards))
	})
	return Move{Cards: moves[0].Cards}, nil
}

// LowestBot always leads its weakest single. Useful as a predictable opponent.
type LowestBot struct{}

func (b *LowestBot) CalculateMove(view domain.View) (Move, error) {
	if len(view.Hand) == 0 {
		return Move{Pass: true}, nil
	}
	lowest := view.Hand[0]
	for _, c := range view.Hand[1:] {
		if c.Less(lowest) {
			lowest = c
		}
	}
	return Move{Cards: []domain.Card{lowest}}, nil
}

func highest(cards []domain.Card) domain.Card {
	top := cards[0]
	for _, c := range cards[1:] {
		if top.Less(c) {
			top = c
		}
	}
	return top
}

package domain

import (
	"math/rand"
	"reflect"
	"testing"
)

func card(r Rank, s Suit) Card { return NewCard(r, s) }

func TestNewDeck(t *testing.T) {
	deck := NewDeck()
	if len(deck) != DeckSize {
		t.Fatalf("deck size = %d, want %d", len(deck), DeckSize)
	}

	seen := make(map[Card]bool)
	for _, c := range deck {
		if seen[c] {
			t.Fatalf("duplicate card found: %s", c)
		}
		seen[c] = true
		if !c.Rank.Valid() || !c.Suit.Valid() {
			t.Fatalf("card out of range: %+v", c)
		}
	}
}

func TestBuildAndShuffleIsComplete(t *testing.T) {
	canonical := NewDeck()
	for seed := int64(0); seed < 50; seed++ {
		deck := BuildAndShuffle(rand.New(rand.NewSource(seed)))
		if err := CheckConservation("shuffle", deck); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		sorted := append([]Card{}, deck...)
		SortHand(sorted)
		if !reflect.DeepEqual(sorted, canonical) {
			t.Fatalf("seed %d: shuffled deck differs from canonical deck", seed)
		}
	}
}

func TestShuffleDeckCopies(t *testing.T) {
	deck := NewDeck()
	_ = ShuffleDeck(deck, rand.New(rand.NewSource(7)))
	if !reflect.DeepEqual(deck, NewDeck()) {
		t.Fatalf("ShuffleDeck mutated its input")
	}
}

func TestRemoveCards(t *testing.T) {
	hand := []Card{
		card(Rank3, SuitSpades),
		card(Rank4, SuitHearts),
		card(Rank5, SuitDiamonds),
		card(Rank6, SuitSpades),
	}
	played := []Card{
		card(Rank4, SuitHearts),
		card(Rank6, SuitSpades),
	}

	got := RemoveCards(hand, played)
	want := []Card{card(Rank3, SuitSpades), card(Rank5, SuitDiamonds)}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RemoveCards() = %v, want %v", got, want)
	}
	if len(hand) != 4 {
		t.Fatalf("RemoveCards mutated the input hand")
	}
}

func TestContainsAll(t *testing.T) {
	hand := []Card{card(Rank3, SuitDiamonds), card(Rank3, SuitHearts), card(Rank9, SuitClubs)}

	tests := []struct {
		name  string
		cards []Card
		want  bool
	}{
		{name: "subset", cards: []Card{card(Rank3, SuitHearts), card(Rank9, SuitClubs)}, want: true},
		{name: "missing card", cards: []Card{card(Rank2, SuitSpades)}, want: false},
		{name: "same card twice", cards: []Card{card(Rank3, SuitDiamonds), card(Rank3, SuitDiamonds)}, want: false},
		{name: "empty", cards: nil, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsAll(hand, tt.cards); got != tt.want {
				t.Fatalf("ContainsAll() = %t, want %t", got, tt.want)
			}
		})
	}
}

package domain

import (
	"math/rand"
	"testing"
)

func TestResolveTurnOrder(t *testing.T) {
	d3 := card(Rank3, SuitDiamonds)
	c3 := card(Rank3, SuitClubs)

	tests := []struct {
		name          string
		hands         map[string][]Card
		faceUp        Card
		wantStarter   string
		wantRecipient string
	}{
		{
			name:          "holder of 3 of diamonds leads",
			hands:         map[string][]Card{"a": {card(Rank5, SuitSpades)}, "b": {d3}, "c": {card(Rank4, SuitClubs)}},
			faceUp:        card(Rank9, SuitHearts),
			wantStarter:   "b",
			wantRecipient: "b",
		},
		{
			name:          "3 of clubs when 3 of diamonds is face up",
			hands:         map[string][]Card{"a": {c3}, "b": {card(Rank4, SuitDiamonds)}},
			faceUp:        d3,
			wantStarter:   "a",
			wantRecipient: "a",
		},
		{
			name:          "smallest card when target is in the draw pile",
			hands:         map[string][]Card{"a": {card(Rank6, SuitSpades)}, "b": {card(Rank4, SuitHearts), card(Rank2, SuitSpades)}},
			faceUp:        card(RankK, SuitClubs),
			wantStarter:   "b",
			wantRecipient: "b",
		},
		{
			name:          "suit breaks a rank tie",
			hands:         map[string][]Card{"a": {card(Rank4, SuitHearts)}, "b": {card(Rank4, SuitClubs)}},
			faceUp:        card(RankK, SuitClubs),
			wantStarter:   "b",
			wantRecipient: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := []string{"a", "b", "c"}
			got := ResolveTurnOrder(order, tt.hands, tt.faceUp, rand.New(rand.NewSource(1)))
			if got.Starter != tt.wantStarter || got.Recipient != tt.wantRecipient {
				t.Fatalf("ResolveTurnOrder() = %+v, want starter %s recipient %s", got, tt.wantStarter, tt.wantRecipient)
			}
		})
	}
}

func TestResolveTurnOrderDeterministic(t *testing.T) {
	deck := BuildAndShuffle(rand.New(rand.NewSource(99)))
	order := []string{"a", "b"}
	deal, err := DealCards(deck, order)
	if err != nil {
		t.Fatalf("DealCards: %v", err)
	}

	first := ResolveTurnOrder(order, deal.Hands, deal.FaceUp, rand.New(rand.NewSource(5)))
	for i := 0; i < 10; i++ {
		again := ResolveTurnOrder(order, deal.Hands, deal.FaceUp, rand.New(rand.NewSource(int64(i))))
		if again != first {
			t.Fatalf("resolution changed between calls: %+v vs %+v", first, again)
		}
	}
	if first.Starter == "" || first.Starter != first.Recipient {
		t.Fatalf("dealt hands must produce a recipient: %+v", first)
	}
}

func TestResolveTurnOrderFallback(t *testing.T) {
	order := []string{"a", "b", "c"}
	hands := map[string][]Card{"a": nil, "b": nil, "c": nil}

	got := ResolveTurnOrder(order, hands, card(Rank3, SuitDiamonds), rand.New(rand.NewSource(3)))
	if got.Recipient != "" {
		t.Fatalf("fallback must not assign the face-up card, got %q", got.Recipient)
	}
	found := false
	for _, id := range order {
		if id == got.Starter {
			found = true
		}
	}
	if !found {
		t.Fatalf("fallback starter %q is not seated", got.Starter)
	}
}

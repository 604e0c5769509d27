package bot

import (
	"testing"

	"bigtwo/internal/domain"
)

func c(r domain.Rank, s domain.Suit) domain.Card { return domain.NewCard(r, s) }

func TestGoodBot_PrefersFiveCardPlays(t *testing.T) {
	view := domain.View{
		ParticipantID:   "bot",
		IsCurrentPlayer: true,
		Hand: []domain.Card{
			c(domain.Rank3, domain.SuitDiamonds),
			c(domain.Rank4, domain.SuitClubs),
			c(domain.Rank5, domain.SuitHearts),
			c(domain.Rank6, domain.SuitSpades),
			c(domain.Rank7, domain.SuitDiamonds),
			c(domain.Rank2, domain.SuitSpades),
			c(domain.Rank2, domain.SuitHearts),
		},
	}

	move, err := (&GoodBot{}).CalculateMove(view)
	if err != nil {
		t.Fatalf("CalculateMove failed: %v", err)
	}
	if move.Pass || len(move.Cards) != 5 {
		t.Fatalf("expected a five-card play, got %+v", move)
	}
	if domain.IdentifyCombination(move.Cards).Type != domain.Straight {
		t.Fatalf("expected the straight, got %v", move.Cards)
	}
}

func TestGoodBot_LowestPairBeforeSingles(t *testing.T) {
	view := domain.View{Hand: []domain.Card{
		c(domain.Rank3, domain.SuitDiamonds),
		c(domain.RankK, domain.SuitClubs),
		c(domain.RankK, domain.SuitHearts),
		c(domain.Rank9, domain.SuitClubs),
		c(domain.Rank9, domain.SuitSpades),
	}}

	move, _ := (&GoodBot{}).CalculateMove(view)
	want := []domain.Card{c(domain.Rank9, domain.SuitClubs), c(domain.Rank9, domain.SuitSpades)}
	if len(move.Cards) != 2 || move.Cards[0] != want[0] || move.Cards[1] != want[1] {
		t.Fatalf("expected pair of nines, got %v", move.Cards)
	}
}

func TestGoodBot_EmptyHandPasses(t *testing.T) {
	move, err := (&GoodBot{}).CalculateMove(domain.View{})
	if err != nil || !move.Pass {
		t.Fatalf("expected pass, got %+v err %v", move, err)
	}
}

func TestLowestBot(t *testing.T) {
	view := domain.View{Hand: []domain.Card{
		c(domain.Rank5, domain.SuitClubs),
		c(domain.Rank5, domain.SuitDiamonds),
		c(domain.RankA, domain.SuitSpades),
	}}
	move, _ := (&LowestBot{}).CalculateMove(view)
	if len(move.Cards) != 1 || move.Cards[0] != c(domain.Rank5, domain.SuitDiamonds) {
		t.Fatalf("expected 5 of diamonds, got %v", move.Cards)
	}
}

func TestAgentOnlyPlaysOnItsTurn(t *testing.T) {
	agent := &Agent{ID: "bot", Name: "Bot", Strategy: &GoodBot{}}
	hand := []domain.Card{c(domain.Rank3, domain.SuitDiamonds)}

	move, _ := agent.Play(domain.View{ParticipantID: "bot", IsCurrentPlayer: false, Hand: hand})
	if !move.Pass {
		t.Fatalf("agent acted out of turn")
	}
	move, _ = agent.Play(domain.View{ParticipantID: "human", IsCurrentPlayer: true, Hand: hand})
	if !move.Pass {
		t.Fatalf("agent acted on someone else's view")
	}
	move, _ = agent.Play(domain.View{ParticipantID: "bot", IsCurrentPlayer: true, Hand: hand})
	if move.Pass || len(move.Cards) != 1 {
		t.Fatalf("agent should play, got %+v", move)
	}
}

func TestNewBrain(t *testing.T) {
	if _, err := NewBrain(BotLevelGood); err != nil {
		t.Fatalf("good brain: %v", err)
	}
	if _, err := NewBrain(BotLevel(99)); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if ParseLevel("easy") != BotLevelLowest || ParseLevel("whatever") != BotLevelGood {
		t.Fatalf("ParseLevel mismatch")
	}
}

func TestNextIdentity(t *testing.T) {
	first := NextIdentity("r1", nil)
	if !IsBot(first.ID) || first.Name != roster[0] {
		t.Fatalf("unexpected identity %+v", first)
	}
	second := NextIdentity("r1", map[string]bool{first.ID: true})
	if second.ID == first.ID {
		t.Fatalf("identity reused")
	}
	if IsBot("p1") {
		t.Fatalf("human id classified as bot")
	}
}

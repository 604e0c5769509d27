package domain

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Rank is a card rank by Big Two strength: 3 is the lowest (0), 2 the highest (12).
type Rank int

const (
	Rank3 Rank = iota
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJ
	RankQ
	RankK
	RankA
	Rank2
)

// NumRanks is the size of the rank sequence.
const NumRanks = 13

var rankNames = [NumRanks]string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2"}

func (r Rank) String() string {
	if r < Rank3 || r > Rank2 {
		return "?"
	}
	return rankNames[r]
}

// Valid reports whether r is inside the rank sequence.
func (r Rank) Valid() bool {
	return r >= Rank3 && r <= Rank2
}

// ParseRank maps "3".."10", "J", "Q", "K", "A", "2" to a Rank.
func ParseRank(s string) (Rank, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range rankNames {
		if name == s {
			return Rank(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

// Suit is a card suit ordered by tie-break strength: diamonds < clubs < hearts < spades.
type Suit int

const (
	SuitDiamonds Suit = iota
	SuitClubs
	SuitHearts
	SuitSpades
)

// NumSuits is the number of suits in a deck.
const NumSuits = 4

var suitNames = [NumSuits]string{"diamonds", "clubs", "hearts", "spades"}

func (s Suit) String() string {
	if s < SuitDiamonds || s > SuitSpades {
		return "?"
	}
	return suitNames[s]
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	return s >= SuitDiamonds && s <= SuitSpades
}

// ParseSuit accepts full suit names and the single-letter aliases D, C, H, S.
func ParseSuit(s string) (Suit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "diamonds", "d":
		return SuitDiamonds, nil
	case "clubs", "c":
		return SuitClubs, nil
	case "hearts", "h":
		return SuitHearts, nil
	case "spades", "s":
		return SuitSpades, nil
	default:
		return 0, fmt.Errorf("unknown suit %q", s)
	}
}

// Card is a single playing card. It is a comparable value type.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard builds a card from its rank and suit.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

func (c Card) String() string {
	return c.Rank.String() + "-" + c.Suit.String()
}

// Power orders cards by rank first, suit second.
func (c Card) Power() int {
	return int(c.Rank)*NumSuits + int(c.Suit)
}

// Less reports whether c is weaker than o.
func (c Card) Less(o Card) bool {
	return c.Power() < o.Power()
}

type cardJSON struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// MarshalJSON encodes the card as {"rank":"10","suit":"hearts"}.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{Rank: c.Rank.String(), Suit: c.Suit.String()})
}

// UnmarshalJSON accepts the object form and the legacy ["rank","suit"] tuple form.
func (c *Card) UnmarshalJSON(data []byte) error {
	var obj cardJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		var tuple []string
		if terr := json.Unmarshal(data, &tuple); terr != nil || len(tuple) != 2 {
			return fmt.Errorf("invalid card %s", string(data))
		}
		obj = cardJSON{Rank: tuple[0], Suit: tuple[1]}
	}
	rank, err := ParseRank(obj.Rank)
	if err != nil {
		return err
	}
	suit, err := ParseSuit(obj.Suit)
	if err != nil {
		return err
	}
	*c = Card{Rank: rank, Suit: suit}
	return nil
}

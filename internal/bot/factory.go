package bot

import (
	"fmt"
)

// BotLevel selects a strategy.
type BotLevel int

const (
	BotLevelLowest BotLevel = iota
	BotLevelGood
)

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel) (Brain, error) {
	switch level {
	case BotLevelLowest:
		return &LowestBot{}, nil
	case BotLevelGood:
		return &GoodBot{}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}

// ParseLevel maps a config string to a level; unknown names fall back to good.
func ParseLevel(name string) BotLevel {
	switch name {
	case "lowest", "easy":
		return BotLevelLowest
	default:
		return BotLevelGood
	}
}

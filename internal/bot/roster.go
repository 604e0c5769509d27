package bot

import "fmt"

// Identity is a bot's seat name.
type Identity struct {
	ID   string
	Name string
}

var roster = []string{"Ace Bot", "Lucky Bot", "Dragon Bot", "Tiger Bot", "Phoenix Bot"}

// NextIdentity picks the first roster name not in use. IDs carry a bot: prefix
// so they never collide with human participant IDs.
func NextIdentity(roomID string, taken map[string]bool) Identity {
	for i, name := range roster {
		id := fmt.Sprintf("bot:%s:%d", roomID, i)
		if !taken[id] {
			return Identity{ID: id, Name: name}
		}
	}
	n := len(roster)
	for taken[fmt.Sprintf("bot:%s:%d", roomID, n)] {
		n++
	}
	return Identity{ID: fmt.Sprintf("bot:%s:%d", roomID, n), Name: fmt.Sprintf("Bot %d", n+1)}
}

// IsBot reports whether a participant ID was minted by NextIdentity.
func IsBot(id string) bool {
	return len(id) > 4 && id[:4] == "bot:"
}

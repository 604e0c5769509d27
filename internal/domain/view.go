package domain

// OpponentView is what a participant may see about another seat.
type OpponentView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CardCount int    `json:"card_count"`
	Score     int    `json:"score"`
	Ready     bool   `json:"ready"`
}

// View is the per-participant snapshot returned by state queries.
type View struct {
	RoomID          string         `json:"room_id"`
	Phase           Phase          `json:"phase"`
	ParticipantID   string         `json:"participant_id"`
	Hand            []Card         `json:"hand"`
	Opponents       []OpponentView `json:"opponents"`
	CurrentTurn     string         `json:"current_player"`
	IsCurrentPlayer bool           `json:"is_current_player"`
	LastPlay        []Card         `json:"last_played"`
	Started         bool           `json:"game_started"`
	FaceUp          *Card          `json:"face_up_card,omitempty"`
	DrawPileSize    int            `json:"draw_pile_size"`
	Winner          string         `json:"winner,omitempty"`
	Scores          map[string]int `json:"scores"`
	Seq             uint64         `json:"seq"`
}

// View builds the snapshot visible to one participant.
func (m *Match) View(id string) (View, error) {
	self, ok := m.Participants[id]
	if !ok {
		return View{}, ErrUnknownParticipant
	}

	v := View{
		RoomID:          m.RoomID,
		Phase:           m.Phase,
		ParticipantID:   id,
		Hand:            append([]Card{}, self.Hand...),
		Opponents:       make([]OpponentView, 0, len(m.Order)-1),
		CurrentTurn:     m.CurrentTurn,
		IsCurrentPlayer: m.Phase == PhasePlaying && m.CurrentTurn == id,
		LastPlay:        append([]Card(nil), m.LastPlay...),
		Started:         m.Started(),
		DrawPileSize:    len(m.DrawPile),
		Winner:          m.Winner,
		Scores:          m.copyScores(),
		Seq:             m.Seq,
	}
	if m.HasFaceUp {
		faceUp := m.FaceUp
		v.FaceUp = &faceUp
	}
	if v.Scores == nil {
		v.Scores = map[string]int{}
	}

	for _, pid := range m.Order {
		if pid == id {
			continue
		}
		p := m.Participants[pid]
		v.Opponents = append(v.Opponents, OpponentView{
			ID:        p.ID,
			Name:      p.Name,
			CardCount: len(p.Hand),
			Score:     p.Score,
			Ready:     p.Ready,
		})
	}
	return v, nil
}

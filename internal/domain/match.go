package domain

import "fmt"

// StartResult describes the outcome of TryStart.
type StartResult struct {
	Started     bool
	Ready       int
	Total       int
	FaceUp      Card
	Recipient   string // participant who received the face-up card, "" if none
	CurrentTurn string
	Hands       map[string][]Card
}

// TurnResult describes the table after an accepted play or pass.
type TurnResult struct {
	Actor       string
	LastPlay    []Card
	Combination CombinationType
	CurrentTurn string
	Winner      string
	Scores      map[string]int
	Finished    bool
}

// Join seats a new participant. Only legal while waiting.
func (m *Match) Join(id, name string) error {
	if m.Phase != PhaseWaiting {
		return ErrMatchStarted
	}
	if _, ok := m.Participants[id]; ok {
		return ErrDuplicateParticipant
	}
	if len(m.Order) >= MaxParticipants {
		return ErrRoomFull
	}
	m.Participants[id] = &Participant{ID: id, Name: name}
	m.Order = append(m.Order, id)
	m.Seq++
	return nil
}

// Leave unseats a participant. Only legal while waiting; once dealt, seats are fixed.
func (m *Match) Leave(id string) error {
	if m.Phase != PhaseWaiting {
		return ErrMatchStarted
	}
	if _, ok := m.Participants[id]; !ok {
		return ErrUnknownParticipant
	}
	delete(m.Participants, id)
	for i, pid := range m.Order {
		if pid == id {
			m.Order = append(m.Order[:i], m.Order[i+1:]...)
			break
		}
	}
	m.Seq++
	return nil
}

// SetReady marks a participant ready and returns the ready/total counts.
func (m *Match) SetReady(id string) (ready, total int, err error) {
	if m.Phase != PhaseWaiting {
		return 0, 0, ErrMatchStarted
	}
	p, ok := m.Participants[id]
	if !ok {
		return 0, 0, ErrUnknownParticipant
	}
	p.Ready = true
	m.Seq++
	ready, total = m.ReadyCounts()
	return ready, total, nil
}

// TryStart deals and moves the match to playing once two or three participants are all ready.
// When the table is not ready the counts are returned with ErrNotEnoughReady and
// the match stays in the waiting phase.
func (m *Match) TryStart() (StartResult, error) {
	if m.Phase != PhaseWaiting {
		return StartResult{}, ErrMatchStarted
	}
	ready, total := m.ReadyCounts()
	if total < MinParticipants || total > MaxParticipants || ready != total {
		return StartResult{Ready: ready, Total: total}, ErrNotEnoughReady
	}

	m.Phase = PhaseDealing
	deal, err := DealCards(BuildAndShuffle(m.rng), m.Order)
	if err != nil {
		m.Phase = PhaseWaiting
		return StartResult{Ready: ready, Total: total}, err
	}

	turn := ResolveTurnOrder(m.Order, deal.Hands, deal.FaceUp, m.rng)
	if turn.Recipient != "" {
		deal.Hands[turn.Recipient] = append(deal.Hands[turn.Recipient], deal.FaceUp)
	}

	piles := make([][]Card, 0, len(m.Order)+2)
	for _, id := range m.Order {
		piles = append(piles, deal.Hands[id])
	}
	piles = append(piles, deal.DrawPile)
	if turn.Recipient == "" {
		piles = append(piles, []Card{deal.FaceUp})
	}
	if err := CheckConservation("start", piles...); err != nil {
		m.Phase = PhaseWaiting
		return StartResult{Ready: ready, Total: total}, err
	}

	for _, id := range m.Order {
		hand := deal.Hands[id]
		SortHand(hand)
		m.Participants[id].Hand = hand
	}
	m.FaceUp = deal.FaceUp
	m.HasFaceUp = true
	m.FaceUpOwner = turn.Recipient
	m.DrawPile = deal.DrawPile
	m.Discard = nil
	m.CurrentTurn = turn.Starter
	m.LastPlay = nil
	m.Phase = PhasePlaying
	m.Seq++

	hands := make(map[string][]Card, len(m.Order))
	for _, id := range m.Order {
		hands[id] = append([]Card{}, m.Participants[id].Hand...)
	}
	return StartResult{
		Started:     true,
		Ready:       ready,
		Total:       total,
		FaceUp:      m.FaceUp,
		Recipient:   turn.Recipient,
		CurrentTurn: m.CurrentTurn,
		Hands:       hands,
	}, nil
}

func (m *Match) checkTurn(id string) error {
	switch m.Phase {
	case PhaseFinished:
		return ErrMatchAlreadyOver
	case PhasePlaying:
	default:
		return ErrMatchNotStarted
	}
	if id != m.CurrentTurn {
		return ErrNotYourTurn
	}
	return nil
}

// Play applies a combination from the participant whose turn it is.
func (m *Match) Play(id string, cards []Card) (TurnResult, error) {
	if err := m.checkTurn(id); err != nil {
		return TurnResult{}, err
	}
	p := m.Participants[id]
	if !ContainsAll(p.Hand, cards) {
		return TurnResult{}, ErrCardsNotInHand
	}
	if err := ValidateCombination(cards); err != nil {
		return TurnResult{}, err
	}

	played := append([]Card{}, cards...)
	hand := RemoveCards(p.Hand, played)
	if len(hand) != len(p.Hand)-len(played) {
		return TurnResult{}, &InvariantError{Op: "play", Detail: fmt.Sprintf("hand of %s shrank by %d, want %d", id, len(p.Hand)-len(hand), len(played))}
	}
	discard := append(append([]Card{}, m.Discard...), played...)

	piles := make([][]Card, 0, len(m.Order)+3)
	for _, pid := range m.Order {
		if pid == id {
			piles = append(piles, hand)
			continue
		}
		piles = append(piles, m.Participants[pid].Hand)
	}
	piles = append(piles, m.DrawPile, discard)
	if m.FaceUpOwner == "" {
		piles = append(piles, []Card{m.FaceUp})
	}
	if err := CheckConservation("play", piles...); err != nil {
		return TurnResult{}, err
	}

	p.Hand = hand
	m.Discard = discard
	m.LastPlay = played
	m.CurrentTurn = m.nextAfter(id)
	m.Seq++

	res := TurnResult{
		Actor:       id,
		LastPlay:    append([]Card{}, played...),
		Combination: IdentifyCombination(played).Type,
		CurrentTurn: m.CurrentTurn,
	}

	if len(p.Hand) == 0 {
		m.finish(id)
		res.Winner = m.Winner
		res.Scores = m.copyScores()
		res.Finished = true
	}
	return res, nil
}

// Pass gives up the turn without touching any hand.
func (m *Match) Pass(id string) (TurnResult, error) {
	if err := m.checkTurn(id); err != nil {
		return TurnResult{}, err
	}
	m.LastPlay = nil
	m.CurrentTurn = m.nextAfter(id)
	m.Seq++
	return TurnResult{Actor: id, CurrentTurn: m.CurrentTurn}, nil
}

func (m *Match) finish(winner string) {
	m.Winner = winner
	m.Scores = make(map[string]int, len(m.Order)-1)
	for _, id := range m.Order {
		if id == winner {
			continue
		}
		p := m.Participants[id]
		p.Score = len(p.Hand)
		m.Scores[id] = p.Score
	}
	m.Phase = PhaseFinished
}

func (m *Match) copyScores() map[string]int {
	if m.Scores == nil {
		return nil
	}
	out := make(map[string]int, len(m.Scores))
	for k, v := range m.Scores {
		out[k] = v
	}
	return out
}

// CheckInvariants verifies card conservation for a dealt match.
func (m *Match) CheckInvariants() error {
	if !m.Started() {
		return nil
	}
	return CheckConservation("check", m.accountedCards()...)
}

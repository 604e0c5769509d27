package app

import (
	"math/rand"
	"sync"

	"bigtwo/internal/domain"
)

// Room serializes every operation on one match behind its own mutex.
// The standalone server and the Nakama match handler both drive matches through it.
type Room struct {
	mu    sync.Mutex
	id    string
	match *domain.Match
}

// ReadyResult is returned by SetReady.
type ReadyResult struct {
	Ready      int
	Total      int
	ShowFaceUp bool // at least two participants are ready
}

// Summary is a lock-free copy of the room's lobby state.
type Summary struct {
	RoomID       string
	Phase        domain.Phase
	Participants int
	OpenSeats    int
}

func NewRoom(id string, rng *rand.Rand) *Room {
	return &Room{id: id, match: domain.NewMatch(id, rng)}
}

func (r *Room) ID() string { return r.id }

func (r *Room) Join(participantID, name string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.match.Join(participantID, name); err != nil {
		return nil, err
	}
	return []Event{r.roomUpdate()}, nil
}

// Leave frees a seat before the deal.
func (r *Room) Leave(participantID string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.match.Leave(participantID); err != nil {
		return nil, err
	}
	return []Event{r.roomUpdate()}, nil
}

func (r *Room) SetReady(participantID string) (ReadyResult, []Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ready, total, err := r.match.SetReady(participantID)
	if err != nil {
		return ReadyResult{}, nil, err
	}
	res := ReadyResult{Ready: ready, Total: total, ShowFaceUp: ready >= domain.MinParticipants}
	return res, []Event{r.roomUpdate()}, nil
}

// TryStart deals once everyone seated is ready. Each participant receives a
// private deal_cards event followed by a broadcast room_update.
func (r *Room) TryStart() (domain.StartResult, []Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, err := r.match.TryStart()
	if err != nil {
		return res, nil, err
	}

	events := make([]Event, 0, len(r.match.Order)+1)
	for _, id := range r.match.Order {
		events = append(events, Event{
			Kind: EventDealCards,
			Payload: DealCardsPayload{
				Hand:          res.Hands[id],
				FaceUpCard:    res.FaceUp,
				FaceUpOwner:   res.Recipient,
				CurrentPlayer: res.CurrentTurn,
				DrawPileSize:  len(r.match.DrawPile),
				Seq:           r.match.Seq,
			},
			Recipients: []string{id},
		})
	}
	events = append(events, r.roomUpdate())
	return res, events, nil
}

// Play submits cards for the participant. A rejected play yields a single
// play_error event addressed to the participant alongside the error.
func (r *Room) Play(participantID string, cards []domain.Card) (domain.TurnResult, []Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, err := r.match.Play(participantID, cards)
	if err != nil {
		return res, []Event{PlayErrorEvent(participantID, err)}, err
	}
	return res, []Event{r.gameUpdate(res)}, nil
}

// Pass gives up the turn. Rejections are reported like Play.
func (r *Room) Pass(participantID string) (domain.TurnResult, []Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, err := r.match.Pass(participantID)
	if err != nil {
		return res, []Event{PlayErrorEvent(participantID, err)}, err
	}
	return res, []Event{r.gameUpdate(res)}, nil
}

func (r *Room) View(participantID string) (domain.View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.match.View(participantID)
}

func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.match.Order)
	open := 0
	if r.match.Phase == domain.PhaseWaiting {
		open = domain.MaxParticipants - n
	}
	return Summary{RoomID: r.id, Phase: r.match.Phase, Participants: n, OpenSeats: open}
}

// Participants lists seated participant IDs in join order.
func (r *Room) Participants() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.match.Order...)
}

// CheckInvariants verifies card conservation under the room lock.
func (r *Room) CheckInvariants() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.match.CheckInvariants()
}

func (r *Room) roomUpdate() Event {
	ready, total := r.match.ReadyCounts()
	players := make([]RoomPlayer, 0, total)
	for _, id := range r.match.Order {
		p := r.match.Participants[id]
		players = append(players, RoomPlayer{ID: p.ID, Name: p.Name, Ready: p.Ready})
	}
	return Event{
		Kind: EventRoomUpdate,
		Payload: RoomUpdatePayload{
			RoomID:      r.id,
			Players:     players,
			Ready:       ready,
			Total:       total,
			GameStarted: r.match.Started(),
			Seq:         r.match.Seq,
		},
	}
}

func (r *Room) gameUpdate(res domain.TurnResult) Event {
	counts := make(map[string]int, len(r.match.Order))
	for _, id := range r.match.Order {
		counts[id] = len(r.match.Participants[id].Hand)
	}
	payload := GameUpdatePayload{
		Actor:         res.Actor,
		LastPlayed:    res.LastPlay,
		CurrentPlayer: res.CurrentTurn,
		CardCounts:    counts,
		Winner:        res.Winner,
		Scores:        res.Scores,
		Seq:           r.match.Seq,
	}
	if res.LastPlay != nil {
		payload.Combination = res.Combination.String()
	}
	return Event{Kind: EventGameUpdate, Payload: payload}
}

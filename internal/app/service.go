package app

import (
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"bigtwo/internal/domain"
)

// Service contains Big Two use-cases keyed by room ID.
type Service struct {
	rooms *Registry

	mu  sync.Mutex // guards rng
	rng *rand.Rand

	newID   func() string
	newCode func() string
}

// Seat identifies a participant in a room.
type Seat struct {
	RoomID        string
	ParticipantID string
}

// NewService constructs a Service with provided rng or a time-seeded default.
// Each room gets its own rng seeded from this one, so rooms never share a source.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Service{
		rooms: NewRegistry(),
		rng:   rng,
		newID: uuid.NewString,
	}
	s.newCode = s.randomRoomCode
	return s
}

// WithIDGenerator overrides how participant IDs are minted.
func (s *Service) WithIDGenerator(fn func() string) *Service {
	s.newID = fn
	return s
}

// WithRoomCodes overrides how room codes are picked for CreateMatch("").
func (s *Service) WithRoomCodes(fn func() string) *Service {
	s.newCode = fn
	return s
}

func (s *Service) Rooms() *Registry { return s.rooms }

// NewRoomRNG derives an independent rng for a room.
func (s *Service) NewRoomRNG() *rand.Rand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}

// CreateMatch opens a room and seats its creator. An empty roomID picks a free
// four-digit code, retrying when a concurrent create claims the same code.
func (s *Service) CreateMatch(roomID, creatorName string) (Seat, []Event, error) {
	if roomID != "" {
		return s.createRoom(roomID, creatorName)
	}
	for i := 0; i < maxRoomCodeAttempts; i++ {
		seat, events, err := s.createRoom(s.newCode(), creatorName)
		if errors.Is(err, ErrRoomAlreadyExists) {
			continue
		}
		return seat, events, err
	}
	return Seat{}, nil, ErrNoRoomCode
}

func (s *Service) createRoom(roomID, creatorName string) (Seat, []Event, error) {
	if s.rooms.Exists(roomID) {
		return Seat{}, nil, ErrRoomAlreadyExists
	}
	room := NewRoom(roomID, s.NewRoomRNG())
	pid := s.newID()
	events, err := room.Join(pid, creatorName)
	if err != nil {
		return Seat{}, nil, err
	}
	if err := s.rooms.Create(room); err != nil {
		return Seat{}, nil, err
	}
	return Seat{RoomID: roomID, ParticipantID: pid}, events, nil
}

// Join seats a participant. An empty participantID is minted by the service.
func (s *Service) Join(roomID, participantID, name string) (Seat, []Event, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return Seat{}, nil, err
	}
	if participantID == "" {
		participantID = s.newID()
	}
	events, err := room.Join(participantID, name)
	if err != nil {
		return Seat{}, nil, err
	}
	return Seat{RoomID: roomID, ParticipantID: participantID}, events, nil
}

func (s *Service) SetReady(roomID, participantID string) (ReadyResult, []Event, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return ReadyResult{}, nil, err
	}
	return room.SetReady(participantID)
}

func (s *Service) TryStart(roomID string) (domain.StartResult, []Event, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return domain.StartResult{}, nil, err
	}
	return room.TryStart()
}

func (s *Service) Play(roomID, participantID string, cards []domain.Card) (domain.TurnResult, []Event, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return domain.TurnResult{}, []Event{PlayErrorEvent(participantID, err)}, err
	}
	return room.Play(participantID, cards)
}

func (s *Service) Pass(roomID, participantID string) (domain.TurnResult, []Event, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return domain.TurnResult{}, []Event{PlayErrorEvent(participantID, err)}, err
	}
	return room.Pass(participantID)
}

func (s *Service) QueryState(roomID, participantID string) (domain.View, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return domain.View{}, err
	}
	return room.View(participantID)
}

// CloseRoom tears a room down.
func (s *Service) CloseRoom(roomID string) {
	s.rooms.Remove(roomID)
}

func (s *Service) randomRoomCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strconv.Itoa(RoomCodeMin + s.rng.Intn(RoomCodeMax-RoomCodeMin+1))
}

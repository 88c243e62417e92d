package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs unit tests and
// lets the engines run without a database or network transport attached.
type MemoryStore struct {
	mu           sync.Mutex
	participants map[int64]Participant
	state        GiveawayState
}

// NewMemoryStore returns an empty store in the undrawn state.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{participants: make(map[int64]Participant)}
}

// InsertParticipantIfAbsent registers the user once.
func (s *MemoryStore) InsertParticipantIfAbsent(_ context.Context, id int64, username string, joinedAt time.Time) (InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.participants[id]; ok {
		return InsertResult{Inserted: false, JoinedAt: existing.JoinedAt}, nil
	}
	s.participants[id] = Participant{UserID: id, Username: username, JoinedAt: joinedAt}
	return InsertResult{Inserted: true, JoinedAt: joinedAt}, nil
}

// GetParticipant returns the participant or nil when absent.
func (s *MemoryStore) GetParticipant(_ context.Context, id int64) (*Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.participants[id]; ok {
		cp := p
		return &cp, nil
	}
	return nil, nil
}

// CountParticipants returns the current participant total.
func (s *MemoryStore) CountParticipants(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants), nil
}

// ListParticipants returns participants ordered by joined_at ascending.
func (s *MemoryStore) ListParticipants(_ context.Context) ([]Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

// ParticipantIDs returns the id population ordered by user_id.
func (s *MemoryStore) ParticipantIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.participants))
	for id := range s.participants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// GiveawayState reads the singleton outcome record.
func (s *MemoryStore) GiveawayState(_ context.Context) (GiveawayState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotState(), nil
}

// SetWinner commits the winner at most once between resets.
func (s *MemoryStore) SetWinner(_ context.Context, id int64, drawnAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.WinnerID != nil {
		return ErrAlreadyDrawn
	}
	winner := id
	at := drawnAt
	s.state = GiveawayState{WinnerID: &winner, DrawnAt: &at}
	return nil
}

// Reset clears participants and the outcome together.
func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = make(map[int64]Participant)
	s.state = GiveawayState{}
	return nil
}

func (s *MemoryStore) snapshotState() GiveawayState {
	if s.state.WinnerID == nil {
		return GiveawayState{}
	}
	winner := *s.state.WinnerID
	at := *s.state.DrawnAt
	return GiveawayState{WinnerID: &winner, DrawnAt: &at}
}

var _ Store = (*MemoryStore)(nil)

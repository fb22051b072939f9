package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bird-quiz-service/internal/domain"
)

// Store is an in-memory implementation of the user and game repositories.
// It backs unit tests and the no-database demo mode.
type Store struct {
	mu         sync.RWMutex
	clock      func() time.Time
	users      map[int64]domain.User
	byUsername map[string]int64
	games      map[int64]gameRecord
	nextUserID int64
	nextGameID int64
}

type gameRecord struct {
	row     domain.GameRow
	answers []domain.Answer
}

func NewStore() *Store {
	return &Store{
		clock:      time.Now,
		users:      make(map[int64]domain.User),
		byUsername: make(map[string]int64),
		games:      make(map[int64]gameRecord),
	}
}

// NewStoreWithClock is test-only for deterministic timestamps.
func NewStoreWithClock(now func() time.Time) *Store {
	s := NewStore()
	s.clock = now
	return s
}

func (s *Store) GetOrCreate(_ context.Context, username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byUsername[username]; ok {
		return s.users[id], nil
	}
	s.nextUserID++
	user := domain.User{ID: s.nextUserID, Username: username, CreatedAt: s.clock()}
	s.users[user.ID] = user
	s.byUsername[username] = user.ID
	return user, nil
}

func (s *Store) Get(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) SaveGame(_ context.Context, userID int64, result domain.GameResult) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	s.nextGameID++
	row := domain.GameRow{
		ID:             s.nextGameID,
		UserID:         userID,
		Username:       user.Username,
		Config:         result.Config,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		TimeTaken:      result.TimeTaken,
		CreatedAt:      s.clock(),
	}
	answers := make([]domain.Answer, len(result.Answers))
	copy(answers, result.Answers)
	s.games[row.ID] = gameRecord{row: row, answers: answers}
	return row.ID, nil
}

func (s *Store) ListByUser(_ context.Context, userID int64) ([]domain.GameRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []domain.GameRow
	for _, rec := range s.games {
		if rec.row.UserID == userID {
			rows = append(rows, rec.row)
		}
	}
	// most recent first; insertion id as the stable secondary key
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})
	return rows, nil
}

func (s *Store) ListBySignature(_ context.Context, sig domain.ConfigSignature) ([]domain.GameRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []domain.GameRow
	for _, rec := range s.games {
		if rec.row.Config.Signature() == sig {
			rows = append(rows, rec.row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (s *Store) GetGame(_ context.Context, gameID int64) (domain.GameRow, []domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.games[gameID]
	if !ok {
		return domain.GameRow{}, nil, domain.ErrGameNotFound
	}
	answers := make([]domain.Answer, len(rec.answers))
	copy(answers, rec.answers)
	return rec.row, answers, nil
}

package app

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"bird-quiz-service/internal/domain"
	"bird-quiz-service/internal/leaderboard"
	"bird-quiz-service/internal/quiz"
)

// CatalogRepository reads the bird catalog (cached in front of the store).
type CatalogRepository interface {
	ListBirds(ctx context.Context) ([]domain.Bird, error)
	GetBird(ctx context.Context, id int64) (domain.Bird, error)
}

// UserRepository resolves players. Login is a bare-username upsert.
type UserRepository interface {
	GetOrCreate(ctx context.Context, username string) (domain.User, error)
	Get(ctx context.Context, id int64) (domain.User, error)
}

// GameRepository persists finished games and serves leaderboard and
// history reads.
type GameRepository interface {
	SaveGame(ctx context.Context, userID int64, result domain.GameResult) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.GameRow, error)
	ListBySignature(ctx context.Context, sig domain.ConfigSignature) ([]domain.GameRow, error)
	GetGame(ctx context.Context, gameID int64) (domain.GameRow, []domain.Answer, error)
}

// GameService contains the quiz use cases.
type GameService struct {
	catalog CatalogRepository
	games   GameRepository
	users   UserRepository
	seed    func() int64
}

func NewGameService(catalog CatalogRepository, games GameRepository, users UserRepository) *GameService {
	return &GameService{
		catalog: catalog,
		games:   games,
		users:   users,
		seed:    func() int64 { return time.Now().UnixNano() },
	}
}

// WithSeed pins the shuffle seed for deterministic question sets in tests.
func (s *GameService) WithSeed(seed int64) *GameService {
	s.seed = func() int64 { return seed }
	return s
}

// Login gets or creates the user for a bare username.
func (s *GameService) Login(ctx context.Context, username string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, domain.ErrUsernameRequired
	}
	return s.users.GetOrCreate(ctx, username)
}

// User resolves a player by id.
func (s *GameService) User(ctx context.Context, id int64) (domain.User, error) {
	return s.users.Get(ctx, id)
}

// Birds lists the full catalog.
func (s *GameService) Birds(ctx context.Context) ([]domain.Bird, error) {
	return s.catalog.ListBirds(ctx)
}

// Bird fetches one catalog entry.
func (s *GameService) Bird(ctx context.Context, id int64) (domain.Bird, error) {
	return s.catalog.GetBird(ctx, id)
}

// StartSession builds a shuffled question set for the config and returns a
// session in the Loading state, together with the catalog snapshot used
// (needed for suggestion lookups during play). The session is not started;
// the transport calls Begin once it is ready to receive events.
func (s *GameService) StartSession(ctx context.Context, cfg domain.GameConfig, opts ...quiz.Option) (*quiz.Session, []domain.Bird, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	birds, err := s.catalog.ListBirds(ctx)
	if err != nil {
		return nil, nil, err
	}
	rng := rand.New(rand.NewSource(s.seed()))
	questions, err := quiz.Build(birds, cfg, rng)
	if err != nil {
		return nil, nil, err
	}
	session, err := quiz.NewSession(questions, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return session, birds, nil
}

// SaveGame persists one finished result. Callers own the exactly-once
// guarantee: the live-play transport saves on its single finished event.
func (s *GameService) SaveGame(ctx context.Context, userID int64, result domain.GameResult) (int64, error) {
	return s.games.SaveGame(ctx, userID, result)
}

// History lists a player's games, most recent first.
func (s *GameService) History(ctx context.Context, userID int64) ([]domain.GameRow, error) {
	return s.games.ListByUser(ctx, userID)
}

// GameDetails returns one game and its answer ledger.
func (s *GameService) GameDetails(ctx context.Context, gameID int64) (domain.GameRow, []domain.Answer, error) {
	return s.games.GetGame(ctx, gameID)
}

// Leaderboard ranks the games comparable under the signature and windows
// them around the requesting player. An empty population yields an empty
// window, not an error.
func (s *GameService) Leaderboard(ctx context.Context, sig domain.ConfigSignature, userID int64) (domain.Leaderboard, error) {
	rows, err := s.games.ListBySignature(ctx, sig)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return leaderboard.Rank(rows, sig, userID), nil
}

// Suggest returns assisted-text completions for a partial response.
func (s *GameService) Suggest(ctx context.Context, guess domain.GuessType, partial string) ([]string, error) {
	birds, err := s.catalog.ListBirds(ctx)
	if err != nil {
		return nil, err
	}
	return quiz.Suggest(birds, guess, partial), nil
}

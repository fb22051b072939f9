package app_test

import (
	"context"
	"testing"
	"time"

	"bird-quiz-service/internal/app"
	"bird-quiz-service/internal/domain"
	"bird-quiz-service/internal/infra/memory"
	"bird-quiz-service/internal/quiz"
)

func testBirds() []domain.Bird {
	return []domain.Bird{
		{ID: 1, CommonName: "Red-tailed Hawk", ScientificName: "Buteo jamaicensis"},
		{ID: 2, CommonName: "Northern Cardinal", ScientificName: "Cardinalis cardinalis"},
		{ID: 3, CommonName: "Least Sandpiper", ScientificName: "Calidris minutilla"},
	}
}

func newTestService(birds []domain.Bird) (*app.GameService, *memory.Store) {
	store := memory.NewStore()
	catalog := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(birds), 5*time.Minute)
	return app.NewGameService(catalog, store, store).WithSeed(1), store
}

func playConfig() domain.GameConfig {
	return domain.GameConfig{
		Category:     "birds",
		QuestionType: domain.QuestionVisualOnly,
		OptionsType:  domain.OptionsTextStrict,
		GuessType:    domain.GuessCommonName,
		TimingType:   domain.TimingUnlimited,
	}
}

func TestLoginUpsertsByUsername(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(testBirds())

	alice, err := service.Login(ctx, "alice")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	again, err := service.Login(ctx, "  alice  ")
	if err != nil {
		t.Fatalf("login again: %v", err)
	}
	if alice.ID != again.ID {
		t.Fatalf("expected same user, got %d and %d", alice.ID, again.ID)
	}

	if _, err := service.Login(ctx, "   "); err != domain.ErrUsernameRequired {
		t.Fatalf("expected username error, got %v", err)
	}
}

func TestPlayThroughAndLeaderboard(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(testBirds())

	alice, err := service.Login(ctx, "alice")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	session, _, err := service.StartSession(ctx, playConfig())
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if err := session.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}

	for session.State() == quiz.StateActive {
		_, q, err := session.Current()
		if err != nil {
			t.Fatalf("current: %v", err)
		}
		if _, err := session.Submit(q.Bird.CommonName); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	result, err := session.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Score != 3 || result.TotalQuestions != 3 {
		t.Fatalf("expected a perfect 3/3, got %d/%d", result.Score, result.TotalQuestions)
	}

	gameID, err := service.SaveGame(ctx, alice.ID, result)
	if err != nil {
		t.Fatalf("save game: %v", err)
	}

	history, err := service.History(ctx, alice.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ID != gameID {
		t.Fatalf("expected the saved game in history, got %+v", history)
	}

	lb, err := service.Leaderboard(ctx, playConfig().Signature(), alice.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Rows) != 1 || lb.Rows[0].Rank != 1 || lb.Rows[0].Username != "alice" {
		t.Fatalf("expected alice ranked first, got %+v", lb)
	}
	if lb.UserRank == nil || *lb.UserRank != 1 {
		t.Fatalf("expected requester rank 1, got %v", lb.UserRank)
	}

	game, answers, err := service.GameDetails(ctx, gameID)
	if err != nil {
		t.Fatalf("game details: %v", err)
	}
	if game.Score != 3 || len(answers) != 3 {
		t.Fatalf("expected full ledger in details, got %+v", answers)
	}
}

func TestStartSessionValidation(t *testing.T) {
	ctx := context.Background()

	service, _ := newTestService(testBirds())
	bad := playConfig()
	bad.TimingType = domain.TimingTimed // missing time limit
	if _, _, err := service.StartSession(ctx, bad); err != domain.ErrInvalidConfig {
		t.Fatalf("expected config error, got %v", err)
	}

	empty, _ := newTestService(nil)
	if _, _, err := empty.StartSession(ctx, playConfig()); err != domain.ErrEmptyCatalog {
		t.Fatalf("expected empty catalog error, got %v", err)
	}
}

func TestLeaderboardEmptyPopulation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(testBirds())

	lb, err := service.Leaderboard(ctx, playConfig().Signature(), 42)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Rows) != 0 || lb.UserRank != nil {
		t.Fatalf("expected empty window, got %+v", lb)
	}
}

func TestSuggestThroughService(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(testBirds())

	values, err := service.Suggest(ctx, domain.GuessCommonName, "card")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(values) != 1 || values[0] != "Northern Cardinal" {
		t.Fatalf("expected cardinal suggestion, got %v", values)
	}
}

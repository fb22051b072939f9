package leaderboard

import (
	"testing"
	"time"

	"bird-quiz-service/internal/domain"
)

var base = time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC)

func sig() domain.ConfigSignature {
	return domain.ConfigSignature{
		Category:     "birds",
		QuestionType: domain.QuestionVisualOnly,
		OptionsType:  domain.OptionsMultipleChoice,
		GuessType:    domain.GuessCommonName,
		TimingType:   domain.TimingTimed,
	}
}

func row(id, userID int64, score, timeTaken int, createdOffset time.Duration) domain.GameRow {
	s := sig()
	return domain.GameRow{
		ID:       id,
		UserID:   userID,
		Username: "player",
		Config: domain.GameConfig{
			Category:     s.Category,
			QuestionType: s.QuestionType,
			OptionsType:  s.OptionsType,
			GuessType:    s.GuessType,
			TimingType:   s.TimingType,
			TimeLimit:    30,
		},
		Score:          score,
		TotalQuestions: 10,
		TimeTaken:      timeTaken,
		CreatedAt:      base.Add(createdOffset),
	}
}

func TestRankOrdering(t *testing.T) {
	games := []domain.GameRow{
		row(1, 100, 8, 120, 100*time.Second), // A
		row(2, 200, 8, 90, 50*time.Second),   // B: same score, faster
		row(3, 300, 9, 200, 10*time.Second),  // C: higher score dominates
	}

	lb := Rank(games, sig(), 100)

	if lb.TotalPlayers != 3 {
		t.Fatalf("expected 3 candidates, got %d", lb.TotalPlayers)
	}
	wantOrder := []int64{3, 2, 1}
	for i, want := range wantOrder {
		if lb.Rows[i].ID != want {
			t.Fatalf("position %d: expected game %d, got %d", i, want, lb.Rows[i].ID)
		}
		if lb.Rows[i].Rank != i+1 {
			t.Fatalf("position %d: expected dense rank %d, got %d", i, i+1, lb.Rows[i].Rank)
		}
	}
	if lb.UserRank == nil || *lb.UserRank != 3 {
		t.Fatalf("expected requester rank 3, got %v", lb.UserRank)
	}
}

func TestRankWindowsRequesterOutsideTopTen(t *testing.T) {
	var games []domain.GameRow
	for i := 0; i < 20; i++ {
		userID := int64(1000 + i)
		if i == 14 {
			userID = 42 // requester lands at rank 15
		}
		games = append(games, row(int64(i+1), userID, 100-i, 60, time.Duration(i)*time.Second))
	}

	lb := Rank(games, sig(), 42)

	if lb.TotalPlayers != 20 {
		t.Fatalf("expected 20 candidates, got %d", lb.TotalPlayers)
	}
	if len(lb.Rows) != 10 {
		t.Fatalf("expected 10-row window, got %d", len(lb.Rows))
	}
	for i := 0; i < 9; i++ {
		if lb.Rows[i].Rank != i+1 {
			t.Fatalf("window position %d: expected rank %d, got %d", i, i+1, lb.Rows[i].Rank)
		}
	}
	last := lb.Rows[9]
	if last.UserID != 42 || last.Rank != 15 {
		t.Fatalf("expected requester row rank 15 appended, got user %d rank %d", last.UserID, last.Rank)
	}
	if lb.UserRank == nil || *lb.UserRank != 15 {
		t.Fatalf("expected requester rank 15, got %v", lb.UserRank)
	}
}

func TestRankRequesterAbsent(t *testing.T) {
	var games []domain.GameRow
	for i := 0; i < 12; i++ {
		games = append(games, row(int64(i+1), int64(1000+i), 50-i, 60, time.Duration(i)*time.Second))
	}

	lb := Rank(games, sig(), 42)
	if lb.UserRank != nil {
		t.Fatalf("expected nil rank for absent requester, got %d", *lb.UserRank)
	}
	if len(lb.Rows) != 10 {
		t.Fatalf("expected top 10, got %d rows", len(lb.Rows))
	}
}

func TestRankSmallPopulation(t *testing.T) {
	games := []domain.GameRow{
		row(1, 100, 5, 60, 0),
		row(2, 200, 4, 60, time.Second),
	}
	lb := Rank(games, sig(), 200)
	if len(lb.Rows) != 2 || lb.TotalPlayers != 2 {
		t.Fatalf("expected both rows, got %+v", lb)
	}
	if lb.UserRank == nil || *lb.UserRank != 2 {
		t.Fatalf("expected rank 2, got %v", lb.UserRank)
	}
}

func TestRankFiltersBySignature(t *testing.T) {
	other := row(2, 200, 10, 10, 0)
	other.Config.OptionsType = domain.OptionsTextStrict

	lb := Rank([]domain.GameRow{row(1, 100, 5, 60, 0), other}, sig(), 100)
	if lb.TotalPlayers != 1 || len(lb.Rows) != 1 || lb.Rows[0].ID != 1 {
		t.Fatalf("expected only the matching config, got %+v", lb)
	}
}

func TestRankEmptyPopulation(t *testing.T) {
	lb := Rank(nil, sig(), 42)
	if len(lb.Rows) != 0 || lb.UserRank != nil || lb.TotalPlayers != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", lb)
	}
}

func TestRankExactTiesBrokenByInsertionOrder(t *testing.T) {
	games := []domain.GameRow{
		row(7, 100, 8, 90, time.Minute),
		row(3, 200, 8, 90, time.Minute), // identical score, time, timestamp
	}
	lb := Rank(games, sig(), 0)
	if lb.Rows[0].ID != 3 || lb.Rows[1].ID != 7 {
		t.Fatalf("expected earlier insertion first, got %d then %d", lb.Rows[0].ID, lb.Rows[1].ID)
	}
	if lb.Rows[0].Rank != 1 || lb.Rows[1].Rank != 2 {
		t.Fatalf("exact ties must still get distinct dense ranks, got %d and %d", lb.Rows[0].Rank, lb.Rows[1].Rank)
	}
}

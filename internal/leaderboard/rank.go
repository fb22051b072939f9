// Package leaderboard orders persisted games into a dense-ranked, windowed
// view. It is a pure read-only query over rows the store already loaded.
package leaderboard

import (
	"sort"

	"bird-quiz-service/internal/domain"
)

// WindowSize bounds the visible slice of the ranked population.
const WindowSize = 10

// Rank filters games to the requested configuration signature, totally
// orders them, assigns dense positional ranks, and windows the result so
// the requesting player's best game is always visible.
//
// The order is a single composite comparator: score descending, total time
// ascending, creation time ascending, then insertion id ascending. The last
// key keeps the order strict even when two games share a creation instant.
func Rank(games []domain.GameRow, filter domain.ConfigSignature, userID int64) domain.Leaderboard {
	candidates := make([]domain.GameRow, 0, len(games))
	for _, g := range games {
		if g.Config.Signature() == filter {
			candidates = append(candidates, g)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TimeTaken != b.TimeTaken {
			return a.TimeTaken < b.TimeTaken
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	ranked := make([]domain.LeaderboardRow, len(candidates))
	var userRow *domain.LeaderboardRow
	for i, g := range candidates {
		ranked[i] = domain.LeaderboardRow{GameRow: g, Rank: i + 1}
		if userRow == nil && g.UserID == userID {
			userRow = &ranked[i]
		}
	}

	lb := domain.Leaderboard{TotalPlayers: len(ranked)}
	if userRow != nil {
		rank := userRow.Rank
		lb.UserRank = &rank
	}

	switch {
	case userRow != nil && userRow.Rank > WindowSize:
		// Top nine plus the requester's own row appended; the window stays
		// ten rows but is not rank-contiguous.
		lb.Rows = append(append([]domain.LeaderboardRow{}, ranked[:WindowSize-1]...), *userRow)
	case len(ranked) > WindowSize:
		lb.Rows = ranked[:WindowSize]
	default:
		lb.Rows = ranked
	}
	return lb
}

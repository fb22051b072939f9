package domain

import (
	"strings"
	"time"
)

// User is an account identified by a bare username.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Bird is one catalog species. Records are owned by the catalog store and
// read-only everywhere else.
type Bird struct {
	ID                 int64  `json:"id"`
	CommonName         string `json:"common_name"`
	ScientificName     string `json:"scientific_name"`
	Family             string `json:"family,omitempty"`
	Order              string `json:"bird_order,omitempty"`
	Description        string `json:"description,omitempty"`
	ImageURL           string `json:"image_url,omitempty"`
	AudioURL           string `json:"audio_url,omitempty"`
	RangeMapURL        string `json:"range_map_url,omitempty"`
	Habitat            string `json:"habitat,omitempty"`
	Size               string `json:"size,omitempty"`
	Diet               string `json:"diet,omitempty"`
	ConservationStatus string `json:"conservation_status,omitempty"`
}

// Name returns the field the player is asked to guess.
func (b Bird) Name(guess GuessType) string {
	if guess == GuessScientificName {
		return b.ScientificName
	}
	return b.CommonName
}

type QuestionType string

const (
	QuestionAudioVisual QuestionType = "audio_visual"
	QuestionVisualOnly  QuestionType = "visual_only"
	QuestionAudioOnly   QuestionType = "audio_only"
)

type OptionsType string

const (
	OptionsMultipleChoice OptionsType = "multiple_choice"
	OptionsTextDropdown   OptionsType = "text_dropdown"
	OptionsTextStrict     OptionsType = "text_strict"
)

type GuessType string

const (
	GuessCommonName     GuessType = "common_name"
	GuessScientificName GuessType = "scientific_name"
)

type TimingType string

const (
	TimingUnlimited TimingType = "unlimited"
	TimingTimed     TimingType = "timed"
)

// GameConfig is the flat wire shape of a quiz configuration.
// TimeLimit is seconds per question and only meaningful when timed.
type GameConfig struct {
	Category     string       `json:"category"`
	QuestionType QuestionType `json:"question_type"`
	OptionsType  OptionsType  `json:"options_type"`
	GuessType    GuessType    `json:"guess_type"`
	TimingType   TimingType   `json:"timing_type"`
	TimeLimit    int          `json:"time_limit,omitempty"`
}

// Validate checks every enum field and the time limit.
func (c GameConfig) Validate() error {
	switch c.QuestionType {
	case QuestionAudioVisual, QuestionVisualOnly, QuestionAudioOnly:
	default:
		return ErrInvalidConfig
	}
	switch c.OptionsType {
	case OptionsMultipleChoice, OptionsTextDropdown, OptionsTextStrict:
	default:
		return ErrInvalidConfig
	}
	switch c.GuessType {
	case GuessCommonName, GuessScientificName:
	default:
		return ErrInvalidConfig
	}
	switch c.TimingType {
	case TimingUnlimited:
	case TimingTimed:
		if c.TimeLimit <= 0 {
			return ErrInvalidConfig
		}
	default:
		return ErrInvalidConfig
	}
	return nil
}

// ConfigSignature groups comparable games for ranking. The numeric time
// limit is deliberately excluded.
type ConfigSignature struct {
	Category     string       `json:"category"`
	QuestionType QuestionType `json:"question_type"`
	OptionsType  OptionsType  `json:"options_type"`
	GuessType    GuessType    `json:"guess_type"`
	TimingType   TimingType   `json:"timing_type"`
}

// Signature returns the leaderboard bucket for this config.
func (c GameConfig) Signature() ConfigSignature {
	return ConfigSignature{
		Category:     c.Category,
		QuestionType: c.QuestionType,
		OptionsType:  c.OptionsType,
		GuessType:    c.GuessType,
		TimingType:   c.TimingType,
	}
}

// Question pairs a bird with its shuffled answer options. Options is empty
// unless the config asks for multiple choice.
type Question struct {
	Bird    Bird     `json:"bird"`
	Options []string `json:"options,omitempty"`
}

// Answer is one immutable ledger entry. UserAnswer is nil only when the
// per-question countdown expired before a submission.
type Answer struct {
	BirdID        int64   `json:"bird_id"`
	UserAnswer    *string `json:"user_answer"`
	CorrectAnswer string  `json:"correct_answer"`
	Correct       bool    `json:"is_correct"`
	TimeTaken     int     `json:"time_taken"`
}

// GameResult is the summary emitted exactly once when a session finishes.
type GameResult struct {
	Config         GameConfig `json:"config"`
	Answers        []Answer   `json:"answers"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	TimeTaken      int        `json:"time_taken"`
}

// GameRow is a persisted game joined with its player, as the ranking
// engine consumes it. ID is the insertion sequence and doubles as the
// final tie-break key.
type GameRow struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Username       string     `json:"username"`
	Config         GameConfig `json:"config"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	TimeTaken      int        `json:"time_taken"`
	CreatedAt      time.Time  `json:"created_at"`
}

// LeaderboardRow is a ranked game. Rank is computed, never stored.
type LeaderboardRow struct {
	GameRow
	Rank int `json:"rank"`
}

// Leaderboard is the windowed view returned to one requesting player.
type Leaderboard struct {
	Rows         []LeaderboardRow `json:"leaderboard"`
	UserRank     *int             `json:"userRank"`
	TotalPlayers int              `json:"totalPlayers"`
}

// Normalize prepares a response for grading: trim plus case-fold. The same
// rule applies to strict and assisted text modes.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bird-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

// Store persists users and games through bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Username  string    `bun:"username,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type birdModel struct {
	bun.BaseModel `bun:"table:birds,alias:b"`

	ID                 int64  `bun:"id,pk,autoincrement"`
	CommonName         string `bun:"common_name,notnull"`
	ScientificName     string `bun:"scientific_name,notnull"`
	Family             string `bun:"family,nullzero"`
	Order              string `bun:"bird_order,nullzero"`
	Description        string `bun:"description,nullzero"`
	ImageURL           string `bun:"image_url,nullzero"`
	AudioURL           string `bun:"audio_url,nullzero"`
	RangeMapURL        string `bun:"range_map_url,nullzero"`
	Habitat            string `bun:"habitat,nullzero"`
	Size               string `bun:"size,nullzero"`
	Diet               string `bun:"diet,nullzero"`
	ConservationStatus string `bun:"conservation_status,nullzero"`
}

type gameModel struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID             int64     `bun:"id,pk,autoincrement"`
	UserID         int64     `bun:"user_id,notnull"`
	Category       string    `bun:"category,notnull"`
	QuestionType   string    `bun:"question_type,notnull"`
	OptionsType    string    `bun:"options_type,notnull"`
	GuessType      string    `bun:"guess_type,notnull"`
	TimingType     string    `bun:"timing_type,notnull"`
	TimeLimit      int       `bun:"time_limit"`
	Score          int       `bun:"score,notnull"`
	TotalQuestions int       `bun:"total_questions,notnull"`
	TimeTaken      int       `bun:"time_taken,notnull"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`

	Username string `bun:"username,scanonly"`
}

type gameAnswerModel struct {
	bun.BaseModel `bun:"table:game_answers,alias:ga"`

	ID            int64   `bun:"id,pk,autoincrement"`
	GameID        int64   `bun:"game_id,notnull"`
	BirdID        int64   `bun:"bird_id,notnull"`
	UserAnswer    *string `bun:"user_answer"`
	CorrectAnswer string  `bun:"correct_answer,notnull"`
	IsCorrect     bool    `bun:"is_correct"`
	TimeTaken     int     `bun:"time_taken"`
}

func (s *Store) GetOrCreate(ctx context.Context, username string) (domain.User, error) {
	u := &userModel{Username: username}
	_, err := s.db.NewInsert().
		Model(u).
		On("CONFLICT (username) DO UPDATE").
		Set("username = EXCLUDED.username").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return domain.User{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}, nil
}

func (s *Store) Get(ctx context.Context, id int64) (domain.User, error) {
	u := new(userModel)
	err := s.db.NewSelect().Model(u).Where("u.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return domain.User{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}, nil
}

// SaveGame inserts the game and its answer ledger in one transaction.
func (s *Store) SaveGame(ctx context.Context, userID int64, result domain.GameResult) (int64, error) {
	game := &gameModel{
		UserID:         userID,
		Category:       result.Config.Category,
		QuestionType:   string(result.Config.QuestionType),
		OptionsType:    string(result.Config.OptionsType),
		GuessType:      string(result.Config.GuessType),
		TimingType:     string(result.Config.TimingType),
		TimeLimit:      result.Config.TimeLimit,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		TimeTaken:      result.TimeTaken,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(game).Returning("id, created_at").Exec(ctx); err != nil {
			return fmt.Errorf("insert game: %w", err)
		}
		if len(result.Answers) == 0 {
			return nil
		}
		answers := make([]gameAnswerModel, len(result.Answers))
		for i, a := range result.Answers {
			answers[i] = gameAnswerModel{
				GameID:        game.ID,
				BirdID:        a.BirdID,
				UserAnswer:    a.UserAnswer,
				CorrectAnswer: a.CorrectAnswer,
				IsCorrect:     a.Correct,
				TimeTaken:     a.TimeTaken,
			}
		}
		if _, err := tx.NewInsert().Model(&answers).Exec(ctx); err != nil {
			return fmt.Errorf("insert answers: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return game.ID, nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]domain.GameRow, error) {
	var models []gameModel
	err := s.db.NewSelect().
		Model(&models).
		ColumnExpr("g.*").
		ColumnExpr("u.username AS username").
		Join("JOIN users AS u ON u.id = g.user_id").
		Where("g.user_id = ?", userID).
		OrderExpr("g.created_at DESC, g.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return toRows(models), nil
}

func (s *Store) ListBySignature(ctx context.Context, sig domain.ConfigSignature) ([]domain.GameRow, error) {
	var models []gameModel
	err := s.db.NewSelect().
		Model(&models).
		ColumnExpr("g.*").
		ColumnExpr("u.username AS username").
		Join("JOIN users AS u ON u.id = g.user_id").
		Where("g.category = ?", sig.Category).
		Where("g.question_type = ?", string(sig.QuestionType)).
		Where("g.options_type = ?", string(sig.OptionsType)).
		Where("g.guess_type = ?", string(sig.GuessType)).
		Where("g.timing_type = ?", string(sig.TimingType)).
		OrderExpr("g.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games by signature: %w", err)
	}
	return toRows(models), nil
}

func (s *Store) GetGame(ctx context.Context, gameID int64) (domain.GameRow, []domain.Answer, error) {
	game := new(gameModel)
	err := s.db.NewSelect().
		Model(game).
		ColumnExpr("g.*").
		ColumnExpr("u.username AS username").
		Join("JOIN users AS u ON u.id = g.user_id").
		Where("g.id = ?", gameID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameRow{}, nil, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.GameRow{}, nil, fmt.Errorf("load game: %w", err)
	}

	var answerModels []gameAnswerModel
	if err := s.db.NewSelect().
		Model(&answerModels).
		Where("ga.game_id = ?", gameID).
		OrderExpr("ga.id ASC").
		Scan(ctx); err != nil {
		return domain.GameRow{}, nil, fmt.Errorf("load answers: %w", err)
	}

	answers := make([]domain.Answer, len(answerModels))
	for i, a := range answerModels {
		answers[i] = domain.Answer{
			BirdID:        a.BirdID,
			UserAnswer:    a.UserAnswer,
			CorrectAnswer: a.CorrectAnswer,
			Correct:       a.IsCorrect,
			TimeTaken:     a.TimeTaken,
		}
	}
	return toRow(*game), answers, nil
}

// SeedBirds upserts catalog entries keyed by scientific name. Used by the
// seed CLI subcommand.
func (s *Store) SeedBirds(ctx context.Context, birds []domain.Bird) error {
	if len(birds) == 0 {
		return nil
	}
	models := make([]birdModel, len(birds))
	for i, b := range birds {
		models[i] = birdModel{
			CommonName:         b.CommonName,
			ScientificName:     b.ScientificName,
			Family:             b.Family,
			Order:              b.Order,
			Description:        b.Description,
			ImageURL:           b.ImageURL,
			AudioURL:           b.AudioURL,
			RangeMapURL:        b.RangeMapURL,
			Habitat:            b.Habitat,
			Size:               b.Size,
			Diet:               b.Diet,
			ConservationStatus: b.ConservationStatus,
		}
	}
	_, err := s.db.NewInsert().
		Model(&models).
		On("CONFLICT (scientific_name) DO UPDATE").
		Set("common_name = EXCLUDED.common_name").
		Set("image_url = EXCLUDED.image_url").
		Set("audio_url = EXCLUDED.audio_url").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seed birds: %w", err)
	}
	return nil
}

func toRows(models []gameModel) []domain.GameRow {
	rows := make([]domain.GameRow, len(models))
	for i, m := range models {
		rows[i] = toRow(m)
	}
	return rows
}

func toRow(m gameModel) domain.GameRow {
	return domain.GameRow{
		ID:       m.ID,
		UserID:   m.UserID,
		Username: m.Username,
		Config: domain.GameConfig{
			Category:     m.Category,
			QuestionType: domain.QuestionType(m.QuestionType),
			OptionsType:  domain.OptionsType(m.OptionsType),
			GuessType:    domain.GuessType(m.GuessType),
			TimingType:   domain.TimingType(m.TimingType),
			TimeLimit:    m.TimeLimit,
		},
		Score:          m.Score,
		TotalQuestions: m.TotalQuestions,
		TimeTaken:      m.TimeTaken,
		CreatedAt:      m.CreatedAt,
	}
}

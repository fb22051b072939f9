// Package http exposes the REST API and the WebSocket live-play endpoint.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bird-quiz-service/internal/app"
	"bird-quiz-service/internal/domain"
)

type Handler struct {
	service *app.GameService
}

// NewRouter wires every endpoint onto one mux.
func NewRouter(service *app.GameService) http.Handler {
	h := &Handler{service: service}
	play := NewPlayHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("GET /api/birds", h.handleBirds)
	mux.HandleFunc("GET /api/birds/{id}", h.handleBird)
	mux.HandleFunc("POST /api/games", h.handleSaveGame)
	mux.HandleFunc("GET /api/users/{id}/games", h.handleHistory)
	mux.HandleFunc("GET /api/games/{id}/details", h.handleGameDetails)
	mux.HandleFunc("GET /api/leaderboard", h.handleLeaderboard)
	mux.HandleFunc("GET /api/suggestions", h.handleSuggestions)
	mux.HandleFunc("GET /ws/play", play.ServePlay)
	return mux
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	user, err := h.service.Login(r.Context(), req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) handleBirds(w http.ResponseWriter, r *http.Request) {
	birds, err := h.service.Birds(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"birds": birds})
}

func (h *Handler) handleBird(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid bird id"})
		return
	}
	bird, err := h.service.Bird(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bird": bird})
}

type saveGameRequest struct {
	UserID         int64           `json:"user_id"`
	Category       string          `json:"category"`
	QuestionType   string          `json:"question_type"`
	OptionsType    string          `json:"options_type"`
	GuessType      string          `json:"guess_type"`
	TimingType     string          `json:"timing_type"`
	TimeLimit      int             `json:"time_limit"`
	Score          int             `json:"score"`
	TotalQuestions int             `json:"total_questions"`
	TimeTaken      int             `json:"time_taken"`
	Answers        []domain.Answer `json:"answers"`
}

func (h *Handler) handleSaveGame(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req saveGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	cfg := domain.GameConfig{
		Category:     req.Category,
		QuestionType: domain.QuestionType(req.QuestionType),
		OptionsType:  domain.OptionsType(req.OptionsType),
		GuessType:    domain.GuessType(req.GuessType),
		TimingType:   domain.TimingType(req.TimingType),
		TimeLimit:    req.TimeLimit,
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, err)
		return
	}
	gameID, err := h.service.SaveGame(r.Context(), req.UserID, domain.GameResult{
		Config:         cfg,
		Answers:        req.Answers,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		TimeTaken:      req.TimeTaken,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gameId": gameID, "message": "Game saved successfully"})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}
	games, err := h.service.History(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

func (h *Handler) handleGameDetails(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid game id"})
		return
	}
	game, answers, err := h.service.GameDetails(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"game": game, "answers": answers})
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sig := domain.ConfigSignature{
		Category:     q.Get("category"),
		QuestionType: domain.QuestionType(q.Get("question_type")),
		OptionsType:  domain.OptionsType(q.Get("options_type")),
		GuessType:    domain.GuessType(q.Get("guess_type")),
		TimingType:   domain.TimingType(q.Get("timing_type")),
	}
	userID, _ := strconv.ParseInt(q.Get("user_id"), 10, 64)
	lb, err := h.service.Leaderboard(r.Context(), sig, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	guess := domain.GuessType(r.URL.Query().Get("guess_type"))
	if guess != domain.GuessCommonName && guess != domain.GuessScientificName {
		guess = domain.GuessCommonName
	}
	values, err := h.service.Suggest(r.Context(), guess, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": values})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUsernameRequired), errors.Is(err, domain.ErrInvalidConfig):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrBirdNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrGameNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

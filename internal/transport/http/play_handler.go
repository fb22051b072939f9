package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"bird-quiz-service/internal/app"
	"bird-quiz-service/internal/domain"
	"bird-quiz-service/internal/quiz"
	"github.com/gorilla/websocket"
)

// PlayHandler drives a live quiz session over a WebSocket. The server owns
// the state machine: it pushes question events (including timer-forced
// advances), grades answers, and persists the game exactly once on finish.
type PlayHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewPlayHandler(service *app.GameService) *PlayHandler {
	return &PlayHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type suggestPayload struct {
	Partial string `json:"partial"`
}

type questionPayload struct {
	Index     int      `json:"index"`
	Total     int      `json:"total"`
	BirdID    int64    `json:"bird_id"`
	ImageURL  string   `json:"image_url,omitempty"`
	AudioURL  string   `json:"audio_url,omitempty"`
	Options   []string `json:"options,omitempty"`
	TimeLimit int      `json:"time_limit,omitempty"`
}

type answerResultPayload struct {
	domain.Answer
	TimedOut bool `json:"timed_out"`
}

type finishedPayload struct {
	GameID      int64              `json:"game_id"`
	Result      domain.GameResult  `json:"result"`
	Leaderboard domain.Leaderboard `json:"leaderboard"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServePlay upgrades the request and runs one session to completion.
// Query params: user_id plus the flat config fields.
func (h *PlayHandler) ServePlay(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid user_id", http.StatusBadRequest)
		return
	}
	cfg := configFromQuery(r)

	user, err := h.service.User(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, birds, err := h.service.StartSession(r.Context(), cfg)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer session.Abandon()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go h.pumpEvents(r.Context(), session, cfg, user, send, closeSignals, eventsDone)

	if err := session.Begin(); err != nil {
		h.trySend(send, closeSignals, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	} else {
	readLoop:
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				break readLoop
			}
			switch inbound.Type {
			case "answer":
				var payload answerPayload
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					h.trySend(send, closeSignals, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
					continue
				}
				if _, err := session.Submit(payload.Answer); err != nil {
					h.trySend(send, closeSignals, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				}
			case "suggest":
				var payload suggestPayload
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					h.trySend(send, closeSignals, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid suggest payload"}})
					continue
				}
				// Served from the session's catalog snapshot so completions stay
				// consistent with the questions being asked.
				values := quiz.Suggest(birds, cfg.GuessType, payload.Partial)
				h.trySend(send, closeSignals, outboundMessage[any]{Type: "suggestions", Payload: values})
			default:
				h.trySend(send, closeSignals, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
			}
		}
	}

	session.Abandon()
	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

// pumpEvents forwards session transitions to the client and persists the
// result on the single finished event.
func (h *PlayHandler) pumpEvents(ctx context.Context, session *quiz.Session, cfg domain.GameConfig, user domain.User, send chan<- outboundMessage[any], closeSignals <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for ev := range session.Events() {
		if ev.Answer != nil {
			h.trySend(send, closeSignals, outboundMessage[any]{Type: "answer_result", Payload: answerResultPayload{
				Answer:   *ev.Answer,
				TimedOut: ev.TimedOut,
			}})
		}
		switch ev.Type {
		case quiz.EventQuestion:
			h.trySend(send, closeSignals, outboundMessage[any]{Type: "question", Payload: h.questionView(ev, cfg, session.TotalQuestions())})
		case quiz.EventFinished:
			gameID, err := h.service.SaveGame(ctx, user.ID, *ev.Result)
			if err != nil {
				log.Printf("save game for user %d: %v", user.ID, err)
				h.trySend(send, closeSignals, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "failed to save game"}})
				return
			}
			lb, err := h.service.Leaderboard(ctx, cfg.Signature(), user.ID)
			if err != nil {
				log.Printf("leaderboard for user %d: %v", user.ID, err)
				lb = domain.Leaderboard{}
			}
			h.trySend(send, closeSignals, outboundMessage[any]{Type: "finished", Payload: finishedPayload{
				GameID:      gameID,
				Result:      *ev.Result,
				Leaderboard: lb,
			}})
			return
		}
	}
}

// questionView shapes a question for the wire without leaking the answer:
// names are stripped, only the asset URLs the question mode needs remain.
// Assets load client-side and never block submission.
func (h *PlayHandler) questionView(ev quiz.Event, cfg domain.GameConfig, total int) questionPayload {
	p := questionPayload{
		Index:   ev.Index,
		Total:   total,
		BirdID:  ev.Question.Bird.ID,
		Options: ev.Question.Options,
	}
	if cfg.QuestionType != domain.QuestionAudioOnly {
		p.ImageURL = ev.Question.Bird.ImageURL
	}
	if cfg.QuestionType != domain.QuestionVisualOnly {
		p.AudioURL = ev.Question.Bird.AudioURL
	}
	if cfg.TimingType == domain.TimingTimed {
		p.TimeLimit = cfg.TimeLimit
	}
	return p
}

func (h *PlayHandler) trySend(send chan<- outboundMessage[any], closeSignals <-chan struct{}, msg outboundMessage[any]) {
	select {
	case send <- msg:
	case <-closeSignals:
	}
}

func configFromQuery(r *http.Request) domain.GameConfig {
	q := r.URL.Query()
	timeLimit, _ := strconv.Atoi(q.Get("time_limit"))
	return domain.GameConfig{
		Category:     q.Get("category"),
		QuestionType: domain.QuestionType(q.Get("question_type")),
		OptionsType:  domain.OptionsType(q.Get("options_type")),
		GuessType:    domain.GuessType(q.Get("guess_type")),
		TimingType:   domain.TimingType(q.Get("timing_type")),
		TimeLimit:    timeLimit,
	}
}

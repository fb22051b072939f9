package quiz

import (
	"sync"
	"time"

	"bird-quiz-service/internal/domain"
)

// State is the session lifecycle phase. Transitions only move forward.
type State int

const (
	StateLoading State = iota
	StateActive
	StateFinished
	StateAbandoned
)

type EventType string

const (
	// EventQuestion announces entry into a question.
	EventQuestion EventType = "question"
	// EventFinished carries the final result, exactly once.
	EventFinished EventType = "finished"
)

// Event is published on every state transition so transports can follow
// timer-driven advances they did not initiate.
type Event struct {
	Type     EventType
	Index    int
	Question domain.Question
	// Answer is the record that closed the previous question; nil on the
	// first question event.
	Answer   *domain.Answer
	TimedOut bool
	Result   *domain.GameResult
}

// Session drives one playthrough of a question sequence. All mutations --
// user submissions and timer expiries -- are serialized under one mutex,
// and the armed countdown is disarmed on every transition so a stale timer
// can never fire against an advanced question index.
type Session struct {
	mu        sync.Mutex
	cfg       domain.GameConfig
	questions []domain.Question
	state     State
	index     int
	ledger    []domain.Answer
	startedAt time.Time
	timer     *time.Timer
	now       func() time.Time
	timeout   time.Duration
	events    chan Event
	result    *domain.GameResult
}

// Option customizes a session, mainly for deterministic tests.
type Option func(*Session)

// WithClock replaces the wall clock used for elapsed-time accounting.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithQuestionTimeout overrides the countdown derived from the config's
// time limit. The recorded elapsed seconds still report the configured
// limit on expiry.
func WithQuestionTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// NewSession creates a session in the Loading state.
func NewSession(questions []domain.Question, cfg domain.GameConfig, opts ...Option) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	s := &Session{
		cfg:       cfg,
		questions: questions,
		state:     StateLoading,
		ledger:    make([]domain.Answer, 0, len(questions)),
		now:       time.Now,
		events:    make(chan Event, len(questions)+1),
	}
	if cfg.TimingType == domain.TimingTimed {
		s.timeout = time.Duration(cfg.TimeLimit) * time.Second
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Events exposes the transition stream. The channel is closed after the
// finished event, or on abandonment.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State reports the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TotalQuestions is fixed at creation.
func (s *Session) TotalQuestions() int {
	return len(s.questions)
}

// Begin transitions Loading -> Active(0) and arms the first countdown.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		return domain.ErrInvalidTransition
	}
	s.state = StateActive
	s.enterQuestionLocked(nil, false)
	return nil
}

// Current returns the active question index and question.
func (s *Session) Current() (int, domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return 0, domain.Question{}, domain.ErrInvalidTransition
	}
	return s.index, s.questions[s.index], nil
}

// Submit grades a response against the active question and advances.
// Grading is exact-match after trim and case-fold, for every answer mode.
// Valid exactly once per question; any later call fails.
func (s *Session) Submit(response string) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return domain.Answer{}, domain.ErrInvalidTransition
	}
	s.disarmLocked()

	elapsed := int(s.now().Sub(s.startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	expected := s.questions[s.index].Bird.Name(s.cfg.GuessType)
	answer := response
	record := domain.Answer{
		BirdID:        s.questions[s.index].Bird.ID,
		UserAnswer:    &answer,
		CorrectAnswer: expected,
		Correct:       domain.Normalize(response) == domain.Normalize(expected),
		TimeTaken:     elapsed,
	}
	s.ledger = append(s.ledger, record)
	s.advanceLocked(record, false)
	return record, nil
}

// expire is the countdown callback. It force-submits a nil response unless
// the question already advanced (stale timer) or the session ended.
func (s *Session) expire(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || s.index != index {
		return
	}
	s.timer = nil

	expected := s.questions[s.index].Bird.Name(s.cfg.GuessType)
	record := domain.Answer{
		BirdID:        s.questions[s.index].Bird.ID,
		UserAnswer:    nil,
		CorrectAnswer: expected,
		Correct:       false,
		TimeTaken:     s.cfg.TimeLimit,
	}
	s.ledger = append(s.ledger, record)
	s.advanceLocked(record, true)
}

// Abandon drops the session: the countdown is disarmed and nothing is ever
// persisted. Safe to call at any point, including after Finished.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinished || s.state == StateAbandoned {
		return
	}
	s.disarmLocked()
	s.state = StateAbandoned
	close(s.events)
}

// Result returns the summary once the session has finished.
func (s *Session) Result() (domain.GameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFinished {
		return domain.GameResult{}, domain.ErrInvalidTransition
	}
	return *s.result, nil
}

func (s *Session) advanceLocked(record domain.Answer, timedOut bool) {
	s.index++
	if s.index == len(s.questions) {
		s.finishLocked(record, timedOut)
		return
	}
	s.enterQuestionLocked(&record, timedOut)
}

func (s *Session) enterQuestionLocked(closed *domain.Answer, timedOut bool) {
	s.startedAt = s.now()
	if s.timeout > 0 {
		index := s.index
		s.timer = time.AfterFunc(s.timeout, func() { s.expire(index) })
	}
	s.emitLocked(Event{
		Type:     EventQuestion,
		Index:    s.index,
		Question: s.questions[s.index],
		Answer:   closed,
		TimedOut: timedOut,
	})
}

func (s *Session) finishLocked(record domain.Answer, timedOut bool) {
	s.state = StateFinished
	score := 0
	total := 0
	for _, a := range s.ledger {
		if a.Correct {
			score++
		}
		total += a.TimeTaken
	}
	s.result = &domain.GameResult{
		Config:         s.cfg,
		Answers:        s.ledger,
		Score:          score,
		TotalQuestions: len(s.questions),
		TimeTaken:      total,
	}
	s.emitLocked(Event{
		Type:     EventFinished,
		Index:    s.index,
		Answer:   &record,
		TimedOut: timedOut,
		Result:   s.result,
	})
	close(s.events)
}

func (s *Session) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// emitLocked never blocks: the channel is sized for one event per question
// plus the finished event.
func (s *Session) emitLocked(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

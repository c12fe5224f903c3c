package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/wordmaster/internal/progress"
	sr "github.com/example/wordmaster/internal/spaced_repetition"
	"github.com/example/wordmaster/pkg/models"
)

// State of a test session
type State string

const (
	NotStarted State = "not_started"
	InProgress State = "in_progress"
	Completed  State = "completed"
)

// Storage is the part of the storage collaborator tests need
type Storage interface {
	progress.ProfileStore
	PutTestResult(ctx context.Context, result models.TestResult) error
}

// Corpus provides the words questions are built from
type Corpus interface {
	AllWords() []models.VocabularyEntry
}

// Config holds the tuning constants of tests
type Config struct {
	// Проходной балл по уровням, в процентах
	PassThresholds map[models.Level]float64

	// Диапазон сложности слов для каждого уровня
	LevelBands map[models.Level]sr.Band

	ExperiencePerPoint int
}

// DefaultConfig returns the default test configuration
func DefaultConfig() Config {
	return Config{
		PassThresholds: map[models.Level]float64{
			models.Beginner:     70,
			models.Intermediate: 75,
			models.Advanced:     80,
			models.Master:       85,
		},
		LevelBands: map[models.Level]sr.Band{
			models.Beginner:     {Min: 1, Max: 4},
			models.Intermediate: {Min: 3, Max: 6},
			models.Advanced:     {Min: 5, Max: 8},
			models.Master:       {Min: 7, Max: 10},
		},
		ExperiencePerPoint: 5,
	}
}

// Answer fills one question slot of a test
type Answer struct {
	QuestionID string    `json:"question_id,omitempty"`
	Answer     string    `json:"answer"`
	IsCorrect  bool      `json:"is_correct"`
	TimeUsedMs int64     `json:"time_used_ms"`
	AnsweredAt time.Time `json:"answered_at"`
	Answered   bool      `json:"answered"`
}

// Session is a snapshot of a test. Snapshots never alias the manager's state.
type Session struct {
	ID           string                `json:"id"`
	LearnerID    string                `json:"learner_id"`
	Level        models.Level          `json:"level"`
	State        State                 `json:"state"`
	Questions    []models.TestQuestion `json:"questions"`
	Answers      []Answer              `json:"answers"`
	CurrentIndex int                   `json:"current_index"`
	Requested    int                   `json:"requested"`
	Partial      bool                  `json:"partial"` // fewer questions than requested
	Paused       bool                  `json:"paused"`
	PausedMs     int64                 `json:"paused_ms"` // excluded from the time spent
	StartedAt    time.Time             `json:"started_at"`
	EndedAt      time.Time             `json:"ended_at"`
	Score        int                   `json:"score"`
	MaxScore     int                   `json:"max_score"`
	Accuracy     float64               `json:"accuracy"`
	Passed       bool                  `json:"passed"`
	WeakAreas    []string              `json:"weak_areas"`
}

func (s Session) clone() Session {
	c := s
	c.Questions = make([]models.TestQuestion, len(s.Questions))
	for i, q := range s.Questions {
		q.Options = append([]string(nil), q.Options...)
		c.Questions[i] = q
	}
	c.Answers = append([]Answer(nil), s.Answers...)
	c.WeakAreas = append([]string(nil), s.WeakAreas...)
	return c
}

// Feedback is returned for every answered question
type Feedback struct {
	QuestionID    string  `json:"question_id"`
	Correct       bool    `json:"correct"`
	CorrectAnswer string  `json:"correct_answer"`
	Session       Session `json:"session"`
}

// Summary is returned when a test ends
type Summary struct {
	Session          Session           `json:"session"`
	Result           models.TestResult `json:"result"`
	ExperienceGained int               `json:"experience_gained"`
	Achievements     []string          `json:"achievements"`
}

// Deps are the collaborators of a Manager
type Deps struct {
	Store  Storage
	Corpus Corpus
	Rand   Rand
	Rules  progress.Rules
	Now    func() time.Time
	Logger *slog.Logger
}

// Manager runs one learner's tests. It is not safe for concurrent use.
type Manager struct {
	learnerID string
	store     Storage
	corpus    Corpus
	selector  *sr.Selector
	synth     *Synthesizer
	rules     progress.Rules
	cfg       Config
	now       func() time.Time
	log       *slog.Logger

	state    State
	test     Session
	pausedAt time.Time
}

// NewManager creates a test manager for learnerID
func NewManager(learnerID string, deps Deps, cfg Config) *Manager {
	rnd := deps.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		learnerID: learnerID,
		store:     deps.Store,
		corpus:    deps.Corpus,
		selector:  sr.NewSelector(rnd),
		synth:     NewSynthesizer(rnd),
		rules:     deps.Rules,
		cfg:       cfg,
		now:       now,
		log:       logger.With("learner", learnerID, "component", "test"),
		state:     NotStarted,
	}
}

// State returns the current state
func (m *Manager) State() State {
	return m.state
}

// Snapshot returns a copy of the current or last test. ok is false before the
// first test starts.
func (m *Manager) Snapshot() (Session, bool) {
	if m.state == NotStarted {
		return Session{}, false
	}
	return m.snapshot(), true
}

func (m *Manager) snapshot() Session {
	s := m.test.clone()
	s.State = m.state
	if m.state == InProgress {
		s.Score = correctCount(s.Answers)
	}
	return s
}

// Start synthesizes up to count questions from the level's difficulty band.
// A short corpus yields a partial test; no question at all is an error.
func (m *Manager) Start(level models.Level, count int) (Session, error) {
	if m.state == InProgress {
		return Session{}, models.ErrSessionActive
	}
	if count <= 0 {
		return Session{}, fmt.Errorf("%w: question count must be positive, got %d", models.ErrValidation, count)
	}
	band, ok := m.cfg.LevelBands[level]
	if !ok {
		return Session{}, fmt.Errorf("%w: unknown level %q", models.ErrValidation, level)
	}

	now := m.now()
	all := m.corpus.AllWords()
	if len(all) == 0 {
		return Session{}, fmt.Errorf("%w: empty corpus", models.ErrValidation)
	}

	ids, err := m.selector.Select(sr.FilterByBand(all, band), sr.Test, count, nil, now)
	if err != nil {
		return Session{}, err
	}
	if len(ids) == 0 {
		return Session{}, fmt.Errorf("%w: %w: no words in difficulty %d-%d for level %s",
			models.ErrValidation, models.ErrExhausted, band.Min, band.Max, level)
	}

	byID := make(map[string]models.VocabularyEntry, len(all))
	for _, w := range all {
		byID[w.ID] = w
	}
	words := make([]models.VocabularyEntry, 0, len(ids))
	for _, id := range ids {
		words = append(words, byID[id])
	}

	questions, err := m.synth.GenerateSet(words, all)
	if err != nil {
		return Session{}, err
	}

	m.test = Session{
		ID:        uuid.NewString(),
		LearnerID: m.learnerID,
		Level:     level,
		Questions: questions,
		Answers:   make([]Answer, len(questions)),
		Requested: count,
		Partial:   len(questions) < count,
		StartedAt: now,
		MaxScore:  len(questions),
	}
	m.state = InProgress

	m.log.Info("test started", "test", m.test.ID, "level", level, "questions", len(questions), "requested", count)
	return m.snapshot(), nil
}

func (m *Manager) active() error {
	if m.state != InProgress {
		return models.ErrNoActiveSession
	}
	if m.test.Paused {
		return fmt.Errorf("%w: test is paused", models.ErrValidation)
	}
	return nil
}

func (m *Manager) questionIndex(questionID string) (int, error) {
	for i, q := range m.test.Questions {
		if q.ID == questionID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: unknown question %q", models.ErrValidation, questionID)
}

// Answer fills or overwrites a question's answer slot. The answer is judged
// by case-insensitive comparison after trimming whitespace.
func (m *Manager) Answer(questionID, answer string, timeUsed time.Duration) (Feedback, error) {
	if err := m.active(); err != nil {
		return Feedback{}, err
	}
	if timeUsed < 0 {
		return Feedback{}, fmt.Errorf("%w: negative time used", models.ErrValidation)
	}
	i, err := m.questionIndex(questionID)
	if err != nil {
		return Feedback{}, err
	}

	q := m.test.Questions[i]
	correct := IsCorrect(answer, q.CorrectAnswer)
	m.test.Answers[i] = Answer{
		QuestionID: questionID,
		Answer:     answer,
		IsCorrect:  correct,
		TimeUsedMs: timeUsed.Milliseconds(),
		AnsweredAt: m.now(),
		Answered:   true,
	}

	return Feedback{
		QuestionID:    questionID,
		Correct:       correct,
		CorrectAnswer: q.CorrectAnswer,
		Session:       m.snapshot(),
	}, nil
}

// Expire submits the selected answer (possibly blank) of a question whose
// time ran out, charging the full time limit.
func (m *Manager) Expire(questionID, selected string) (Feedback, error) {
	if err := m.active(); err != nil {
		return Feedback{}, err
	}
	i, err := m.questionIndex(questionID)
	if err != nil {
		return Feedback{}, err
	}
	limit := time.Duration(m.test.Questions[i].TimeLimitSec) * time.Second
	return m.Answer(questionID, selected, limit)
}

// Navigate moves the current question by delta, clamped to the question list
func (m *Manager) Navigate(delta int) (Session, error) {
	if err := m.active(); err != nil {
		return Session{}, err
	}
	idx := m.test.CurrentIndex + delta
	if idx < 0 {
		idx = 0
	}
	if last := len(m.test.Questions) - 1; idx > last {
		idx = last
	}
	m.test.CurrentIndex = idx
	return m.snapshot(), nil
}

// Pause stops answering and navigation until Resume
func (m *Manager) Pause() (Session, error) {
	if m.state != InProgress {
		return Session{}, models.ErrNoActiveSession
	}
	if !m.test.Paused {
		m.test.Paused = true
		m.pausedAt = m.now()
	}
	return m.snapshot(), nil
}

// Resume continues a paused test
func (m *Manager) Resume() (Session, error) {
	if m.state != InProgress {
		return Session{}, models.ErrNoActiveSession
	}
	m.unpause(m.now())
	return m.snapshot(), nil
}

func (m *Manager) unpause(now time.Time) {
	if !m.test.Paused {
		return
	}
	m.test.Paused = false
	if d := now.Sub(m.pausedAt); d > 0 {
		m.test.PausedMs += d.Milliseconds()
	}
}

// End completes the test, stores its result and awards experience when
// passed. The test is completed even if storage fails; the error is returned
// alongside the summary.
func (m *Manager) End(ctx context.Context) (Summary, error) {
	if m.state != InProgress {
		return Summary{}, models.ErrNoActiveSession
	}

	now := m.now()
	t := &m.test
	t.EndedAt = now
	m.unpause(now)
	t.Score = correctCount(t.Answers)

	answered := answeredCount(t.Answers)
	if answered > 0 {
		t.Accuracy = float64(t.Score) / float64(answered) * 100
	}
	t.Passed = t.Accuracy >= m.cfg.PassThresholds[t.Level]
	t.WeakAreas = WeakAreas(t.Questions, t.Answers)
	m.state = Completed

	result := models.TestResult{
		ID:          uuid.NewString(),
		LearnerID:   m.learnerID,
		TestID:      t.ID,
		Level:       t.Level,
		Score:       t.Score,
		MaxScore:    t.MaxScore,
		Accuracy:    t.Accuracy,
		TimeSpentMs: now.Sub(t.StartedAt).Milliseconds() - t.PausedMs,
		Passed:      t.Passed,
		CompletedAt: now,
		WeakAreas:   append([]string(nil), t.WeakAreas...),
	}

	summary := Summary{Result: result, Achievements: []string{}}
	if t.Passed {
		summary.ExperienceGained = t.Score * m.cfg.ExperiencePerPoint
	}

	var errs []error
	if err := m.store.PutTestResult(ctx, result); err != nil {
		m.log.Warn("failed to save test result", "test", t.ID, "error", err)
		errs = append(errs, fmt.Errorf("%w: save test result: %w", models.ErrPersistence, err))
	}

	_, unlocked, err := m.rules.Update(ctx, m.store, m.learnerID, now, func(p *models.Profile) []string {
		return m.rules.AddExperience(p, summary.ExperienceGained)
	})
	if err != nil {
		m.log.Warn("failed to update profile", "test", t.ID, "error", err)
		errs = append(errs, err)
	}
	summary.Achievements = append(summary.Achievements, unlocked...)
	summary.Session = m.snapshot()

	m.log.Info("test completed", "test", t.ID, "score", t.Score, "max", t.MaxScore,
		"accuracy", t.Accuracy, "passed", t.Passed, "experience", summary.ExperienceGained)
	return summary, errors.Join(errs...)
}

// IsCorrect compares an answer with the expected one ignoring case and
// surrounding whitespace.
func IsCorrect(answer, expected string) bool {
	return strings.ToLower(strings.TrimSpace(answer)) == strings.ToLower(strings.TrimSpace(expected))
}

func correctCount(answers []Answer) int {
	n := 0
	for _, a := range answers {
		if a.Answered && a.IsCorrect {
			n++
		}
	}
	return n
}

func answeredCount(answers []Answer) int {
	n := 0
	for _, a := range answers {
		if a.Answered {
			n++
		}
	}
	return n
}

// Package study runs learn and review sessions: it picks words, applies the
// mastery model to every answer and folds the session into the learner's
// profile when it ends.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"github.com/example/wordmaster/internal/adaptive"
	"github.com/example/wordmaster/internal/progress"
	sr "github.com/example/wordmaster/internal/spaced_repetition"
	"github.com/example/wordmaster/pkg/models"
)

// State of a study session
type State string

const (
	Idle   State = "idle"
	Active State = "active"
	Ended  State = "ended"
)

// Storage is the part of the storage collaborator study sessions need
type Storage interface {
	progress.ProfileStore
	GetRecord(ctx context.Context, learnerID, wordID string) (*models.StudyRecord, error)
	PutRecord(ctx context.Context, record models.StudyRecord) error
	GetRecordsByLearner(ctx context.Context, learnerID string) ([]models.StudyRecord, error)
}

// Corpus provides the words sessions draw from
type Corpus interface {
	AllWords() []models.VocabularyEntry
}

// Config holds the experience awards of study sessions
type Config struct {
	// Опыт за каждый ответ
	CorrectExperience   int
	IncorrectExperience int

	// Опыт за сессию: слова * WordExperience + верные * CorrectBonus
	WordExperience int
	CorrectBonus   int
}

// DefaultConfig returns the default study configuration
func DefaultConfig() Config {
	return Config{
		CorrectExperience:   10,
		IncorrectExperience: 5,
		WordExperience:      10,
		CorrectBonus:        5,
	}
}

// Session is a snapshot of a study session
type Session struct {
	ID         string    `json:"id"`
	LearnerID  string    `json:"learner_id"`
	Mode       sr.Mode   `json:"mode"`
	State      State     `json:"state"`
	Plan       []string  `json:"plan"`  // selected word ids
	Words      []string  `json:"words"` // studied word ids, first answer order
	Answers    int       `json:"answers"`
	Correct    int       `json:"correct"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	Experience int       `json:"experience"` // awarded per answer so far
	Band       sr.Band   `json:"band"`
	Requested  int       `json:"requested"`
	Partial    bool      `json:"partial"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

func (s Session) clone() Session {
	c := s
	c.Plan = append([]string(nil), s.Plan...)
	c.Words = append([]string(nil), s.Words...)
	return c
}

// Remaining returns planned words not answered yet, in plan order
func (s Session) Remaining() []string {
	done := make(map[string]bool, len(s.Words))
	for _, id := range s.Words {
		done[id] = true
	}
	var left []string
	for _, id := range s.Plan {
		if !done[id] {
			left = append(left, id)
		}
	}
	return left
}

// Feedback is returned for every answered word
type Feedback struct {
	WordID           string             `json:"word_id"`
	Correct          bool               `json:"correct"`
	Record           models.StudyRecord `json:"record"`
	Experience       int                `json:"experience"`
	Hint             bool               `json:"hint"`
	TargetDifficulty int                `json:"target_difficulty"`
	Session          Session            `json:"session"`
	Summary          *Summary           `json:"summary,omitempty"` // set when the answer finished the plan
}

// Summary is returned when a session ends
type Summary struct {
	Session      Session  `json:"session"`
	Experience   int      `json:"experience"`
	Accuracy     float64  `json:"accuracy"`
	Aborted      bool     `json:"aborted"`
	Achievements []string `json:"achievements"`
	LevelUp      bool     `json:"level_up"`
}

// Deps are the collaborators of a Manager
type Deps struct {
	Store     Storage
	Corpus    Corpus
	Model     *sr.MasteryModel
	Estimator *adaptive.Estimator
	Rand      sr.Rand
	Rules     progress.Rules
	Now       func() time.Time
	Logger    *slog.Logger
}

// Manager runs one learner's study sessions. It is not safe for concurrent use.
type Manager struct {
	learnerID string
	store     Storage
	corpus    Corpus
	model     *sr.MasteryModel
	estimator *adaptive.Estimator
	selector  *sr.Selector
	rules     progress.Rules
	cfg       Config
	now       func() time.Time
	log       *slog.Logger

	state   State
	session Session
	words   map[string]models.VocabularyEntry
}

// NewManager creates a study manager for learnerID
func NewManager(learnerID string, deps Deps, cfg Config) *Manager {
	model := deps.Model
	if model == nil {
		model = sr.NewMasteryModel()
	}
	estimator := deps.Estimator
	if estimator == nil {
		estimator = adaptive.New(adaptive.DefaultConfig())
	}
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
		model:     model,
		estimator: estimator,
		selector:  sr.NewSelector(rnd),
		rules:     deps.Rules,
		cfg:       cfg,
		now:       now,
		log:       logger.With("learner", learnerID, "component", "study"),
		state:     Idle,
	}
}

// State returns the current state
func (m *Manager) State() State {
	return m.state
}

// Snapshot returns a copy of the current or last session. ok is false
// before the first session starts.
func (m *Manager) Snapshot() (Session, bool) {
	if m.state == Idle {
		return Session{}, false
	}
	return m.snapshot(), true
}

func (m *Manager) snapshot() Session {
	s := m.session.clone()
	s.State = m.state
	return s
}

// Start selects up to count words and opens a session. Learn sessions draw
// from the estimator's difficulty band; review sessions take every due word.
// A short pool yields a partial plan; an empty one ends the session at once.
func (m *Manager) Start(ctx context.Context, mode sr.Mode, count int) (Session, error) {
	if m.state == Active {
		return Session{}, models.ErrSessionActive
	}
	if mode != sr.Learn && mode != sr.Review {
		return Session{}, fmt.Errorf("%w: unknown session mode %q", models.ErrValidation, mode)
	}
	if count <= 0 {
		return Session{}, fmt.Errorf("%w: word count must be positive, got %d", models.ErrValidation, count)
	}
	all := m.corpus.AllWords()
	if len(all) == 0 {
		return Session{}, fmt.Errorf("%w: empty corpus", models.ErrValidation)
	}

	records, err := m.store.GetRecordsByLearner(ctx, m.learnerID)
	if err != nil {
		m.log.Warn("failed to load study records", "error", err)
		return Session{}, fmt.Errorf("%w: load records: %w", models.ErrPersistence, err)
	}
	history := make(map[string]models.StudyRecord, len(records))
	for _, r := range records {
		history[r.WordID] = r
	}

	lo, hi := m.estimator.Band()
	band := sr.Band{Min: lo, Max: hi}
	var pool []string
	if mode == sr.Learn {
		pool = sr.FilterByBand(all, band)
	} else {
		pool = make([]string, 0, len(all))
		for _, w := range all {
			pool = append(pool, w.ID)
		}
	}

	now := m.now()
	plan, err := m.selector.Select(pool, mode, count, history, now)
	if err != nil {
		return Session{}, err
	}

	m.words = make(map[string]models.VocabularyEntry, len(plan))
	for _, w := range all {
		m.words[w.ID] = w
	}
	m.session = Session{
		ID:        shortuuid.New(),
		LearnerID: m.learnerID,
		Mode:      mode,
		Plan:      plan,
		Words:     []string{},
		Band:      band,
		Requested: count,
		Partial:   len(plan) < count,
		StartedAt: now,
	}
	m.state = Active

	m.log.Info("study session started", "session", m.session.ID, "mode", mode, "words", len(plan), "band", fmt.Sprintf("%d-%d", lo, hi))
	if len(plan) == 0 {
		// nothing to study, the session is over before it began
		summary, err := m.finish(ctx, false)
		return summary.Session, err
	}
	return m.snapshot(), nil
}

func (m *Manager) planned(wordID string) bool {
	for _, id := range m.session.Plan {
		if id == wordID {
			return true
		}
	}
	return false
}

// Answer records the learner's answer for a planned word. The updated study
// record is stored before the session accumulators change; a storage
// failure is returned but does not undo the accumulators. The session ends
// on its own once every planned word has been answered.
func (m *Manager) Answer(ctx context.Context, wordID string, isCorrect bool, latency time.Duration) (Feedback, error) {
	if m.state != Active {
		return Feedback{}, models.ErrNoActiveSession
	}
	if latency < 0 {
		return Feedback{}, fmt.Errorf("%w: negative latency", models.ErrValidation)
	}
	if !m.planned(wordID) {
		return Feedback{}, fmt.Errorf("%w: word %q is not part of this session", models.ErrValidation, wordID)
	}

	now := m.now()
	var errs []error

	prev, err := m.store.GetRecord(ctx, m.learnerID, wordID)
	var rec models.StudyRecord
	if err != nil {
		m.log.Warn("failed to load study record", "word", wordID, "error", err)
		errs = append(errs, fmt.Errorf("%w: load record: %w", models.ErrPersistence, err))
		rec = m.model.Review(nil, m.learnerID, wordID, isCorrect, latency, now)
	} else {
		rec = m.model.Review(prev, m.learnerID, wordID, isCorrect, latency, now)
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if err := m.store.PutRecord(ctx, rec); err != nil {
			m.log.Warn("failed to save study record", "word", wordID, "error", err)
			errs = append(errs, fmt.Errorf("%w: save record: %w", models.ErrPersistence, err))
		}
	}

	s := &m.session
	if !contains(s.Words, wordID) {
		s.Words = append(s.Words, wordID)
	}
	s.Answers++
	if isCorrect {
		s.Correct++
	}
	s.ElapsedMs += latency.Milliseconds()

	exp := m.cfg.IncorrectExperience
	if isCorrect {
		exp = m.cfg.CorrectExperience
	}
	s.Experience += exp

	m.estimator.RecordOutcome(isCorrect, latency, m.words[wordID].Difficulty)

	_, _, err = m.rules.Update(ctx, m.store, m.learnerID, now, func(p *models.Profile) []string {
		correct := 0
		if isCorrect {
			correct = 1
		}
		m.rules.RecordAnswers(p, 1, correct)
		return m.rules.AddExperience(p, exp)
	})
	if err != nil {
		m.log.Warn("failed to update profile", "word", wordID, "error", err)
		errs = append(errs, err)
	}

	fb := Feedback{
		WordID:           wordID,
		Correct:          isCorrect,
		Record:           rec,
		Experience:       exp,
		Hint:             m.estimator.ShouldOfferHint(),
		TargetDifficulty: m.estimator.TargetDifficulty(),
	}

	if len(s.Remaining()) == 0 {
		summary, err := m.finish(ctx, false)
		if err != nil {
			errs = append(errs, err)
		}
		fb.Summary = &summary
	}
	fb.Session = m.snapshot()
	return fb, errors.Join(errs...)
}

// End closes the session and applies its experience to the profile
func (m *Manager) End(ctx context.Context) (Summary, error) {
	if m.state != Active {
		return Summary{}, models.ErrNoActiveSession
	}
	return m.finish(ctx, false)
}

// Abort stops the session early. Records saved so far stay valid and the
// session is folded into the profile like a normal end.
func (m *Manager) Abort(ctx context.Context) (Summary, error) {
	if m.state != Active {
		return Summary{}, models.ErrNoActiveSession
	}
	return m.finish(ctx, true)
}

func (m *Manager) finish(ctx context.Context, aborted bool) (Summary, error) {
	now := m.now()
	s := &m.session
	s.EndedAt = now
	m.state = Ended

	summary := Summary{
		Experience:   len(s.Words)*m.cfg.WordExperience + s.Correct*m.cfg.CorrectBonus,
		Aborted:      aborted,
		Achievements: []string{},
	}
	if s.Answers > 0 {
		summary.Accuracy = float64(s.Correct) / float64(s.Answers) * 100
	}

	var err error
	if len(s.Words) > 0 {
		var before, after models.Profile
		after, summary.Achievements, err = m.rules.Update(ctx, m.store, m.learnerID, now, func(p *models.Profile) []string {
			before = *p
			p.Statistics.TotalWordsStudied += len(s.Words)
			p.Statistics.TotalStudyTimeMs += s.ElapsedMs
			return m.rules.AddExperience(p, summary.Experience)
		})
		summary.LevelUp = after.Level > before.Level
		if err != nil {
			m.log.Warn("failed to update profile", "session", s.ID, "error", err)
		}
	}
	if summary.Achievements == nil {
		summary.Achievements = []string{}
	}
	summary.Session = m.snapshot()

	m.log.Info("study session ended", "session", s.ID, "words", len(s.Words), "correct", s.Correct,
		"experience", summary.Experience, "aborted", aborted)
	return summary, err
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Package trainer composes the study, test and progress services of one
// learner and serializes access to them.
package trainer

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/example/wordmaster/internal/adaptive"
	"github.com/example/wordmaster/internal/progress"
	"github.com/example/wordmaster/internal/quiz"
	sr "github.com/example/wordmaster/internal/spaced_repetition"
	"github.com/example/wordmaster/internal/study"
	"github.com/example/wordmaster/pkg/models"
)

// Store is the full storage collaborator
type Store interface {
	study.Storage
	quiz.Storage
	progress.Store
	DeleteLearnerData(ctx context.Context, learnerID string) error
}

// Corpus is the read-only word source
type Corpus interface {
	AllWords() []models.VocabularyEntry
	Get(id string) (models.VocabularyEntry, bool)
}

// Options configure new trainers
type Options struct {
	Study    study.Config
	Quiz     quiz.Config
	Adaptive adaptive.Config
	Rules    progress.Rules
	Model    *sr.MasteryModel

	// NewRand returns the randomness source of a learner; nil seeds from time
	NewRand func(learnerID string) sr.Rand
	Now     func() time.Time
	Logger  *slog.Logger
}

// DefaultOptions returns options with every package default
func DefaultOptions() Options {
	return Options{
		Study:    study.DefaultConfig(),
		Quiz:     quiz.DefaultConfig(),
		Adaptive: adaptive.DefaultConfig(),
		Rules:    progress.DefaultRules(),
		Model:    sr.NewMasteryModel(),
	}
}

// Difficulty is the estimator's current view of a learner
type Difficulty struct {
	Target  int     `json:"target"`
	Band    sr.Band `json:"band"`
	Hint    bool    `json:"hint"`
	Samples int     `json:"samples"`
}

// Trainer owns one learner's sessions. All methods are safe for concurrent use.
type Trainer struct {
	mu sync.Mutex

	learnerID string
	store     Store
	estimator *adaptive.Estimator
	study     *study.Manager
	tests     *quiz.Manager
	progress  *progress.Aggregator
	rules     progress.Rules
	now       func() time.Time
	log       *slog.Logger
}

// New creates the trainer of learnerID
func New(learnerID string, store Store, corpus Corpus, opts Options) *Trainer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var rnd sr.Rand
	if opts.NewRand != nil {
		rnd = opts.NewRand(learnerID)
	} else {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	estimator := adaptive.New(opts.Adaptive)
	return &Trainer{
		learnerID: learnerID,
		store:     store,
		estimator: estimator,
		study: study.NewManager(learnerID, study.Deps{
			Store:     store,
			Corpus:    corpus,
			Model:     opts.Model,
			Estimator: estimator,
			Rand:      rnd,
			Rules:     opts.Rules,
			Now:       now,
			Logger:    logger,
		}, opts.Study),
		tests: quiz.NewManager(learnerID, quiz.Deps{
			Store:  store,
			Corpus: corpus,
			Rand:   rnd,
			Rules:  opts.Rules,
			Now:    now,
			Logger: logger,
		}, opts.Quiz),
		progress: progress.NewAggregator(store, corpus, opts.Rules),
		rules:    opts.Rules,
		now:      now,
		log:      logger.With("learner", learnerID),
	}
}

// LearnerID returns the learner the trainer belongs to
func (t *Trainer) LearnerID() string {
	return t.learnerID
}

// Busy reports whether a study session or test is running, or a call is
// in progress.
func (t *Trainer) Busy() bool {
	if !t.mu.TryLock() {
		return true
	}
	defer t.mu.Unlock()
	return t.study.State() == study.Active || t.tests.State() == quiz.InProgress
}

// StartSession starts a learn or review session
func (t *Trainer) StartSession(ctx context.Context, mode sr.Mode, count int) (study.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.study.Start(ctx, mode, count)
}

// AnswerWord records an answer in the running study session
func (t *Trainer) AnswerWord(ctx context.Context, wordID string, correct bool, latency time.Duration) (study.Feedback, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.study.Answer(ctx, wordID, correct, latency)
}

// EndSession ends the running study session
func (t *Trainer) EndSession(ctx context.Context) (study.Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.study.End(ctx)
}

// AbortSession stops the running study session early
func (t *Trainer) AbortSession(ctx context.Context) (study.Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.study.Abort(ctx)
}

// CurrentSession returns the current or last study session
func (t *Trainer) CurrentSession() (study.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.study.Snapshot()
}

// StartTest starts a test of count questions
func (t *Trainer) StartTest(level models.Level, count int) (quiz.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tests.Start(level, count)
}

// AnswerQuestion fills a question's answer slot
func (t *Trainer) AnswerQuestion(questionID, answer string, timeUsed time.Duration) (quiz.Feedback, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tests.Answer(questionID, answer, timeUsed)
}

// NavigateQuestion moves the current question by delta
func (t *Trainer) NavigateQuestion(delta int) (quiz.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tests.Navigate(delta)
}

// ExpireQuestion submits a question whose timer ran out
func (t *Trainer) ExpireQuestion(questionID, selected string) (quiz.Feedback, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tests.Expire(questionID, selected)
}

// PauseTest pauses the running test
func (t *Trainer) PauseTest() (quiz.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tests.Pause()
}

// ResumeTest resumes a paused test
func (t *Trainer) ResumeTest() (quiz.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tests.Resume()
}

// EndTest completes the running test
func (t *Trainer) EndTest(ctx context.Context) (quiz.Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tests.End(ctx)
}

// CurrentTest returns the current or last test
func (t *Trainer) CurrentTest() (quiz.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tests.Snapshot()
}

// Difficulty reports the adaptive difficulty state
func (t *Trainer) Difficulty() Difficulty {
	t.mu.Lock()
	defer t.mu.Unlock()
	lo, hi := t.estimator.Band()
	return Difficulty{
		Target:  t.estimator.TargetDifficulty(),
		Band:    sr.Band{Min: lo, Max: hi},
		Hint:    t.estimator.ShouldOfferHint(),
		Samples: t.estimator.Len(),
	}
}

// Profile returns the stored profile or a fresh one when the learner has
// none yet. The fresh profile is not stored.
func (t *Trainer) Profile(ctx context.Context) (models.Profile, error) {
	p, err := t.store.GetLearnerProfile(ctx, t.learnerID)
	if err != nil {
		return models.Profile{}, wrapPersistence("load profile", err)
	}
	if p == nil {
		return t.rules.NewProfile(t.learnerID, t.now()), nil
	}
	return *p, nil
}

// Progress returns the read-side aggregator
func (t *Trainer) Progress() *progress.Aggregator {
	return t.progress
}

// Now returns the trainer's clock reading
func (t *Trainer) Now() time.Time {
	return t.now()
}

// Reset deletes all study records and test results of the learner and
// clears the difficulty window. It is refused while a session or test runs.
func (t *Trainer) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.study.State() == study.Active || t.tests.State() == quiz.InProgress {
		return models.ErrSessionActive
	}
	if err := t.store.DeleteLearnerData(ctx, t.learnerID); err != nil {
		t.log.Warn("failed to reset learner", "error", err)
		return wrapPersistence("reset learner", err)
	}
	t.estimator.Reset()
	t.log.Info("learner progress reset")
	return nil
}

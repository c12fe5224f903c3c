package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordmaster/internal/progress"
	"github.com/example/wordmaster/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type fakeStore struct {
	profiles  map[string]models.Profile
	results   []models.TestResult
	resultErr error
	profErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[string]models.Profile)}
}

func (f *fakeStore) GetLearnerProfile(_ context.Context, id string) (*models.Profile, error) {
	if f.profErr != nil {
		return nil, f.profErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeStore) PutLearnerProfile(_ context.Context, p models.Profile) error {
	if f.profErr != nil {
		return f.profErr
	}
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeStore) PutTestResult(_ context.Context, r models.TestResult) error {
	if f.resultErr != nil {
		return f.resultErr
	}
	f.results = append(f.results, r)
	return nil
}

type sliceCorpus []models.VocabularyEntry

func (c sliceCorpus) AllWords() []models.VocabularyEntry { return c }

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newManager(t *testing.T, words []models.VocabularyEntry) (*Manager, *fakeStore, *clock) {
	t.Helper()
	store := newFakeStore()
	clk := &clock{now: t0}
	m := NewManager("alice", Deps{
		Store:  store,
		Corpus: sliceCorpus(words),
		Rand:   seeded(7),
		Rules:  progress.DefaultRules(),
		Now:    clk.Now,
	}, DefaultConfig())
	return m, store, clk
}

func TestStartTest(t *testing.T) {
	words := append(testCorpus(10, 4), testCorpus(3, 9)...)
	for i := 10; i < 13; i++ {
		words[i].ID = words[i].ID + "_hard"
	}
	m, _, _ := newManager(t, words)
	assert.Equal(t, NotStarted, m.State())

	s, err := m.Start(models.Intermediate, 6)
	require.NoError(t, err)
	assert.Equal(t, InProgress, s.State)
	assert.Len(t, s.Questions, 6)
	assert.Len(t, s.Answers, 6)
	assert.False(t, s.Partial)
	assert.Equal(t, t0, s.StartedAt)
	for _, q := range s.Questions {
		assert.Equal(t, 4, q.Difficulty)
	}

	_, err = m.Start(models.Intermediate, 6)
	assert.ErrorIs(t, err, models.ErrSessionActive)
}

func TestStartTestPartialAndExhausted(t *testing.T) {
	m, _, _ := newManager(t, testCorpus(3, 2))

	s, err := m.Start(models.Beginner, 10)
	require.NoError(t, err)
	assert.True(t, s.Partial)
	assert.Len(t, s.Questions, 3)
	assert.Equal(t, 10, s.Requested)

	m2, _, _ := newManager(t, testCorpus(3, 2))
	_, err = m2.Start(models.Master, 5)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.ErrorIs(t, err, models.ErrExhausted)
	assert.Equal(t, NotStarted, m2.State())
}

func TestStartTestValidation(t *testing.T) {
	m, _, _ := newManager(t, testCorpus(3, 2))

	_, err := m.Start(models.Level("expert"), 5)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = m.Start(models.Beginner, 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	empty, _, _ := newManager(t, nil)
	_, err = empty.Start(models.Beginner, 5)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestIntermediateBoundaryPasses(t *testing.T) {
	m, store, clk := newManager(t, testCorpus(25, 4))

	s, err := m.Start(models.Intermediate, 20)
	require.NoError(t, err)
	require.Len(t, s.Questions, 20)

	for i, q := range s.Questions {
		answer := "wrong"
		if i < 15 {
			answer = "  " + q.CorrectAnswer + " "
		}
		_, err := m.Answer(q.ID, answer, 2*time.Second)
		require.NoError(t, err)
	}

	clk.now = t0.Add(5 * time.Minute)
	summary, err := m.End(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 15, summary.Result.Score)
	assert.Equal(t, 20, summary.Result.MaxScore)
	assert.InDelta(t, 75.0, summary.Result.Accuracy, 1e-9)
	assert.True(t, summary.Result.Passed)
	assert.Equal(t, 75, summary.ExperienceGained)
	assert.Equal(t, int64(5*60*1000), summary.Result.TimeSpentMs)
	assert.Equal(t, Completed, summary.Session.State)
	assert.Equal(t, Completed, m.State())

	require.Len(t, store.results, 1)
	assert.Equal(t, s.ID, store.results[0].TestID)
	assert.Equal(t, 75, store.profiles["alice"].Experience)
}

func TestFailedTestAwardsNoExperience(t *testing.T) {
	m, store, _ := newManager(t, testCorpus(6, 2))

	s, err := m.Start(models.Beginner, 6)
	require.NoError(t, err)
	for _, q := range s.Questions {
		_, err := m.Answer(q.ID, "nope", time.Second)
		require.NoError(t, err)
	}

	summary, err := m.End(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Result.Passed)
	assert.Zero(t, summary.ExperienceGained)
	assert.ElementsMatch(t, []string{TagVocabularyMeaning, TagSpelling, TagContextUsage}, summary.Result.WeakAreas)
	assert.NotContains(t, summary.Result.WeakAreas, TagTimeManagement)
	assert.Zero(t, store.profiles["alice"].Experience)
}

func TestAnswerOverwriteAndFeedback(t *testing.T) {
	m, _, _ := newManager(t, testCorpus(4, 2))
	s, err := m.Start(models.Beginner, 4)
	require.NoError(t, err)
	q := s.Questions[0]

	fb, err := m.Answer(q.ID, "bad", time.Second)
	require.NoError(t, err)
	assert.False(t, fb.Correct)
	assert.Equal(t, q.CorrectAnswer, fb.CorrectAnswer)
	assert.Zero(t, fb.Session.Score)

	fb, err = m.Answer(q.ID, q.CorrectAnswer, time.Second)
	require.NoError(t, err)
	assert.True(t, fb.Correct)
	assert.Equal(t, 1, fb.Session.Score)

	_, err = m.Answer("nope_9", "x", time.Second)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = m.Answer(q.ID, "x", -time.Second)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestNavigateClamps(t *testing.T) {
	m, _, _ := newManager(t, testCorpus(4, 2))
	_, err := m.Start(models.Beginner, 4)
	require.NoError(t, err)

	s, err := m.Navigate(1)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentIndex)

	s, err = m.Navigate(10)
	require.NoError(t, err)
	assert.Equal(t, 3, s.CurrentIndex)

	s, err = m.Navigate(-10)
	require.NoError(t, err)
	assert.Equal(t, 0, s.CurrentIndex)
}

func TestExpireChargesFullLimit(t *testing.T) {
	m, _, _ := newManager(t, testCorpus(4, 2))
	s, err := m.Start(models.Beginner, 4)
	require.NoError(t, err)
	q := s.Questions[1]

	fb, err := m.Expire(q.ID, "")
	require.NoError(t, err)
	assert.False(t, fb.Correct)
	slot := fb.Session.Answers[1]
	assert.True(t, slot.Answered)
	assert.Equal(t, int64(q.TimeLimitSec)*1000, slot.TimeUsedMs)

	summary, err := m.End(context.Background())
	require.NoError(t, err)
	assert.Contains(t, summary.Result.WeakAreas, TagTimeManagement)
}

func TestPauseResume(t *testing.T) {
	m, _, _ := newManager(t, testCorpus(4, 2))
	s, err := m.Start(models.Beginner, 4)
	require.NoError(t, err)

	s, err = m.Pause()
	require.NoError(t, err)
	assert.True(t, s.Paused)

	_, err = m.Answer(s.Questions[0].ID, "x", time.Second)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = m.Navigate(1)
	assert.ErrorIs(t, err, models.ErrValidation)

	s, err = m.Resume()
	require.NoError(t, err)
	assert.False(t, s.Paused)
	_, err = m.Answer(s.Questions[0].ID, "x", time.Second)
	assert.NoError(t, err)
}

func TestPausedTimeNotCounted(t *testing.T) {
	m, store, clk := newManager(t, testCorpus(4, 2))
	_, err := m.Start(models.Beginner, 4)
	require.NoError(t, err)

	clk.now = t0.Add(10 * time.Second)
	_, err = m.Pause()
	require.NoError(t, err)
	clk.now = t0.Add(70 * time.Second)
	_, err = m.Pause()
	require.NoError(t, err)
	clk.now = t0.Add(100 * time.Second)
	s, err := m.Resume()
	require.NoError(t, err)
	assert.Equal(t, int64(90_000), s.PausedMs)

	clk.now = t0.Add(120 * time.Second)
	_, err = m.Pause()
	require.NoError(t, err)
	clk.now = t0.Add(150 * time.Second)
	summary, err := m.End(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(120_000), summary.Session.PausedMs)
	assert.False(t, summary.Session.Paused)
	require.Len(t, store.results, 1)
	assert.Equal(t, int64(30_000), store.results[0].TimeSpentMs)
}

func TestEventsWithoutTest(t *testing.T) {
	m, _, _ := newManager(t, testCorpus(4, 2))

	_, err := m.Answer("mc_0", "x", time.Second)
	assert.ErrorIs(t, err, models.ErrNoActiveSession)
	_, err = m.Navigate(1)
	assert.ErrorIs(t, err, models.ErrNoActiveSession)
	_, err = m.Pause()
	assert.ErrorIs(t, err, models.ErrNoActiveSession)
	_, err = m.End(context.Background())
	assert.ErrorIs(t, err, models.ErrNoActiveSession)
	_, ok := m.Snapshot()
	assert.False(t, ok)
}

func TestEndWithoutAnswers(t *testing.T) {
	m, _, _ := newManager(t, testCorpus(4, 2))
	_, err := m.Start(models.Beginner, 4)
	require.NoError(t, err)

	summary, err := m.End(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Result.Accuracy)
	assert.False(t, summary.Result.Passed)
	assert.Empty(t, summary.Result.WeakAreas)
}

func TestEndPersistenceFailureStillCompletes(t *testing.T) {
	m, store, _ := newManager(t, testCorpus(4, 2))
	s, err := m.Start(models.Beginner, 4)
	require.NoError(t, err)
	for _, q := range s.Questions {
		_, err := m.Answer(q.ID, q.CorrectAnswer, time.Second)
		require.NoError(t, err)
	}

	store.resultErr = errors.New("disk full")
	summary, err := m.End(context.Background())
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.True(t, summary.Result.Passed)
	assert.Equal(t, 20, summary.ExperienceGained)
	assert.Equal(t, Completed, m.State())
	assert.Equal(t, 20, store.profiles["alice"].Experience)

	// a new test can start after completion
	_, err = m.Start(models.Beginner, 2)
	assert.NoError(t, err)
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	m, _, _ := newManager(t, testCorpus(4, 2))
	s, err := m.Start(models.Beginner, 4)
	require.NoError(t, err)

	s.Answers[0] = Answer{Answered: true, IsCorrect: true}
	s.Questions[0].CorrectAnswer = "tampered"

	fresh, ok := m.Snapshot()
	require.True(t, ok)
	assert.False(t, fresh.Answers[0].Answered)
	assert.NotEqual(t, "tampered", fresh.Questions[0].CorrectAnswer)
}

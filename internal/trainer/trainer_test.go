package trainer

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordmaster/internal/corpus"
	"github.com/example/wordmaster/internal/database"
	sr "github.com/example/wordmaster/internal/spaced_repetition"
	"github.com/example/wordmaster/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newRegistry(t *testing.T) (*Registry, *database.Store) {
	t.Helper()
	store, err := database.Open(database.TypeSQLitePure, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	c, err := corpus.Seed()
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Now = func() time.Time { return t0 }
	opts.NewRand = func(string) sr.Rand { return rand.New(rand.NewSource(3)) }
	return NewRegistry(store, c, opts), store
}

func TestRegistry(t *testing.T) {
	reg, _ := newRegistry(t)

	a, err := reg.Get("alice")
	require.NoError(t, err)
	b, err := reg.Get(" alice ")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, "alice", a.LearnerID())

	_, err = reg.Get("  ")
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 1, reg.Len())
}

func TestStudyThenTestThenReset(t *testing.T) {
	reg, store := newRegistry(t)
	ctx := context.Background()
	tr, err := reg.Get("alice")
	require.NoError(t, err)

	p, err := tr.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Level)
	assert.Zero(t, p.Experience)

	s, err := tr.StartSession(ctx, sr.Learn, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"w001", "w003", "w005"}, s.Plan)

	done := false
	for _, id := range s.Plan {
		fb, err := tr.AnswerWord(ctx, id, true, 2*time.Second)
		require.NoError(t, err)
		done = fb.Summary != nil
	}
	assert.True(t, done)

	d := tr.Difficulty()
	assert.Equal(t, 3, d.Samples)
	assert.Equal(t, 5, d.Target)

	p, err = tr.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30+45, p.Experience)
	assert.Equal(t, 3, p.Statistics.TotalWordsStudied)

	records, err := store.GetRecordsByLearner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, records, 3)

	test, err := tr.StartTest(models.Beginner, 5)
	require.NoError(t, err)
	require.Len(t, test.Questions, 5)

	assert.ErrorIs(t, tr.Reset(ctx), models.ErrSessionActive)

	for _, q := range test.Questions {
		_, err := tr.AnswerQuestion(q.ID, q.CorrectAnswer, time.Second)
		require.NoError(t, err)
	}
	summary, err := tr.EndTest(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Result.Passed)
	assert.Equal(t, 25, summary.ExperienceGained)

	history, err := tr.Progress().TestHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	daily, err := tr.Progress().Daily(ctx, "alice", tr.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, daily.Completed)
	assert.Equal(t, 3, daily.NewWords)

	require.NoError(t, tr.Reset(ctx))
	records, err = store.GetRecordsByLearner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, records)
	p, err = tr.Profile(ctx)
	require.NoError(t, err)
	assert.Zero(t, p.Experience)
	assert.Zero(t, tr.Difficulty().Samples)
}

func TestTrainerSerializesAccess(t *testing.T) {
	reg, _ := newRegistry(t)
	ctx := context.Background()
	tr, err := reg.Get("bob")
	require.NoError(t, err)

	s, err := tr.StartSession(ctx, sr.Learn, 5)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, id := range s.Plan {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = tr.AnswerWord(ctx, id, true, time.Second)
		}(id)
	}
	wg.Wait()

	cur, ok := tr.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, 5, cur.Answers)
	assert.Len(t, cur.Words, 5)
}

func TestZeroOptionsStartSession(t *testing.T) {
	store, err := database.Open(database.TypeSQLitePure, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	c, err := corpus.Seed()
	require.NoError(t, err)

	tr := New("zoe", store, c, Options{})
	session, err := tr.StartSession(context.Background(), sr.Learn, 3)
	require.NoError(t, err)
	assert.Len(t, session.Plan, 3)
	assert.Equal(t, sr.Band{Min: 3, Max: 7}, session.Band)
}

func TestPeekDoesNotRegister(t *testing.T) {
	reg, _ := newRegistry(t)

	p, err := reg.Peek("ghost")
	require.NoError(t, err)
	assert.Equal(t, "ghost", p.LearnerID())
	assert.Zero(t, reg.Len())

	a, err := reg.Get("alice")
	require.NoError(t, err)
	b, err := reg.Peek(" alice ")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Peek("")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEvictIdleKeepsBusyTrainers(t *testing.T) {
	reg, _ := newRegistry(t)
	ctx := context.Background()

	_, err := reg.Get("alice")
	require.NoError(t, err)
	bob, err := reg.Get("bob")
	require.NoError(t, err)
	_, err = bob.StartSession(ctx, sr.Learn, 2)
	require.NoError(t, err)
	assert.True(t, bob.Busy())

	assert.Zero(t, reg.EvictIdle(t0), "used at t0, not idle yet")
	assert.Equal(t, 1, reg.EvictIdle(t0.Add(time.Hour)))
	assert.Equal(t, 1, reg.Len())

	again, err := reg.Get("bob")
	require.NoError(t, err)
	assert.Same(t, bob, again)

	_, err = bob.AbortSession(ctx)
	require.NoError(t, err)
	assert.False(t, bob.Busy())
	assert.Equal(t, 1, reg.EvictIdle(t0.Add(time.Hour)))
	assert.Zero(t, reg.Len())
}

package spaced_repetition

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordmaster/pkg/models"
)

func history() map[string]models.StudyRecord {
	return map[string]models.StudyRecord{
		"a": {WordID: "a", MasteryScore: 60, NextReviewAt: t0.Add(-time.Hour)},
		"b": {WordID: "b", MasteryScore: 20, NextReviewAt: t0.Add(-time.Minute)},
		"c": {WordID: "c", MasteryScore: 10, NextReviewAt: t0.Add(time.Hour)},
		"d": {WordID: "d", MasteryScore: 20, NextReviewAt: t0},
	}
}

func TestSelectReview(t *testing.T) {
	s := NewSelector(nil)
	pool := []string{"a", "b", "c", "d", "e"}

	got, err := s.Select(pool, Review, 10, history(), t0)
	require.NoError(t, err)
	// c is not due, e was never seen; b and d tie and keep pool order
	assert.Equal(t, []string{"b", "d", "a"}, got)
}

func TestSelectReviewTruncates(t *testing.T) {
	s := NewSelector(nil)
	got, err := s.Select([]string{"a", "b", "c", "d"}, Review, 2, history(), t0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, got)
}

func TestSelectLearn(t *testing.T) {
	s := NewSelector(nil)
	pool := []string{"a", "x", "b", "c", "y", "d"}

	got, err := s.Select(pool, Learn, 10, history(), t0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "c", "b", "d", "a"}, got)

	got, err = s.Select(pool, Learn, 3, history(), t0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "c"}, got)
}

func TestSelectDeterministic(t *testing.T) {
	s := NewSelector(nil)
	pool := []string{"d", "c", "b", "a", "z"}
	first, err := s.Select(pool, Learn, 5, history(), t0)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := s.Select(pool, Learn, 5, history(), t0)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"d", "c", "b", "a", "z"}, pool, "pool must not be reordered")
}

func TestSelectTestModeSeeded(t *testing.T) {
	pool := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	first, err := NewSelector(rand.New(rand.NewSource(7))).Select(pool, Test, 5, nil, t0)
	require.NoError(t, err)
	second, err := NewSelector(rand.New(rand.NewSource(7))).Select(pool, Test, 5, nil, t0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 5)
}

func TestSelectShortPool(t *testing.T) {
	s := NewSelector(nil)
	got, err := s.Select([]string{"q"}, Learn, 5, nil, t0)
	require.NoError(t, err)
	assert.Equal(t, []string{"q"}, got)
}

func TestSelectValidation(t *testing.T) {
	s := NewSelector(nil)
	_, err := s.Select([]string{"a"}, Mode("cram"), 5, nil, t0)
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = s.Select([]string{"a"}, Learn, 0, nil, t0)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("review")
	require.NoError(t, err)
	assert.Equal(t, Review, m)

	_, err = ParseMode("")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestFilterByBand(t *testing.T) {
	entries := []models.VocabularyEntry{
		{ID: "1", Difficulty: 1},
		{ID: "2", Difficulty: 4},
		{ID: "3", Difficulty: 6},
		{ID: "4", Difficulty: 9},
	}
	assert.Equal(t, []string{"2", "3"}, FilterByBand(entries, Band{Min: 3, Max: 7}))
	assert.Empty(t, FilterByBand(entries, Band{Min: 10, Max: 10}))
}

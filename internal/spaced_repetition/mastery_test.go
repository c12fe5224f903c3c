package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordmaster/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestNextMasteryBounds(t *testing.T) {
	m := NewMasteryModel()
	for v := 0.0; v <= 100.0; v += 0.5 {
		for _, ok := range []bool{true, false} {
			got := m.NextMastery(v, ok)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		}
	}
}

func TestNextMasteryMonotonic(t *testing.T) {
	m := NewMasteryModel()
	for v := 0.0; v <= 100.0; v += 1 {
		assert.GreaterOrEqual(t, m.NextMastery(v, true), v, "correct at %v", v)
		assert.LessOrEqual(t, m.NextMastery(v, false), v, "incorrect at %v", v)
	}
}

func TestNextMasteryValues(t *testing.T) {
	m := NewMasteryModel()
	assert.InDelta(t, 47.5, m.NextMastery(25, true), 1e-9)
	assert.InDelta(t, 56.0, m.NextMastery(80, false), 1e-9)
	assert.Equal(t, 100.0, m.NextMastery(100, true))
	assert.Equal(t, 0.0, m.NextMastery(0, false))
}

func TestNextReviewAtStrictlyFuture(t *testing.T) {
	m := NewMasteryModel()
	for rc := 0; rc <= 10; rc++ {
		for v := 0.0; v <= 100.0; v += 10 {
			for _, ok := range []bool{true, false} {
				assert.True(t, m.NextReviewAt(v, rc, ok, t0).After(t0))
			}
		}
	}
}

func TestIncorrectShortensInterval(t *testing.T) {
	m := NewMasteryModel()
	for rc := 1; rc <= 8; rc++ {
		for v := 0.0; v <= 100.0; v += 12.5 {
			wrong := m.NextReviewAt(v, rc, false, t0)
			right := m.NextReviewAt(v, rc, true, t0)
			assert.False(t, wrong.After(right), "mastery %v reviews %d", v, rc)
		}
	}
}

func TestFirstReviewCorrect(t *testing.T) {
	m := NewMasteryModel()
	rec := m.Review(nil, "learner", "w1", true, 3*time.Second, t0)

	assert.Equal(t, 25.0, rec.MasteryScore)
	assert.Equal(t, 1, rec.ReviewCount)
	assert.Equal(t, 1, rec.CorrectCount)
	assert.Equal(t, int64(3000), rec.StudyTimeMs)
	assert.Equal(t, t0, rec.LastReviewAt)
	// 1h * (0.5 + 0.25*1.5) = 52.5 minutes
	assert.Equal(t, t0.Add(52*time.Minute+30*time.Second), rec.NextReviewAt)
	assert.Empty(t, rec.ID)
	assert.Equal(t, rec, m.Review(nil, "learner", "w1", true, 3*time.Second, t0), "same inputs, same record")
}

func TestFirstReviewIncorrect(t *testing.T) {
	m := NewMasteryModel()
	rec := m.Review(nil, "learner", "w1", false, time.Second, t0)

	assert.Equal(t, 5.0, rec.MasteryScore)
	assert.Equal(t, 1, rec.ReviewCount)
	assert.Equal(t, 0, rec.CorrectCount)
	// 1h * (0.5 + 0.05*1.5) * 0.5
	assert.InDelta(t, 0.2875, rec.NextReviewAt.Sub(t0).Hours(), 1e-9)
}

func TestIncorrectAtHighMastery(t *testing.T) {
	m := NewMasteryModel()
	mastery := m.NextMastery(80, false)
	require.InDelta(t, 56.0, mastery, 1e-9)

	// index min(4,6)=4 -> 168h, x1.34, x0.5
	got := m.NextReviewAt(mastery, 5, false, t0).Sub(t0)
	assert.InDelta(t, 112.56, got.Hours(), 1e-6)
}

func TestReviewUpdatesExistingRecord(t *testing.T) {
	m := NewMasteryModel()
	prev := models.StudyRecord{
		ID:           "rec-1",
		LearnerID:    "learner",
		WordID:       "w1",
		MasteryScore: 80,
		ReviewCount:  4,
		CorrectCount: 4,
		LastReviewAt: t0.Add(-48 * time.Hour),
		NextReviewAt: t0.Add(-time.Hour),
		StudyTimeMs:  10_000,
		CreatedAt:    t0.Add(-72 * time.Hour),
	}

	rec := m.Review(&prev, "learner", "w1", false, 2*time.Second, t0)

	assert.Equal(t, "rec-1", rec.ID)
	assert.InDelta(t, 56.0, rec.MasteryScore, 1e-9)
	assert.Equal(t, 5, rec.ReviewCount)
	assert.Equal(t, 4, rec.CorrectCount)
	assert.Equal(t, int64(12_000), rec.StudyTimeMs)
	assert.Equal(t, t0, rec.LastReviewAt)
	assert.InDelta(t, 112.56, rec.NextReviewAt.Sub(t0).Hours(), 1e-6)
	assert.False(t, rec.NextReviewAt.Before(rec.LastReviewAt))
	assert.Equal(t, prev.CreatedAt, rec.CreatedAt)

	// input left untouched
	assert.Equal(t, 80.0, prev.MasteryScore)
}

func TestIntervalCapsAtLastRung(t *testing.T) {
	m := NewMasteryModel()
	a := m.Interval(100, 7, true)
	b := m.Interval(100, 50, true)
	assert.Equal(t, a, b)
	assert.Equal(t, 2880*2*time.Hour, a)
}

func TestIsWordMastered(t *testing.T) {
	assert.False(t, IsWordMastered(79.9))
	assert.True(t, IsWordMastered(80))
	assert.True(t, IsWordMastered(100))
}

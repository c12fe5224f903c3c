package spaced_repetition

import (
	"time"

	"github.com/example/wordmaster/pkg/models"
)

// MasteryModel computes mastery updates and review times for a word. All
// methods are pure: the current time is always passed in.
type MasteryModel struct {
	// Шаг изменения мастерства за один ответ
	LearningRate float64

	// Базовые интервалы повторения в часах
	BaseIntervals []float64

	// Мастерство после первого ответа
	SeedCorrect   float64
	SeedIncorrect float64

	// Множитель интервала для неверного ответа
	IncorrectFactor float64
}

// NewMasteryModel создает модель с настройками по умолчанию
func NewMasteryModel() *MasteryModel {
	return &MasteryModel{
		LearningRate:    0.3,
		BaseIntervals:   []float64{1, 4, 24, 72, 168, 720, 2880},
		SeedCorrect:     25,
		SeedIncorrect:   5,
		IncorrectFactor: 0.5,
	}
}

const (
	MinMastery = 0.0
	MaxMastery = 100.0
	// MasteredScore and above counts as a mastered word
	MasteredScore = 80.0
)

// NextMastery moves mastery toward 100 on a correct answer and toward 0 on an
// incorrect one. The result always stays in [0,100].
func (m *MasteryModel) NextMastery(current float64, isCorrect bool) float64 {
	current = clampMastery(current)
	if isCorrect {
		return clampMastery(current + (MaxMastery-current)*m.LearningRate)
	}
	return clampMastery(current - current*m.LearningRate)
}

// Interval returns the time until the next review.
func (m *MasteryModel) Interval(mastery float64, reviewCount int, isCorrect bool) time.Duration {
	idx := reviewCount - 1
	if idx > len(m.BaseIntervals)-1 {
		idx = len(m.BaseIntervals) - 1
	}
	if idx < 0 {
		idx = 0
	}
	hours := m.BaseIntervals[idx]

	// Higher mastery stretches the interval from x0.5 up to x2.0
	hours *= 0.5 + (clampMastery(mastery)/MaxMastery)*1.5

	if !isCorrect {
		hours *= m.IncorrectFactor
	}

	return time.Duration(hours * float64(time.Hour))
}

// NextReviewAt returns now plus the review interval. The result is strictly
// after now.
func (m *MasteryModel) NextReviewAt(mastery float64, reviewCount int, isCorrect bool, now time.Time) time.Time {
	return now.Add(m.Interval(mastery, reviewCount, isCorrect))
}

// Review applies one pass/fail outcome to a record and returns the updated
// copy. A nil prev means the word was never reviewed by the learner; the new
// record has no ID, the caller assigns one before storing it.
func (m *MasteryModel) Review(prev *models.StudyRecord, learnerID, wordID string, isCorrect bool, spent time.Duration, now time.Time) models.StudyRecord {
	if prev == nil {
		rec := models.StudyRecord{
			LearnerID:    learnerID,
			WordID:       wordID,
			MasteryScore: m.SeedIncorrect,
			ReviewCount:  1,
			LastReviewAt: now,
			StudyTimeMs:  spent.Milliseconds(),
			CreatedAt:    now,
		}
		if isCorrect {
			rec.MasteryScore = m.SeedCorrect
			rec.CorrectCount = 1
		}
		rec.NextReviewAt = m.NextReviewAt(rec.MasteryScore, rec.ReviewCount, isCorrect, now)
		return rec
	}

	rec := *prev
	rec.MasteryScore = m.NextMastery(prev.MasteryScore, isCorrect)
	rec.ReviewCount = prev.ReviewCount + 1
	if isCorrect {
		rec.CorrectCount++
	}
	rec.LastReviewAt = now
	rec.NextReviewAt = m.NextReviewAt(rec.MasteryScore, rec.ReviewCount, isCorrect, now)
	rec.StudyTimeMs += spent.Milliseconds()
	return rec
}

// IsWordMastered determines if a word is considered "mastered"
func IsWordMastered(mastery float64) bool {
	return mastery >= MasteredScore
}

func clampMastery(v float64) float64 {
	if v < MinMastery {
		return MinMastery
	}
	if v > MaxMastery {
		return MaxMastery
	}
	return v
}

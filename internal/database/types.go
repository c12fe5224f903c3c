package database

import (
	"encoding/json"
	"time"

	"github.com/example/wordmaster/pkg/models"
)

// Row types mirror the tables. Times are stored as unix milliseconds so the
// same schema works on SQLite and Postgres; 0 means unset.

type studyRecordRow struct {
	ID           string  `db:"id"`
	LearnerID    string  `db:"learner_id"`
	WordID       string  `db:"word_id"`
	MasteryScore float64 `db:"mastery_score"`
	ReviewCount  int     `db:"review_count"`
	CorrectCount int     `db:"correct_count"`
	LastReviewAt int64   `db:"last_review_at"`
	NextReviewAt int64   `db:"next_review_at"`
	StudyTimeMs  int64   `db:"study_time_ms"`
	CreatedAt    int64   `db:"created_at"`
}

type testResultRow struct {
	ID          string  `db:"id"`
	LearnerID   string  `db:"learner_id"`
	TestID      string  `db:"test_id"`
	Level       string  `db:"level"`
	Score       int     `db:"score"`
	MaxScore    int     `db:"max_score"`
	Accuracy    float64 `db:"accuracy"`
	TimeSpentMs int64   `db:"time_spent_ms"`
	Passed      bool    `db:"passed"`
	CompletedAt int64   `db:"completed_at"`
	WeakAreas   string  `db:"weak_areas"` // JSON array
}

type profileRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	Level        int    `db:"level"`
	Experience   int    `db:"experience"`
	Streak       int    `db:"streak"`
	Achievements string `db:"achievements"` // JSON array
	Statistics   string `db:"statistics"`   // JSON object
	DailyGoal    int    `db:"daily_goal"`
	CreatedAt    int64  `db:"created_at"`
	LastActiveAt int64  `db:"last_active_at"`
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func newStudyRecordRow(r models.StudyRecord) studyRecordRow {
	return studyRecordRow{
		ID:           r.ID,
		LearnerID:    r.LearnerID,
		WordID:       r.WordID,
		MasteryScore: r.MasteryScore,
		ReviewCount:  r.ReviewCount,
		CorrectCount: r.CorrectCount,
		LastReviewAt: toMillis(r.LastReviewAt),
		NextReviewAt: toMillis(r.NextReviewAt),
		StudyTimeMs:  r.StudyTimeMs,
		CreatedAt:    toMillis(r.CreatedAt),
	}
}

func (row studyRecordRow) model() models.StudyRecord {
	return models.StudyRecord{
		ID:           row.ID,
		LearnerID:    row.LearnerID,
		WordID:       row.WordID,
		MasteryScore: row.MasteryScore,
		ReviewCount:  row.ReviewCount,
		CorrectCount: row.CorrectCount,
		LastReviewAt: fromMillis(row.LastReviewAt),
		NextReviewAt: fromMillis(row.NextReviewAt),
		StudyTimeMs:  row.StudyTimeMs,
		CreatedAt:    fromMillis(row.CreatedAt),
	}
}

func newTestResultRow(r models.TestResult) (testResultRow, error) {
	weak := r.WeakAreas
	if weak == nil {
		weak = []string{}
	}
	data, err := json.Marshal(weak)
	if err != nil {
		return testResultRow{}, err
	}
	return testResultRow{
		ID:          r.ID,
		LearnerID:   r.LearnerID,
		TestID:      r.TestID,
		Level:       string(r.Level),
		Score:       r.Score,
		MaxScore:    r.MaxScore,
		Accuracy:    r.Accuracy,
		TimeSpentMs: r.TimeSpentMs,
		Passed:      r.Passed,
		CompletedAt: toMillis(r.CompletedAt),
		WeakAreas:   string(data),
	}, nil
}

func (row testResultRow) model() (models.TestResult, error) {
	weak := []string{}
	if row.WeakAreas != "" {
		if err := json.Unmarshal([]byte(row.WeakAreas), &weak); err != nil {
			return models.TestResult{}, err
		}
	}
	return models.TestResult{
		ID:          row.ID,
		LearnerID:   row.LearnerID,
		TestID:      row.TestID,
		Level:       models.Level(row.Level),
		Score:       row.Score,
		MaxScore:    row.MaxScore,
		Accuracy:    row.Accuracy,
		TimeSpentMs: row.TimeSpentMs,
		Passed:      row.Passed,
		CompletedAt: fromMillis(row.CompletedAt),
		WeakAreas:   weak,
	}, nil
}

func newProfileRow(p models.Profile) (profileRow, error) {
	achievements := p.Achievements
	if achievements == nil {
		achievements = []string{}
	}
	ach, err := json.Marshal(achievements)
	if err != nil {
		return profileRow{}, err
	}
	stats, err := json.Marshal(p.Statistics)
	if err != nil {
		return profileRow{}, err
	}
	return profileRow{
		ID:           p.ID,
		Username:     p.Username,
		Level:        p.Level,
		Experience:   p.Experience,
		Streak:       p.Streak,
		Achievements: string(ach),
		Statistics:   string(stats),
		DailyGoal:    p.DailyGoal,
		CreatedAt:    toMillis(p.CreatedAt),
		LastActiveAt: toMillis(p.LastActiveAt),
	}, nil
}

func (row profileRow) model() (models.Profile, error) {
	p := models.Profile{
		ID:           row.ID,
		Username:     row.Username,
		Level:        row.Level,
		Experience:   row.Experience,
		Streak:       row.Streak,
		Achievements: []string{},
		DailyGoal:    row.DailyGoal,
		CreatedAt:    fromMillis(row.CreatedAt),
		LastActiveAt: fromMillis(row.LastActiveAt),
	}
	if row.Achievements != "" {
		if err := json.Unmarshal([]byte(row.Achievements), &p.Achievements); err != nil {
			return models.Profile{}, err
		}
	}
	if row.Statistics != "" {
		if err := json.Unmarshal([]byte(row.Statistics), &p.Statistics); err != nil {
			return models.Profile{}, err
		}
	}
	return p, nil
}

package models

import "time"

// StudyRecord tracks a learner's progress with a specific word
type StudyRecord struct {
	ID           string    `json:"id"`
	LearnerID    string    `json:"learner_id"`
	WordID       string    `json:"word_id"`
	MasteryScore float64   `json:"mastery_score"` // 0-100, continuous
	ReviewCount  int       `json:"review_count"`
	CorrectCount int       `json:"correct_count"` // never above ReviewCount
	LastReviewAt time.Time `json:"last_review_at"`
	NextReviewAt time.Time `json:"next_review_at"` // never before LastReviewAt
	StudyTimeMs  int64     `json:"study_time_ms"`  // cumulative
	CreatedAt    time.Time `json:"created_at"`
}

// IsDue reports whether the record is scheduled for review at or before now.
func (r StudyRecord) IsDue(now time.Time) bool {
	return !r.NextReviewAt.After(now)
}

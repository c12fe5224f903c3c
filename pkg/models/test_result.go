package models

import "time"

// TestResult is the persisted summary of a completed test session
type TestResult struct {
	ID          string    `json:"id"`
	LearnerID   string    `json:"learner_id"`
	TestID      string    `json:"test_id"`
	Level       Level     `json:"level"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"max_score"`
	Accuracy    float64   `json:"accuracy"`      // percentage
	TimeSpentMs int64     `json:"time_spent_ms"` // wall time between start and end
	Passed      bool      `json:"passed"`
	CompletedAt time.Time `json:"completed_at"`
	WeakAreas   []string  `json:"weak_areas"`
}

package models

// Statistics tracks a learner's aggregate study figures
type Statistics struct {
	TotalWordsStudied int     `json:"total_words_studied"`
	TotalStudyTimeMs  int64   `json:"total_study_time_ms"`
	TotalAnswers      int     `json:"total_answers"`
	TotalCorrect      int     `json:"total_correct"`
	AverageAccuracy   float64 `json:"average_accuracy"` // 0-100
	DailyGoalStreak   int     `json:"daily_goal_streak"`
}

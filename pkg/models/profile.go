package models

import "time"

// Profile is a learner's aggregate profile
type Profile struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Level        int        `json:"level"`
	Experience   int        `json:"experience"`
	Streak       int        `json:"streak"` // consecutive active days
	Achievements []string   `json:"achievements"`
	Statistics   Statistics `json:"statistics"`
	DailyGoal    int        `json:"daily_goal"` // words per day
	CreatedAt    time.Time  `json:"created_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
}

// HasAchievement reports whether the achievement id is already unlocked.
func (p Profile) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// Package progress holds the learner profile rules (levels, streaks,
// achievements) and read-side progress aggregation.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wordmaster/pkg/models"
)

// Milestone unlocks an achievement when a counter reaches Threshold
type Milestone struct {
	Threshold int
	ID        string
}

// Rules are the product-tuning constants of the learner profile
type Rules struct {
	// Опыт на один уровень
	ExperiencePerLevel int

	LevelMilestones  []Milestone
	StreakMilestones []Milestone
	WordMilestones   []Milestone

	// Дневная цель новых профилей
	DailyGoal int

	// Location defines day boundaries for streaks and daily progress
	Location *time.Location
}

// DefaultRules returns the default profile rules
func DefaultRules() Rules {
	return Rules{
		ExperiencePerLevel: 1000,
		LevelMilestones: []Milestone{
			{5, "first_milestone"},
			{10, "dedicated_learner"},
			{20, "vocabulary_expert"},
			{30, "word_master"},
			{50, "ielts_legend"},
		},
		StreakMilestones: []Milestone{
			{7, "week_warrior"},
			{30, "monthly_champion"},
			{100, "century_club"},
		},
		WordMilestones: []Milestone{
			{50, "half_century"},
			{100, "century"},
			{500, "vocabulary_collector"},
			{1000, "word_conqueror"},
		},
		DailyGoal: 20,
		Location:  time.UTC,
	}
}

// NewProfile creates a level 1 profile with no experience
func (r Rules) NewProfile(id string, now time.Time) models.Profile {
	return models.Profile{
		ID:           id,
		Username:     id,
		Level:        1,
		Achievements: []string{},
		DailyGoal:    r.DailyGoal,
		CreatedAt:    now,
	}
}

// AddExperience adds exp, recomputes the level and returns the level
// achievements unlocked by it.
func (r Rules) AddExperience(p *models.Profile, exp int) []string {
	if exp <= 0 {
		return nil
	}
	p.Experience += exp
	p.Level = p.Experience/r.perLevel() + 1
	return unlock(p, r.LevelMilestones, p.Level)
}

func (r Rules) perLevel() int {
	if r.ExperiencePerLevel <= 0 {
		return 1000
	}
	return r.ExperiencePerLevel
}

// TouchStreak marks the learner active at now. Activity on the day after the
// last active day extends the streak, a longer gap restarts it at 1.
func (r Rules) TouchStreak(p *models.Profile, now time.Time) {
	today := r.Day(now)
	switch {
	case p.LastActiveAt.IsZero():
		p.Streak = 1
	case r.Day(p.LastActiveAt).Equal(today):
		if p.Streak == 0 {
			p.Streak = 1
		}
	case r.Day(p.LastActiveAt).Equal(today.AddDate(0, 0, -1)):
		p.Streak++
	default:
		p.Streak = 1
	}
	p.LastActiveAt = now
}

// CheckAchievements unlocks every achievement the profile qualifies for and
// returns the new ones. Already held achievements are never repeated.
func (r Rules) CheckAchievements(p *models.Profile) []string {
	var unlocked []string
	unlocked = append(unlocked, unlock(p, r.LevelMilestones, p.Level)...)
	unlocked = append(unlocked, unlock(p, r.StreakMilestones, p.Streak)...)
	unlocked = append(unlocked, unlock(p, r.WordMilestones, p.Statistics.TotalWordsStudied)...)
	return unlocked
}

// RecordAnswers folds study answers into the running accuracy
func (r Rules) RecordAnswers(p *models.Profile, total, correct int) {
	if total <= 0 {
		return
	}
	p.Statistics.TotalAnswers += total
	p.Statistics.TotalCorrect += correct
	p.Statistics.AverageAccuracy = float64(p.Statistics.TotalCorrect) / float64(p.Statistics.TotalAnswers) * 100
}

// Day truncates t to midnight in the rules' location
func (r Rules) Day(t time.Time) time.Time {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func unlock(p *models.Profile, milestones []Milestone, value int) []string {
	var unlocked []string
	for _, m := range milestones {
		if value >= m.Threshold && !p.HasAchievement(m.ID) {
			p.Achievements = append(p.Achievements, m.ID)
			unlocked = append(unlocked, m.ID)
		}
	}
	return unlocked
}

// ProfileStore is the part of the storage collaborator that owns profiles
type ProfileStore interface {
	GetLearnerProfile(ctx context.Context, learnerID string) (*models.Profile, error)
	PutLearnerProfile(ctx context.Context, p models.Profile) error
}

// Update loads the learner's profile (creating it when missing), marks the
// learner active, applies fn and stores the result. It returns the stored
// profile and every achievement unlocked on the way.
func (r Rules) Update(ctx context.Context, store ProfileStore, learnerID string, now time.Time, fn func(p *models.Profile) []string) (models.Profile, []string, error) {
	stored, err := store.GetLearnerProfile(ctx, learnerID)
	if err != nil {
		return models.Profile{}, nil, fmt.Errorf("%w: load profile: %w", models.ErrPersistence, err)
	}

	var p models.Profile
	if stored == nil {
		p = r.NewProfile(learnerID, now)
	} else {
		p = *stored
		p.Achievements = append([]string(nil), stored.Achievements...)
	}

	r.TouchStreak(&p, now)
	var unlocked []string
	if fn != nil {
		unlocked = fn(&p)
	}
	unlocked = append(unlocked, r.CheckAchievements(&p)...)

	if err := store.PutLearnerProfile(ctx, p); err != nil {
		return p, unlocked, fmt.Errorf("%w: save profile: %w", models.ErrPersistence, err)
	}
	return p, unlocked, nil
}

package progress

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	sr "github.com/example/wordmaster/internal/spaced_repetition"
	"github.com/example/wordmaster/pkg/models"
)

// Store is the read side of the storage collaborator used for aggregation
type Store interface {
	ProfileStore
	GetRecordsByLearner(ctx context.Context, learnerID string) ([]models.StudyRecord, error)
	GetTestResults(ctx context.Context, learnerID string) ([]models.TestResult, error)
}

// Corpus resolves word ids to entries
type Corpus interface {
	Get(id string) (models.VocabularyEntry, bool)
}

// DailyProgress summarizes one day of study
type DailyProgress struct {
	Date         time.Time `json:"date"`
	Target       int       `json:"target"`
	Completed    int       `json:"completed"`
	NewWords     int       `json:"new_words"`
	ReviewWords  int       `json:"review_words"`
	Accuracy     float64   `json:"accuracy"`
	TimeSpentSec int64     `json:"time_spent_sec"`
}

// WeeklyProgress summarizes seven days starting at WeekStart
type WeeklyProgress struct {
	WeekStart       time.Time       `json:"week_start"`
	Days            []DailyProgress `json:"days"`
	TotalWords      int             `json:"total_words"`
	TotalTimeSec    int64           `json:"total_time_sec"`
	AverageAccuracy float64         `json:"average_accuracy"`
	Achievements    []string        `json:"achievements"`
}

// DifficultyAccuracy is the answer accuracy over words of one difficulty
type DifficultyAccuracy struct {
	Difficulty int     `json:"difficulty"`
	Words      int     `json:"words"`
	Reviews    int     `json:"reviews"`
	Correct    int     `json:"correct"`
	Accuracy   float64 `json:"accuracy"`
}

// MasteryDistribution counts study records per mastery bucket
type MasteryDistribution struct {
	New      int `json:"new"`      // < 25
	Learning int `json:"learning"` // < 50
	Familiar int `json:"familiar"` // < 80
	Mastered int `json:"mastered"` // >= 80
}

// Aggregator computes progress views from stored records
type Aggregator struct {
	store  Store
	corpus Corpus
	rules  Rules
}

// NewAggregator creates an aggregator
func NewAggregator(store Store, corpus Corpus, rules Rules) *Aggregator {
	return &Aggregator{store: store, corpus: corpus, rules: rules}
}

type learnerData struct {
	records []models.StudyRecord
	results []models.TestResult
	profile *models.Profile
}

// load fetches records, results and the profile concurrently
func (a *Aggregator) load(ctx context.Context, learnerID string, withResults bool) (learnerData, error) {
	var data learnerData
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := a.store.GetRecordsByLearner(ctx, learnerID)
		if err != nil {
			return fmt.Errorf("load records: %w", err)
		}
		data.records = records
		return nil
	})
	g.Go(func() error {
		profile, err := a.store.GetLearnerProfile(ctx, learnerID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		data.profile = profile
		return nil
	})
	if withResults {
		g.Go(func() error {
			results, err := a.store.GetTestResults(ctx, learnerID)
			if err != nil {
				return fmt.Errorf("load test results: %w", err)
			}
			data.results = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return learnerData{}, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	return data, nil
}

func (a *Aggregator) target(p *models.Profile) int {
	if p != nil && p.DailyGoal > 0 {
		return p.DailyGoal
	}
	return a.rules.DailyGoal
}

// Daily summarizes the records last reviewed on day
func (a *Aggregator) Daily(ctx context.Context, learnerID string, day time.Time) (DailyProgress, error) {
	data, err := a.load(ctx, learnerID, false)
	if err != nil {
		return DailyProgress{}, err
	}
	return a.daily(data, a.rules.Day(day)), nil
}

func (a *Aggregator) daily(data learnerData, day time.Time) DailyProgress {
	dp := DailyProgress{Date: day, Target: a.target(data.profile)}
	next := day.AddDate(0, 0, 1)

	var reviews, correct int
	var spentMs int64
	for _, r := range data.records {
		if r.LastReviewAt.Before(day) || !r.LastReviewAt.Before(next) {
			continue
		}
		dp.Completed++
		if r.ReviewCount == 1 {
			dp.NewWords++
		} else {
			dp.ReviewWords++
		}
		reviews += r.ReviewCount
		correct += r.CorrectCount
		spentMs += r.StudyTimeMs
	}
	if reviews > 0 {
		dp.Accuracy = float64(correct) / float64(reviews) * 100
	}
	dp.TimeSpentSec = spentMs / 1000
	return dp
}

// Weekly returns seven daily summaries starting at weekStart
func (a *Aggregator) Weekly(ctx context.Context, learnerID string, weekStart time.Time) (WeeklyProgress, error) {
	data, err := a.load(ctx, learnerID, false)
	if err != nil {
		return WeeklyProgress{}, err
	}

	start := a.rules.Day(weekStart)
	wp := WeeklyProgress{WeekStart: start, Days: make([]DailyProgress, 0, 7), Achievements: []string{}}

	var accSum float64
	var active int
	for i := 0; i < 7; i++ {
		dp := a.daily(data, start.AddDate(0, 0, i))
		wp.Days = append(wp.Days, dp)
		wp.TotalWords += dp.Completed
		wp.TotalTimeSec += dp.TimeSpentSec
		if dp.Completed > 0 {
			accSum += dp.Accuracy
			active++
		}
	}
	if active > 0 {
		wp.AverageAccuracy = accSum / float64(active)
	}
	if data.profile != nil {
		wp.Achievements = append(wp.Achievements, data.profile.Achievements...)
	}
	return wp, nil
}

// AccuracyByDifficulty groups reviewed words by their corpus difficulty.
// Words missing from the corpus are skipped.
func (a *Aggregator) AccuracyByDifficulty(ctx context.Context, learnerID string) ([]DifficultyAccuracy, error) {
	records, err := a.store.GetRecordsByLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("%w: load records: %w", models.ErrPersistence, err)
	}

	byDifficulty := make(map[int]*DifficultyAccuracy)
	for _, r := range records {
		w, ok := a.corpus.Get(r.WordID)
		if !ok {
			continue
		}
		da, ok := byDifficulty[w.Difficulty]
		if !ok {
			da = &DifficultyAccuracy{Difficulty: w.Difficulty}
			byDifficulty[w.Difficulty] = da
		}
		da.Words++
		da.Reviews += r.ReviewCount
		da.Correct += r.CorrectCount
	}

	out := make([]DifficultyAccuracy, 0, len(byDifficulty))
	for _, da := range byDifficulty {
		if da.Reviews > 0 {
			da.Accuracy = float64(da.Correct) / float64(da.Reviews) * 100
		}
		out = append(out, *da)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Difficulty < out[j].Difficulty })
	return out, nil
}

// MasteryDistribution buckets the learner's records by mastery
func (a *Aggregator) MasteryDistribution(ctx context.Context, learnerID string) (MasteryDistribution, error) {
	records, err := a.store.GetRecordsByLearner(ctx, learnerID)
	if err != nil {
		return MasteryDistribution{}, fmt.Errorf("%w: load records: %w", models.ErrPersistence, err)
	}

	var md MasteryDistribution
	for _, r := range records {
		md.add(r.MasteryScore)
	}
	return md, nil
}

func (md *MasteryDistribution) add(mastery float64) {
	switch {
	case mastery < 25:
		md.New++
	case mastery < 50:
		md.Learning++
	case !sr.IsWordMastered(mastery):
		md.Familiar++
	default:
		md.Mastered++
	}
}

// DueCount counts records due for review at now
func (a *Aggregator) DueCount(ctx context.Context, learnerID string, now time.Time) (int, error) {
	records, err := a.store.GetRecordsByLearner(ctx, learnerID)
	if err != nil {
		return 0, fmt.Errorf("%w: load records: %w", models.ErrPersistence, err)
	}
	due := 0
	for _, r := range records {
		if r.IsDue(now) {
			due++
		}
	}
	return due, nil
}

// TestHistory returns the learner's test results, newest first
func (a *Aggregator) TestHistory(ctx context.Context, learnerID string) ([]models.TestResult, error) {
	results, err := a.store.GetTestResults(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("%w: load test results: %w", models.ErrPersistence, err)
	}
	out := append([]models.TestResult(nil), results...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

// Overview is the combined progress view of a learner
type Overview struct {
	Profile      *models.Profile     `json:"profile"`
	Distribution MasteryDistribution `json:"distribution"`
	Due          int                 `json:"due"`
	Tests        int                 `json:"tests"`
	LastTest     *models.TestResult  `json:"last_test,omitempty"`
}

// Overview loads everything concurrently and summarizes it
func (a *Aggregator) Overview(ctx context.Context, learnerID string, now time.Time) (Overview, error) {
	data, err := a.load(ctx, learnerID, true)
	if err != nil {
		return Overview{}, err
	}

	ov := Overview{Profile: data.profile, Tests: len(data.results)}
	for _, r := range data.records {
		if r.IsDue(now) {
			ov.Due++
		}
		ov.Distribution.add(r.MasteryScore)
	}
	for i := range data.results {
		if ov.LastTest == nil || data.results[i].CompletedAt.After(ov.LastTest.CompletedAt) {
			r := data.results[i]
			ov.LastTest = &r
		}
	}
	return ov, nil
}

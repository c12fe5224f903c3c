package spaced_repetition

import (
	"fmt"
	"sort"
	"time"

	"github.com/example/wordmaster/pkg/models"
)

// Mode is the kind of session words are selected for
type Mode string

const (
	// Learn prioritizes new words, then weak ones
	Learn Mode = "learn"
	// Review only touches previously seen words that are due
	Review Mode = "review"
	// Test draws a seeded random sample
	Test Mode = "test"
)

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Learn, Review, Test:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown session mode %q", models.ErrValidation, s)
}

// Rand is the randomness source used for tie-breaking and sampling.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Selector orders and filters candidate words for a session
type Selector struct {
	rnd Rand
}

// NewSelector creates a selector. rnd is used only in Test mode.
func NewSelector(rnd Rand) *Selector {
	return &Selector{rnd: rnd}
}

// Select returns up to count word ids from pool for the given mode. history
// maps word ids to the learner's records. Output order is stable for
// identical inputs; fewer than count ids are returned when the pool is short.
func (s *Selector) Select(pool []string, mode Mode, count int, history map[string]models.StudyRecord, now time.Time) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: word count must be positive, got %d", models.ErrValidation, count)
	}

	var selected []string

	switch mode {
	case Review:
		// Filter words due for review (next_review_at <= now)
		for _, id := range pool {
			if rec, ok := history[id]; ok && rec.IsDue(now) {
				selected = append(selected, id)
			}
		}

		// Sort due items by mastery, lowest first
		sort.SliceStable(selected, func(i, j int) bool {
			return history[selected[i]].MasteryScore < history[selected[j]].MasteryScore
		})

	case Learn:
		selected = append(selected, pool...)

		// Sort by priority:
		// 1. Words that have never been reviewed
		// 2. Words with lowest mastery
		sort.SliceStable(selected, func(i, j int) bool {
			ri, seenI := history[selected[i]]
			rj, seenJ := history[selected[j]]
			if !seenI || !seenJ {
				return !seenI && seenJ
			}
			return ri.MasteryScore < rj.MasteryScore
		})

	case Test:
		selected = append(selected, pool...)
		if s.rnd != nil {
			s.rnd.Shuffle(len(selected), func(i, j int) {
				selected[i], selected[j] = selected[j], selected[i]
			})
		}

	default:
		return nil, fmt.Errorf("%w: unknown session mode %q", models.ErrValidation, mode)
	}

	// Return limited number of items
	if len(selected) > count {
		selected = selected[:count]
	}

	return selected, nil
}

// Band is an inclusive difficulty range
type Band struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether difficulty d lies within the band.
func (b Band) Contains(d int) bool {
	return d >= b.Min && d <= b.Max
}

// FilterByBand returns the ids of entries whose difficulty lies in band,
// preserving corpus order.
func FilterByBand(entries []models.VocabularyEntry, band Band) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if band.Contains(e.Difficulty) {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

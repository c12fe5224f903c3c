package trainer

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/wordmaster/pkg/models"
)

type entry struct {
	trainer  *Trainer
	lastUsed time.Time
}

// Registry hands out one Trainer per learner. Trainers are kept while they
// are used and dropped by EvictIdle.
type Registry struct {
	mu       sync.Mutex
	store    Store
	corpus   Corpus
	opts     Options
	now      func() time.Time
	trainers map[string]*entry
}

// NewRegistry creates an empty registry
func NewRegistry(store Store, corpus Corpus, opts Options) *Registry {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		store:    store,
		corpus:   corpus,
		opts:     opts,
		now:      now,
		trainers: make(map[string]*entry),
	}
}

func normalize(learnerID string) (string, error) {
	learnerID = strings.TrimSpace(learnerID)
	if learnerID == "" {
		return "", fmt.Errorf("%w: learner id is required", models.ErrValidation)
	}
	return learnerID, nil
}

// Get returns the trainer of learnerID, creating and keeping it on first use
func (r *Registry) Get(learnerID string) (*Trainer, error) {
	learnerID, err := normalize(learnerID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.trainers[learnerID]
	if !ok {
		e = &entry{trainer: New(learnerID, r.store, r.corpus, r.opts)}
		r.trainers[learnerID] = e
	}
	e.lastUsed = r.now()
	return e.trainer, nil
}

// Peek returns the kept trainer of learnerID, or a throwaway one for read-only
// use when the learner has none. Peek never grows the registry.
func (r *Registry) Peek(learnerID string) (*Trainer, error) {
	learnerID, err := normalize(learnerID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.trainers[learnerID]; ok {
		e.lastUsed = r.now()
		return e.trainer, nil
	}
	return New(learnerID, r.store, r.corpus, r.opts), nil
}

// EvictIdle drops trainers unused since before that have no running study
// session or test, and returns how many were dropped.
func (r *Registry) EvictIdle(before time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for id, e := range r.trainers {
		if !e.lastUsed.Before(before) || e.trainer.Busy() {
			continue
		}
		delete(r.trainers, id)
		n++
	}
	return n
}

// Len returns the number of kept trainers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trainers)
}

func wrapPersistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrPersistence, op, err)
}

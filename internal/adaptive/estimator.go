// Package adaptive tracks recent answer outcomes and derives a target
// difficulty band and a hint signal from them.
package adaptive

import "time"

// Config holds the estimator tunables
type Config struct {
	WindowSize        int           // outcomes kept, oldest evicted first
	MinSamples        int           // below this the target stays neutral
	RecentSamples     int           // samples used for the target
	NeutralDifficulty int           // starting target
	HighAccuracy      float64       // above: +1
	LowAccuracy       float64       // below: -1
	FastLatency       time.Duration // mean below: +1
	SlowLatency       time.Duration // mean above: -1
	HintMinSamples    int           // below this hints are always offered
	HintWindow        int           // outcomes inspected for hints
	HintMistakes      int           // mistakes in HintWindow that trigger a hint
	BandRadius        int           // target ± radius forms the band
}

// DefaultConfig returns the default estimator configuration
func DefaultConfig() Config {
	return Config{
		WindowSize:        20,
		MinSamples:        5,
		RecentSamples:     10,
		NeutralDifficulty: 5,
		HighAccuracy:      0.8,
		LowAccuracy:       0.6,
		FastLatency:       5 * time.Second,
		SlowLatency:       15 * time.Second,
		HintMinSamples:    3,
		HintWindow:        5,
		HintMistakes:      2,
		BandRadius:        2,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	positive := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	positive(&c.WindowSize, def.WindowSize)
	positive(&c.MinSamples, def.MinSamples)
	positive(&c.RecentSamples, def.RecentSamples)
	positive(&c.NeutralDifficulty, def.NeutralDifficulty)
	positive(&c.HintMinSamples, def.HintMinSamples)
	positive(&c.HintWindow, def.HintWindow)
	positive(&c.HintMistakes, def.HintMistakes)
	positive(&c.BandRadius, def.BandRadius)
	if c.HighAccuracy <= 0 {
		c.HighAccuracy = def.HighAccuracy
	}
	if c.LowAccuracy <= 0 {
		c.LowAccuracy = def.LowAccuracy
	}
	if c.FastLatency <= 0 {
		c.FastLatency = def.FastLatency
	}
	if c.SlowLatency <= 0 {
		c.SlowLatency = def.SlowLatency
	}
	return c
}

const (
	MinDifficulty = 1
	MaxDifficulty = 10
)

// Outcome is one answered word
type Outcome struct {
	Correct    bool          `json:"correct"`
	Latency    time.Duration `json:"latency"`
	Difficulty int           `json:"difficulty"`
}

// Estimator keeps a bounded FIFO window of outcomes. It is not safe for
// concurrent use; one learner's session managers own it.
type Estimator struct {
	cfg   Config
	ring  []Outcome
	start int
	size  int
}

// New creates an empty estimator. Non-positive fields take their defaults.
func New(cfg Config) *Estimator {
	cfg = cfg.withDefaults()
	return &Estimator{
		cfg:  cfg,
		ring: make([]Outcome, cfg.WindowSize),
	}
}

// RecordOutcome appends an outcome, evicting the oldest one when full.
func (e *Estimator) RecordOutcome(correct bool, latency time.Duration, difficulty int) {
	o := Outcome{Correct: correct, Latency: latency, Difficulty: difficulty}
	if e.size < len(e.ring) {
		e.ring[(e.start+e.size)%len(e.ring)] = o
		e.size++
		return
	}
	e.ring[e.start] = o
	e.start = (e.start + 1) % len(e.ring)
}

// Len returns the number of outcomes in the window.
func (e *Estimator) Len() int {
	return e.size
}

// Outcomes returns the window contents, oldest first.
func (e *Estimator) Outcomes() []Outcome {
	out := make([]Outcome, e.size)
	for i := 0; i < e.size; i++ {
		out[i] = e.ring[(e.start+i)%len(e.ring)]
	}
	return out
}

// last returns up to n most recent outcomes, oldest first.
func (e *Estimator) last(n int) []Outcome {
	all := e.Outcomes()
	if n < len(all) {
		return all[len(all)-n:]
	}
	return all
}

// TargetDifficulty returns the difficulty in [1,10] the learner should be
// practicing at.
func (e *Estimator) TargetDifficulty() int {
	if e.size < e.cfg.MinSamples {
		return e.cfg.NeutralDifficulty
	}

	recent := e.last(e.cfg.RecentSamples)
	if len(recent) == 0 {
		return e.cfg.NeutralDifficulty
	}
	var correct int
	var total time.Duration
	for _, o := range recent {
		if o.Correct {
			correct++
		}
		total += o.Latency
	}
	accuracy := float64(correct) / float64(len(recent))
	meanLatency := total / time.Duration(len(recent))

	difficulty := e.cfg.NeutralDifficulty

	if accuracy > e.cfg.HighAccuracy {
		difficulty++
	} else if accuracy < e.cfg.LowAccuracy {
		difficulty--
	}

	if meanLatency < e.cfg.FastLatency {
		difficulty++
	} else if meanLatency > e.cfg.SlowLatency {
		difficulty--
	}

	return clamp(difficulty)
}

// ShouldOfferHint reports whether the UI should offer a hint.
func (e *Estimator) ShouldOfferHint() bool {
	if e.size < e.cfg.HintMinSamples {
		return true
	}

	var mistakes int
	for _, o := range e.last(e.cfg.HintWindow) {
		if !o.Correct {
			mistakes++
		}
	}
	return mistakes >= e.cfg.HintMistakes
}

// Band returns the admissible difficulty range around the target.
func (e *Estimator) Band() (lo, hi int) {
	target := e.TargetDifficulty()
	return clamp(target - e.cfg.BandRadius), clamp(target + e.cfg.BandRadius)
}

// Reset empties the window.
func (e *Estimator) Reset() {
	e.start, e.size = 0, 0
}

func clamp(d int) int {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

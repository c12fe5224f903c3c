package corpus

import (
	"sort"
	"strings"

	"github.com/example/wordmaster/pkg/models"
)

// SearchFilters narrows a search
type SearchFilters struct {
	MinDifficulty int      // 0 means no lower bound
	MaxDifficulty int      // 0 means no upper bound
	Tags          []string // any tag matches
}

// SearchResult is a ranked search hit
type SearchResult struct {
	Word          models.VocabularyEntry `json:"word"`
	Relevance     int                    `json:"relevance"`
	MatchedFields []string               `json:"matched_fields"`
}

// Relevance weights per matched field
const (
	scoreExactWord     = 100
	scorePartialWord   = 50
	scorePronunciation = 30
	scoreMeaning       = 20
	scoreExample       = 15
	scoreSynonym       = 10
	scoreTag           = 5
)

// Search ranks entries matching query, best first. Ties keep corpus order.
func (c *Corpus) Search(query string, filters SearchFilters, limit int) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var results []SearchResult
	for _, w := range c.entries {
		if !filters.match(w) {
			continue
		}
		if r := score(w, q); r.Relevance > 0 {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (f SearchFilters) match(w models.VocabularyEntry) bool {
	if f.MinDifficulty > 0 && w.Difficulty < f.MinDifficulty {
		return false
	}
	if f.MaxDifficulty > 0 && w.Difficulty > f.MaxDifficulty {
		return false
	}
	if len(f.Tags) == 0 {
		return true
	}
	for _, t := range w.Tags {
		for _, want := range f.Tags {
			if strings.EqualFold(t, want) {
				return true
			}
		}
	}
	return false
}

func score(w models.VocabularyEntry, q string) SearchResult {
	r := SearchResult{Word: w}
	add := func(field string, points int) {
		r.Relevance += points
		for _, f := range r.MatchedFields {
			if f == field {
				return
			}
		}
		r.MatchedFields = append(r.MatchedFields, field)
	}

	word := strings.ToLower(w.Word)
	switch {
	case word == q:
		add("word", scoreExactWord)
	case strings.Contains(word, q):
		add("word", scorePartialWord)
	}

	if strings.Contains(strings.ToLower(w.Pronunciation), q) {
		add("pronunciation", scorePronunciation)
	}

	for _, d := range w.Definitions {
		if strings.Contains(strings.ToLower(d.Meaning), q) {
			add("meaning", scoreMeaning)
		}
		for _, ex := range d.Examples {
			if strings.Contains(strings.ToLower(ex), q) {
				add("example", scoreExample)
			}
		}
		for _, s := range d.Synonyms {
			if strings.Contains(strings.ToLower(s), q) {
				add("synonym", scoreSynonym)
			}
		}
	}

	for _, t := range w.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			add("tag", scoreTag)
		}
	}

	return r
}

// Package corpus holds the read-only vocabulary the core works against.
package corpus

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/wordmaster/pkg/models"
)

//go:embed data/vocabulary.json
var seedFS embed.FS

// Corpus is an immutable set of vocabulary entries, loaded once before any
// session starts.
type Corpus struct {
	entries []models.VocabularyEntry
	byID    map[string]int
}

// New validates entries and builds a corpus. Entries are copied.
func New(entries []models.VocabularyEntry) (*Corpus, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty corpus", models.ErrValidation)
	}

	c := &Corpus{
		entries: make([]models.VocabularyEntry, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	copy(c.entries, entries)

	for i, e := range c.entries {
		if err := validate(e); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate word id %q", models.ErrValidation, e.ID)
		}
		c.byID[e.ID] = i
	}

	return c, nil
}

func validate(e models.VocabularyEntry) error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: word id cannot be empty", models.ErrValidation)
	}
	if strings.TrimSpace(e.Word) == "" {
		return fmt.Errorf("%w: word %q has no headword", models.ErrValidation, e.ID)
	}
	if len(e.Definitions) == 0 || strings.TrimSpace(e.Definitions[0].Meaning) == "" {
		return fmt.Errorf("%w: word %q has no meaning", models.ErrValidation, e.ID)
	}
	if e.Difficulty < 1 || e.Difficulty > 10 {
		return fmt.Errorf("%w: word %q difficulty %d out of 1-10", models.ErrValidation, e.ID, e.Difficulty)
	}
	if e.Frequency < 0 || e.Frequency > 100 {
		return fmt.Errorf("%w: word %q frequency %d out of 0-100", models.ErrValidation, e.ID, e.Frequency)
	}
	return nil
}

// Seed returns the corpus bundled with the binary.
func Seed() (*Corpus, error) {
	data, err := seedFS.ReadFile("data/vocabulary.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read seed corpus: %w", err)
	}
	return Decode(data)
}

// Decode parses a JSON array of entries.
func Decode(data []byte) (*Corpus, error) {
	var entries []models.VocabularyEntry
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: failed to parse corpus: %v", models.ErrValidation, err)
	}
	return New(entries)
}

// LoadJSON reads a corpus from a JSON file.
func LoadJSON(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	return Decode(data)
}

// Encode writes entries as indented JSON.
func Encode(entries []models.VocabularyEntry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}

// IsJSON reports whether path looks like a JSON corpus file.
func IsJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// AllWords returns the entries in corpus order. The slice is shared and must
// not be modified.
func (c *Corpus) AllWords() []models.VocabularyEntry {
	return c.entries
}

// Len returns the number of entries.
func (c *Corpus) Len() int {
	return len(c.entries)
}

// Get returns the entry with the given id.
func (c *Corpus) Get(id string) (models.VocabularyEntry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.VocabularyEntry{}, false
	}
	return c.entries[i], true
}

// ByDifficulty returns entries with difficulty in [min,max], corpus order.
func (c *Corpus) ByDifficulty(min, max int) []models.VocabularyEntry {
	var out []models.VocabularyEntry
	for _, e := range c.entries {
		if e.Difficulty >= min && e.Difficulty <= max {
			out = append(out, e)
		}
	}
	return out
}

// IDs returns the ids of entries, preserving order.
func IDs(entries []models.VocabularyEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

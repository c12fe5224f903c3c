package models

// VocabularyEntry is an immutable corpus item. Components reference entries
// from the corpus and never mutate them.
type VocabularyEntry struct {
	ID            string       `json:"id"`
	Word          string       `json:"word"`
	Pronunciation string       `json:"pronunciation"`
	Definitions   []Definition `json:"definitions"`
	Difficulty    int          `json:"difficulty"` // 1-10 scale of difficulty
	Frequency     int          `json:"frequency"`  // 0-100
	Tags          []string     `json:"tags"`
}

// Definition is one sense of a vocabulary entry
type Definition struct {
	PartOfSpeech string   `json:"part_of_speech"`
	Meaning      string   `json:"meaning"`
	Examples     []string `json:"examples"`
	Synonyms     []string `json:"synonyms,omitempty"`
	Antonyms     []string `json:"antonyms,omitempty"`
}

// PrimaryMeaning returns the meaning of the first definition, or "" when the
// entry has none.
func (v VocabularyEntry) PrimaryMeaning() string {
	if len(v.Definitions) == 0 {
		return ""
	}
	return v.Definitions[0].Meaning
}

// FirstExample returns the first example sentence of the first definition.
func (v VocabularyEntry) FirstExample() (string, bool) {
	if len(v.Definitions) == 0 || len(v.Definitions[0].Examples) == 0 {
		return "", false
	}
	return v.Definitions[0].Examples[0], true
}

package models

import "fmt"

// QuestionType is the kind of a test question
type QuestionType string

const (
	// MultipleChoice asks for the meaning of a word among options
	MultipleChoice QuestionType = "multiple_choice"
	// FillBlank asks the learner to type the word missing from a sentence
	FillBlank QuestionType = "fill_blank"
	// Context asks for the word missing from a sentence shown with its context
	Context QuestionType = "context"
	// Matching asks which word matches a meaning
	Matching QuestionType = "matching"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, FillBlank, Context, Matching:
		return true
	}
	return false
}

// TestQuestion is generated fresh per test and never modified afterwards
type TestQuestion struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	WordID        string       `json:"word_id"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
	Context       string       `json:"context,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Difficulty    int          `json:"difficulty"`
	TimeLimitSec  int          `json:"time_limit_sec"`
}

// Level is the tag of a test session
type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
	Master       Level = "master"
)

// Levels lists all levels from easiest to hardest.
var Levels = []Level{Beginner, Intermediate, Advanced, Master}

// ParseLevel converts a string into a Level.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: unknown level %q", ErrValidation, s)
}

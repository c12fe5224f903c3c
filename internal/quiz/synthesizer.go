package quiz

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/example/wordmaster/pkg/models"
)

// Rand is the randomness source for distractor sampling and option order.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Blank replaces the tested word in sentences
const Blank = "_____"

// Time limits per question type, in seconds
var TimeLimits = map[models.QuestionType]int{
	models.MultipleChoice: 30,
	models.FillBlank:      20,
	models.Context:        25,
	models.Matching:       30,
}

// Rotation is the order question types are assigned across a set
var Rotation = []models.QuestionType{models.MultipleChoice, models.FillBlank, models.Context}

var idPrefix = map[models.QuestionType]string{
	models.MultipleChoice: "mc",
	models.FillBlank:      "fb",
	models.Context:        "ctx",
	models.Matching:       "match",
}

// optionCount is the number of options including the correct one
const optionCount = 4

// Synthesizer turns vocabulary entries into test questions
type Synthesizer struct {
	rnd Rand
}

// NewSynthesizer creates a synthesizer. A nil rnd falls back to a time-seeded
// source.
func NewSynthesizer(rnd Rand) *Synthesizer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthesizer{rnd: rnd}
}

// GenerateSet creates one question per word, cycling question types through
// Rotation in word order.
func (s *Synthesizer) GenerateSet(words, corpus []models.VocabularyEntry) ([]models.TestQuestion, error) {
	questions := make([]models.TestQuestion, 0, len(words))
	for i, w := range words {
		qType := Rotation[i%len(Rotation)]
		q, err := s.Generate(w, corpus, qType)
		if err != nil {
			return nil, err
		}
		q.ID = fmt.Sprintf("%s_%d", idPrefix[qType], i)
		questions = append(questions, q)
	}
	return questions, nil
}

// Generate creates a single question of the given type. corpus is the pool
// distractors are drawn from.
func (s *Synthesizer) Generate(word models.VocabularyEntry, corpus []models.VocabularyEntry, qType models.QuestionType) (models.TestQuestion, error) {
	if !qType.Valid() {
		return models.TestQuestion{}, fmt.Errorf("%w: unknown question type %q", models.ErrValidation, qType)
	}
	meaning := word.PrimaryMeaning()
	if meaning == "" {
		return models.TestQuestion{}, fmt.Errorf("%w: word %q has no meaning", models.ErrValidation, word.ID)
	}

	q := models.TestQuestion{
		ID:           fmt.Sprintf("%s_%s", idPrefix[qType], word.ID),
		Type:         qType,
		WordID:       word.ID,
		Difficulty:   word.Difficulty,
		TimeLimitSec: TimeLimits[qType],
	}

	switch qType {
	case models.MultipleChoice:
		q.Prompt = fmt.Sprintf("What does %q mean?", word.Word)
		q.Options = s.options(meaning, word.ID, corpus, func(e models.VocabularyEntry) string {
			return e.PrimaryMeaning()
		})
		q.CorrectAnswer = meaning

	case models.FillBlank:
		q.Prompt = s.blankSentence(word)
		q.CorrectAnswer = word.Word

	case models.Context:
		q.Prompt = "Choose the correct word: " + s.blankSentence(word)
		if example, ok := word.FirstExample(); ok {
			q.Context = example
		} else {
			q.Context = "Meaning: " + meaning
		}
		q.CorrectAnswer = word.Word

	case models.Matching:
		q.Prompt = fmt.Sprintf("Which word means %q?", meaning)
		q.Options = s.options(word.Word, word.ID, corpus, func(e models.VocabularyEntry) string {
			return e.Word
		})
		q.CorrectAnswer = word.Word
	}

	return q, nil
}

// options samples distinct distractors from other words without replacement
// until optionCount unique options exist or the pool runs dry, then shuffles.
func (s *Synthesizer) options(correct, wordID string, corpus []models.VocabularyEntry, pick func(models.VocabularyEntry) string) []string {
	options := []string{correct}

	others := make([]models.VocabularyEntry, 0, len(corpus))
	for _, w := range corpus {
		if w.ID != wordID {
			others = append(others, w)
		}
	}

	for len(options) < optionCount && len(others) > 0 {
		i := s.rnd.Intn(len(others))
		option := pick(others[i])
		if option != "" && !contains(options, option) {
			options = append(options, option)
		}
		others = append(others[:i], others[i+1:]...)
	}

	s.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

// blankSentence replaces every case-insensitive occurrence of the headword
// in the first example with Blank. Without an example the sentence is built
// from the meaning, so the headword is never revealed.
func (s *Synthesizer) blankSentence(word models.VocabularyEntry) string {
	example, ok := word.FirstExample()
	if !ok {
		return fmt.Sprintf("The word that means %q is %s.", word.PrimaryMeaning(), Blank)
	}
	return ReplaceWithBlank(example, word.Word)
}

// ReplaceWithBlank replaces a word in a sentence with a blank, ignoring case
func ReplaceWithBlank(sentence, word string) string {
	if word == "" {
		return sentence
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(word))
	return re.ReplaceAllLiteralString(sentence, Blank)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

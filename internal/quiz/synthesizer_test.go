package quiz

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordmaster/pkg/models"
)

func entry(id, word, meaning string, difficulty int, examples ...string) models.VocabularyEntry {
	return models.VocabularyEntry{
		ID:         id,
		Word:       word,
		Difficulty: difficulty,
		Definitions: []models.Definition{
			{PartOfSpeech: "noun", Meaning: meaning, Examples: examples},
		},
	}
}

// testCorpus builds n words of the given difficulty with distinct meanings
func testCorpus(n, difficulty int) []models.VocabularyEntry {
	words := make([]models.VocabularyEntry, 0, n)
	for i := 0; i < n; i++ {
		w := fmt.Sprintf("word%02d", i)
		words = append(words, entry(fmt.Sprintf("w%02d", i), w, "meaning of "+w, difficulty, "I used "+w+" today."))
	}
	return words
}

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestMultipleChoiceOptionsAreUnique(t *testing.T) {
	corpus := []models.VocabularyEntry{
		entry("a", "alpha", "first", 3),
		entry("b", "beta", "second", 3),
		entry("c", "gamma", "second", 3),
		entry("d", "delta", "first", 3),
		entry("e", "epsilon", "fifth", 3),
		entry("f", "zeta", "sixth", 3),
	}

	for seed := int64(0); seed < 50; seed++ {
		q, err := NewSynthesizer(seeded(seed)).Generate(corpus[0], corpus, models.MultipleChoice)
		require.NoError(t, err)

		seen := map[string]bool{}
		for _, o := range q.Options {
			assert.False(t, seen[o], "duplicate option %q (seed %d)", o, seed)
			seen[o] = true
		}
		assert.Contains(t, q.Options, "first")
		assert.LessOrEqual(t, len(q.Options), 4)
		assert.Equal(t, "first", q.CorrectAnswer)
	}
}

func TestMultipleChoiceSmallCorpus(t *testing.T) {
	corpus := []models.VocabularyEntry{
		entry("a", "alpha", "first", 3),
		entry("b", "beta", "second", 3),
	}

	q, err := NewSynthesizer(seeded(1)).Generate(corpus[0], corpus, models.MultipleChoice)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"first", "second"}, q.Options)
	assert.Equal(t, `What does "alpha" mean?`, q.Prompt)
	assert.Equal(t, 30, q.TimeLimitSec)
}

func TestFillBlank(t *testing.T) {
	w := entry("a", "abandon", "to leave", 3, "Abandon ship! They abandon it.")

	q, err := NewSynthesizer(seeded(1)).Generate(w, nil, models.FillBlank)
	require.NoError(t, err)
	assert.Equal(t, "_____ ship! They _____ it.", q.Prompt)
	assert.Equal(t, "abandon", q.CorrectAnswer)
	assert.Equal(t, 20, q.TimeLimitSec)
	assert.Empty(t, q.Options)
}

func TestFillBlankFallbackHidesHeadword(t *testing.T) {
	w := entry("a", "abandon", "to leave", 3)

	q, err := NewSynthesizer(seeded(1)).Generate(w, nil, models.FillBlank)
	require.NoError(t, err)
	assert.Equal(t, `The word that means "to leave" is _____.`, q.Prompt)
	assert.NotContains(t, q.Prompt, "abandon")
}

func TestContextQuestion(t *testing.T) {
	w := entry("a", "abandon", "to leave", 3, "They had to abandon the car.")

	q, err := NewSynthesizer(seeded(1)).Generate(w, nil, models.Context)
	require.NoError(t, err)
	assert.Equal(t, "Choose the correct word: They had to _____ the car.", q.Prompt)
	assert.Equal(t, "They had to abandon the car.", q.Context)
	assert.Equal(t, 25, q.TimeLimitSec)
}

func TestMatchingQuestion(t *testing.T) {
	corpus := testCorpus(6, 3)

	q, err := NewSynthesizer(seeded(3)).Generate(corpus[2], corpus, models.Matching)
	require.NoError(t, err)
	assert.Equal(t, `Which word means "meaning of word02"?`, q.Prompt)
	assert.Len(t, q.Options, 4)
	assert.Contains(t, q.Options, "word02")
	assert.Equal(t, "word02", q.CorrectAnswer)
	assert.Equal(t, 30, q.TimeLimitSec)
}

func TestGenerateSetRoundRobin(t *testing.T) {
	corpus := testCorpus(5, 3)

	questions, err := NewSynthesizer(seeded(1)).GenerateSet(corpus, corpus)
	require.NoError(t, err)
	require.Len(t, questions, 5)

	wantTypes := []models.QuestionType{models.MultipleChoice, models.FillBlank, models.Context, models.MultipleChoice, models.FillBlank}
	wantIDs := []string{"mc_0", "fb_1", "ctx_2", "mc_3", "fb_4"}
	for i, q := range questions {
		assert.Equal(t, wantTypes[i], q.Type)
		assert.Equal(t, wantIDs[i], q.ID)
		assert.Equal(t, corpus[i].ID, q.WordID)
	}
}

func TestGenerateSetIsReproducible(t *testing.T) {
	corpus := testCorpus(8, 3)

	a, err := NewSynthesizer(seeded(42)).GenerateSet(corpus, corpus)
	require.NoError(t, err)
	b, err := NewSynthesizer(seeded(42)).GenerateSet(corpus, corpus)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	s := NewSynthesizer(seeded(1))

	_, err := s.Generate(entry("a", "alpha", "first", 3), nil, models.QuestionType("essay"))
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.Generate(models.VocabularyEntry{ID: "x", Word: "x"}, nil, models.MultipleChoice)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestIsCorrect(t *testing.T) {
	assert.True(t, IsCorrect("Ability", "ability"))
	assert.True(t, IsCorrect("  ability\t", "Ability "))
	assert.False(t, IsCorrect("abilities", "ability"))
	assert.False(t, IsCorrect("", "ability"))
}

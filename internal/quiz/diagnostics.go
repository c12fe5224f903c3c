package quiz

import "github.com/example/wordmaster/pkg/models"

// Weak-area tags
const (
	TagTimeManagement    = "time_management"
	TagVocabularyMeaning = "vocabulary_meaning"
	TagSpelling          = "spelling"
	TagContextUsage      = "context_usage"
)

// slowAnswerRatio of the time limit marks an answer as slow
const slowAnswerRatio = 0.8

var typeTags = map[models.QuestionType]string{
	models.MultipleChoice: TagVocabularyMeaning,
	models.Matching:       TagVocabularyMeaning,
	models.FillBlank:      TagSpelling,
	models.Context:        TagContextUsage,
}

// WeakAreas derives tags from the incorrect answers of a test. answers holds
// one slot per question in the same order. Tags keep the order in which they
// were first triggered; an empty result means no identifiable weakness.
func WeakAreas(questions []models.TestQuestion, answers []Answer) []string {
	tags := []string{}
	seen := make(map[string]bool)
	add := func(tag string) {
		if tag != "" && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	for i, q := range questions {
		if i >= len(answers) {
			break
		}
		a := answers[i]
		if !a.Answered || a.IsCorrect {
			continue
		}
		limitMs := float64(q.TimeLimitSec) * 1000
		if q.TimeLimitSec > 0 && float64(a.TimeUsedMs) > limitMs*slowAnswerRatio {
			add(TagTimeManagement)
		}
		add(typeTags[q.Type])
	}
	return tags
}

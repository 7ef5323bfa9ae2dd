package domain

import "strings"

// Question is a single generated question for a region. Identity is the
// exact question text: the text is used as a set key, and no surrogate ID
// exists. Questions are append-only per region; once stored, an entry is
// never deleted, and the only permitted mutation is flipping Answered once
// an answer has been committed.
type Question struct {
	Text     string `json:"question"`
	Answered bool   `json:"is_answered"`
}

// NewQuestion creates an unanswered Question from the given text.
// Returns an error if the text is empty or whitespace-only.
func NewQuestion(text string) (Question, error) {
	q := Question{Text: text}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// Validate checks if the Question has valid data.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuestionText
	}
	return nil
}

// QuestionTexts extracts the text of every question, preserving order.
func QuestionTexts(questions []Question) []string {
	texts := make([]string, 0, len(questions))
	for _, q := range questions {
		texts = append(texts, q.Text)
	}
	return texts
}

// CountAnswered returns how many questions are marked answered.
func CountAnswered(questions []Question) int {
	n := 0
	for _, q := range questions {
		if q.Answered {
			n++
		}
	}
	return n
}

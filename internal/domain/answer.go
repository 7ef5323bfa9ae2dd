package domain

import "strings"

// FallbackAnswerContent is the answer content recorded when the provider
// exhausts its retry budget without producing a real answer. It is a valid
// answer at the orchestration layer: the question it belongs to is marked
// answered and is not retried.
const FallbackAnswerContent = "抱歉，此问题暂时无法生成答案。"

// AnswerItem is one generated answer, associated to its Question by exact
// question text. Items are created once and never mutated. ReasoningContent
// carries the model's chain-of-thought channel when the provider exposes
// one (for example DeepSeek reasoner models); it is empty otherwise.
type AnswerItem struct {
	Question         string `json:"question"`
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content"`
}

// NewFallbackAnswer builds the placeholder answer recorded after retry
// exhaustion for the given question text.
func NewFallbackAnswer(questionText string) AnswerItem {
	return AnswerItem{
		Question: questionText,
		Content:  FallbackAnswerContent,
	}
}

// IsFallback reports whether the item carries the placeholder content
// instead of a generated answer.
func (a AnswerItem) IsFallback() bool {
	return a.Content == FallbackAnswerContent
}

// Validate checks the minimal shape required to persist the item:
// non-empty question text and non-empty content.
func (a AnswerItem) Validate() error {
	if strings.TrimSpace(a.Question) == "" {
		return ErrEmptyQuestionText
	}
	if strings.TrimSpace(a.Content) == "" {
		return ErrEmptyAnswerContent
	}
	return nil
}

// AnsweredSet builds a set of question texts that already have an answer.
func AnsweredSet(answers []AnswerItem) map[string]struct{} {
	set := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		set[a.Question] = struct{}{}
	}
	return set
}

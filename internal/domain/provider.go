package domain

import "context"

// Provider is the external text-generation capability the engine delegates
// to. Implementations own their wire protocol, auth, and internal retry
// policy; the orchestration layer never retries a provider call itself.
//
// Failure contract: transient failures (timeouts, malformed model output,
// empty content) are retried inside the provider up to maxAttempts with
// increasing backoff. Exhausting the budget yields an empty slice from
// GenerateQuestions, or the fallback answer from GenerateAnswer, rather
// than an error. Errors are reserved for faults that make the call itself
// impossible (nil client, cancelled context).
type Provider interface {
	// Name identifies the implementation, e.g. "gemini" or "deepseek".
	Name() string

	// GenerateQuestions requests up to batchSize candidate questions about
	// the region. The returned items are unvalidated candidates; callers
	// filter for shape and near-duplicates.
	GenerateQuestions(ctx context.Context, region Region, batchSize, maxAttempts int) ([]Question, error)

	// GenerateAnswer produces one answer for the given question text.
	GenerateAnswer(ctx context.Context, questionText string, maxAttempts int) (AnswerItem, error)
}

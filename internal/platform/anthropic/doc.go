// Package anthropic implements the text-generation provider on top of the
// Anthropic Messages API. Responses carry text content blocks only; there
// is no separate reasoning channel, so generated answers leave
// ReasoningContent empty.
package anthropic

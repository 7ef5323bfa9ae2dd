// Package provider carries the pieces shared by every concrete
// text-generation provider: the Chinese prompt templates, the JSON
// extraction tolerant of chat-model output quirks, the linear retry
// backoff, and the canonical provider names used for configuration
// and selection.
//
// Concrete implementations live in sibling packages (gemini,
// openaicompat, anthropic); the composition root in cmd/quarry picks
// one by name.
package provider

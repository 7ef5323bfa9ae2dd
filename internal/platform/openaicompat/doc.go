// Package openaicompat implements the text-generation provider against
// OpenAI-compatible chat completion endpoints: OpenAI itself, DeepSeek, and
// local gateways that speak the same wire protocol. DeepSeek reasoner
// models return their chain of thought in a non-standard reasoning_content
// message field, which this package surfaces on the generated answers.
package openaicompat

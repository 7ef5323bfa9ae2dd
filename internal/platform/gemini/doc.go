// Package gemini implements domain.Provider on top of Google's Gemini API
// via the google.golang.org/genai SDK. Transient failures (API errors,
// unparseable output, empty completions) are retried internally with a
// linear backoff; an exhausted budget degrades to an empty question batch
// or the fallback answer rather than an error.
package gemini

package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONArray returns the first top-level JSON array in raw model
// output. Chat models routinely wrap JSON in markdown code fences or
// surround it with prose; both are tolerated.
func ExtractJSONArray(raw string) (string, error) {
	cleaned := stripFences(raw)
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSONArray
	}
	return cleaned[start : end+1], nil
}

// stripFences removes a surrounding markdown code fence, with or without
// an info string ("```json").
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type questionItem struct {
	Question string `json:"question"`
}

// ParseQuestionTexts decodes question texts from model output. Both shapes
// models produce for "a JSON array of questions" are accepted: an array of
// {"question": ...} objects and a bare array of strings. Texts are trimmed
// and blank entries dropped.
func ParseQuestionTexts(raw string) ([]string, error) {
	arr, err := ExtractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var texts []string
	var items []questionItem
	if uerr := json.Unmarshal([]byte(arr), &items); uerr == nil {
		for _, it := range items {
			texts = append(texts, it.Question)
		}
	} else {
		var plain []string
		if perr := json.Unmarshal([]byte(arr), &plain); perr != nil {
			return nil, fmt.Errorf("decode question array: %w", uerr)
		}
		texts = plain
	}

	out := make([]string, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, ErrNoQuestions
	}
	return out, nil
}

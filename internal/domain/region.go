package domain

import "strings"

// Region describes one generation subject. Regions come from configuration
// and are read-only inputs to orchestration: the engine never mutates them.
type Region struct {
	Name        string `json:"name"`
	Pinyin      string `json:"pinyin"`
	Description string `json:"description"`
}

// Key returns the storage key for the region: the pinyin transliteration
// when present (safe for filenames), otherwise the raw name.
func (r Region) Key() string {
	if r.Pinyin != "" {
		return r.Pinyin
	}
	return r.Name
}

// Validate checks if the Region has valid data.
func (r Region) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyRegionName
	}
	return nil
}

package similarity

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// Threshold is the pairwise similarity score above which two texts are
// treated as near-duplicates.
const Threshold = 0.6

// Weights of the two similarity signals. Edit distance dominates; token
// overlap catches reorderings that edit distance penalizes.
const (
	editWeight  = 0.7
	tokenWeight = 0.3
)

// Scorer reports near-duplication of candidate texts against a corpus.
// It memoizes text normalization in a size-capped cache, since every
// candidate is compared against the full accumulated corpus.
//
// A Scorer is not safe for concurrent use. Each orchestration run owns its
// own instance; instances are never shared across concurrently processed
// regions.
type Scorer struct {
	threshold float64
	cache     *normCache
}

// NewScorer creates a Scorer with the default threshold.
func NewScorer() *Scorer {
	return &Scorer{
		threshold: Threshold,
		cache:     newNormCache(defaultCacheCap),
	}
}

// TooSimilar reports whether candidate scores above the threshold against
// ANY corpus entry. domainPrefix is stripped from the start of every text
// before comparison, so that a shared prompt prefix ("关于安徽：" and the
// like) does not inflate similarity.
func (s *Scorer) TooSimilar(candidate string, corpus []string, domainPrefix string) bool {
	normCand := s.cache.normalized(candidate, domainPrefix)
	for _, existing := range corpus {
		normExisting := s.cache.normalized(existing, domainPrefix)
		if score(normCand, normExisting) > s.threshold {
			return true
		}
	}
	return false
}

// score computes the combined similarity of two normalized texts on a 0-1
// scale.
func score(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return editWeight*editSimilarity(a, b) + tokenWeight*jaccard(a, b)
}

// editSimilarity converts Levenshtein distance into a 0-1 similarity:
// 1 - distance/max(len(a), len(b)), lengths in runes.
func editSimilarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.Distance(a, b, nil)
	return 1.0 - float64(dist)/float64(maxLen)
}

// jaccard computes |A∩B| / |A∪B| over whitespace-separated token sets.
func jaccard(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 1.0
	}
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(tokensA))
	for _, tok := range tokensA {
		setA[tok] = struct{}{}
	}
	setB := make(map[string]struct{}, len(tokensB))
	for _, tok := range tokensB {
		setB[tok] = struct{}{}
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// normalize strips domainPrefix from the start of the text, lower-cases it,
// and collapses every punctuation or whitespace run into a single space.
func normalize(text, domainPrefix string) string {
	t := strings.TrimPrefix(text, domainPrefix)
	t = strings.ToLower(t)

	var b strings.Builder
	b.Grow(len(t))
	pendingSpace := false
	for _, r := range t {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

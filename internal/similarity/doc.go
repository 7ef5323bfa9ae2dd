// Package similarity decides whether a candidate text is a near-duplicate
// of any text in an existing corpus. It combines a normalized Levenshtein
// edit-distance signal with a Jaccard token-overlap signal, computed on
// normalized text. The scorer keeps generated question sets free of
// trivially-reworded repeats.
package similarity

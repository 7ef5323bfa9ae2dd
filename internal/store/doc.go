// Package store defines the persistence interfaces the orchestration layer
// depends on: per-region question and answer sets with whole-collection
// overwrite semantics, and insert-only run history. It also carries the
// shared error taxonomy (ErrNotFound, ErrDuplicate, and friends) that every
// backend maps its driver errors onto, so callers never branch on
// driver-specific error types.
package store

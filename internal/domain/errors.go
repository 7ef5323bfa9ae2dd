package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrEmptyQuestionText is returned when a question has no text.
	ErrEmptyQuestionText = errors.New("question text cannot be empty")

	// ErrEmptyAnswerContent is returned when an answer has no content.
	ErrEmptyAnswerContent = errors.New("answer content cannot be empty")

	// ErrEmptyRegionName is returned when a region has no name.
	ErrEmptyRegionName = errors.New("region name cannot be empty")

	// ErrUnknownTaskKind is returned when a task carries a kind the
	// executor does not recognize.
	ErrUnknownTaskKind = errors.New("unknown task kind")

	// ErrInvalidRunID is returned when a run record carries a nil ID.
	ErrInvalidRunID = errors.New("run ID cannot be nil")

	// ErrInvalidRunKind is returned for a run kind outside the known set.
	ErrInvalidRunKind = errors.New("invalid run kind")

	// ErrInvalidRunStatus is returned for a run status outside the known set.
	ErrInvalidRunStatus = errors.New("invalid run status")
)

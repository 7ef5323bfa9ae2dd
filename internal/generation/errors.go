package generation

import "errors"

// Common errors returned by the generation package.
var (
	// ErrNilPool is returned when an orchestrator or executor is created
	// without a task pool.
	ErrNilPool = errors.New("task pool cannot be nil")

	// ErrNilProvider is returned when an executor is created without a
	// text-generation provider.
	ErrNilProvider = errors.New("provider cannot be nil")

	// ErrNilStore is returned when an orchestrator or recorder is created
	// without its persistence dependency.
	ErrNilStore = errors.New("store cannot be nil")
)

package segmentation

import "errors"

// Sentinel errors for segmentation.
var (
	// ErrFetch marks a failed read from the customer store. Callers must
	// abort the enclosing operation without committing anything.
	ErrFetch           = errors.New("customer fetch failed")
	ErrInvalidCriteria = errors.New("invalid segment criteria")
)

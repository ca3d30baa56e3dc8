package events

import (
	"errors"
	"fmt"
)

// ValidationError names the first offending field, fail-fast. Boundary maps
// it to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrSnapshotUpload marks a Snapshot Resolver failure. Distinct from a
// generic server error so the boundary can report "upload failed";
// nothing is persisted when it occurs.
var ErrSnapshotUpload = errors.New("snapshot upload failed")

// ErrMissingCutoff guards bulk deletion against an accidental full wipe.
var ErrMissingCutoff = &ValidationError{
	Field:   "olderThan",
	Message: "query param \"olderThan\" is required",
}

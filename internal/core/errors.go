package core

import (
	"errors"
	"fmt"
)

// Aggregation error conditions. Test with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidRecord   = errors.New("invalid record")
)

// RecordError reports which record of an input collection failed validation.
type RecordError struct {
	Index  int
	ID     string
	Reason error
}

func (e *RecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invalid record %d (id=%s): %v", e.Index, e.ID, e.Reason)
	}
	return fmt.Sprintf("invalid record %d: %v", e.Index, e.Reason)
}

// Is makes every RecordError match ErrInvalidRecord.
func (e *RecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}

func (e *RecordError) Unwrap() error {
	return e.Reason
}

// InvalidArgument builds an ErrInvalidArgument with a formatted detail.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

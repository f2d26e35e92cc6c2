package aimerge

import (
	"errors"
	"fmt"
)

// ErrGeneration matches every *GenerationError with errors.Is.
var ErrGeneration = errors.New("schedule generation failed")

// Generation failure reasons.
const (
	ReasonService     = "service"     // the client returned an error
	ReasonTimeout     = "timeout"     // the deadline passed or the call was cancelled
	ReasonUnparseable = "unparseable" // no JSON object could be decoded from the response
)

// GenerationError reports that the external service produced nothing usable.
// It is distinct from a validation failure: the remedy is to retry the call,
// not to fix the data.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v (%s)", ErrGeneration, e.Reason)
	}
	return fmt.Sprintf("%v (%s): %v", ErrGeneration, e.Reason, e.Err)
}

// Is makes errors.Is(err, ErrGeneration) true for any *GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

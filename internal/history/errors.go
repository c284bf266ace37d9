package history

import (
	"errors"
	"fmt"
)

var ErrUnparsableDate = errors.New("unparsable date")

// DateError reports a dated history key that is not a valid date.
// Scope names the block it was found in, e.g. "province 12" or "country SWE".
type DateError struct {
	Scope string
	Raw   string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("history error: %s: %v %q", e.Scope, ErrUnparsableDate, e.Raw)
}

func (e *DateError) Unwrap() error { return ErrUnparsableDate }

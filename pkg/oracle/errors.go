package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoBackend reports that no configured backend can serve a call.
var ErrNoBackend = errors.New("no oracle backend available")

// TimeoutError reports a call attempt that exceeded its deadline.
type TimeoutError struct {
	Backend string
	After   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("oracle call to %s timed out after %s", e.Backend, e.After)
}

// Unwrap lets errors.Is match context.DeadlineExceeded, which the retry policy treats as transient.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

package platform

import (
	"context"
	"time"
)

// Compose cancels when either parent is cancelled or timeout elapses,
// whichever comes first, and returns the cleanup the caller must defer. This
// is the "caller signal composed with a per-call timeout" helper named in
// the suspension-point and cancellation-composition sections of the spec.
func Compose(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

package hal

import "github.com/pkg/errors"

// ErrOutOfDate means the swapchain no longer matches the
// surface and must be recreated before it can be used again.
var ErrOutOfDate = errors.New("hal: swapchain out of date")

// ErrSuboptimal means the swapchain still works but no longer
// matches the surface exactly.
var ErrSuboptimal = errors.New("hal: swapchain suboptimal")

// ErrTimeout means a wait did not complete in time.
var ErrTimeout = errors.New("hal: timeout")

// ErrDeviceLost means the logical device became unusable.
// It is never recovered from.
var ErrDeviceLost = errors.New("hal: device lost")

// IsStale reports whether err signals that the swapchain must
// be recreated.
func IsStale(err error) bool {
	return errors.Is(err, ErrOutOfDate) || errors.Is(err, ErrSuboptimal)
}

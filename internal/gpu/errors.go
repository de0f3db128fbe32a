package gpu

import (
	"errors"
	"fmt"
)

// ErrNoTarget is returned when a batch is flushed outside BeginFrame/EndFrame.
var ErrNoTarget = errors.New("gpu: no render target")

// DeviceError wraps a failure reported by the device or queue. It is fatal
// for the frame in which it occurs.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("gpu: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying hal error.
func (e *DeviceError) Unwrap() error { return e.Err }

func deviceError(op string, err error) error {
	var de *DeviceError
	if errors.As(err, &de) {
		return err
	}
	return &DeviceError{Op: op, Err: err}
}

package imdraw

import (
	"errors"

	"github.com/gogpu/imdraw/internal/batch"
	"github.com/gogpu/imdraw/internal/gpu"
	"github.com/gogpu/imdraw/shape"
	"github.com/gogpu/imdraw/text"
	"github.com/gogpu/imdraw/texture"
)

// Errors returned by the renderer. Errors from the shape, texture and text
// packages are re-exported so callers can test them with errors.Is without
// importing those packages.
var (
	// ErrInvalidGeometry rejects a single shape. Nothing is drawn for it and
	// the frame continues.
	ErrInvalidGeometry = shape.ErrInvalidGeometry

	// ErrVariantMismatch is returned when a textured or rounded shape is
	// drawn by a colour-only renderer, or when the requested slot count is
	// more than the device can bind.
	ErrVariantMismatch = batch.ErrVariantMismatch

	// ErrUnknownTexture is returned for handles the registry does not hold.
	ErrUnknownTexture = texture.ErrUnknownTexture

	// ErrAtlasFull is returned by Frame.Text when the glyph atlas has no
	// room left.
	ErrAtlasFull = text.ErrAtlasFull

	// ErrFrameClosed is returned by draw calls made after Frame.End.
	ErrFrameClosed = errors.New("imdraw: frame closed")

	// ErrFrameInProgress is returned by BeginFrame while another frame of the
	// same renderer is open.
	ErrFrameInProgress = errors.New("imdraw: frame in progress")

	// ErrStackUnderflow is returned by Pop without a matching Push.
	ErrStackUnderflow = errors.New("imdraw: state stack underflow")

	// ErrNoAdapter is returned when no usable GPU adapter or device is found.
	ErrNoAdapter = errors.New("imdraw: no GPU adapter")

	// ErrClosed is returned by a renderer after Close.
	ErrClosed = errors.New("imdraw: renderer closed")
)

// DeviceError wraps a failure reported by the GPU device or queue. It is
// fatal for the frame in which it occurs: every later draw call and End
// return it. errors.Is sees through it to the hal error, for example
// hal.ErrDeviceLost.
type DeviceError = gpu.DeviceError

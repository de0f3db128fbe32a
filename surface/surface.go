// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"context"
	"errors"
	"image"

	"github.com/gogpu/wgpu/hal"
)

// Errors.
var (
	// ErrClosed is returned by Acquire and Present after Close.
	ErrClosed = errors.New("surface: closed")

	// ErrForeignTarget is returned when Present receives a target that the
	// surface did not hand out, or one that was already presented.
	ErrForeignTarget = errors.New("surface: target not acquired from this surface")
)

// Surface is a presentation target that yields one Target per frame.
//
// Acquire may block until the presentation engine has a free image; it
// honours ctx cancellation before blocking. Every acquired target must be
// handed back to Present exactly once.
type Surface interface {
	// Acquire returns the target for the next frame.
	Acquire(ctx context.Context) (Target, error)

	// Present shows a target obtained from Acquire.
	Present(t Target) error

	// Size returns the current dimensions in pixels.
	Size() (width, height int)
}

// Target is one frame's render target.
type Target interface {
	// Size returns the target dimensions in pixels.
	Size() (width, height int)
}

// ViewTarget is a Target backed by GPU memory.
type ViewTarget interface {
	Target
	View() hal.TextureView
}

// ImageTarget is a Target backed by CPU memory.
type ImageTarget interface {
	Target
	Image() *image.RGBA
}

// Resizer is implemented by surfaces whose dimensions can change after
// creation.
type Resizer interface {
	Resize(width, height int) error
}

// clampSize keeps dimensions at least one pixel.
func clampSize(width, height int) (int, int) {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return width, height
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"context"
	"image"
	"sync"

	"golang.org/x/image/draw"
)

// Offscreen is a CPU surface rendering into an *image.RGBA.
//
// It has a single back buffer: Acquire hands out the same image every frame
// and Present copies it into the front buffer returned by Snapshot.
//
// Example:
//
//	s := surface.NewOffscreen(800, 600)
//	t, _ := s.Acquire(ctx)
//	img := t.(surface.ImageTarget).Image()
type Offscreen struct {
	mu     sync.Mutex
	back   *image.RGBA
	front  *image.RGBA
	out    *ImageFrame
	closed bool
}

// ImageFrame is the Target handed out by Offscreen.
type ImageFrame struct {
	img *image.RGBA
}

// Image returns the pixels to draw into.
func (f *ImageFrame) Image() *image.RGBA { return f.img }

// Size returns the image dimensions.
func (f *ImageFrame) Size() (width, height int) {
	b := f.img.Bounds()
	return b.Dx(), b.Dy()
}

// NewOffscreen creates an offscreen surface. Non-positive dimensions are
// clamped to one pixel.
func NewOffscreen(width, height int) *Offscreen {
	width, height = clampSize(width, height)
	return &Offscreen{
		back:  image.NewRGBA(image.Rect(0, 0, width, height)),
		front: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// NewOffscreenFromImage creates a surface that draws directly into img.
func NewOffscreenFromImage(img *image.RGBA) *Offscreen {
	b := img.Bounds()
	return &Offscreen{
		back:  img,
		front: image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy())),
	}
}

// Acquire returns the back buffer. The previous frame's pixels are kept;
// the renderer clears them when the frame begins.
func (s *Offscreen) Acquire(ctx context.Context) (Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	s.out = &ImageFrame{img: s.back}
	return s.out, nil
}

// Present copies the back buffer into the front buffer.
func (s *Offscreen) Present(t Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	f, ok := t.(*ImageFrame)
	if !ok || f != s.out {
		return ErrForeignTarget
	}
	s.out = nil
	draw.Copy(s.front, image.Point{}, f.img, f.img.Bounds(), draw.Src, nil)
	return nil
}

// Size returns the surface dimensions.
func (s *Offscreen) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.back.Bounds()
	return b.Dx(), b.Dy()
}

// Resize replaces both buffers. A target acquired before the resize can
// no longer be presented.
func (s *Offscreen) Resize(width, height int) error {
	width, height = clampSize(width, height)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.back = image.NewRGBA(image.Rect(0, 0, width, height))
	s.front = image.NewRGBA(image.Rect(0, 0, width, height))
	s.out = nil
	return nil
}

// Snapshot returns a copy of the last presented frame.
func (s *Offscreen) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.front.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	copy(img.Pix, s.front.Pix)
	return img
}

// Close releases the buffers. Closing twice is a no-op.
func (s *Offscreen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.out = nil
	return nil
}

var (
	_ Surface     = (*Offscreen)(nil)
	_ Resizer     = (*Offscreen)(nil)
	_ ImageTarget = (*ImageFrame)(nil)
)

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SwapchainConfig selects how the hal surface is configured. Zero fields take
// the defaults noted on each.
type SwapchainConfig struct {
	Width, Height int

	// Format defaults to BGRA8Unorm.
	Format gputypes.TextureFormat

	// PresentMode defaults to Fifo.
	PresentMode gputypes.PresentMode

	// AlphaMode defaults to Opaque.
	AlphaMode gputypes.CompositeAlphaMode
}

// Swapchain presents frames through a window-system surface.
//
// The hal surface is configured on creation and again on Resize or when the
// presentation engine reports it outdated. Acquire blocks in
// hal.Surface.AcquireTexture, which is where presentation backpressure comes
// from.
type Swapchain struct {
	mu      sync.Mutex
	surface hal.Surface
	device  hal.Device
	queue   hal.Queue
	config  hal.SurfaceConfiguration
	out     *SwapchainFrame
	closed  bool
}

// SwapchainFrame is the Target handed out by Swapchain.
type SwapchainFrame struct {
	texture       hal.SurfaceTexture
	view          hal.TextureView
	width, height int
	suboptimal    bool
}

// View returns the texture view to render into.
func (f *SwapchainFrame) View() hal.TextureView { return f.view }

// Size returns the frame dimensions.
func (f *SwapchainFrame) Size() (width, height int) { return f.width, f.height }

// Suboptimal reports whether the presentation engine asked for a
// reconfiguration. The frame is still usable.
func (f *SwapchainFrame) Suboptimal() bool { return f.suboptimal }

// NewSwapchain configures s for rendering with device and queue.
func NewSwapchain(s hal.Surface, device hal.Device, queue hal.Queue, cfg SwapchainConfig) (*Swapchain, error) {
	if s == nil || device == nil || queue == nil {
		return nil, errors.New("surface: swapchain needs a surface, device and queue")
	}
	if cfg.Format == gputypes.TextureFormatUndefined {
		cfg.Format = gputypes.TextureFormatBGRA8Unorm
	}
	if cfg.PresentMode == gputypes.PresentModeUndefined {
		cfg.PresentMode = gputypes.PresentModeFifo
	}
	if cfg.AlphaMode == gputypes.CompositeAlphaModeAuto {
		cfg.AlphaMode = gputypes.CompositeAlphaModeOpaque
	}
	w, h := clampSize(cfg.Width, cfg.Height)

	sc := &Swapchain{
		surface: s,
		device:  device,
		queue:   queue,
		config: hal.SurfaceConfiguration{
			Width:       uint32(w), //nolint:gosec // clamped positive
			Height:      uint32(h), //nolint:gosec // clamped positive
			Format:      cfg.Format,
			Usage:       gputypes.TextureUsageRenderAttachment,
			PresentMode: cfg.PresentMode,
			AlphaMode:   cfg.AlphaMode,
		},
	}
	if err := s.Configure(device, &sc.config); err != nil {
		return nil, fmt.Errorf("surface: configure: %w", err)
	}
	return sc, nil
}

// Format returns the configured texture format.
func (s *Swapchain) Format() gputypes.TextureFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Format
}

// Acquire waits for the next swapchain image. An outdated surface is
// reconfigured once and the acquisition retried.
func (s *Swapchain) Acquire(ctx context.Context) (Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.out != nil {
		s.discardLocked(s.out)
		s.out = nil
	}

	acquired, err := s.surface.AcquireTexture(nil)
	if errors.Is(err, hal.ErrSurfaceOutdated) {
		if err = s.surface.Configure(s.device, &s.config); err == nil {
			acquired, err = s.surface.AcquireTexture(nil)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("surface: acquire: %w", err)
	}

	view, err := s.device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
		Label:         "imdraw_swapchain_view",
		Format:        s.config.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		s.surface.DiscardTexture(acquired.Texture)
		return nil, fmt.Errorf("surface: create view: %w", err)
	}

	s.out = &SwapchainFrame{
		texture:    acquired.Texture,
		view:       view,
		width:      int(s.config.Width),
		height:     int(s.config.Height),
		suboptimal: acquired.Suboptimal,
	}
	return s.out, nil
}

// Present queues the frame for display.
func (s *Swapchain) Present(t Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	f, ok := t.(*SwapchainFrame)
	if !ok || f != s.out {
		return ErrForeignTarget
	}
	s.out = nil
	s.device.DestroyTextureView(f.view)
	if err := s.queue.Present(s.surface, f.texture, nil); err != nil {
		return fmt.Errorf("surface: present: %w", err)
	}
	return nil
}

// Discard gives an acquired frame back without presenting it.
func (s *Swapchain) Discard(t Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := t.(*SwapchainFrame); ok && f == s.out {
		s.discardLocked(f)
		s.out = nil
	}
}

func (s *Swapchain) discardLocked(f *SwapchainFrame) {
	s.device.DestroyTextureView(f.view)
	s.surface.DiscardTexture(f.texture)
}

// Size returns the configured dimensions.
func (s *Swapchain) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.config.Width), int(s.config.Height)
}

// Resize reconfigures the surface. An outstanding frame is discarded.
func (s *Swapchain) Resize(width, height int) error {
	width, height = clampSize(width, height)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.out != nil {
		s.discardLocked(s.out)
		s.out = nil
	}
	s.config.Width = uint32(width)   //nolint:gosec // clamped positive
	s.config.Height = uint32(height) //nolint:gosec // clamped positive
	if err := s.surface.Configure(s.device, &s.config); err != nil {
		return fmt.Errorf("surface: configure: %w", err)
	}
	return nil
}

// Close unconfigures the surface. The hal surface itself stays owned by the
// caller.
func (s *Swapchain) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.out != nil {
		s.discardLocked(s.out)
		s.out = nil
	}
	s.surface.Unconfigure(s.device)
	return nil
}

var (
	_ Surface    = (*Swapchain)(nil)
	_ Resizer    = (*Swapchain)(nil)
	_ ViewTarget = (*SwapchainFrame)(nil)
)

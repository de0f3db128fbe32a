// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the presentation targets a frame is drawn into.
//
// A Surface hands out one Target per frame through Acquire and takes it back
// through Present. Two implementations ship with the package:
//
//   - Offscreen: CPU memory, targets expose Image() *image.RGBA
//   - Swapchain: a configured hal.Surface, targets expose View() hal.TextureView
//
// # Registry
//
// Backends register a factory under a name and a priority. NewSurface tries
// the available backends from the highest priority down and returns the first
// one that accepts the options:
//
//	surface.Register("swapchain", 100, swapchainFactory, nil)
//
//	// Later:
//	s, err := surface.NewSurface(surface.Options{Width: 800, Height: 600})
//
// # Usage
//
//	s := surface.NewOffscreen(800, 600)
//	t, err := s.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	// draw into t.(surface.ImageTarget).Image()
//	if err := s.Present(t); err != nil {
//	    return err
//	}
//	img := s.Snapshot()
package surface

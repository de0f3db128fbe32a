// Package imdraw is an immediate-mode 2D drawing API on a batched GPU
// renderer.
//
// # Quick Start
//
//	r, err := imdraw.New(imdraw.WithSize(512, 512))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	f, err := r.BeginFrame(ctx)
//	if err != nil {
//	    return err
//	}
//	f.SetColor(shape.Hex("#3366cc"))
//	f.RoundedRect(32, 32, 200, 120, 16)
//	f.Circle(300, 300, 64)
//	if err := f.End(); err != nil {
//	    return err
//	}
//	img := r.Surface().(*surface.Offscreen).Snapshot()
//
// # Batching
//
// Every draw call becomes a shape that emits vertices into the open batch.
// A batch binds at most 4 or 16 textures, chosen with WithSlots or from the
// device limits. The batch is submitted as one indexed draw when a shape
// needs a texture that no longer fits, and at End. Batches are submitted in
// draw order so later shapes always cover earlier ones.
//
// Rounded corners, circles and ellipses are not tessellated. Their quads
// carry a rounding box and per-corner radii, and the fragment program
// discards the pixels outside the rounded outline.
//
// # Backends
//
// With WithDevice (or NewFromProvider) frames drawn into a swapchain are
// rendered by the GPU through the gogpu/wgpu hal. Frames drawn into an
// offscreen image are rasterized on the CPU by the same rules, which is
// also how the renderer works without any device.
//
// # Coordinate System
//
// Origin (0,0) at the top-left of the target, X to the right, Y down,
// angles in radians. Positions are pixels, transformed by the frame's
// current transform.
package imdraw

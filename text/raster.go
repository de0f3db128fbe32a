package text

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// mask is one rasterized glyph before packing.
type mask struct {
	id sfnt.GlyphIndex
	// img is nil for glyphs without outline, such as space.
	img *image.Alpha
	// offset of the mask's top-left from the pen on the baseline, in pixels.
	offX, offY int
}

// rasterize renders glyph id at ppem into an alpha mask. The mask is
// snapped to whole pixels around the outline's bounds.
func rasterize(f *sfnt.Font, buf *sfnt.Buffer, id sfnt.GlyphIndex, ppem fixed.Int26_6) (mask, error) {
	segs, err := f.LoadGlyph(buf, id, ppem, nil)
	if err != nil {
		return mask{}, fmt.Errorf("text: load glyph %d: %w", id, err)
	}
	if len(segs) == 0 {
		return mask{id: id}, nil
	}

	minX, minY := math32.Inf(1), math32.Inf(1)
	maxX, maxY := math32.Inf(-1), math32.Inf(-1)
	for _, s := range segs {
		for _, p := range s.Args[:segmentArgs(s.Op)] {
			x, y := fixedToFloat(p.X), fixedToFloat(p.Y)
			minX, minY = math32.Min(minX, x), math32.Min(minY, y)
			maxX, maxY = math32.Max(maxX, x), math32.Max(maxY, y)
		}
	}
	x0, y0 := int(math32.Floor(minX)), int(math32.Floor(minY))
	x1, y1 := int(math32.Ceil(maxX)), int(math32.Ceil(maxY))
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return mask{id: id}, nil
	}

	dx, dy := float32(-x0), float32(-y0)
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	open := false
	for _, s := range segs {
		a := s.Args
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(fixedToFloat(a[0].X)+dx, fixedToFloat(a[0].Y)+dy)
			open = true
		case sfnt.SegmentOpLineTo:
			z.LineTo(fixedToFloat(a[0].X)+dx, fixedToFloat(a[0].Y)+dy)
		case sfnt.SegmentOpQuadTo:
			z.QuadTo(
				fixedToFloat(a[0].X)+dx, fixedToFloat(a[0].Y)+dy,
				fixedToFloat(a[1].X)+dx, fixedToFloat(a[1].Y)+dy,
			)
		case sfnt.SegmentOpCubeTo:
			z.CubeTo(
				fixedToFloat(a[0].X)+dx, fixedToFloat(a[0].Y)+dy,
				fixedToFloat(a[1].X)+dx, fixedToFloat(a[1].Y)+dy,
				fixedToFloat(a[2].X)+dx, fixedToFloat(a[2].Y)+dy,
			)
		}
	}
	if open {
		z.ClosePath()
	}

	img := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(img, img.Bounds(), image.Opaque, image.Point{})
	return mask{id: id, img: img, offX: x0, offY: y0}, nil
}

func segmentArgs(op sfnt.SegmentOp) int {
	switch op {
	case sfnt.SegmentOpQuadTo:
		return 2
	case sfnt.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}

func fixedToFloat(v fixed.Int26_6) float32 { return float32(v) / 64 }

func floatToFixed(v float32) fixed.Int26_6 { return fixed.Int26_6(math32.Round(v * 64)) }

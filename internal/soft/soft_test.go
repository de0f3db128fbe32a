package soft

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/imdraw/internal/batch"
	"github.com/gogpu/imdraw/internal/shader"
	"github.com/gogpu/imdraw/shape"
	"github.com/gogpu/imdraw/texture"
)

func newTarget(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// render draws shapes in order through an accumulator.
func render(t *testing.T, dst *image.RGBA, reg *texture.Registry, variant shader.Variant, shapes ...shape.Shape) *Rasterizer {
	t.Helper()
	r := New(dst, reg)
	r.Clear(color.Black)
	acc := batch.New(r, variant)
	sp := shape.NewSpace(float32(dst.Bounds().Dx()), float32(dst.Bounds().Dy()))
	for _, s := range shapes {
		if err := acc.Submit(s, sp); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	if err := acc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return r
}

func TestFillRect(t *testing.T) {
	dst := newTarget(8, 8)
	render(t, dst, nil, shader.Color, shape.Rect{Pos: shape.V(2, 2), Size: shape.V(4, 4), Color: shape.RGB(1, 0, 0)})

	for y := range 8 {
		for x := range 8 {
			inside := x >= 2 && x < 6 && y >= 2 && y < 6
			got := dst.RGBAAt(x, y)
			if inside && got != (color.RGBA{255, 0, 0, 255}) {
				t.Fatalf("(%d,%d) = %v, want red", x, y, got)
			}
			if !inside && got != (color.RGBA{0, 0, 0, 255}) {
				t.Fatalf("(%d,%d) = %v, want black", x, y, got)
			}
		}
	}
}

func TestSharedEdgeBlendsOnce(t *testing.T) {
	dst := newTarget(16, 16)
	render(t, dst, nil, shader.Color, shape.Rect{Size: shape.V(16, 16), Color: shape.RGBA(1, 1, 1, 0.5)})

	want := dst.RGBAAt(0, 0)
	for y := range 16 {
		for x := range 16 {
			if got := dst.RGBAAt(x, y); got != want {
				t.Fatalf("(%d,%d) = %v, want %v: diagonal blended twice", x, y, got, want)
			}
		}
	}
	if want.R < 126 || want.R > 129 {
		t.Errorf("half white over black = %v", want)
	}
}

func TestPainterOrderWithinBatch(t *testing.T) {
	dst := newTarget(4, 4)
	render(t, dst, nil, shader.Color,
		shape.Rect{Size: shape.V(4, 4), Color: shape.RGB(1, 0, 0)},
		shape.Rect{Size: shape.V(4, 4), Color: shape.RGB(0, 0, 1)},
	)
	if got := dst.RGBAAt(1, 1); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("pixel = %v, want the later blue rect", got)
	}
}

func TestPainterOrderAcrossFlushes(t *testing.T) {
	reg := texture.NewRegistry()
	var shapes []shape.Shape
	for i := range 6 {
		c := uint8(40 * (i + 1))
		h, err := reg.Register(uniform(2, 2, color.NRGBA{c, c, c, 255}))
		if err != nil {
			t.Fatal(err)
		}
		shapes = append(shapes, shape.Image{Tex: h, TexSize: shape.V(2, 2), Size: shape.V(4, 4), Tint: shape.White})
	}
	dst := newTarget(4, 4)
	render(t, dst, reg, shader.Textured4, shapes...)

	if got := dst.RGBAAt(2, 2); got != (color.RGBA{240, 240, 240, 255}) {
		t.Errorf("pixel = %v, want the last image", got)
	}
}

func TestCircleDiscardsCorners(t *testing.T) {
	dst := newTarget(20, 20)
	render(t, dst, nil, shader.Textured4, shape.Circle(shape.V(10, 10), 10, shape.White))

	if got := dst.RGBAAt(10, 10); got.R != 255 {
		t.Errorf("centre = %v", got)
	}
	for _, p := range []image.Point{{0, 0}, {19, 0}, {0, 19}, {19, 19}, {1, 2}} {
		if got := dst.RGBAAt(p.X, p.Y); got.R != 0 {
			t.Errorf("corner %v = %v, want background", p, got)
		}
	}
	if got := dst.RGBAAt(0, 10); got.R != 255 {
		t.Errorf("left edge midpoint = %v, want covered", got)
	}
}

func TestZeroRadiiMatchesPlainRect(t *testing.T) {
	r := shape.Rect{Pos: shape.V(1, 3), Size: shape.V(9, 5), Color: shape.RGB(0, 1, 0)}
	plain := newTarget(12, 12)
	render(t, plain, nil, shader.Color, r)

	rounded := newTarget(12, 12)
	img := texture.NewRegistry()
	h, _ := img.Register(uniform(1, 1, color.NRGBA{255, 255, 255, 255}))
	// the image forces a textured batch for the rect as well
	render(t, rounded, img, shader.Textured4, shape.Image{Tex: h, TexSize: shape.V(1, 1), Size: shape.V(0, 0), Tint: shape.White}, r)

	for y := range 12 {
		for x := range 12 {
			if plain.RGBAAt(x, y) != rounded.RGBAAt(x, y) {
				t.Fatalf("(%d,%d): colour variant %v, textured variant %v", x, y, plain.RGBAAt(x, y), rounded.RGBAAt(x, y))
			}
		}
	}
}

func TestNearestTexture(t *testing.T) {
	tex := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	tex.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	tex.SetNRGBA(1, 0, color.NRGBA{0, 255, 0, 255})
	tex.SetNRGBA(0, 1, color.NRGBA{0, 0, 255, 255})
	tex.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 255})
	reg := texture.NewRegistry()
	h, err := reg.Register(tex, texture.WithFilter(texture.Nearest))
	if err != nil {
		t.Fatal(err)
	}

	dst := newTarget(4, 4)
	render(t, dst, reg, shader.Textured4, shape.Image{Tex: h, TexSize: shape.V(2, 2), Size: shape.V(4, 4), Tint: shape.White})

	for _, tt := range []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, color.RGBA{255, 0, 0, 255}},
		{3, 0, color.RGBA{0, 255, 0, 255}},
		{0, 3, color.RGBA{0, 0, 255, 255}},
		{3, 3, color.RGBA{255, 255, 255, 255}},
	} {
		if got := dst.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestTintMultiplies(t *testing.T) {
	reg := texture.NewRegistry()
	h, _ := reg.Register(uniform(1, 1, color.NRGBA{255, 255, 255, 255}))
	dst := newTarget(2, 2)
	render(t, dst, reg, shader.Textured4, shape.Image{Tex: h, TexSize: shape.V(1, 1), Size: shape.V(2, 2), Tint: shape.RGB(1, 0, 0)})
	if got := dst.RGBAAt(1, 1); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("tinted = %v", got)
	}
}

func TestUnknownTexture(t *testing.T) {
	r := New(newTarget(2, 2), texture.NewRegistry())
	err := r.Flush(&batch.Batch{Variant: shader.Textured4, Textures: []texture.Handle{42}})
	if !errors.Is(err, texture.ErrUnknownTexture) {
		t.Errorf("Flush = %v, want ErrUnknownTexture", err)
	}
}

func uniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

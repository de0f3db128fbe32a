package text

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/imdraw/texture"
)

func newAtlas(t *testing.T, size int) *Atlas {
	t.Helper()
	a, err := NewAtlas(texture.NewRegistry(), size)
	if err != nil {
		t.Fatalf("NewAtlas: %v", err)
	}
	return a
}

func TestAtlasAllocate(t *testing.T) {
	a := newAtlas(t, 64)

	tests := []struct {
		name string
		w, h int
		want region
		ok   bool
	}{
		{"first shelf", 10, 10, region{0, 0, 10, 10}, true},
		{"same shelf", 10, 8, region{11, 0, 10, 8}, true},
		{"taller opens shelf", 10, 20, region{0, 11, 10, 20}, true},
		{"best fit shelf", 5, 5, region{22, 0, 5, 5}, true},
		{"too wide", 64, 1, region{}, false},
		{"empty", 0, 3, region{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := a.allocate(tt.w, tt.h)
			if ok != tt.ok || got != tt.want {
				t.Errorf("allocate(%d, %d) = %v, %v; want %v, %v", tt.w, tt.h, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestAtlasFillsUp(t *testing.T) {
	a := newAtlas(t, 64)
	m := image.NewAlpha(image.Rect(0, 0, 31, 31))
	for i := range 4 {
		if _, err := a.add(m); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if _, err := a.add(m); !errors.Is(err, ErrAtlasFull) {
		t.Errorf("fifth add = %v, want ErrAtlasFull", err)
	}
}

func TestAtlasCopiesCoverage(t *testing.T) {
	a := newAtlas(t, 64)
	m := image.NewAlpha(image.Rect(0, 0, 2, 2))
	m.Pix = []uint8{10, 20, 30, 40}
	uv, err := a.add(m)
	if err != nil {
		t.Fatal(err)
	}
	if uv.Min.X != 0 || uv.Max.X != 2.0/64 {
		t.Errorf("uv = %v", uv)
	}
	if got := a.img.NRGBAAt(1, 1); got.A != 40 || got.R != 0xff {
		t.Errorf("pixel (1,1) = %v, want white with alpha 40", got)
	}
	if got := a.img.NRGBAAt(5, 5); got.A != 0 {
		t.Errorf("untouched pixel alpha = %d, want 0", got.A)
	}
}

func TestAtlasSyncUploadsOnce(t *testing.T) {
	reg := texture.NewRegistry()
	a, err := NewAtlas(reg, 64)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Sync(); err != nil {
		t.Fatal(err)
	}
	if e, _ := reg.Lookup(a.Handle()); e.Version != 0 {
		t.Errorf("clean atlas uploaded, version %d", e.Version)
	}
	if _, err := a.add(image.NewAlpha(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := a.Sync(); err != nil {
			t.Fatal(err)
		}
	}
	if e, _ := reg.Lookup(a.Handle()); e.Version != 1 {
		t.Errorf("version = %d, want 1", e.Version)
	}
}

func TestAtlasMinimumSize(t *testing.T) {
	if a := newAtlas(t, 8); a.Size() != MinAtlasSize {
		t.Errorf("Size() = %d, want %d", a.Size(), MinAtlasSize)
	}
}

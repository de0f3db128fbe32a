package text

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/imdraw/shape"
	"github.com/gogpu/imdraw/texture"
)

// Atlas settings.
const (
	// DefaultAtlasSize is the default atlas dimension.
	DefaultAtlasSize = 1024

	// MinAtlasSize is the smallest atlas dimension.
	MinAtlasSize = 64

	// atlasPadding keeps bilinear taps from bleeding into neighbours.
	atlasPadding = 1
)

// region is a pixel rectangle inside the atlas.
type region struct {
	x, y, w, h int
}

// shelf is one horizontal strip of the shelf packer.
type shelf struct {
	y      int
	height int
	nextX  int
}

// Atlas packs glyph coverage masks into one square texture.
//
// Pixels are white with the coverage in alpha, so a tint colour passes
// through unchanged. Packing never evicts; when a glyph does not fit the
// atlas reports ErrAtlasFull and Reset must be called between frames.
type Atlas struct {
	mu       sync.Mutex
	size     int
	shelves  []shelf
	img      *image.NRGBA
	registry *texture.Registry
	handle   texture.Handle
	dirty    bool
	count    int
	// gen increases on Reset so faces can drop stale UVs.
	gen uint64
}

// NewAtlas creates an empty atlas and registers it in reg. Sizes below
// MinAtlasSize are raised to it.
func NewAtlas(reg *texture.Registry, size int) (*Atlas, error) {
	if size < MinAtlasSize {
		size = MinAtlasSize
	}
	a := &Atlas{
		size:     size,
		registry: reg,
		img:      blankAtlas(size),
	}
	h, err := reg.Register(a.img, texture.WithLabel("imdraw_glyph_atlas"))
	if err != nil {
		return nil, fmt.Errorf("text: register atlas: %w", err)
	}
	a.handle = h
	return a, nil
}

func blankAtlas(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 0xff, 0xff, 0xff
	}
	return img
}

// Handle returns the atlas texture.
func (a *Atlas) Handle() texture.Handle { return a.handle }

// Size returns the atlas dimension in pixels.
func (a *Atlas) Size() int { return a.size }

// Len returns the number of packed masks.
func (a *Atlas) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// add packs mask and returns its normalized UV rectangle.
func (a *Atlas) add(mask *image.Alpha) (shape.Bounds, error) {
	b := mask.Bounds()

	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.allocate(b.Dx(), b.Dy())
	if !ok {
		return shape.Bounds{}, fmt.Errorf("%w: %dx%d glyph in %d atlas", ErrAtlasFull, b.Dx(), b.Dy(), a.size)
	}
	for y := 0; y < r.h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+r.w]
		off := a.img.PixOffset(r.x, r.y+y)
		for x, cov := range row {
			a.img.Pix[off+4*x+3] = cov
		}
	}
	a.dirty = true
	a.count++
	return a.uv(r), nil
}

// allocate finds room for a w x h rectangle. It prefers the existing shelf
// that wastes the least height and opens a new shelf otherwise.
func (a *Atlas) allocate(w, h int) (region, bool) {
	pw, ph := w+atlasPadding, h+atlasPadding
	if w <= 0 || h <= 0 || pw > a.size || ph > a.size {
		return region{}, false
	}

	best := -1
	for i, s := range a.shelves {
		if s.nextX+pw > a.size || ph > s.height {
			continue
		}
		if best < 0 || s.height < a.shelves[best].height {
			best = i
		}
	}
	if best < 0 {
		y := 0
		if n := len(a.shelves); n > 0 {
			y = a.shelves[n-1].y + a.shelves[n-1].height
		}
		if y+ph > a.size {
			return region{}, false
		}
		a.shelves = append(a.shelves, shelf{y: y, height: ph})
		best = len(a.shelves) - 1
	}

	s := &a.shelves[best]
	r := region{x: s.nextX, y: s.y, w: w, h: h}
	s.nextX += pw
	return r, true
}

func (a *Atlas) uv(r region) shape.Bounds {
	inv := 1 / float32(a.size)
	return shape.Bounds{
		Min: shape.V(float32(r.x)*inv, float32(r.y)*inv),
		Max: shape.V(float32(r.x+r.w)*inv, float32(r.y+r.h)*inv),
	}
}

// Sync uploads the atlas if masks were added since the last Sync.
func (a *Atlas) Sync() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.dirty {
		return nil
	}
	if err := a.registry.Update(a.handle, a.img); err != nil {
		return fmt.Errorf("text: upload atlas: %w", err)
	}
	a.dirty = false
	slogger().Debug("text: atlas synced", "glyphs", a.count, "shelves", len(a.shelves))
	return nil
}

// Reset empties the atlas. Faces drawing from it notice on their next
// Layout and rasterize again. Glyph quads laid out before the reset must
// not be drawn after it.
func (a *Atlas) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shelves = a.shelves[:0]
	a.img = blankAtlas(a.size)
	a.count = 0
	a.dirty = true
	a.gen++
}

func (a *Atlas) generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen
}

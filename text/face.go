package text

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/chewxy/math32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/imdraw/shape"
	"github.com/gogpu/imdraw/texture"
)

// Metrics are vertical font metrics in pixels.
type Metrics struct {
	// Ascent is the distance from the top of a line to its baseline.
	Ascent float32
	// Descent is the distance from the baseline to the bottom of a line,
	// positive downwards.
	Descent float32
	// LineHeight is the distance between consecutive baselines.
	LineHeight float32
}

// cached is a packed glyph.
type cached struct {
	uv         shape.Bounds
	offX, offY float32
	w, h       float32
	blank      bool
}

// Face is a font at one pixel size bound to a glyph atlas.
type Face struct {
	size    float32
	ppem    fixed.Int26_6
	font    *sfnt.Font
	shaper  *shaper
	atlas   *Atlas
	metrics Metrics

	mu     sync.Mutex
	buf    sfnt.Buffer
	glyphs map[sfnt.GlyphIndex]cached
	gen    uint64
}

// Default returns Go Regular at size pixels.
func Default(reg *texture.Registry, size float32, opts ...Option) (*Face, error) {
	return NewFace(reg, goregular.TTF, size, opts...)
}

// NewFace parses TrueType or OpenType data and prepares it at size pixels
// per em. Unless WithAtlas is given, a new atlas is registered in reg.
func NewFace(reg *texture.Registry, data []byte, size float32, opts ...Option) (*Face, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	if !(size > 0) || math32.IsInf(size, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSize, size)
	}
	cfg := defaultFaceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	ppem := floatToFixed(size)
	sh, err := newShaper(data, ppem, cfg.language, cfg.cacheSize)
	if err != nil {
		return nil, err
	}

	face := &Face{
		size:   size,
		ppem:   ppem,
		font:   f,
		shaper: sh,
		atlas:  cfg.atlas,
		glyphs: make(map[sfnt.GlyphIndex]cached),
	}
	m, err := f.Metrics(&face.buf, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("text: metrics: %w", err)
	}
	face.metrics = Metrics{
		Ascent:     fixedToFloat(m.Ascent),
		Descent:    fixedToFloat(m.Descent),
		LineHeight: fixedToFloat(m.Height),
	}
	if face.atlas == nil {
		if face.atlas, err = NewAtlas(reg, cfg.atlasSize); err != nil {
			return nil, err
		}
	}
	face.gen = face.atlas.generation()
	return face, nil
}

// Size returns the face size in pixels per em.
func (f *Face) Size() float32 { return f.size }

// Metrics returns the vertical metrics.
func (f *Face) Metrics() Metrics { return f.metrics }

// Atlas returns the atlas the face packs into.
func (f *Face) Atlas() *Atlas { return f.atlas }

// Layout returns the glyph quads of s with the top-left of its first line
// at origin. Lines are separated by '\n'.
func (f *Face) Layout(s string, origin shape.Vec2, c shape.Color) ([]shape.Glyph, error) {
	return f.AppendGlyphs(nil, s, origin, c)
}

// AppendGlyphs is Layout appending to dst.
func (f *Face) AppendGlyphs(dst []shape.Glyph, s string, origin shape.Vec2, c shape.Color) ([]shape.Glyph, error) {
	s = norm.NFC.String(s)

	f.mu.Lock()
	f.checkAtlasLocked()
	handle := f.atlas.Handle()
	baseline := origin.Y + f.metrics.Ascent
	for line := range strings.SplitSeq(s, "\n") {
		pen := origin.X
		for _, sg := range f.shaper.shape(line) {
			g, err := f.glyphLocked(sg.id)
			if err != nil {
				f.mu.Unlock()
				return dst, err
			}
			if !g.blank {
				tl := shape.V(pen+sg.x+g.offX, baseline+sg.y+g.offY)
				dst = append(dst, shape.Glyph{
					Atlas: handle,
					Dst:   shape.Bounds{Min: tl, Max: tl.Add(shape.V(g.w, g.h))},
					UV:    g.uv,
					Color: c,
				})
			}
			pen += sg.advance
		}
		baseline += f.metrics.LineHeight
	}
	f.mu.Unlock()

	return dst, f.atlas.Sync()
}

// Measure returns the advance width of the widest line and the height of
// all lines.
func (f *Face) Measure(s string) shape.Vec2 {
	s = norm.NFC.String(s)
	var width float32
	lines := 0
	for line := range strings.SplitSeq(s, "\n") {
		var w float32
		for _, sg := range f.shaper.shape(line) {
			w += sg.advance
		}
		width = math32.Max(width, w)
		lines++
	}
	height := f.metrics.Ascent + f.metrics.Descent + float32(lines-1)*f.metrics.LineHeight
	return shape.V(width, height)
}

// Preload rasterizes the glyphs of s on up to GOMAXPROCS goroutines and
// packs them, so a later Layout of the same text only looks them up.
func (f *Face) Preload(ctx context.Context, s string) error {
	s = norm.NFC.String(s)

	f.mu.Lock()
	f.checkAtlasLocked()
	seen := make(map[sfnt.GlyphIndex]bool)
	var missing []sfnt.GlyphIndex
	for line := range strings.SplitSeq(s, "\n") {
		for _, sg := range f.shaper.shape(line) {
			if _, ok := f.glyphs[sg.id]; ok || seen[sg.id] {
				continue
			}
			seen[sg.id] = true
			missing = append(missing, sg.id)
		}
	}
	f.mu.Unlock()

	if len(missing) == 0 {
		return nil
	}

	masks := make([]mask, len(missing))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range missing {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var buf sfnt.Buffer
			m, err := rasterize(f.font, &buf, id, f.ppem)
			if err != nil {
				return err
			}
			masks[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.mu.Lock()
	for _, m := range masks {
		if _, ok := f.glyphs[m.id]; ok {
			continue
		}
		if err := f.packLocked(m); err != nil {
			f.mu.Unlock()
			return err
		}
	}
	f.mu.Unlock()
	slogger().Debug("text: preloaded glyphs", "count", len(masks), "size", f.size)
	return f.atlas.Sync()
}

// checkAtlasLocked drops cached UVs after the atlas was reset.
func (f *Face) checkAtlasLocked() {
	if gen := f.atlas.generation(); gen != f.gen {
		clear(f.glyphs)
		f.gen = gen
	}
}

func (f *Face) glyphLocked(id sfnt.GlyphIndex) (cached, error) {
	if g, ok := f.glyphs[id]; ok {
		return g, nil
	}
	m, err := rasterize(f.font, &f.buf, id, f.ppem)
	if err != nil {
		return cached{}, err
	}
	if err := f.packLocked(m); err != nil {
		return cached{}, err
	}
	return f.glyphs[id], nil
}

func (f *Face) packLocked(m mask) error {
	if m.img == nil {
		f.glyphs[m.id] = cached{blank: true}
		return nil
	}
	uv, err := f.atlas.add(m.img)
	if err != nil {
		return err
	}
	b := m.img.Bounds()
	f.glyphs[m.id] = cached{
		uv:   uv,
		offX: float32(m.offX),
		offY: float32(m.offY),
		w:    float32(b.Dx()),
		h:    float32(b.Dy()),
	}
	return nil
}

package text

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// shapedGlyph is a glyph id with its pen-relative placement in pixels,
// Y down.
type shapedGlyph struct {
	id      sfnt.GlyphIndex
	x, y    float32
	advance float32
}

// shaper runs HarfBuzz shaping for one font at one size and caches the
// result per line.
//
// font.Font is read only and shared; font.Face and HarfbuzzShaper carry
// mutable state, so each shaping call takes its own from the pool.
type shaper struct {
	font  *font.Font
	size  fixed.Int26_6
	lang  language.Language
	pool  sync.Pool
	cache *lru.Cache[string, []shapedGlyph]
}

func newShaper(data []byte, size fixed.Int26_6, lang string, cacheSize int) (*shaper, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	s := &shaper{
		font: face.Font,
		size: size,
		lang: language.NewLanguage(lang),
	}
	s.pool.New = func() any { return &shaping.HarfbuzzShaper{} }
	if cacheSize > 0 {
		s.cache, err = lru.New[string, []shapedGlyph](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("text: shaping cache: %w", err)
		}
	}
	return s, nil
}

// shape returns the glyphs of one line. The returned slice is shared with
// the cache and must not be modified.
func (s *shaper) shape(line string) []shapedGlyph {
	if line == "" {
		return nil
	}
	if s.cache != nil {
		if g, ok := s.cache.Get(line); ok {
			return g
		}
	}

	runes := []rune(line)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(s.font),
		Size:      s.size,
		Script:    detectScript(runes),
		Language:  s.lang,
	}
	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	s.pool.Put(hb)

	glyphs := make([]shapedGlyph, len(out.Glyphs))
	for i, g := range out.Glyphs {
		glyphs[i] = shapedGlyph{
			id:      sfnt.GlyphIndex(g.GlyphID), //nolint:gosec // sfnt glyph indices are 16 bit
			x:       fixedToFloat(g.XOffset),
			y:       -fixedToFloat(g.YOffset),
			advance: fixedToFloat(g.XAdvance),
		}
	}
	if s.cache != nil {
		s.cache.Add(line, glyphs)
	}
	return glyphs
}

// detectScript returns the script of the first non-space rune. Mixed-script
// lines are shaped with that one script.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

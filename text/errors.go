package text

import "errors"

// Sentinel errors for text package.
var (
	// ErrAtlasFull is returned when a glyph does not fit into the atlas.
	ErrAtlasFull = errors.New("text: atlas full")

	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrInvalidSize is returned for a non-positive or non-finite face size.
	ErrInvalidSize = errors.New("text: invalid size")
)

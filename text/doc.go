// Package text turns strings into glyph quads for the immediate-mode
// renderer.
//
// A Face couples one font at one pixel size with a glyph Atlas. Layout
// normalizes the string to NFC, shapes it with the go-text HarfBuzz port,
// rasterizes every glyph it has not seen before from its sfnt outline with
// golang.org/x/image/vector, packs the coverage mask into the atlas and
// returns one shape.Glyph per visible glyph:
//
//	reg := texture.NewRegistry()
//	face, err := text.Default(reg, 16)
//	if err != nil {
//	    return err
//	}
//	glyphs, err := face.Layout("Hello, GoGPU!", shape.V(10, 10), shape.Black)
//
// The atlas is a texture in the registry and is re-uploaded when Layout
// adds glyphs. Faces sharing an Atlas (WithAtlas) draw from one texture and
// therefore occupy one texture slot per batch.
//
// Face and Atlas are safe for concurrent use. Preload rasterizes glyphs on
// several goroutines before packing them.
package text

// Package texture is the registry that maps texture handles to pixels and,
// once a device is attached, to GPU textures with their samplers.
//
// Decoding image files is the caller's job: Register takes any image.Image
// and stores a straight-alpha RGBA copy.
//
//	reg := texture.NewRegistry()
//	h, err := reg.Register(img)
//	...
//	entry, ok := reg.Lookup(h)
package texture

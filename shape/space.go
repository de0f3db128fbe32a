package shape

// Space maps pixel coordinates into the normalized [0, 1] viewport the
// vertex stage expects. (0, 0) is the top-left corner of the target.
type Space struct {
	Transform Affine
	Width     float32
	Height    float32
}

// NewSpace returns an identity-transformed space for a width×height
// target.
func NewSpace(width, height float32) Space {
	return Space{Transform: Identity(), Width: width, Height: height}
}

// Map transforms p and normalizes it to the viewport.
func (s Space) Map(p Vec2) Vec2 {
	p = s.Transform.Apply(p)
	if s.Width > 0 {
		p.X /= s.Width
	}
	if s.Height > 0 {
		p.Y /= s.Height
	}
	return p
}

// Unmap converts a normalized position back to pixels, ignoring the
// transform.
func (s Space) Unmap(p Vec2) Vec2 {
	return Vec2{p.X * s.Width, p.Y * s.Height}
}

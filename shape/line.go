package shape

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/imdraw/texture"
)

// Join selects how consecutive polyline segments meet.
type Join uint8

// Join styles.
const (
	// JoinNone leaves the gap between segments open.
	JoinNone Join = iota
	// JoinMerge moves both segment ends onto a shared averaged normal.
	JoinMerge
	// JoinMiter extends the outer edges to their intersection, at most
	// twice the line width from the point.
	JoinMiter
	// JoinMiterUnlimited is JoinMiter without the length limit.
	JoinMiterUnlimited
	// JoinBevel fills the gap with a flat edge.
	JoinBevel
	// JoinRound fills the gap with a disc of the line width.
	JoinRound
)

var joinNames = [...]string{"none", "merge", "miter", "miter-unlimited", "bevel", "round"}

func (j Join) String() string {
	if int(j) < len(joinNames) {
		return joinNames[j]
	}
	return "unknown"
}

// parallelEpsilon is the determinant below which two edges are treated
// as parallel.
const parallelEpsilon = 0.001

// Line is a straight segment of constant width.
type Line struct {
	From, To Vec2
	Width    float32
	Color    Color
}

// Validate implements Shape.
func (l Line) Validate() error {
	if !l.From.finite() || !l.To.finite() || !finite(l.Width) {
		return invalid("line has non-finite coordinates")
	}
	if l.Width < 0 {
		return invalid("line has negative width %v", l.Width)
	}
	return nil
}

// Texture implements Shape.
func (Line) Texture() texture.Handle { return 0 }

// Rounded implements Shape.
func (Line) Rounded() bool { return false }

// Emit implements Shape.
func (l Line) Emit(m *Mesh, sp Space, slot uint32) {
	a := plain(l.Color, slot)
	s := newSegment(l.From, l.To, l.Width, l.Width)
	s.emit(m, sp, a)
}

// LinePoint is one vertex of a polyline. Width applies at the point and
// Join describes how the segments meeting there are connected; the join
// of the first and last point is unused.
type LinePoint struct {
	Pos   Vec2
	Width float32
	Join  Join
}

// Polyline is a connected sequence of segments whose width may vary per
// point.
type Polyline struct {
	Points []LinePoint
	Color  Color
}

// Validate implements Shape.
func (pl Polyline) Validate() error {
	if len(pl.Points) < 2 {
		return invalid("polyline needs at least 2 points, got %d", len(pl.Points))
	}
	for i, p := range pl.Points {
		if !p.Pos.finite() || !finite(p.Width) {
			return invalid("polyline point %d is not finite", i)
		}
		if p.Width < 0 {
			return invalid("polyline point %d has negative width", i)
		}
		if p.Join > JoinRound {
			return invalid("polyline point %d has unknown join %d", i, p.Join)
		}
	}
	return nil
}

// Texture implements Shape.
func (Polyline) Texture() texture.Handle { return 0 }

// Rounded implements Shape.
func (pl Polyline) Rounded() bool {
	for i := 1; i < len(pl.Points)-1; i++ {
		if pl.Points[i].Join == JoinRound {
			return true
		}
	}
	return false
}

// Emit implements Shape.
func (pl Polyline) Emit(m *Mesh, sp Space, slot uint32) {
	pts := dedup(pl.Points)
	if len(pts) < 2 {
		return
	}
	a := plain(pl.Color, slot)
	segs := make([]segment, len(pts)-1)
	for i := range segs {
		segs[i] = newSegment(pts[i].Pos, pts[i+1].Pos, pts[i].Width, pts[i+1].Width)
	}
	for j := 1; j < len(pts)-1; j++ {
		if pts[j].Join != JoinMerge {
			continue
		}
		prev, next := &segs[j-1], &segs[j]
		n := prev.dir.Perp().Add(next.dir.Perp()).Mul(pts[j].Width / 4)
		prev.bl, prev.br = pts[j].Pos.Add(n), pts[j].Pos.Sub(n)
		next.al, next.ar = prev.bl, prev.br
	}
	for i := range segs {
		segs[i].emit(m, sp, a)
	}
	for j := 1; j < len(pts)-1; j++ {
		join(m, sp, a, pts[j], &segs[j-1], &segs[j])
	}
}

// dedup drops consecutive points at the same position.
func dedup(pts []LinePoint) []LinePoint {
	out := make([]LinePoint, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1].Pos == p.Pos {
			continue
		}
		out = append(out, p)
	}
	return out
}

// segment is the quad of one line segment: a and b are the ends, l and r
// the left and right edges relative to the direction of travel.
type segment struct {
	dir            Vec2
	al, ar, bl, br Vec2
}

func newSegment(from, to Vec2, wFrom, wTo float32) segment {
	dir := to.Sub(from).Normalize()
	nf := dir.Perp().Mul(wFrom / 2)
	nt := dir.Perp().Mul(wTo / 2)
	return segment{
		dir: dir,
		al:  from.Add(nf), ar: from.Sub(nf),
		bl: to.Add(nt), br: to.Sub(nt),
	}
}

func (s *segment) emit(m *Mesh, sp Space, a attrs) {
	m.quad(
		a.at(sp.Map(s.al), centerUV),
		a.at(sp.Map(s.bl), centerUV),
		a.at(sp.Map(s.ar), centerUV),
		a.at(sp.Map(s.br), centerUV),
	)
}

func join(m *Mesh, sp Space, a attrs, p LinePoint, prev, next *segment) {
	c := p.Pos
	tri := func(x, y, z Vec2) {
		m.tri(a.at(sp.Map(x), centerUV), a.at(sp.Map(y), centerUV), a.at(sp.Map(z), centerUV))
	}
	switch p.Join {
	case JoinBevel:
		tri(c, prev.bl, next.al)
		tri(c, prev.br, next.ar)
	case JoinMiter, JoinMiterUnlimited:
		ml := intersect(prev.bl, prev.dir, next.al, next.dir, c)
		mr := intersect(prev.br, prev.dir, next.ar, next.dir, c)
		if p.Join == JoinMiter {
			ml = limitDist(c, ml, 2*p.Width)
			mr = limitDist(c, mr, 2*p.Width)
		}
		tri(c, prev.bl, next.al)
		tri(ml, prev.bl, next.al)
		tri(c, prev.br, next.ar)
		tri(mr, prev.br, next.ar)
	case JoinRound:
		r := p.Width / 2
		disc := a
		disc.rounding = [4]uint8{255, 255, 255, 255}
		m.rotatedQuad(sp, disc, c.Sub(Vec2{r, r}), Vec2{2 * r, 2 * r}, c, 0, Vec2{}, Vec2{1, 1})
	}
}

// intersect returns where the line through p1 along d1 meets the line
// through p2 along d2, or fallback when they are parallel.
func intersect(p1, d1, p2, d2, fallback Vec2) Vec2 {
	det := d1.X*d2.Y - d1.Y*d2.X
	if math32.Abs(det) <= parallelEpsilon {
		return fallback
	}
	w := p2.Sub(p1)
	t := (w.X*d2.Y - w.Y*d2.X) / det
	return p1.Add(d1.Mul(t))
}

func limitDist(from, to Vec2, limit float32) Vec2 {
	d := to.Sub(from)
	if d.Len() <= limit {
		return to
	}
	return from.Add(d.Normalize().Mul(limit))
}

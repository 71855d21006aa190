// Package geom holds the polygon model and geometric predicates shared by
// all meshers. Polygon-level operations (area, containment, orientation)
// go through paulmach/orb; triangle quality predicates are local because
// orb has no circumcircle or element-quality primitives.
package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/planemesh/engine/internal/domain"
)

// Boundary is a validated polygon boundary normalized to counter-clockwise
// winding, together with the tolerance used by every predicate against it.
type Boundary struct {
	Points []domain.Point
	Eps    float64

	ring orb.Ring
}

// Validate checks that points form a simple polygon and returns the
// normalized boundary. It rejects fewer than three points, non-finite
// coordinates, coincident consecutive points, and self-intersecting edges.
func Validate(points []domain.Point) (*Boundary, error) {
	if len(points) < 3 {
		return nil, domain.ErrTooFewPoints.WithDetail("got %d", len(points))
	}
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return nil, domain.ErrNonFinitePoint.WithDetail("point %d", i)
		}
	}

	eps := tolerance(points)
	n := len(points)
	for i := 0; i < n; i++ {
		if Dist(points[i], points[(i+1)%n]) <= eps {
			return nil, domain.ErrCoincidentPoints.WithDetail("points %d and %d", i, (i+1)%n)
		}
	}
	if i, j, ok := findSelfIntersection(points, eps); ok {
		return nil, domain.ErrSelfIntersecting.WithDetail("edges %d and %d cross", i, j)
	}

	normalized := make([]domain.Point, n)
	copy(normalized, points)
	ring := closedRing(normalized)
	if ring.Orientation() == orb.CW {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			normalized[i], normalized[j] = normalized[j], normalized[i]
		}
		ring = closedRing(normalized)
	}

	return &Boundary{Points: normalized, Eps: eps, ring: ring}, nil
}

// Contains reports whether p lies inside or on the boundary polygon.
func (b *Boundary) Contains(p domain.Point) bool {
	return planar.RingContains(b.ring, orb.Point{p.X, p.Y})
}

// Area returns the polygon area.
func (b *Boundary) Area() float64 {
	return math.Abs(planar.Area(b.ring))
}

// Bound returns the bounding box corners.
func (b *Boundary) Bound() (min, max domain.Point) {
	bd := b.ring.Bound()
	return domain.Point{X: bd.Min.X(), Y: bd.Min.Y()}, domain.Point{X: bd.Max.X(), Y: bd.Max.Y()}
}

// Diagonal returns the bounding-box diagonal length, the scale every
// tolerance in the engine is derived from.
func (b *Boundary) Diagonal() float64 {
	min, max := b.Bound()
	return math.Hypot(max.X-min.X, max.Y-min.Y)
}

// EdgeDistance returns the distance from p to the nearest polygon edge.
func (b *Boundary) EdgeDistance(p domain.Point) float64 {
	n := len(b.Points)
	min := math.Inf(1)
	for i := 0; i < n; i++ {
		d := distToSegment(p, b.Points[i], b.Points[(i+1)%n])
		if d < min {
			min = d
		}
	}
	return min
}

func distToSegment(p, a, b domain.Point) float64 {
	abx := b.X - a.X
	aby := b.Y - a.Y
	l2 := abx*abx + aby*aby
	if l2 == 0 {
		return Dist(p, a)
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / l2
	t = clamp(t, 0, 1)
	return math.Hypot(p.X-(a.X+t*abx), p.Y-(a.Y+t*aby))
}

// Densify subdivides boundary edges longer than targetEdge, returning a new
// boundary point sequence. Inserted points carry no caller ID.
func Densify(points []domain.Point, targetEdge float64) []domain.Point {
	if targetEdge <= 0 {
		out := make([]domain.Point, len(points))
		copy(out, points)
		return out
	}
	var out []domain.Point
	n := len(points)
	for i := 0; i < n; i++ {
		p1 := points[i]
		p2 := points[(i+1)%n]
		out = append(out, p1)

		edge := Dist(p1, p2)
		if edge <= targetEdge {
			continue
		}
		segments := int(math.Ceil(edge / targetEdge))
		for j := 1; j < segments; j++ {
			t := float64(j) / float64(segments)
			out = append(out, domain.Point{
				X: p1.X + t*(p2.X-p1.X),
				Y: p1.Y + t*(p2.Y-p1.Y),
			})
		}
	}
	return out
}

func closedRing(points []domain.Point) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	ring = append(ring, ring[0])
	return ring
}

// tolerance scales the working epsilon to the input's bounding-box diagonal
// so predicates stay stable on very small or very large coordinate ranges.
func tolerance(points []domain.Point) float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	diag := math.Hypot(maxX-minX, maxY-minY)
	return math.Max(1e-12, 1e-9*diag)
}

// findSelfIntersection scans all non-adjacent edge pairs for a crossing.
func findSelfIntersection(points []domain.Point, eps float64) (int, int, bool) {
	n := len(points)
	for i := 0; i < n; i++ {
		a1 := points[i]
		a2 := points[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip the edge itself and edges sharing an endpoint.
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			b1 := points[j]
			b2 := points[(j+1)%n]
			if segmentsCross(a1, a2, b1, b2, eps) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// segmentsCross reports whether segments a1a2 and b1b2 intersect anywhere,
// including collinear overlap, for segments that share no endpoint.
func segmentsCross(a1, a2, b1, b2 domain.Point, eps float64) bool {
	d1 := cross(b1, b2, a1)
	d2 := cross(b1, b2, a2)
	d3 := cross(a1, a2, b1)
	d4 := cross(a1, a2, b2)

	if ((d1 > eps && d2 < -eps) || (d1 < -eps && d2 > eps)) &&
		((d3 > eps && d4 < -eps) || (d3 < -eps && d4 > eps)) {
		return true
	}

	if math.Abs(d1) <= eps && onSegment(b1, b2, a1, eps) {
		return true
	}
	if math.Abs(d2) <= eps && onSegment(b1, b2, a2, eps) {
		return true
	}
	if math.Abs(d3) <= eps && onSegment(a1, a2, b1, eps) {
		return true
	}
	if math.Abs(d4) <= eps && onSegment(a1, a2, b2, eps) {
		return true
	}
	return false
}

// cross returns the z component of (b-a) x (p-a).
func cross(a, b, p domain.Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// onSegment assumes p is collinear with ab and checks it lies within the
// segment's extent.
func onSegment(a, b, p domain.Point, eps float64) bool {
	return p.X >= math.Min(a.X, b.X)-eps && p.X <= math.Max(a.X, b.X)+eps &&
		p.Y >= math.Min(a.Y, b.Y)-eps && p.Y <= math.Max(a.Y, b.Y)+eps
}

package geom

import (
	"math"

	"github.com/planemesh/engine/internal/domain"
)

// circumDegenerate guards the circumcircle denominator against collapse,
// relative to the triangle's own scale.
const circumDegenerate = 1e-10

// Dist returns the distance between two points.
func Dist(a, b domain.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Dist2 returns the squared distance between two points.
func Dist2(a, b domain.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Jacobian returns the signed parallelogram area of triangle abc.
// Positive for counter-clockwise winding.
func Jacobian(a, b, c domain.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
}

// TriangleArea returns the unsigned area of triangle abc.
func TriangleArea(a, b, c domain.Point) float64 {
	return 0.5 * math.Abs(Jacobian(a, b, c))
}

// Centroid returns the centroid of triangle abc.
func Centroid(a, b, c domain.Point) domain.Point {
	return domain.Point{X: (a.X + b.X + c.X) / 3, Y: (a.Y + b.Y + c.Y) / 3}
}

// Circumcircle returns the circumcenter and squared circumradius of
// triangle abc. ok is false for a (near-)degenerate triangle.
func Circumcircle(a, b, c domain.Point) (center domain.Point, r2 float64, ok bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	// d and the squared edge lengths both scale with the square of the
	// coordinate magnitude, so the test is invariant under uniform scaling.
	scale2 := math.Max(Dist2(a, b), math.Max(Dist2(b, c), Dist2(a, c)))
	if scale2 == 0 || math.Abs(d) < circumDegenerate*scale2 {
		return domain.Point{}, math.Inf(1), false
	}

	aa := a.X*a.X + a.Y*a.Y
	bb := b.X*b.X + b.Y*b.Y
	cc := c.X*c.X + c.Y*c.Y
	ux := (aa*(b.Y-c.Y) + bb*(c.Y-a.Y) + cc*(a.Y-b.Y)) / d
	uy := (aa*(c.X-b.X) + bb*(a.X-c.X) + cc*(b.X-a.X)) / d

	center = domain.Point{X: ux, Y: uy}
	return center, Dist2(center, a), true
}

// InCircumcircle reports whether p lies strictly inside the circle given by
// center and squared radius. The exclusion margin is proportional to the
// circle, so cocircular points test outside at any coordinate scale.
func InCircumcircle(p, center domain.Point, r2 float64) bool {
	return Dist2(center, p) < r2*(1-circumDegenerate)
}

// Angles returns the interior angles of triangle abc in degrees.
func Angles(a, b, c domain.Point) [3]float64 {
	la := Dist(b, c)
	lb := Dist(a, c)
	lc := Dist(a, b)
	if la*lb == 0 || lb*lc == 0 || la*lc == 0 {
		return [3]float64{0, 0, 0}
	}

	angA := math.Acos(clamp((lb*lb+lc*lc-la*la)/(2*lb*lc), -1, 1))
	angB := math.Acos(clamp((la*la+lc*lc-lb*lb)/(2*la*lc), -1, 1))
	angC := math.Acos(clamp((la*la+lb*lb-lc*lc)/(2*la*lb), -1, 1))
	const toDeg = 180 / math.Pi
	return [3]float64{angA * toDeg, angB * toDeg, angC * toDeg}
}

// MinAngle returns the smallest interior angle of triangle abc in degrees.
func MinAngle(a, b, c domain.Point) float64 {
	angles := Angles(a, b, c)
	return math.Min(angles[0], math.Min(angles[1], angles[2]))
}

// AspectRatio returns circumradius over twice the inradius; 1 for an
// equilateral triangle, +Inf for a degenerate one.
func AspectRatio(a, b, c domain.Point) float64 {
	la := Dist(b, c)
	lb := Dist(a, c)
	lc := Dist(a, b)

	s := (la + lb + lc) / 2
	area := math.Sqrt(math.Max(0, s*(s-la)*(s-lb)*(s-lc)))
	if area < circumDegenerate {
		return math.Inf(1)
	}
	inradius := area / s
	circumradius := la * lb * lc / (4 * area)
	return circumradius / (2 * inradius)
}

// QuadArea returns the unsigned area of quad abcd via the shoelace formula.
func QuadArea(a, b, c, d domain.Point) float64 {
	return 0.5 * math.Abs(
		(a.X*b.Y-b.X*a.Y)+
			(b.X*c.Y-c.X*b.Y)+
			(c.X*d.Y-d.X*c.Y)+
			(d.X*a.Y-a.X*d.Y))
}

// QuadMinJacobian evaluates the bilinear map's jacobian at the four gauss
// points of quad abcd and returns the minimum. Non-positive values mean the
// quad is inverted or tangled.
func QuadMinJacobian(a, b, c, d domain.Point) float64 {
	g := 1 / math.Sqrt(3)
	xi := [4]float64{-g, g, g, -g}
	eta := [4]float64{-g, -g, g, g}

	minJac := math.Inf(1)
	for i := 0; i < 4; i++ {
		dxdXi := 0.25 * (-(1-eta[i])*a.X + (1-eta[i])*b.X + (1+eta[i])*c.X - (1+eta[i])*d.X)
		dxdEta := 0.25 * (-(1-xi[i])*a.X - (1+xi[i])*b.X + (1+xi[i])*c.X + (1-xi[i])*d.X)
		dydXi := 0.25 * (-(1-eta[i])*a.Y + (1-eta[i])*b.Y + (1+eta[i])*c.Y - (1+eta[i])*d.Y)
		dydEta := 0.25 * (-(1-xi[i])*a.Y - (1+xi[i])*b.Y + (1+xi[i])*c.Y + (1-xi[i])*d.Y)

		jac := dxdXi*dydEta - dxdEta*dydXi
		minJac = math.Min(minJac, jac)
	}
	return minJac
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

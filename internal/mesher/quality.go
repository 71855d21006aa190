package mesher

import (
	"math"

	"github.com/planemesh/engine/internal/domain"
	"github.com/planemesh/engine/internal/geom"
)

// meshScore is the mean per-element shape quality in [0, 1]: triangles
// score their minimum angle against the equilateral 60 degrees, quads
// their minimum corner angle against the square 90 degrees.
func meshScore(mesh *domain.Mesh) float64 {
	if mesh.ElementCount() == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range mesh.Triangles {
		a := geom.MinAngle(mesh.Vertices[t[0]], mesh.Vertices[t[1]], mesh.Vertices[t[2]])
		sum += math.Min(1, a/60)
	}
	for _, q := range mesh.Quads {
		a := quadMinAngle(mesh.Vertices[q[0]], mesh.Vertices[q[1]], mesh.Vertices[q[2]], mesh.Vertices[q[3]])
		sum += math.Min(1, a/90)
	}
	return sum / float64(mesh.ElementCount())
}

// elementBounds returns the smallest element angle and the largest element
// area across the whole mesh.
func elementBounds(mesh *domain.Mesh) (minAngle, maxArea float64) {
	minAngle = 180.0
	for _, t := range mesh.Triangles {
		a, b, c := mesh.Vertices[t[0]], mesh.Vertices[t[1]], mesh.Vertices[t[2]]
		if ang := geom.MinAngle(a, b, c); ang < minAngle {
			minAngle = ang
		}
		if area := geom.TriangleArea(a, b, c); area > maxArea {
			maxArea = area
		}
	}
	for _, q := range mesh.Quads {
		a, b, c, d := mesh.Vertices[q[0]], mesh.Vertices[q[1]], mesh.Vertices[q[2]], mesh.Vertices[q[3]]
		if ang := quadMinAngle(a, b, c, d); ang < minAngle {
			minAngle = ang
		}
		if area := geom.QuadArea(a, b, c, d); area > maxArea {
			maxArea = area
		}
	}
	if mesh.ElementCount() == 0 {
		minAngle = 0
	}
	return minAngle, maxArea
}

// quadMinAngle returns the smallest corner angle of the quad in degrees.
func quadMinAngle(a, b, c, d domain.Point) float64 {
	corners := [4]domain.Point{a, b, c, d}
	min := 360.0
	for i := range corners {
		prev := corners[(i+3)%4]
		next := corners[(i+1)%4]
		if ang := cornerAngle(corners[i], prev, next); ang < min {
			min = ang
		}
	}
	return min
}

// cornerAngle is the angle at v between rays v->p and v->q, in degrees.
func cornerAngle(v, p, q domain.Point) float64 {
	ux, uy := p.X-v.X, p.Y-v.Y
	wx, wy := q.X-v.X, q.Y-v.Y
	nu := math.Hypot(ux, uy)
	nw := math.Hypot(wx, wy)
	if nu == 0 || nw == 0 {
		return 0
	}
	cos := (ux*wx + uy*wy) / (nu * nw)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// Package delaunay implements Bowyer-Watson Delaunay triangulation of a
// polygon interior with size/angle-driven Steiner refinement.
package delaunay

import (
	"math"

	"github.com/planemesh/engine/internal/domain"
	"github.com/planemesh/engine/internal/geom"
)

// superCount is the number of synthetic enclosing vertices; they occupy
// point slots 0..2 so real points can append freely behind them.
const superCount = 3

// triangle caches its circumcircle so the in-circle test during point
// insertion stays cheap.
type triangle struct {
	v      [3]int
	center domain.Point
	r2     float64
	ok     bool
}

func makeTriangle(v [3]int, points []domain.Point) triangle {
	center, r2, ok := geom.Circumcircle(points[v[0]], points[v[1]], points[v[2]])
	return triangle{v: v, center: center, r2: r2, ok: ok}
}

func (t *triangle) circumContains(p domain.Point) bool {
	if !t.ok {
		return false
	}
	return geom.InCircumcircle(p, t.center, t.r2)
}

func (t *triangle) touchesSuper() bool {
	return t.v[0] < superCount || t.v[1] < superCount || t.v[2] < superCount
}

// edge is an undirected vertex pair.
type edge struct {
	a, b int
}

func makeEdge(a, b int) edge {
	if a < b {
		return edge{a, b}
	}
	return edge{b, a}
}

// triangulator runs incremental Bowyer-Watson inside an oversized super
// triangle whose vertices occupy point slots 0..2.
type triangulator struct {
	points    []domain.Point
	triangles []triangle
}

// newTriangulator seeds the structure with a super triangle enclosing all
// given points and inserts every point.
func newTriangulator(points []domain.Point) *triangulator {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	delta := math.Max(maxX-minX, maxY-minY)
	if delta == 0 || math.IsInf(delta, -1) {
		delta = 1
	}
	midX := (minX + maxX) / 2
	midY := (minY + maxY) / 2

	all := make([]domain.Point, 0, len(points)+superCount)
	all = append(all,
		domain.Point{X: midX - 20*delta, Y: midY - delta},
		domain.Point{X: midX, Y: midY + 20*delta},
		domain.Point{X: midX + 20*delta, Y: midY - delta},
	)
	all = append(all, points...)

	super := [3]int{0, 1, 2}
	if geom.Jacobian(all[0], all[1], all[2]) < 0 {
		super = [3]int{2, 1, 0}
	}

	tr := &triangulator{points: all}
	tr.triangles = append(tr.triangles, makeTriangle(super, tr.points))
	for i := superCount; i < len(tr.points); i++ {
		tr.insert(i)
	}
	return tr
}

// insert splices point index i into the triangulation: removes every
// triangle whose circumcircle contains the point and refans the cavity.
func (tr *triangulator) insert(i int) {
	p := tr.points[i]

	var bad []int
	for ti := range tr.triangles {
		if tr.triangles[ti].circumContains(p) {
			bad = append(bad, ti)
		}
	}
	if len(bad) == 0 {
		// Cocircular degeneracy: the strict in-circle test found nothing.
		return
	}

	badSet := make(map[int]bool, len(bad))
	for _, ti := range bad {
		badSet[ti] = true
	}

	// A cavity-boundary edge belongs to exactly one bad triangle.
	edgeCount := make(map[edge]int)
	for _, ti := range bad {
		t := tr.triangles[ti]
		for k := 0; k < 3; k++ {
			edgeCount[makeEdge(t.v[k], t.v[(k+1)%3])]++
		}
	}

	var boundary []edge
	for _, ti := range bad {
		t := tr.triangles[ti]
		for k := 0; k < 3; k++ {
			e := makeEdge(t.v[k], t.v[(k+1)%3])
			if edgeCount[e] == 1 {
				boundary = append(boundary, e)
				edgeCount[e] = 0 // emit once
			}
		}
	}

	kept := tr.triangles[:0]
	for ti := range tr.triangles {
		if !badSet[ti] {
			kept = append(kept, tr.triangles[ti])
		}
	}
	tr.triangles = kept

	// Fan the cavity from the new point, correcting orientation.
	for _, e := range boundary {
		v := [3]int{e.a, e.b, i}
		if geom.Jacobian(tr.points[v[0]], tr.points[v[1]], tr.points[v[2]]) < 0 {
			v = [3]int{e.b, e.a, i}
		}
		tr.triangles = append(tr.triangles, makeTriangle(v, tr.points))
	}
}

// addPoint appends a new point and inserts it, returning its index.
func (tr *triangulator) addPoint(p domain.Point) int {
	tr.points = append(tr.points, p)
	i := len(tr.points) - 1
	tr.insert(i)
	return i
}

// realPoints returns the non-synthetic points in insertion order.
func (tr *triangulator) realPoints() []domain.Point {
	return tr.points[superCount:]
}

// interior returns oriented index triples (offset to real-point indexing)
// for triangles touching no super vertex.
func (tr *triangulator) interior() [][3]int {
	var out [][3]int
	for _, t := range tr.triangles {
		if t.touchesSuper() {
			continue
		}
		v := t.v
		if geom.Jacobian(tr.points[v[0]], tr.points[v[1]], tr.points[v[2]]) < 0 {
			v[1], v[2] = v[2], v[1]
		}
		out = append(out, [3]int{v[0] - superCount, v[1] - superCount, v[2] - superCount})
	}
	return out
}

// Triangulate runs plain Delaunay triangulation over a point set and
// returns CCW-oriented index triples. Used by the other meshers.
func Triangulate(points []domain.Point) [][3]int {
	return newTriangulator(points).interior()
}

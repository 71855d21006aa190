package delaunay

import (
	"math"
	"sort"

	"github.com/planemesh/engine/internal/domain"
	"github.com/planemesh/engine/internal/geom"
)

// refineBatch bounds how many Steiner points a single refinement round may
// insert, so progress checks between rounds stay meaningful.
const refineBatch = 8

// Limits are the engine-imposed hard caps that guarantee termination even
// when the requested quality is infeasible.
type Limits struct {
	MaxRefineRounds int
	MaxVertices     int
}

// WithDefaults fills zero fields with the engine defaults.
func (l Limits) WithDefaults() Limits {
	if l.MaxRefineRounds == 0 {
		l.MaxRefineRounds = 50
	}
	if l.MaxVertices == 0 {
		l.MaxVertices = 10000
	}
	return l
}

// Stats describes how a build went. CapHit means an iteration or vertex cap
// stopped refinement before every triangle met the constraints; the mesh is
// still returned.
type Stats struct {
	SteinerPoints  int
	RefineRounds   int
	CapHit         bool
	MinAngle       float64
	MaxElementArea float64
}

// Build triangulates the polygon interior honoring maxArea and minAngle
// (degrees) by seeding a hexagonal interior grid and inserting circumcenter
// Steiner points for violating triangles until conforming or capped.
func Build(b *geom.Boundary, maxArea, minAngle float64, lim Limits) (*domain.Mesh, Stats, error) {
	lim = lim.WithDefaults()

	if b.Area() < b.Eps*b.Diagonal() {
		return nil, Stats{}, domain.ErrDegenerateGeometry
	}

	stats := Stats{}

	// Edge length of an equilateral triangle with area maxArea.
	targetEdge := math.Sqrt(4 * maxArea / math.Sqrt(3))

	// The vertex budget also bounds seeding: coarsen the target edge if
	// densifying the boundary alone would eat more than half the budget.
	perimeter := 0.0
	for i := range b.Points {
		perimeter += geom.Dist(b.Points[i], b.Points[(i+1)%len(b.Points)])
	}
	if est := perimeter / targetEdge; est > float64(lim.MaxVertices)/2 {
		targetEdge = perimeter / (float64(lim.MaxVertices) / 2)
		stats.CapHit = true
	}

	boundary := geom.Densify(b.Points, targetEdge)
	r := newRefiner(b, boundary)

	seeds, truncated := hexSeeds(b, targetEdge, lim.MaxVertices-len(boundary))
	if truncated {
		stats.CapHit = true
	}
	for _, s := range seeds {
		// A seed inside a boundary segment's diametral circle could knock
		// that edge out of the triangulation; leave refinement to fill the
		// band instead.
		if r.encroachedSegment(s) < 0 {
			r.tr.addPoint(s)
		}
	}

	areaEps := maxArea * 1e-9
	angleEps := 1e-6

	for stats.RefineRounds < lim.MaxRefineRounds {
		violators := findViolators(r.tr, b, maxArea+areaEps, minAngle-angleEps)
		if len(violators) == 0 {
			break
		}

		// Triangle indices go stale the moment a point splices in, so each
		// pass walks the sorted list only until one insertion lands, then
		// re-scans.
		inserted := 0
		for inserted < refineBatch {
			if len(r.tr.realPoints()) >= lim.MaxVertices {
				stats.CapHit = true
				break
			}
			if !r.insertForWorst(violators) {
				break
			}
			stats.SteinerPoints++
			inserted++
			violators = findViolators(r.tr, b, maxArea+areaEps, minAngle-angleEps)
			if len(violators) == 0 {
				break
			}
		}
		stats.RefineRounds++

		if inserted == 0 {
			// Every remaining violator resists insertion; give up rather
			// than spin.
			stats.CapHit = true
			break
		}
		if stats.CapHit {
			break
		}
	}

	mesh := r.assemble()
	if len(mesh.Triangles) == 0 {
		return nil, Stats{}, domain.ErrDegenerateGeometry.WithDetail("no interior triangles")
	}

	stats.MinAngle, stats.MaxElementArea = meshQualityBounds(mesh)
	if stats.MaxElementArea > maxArea+areaEps || stats.MinAngle < minAngle-angleEps {
		stats.CapHit = true
	}
	return mesh, stats, nil
}

// seg is a boundary edge, stored as point indices so splits compose.
type seg struct {
	a, b int
}

// refiner couples the triangulator with the boundary segments refinement
// must keep intact: a Steiner point inside a segment's diametral circle can
// remove that edge from the Delaunay triangulation, opening a gap at the
// boundary once exterior triangles are filtered out.
type refiner struct {
	tr       *triangulator
	b        *geom.Boundary
	segs     []seg
	boundary map[int]bool
}

func newRefiner(b *geom.Boundary, boundaryPts []domain.Point) *refiner {
	r := &refiner{
		tr:       newTriangulator(boundaryPts),
		b:        b,
		boundary: make(map[int]bool, len(boundaryPts)),
	}
	n := len(boundaryPts)
	for i := 0; i < n; i++ {
		r.boundary[superCount+i] = true
		r.segs = append(r.segs, seg{superCount + i, superCount + (i+1)%n})
	}
	return r
}

// encroachedSegment returns the index of a boundary segment whose diametral
// circle strictly contains p, or -1.
func (r *refiner) encroachedSegment(p domain.Point) int {
	for si, s := range r.segs {
		a, b := r.tr.points[s.a], r.tr.points[s.b]
		mid := domain.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
		if geom.Dist2(p, mid) < geom.Dist2(a, b)/4 {
			return si
		}
	}
	return -1
}

// splitSegment inserts the midpoint of segment si as a new boundary vertex
// and replaces the segment with its two halves.
func (r *refiner) splitSegment(si int) bool {
	s := r.segs[si]
	a, b := r.tr.points[s.a], r.tr.points[s.b]
	mid := domain.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	if nearExisting(r.tr, mid, r.b.Eps) {
		return false
	}
	i := r.tr.addPoint(mid)
	r.boundary[i] = true
	r.segs[si] = seg{s.a, i}
	r.segs = append(r.segs, seg{i, s.b})
	return true
}

// insertForWorst places one Steiner point for the first violator that
// admits a site: the circumcenter when it lands inside the polygon, else
// the centroid. A site that encroaches a boundary segment splits that
// segment at its midpoint instead, Ruppert style. Reports whether any
// point was inserted.
func (r *refiner) insertForWorst(violators []int) bool {
	for _, ti := range violators {
		t := r.tr.triangles[ti]
		p0, p1, p2 := r.tr.points[t.v[0]], r.tr.points[t.v[1]], r.tr.points[t.v[2]]

		var site domain.Point
		if t.ok && r.b.Contains(t.center) && !nearExisting(r.tr, t.center, r.b.Eps) {
			site = t.center
		} else {
			c := geom.Centroid(p0, p1, p2)
			if !r.b.Contains(c) || nearExisting(r.tr, c, r.b.Eps) {
				continue
			}
			site = c
		}

		if si := r.encroachedSegment(site); si >= 0 {
			if r.splitSegment(si) {
				return true
			}
			continue
		}
		r.tr.addPoint(site)
		return true
	}
	return false
}

// assemble extracts the final mesh: every real point, reordered so the
// boundary vertices (including segment-split midpoints) come first, plus
// the oriented triangles whose centroid lies inside the polygon.
func (r *refiner) assemble() *domain.Mesh {
	pts := r.tr.realPoints()

	perm := make([]int, len(pts))
	vertices := make([]domain.Point, 0, len(pts))
	for i := range pts {
		if r.boundary[superCount+i] {
			perm[i] = len(vertices)
			vertices = append(vertices, pts[i])
		}
	}
	boundaryCount := len(vertices)
	for i := range pts {
		if !r.boundary[superCount+i] {
			perm[i] = len(vertices)
			vertices = append(vertices, pts[i])
		}
	}

	var triangles [][3]int
	for _, v := range r.tr.interior() {
		c := geom.Centroid(pts[v[0]], pts[v[1]], pts[v[2]])
		if !r.b.Contains(c) {
			continue
		}
		triangles = append(triangles, [3]int{perm[v[0]], perm[v[1]], perm[v[2]]})
	}

	return &domain.Mesh{
		Vertices:      vertices,
		Triangles:     triangles,
		BoundaryCount: boundaryCount,
	}
}

// hexSeeds lays a staggered hexagonal grid of interior points, keeping a
// clearance from the boundary so the band next to it cannot degenerate into
// slivers. At most maxCount seeds are produced; truncated reports whether
// the budget cut the grid short.
func hexSeeds(b *geom.Boundary, targetEdge float64, maxCount int) (seeds []domain.Point, truncated bool) {
	if maxCount <= 0 {
		return nil, true
	}
	min, max := b.Bound()
	hexHeight := targetEdge * math.Sqrt(3) / 2
	clearance := 0.45 * targetEdge

	row := 1
	for y := min.Y + hexHeight; y < max.Y; y += hexHeight {
		offset := 0.0
		if row%2 == 1 {
			offset = targetEdge / 2
		}
		for x := min.X + offset; x < max.X; x += targetEdge {
			p := domain.Point{X: x, Y: y}
			if x <= min.X || !b.Contains(p) {
				continue
			}
			if b.EdgeDistance(p) < clearance {
				continue
			}
			if len(seeds) >= maxCount {
				return seeds, true
			}
			seeds = append(seeds, p)
		}
		row++
	}
	return seeds, false
}

// findViolators returns triangle indices (into tr.triangles) breaking the
// area or angle bound, worst first. Only triangles inside the polygon count.
// The indices are valid only until the next point insertion.
func findViolators(tr *triangulator, b *geom.Boundary, maxArea, minAngle float64) []int {
	type violator struct {
		index int
		area  float64
		angle float64
	}
	var out []violator
	for ti, t := range tr.triangles {
		if t.touchesSuper() {
			continue
		}
		p0, p1, p2 := tr.points[t.v[0]], tr.points[t.v[1]], tr.points[t.v[2]]
		if !b.Contains(geom.Centroid(p0, p1, p2)) {
			continue
		}
		area := geom.TriangleArea(p0, p1, p2)
		angle := geom.MinAngle(p0, p1, p2)
		if area > maxArea || angle < minAngle {
			out = append(out, violator{index: ti, area: area, angle: angle})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].area != out[j].area {
			return out[i].area > out[j].area
		}
		return out[i].angle < out[j].angle
	})

	indices := make([]int, len(out))
	for i, v := range out {
		indices[i] = v.index
	}
	return indices
}

func nearExisting(tr *triangulator, p domain.Point, eps float64) bool {
	for _, q := range tr.points {
		if geom.Dist(p, q) <= eps {
			return true
		}
	}
	return false
}

func meshQualityBounds(m *domain.Mesh) (minAngle, maxArea float64) {
	minAngle = math.Inf(1)
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		minAngle = math.Min(minAngle, geom.MinAngle(a, b, c))
		maxArea = math.Max(maxArea, geom.TriangleArea(a, b, c))
	}
	return minAngle, maxArea
}

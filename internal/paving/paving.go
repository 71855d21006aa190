// Package paving implements the quad-dominant paving mesher: an interior
// grid of quad cells with a triangulated skirt between the grid and the
// polygon boundary.
package paving

import (
	"math"

	"github.com/planemesh/engine/internal/delaunay"
	"github.com/planemesh/engine/internal/domain"
	"github.com/planemesh/engine/internal/geom"
)

// Grid points closer to the boundary than gridClearance*spacing are
// dropped so the skirt triangles keep reasonable shape. Quad cells need
// the larger quadClearance on every corner: it guarantees the cell edges
// survive as Delaunay edges of the full point set, which is what makes the
// quad region and the skirt tile without gaps or overlaps.
const (
	gridClearance = 0.3
	quadClearance = 1.25
)

type cell struct {
	i, j int
}

// Build produces a quad-dominant mesh of the polygon interior with target
// element size targetSize (an area, like max_area for the triangulator).
// The triangle list of the result is always non-empty.
func Build(b *geom.Boundary, targetSize float64) (*domain.Mesh, error) {
	if len(b.Points) < 4 {
		return nil, domain.ErrPavingTooFewPoints.WithDetail("got %d", len(b.Points))
	}
	if b.Area() < b.Eps*b.Diagonal() {
		return nil, domain.ErrDegenerateGeometry
	}

	spacing := math.Sqrt(targetSize) * 0.8
	boundary := geom.Densify(b.Points, spacing)

	min, max := b.Bound()
	cols := int((max.X - min.X) / spacing)
	rows := int((max.Y - min.Y) / spacing)

	// Interior grid vertices, indexed by cell coordinates.
	points := make([]domain.Point, len(boundary))
	copy(points, boundary)
	gridIndex := make(map[cell]int)

	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			p := domain.Point{
				X: min.X + float64(i+1)*spacing,
				Y: min.Y + float64(j+1)*spacing,
			}
			if !b.Contains(p) || b.EdgeDistance(p) < gridClearance*spacing {
				continue
			}
			gridIndex[cell{i, j}] = len(points)
			points = append(points, p)
		}
	}

	// Quad cells: all four corners present and deep enough inside.
	quadCells := make(map[cell]bool)
	var quads [][4]int
	for j := 0; j < rows-1; j++ {
		for i := 0; i < cols-1; i++ {
			c00, ok00 := gridIndex[cell{i, j}]
			c10, ok10 := gridIndex[cell{i + 1, j}]
			c11, ok11 := gridIndex[cell{i + 1, j + 1}]
			c01, ok01 := gridIndex[cell{i, j + 1}]
			if !ok00 || !ok10 || !ok11 || !ok01 {
				continue
			}
			clear := quadClearance * spacing
			if b.EdgeDistance(points[c00]) < clear || b.EdgeDistance(points[c10]) < clear ||
				b.EdgeDistance(points[c11]) < clear || b.EdgeDistance(points[c01]) < clear {
				continue
			}

			v := [4]int{c00, c10, c11, c01}
			if geom.QuadMinJacobian(points[v[0]], points[v[1]], points[v[2]], points[v[3]]) <= 0 {
				v = [4]int{c00, c01, c11, c10}
			}
			quads = append(quads, v)
			quadCells[cell{i, j}] = true
		}
	}

	// Triangulate everything, then keep only skirt triangles: inside the
	// polygon and not covered by a quad cell.
	var triangles [][3]int
	for _, t := range delaunay.Triangulate(points) {
		c := geom.Centroid(points[t[0]], points[t[1]], points[t[2]])
		if !b.Contains(c) {
			continue
		}
		if inQuadCell(c, min, spacing, quadCells) {
			continue
		}
		triangles = append(triangles, t)
	}

	if len(triangles) == 0 {
		return nil, domain.ErrDegenerateGeometry.WithDetail("no skirt triangles")
	}

	return &domain.Mesh{
		Vertices:      points,
		Triangles:     triangles,
		Quads:         quads,
		BoundaryCount: len(boundary),
	}, nil
}

// inQuadCell reports whether p lies inside a registered quad cell.
func inQuadCell(p domain.Point, min domain.Point, spacing float64, quadCells map[cell]bool) bool {
	i := int(math.Floor((p.X-min.X)/spacing)) - 1
	j := int(math.Floor((p.Y-min.Y)/spacing)) - 1
	if i < 0 || j < 0 {
		return false
	}
	return quadCells[cell{i, j}]
}

package paving

import (
	"math"
	"testing"

	"github.com/planemesh/engine/internal/domain"
	"github.com/planemesh/engine/internal/geom"
)

func mustBoundary(t *testing.T, pts []domain.Point) *geom.Boundary {
	t.Helper()
	b, err := geom.Validate(pts)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return b
}

func totalArea(m *domain.Mesh) float64 {
	sum := 0.0
	for _, tri := range m.Triangles {
		sum += geom.TriangleArea(m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]])
	}
	for _, q := range m.Quads {
		sum += geom.QuadArea(m.Vertices[q[0]], m.Vertices[q[1]], m.Vertices[q[2]], m.Vertices[q[3]])
	}
	return sum
}

func TestBuild_TooFewPoints(t *testing.T) {
	b := mustBoundary(t, []domain.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 8},
	})
	_, err := Build(b, 4)
	engErr, ok := err.(*domain.EngineError)
	if !ok || engErr.Code != domain.ErrPavingTooFewPoints.Code {
		t.Fatalf("expected paving point-count error, got %v", err)
	}
}

func TestBuild_TilesSquare(t *testing.T) {
	b := mustBoundary(t, []domain.Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	})
	mesh, err := Build(b, 64)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(mesh.Quads) == 0 {
		t.Error("expected interior quads on a large square")
	}
	if len(mesh.Triangles) == 0 {
		t.Error("triangle list must never be empty")
	}
	if got := totalArea(mesh); math.Abs(got-10000) > 10000*1e-6 {
		t.Errorf("total area = %f, want 10000", got)
	}
}

func TestBuild_QuadsProperlyOriented(t *testing.T) {
	b := mustBoundary(t, []domain.Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	})
	mesh, err := Build(b, 64)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for qi, q := range mesh.Quads {
		jac := geom.QuadMinJacobian(
			mesh.Vertices[q[0]], mesh.Vertices[q[1]], mesh.Vertices[q[2]], mesh.Vertices[q[3]])
		if jac <= 0 {
			t.Errorf("quad %d has non-positive min jacobian %f", qi, jac)
		}
	}
	for ti, tri := range mesh.Triangles {
		jac := geom.Jacobian(mesh.Vertices[tri[0]], mesh.Vertices[tri[1]], mesh.Vertices[tri[2]])
		if jac <= 0 {
			t.Errorf("triangle %d has non-positive jacobian %f", ti, jac)
		}
	}
}

func TestBuild_TilesConcavePolygon(t *testing.T) {
	// L-shape scaled up so quads fit in both arms; area 7500.
	b := mustBoundary(t, []domain.Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50},
		{X: 50, Y: 50}, {X: 50, Y: 100}, {X: 0, Y: 100},
	})
	mesh, err := Build(b, 36)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := totalArea(mesh); math.Abs(got-7500) > 7500*1e-6 {
		t.Errorf("total area = %f, want 7500", got)
	}
	// Nothing may land in the notch.
	for _, q := range mesh.Quads {
		cx := (mesh.Vertices[q[0]].X + mesh.Vertices[q[1]].X + mesh.Vertices[q[2]].X + mesh.Vertices[q[3]].X) / 4
		cy := (mesh.Vertices[q[0]].Y + mesh.Vertices[q[1]].Y + mesh.Vertices[q[2]].Y + mesh.Vertices[q[3]].Y) / 4
		if cx > 50 && cy > 50 {
			t.Errorf("quad center (%f,%f) inside the notch", cx, cy)
		}
	}
}

func TestBuild_SmallPolygonFallsBackToTriangles(t *testing.T) {
	// Too small for any quad cell with clearance: pure triangle mesh.
	b := mustBoundary(t, []domain.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	})
	mesh, err := Build(b, 64)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(mesh.Quads) != 0 {
		t.Errorf("quads = %d, want 0 on a polygon smaller than the clearance", len(mesh.Quads))
	}
	if len(mesh.Triangles) == 0 {
		t.Fatal("triangle list must never be empty")
	}
	if got := totalArea(mesh); math.Abs(got-100) > 100*1e-6 {
		t.Errorf("total area = %f, want 100", got)
	}
}

package anneal

import (
	"math/rand"
	"testing"

	"github.com/planemesh/engine/internal/delaunay"
	"github.com/planemesh/engine/internal/domain"
	"github.com/planemesh/engine/internal/geom"
)

func testConfig() domain.AnnealingConfig {
	return domain.AnnealingConfig{
		Temperature:      1000,
		CoolingRate:      0.995,
		QualityThreshold: 0.999,
		MaxIterations:    2000,

		CheckVolume:         true,
		CheckAspectRatio:    true,
		CheckSizeUniformity: true,

		VolumeWeight:         0.3,
		AspectRatioWeight:    0.4,
		SizeUniformityWeight: 0.3,

		TargetAspectRatio: 1.73,
		TargetArea:        1500,
	}
}

func squareMesh(t *testing.T) (*domain.Mesh, *geom.Boundary) {
	t.Helper()
	b, err := geom.Validate([]domain.Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	mesh, _, err := delaunay.Build(b, 1500, 20, delaunay.Limits{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if mesh.BoundaryCount >= len(mesh.Vertices) {
		t.Fatalf("test mesh has no interior vertices")
	}
	return mesh, b
}

func TestOptimize_ScoreNeverRegresses(t *testing.T) {
	mesh, b := squareMesh(t)
	opt := New(testConfig(), rand.New(rand.NewSource(42)))

	stats := opt.Optimize(mesh, b)
	if stats.Skipped != "" {
		t.Fatalf("unexpected skip: %q", stats.Skipped)
	}
	if stats.FinalScore < stats.InitialScore {
		t.Fatalf("final score %f below initial %f", stats.FinalScore, stats.InitialScore)
	}
	if stats.BestScore != stats.FinalScore {
		t.Fatalf("final score %f is not the best seen %f", stats.FinalScore, stats.BestScore)
	}
}

func TestOptimize_BoundaryVerticesFixed(t *testing.T) {
	mesh, b := squareMesh(t)
	before := make([]domain.Point, mesh.BoundaryCount)
	copy(before, mesh.Vertices[:mesh.BoundaryCount])

	opt := New(testConfig(), rand.New(rand.NewSource(7)))
	opt.Optimize(mesh, b)

	for i, p := range before {
		got := mesh.Vertices[i]
		if got.X != p.X || got.Y != p.Y {
			t.Fatalf("boundary vertex %d moved from (%f,%f) to (%f,%f)", i, p.X, p.Y, got.X, got.Y)
		}
	}
}

func TestOptimize_NoInvertedElements(t *testing.T) {
	mesh, b := squareMesh(t)
	opt := New(testConfig(), rand.New(rand.NewSource(99)))
	opt.Optimize(mesh, b)

	for i, tri := range mesh.Triangles {
		j := geom.Jacobian(mesh.Vertices[tri[0]], mesh.Vertices[tri[1]], mesh.Vertices[tri[2]])
		if j <= 0 {
			t.Fatalf("triangle %d inverted after optimization, jacobian %f", i, j)
		}
	}
}

func TestOptimize_VerticesStayInside(t *testing.T) {
	mesh, b := squareMesh(t)
	opt := New(testConfig(), rand.New(rand.NewSource(3)))
	opt.Optimize(mesh, b)

	for i, p := range mesh.Vertices {
		if !b.Contains(p) {
			t.Fatalf("vertex %d left the polygon: (%f,%f)", i, p.X, p.Y)
		}
	}
}

func TestOptimize_SeedReproducibility(t *testing.T) {
	meshA, bA := squareMesh(t)
	meshB, bB := squareMesh(t)

	statsA := New(testConfig(), rand.New(rand.NewSource(1234))).Optimize(meshA, bA)
	statsB := New(testConfig(), rand.New(rand.NewSource(1234))).Optimize(meshB, bB)

	if statsA != statsB {
		t.Fatalf("stats diverged: %+v vs %+v", statsA, statsB)
	}
	for i := range meshA.Vertices {
		if meshA.Vertices[i] != meshB.Vertices[i] {
			t.Fatalf("vertex %d diverged: %+v vs %+v", i, meshA.Vertices[i], meshB.Vertices[i])
		}
	}
}

func TestOptimize_DifferentSeedsDiverge(t *testing.T) {
	meshA, bA := squareMesh(t)
	meshB, bB := squareMesh(t)

	statsA := New(testConfig(), rand.New(rand.NewSource(1))).Optimize(meshA, bA)
	statsB := New(testConfig(), rand.New(rand.NewSource(2))).Optimize(meshB, bB)

	// Positions may coincide if both runs restore the same best snapshot,
	// but the walks themselves should differ.
	if statsA.Accepted == statsB.Accepted && statsA.FinalScore == statsB.FinalScore {
		t.Fatalf("different seeds produced identical runs: %+v", statsA)
	}
}

func TestOptimize_SkipsQuadMeshes(t *testing.T) {
	mesh, b := squareMesh(t)
	mesh.Quads = append(mesh.Quads, [4]int{0, 1, 2, 3})

	stats := New(testConfig(), rand.New(rand.NewSource(1))).Optimize(mesh, b)
	if stats.Skipped == "" {
		t.Fatalf("expected quad mesh to be skipped")
	}
	if stats.Iterations != 0 || stats.Accepted != 0 {
		t.Fatalf("skipped run should not iterate: %+v", stats)
	}
}

func TestOptimize_SkipsWithoutInteriorVertices(t *testing.T) {
	b, err := geom.Validate([]domain.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	mesh := &domain.Mesh{
		Vertices:      b.Points,
		Triangles:     [][3]int{{0, 1, 2}},
		BoundaryCount: 3,
	}

	stats := New(testConfig(), rand.New(rand.NewSource(1))).Optimize(mesh, b)
	if stats.Skipped != "no interior vertices" {
		t.Fatalf("expected interior-vertex skip, got %+v", stats)
	}
}

func TestOptimize_ThresholdStopsEarly(t *testing.T) {
	mesh, b := squareMesh(t)
	cfg := testConfig()
	cfg.QualityThreshold = 0.01

	stats := New(cfg, rand.New(rand.NewSource(5))).Optimize(mesh, b)
	if !stats.ThresholdMet {
		t.Fatalf("threshold 0.01 should be met immediately: %+v", stats)
	}
	if stats.Iterations != 0 {
		t.Fatalf("expected no iterations when threshold already met, got %d", stats.Iterations)
	}
	if stats.CapHit {
		t.Fatalf("cap should not be reported when threshold met")
	}
}

func TestOptimize_CapHitWhenThresholdUnreachable(t *testing.T) {
	mesh, b := squareMesh(t)
	cfg := testConfig()
	cfg.QualityThreshold = 2 // unreachable, scores are in [0,1]
	cfg.MaxIterations = 50
	cfg.CoolingRate = 0.9999

	stats := New(cfg, rand.New(rand.NewSource(5))).Optimize(mesh, b)
	if !stats.CapHit {
		t.Fatalf("expected cap hit: %+v", stats)
	}
	if stats.ThresholdMet {
		t.Fatalf("threshold cannot be met: %+v", stats)
	}
	if stats.Iterations != 50 {
		t.Fatalf("expected exactly 50 iterations, got %d", stats.Iterations)
	}
}

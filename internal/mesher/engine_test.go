package mesher

import (
	"context"
	"errors"
	"testing"

	"github.com/planemesh/engine/internal/domain"
	"github.com/planemesh/engine/internal/geom"
)

func square(side float64) domain.Geometry {
	return domain.Geometry{Points: []domain.Point{
		{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
	}}
}

func engineCode(t *testing.T, err error) int {
	t.Helper()
	var ee *domain.EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EngineError, got %T: %v", err, err)
	}
	return ee.Code
}

func TestGenerate_DefaultsApplied(t *testing.T) {
	e := NewEngine()
	// Only the geometry is set; max_area, min_angle and algorithm default.
	res, err := e.Generate(context.Background(), domain.MeshRequest{Geometry: square(1)})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Mesh.Triangles) == 0 {
		t.Fatalf("expected triangles from default delaunay run")
	}
	if len(res.Mesh.Quads) != 0 {
		t.Fatalf("delaunay run produced quads")
	}
	if res.Report.MaxElementArea > e.DefaultMaxArea*1.0001 && !res.Report.CapHit {
		t.Fatalf("default max_area not honored: %f", res.Report.MaxElementArea)
	}
	if res.Report.Score <= 0 || res.Report.Score > 1 {
		t.Fatalf("score out of range: %f", res.Report.Score)
	}
}

func TestGenerate_TooFewPoints(t *testing.T) {
	e := NewEngine()
	req := domain.MeshRequest{Geometry: domain.Geometry{Points: []domain.Point{
		{X: 0, Y: 0}, {X: 1, Y: 0},
	}}}
	_, err := e.Generate(context.Background(), req)
	if code := engineCode(t, err); code != domain.ErrTooFewPoints.Code {
		t.Fatalf("expected code %d, got %d", domain.ErrTooFewPoints.Code, code)
	}
}

func TestGenerate_UnknownAlgorithm(t *testing.T) {
	e := NewEngine()
	req := domain.MeshRequest{Geometry: square(10), Algorithm: "voronoi"}
	_, err := e.Generate(context.Background(), req)
	if code := engineCode(t, err); code != domain.ErrUnknownAlgorithm.Code {
		t.Fatalf("expected code %d, got %d", domain.ErrUnknownAlgorithm.Code, code)
	}
}

func TestGenerate_InvalidConstraints(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		name string
		req  domain.MeshRequest
		want int
	}{
		{"negative max_area", domain.MeshRequest{Geometry: square(10), MaxArea: -1}, domain.ErrInvalidMaxArea.Code},
		{"negative min_angle", domain.MeshRequest{Geometry: square(10), MinAngle: -5}, domain.ErrInvalidMinAngle.Code},
		{"min_angle too large", domain.MeshRequest{Geometry: square(10), MinAngle: 95}, domain.ErrInvalidMinAngle.Code},
		{"bad cooling rate", domain.MeshRequest{Geometry: square(10), MaxArea: 10,
			Annealing: &domain.AnnealingConfig{CoolingRate: 1.5}}, domain.ErrInvalidAnnealing.Code},
		{"negative weight", domain.MeshRequest{Geometry: square(10), MaxArea: 10,
			Annealing: &domain.AnnealingConfig{CheckVolume: true, VolumeWeight: -1}}, domain.ErrInvalidAnnealing.Code},
		{"iteration cap", domain.MeshRequest{Geometry: square(10), MaxArea: 10,
			Annealing: &domain.AnnealingConfig{MaxIterations: 1 << 30}}, domain.ErrInvalidAnnealing.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Generate(context.Background(), tc.req)
			if code := engineCode(t, err); code != tc.want {
				t.Fatalf("expected code %d, got %d (%v)", tc.want, code, err)
			}
		})
	}
}

func TestGenerate_PavingIgnoresAnnealing(t *testing.T) {
	e := NewEngine()
	req := domain.MeshRequest{
		Geometry:  square(100),
		MaxArea:   64,
		Algorithm: domain.AlgorithmPaving,
		Annealing: &domain.AnnealingConfig{Temperature: 500},
	}
	res, err := e.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Mesh.Quads) == 0 {
		t.Fatalf("expected quads from paving")
	}
	if res.Report.AnnealSkipped == "" {
		t.Fatalf("expected annealing-skipped annotation in report")
	}
	if res.Report.AnnealIterations != 0 {
		t.Fatalf("paving must not run the optimizer")
	}
}

func TestGenerate_GridAnnealing(t *testing.T) {
	e := NewEngine()
	req := domain.MeshRequest{
		Geometry:  square(100),
		MaxArea:   1500,
		Algorithm: domain.AlgorithmGridAnnealing,
	}
	res, err := e.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Mesh.Triangles) == 0 {
		t.Fatalf("expected triangles")
	}
	if !res.Report.ThresholdMet && res.Report.AnnealIterations == 0 && res.Report.AnnealSkipped == "" {
		t.Fatalf("grid-annealing did not run the optimizer: %+v", res.Report)
	}
	for i, tri := range res.Mesh.Triangles {
		j := geom.Jacobian(res.Mesh.Vertices[tri[0]], res.Mesh.Vertices[tri[1]], res.Mesh.Vertices[tri[2]])
		if j <= 0 {
			t.Fatalf("triangle %d inverted after annealing, jacobian %f", i, j)
		}
	}
}

func TestGenerate_DeterministicWithoutSeed(t *testing.T) {
	e := NewEngine()
	req := domain.MeshRequest{
		Geometry:  square(100),
		MaxArea:   1500,
		Algorithm: domain.AlgorithmGridAnnealing,
	}
	a, err := e.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := e.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(a.Mesh.Vertices) != len(b.Mesh.Vertices) {
		t.Fatalf("vertex counts diverged: %d vs %d", len(a.Mesh.Vertices), len(b.Mesh.Vertices))
	}
	for i := range a.Mesh.Vertices {
		if a.Mesh.Vertices[i] != b.Mesh.Vertices[i] {
			t.Fatalf("vertex %d diverged without explicit seed", i)
		}
	}
	if a.Report != b.Report {
		t.Fatalf("reports diverged: %+v vs %+v", a.Report, b.Report)
	}
}

func TestGenerate_RequestNotMutated(t *testing.T) {
	e := NewEngine()
	cfg := &domain.AnnealingConfig{}
	req := domain.MeshRequest{
		Geometry:  square(100),
		MaxArea:   1500,
		Algorithm: domain.AlgorithmDelaunay,
		Annealing: cfg,
	}
	if _, err := e.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if cfg.Temperature != 0 || cfg.MaxIterations != 0 {
		t.Fatalf("caller's annealing config was mutated: %+v", cfg)
	}
}

func TestGenerate_CanceledContext(t *testing.T) {
	e := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Generate(ctx, domain.MeshRequest{Geometry: square(10), MaxArea: 10})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

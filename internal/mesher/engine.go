// Package mesher is the engine facade: it validates requests, applies
// defaults, dispatches to a mesh generator and assembles the result.
package mesher

import (
	"context"
	"math"
	"math/rand"
	"strconv"

	"github.com/planemesh/engine/internal/anneal"
	"github.com/planemesh/engine/internal/delaunay"
	"github.com/planemesh/engine/internal/domain"
	"github.com/planemesh/engine/internal/geom"
	"github.com/planemesh/engine/internal/paving"
)

const (
	defaultMaxArea  = 0.1
	defaultMinAngle = 20.0

	defaultTemperature      = 1000.0
	defaultCoolingRate      = 0.995
	defaultAnnealIterations = 10000
	defaultTargetAspect     = 1.73

	defaultVolumeWeight     = 0.3
	defaultAspectWeight     = 0.4
	defaultUniformityWeight = 0.3
)

// Engine generates meshes from validated requests. Limits and defaults are
// set once at construction and shared by all requests.
type Engine struct {
	Limits              delaunay.Limits
	DefaultMaxArea      float64
	DefaultMinAngle     float64
	MaxAnnealIterations int
}

// NewEngine creates an Engine with the built-in defaults.
func NewEngine() *Engine {
	return &Engine{
		Limits:              delaunay.Limits{}.WithDefaults(),
		DefaultMaxArea:      defaultMaxArea,
		DefaultMinAngle:     defaultMinAngle,
		MaxAnnealIterations: defaultAnnealIterations,
	}
}

// Generate validates req, runs the selected algorithm and returns the mesh
// with its quality report. Identical requests produce identical results:
// when no explicit annealing seed is given, the seed is derived from the
// request fingerprint.
func (e *Engine) Generate(ctx context.Context, req domain.MeshRequest) (*domain.MeshResult, error) {
	norm, err := e.normalize(req)
	if err != nil {
		return nil, err
	}

	b, err := geom.Validate(norm.Geometry.Points)
	if err != nil {
		return nil, err
	}
	// Validation normalizes winding; keep the request canonical too so the
	// fingerprint does not depend on the caller's winding direction.
	norm.Geometry.Points = b.Points

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var res *domain.MeshResult
	switch norm.Algorithm {
	case domain.AlgorithmPaving:
		res, err = e.generatePaving(b, norm)
	case domain.AlgorithmDelaunay, domain.AlgorithmGridAnnealing:
		res, err = e.generateDelaunay(ctx, b, norm)
	default:
		return nil, domain.ErrUnknownAlgorithm.WithDetail("%q", norm.Algorithm)
	}
	if err != nil {
		return nil, err
	}
	res.Request = norm
	res.Fingerprint = norm.Fingerprint()
	return res, nil
}

func (e *Engine) generateDelaunay(ctx context.Context, b *geom.Boundary, norm domain.MeshRequest) (*domain.MeshResult, error) {
	mesh, stats, err := delaunay.Build(b, norm.MaxArea, norm.MinAngle, e.Limits)
	if err != nil {
		return nil, err
	}

	report := domain.QualityReport{
		MinAngle:       stats.MinAngle,
		MaxElementArea: stats.MaxElementArea,
		SteinerPoints:  stats.SteinerPoints,
		RefineRounds:   stats.RefineRounds,
		CapHit:         stats.CapHit,
		Score:          meshScore(mesh),
	}

	if norm.Annealing != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rng := rand.New(rand.NewSource(annealSeed(norm)))
		astats := anneal.New(*norm.Annealing, rng).Optimize(mesh, b)

		report.AnnealIterations = astats.Iterations
		report.AnnealAccepted = astats.Accepted
		report.ThresholdMet = astats.ThresholdMet
		report.AnnealSkipped = astats.Skipped
		if astats.Skipped == "" {
			report.Score = astats.FinalScore
			report.CapHit = report.CapHit || astats.CapHit
			report.MinAngle, report.MaxElementArea = elementBounds(mesh)
		}
	}

	return &domain.MeshResult{Mesh: mesh, Report: report}, nil
}

func (e *Engine) generatePaving(b *geom.Boundary, norm domain.MeshRequest) (*domain.MeshResult, error) {
	mesh, err := paving.Build(b, norm.MaxArea)
	if err != nil {
		return nil, err
	}

	report := domain.QualityReport{Score: meshScore(mesh)}
	report.MinAngle, report.MaxElementArea = elementBounds(mesh)
	if norm.Annealing != nil {
		report.AnnealSkipped = "annealing not applicable to quad-dominant paving"
	}

	return &domain.MeshResult{Mesh: mesh, Report: report}, nil
}

// normalize applies defaults and range-checks the constraints. It never
// mutates req: the annealing config, if present, is copied.
func (e *Engine) normalize(req domain.MeshRequest) (domain.MeshRequest, error) {
	norm := req

	if norm.MaxArea == 0 {
		norm.MaxArea = e.DefaultMaxArea
	}
	if norm.MaxArea <= 0 || !finite(norm.MaxArea) {
		return norm, domain.ErrInvalidMaxArea.WithDetail("got %v", req.MaxArea)
	}

	if norm.MinAngle == 0 {
		norm.MinAngle = e.DefaultMinAngle
	}
	if norm.MinAngle <= 0 || norm.MinAngle >= 90 || !finite(norm.MinAngle) {
		return norm, domain.ErrInvalidMinAngle.WithDetail("got %v", req.MinAngle)
	}

	if norm.Algorithm == "" {
		norm.Algorithm = domain.AlgorithmDelaunay
	}
	if !domain.KnownAlgorithm(norm.Algorithm) {
		return norm, domain.ErrUnknownAlgorithm.WithDetail("%q", norm.Algorithm)
	}

	if norm.Annealing == nil && norm.Algorithm == domain.AlgorithmGridAnnealing {
		norm.Annealing = &domain.AnnealingConfig{}
	}
	if norm.Annealing != nil {
		cfg := *norm.Annealing
		e.applyAnnealDefaults(&cfg, norm)
		if err := e.validateAnnealing(cfg); err != nil {
			return norm, err
		}
		norm.Annealing = &cfg
	}

	return norm, nil
}

func (e *Engine) applyAnnealDefaults(cfg *domain.AnnealingConfig, norm domain.MeshRequest) {
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.CoolingRate == 0 {
		cfg.CoolingRate = defaultCoolingRate
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = defaultAnnealIterations
	}
	if cfg.QualityThreshold == 0 {
		cfg.QualityThreshold = norm.MinAngle / 60
	}
	if cfg.TargetAspectRatio == 0 {
		cfg.TargetAspectRatio = defaultTargetAspect
	}
	if cfg.TargetArea == 0 {
		cfg.TargetArea = norm.MaxArea
	}
	if !cfg.CheckVolume && !cfg.CheckAspectRatio && !cfg.CheckSizeUniformity {
		cfg.CheckVolume = true
		cfg.CheckAspectRatio = true
		cfg.CheckSizeUniformity = true
		if cfg.VolumeWeight == 0 {
			cfg.VolumeWeight = defaultVolumeWeight
		}
		if cfg.AspectRatioWeight == 0 {
			cfg.AspectRatioWeight = defaultAspectWeight
		}
		if cfg.SizeUniformityWeight == 0 {
			cfg.SizeUniformityWeight = defaultUniformityWeight
		}
	}
}

func (e *Engine) validateAnnealing(cfg domain.AnnealingConfig) error {
	switch {
	case cfg.Temperature <= 0 || !finite(cfg.Temperature):
		return domain.ErrInvalidAnnealing.WithDetail("temperature %v", cfg.Temperature)
	case cfg.CoolingRate <= 0 || cfg.CoolingRate >= 1:
		return domain.ErrInvalidAnnealing.WithDetail("cooling_rate %v not in (0, 1)", cfg.CoolingRate)
	case cfg.QualityThreshold < 0 || cfg.QualityThreshold > 1:
		return domain.ErrInvalidAnnealing.WithDetail("quality_threshold %v not in [0, 1]", cfg.QualityThreshold)
	case cfg.MaxIterations < 0:
		return domain.ErrInvalidAnnealing.WithDetail("max_iterations %d negative", cfg.MaxIterations)
	case cfg.MaxIterations > e.MaxAnnealIterations:
		return domain.ErrInvalidAnnealing.WithDetail("max_iterations %d above engine cap %d", cfg.MaxIterations, e.MaxAnnealIterations)
	case cfg.VolumeWeight < 0 || cfg.AspectRatioWeight < 0 || cfg.SizeUniformityWeight < 0:
		return domain.ErrInvalidAnnealing.WithDetail("negative term weight")
	case cfg.TargetAspectRatio < 1:
		return domain.ErrInvalidAnnealing.WithDetail("target_aspect_ratio %v below 1", cfg.TargetAspectRatio)
	case cfg.TargetArea < 0 || cfg.MinArea < 0:
		return domain.ErrInvalidAnnealing.WithDetail("negative area target")
	}
	return nil
}

// annealSeed returns the explicit seed, or one derived from the request
// fingerprint so unseeded requests are still reproducible.
func annealSeed(norm domain.MeshRequest) int64 {
	if norm.Annealing != nil && norm.Annealing.Seed != 0 {
		return norm.Annealing.Seed
	}
	fp := norm.Fingerprint()
	u, err := strconv.ParseUint(fp[:16], 16, 64)
	if err != nil {
		// A SHA-256 hex digest always parses.
		panic(err)
	}
	return int64(u)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Package anneal implements the simulated-annealing mesh quality pass.
// It moves interior vertices only; topology is never touched.
package anneal

import (
	"math"
	"math/rand"

	"github.com/planemesh/engine/internal/domain"
	"github.com/planemesh/engine/internal/geom"
)

const (
	// temperatureFloor stops the loop once cooling has made worsening
	// moves effectively impossible.
	temperatureFloor = 0.1
	// moveFraction bounds a proposed displacement relative to the local
	// mean incident edge length.
	moveFraction = 0.25
)

// Stats reports how an optimization run went.
type Stats struct {
	InitialScore float64
	FinalScore   float64
	BestScore    float64
	Iterations   int
	Accepted     int
	ThresholdMet bool
	CapHit       bool
	Skipped      string
}

// Optimizer perturbs interior vertex positions with Metropolis acceptance.
// The random source is injected so runs are reproducible.
type Optimizer struct {
	cfg domain.AnnealingConfig
	rng *rand.Rand
}

// New creates an Optimizer. cfg must already have defaults applied
// (temperature, cooling rate, weights, targets).
func New(cfg domain.AnnealingConfig, rng *rand.Rand) *Optimizer {
	return &Optimizer{cfg: cfg, rng: rng}
}

// Optimize runs the annealing loop on mesh in place. Boundary vertices
// (the first mesh.BoundaryCount) are fixed. Quad meshes are skipped.
func (o *Optimizer) Optimize(mesh *domain.Mesh, b *geom.Boundary) Stats {
	if len(mesh.Quads) > 0 {
		return Stats{Skipped: "quad elements present"}
	}
	if len(mesh.Triangles) == 0 {
		return Stats{Skipped: "no triangular elements"}
	}
	if mesh.BoundaryCount >= len(mesh.Vertices) {
		return Stats{Skipped: "no interior vertices"}
	}
	if !o.cfg.CheckVolume && !o.cfg.CheckAspectRatio && !o.cfg.CheckSizeUniformity {
		return Stats{Skipped: "no quality terms enabled"}
	}

	incident := buildIncidence(mesh)
	neighbors := buildNeighbors(mesh)

	// Mean element area is invariant under interior moves: the outer rim
	// of a vertex's incident fan is fixed, so the fan's total area is too.
	meanArea := 0.0
	for _, t := range mesh.Triangles {
		meanArea += geom.TriangleArea(mesh.Vertices[t[0]], mesh.Vertices[t[1]], mesh.Vertices[t[2]])
	}
	meanArea /= float64(len(mesh.Triangles))

	scores := make([]float64, len(mesh.Triangles))
	scoreSum := 0.0
	for ti, t := range mesh.Triangles {
		scores[ti] = o.elementScore(mesh.Vertices[t[0]], mesh.Vertices[t[1]], mesh.Vertices[t[2]], meanArea)
		scoreSum += scores[ti]
	}
	count := float64(len(mesh.Triangles))

	stats := Stats{InitialScore: scoreSum / count}
	stats.BestScore = stats.InitialScore
	best := make([]domain.Point, len(mesh.Vertices))
	copy(best, mesh.Vertices)

	temperature := o.cfg.Temperature
	interior := len(mesh.Vertices) - mesh.BoundaryCount

	for stats.Iterations < o.cfg.MaxIterations && temperature > temperatureFloor {
		if scoreSum/count >= o.cfg.QualityThreshold {
			stats.ThresholdMet = true
			break
		}
		stats.Iterations++

		vi := mesh.BoundaryCount + o.rng.Intn(interior)
		old := mesh.Vertices[vi]

		radius := moveFraction * meanEdge(mesh, neighbors[vi], vi)
		next := domain.Point{
			X:  old.X + (o.rng.Float64()*2-1)*radius,
			Y:  old.Y + (o.rng.Float64()*2-1)*radius,
			ID: old.ID,
		}

		if !o.admissible(mesh, b, vi, next, incident[vi]) {
			temperature *= o.cfg.CoolingRate
			continue
		}

		// Score the move on the incident fan only.
		oldLocal := 0.0
		for _, ti := range incident[vi] {
			oldLocal += scores[ti]
		}
		mesh.Vertices[vi] = next
		newLocal := 0.0
		newScores := make(map[int]float64, len(incident[vi]))
		for _, ti := range incident[vi] {
			t := mesh.Triangles[ti]
			s := o.elementScore(mesh.Vertices[t[0]], mesh.Vertices[t[1]], mesh.Vertices[t[2]], meanArea)
			newScores[ti] = s
			newLocal += s
		}

		delta := newLocal - oldLocal
		if delta > 0 || o.rng.Float64() < math.Exp(delta/temperature) {
			stats.Accepted++
			for ti, s := range newScores {
				scores[ti] = s
			}
			scoreSum += delta
			if scoreSum/count > stats.BestScore {
				stats.BestScore = scoreSum / count
				copy(best, mesh.Vertices)
			}
		} else {
			mesh.Vertices[vi] = old
		}

		temperature *= o.cfg.CoolingRate
	}

	if stats.Iterations >= o.cfg.MaxIterations && !stats.ThresholdMet {
		stats.CapHit = true
	}

	// Hand back the best configuration seen, not the last one.
	copy(mesh.Vertices, best)
	stats.FinalScore = stats.BestScore
	if stats.FinalScore >= o.cfg.QualityThreshold {
		stats.ThresholdMet = true
	}
	return stats
}

// admissible rejects moves that leave the polygon or invert any incident
// triangle, regardless of score.
func (o *Optimizer) admissible(mesh *domain.Mesh, b *geom.Boundary, vi int, next domain.Point, fan []int) bool {
	if !b.Contains(next) {
		return false
	}
	for _, ti := range fan {
		t := mesh.Triangles[ti]
		p := [3]domain.Point{mesh.Vertices[t[0]], mesh.Vertices[t[1]], mesh.Vertices[t[2]]}
		for k := 0; k < 3; k++ {
			if t[k] == vi {
				p[k] = next
			}
		}
		if geom.Jacobian(p[0], p[1], p[2]) <= 0 {
			return false
		}
	}
	return true
}

// elementScore is the weighted per-element quality in [0,1], weights
// renormalized over the enabled terms.
func (o *Optimizer) elementScore(a, b, c domain.Point, meanArea float64) float64 {
	area := geom.TriangleArea(a, b, c)

	score := 0.0
	weightSum := 0.0

	if o.cfg.CheckVolume {
		score += o.volumeQuality(area) * o.cfg.VolumeWeight
		weightSum += o.cfg.VolumeWeight
	}
	if o.cfg.CheckAspectRatio {
		score += o.aspectQuality(geom.AspectRatio(a, b, c)) * o.cfg.AspectRatioWeight
		weightSum += o.cfg.AspectRatioWeight
	}
	if o.cfg.CheckSizeUniformity {
		score += o.uniformityQuality(area, meanArea) * o.cfg.SizeUniformityWeight
		weightSum += o.cfg.SizeUniformityWeight
	}

	if weightSum == 0 {
		return 1
	}
	return score / weightSum
}

// volumeQuality penalizes deviation from the target element area.
func (o *Optimizer) volumeQuality(area float64) float64 {
	target := o.cfg.TargetArea
	if target <= 0 {
		return 1
	}
	ratio := area / target
	if area > target {
		ratio = target / area
	}
	return math.Max(0.1, ratio)
}

// aspectQuality penalizes deviation from the target aspect ratio.
func (o *Optimizer) aspectQuality(ar float64) float64 {
	diff := math.Abs(ar-o.cfg.TargetAspectRatio) / o.cfg.TargetAspectRatio
	return math.Max(0.1, 1-math.Min(1, diff))
}

// uniformityQuality penalizes deviation from the mesh-wide mean area, with
// a heavy penalty below the configured minimum area.
func (o *Optimizer) uniformityQuality(area, meanArea float64) float64 {
	if o.cfg.MinArea > 0 && area < o.cfg.MinArea {
		return math.Max(0.05, area/o.cfg.MinArea*0.5)
	}
	if meanArea <= 0 {
		return 1
	}
	ratio := area / meanArea
	if area > meanArea {
		ratio = meanArea / area
	}
	return math.Max(0.05, ratio)
}

func buildIncidence(mesh *domain.Mesh) [][]int {
	incident := make([][]int, len(mesh.Vertices))
	for ti, t := range mesh.Triangles {
		for _, v := range t {
			incident[v] = append(incident[v], ti)
		}
	}
	return incident
}

func buildNeighbors(mesh *domain.Mesh) [][]int {
	seen := make([]map[int]bool, len(mesh.Vertices))
	for _, t := range mesh.Triangles {
		for k := 0; k < 3; k++ {
			v := t[k]
			if seen[v] == nil {
				seen[v] = make(map[int]bool)
			}
			seen[v][t[(k+1)%3]] = true
			seen[v][t[(k+2)%3]] = true
		}
	}
	neighbors := make([][]int, len(mesh.Vertices))
	for v, set := range seen {
		for n := range set {
			neighbors[v] = append(neighbors[v], n)
		}
	}
	return neighbors
}

func meanEdge(mesh *domain.Mesh, neighbors []int, vi int) float64 {
	if len(neighbors) == 0 {
		return 0
	}
	sum := 0.0
	for _, n := range neighbors {
		sum += geom.Dist(mesh.Vertices[vi], mesh.Vertices[n])
	}
	return sum / float64(len(neighbors))
}

// Package domain defines the core types for the Planemesh Engine.
package domain

// Algorithm selects the mesh generation strategy.
type Algorithm string

const (
	AlgorithmDelaunay      Algorithm = "delaunay"
	AlgorithmPaving        Algorithm = "paving"
	AlgorithmGridAnnealing Algorithm = "grid-annealing"
)

// KnownAlgorithm reports whether a is one of the supported algorithm names.
func KnownAlgorithm(a Algorithm) bool {
	switch a {
	case AlgorithmDelaunay, AlgorithmPaving, AlgorithmGridAnnealing:
		return true
	}
	return false
}

// Point is a 2D vertex. ID is an opaque caller tag carried through the
// engine but never interpreted by it.
type Point struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	ID string  `json:"id,omitempty"`
}

// Geometry is an ordered simple-polygon boundary of at least three points.
// After validation the winding is always counter-clockwise.
type Geometry struct {
	Name   string  `json:"name,omitempty"`
	Points []Point `json:"points"`
}

// MeshConstraints bound element size and shape for the meshers.
type MeshConstraints struct {
	MaxArea   float64   `json:"max_area"`
	MinAngle  float64   `json:"min_angle"`
	Algorithm Algorithm `json:"algorithm"`
}

// AnnealingConfig drives the simulated-annealing quality pass.
// Zero-valued optional fields fall back to engine defaults.
type AnnealingConfig struct {
	Temperature      float64 `json:"temperature"`
	CoolingRate      float64 `json:"cooling_rate"`
	QualityThreshold float64 `json:"quality_threshold"`
	MaxIterations    int     `json:"max_iterations"`

	CheckVolume         bool `json:"check_volume"`
	CheckAspectRatio    bool `json:"check_aspect_ratio"`
	CheckSizeUniformity bool `json:"check_size_uniformity"`

	VolumeWeight         float64 `json:"volume_weight"`
	AspectRatioWeight    float64 `json:"aspect_ratio_weight"`
	SizeUniformityWeight float64 `json:"size_uniformity_weight"`

	TargetAspectRatio float64 `json:"target_aspect_ratio"`
	TargetArea        float64 `json:"target_area,omitempty"`
	MinArea           float64 `json:"min_area,omitempty"`

	// Seed makes runs reproducible. Zero means the engine seeds from the
	// request fingerprint so identical requests produce identical meshes.
	Seed int64 `json:"seed,omitempty"`
}

// Mesh is the engine's internal representation: a deduplicated vertex list
// plus index-based elements. The first BoundaryCount vertices are the
// (densified) polygon boundary in order; meshers never reorder them, which
// is what lets the optimizer hold them fixed.
type Mesh struct {
	Vertices      []Point
	Triangles     [][3]int
	Quads         [][4]int
	BoundaryCount int
}

// ElementCount returns the total number of elements, triangles plus quads.
func (m *Mesh) ElementCount() int {
	return len(m.Triangles) + len(m.Quads)
}

// MeshRequest is the engine's input contract: one geometry, one set of
// constraints, and an optional annealing pass.
type MeshRequest struct {
	Geometry  Geometry         `json:"geometry"`
	MaxArea   float64          `json:"max_area,omitempty"`
	MinAngle  float64          `json:"min_angle,omitempty"`
	Algorithm Algorithm        `json:"algorithm,omitempty"`
	Annealing *AnnealingConfig `json:"annealing_options,omitempty"`
}

// QualityReport annotates a MeshResult with how the run went. Hitting an
// iteration or vertex cap is reported here rather than failing the request.
type QualityReport struct {
	Score            float64 `json:"score"`
	MinAngle         float64 `json:"min_angle"`
	MaxElementArea   float64 `json:"max_element_area"`
	SteinerPoints    int     `json:"steiner_points"`
	RefineRounds     int     `json:"refine_rounds"`
	CapHit           bool    `json:"cap_hit"`
	AnnealIterations int     `json:"anneal_iterations,omitempty"`
	AnnealAccepted   int     `json:"anneal_accepted,omitempty"`
	ThresholdMet     bool    `json:"threshold_met,omitempty"`
	AnnealSkipped    string  `json:"anneal_skipped,omitempty"`
}

// MeshResult is the engine's output contract. Request is the normalized
// form of the request that produced the mesh and Fingerprint its content
// address.
type MeshResult struct {
	Mesh        *Mesh
	Report      QualityReport
	Request     MeshRequest
	Fingerprint string
}

// GeometryRecord is a stored named boundary set.
type GeometryRecord struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Points        []Point `json:"points"`
	CreatedAtUnix int64   `json:"created_at_unix"`
}

// MeshRecord is a stored generation result, addressed by the fingerprint
// of the request that produced it.
type MeshRecord struct {
	ID            string `json:"id"`
	Fingerprint   string `json:"fingerprint"`
	Algorithm     string `json:"algorithm"`
	RequestJSON   string `json:"request_json"`
	MeshJSON      string `json:"mesh_json"`
	ReportJSON    string `json:"report_json"`
	CreatedAtUnix int64  `json:"created_at_unix"`
}

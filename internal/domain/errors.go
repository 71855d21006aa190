package domain

import "fmt"

// EngineError is the unified error type for the engine.
// Each error has a numeric code and human-readable message.
type EngineError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// NewEngineError creates a new EngineError.
func NewEngineError(code int, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg}
}

// WrapEngineError creates an EngineError that includes a cause.
func WrapEngineError(code int, msg string, cause error) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf("%s: %v", msg, cause)}
}

// WithDetail returns a copy of a sentinel error with extra context appended.
func (e *EngineError) WithDetail(format string, args ...interface{}) *EngineError {
	return &EngineError{
		Code:    e.Code,
		Message: fmt.Sprintf("%s: %s", e.Message, fmt.Sprintf(format, args...)),
	}
}

// ---- Validation errors (-32010 to -32039): caller-supplied geometry ----

var (
	ErrTooFewPoints     = &EngineError{Code: -32010, Message: "geometry needs at least 3 points"}
	ErrCoincidentPoints = &EngineError{Code: -32011, Message: "geometry has coincident consecutive points"}
	ErrSelfIntersecting = &EngineError{Code: -32012, Message: "geometry boundary is self-intersecting"}
	ErrNonFinitePoint   = &EngineError{Code: -32013, Message: "geometry contains a non-finite coordinate"}
)

// ---- Configuration errors (-32040 to -32069): constraint parameters ----

var (
	ErrUnknownAlgorithm = &EngineError{Code: -32040, Message: "unknown mesh algorithm"}
	ErrInvalidMaxArea   = &EngineError{Code: -32041, Message: "max_area must be positive"}
	ErrInvalidMinAngle  = &EngineError{Code: -32042, Message: "min_angle must be in (0, 90) degrees"}
	ErrInvalidAnnealing = &EngineError{Code: -32043, Message: "annealing options out of range"}
	ErrConfigInvalid    = &EngineError{Code: -32044, Message: "engine configuration invalid"}
)

// ---- Geometry errors (-32070 to -32099): valid input, unmeshable ----

var (
	ErrDegenerateGeometry = &EngineError{Code: -32070, Message: "geometry has zero or near-zero area"}
	ErrPavingTooFewPoints = &EngineError{Code: -32071, Message: "paving needs at least 4 boundary points"}
)

// ---- Resource errors (-32100 to -32129) ----

var (
	ErrVertexBudget = &EngineError{Code: -32100, Message: "vertex budget exhausted during refinement"}
)

// ---- Store errors (-32130 to -32159) ----

var (
	ErrResultNotFound    = &EngineError{Code: -32130, Message: "mesh result not found"}
	ErrGeometryNotFound  = &EngineError{Code: -32131, Message: "geometry not found"}
	ErrDuplicateGeometry = &EngineError{Code: -32132, Message: "geometry name already exists"}
)

// ---- Internal errors (-32160 to -32189) ----

var (
	ErrInternal = &EngineError{Code: -32160, Message: "internal engine failure"}
)

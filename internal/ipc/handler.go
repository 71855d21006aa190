// Package ipc provides the HTTP API for the Planemesh Engine.
package ipc

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/planemesh/engine/internal/domain"
	"github.com/planemesh/engine/internal/encode"
	"github.com/planemesh/engine/internal/mesher"
	"github.com/planemesh/engine/internal/store"
)

// Handler holds all dependencies for the HTTP handlers.
type Handler struct {
	Engine       *mesher.Engine
	DB           *sql.DB
	MeshRepo     *store.MeshRepo
	GeometryRepo *store.GeometryRepo
	// Persist controls whether generated results are written to the store.
	Persist bool
}

// GenerateRequest is the body for POST /api/v1/mesh. The boundary comes
// either inline or by reference to a stored geometry.
type GenerateRequest struct {
	domain.MeshRequest
	GeometryName string `json:"geometry_name,omitempty"`
}

// GenerateResponse is the response for POST /api/v1/mesh and the decoded
// form of GET /api/v1/mesh/{fingerprint}.
type GenerateResponse struct {
	Fingerprint string               `json:"fingerprint"`
	Algorithm   domain.Algorithm     `json:"algorithm"`
	Mesh        encode.MeshJSON      `json:"mesh"`
	Report      domain.QualityReport `json:"report"`
}

// StoredMeshResponse is the response for GET /api/v1/mesh/{fingerprint},
// served straight from the stored JSON payloads.
type StoredMeshResponse struct {
	Fingerprint   string          `json:"fingerprint"`
	Algorithm     string          `json:"algorithm"`
	Mesh          json.RawMessage `json:"mesh"`
	Report        json.RawMessage `json:"report"`
	CreatedAtUnix int64           `json:"created_at_unix"`
}

// CreateGeometryRequest is the body for POST /api/v1/geometry.
type CreateGeometryRequest struct {
	Name   string         `json:"name"`
	Points []domain.Point `json:"points"`
}

// APIError is a structured error response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GenerateMesh handles POST /api/v1/mesh.
func (h *Handler) GenerateMesh(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}

	if req.GeometryName != "" && len(req.Geometry.Points) == 0 {
		rec, err := h.GeometryRepo.GetByName(r.Context(), h.DB, req.GeometryName)
		if err != nil {
			writeError(w, err)
			return
		}
		req.Geometry = domain.Geometry{Name: rec.Name, Points: rec.Points}
	}

	res, err := h.Engine.Generate(r.Context(), req.MeshRequest)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.Persist {
		if err := h.saveResult(r, res); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Fingerprint: res.Fingerprint,
		Algorithm:   res.Request.Algorithm,
		Mesh:        encode.ToJSON(res.Mesh),
		Report:      res.Report,
	})
}

func (h *Handler) saveResult(r *http.Request, res *domain.MeshResult) error {
	requestJSON, err := json.Marshal(res.Request)
	if err != nil {
		return domain.WrapEngineError(domain.ErrInternal.Code, "encode request", err)
	}
	meshJSON, err := encode.Marshal(res.Mesh)
	if err != nil {
		return domain.WrapEngineError(domain.ErrInternal.Code, "encode mesh", err)
	}
	reportJSON, err := json.Marshal(res.Report)
	if err != nil {
		return domain.WrapEngineError(domain.ErrInternal.Code, "encode report", err)
	}

	_, err = h.MeshRepo.Save(r.Context(), h.DB, domain.MeshRecord{
		Fingerprint: res.Fingerprint,
		Algorithm:   string(res.Request.Algorithm),
		RequestJSON: string(requestJSON),
		MeshJSON:    string(meshJSON),
		ReportJSON:  string(reportJSON),
	})
	return err
}

// GetMesh handles GET /api/v1/mesh/{fingerprint}.
func (h *Handler) GetMesh(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.PathValue("fingerprint")
	rec, err := h.MeshRepo.GetByFingerprint(r.Context(), h.DB, fingerprint)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StoredMeshResponse{
		Fingerprint:   rec.Fingerprint,
		Algorithm:     rec.Algorithm,
		Mesh:          json.RawMessage(rec.MeshJSON),
		Report:        json.RawMessage(rec.ReportJSON),
		CreatedAtUnix: rec.CreatedAtUnix,
	})
}

// GetMeshCSV handles GET /api/v1/mesh/{fingerprint}/csv.
func (h *Handler) GetMeshCSV(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.PathValue("fingerprint")
	rec, err := h.MeshRepo.GetByFingerprint(r.Context(), h.DB, fingerprint)
	if err != nil {
		writeError(w, err)
		return
	}

	mesh, err := encode.Unmarshal([]byte(rec.MeshJSON))
	if err != nil {
		writeError(w, err)
		return
	}

	short := rec.Fingerprint
	if len(short) > 12 {
		short = short[:12]
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "mesh-"+short+".csv"))
	if err := encode.WriteCSV(w, mesh); err != nil {
		// Headers are already out; nothing sensible left to send.
		return
	}
}

// ListMeshes handles GET /api/v1/mesh?limit=N.
func (h *Handler) ListMeshes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err == nil {
			limit = parsed
		}
	}

	recs, err := h.MeshRepo.List(r.Context(), h.DB, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if recs == nil {
		recs = []domain.MeshRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// CreateGeometry handles POST /api/v1/geometry.
func (h *Handler) CreateGeometry(w http.ResponseWriter, r *http.Request) {
	var req CreateGeometryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "name is required"})
		return
	}

	rec, err := h.GeometryRepo.Create(r.Context(), h.DB, req.Name, req.Points)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// GetGeometry handles GET /api/v1/geometry/{name}.
func (h *Handler) GetGeometry(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rec, err := h.GeometryRepo.GetByName(r.Context(), h.DB, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListGeometries handles GET /api/v1/geometry.
func (h *Handler) ListGeometries(w http.ResponseWriter, r *http.Request) {
	recs, err := h.GeometryRepo.List(r.Context(), h.DB)
	if err != nil {
		writeError(w, err)
		return
	}
	if recs == nil {
		recs = []domain.GeometryRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if engErr, ok := err.(*domain.EngineError); ok {
		writeJSON(w, statusForCode(engErr.Code), APIError{Code: engErr.Code, Message: engErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, APIError{Code: -1, Message: err.Error()})
}

// statusForCode maps engine error bands to HTTP statuses: bad input is 400,
// valid-but-unmeshable geometry and exhausted budgets are 422, store lookups
// are 404 or 409.
func statusForCode(code int) int {
	switch code {
	case domain.ErrResultNotFound.Code, domain.ErrGeometryNotFound.Code:
		return http.StatusNotFound
	case domain.ErrDuplicateGeometry.Code:
		return http.StatusConflict
	}
	switch {
	case code <= -32010 && code > -32070:
		return http.StatusBadRequest
	case code <= -32070 && code > -32130:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

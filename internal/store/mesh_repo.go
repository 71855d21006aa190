package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/planemesh/engine/internal/domain"
)

// MeshRepo handles persistence for generated mesh results, addressed by
// request fingerprint.
type MeshRepo struct{}

// Save stores a mesh result. Saving a fingerprint that already exists
// replaces the stored result; generation is deterministic, so the payload
// is identical and the replace is an idempotent refresh.
func (r *MeshRepo) Save(ctx context.Context, db *sql.DB, rec domain.MeshRecord) (domain.MeshRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAtUnix == 0 {
		rec.CreatedAtUnix = time.Now().Unix()
	}

	const q = `INSERT INTO mesh_results (id, fingerprint, algorithm, request_json, mesh_json, report_json, created_at_unix)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(fingerprint) DO UPDATE SET
	algorithm = excluded.algorithm,
	request_json = excluded.request_json,
	mesh_json = excluded.mesh_json,
	report_json = excluded.report_json`
	_, err := db.ExecContext(ctx, q,
		rec.ID,
		rec.Fingerprint,
		rec.Algorithm,
		rec.RequestJSON,
		rec.MeshJSON,
		rec.ReportJSON,
		rec.CreatedAtUnix,
	)
	if err != nil {
		return rec, fmt.Errorf("save mesh result: %w", err)
	}
	return rec, nil
}

// GetByFingerprint retrieves a stored result by request fingerprint.
func (r *MeshRepo) GetByFingerprint(ctx context.Context, db *sql.DB, fingerprint string) (*domain.MeshRecord, error) {
	const q = `SELECT id, fingerprint, algorithm, request_json, mesh_json, report_json, created_at_unix
FROM mesh_results WHERE fingerprint = ?`

	row := db.QueryRowContext(ctx, q, fingerprint)

	var rec domain.MeshRecord
	err := row.Scan(&rec.ID, &rec.Fingerprint, &rec.Algorithm, &rec.RequestJSON,
		&rec.MeshJSON, &rec.ReportJSON, &rec.CreatedAtUnix)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("get mesh result: %w", err)
	}
	return &rec, nil
}

// List returns stored results newest first, without the mesh payloads.
func (r *MeshRepo) List(ctx context.Context, db *sql.DB, limit int) ([]domain.MeshRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id, fingerprint, algorithm, report_json, created_at_unix
FROM mesh_results ORDER BY created_at_unix DESC, id LIMIT ?`

	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list mesh results: %w", err)
	}
	defer rows.Close()

	var out []domain.MeshRecord
	for rows.Next() {
		var rec domain.MeshRecord
		if err := rows.Scan(&rec.ID, &rec.Fingerprint, &rec.Algorithm, &rec.ReportJSON, &rec.CreatedAtUnix); err != nil {
			return nil, fmt.Errorf("scan mesh result: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/planemesh/engine/internal/domain"
)

// GeometryRepo handles persistence for named boundary point sets.
type GeometryRepo struct{}

// Create stores a new named geometry. Names are unique; a second create
// under the same name returns ErrDuplicateGeometry.
func (r *GeometryRepo) Create(ctx context.Context, db *sql.DB, name string, points []domain.Point) (domain.GeometryRecord, error) {
	rec := domain.GeometryRecord{
		ID:            uuid.NewString(),
		Name:          name,
		Points:        points,
		CreatedAtUnix: time.Now().Unix(),
	}

	raw, err := json.Marshal(points)
	if err != nil {
		return rec, fmt.Errorf("marshal points: %w", err)
	}

	const q = `INSERT INTO geometries (id, name, points_json, created_at_unix) VALUES (?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, q, rec.ID, rec.Name, string(raw), rec.CreatedAtUnix)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return rec, domain.ErrDuplicateGeometry.WithDetail("%q", name)
		}
		return rec, fmt.Errorf("create geometry: %w", err)
	}
	return rec, nil
}

// GetByName retrieves a stored geometry by name.
func (r *GeometryRepo) GetByName(ctx context.Context, db *sql.DB, name string) (*domain.GeometryRecord, error) {
	const q = `SELECT id, name, points_json, created_at_unix FROM geometries WHERE name = ?`

	row := db.QueryRowContext(ctx, q, name)

	var rec domain.GeometryRecord
	var pointsJSON string
	err := row.Scan(&rec.ID, &rec.Name, &pointsJSON, &rec.CreatedAtUnix)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrGeometryNotFound.WithDetail("%q", name)
		}
		return nil, fmt.Errorf("get geometry: %w", err)
	}
	if err := json.Unmarshal([]byte(pointsJSON), &rec.Points); err != nil {
		return nil, fmt.Errorf("decode geometry points: %w", err)
	}
	return &rec, nil
}

// List returns all stored geometries ordered by name.
func (r *GeometryRepo) List(ctx context.Context, db *sql.DB) ([]domain.GeometryRecord, error) {
	const q = `SELECT id, name, points_json, created_at_unix FROM geometries ORDER BY name`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list geometries: %w", err)
	}
	defer rows.Close()

	var out []domain.GeometryRecord
	for rows.Next() {
		var rec domain.GeometryRecord
		var pointsJSON string
		if err := rows.Scan(&rec.ID, &rec.Name, &pointsJSON, &rec.CreatedAtUnix); err != nil {
			return nil, fmt.Errorf("scan geometry: %w", err)
		}
		if err := json.Unmarshal([]byte(pointsJSON), &rec.Points); err != nil {
			return nil, fmt.Errorf("decode geometry points: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

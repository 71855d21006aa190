// Package encode serializes meshes to the two wire formats: Mesh-JSON for
// the HTTP surface and the store, Mesh-CSV for tabular export.
package encode

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/planemesh/engine/internal/domain"
	"github.com/planemesh/engine/internal/geom"
)

// MeshJSON is the wire form of a mesh. Elements appear twice: as inline
// coordinate tuples for consumers that want geometry without an index
// lookup, and as vertex indices for consumers that want connectivity.
type MeshJSON struct {
	Vertices        []domain.Point    `json:"vertices"`
	Triangles       [][3]domain.Point `json:"triangles"`
	TriangleIndices [][3]int          `json:"triangle_indices"`
	Quads           [][4]domain.Point `json:"quads,omitempty"`
	QuadIndices     [][4]int          `json:"quad_indices,omitempty"`
	BoundaryCount   int               `json:"boundary_count"`
}

// ToJSON converts a mesh to its wire form.
func ToJSON(mesh *domain.Mesh) MeshJSON {
	out := MeshJSON{
		Vertices:        mesh.Vertices,
		TriangleIndices: mesh.Triangles,
		Triangles:       make([][3]domain.Point, len(mesh.Triangles)),
		BoundaryCount:   mesh.BoundaryCount,
	}
	for i, t := range mesh.Triangles {
		out.Triangles[i] = [3]domain.Point{mesh.Vertices[t[0]], mesh.Vertices[t[1]], mesh.Vertices[t[2]]}
	}
	if len(mesh.Quads) > 0 {
		out.QuadIndices = mesh.Quads
		out.Quads = make([][4]domain.Point, len(mesh.Quads))
		for i, q := range mesh.Quads {
			out.Quads[i] = [4]domain.Point{mesh.Vertices[q[0]], mesh.Vertices[q[1]], mesh.Vertices[q[2]], mesh.Vertices[q[3]]}
		}
	}
	return out
}

// FromJSON rebuilds the internal mesh from its wire form. The inline
// coordinate tuples are derived data and ignored.
func FromJSON(mj MeshJSON) *domain.Mesh {
	return &domain.Mesh{
		Vertices:      mj.Vertices,
		Triangles:     mj.TriangleIndices,
		Quads:         mj.QuadIndices,
		BoundaryCount: mj.BoundaryCount,
	}
}

// Marshal renders a mesh as Mesh-JSON bytes.
func Marshal(mesh *domain.Mesh) ([]byte, error) {
	return json.Marshal(ToJSON(mesh))
}

// Unmarshal parses Mesh-JSON bytes back into a mesh.
func Unmarshal(data []byte) (*domain.Mesh, error) {
	var mj MeshJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return nil, domain.WrapEngineError(domain.ErrInternal.Code, "decode mesh json", err)
	}
	return FromJSON(mj), nil
}

// csvHeader has four vertex slots; triangle rows leave the fourth blank.
var csvHeader = []string{
	"element", "kind",
	"v1_x", "v1_y", "v2_x", "v2_y", "v3_x", "v3_y", "v4_x", "v4_y",
	"area",
}

// WriteCSV renders the mesh as Mesh-CSV: one row per element, triangles
// first, then quads.
func WriteCSV(w io.Writer, mesh *domain.Mesh) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	idx := 0
	for _, t := range mesh.Triangles {
		a, b, c := mesh.Vertices[t[0]], mesh.Vertices[t[1]], mesh.Vertices[t[2]]
		row := []string{
			strconv.Itoa(idx), "triangle",
			fnum(a.X), fnum(a.Y), fnum(b.X), fnum(b.Y), fnum(c.X), fnum(c.Y), "", "",
			fnum(geom.TriangleArea(a, b, c)),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
		idx++
	}
	for _, q := range mesh.Quads {
		a, b, c, d := mesh.Vertices[q[0]], mesh.Vertices[q[1]], mesh.Vertices[q[2]], mesh.Vertices[q[3]]
		row := []string{
			strconv.Itoa(idx), "quad",
			fnum(a.X), fnum(a.Y), fnum(b.X), fnum(b.Y), fnum(c.X), fnum(c.Y), fnum(d.X), fnum(d.Y),
			fnum(geom.QuadArea(a, b, c, d)),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
		idx++
	}

	cw.Flush()
	return cw.Error()
}

func fnum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

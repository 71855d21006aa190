package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/planemesh/engine/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `{
		"db_path": "/tmp/planemesh.db",
		"listen_addr": ":7000",
		"default_max_area": 2.5,
		"max_vertices": 5000
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":7000" {
		t.Errorf("listen_addr: got %q", cfg.ListenAddr)
	}
	if cfg.DefaultMaxArea != 2.5 {
		t.Errorf("default_max_area: got %f", cfg.DefaultMaxArea)
	}
	if cfg.MaxVertices != 5000 {
		t.Errorf("max_vertices: got %d", cfg.MaxVertices)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "parse config JSON") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_MissingDBPath(t *testing.T) {
	path := writeConfig(t, `{"listen_addr": ":7000"}`)
	_, err := Load(path)
	var ee *domain.EngineError
	if !errors.As(err, &ee) || ee.Code != domain.ErrConfigInvalid.Code {
		t.Fatalf("expected config-invalid error, got %v", err)
	}
	if !strings.Contains(ee.Message, "db_path") {
		t.Errorf("error should name db_path: %v", ee.Message)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `{"db_path": "/tmp/planemesh.db"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9810" {
		t.Errorf("listen_addr default: got %q", cfg.ListenAddr)
	}
	if cfg.DefaultMaxArea != 0.1 {
		t.Errorf("default_max_area default: got %f", cfg.DefaultMaxArea)
	}
	if cfg.DefaultMinAngle != 20 {
		t.Errorf("default_min_angle default: got %f", cfg.DefaultMinAngle)
	}
	if cfg.MaxRefineRounds != 50 || cfg.MaxVertices != 10000 || cfg.MaxAnnealIterations != 10000 {
		t.Errorf("cap defaults: %+v", cfg)
	}
	if !cfg.Persist() {
		t.Errorf("persistence should default on")
	}
}

func TestLoad_PersistDisabled(t *testing.T) {
	path := writeConfig(t, `{"db_path": "/tmp/planemesh.db", "persist_results": false}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Persist() {
		t.Errorf("persist_results=false not honored")
	}
}

func TestLoad_BadVertexCap(t *testing.T) {
	path := writeConfig(t, `{"db_path": "/tmp/planemesh.db", "max_vertices": 10}`)
	_, err := Load(path)
	var ee *domain.EngineError
	if !errors.As(err, &ee) || ee.Code != domain.ErrConfigInvalid.Code {
		t.Fatalf("expected config-invalid error, got %v", err)
	}
}

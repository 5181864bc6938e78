package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Storage.DataPath != "./data" {
		t.Errorf("data path = %q, want ./data", cfg.Storage.DataPath)
	}
	if cfg.Storage.VectorBackend != "sqlite" {
		t.Errorf("vector backend = %q, want sqlite", cfg.Storage.VectorBackend)
	}
	if !cfg.LLM.Enabled {
		t.Error("LLM should be enabled by default")
	}
	if cfg.LLM.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("embedding model = %q", cfg.LLM.EmbeddingModel)
	}
	if cfg.Engine.Workers != 2 {
		t.Errorf("workers = %d, want 2", cfg.Engine.Workers)
	}
	if cfg.DatabasePath() != "./data/devlog.db" {
		t.Errorf("database path = %q", cfg.DatabasePath())
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() with missing file failed: %v", err)
	}
	if cfg.Storage.VectorBackend != "sqlite" {
		t.Errorf("vector backend = %q, want default", cfg.Storage.VectorBackend)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devlog.yaml")
	data := `
storage:
  data_path: /var/lib/devlog
  vector_backend: none
llm:
  enabled: false
engine:
  workers: 4
  min_reflection_minutes: 30
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Storage.DataPath != "/var/lib/devlog" {
		t.Errorf("data path = %q", cfg.Storage.DataPath)
	}
	if cfg.Storage.VectorBackend != "none" {
		t.Errorf("vector backend = %q, want none", cfg.Storage.VectorBackend)
	}
	if cfg.LLM.Enabled {
		t.Error("LLM should be disabled by the file")
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("workers = %d, want 4", cfg.Engine.Workers)
	}
	if cfg.Engine.MinReflectionMinutes != 30 {
		t.Errorf("min reflection minutes = %d, want 30", cfg.Engine.MinReflectionMinutes)
	}
	// Untouched options keep their defaults.
	if cfg.Engine.QueueSize != 256 {
		t.Errorf("queue size = %d, want default 256", cfg.Engine.QueueSize)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devlog.yaml")
	if err := os.WriteFile(path, []byte("storage: ["), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() with malformed YAML should fail")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devlog.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  data_path: /from/file\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	t.Setenv("DEVLOG_DATA_PATH", "/from/env")
	t.Setenv("DEVLOG_VECTOR_BACKEND", "none")
	t.Setenv("DEVLOG_LLM_ENABLED", "false")
	t.Setenv("DEVLOG_WORKERS", "8")
	t.Setenv("DEVLOG_LLM_TIMEOUT", "42s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Storage.DataPath != "/from/env" {
		t.Errorf("data path = %q, env should win over file", cfg.Storage.DataPath)
	}
	if cfg.Storage.VectorBackend != "none" {
		t.Errorf("vector backend = %q, want none", cfg.Storage.VectorBackend)
	}
	if cfg.LLM.Enabled {
		t.Error("LLM should be disabled by env")
	}
	if cfg.Engine.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Engine.Workers)
	}
	if cfg.LLM.Timeout != 42*time.Second {
		t.Errorf("timeout = %v, want 42s", cfg.LLM.Timeout)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("DEVLOG_VECTOR_BACKEND", "postgres")
	if _, err := Load(""); err == nil {
		t.Error("postgres backend without a DSN should fail validation")
	}

	t.Setenv("DEVLOG_POSTGRES_DSN", "postgres://localhost/devlog")
	if _, err := Load(""); err != nil {
		t.Errorf("postgres backend with DSN failed: %v", err)
	}

	t.Setenv("DEVLOG_VECTOR_BACKEND", "duckdb")
	if _, err := Load(""); err == nil {
		t.Error("unknown vector backend should fail validation")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nmcanvas/pkg/errors"
)

// isolate points every search location at empty temp directories.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, key := range []string{"MODEL", "SCHEMA", "LOG_LEVEL", "SNAPSHOTS", "SNAPSHOT_DIR", "REDIS_URL",
		"REDIS_PREFIX", "MONGO_URI", "MONGO_DATABASE", "ADDR", "STRICT", "CHECK_REFS", "VALIDATE_ON_SAVE"} {
		t.Setenv(EnvPrefix+key, "")
		os.Unsetenv(EnvPrefix + key)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != filepath.Join("model", "graph.json") {
		t.Errorf("Model = %q", cfg.Model)
	}
	if !cfg.ValidateOnSave || cfg.Strict || cfg.CheckReferences {
		t.Errorf("flags = %+v", cfg)
	}
	if cfg.Snapshots.Backend != BackendFile || cfg.Server.Addr != ":8080" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want none", cfg.Source)
	}
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), "custom.toml", `
model = "topology.json"
strict = true
validate_on_save = false
log_level = "debug"

[snapshots]
backend = "redis"
redis_url = "redis://localhost:6379/1"

[server]
addr = "127.0.0.1:9000"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "topology.json" || !cfg.Strict || cfg.ValidateOnSave {
		t.Errorf("top-level = %+v", cfg)
	}
	if cfg.Snapshots.Backend != BackendRedis || cfg.Snapshots.RedisPrefix != "nmcanvas:" {
		t.Errorf("snapshots = %+v", cfg.Snapshots)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Level() != log.DebugLevel {
		t.Errorf("server/level = %q/%v", cfg.Server.Addr, cfg.Level())
	}
	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
}

func TestLoadXDGFile(t *testing.T) {
	isolate(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	path := writeFile(t, xdg, filepath.Join("nmcanvas", "config.toml"), `check_refs = true`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.CheckReferences || cfg.Source != path {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), "c.toml", `model = "from-file.json"`)
	t.Setenv("NMCANVAS_MODEL", "from-env.json")
	t.Setenv("NMCANVAS_STRICT", "true")
	t.Setenv("NMCANVAS_SNAPSHOTS", "none")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "from-env.json" || !cfg.Strict || cfg.Snapshots.Backend != BackendNone {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
		code errors.Code
	}{
		{name: "bad toml", file: `model = `, code: errors.ErrCodeInvalidConfig},
		{name: "bad bool", env: map[string]string{"NMCANVAS_STRICT": "sometimes"}, code: errors.ErrCodeInvalidConfig},
		{name: "unknown backend", file: "[snapshots]\nbackend = \"s3\"", code: errors.ErrCodeInvalidConfig},
		{name: "redis without url", file: "[snapshots]\nbackend = \"redis\"", code: errors.ErrCodeInvalidConfig},
		{name: "redis bad scheme", file: "[snapshots]\nbackend = \"redis\"\nredis_url = \"http://x\"", code: errors.ErrCodeInvalidConfig},
		{name: "mongo without uri", file: "[snapshots]\nbackend = \"mongo\"", code: errors.ErrCodeInvalidConfig},
		{name: "bad log level", file: `log_level = "loud"`, code: errors.ErrCodeInvalidConfig},
		{name: "empty model", env: map[string]string{"NMCANVAS_MODEL": " "}, code: errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, t.TempDir(), "c.toml", tt.file)
			}

			if _, err := Load(path); !errors.Is(err, tt.code) {
				t.Errorf("Load error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestSnapshotDir(t *testing.T) {
	isolate(t)
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)

	cfg := Default()
	dir, err := cfg.SnapshotDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join(cache, "nmcanvas", "snapshots") {
		t.Errorf("SnapshotDir = %q", dir)
	}

	cfg.Snapshots.Dir = "/tmp/snaps"
	if dir, _ := cfg.SnapshotDir(); dir != "/tmp/snaps" {
		t.Errorf("explicit SnapshotDir = %q", dir)
	}
}

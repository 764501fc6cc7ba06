package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DataDir == "" {
		t.Error("expected a default data directory")
	}
	if cfg.Camera.IdleFPS != 5 || cfg.Camera.ActiveFPS != 30 {
		t.Errorf("unexpected default frame rates: %d/%d", cfg.Camera.IdleFPS, cfg.Camera.ActiveFPS)
	}
	if cfg.Server.Bind != ":8080" {
		t.Errorf("default bind = %q, want :8080", cfg.Server.Bind)
	}
	if cfg.Pose.MinConfidence != 0.7 {
		t.Errorf("default min confidence = %f, want 0.7", cfg.Pose.MinConfidence)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Camera.IdleFPS != Default().Camera.IdleFPS {
		t.Errorf("expected defaults for missing file, got %+v", cfg.Camera)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
data_dir = "/tmp/coach-data"

[camera]
device_id = 2
idle_fps = 10
active_fps = 25

[server]
bind = ":9090"

[pose]
model_complexity = 1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataDir != "/tmp/coach-data" {
		t.Errorf("data dir = %q, want /tmp/coach-data", cfg.DataDir)
	}
	if cfg.Camera.DeviceID != 2 {
		t.Errorf("device id = %d, want 2", cfg.Camera.DeviceID)
	}
	if cfg.Camera.IdleFPS != 10 || cfg.Camera.ActiveFPS != 25 {
		t.Errorf("frame rates = %d/%d, want 10/25", cfg.Camera.IdleFPS, cfg.Camera.ActiveFPS)
	}
	if cfg.Server.Bind != ":9090" {
		t.Errorf("bind = %q, want :9090", cfg.Server.Bind)
	}
	if cfg.Pose.ModelComplexity != 1 {
		t.Errorf("model complexity = %d, want 1", cfg.Pose.ModelComplexity)
	}

	// Unset fields keep their defaults
	if cfg.Pose.MinConfidence != 0.7 {
		t.Errorf("min confidence = %f, want default 0.7", cfg.Pose.MinConfidence)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected an error for malformed TOML")
	}
}

func TestLoad_ValidatesFrameRates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[camera]
idle_fps = 60
active_fps = 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected an error when idle_fps exceeds active_fps")
	}
}

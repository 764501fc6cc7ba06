// Package config loads the application configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Camera contains video capture configuration.
type Camera struct {
	DeviceID  int     `toml:"device_id"`
	IdleFPS   int     `toml:"idle_fps"`
	ActiveFPS int     `toml:"active_fps"`
	MotionPct float64 `toml:"motion_threshold_pct"`
}

// Server contains HTTP server configuration.
type Server struct {
	Bind      string `toml:"bind"`
	StaticDir string `toml:"static_dir"`
}

// Pose contains pose estimator configuration.
type Pose struct {
	ModelComplexity int     `toml:"model_complexity"`
	MinConfidence   float64 `toml:"min_confidence"`
	MinTrackingConf float64 `toml:"min_tracking_confidence"`
}

// Config is the root application configuration.
type Config struct {
	DataDir string `toml:"data_dir"`
	Camera  Camera `toml:"camera"`
	Server  Server `toml:"server"`
	Pose    Pose   `toml:"pose"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".violincoach"),
		Camera: Camera{
			DeviceID:  0,
			IdleFPS:   5,
			ActiveFPS: 30,
			MotionPct: 1.0,
		},
		Server: Server{
			Bind: ":8080",
		},
		Pose: Pose{
			ModelComplexity: 2,
			MinConfidence:   0.7,
			MinTrackingConf: 0.7,
		},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "violincoach.toml"
	}
	return filepath.Join(home, ".violincoach", "config.toml")
}

// Load reads the configuration from path, filling unset fields with
// defaults. A missing file is not an error: defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Camera.IdleFPS <= 0 || c.Camera.ActiveFPS <= 0 {
		return fmt.Errorf("config: frame rates must be positive")
	}
	if c.Camera.IdleFPS > c.Camera.ActiveFPS {
		return fmt.Errorf("config: idle_fps %d exceeds active_fps %d",
			c.Camera.IdleFPS, c.Camera.ActiveFPS)
	}
	if c.Pose.MinConfidence < 0 || c.Pose.MinConfidence > 1 {
		return fmt.Errorf("config: min_confidence out of range")
	}
	return nil
}

package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/msgsink/internal/feed"
)

// sinkctl config.toml key mapping to run settings.
type fileConfig struct {
	Profile     string   `toml:"profile"`
	Input       string   `toml:"input"`
	Listen      string   `toml:"listen"`
	AdminAddr   string   `toml:"admin_addr"`
	Format      string   `toml:"format"`
	CORSOrigins []string `toml:"cors_origins"`
	ReadChunk   int      `toml:"read_chunk"`
	ReadTimeout string   `toml:"read_timeout"`
	Watch       bool     `toml:"watch"`
}

// Resolved sinkctl run settings.
type runConfig struct {
	ProfilePath string
	Input       string
	Listen      string
	AdminAddr   string
	Format      string
	CORSOrigins []string
	ReadChunk   int
	ReadTimeout time.Duration
	Watch       bool
}

func defaultRunConfig() runConfig {
	return runConfig{
		Input:     "-",
		Format:    formatQuoted,
		ReadChunk: feed.DefaultChunkSize,
	}
}

// sinkctl loader for TOML config with default overlay. A relative profile
// path resolves against the config file's directory.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, fmt.Errorf("load sinkctl config: %w", err)
	}

	if meta.IsDefined("profile") {
		cfg.ProfilePath = resolvePath(path, strings.TrimSpace(raw.Profile))
	}
	if meta.IsDefined("input") {
		cfg.Input = strings.TrimSpace(raw.Input)
	}
	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("format") {
		cfg.Format = strings.TrimSpace(raw.Format)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = raw.CORSOrigins
	}
	if meta.IsDefined("read_chunk") {
		cfg.ReadChunk = raw.ReadChunk
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return runConfig{}, fmt.Errorf("load sinkctl config: read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}

	if meta.IsDefined("watch") {
		cfg.Watch = raw.Watch
	}

	if err := cfg.validate(); err != nil {
		return runConfig{}, fmt.Errorf("load sinkctl config: %w", err)
	}
	return cfg, nil
}

func (cfg runConfig) validate() error {
	if !validFormat(cfg.Format) {
		return fmt.Errorf("unsupported format %q (expected quoted, hex or raw)", cfg.Format)
	}
	if cfg.ReadChunk <= 0 {
		return fmt.Errorf("read_chunk must be positive, got %d", cfg.ReadChunk)
	}
	if cfg.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout must not be negative, got %s", cfg.ReadTimeout)
	}
	return nil
}

// validateMode checks combinations that only make sense once flags are
// applied on top of the file.
func (cfg runConfig) validateMode() error {
	if !cfg.Watch {
		return nil
	}
	if cfg.Listen == "" {
		return fmt.Errorf("watch reloads the profile for new tcp sessions and requires listen")
	}
	if cfg.ProfilePath == "" {
		return fmt.Errorf("watch requires a profile path")
	}
	return nil
}

func resolvePath(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

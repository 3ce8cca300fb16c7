// Package config loads kvdiff settings from JSONC files.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/kvdiff/internal/workload"
)

// FileName is the project config file looked up in the working directory.
const FileName = ".kvdiff.json"

// Errors returned by [Load].
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
)

// Config holds all settings.
type Config struct {
	// Workload defaults for "gen".
	Table  string `json:"table"`
	Ops    int    `json:"ops"`
	MaxKey int    `json:"max_key"`
	Seed   uint64 `json:"seed"`

	// Oracle defaults.
	SingleTable bool `json:"single_table"`
	Strict      bool `json:"strict"`

	// Sources tracks which config files were loaded.
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // path to global config if loaded
	Project string // path to project or explicit config if loaded
}

// fileConfig distinguishes absent fields from zero values.
type fileConfig struct {
	Table       *string `json:"table"`
	Ops         *int    `json:"ops"`
	MaxKey      *int    `json:"max_key"`
	Seed        *uint64 `json:"seed"`
	SingleTable *bool   `json:"single_table"`
	Strict      *bool   `json:"strict"`
}

// Default returns the built-in configuration.
func Default() Config {
	w := workload.DefaultConfig()

	return Config{
		Table:  w.Table,
		Ops:    w.Ops,
		MaxKey: w.MaxKey,
		Seed:   w.Seed,
	}
}

// Workload returns the workload part of cfg.
func (cfg Config) Workload() workload.Config {
	return workload.Config{
		Ops:    cfg.Ops,
		MaxKey: cfg.MaxKey,
		Table:  cfg.Table,
		Seed:   cfg.Seed,
	}
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDir    string            // directory searched for FileName
	ConfigPath string            // -c/--config flag value, relative to WorkDir
	Env        map[string]string // environment variables
}

// Load resolves configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/kvdiff/config.json or
// ~/.config/kvdiff/config.json)
// 3. Project config (.kvdiff.json in WorkDir), or the explicit ConfigPath
// instead when set.
//
// Command-line flags are applied on top by the caller.
func Load(input LoadInput) (Config, error) {
	cfg := Default()

	globalPath := globalConfigPath(input.Env)
	if globalPath != "" {
		loaded, err := loadFile(&cfg, globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = globalPath
		}
	}

	projectPath := filepath.Join(input.WorkDir, FileName)
	mustExist := false

	if input.ConfigPath != "" {
		projectPath = input.ConfigPath
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(input.WorkDir, projectPath)
		}

		mustExist = true

		_, statErr := os.Stat(projectPath)
		if statErr != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, input.ConfigPath)
		}
	}

	loaded, err := loadFile(&cfg, projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg.Sources.Project = projectPath
	}

	return cfg, nil
}

// globalConfigPath returns "" when no home directory is known.
func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "kvdiff", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "kvdiff", "config.json")
	}

	return ""
}

// loadFile merges the file at path into cfg. A missing optional file is not
// an error.
func loadFile(cfg *Config, path string, mustExist bool) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return false, nil
		}

		return false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	overlay, err := parse(data)
	if err != nil {
		return false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	merged := merge(*cfg, overlay)

	err = merged.Workload().Validate()
	if err != nil {
		return false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	*cfg = merged

	return true, nil
}

func parse(data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	var fc fileConfig

	err = dec.Decode(&fc)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return fc, nil
}

func merge(base Config, overlay fileConfig) Config {
	if overlay.Table != nil {
		base.Table = *overlay.Table
	}

	if overlay.Ops != nil {
		base.Ops = *overlay.Ops
	}

	if overlay.MaxKey != nil {
		base.MaxKey = *overlay.MaxKey
	}

	if overlay.Seed != nil {
		base.Seed = *overlay.Seed
	}

	if overlay.SingleTable != nil {
		base.SingleTable = *overlay.SingleTable
	}

	if overlay.Strict != nil {
		base.Strict = *overlay.Strict
	}

	return base
}

// Format renders cfg as indented JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}

	return string(data), nil
}

package main

import (
	"alcyxob/runplan/internal/domain"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// profileFile is the on-disk profile fixture, YAML or TOML.
type profileFile struct {
	Experience string   `yaml:"experience" toml:"experience"`
	Goal       string   `yaml:"goal" toml:"goal"`
	Weight     *float64 `yaml:"weight" toml:"weight"`
	Height     *float64 `yaml:"height" toml:"height"`
	RunDays    []string `yaml:"run_days" toml:"run_days"`
}

// loadProfile reads a profile fixture, choosing the format by file extension.
func loadProfile(path string) (*domain.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var pf profileFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("invalid TOML profile: %w", err)
		}
	case ".yaml", ".yml", ".json":
		// JSON is valid YAML
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("invalid YAML profile: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported profile format %q (use .yaml, .toml or .json)", filepath.Ext(path))
	}

	profile := &domain.Profile{
		Experience: pf.Experience,
		Goal:       pf.Goal,
		Weight:     pf.Weight,
		Height:     pf.Height,
		RunDays:    pf.RunDays,
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return profile, nil
}

// internal/config/config.go
//
// Configuration for a pipeline run: the role table feeding the context
// optimizer, bus tuning, and process-level settings. A YAML file supplies
// the durable parts; environment variables override the process-level ones.

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/foundry-sim/foundry/internal/optimizer"
	"github.com/foundry-sim/foundry/internal/pipeline"
)

const defaultConfigYAML = `# foundry pipeline configuration
version: 1

bus:
  log_capacity: 1000
  handler_timeout: 5s

# Context slices per role. Roles omitted here receive unfiltered context.
roles:
  product-manager:
    analysis_sections: [Overview, Goals, Requirements]
    profile_sections: [Tone, Documentation]
  architect:
    analysis_sections: [Overview, Architecture, Constraints, Dependencies]
    profile_sections: [Conventions, Patterns]
    full_artifacts: true
  developer:
    analysis_sections: [Architecture, Implementation, Dependencies]
    profile_sections: [Conventions, Formatting, Testing]
    full_artifacts: true
  reviewer:
    analysis_sections: [Requirements, Constraints, Testing]
    profile_sections: [Conventions, Testing]
  tester:
    analysis_sections: [Requirements, Testing]
    profile_sections: [Testing]
`

// BusConfig tunes the message bus.
type BusConfig struct {
	LogCapacity    int    `yaml:"log_capacity"`
	HandlerTimeout string `yaml:"handler_timeout"`
}

// RoleSlice mirrors optimizer.ContextSlice in YAML form.
type RoleSlice struct {
	AnalysisSections []string `yaml:"analysis_sections"`
	ProfileSections  []string `yaml:"profile_sections"`
	FullArtifacts    bool     `yaml:"full_artifacts"`
}

// File models the YAML configuration document.
type File struct {
	Version int                         `yaml:"version"`
	Bus     BusConfig                   `yaml:"bus"`
	Roles   map[pipeline.Role]RoleSlice `yaml:"roles"`
}

// Env carries process-level overrides read from the environment.
type Env struct {
	ConfigPath  string `env:"FOUNDRY_CONFIG"`
	LogLevel    string `env:"FOUNDRY_LOG_LEVEL" envDefault:"info"`
	Headless    bool   `env:"FOUNDRY_HEADLESS"`
	JournalPath string `env:"FOUNDRY_JOURNAL"`
}

// Config is the fully resolved runtime configuration.
type Config struct {
	File File
	Env  Env
}

// Load resolves configuration: embedded defaults, then the YAML file named
// by FOUNDRY_CONFIG (when set), then environment overrides.
func Load() (*Config, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	file, err := parseFile([]byte(defaultConfigYAML))
	if err != nil {
		return nil, fmt.Errorf("config: embedded defaults are broken: %w", err)
	}
	if e.ConfigPath != "" {
		data, readErr := os.ReadFile(e.ConfigPath)
		if readErr != nil {
			return nil, fmt.Errorf("config: read %s: %w", e.ConfigPath, readErr)
		}
		file, err = parseFile(data)
		if err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", e.ConfigPath, err)
		}
	}

	return &Config{File: file, Env: e}, nil
}

func parseFile(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, err
	}
	if f.Version != 1 {
		return File{}, fmt.Errorf("unsupported config version %d", f.Version)
	}
	if f.Bus.LogCapacity <= 0 {
		f.Bus.LogCapacity = 1000
	}
	if f.Bus.HandlerTimeout == "" {
		f.Bus.HandlerTimeout = "5s"
	}
	if _, err := time.ParseDuration(f.Bus.HandlerTimeout); err != nil {
		return File{}, fmt.Errorf("invalid handler_timeout %q: %w", f.Bus.HandlerTimeout, err)
	}
	return f, nil
}

// HandlerTimeout returns the parsed per-handler delivery bound.
func (f File) HandlerTimeout() time.Duration {
	d, err := time.ParseDuration(f.Bus.HandlerTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// SliceTable builds the immutable optimizer lookup from the role section.
func (f File) SliceTable() *optimizer.SliceTable {
	slices := make(map[pipeline.Role]optimizer.ContextSlice, len(f.Roles))
	for role, rs := range f.Roles {
		slices[role] = optimizer.ContextSlice{
			AnalysisSections: rs.AnalysisSections,
			ProfileSections:  rs.ProfileSections,
			FullArtifacts:    rs.FullArtifacts,
		}
	}
	return optimizer.NewSliceTable(slices)
}

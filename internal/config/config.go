// Package config loads the optional .mxvalidate YAML file and resolves
// the TEST_* environment variables that parameterise validation suites.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up at the repository root.
const FileName = ".mxvalidate"

// Default values for runner configuration.
const (
	DefaultTimeout   = 24 * time.Hour
	DefaultMaxOutput = 64 << 20 // 64 MB
	DefaultLogID     = " nGraph"
)

// Config holds the parsed .mxvalidate configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int               `yaml:"version"`
	RawTimeout   string            `yaml:"timeout"`    // e.g. "12h", "30m"
	RawMaxOutput int               `yaml:"max_output"` // bytes
	Python       string            `yaml:"python"`     // interpreter; default resolved from PATH
	SourceDir    string            `yaml:"source_dir"` // repository checkout holding example/ scripts
	LogID        *string           `yaml:"log_id"`     // suffix after the timestamp of echoed lines
	Suites       []string          `yaml:"suites"`     // default selection for "run"
	Echo         EchoConfig        `yaml:"echo"`
	Fake         FakeConfig        `yaml:"fake"`
	MLflow       MLflowConfig      `yaml:"mlflow"`
	Env          map[string]string `yaml:"env"` // fallback values for TEST_* variables
}

// EchoConfig controls which captured lines are echoed to the terminal.
type EchoConfig struct {
	Patterns []string `yaml:"patterns"` // regexps; empty echoes every line
}

// FakeConfig bounds the sleep of fake runs (MX_NG_DO_NOT_RUN).
type FakeConfig struct {
	MinSleep string `yaml:"min_sleep"` // default 5s
	MaxSleep string `yaml:"max_sleep"` // default 15s
}

// MLflowConfig names the tracking server results are published to.
type MLflowConfig struct {
	TrackingURI  string `yaml:"tracking_uri"`
	ExperimentID string `yaml:"experiment_id"`
}

// Timeout returns the configured timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// LogIDOrDefault returns the echo prefix, " nGraph" unless configured.
func (c *Config) LogIDOrDefault() string {
	if c.LogID != nil {
		return *c.LogID
	}
	return DefaultLogID
}

// FakeSleep returns the bounds of a fake run. Zero values mean the
// runner's defaults.
func (c *Config) FakeSleep() (time.Duration, time.Duration) {
	return parseDuration(c.Fake.MinSleep), parseDuration(c.Fake.MaxSleep)
}

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// LoadResult holds the parsed config and the discovered repository root.
type LoadResult struct {
	Config   *Config
	RepoRoot string // directory containing .mxvalidate or .git; falls back to workspace
}

// Load reads the .mxvalidate file from the repository root.
// The root is discovered by walking upward from workspace looking for
// .mxvalidate or .git. If no file exists, a default Config is returned.
func Load(workspace string) (*LoadResult, error) {
	root, err := findRepoRoot(workspace)
	if err != nil {
		root = workspace
	}

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LoadResult{Config: &Config{}, RepoRoot: root}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if cfg.SourceDir != "" && !filepath.IsAbs(cfg.SourceDir) {
		cfg.SourceDir = filepath.Join(root, cfg.SourceDir)
	}
	return &LoadResult{Config: cfg, RepoRoot: root}, nil
}

// findRepoRoot walks upward from dir looking for .mxvalidate or .git.
func findRepoRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, marker := range []string{FileName, ".git"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("repository root not found")
		}
		dir = parent
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/safepush/safepush/internal/types"
)

// FileConfig is the on-disk YAML configuration shape for SafePush. Every
// field is a pointer (or slice) so the CLI can tell "unset" from "set to the
// zero value" when merging global config, local config, and flags.
type FileConfig struct {
	Profile   *string `yaml:"profile"`
	Threshold *string `yaml:"threshold"`
	Format    *string `yaml:"format"`
	Table     *bool   `yaml:"table"`
	NoColor   *bool   `yaml:"no_color"`
	Full      *bool   `yaml:"full"`

	Baseline    *string  `yaml:"baseline"`
	RuleFiles   []string `yaml:"rule_files"`
	IgnorePaths []string `yaml:"ignore_paths"`
	Markers     []string `yaml:"markers"`

	Threads         *int    `yaml:"threads"`
	MaxBytes        *int64  `yaml:"max_bytes"`
	Timeout         *string `yaml:"timeout"`
	DefaultExcludes *bool   `yaml:"default_excludes"`
	NoStructured    *bool   `yaml:"no_structured"`

	// Webhook to ping when a canary credential turns up in a commit.
	AlertWebhook *string `yaml:"alert_webhook"`

	// Per-rule severity adjustments, rule id -> low|medium|high|critical.
	SeverityOverrides map[string]string `yaml:"severity_overrides"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, types.IOErrorf("read config %s: %v", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, types.ConfigErrorf("parse config %s: %v", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
// It supports .safepush.yml/.yaml and safepush.yml/.yaml.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".safepush.yml", ".safepush.yaml", "safepush.yml", "safepush.yaml"} {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "safepush", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// profiles maps a policy profile name to the failure threshold it implies.
// strict blocks on anything, relaxed only on high and critical.
var profiles = map[string]types.Severity{
	"strict":   types.SevLow,
	"balanced": types.SevMed,
	"relaxed":  types.SevHigh,
}

// ProfileThreshold resolves a profile name to its failure threshold.
func ProfileThreshold(name string) (types.Severity, error) {
	sev, ok := profiles[name]
	if !ok {
		return "", types.ConfigErrorf("unknown profile %q (want strict, balanced or relaxed)", name)
	}
	return sev, nil
}

// Overrides validates and converts the severity_overrides block.
func (fc FileConfig) Overrides() (map[string]types.Severity, error) {
	if len(fc.SeverityOverrides) == 0 {
		return nil, nil
	}
	out := make(map[string]types.Severity, len(fc.SeverityOverrides))
	for rule, level := range fc.SeverityOverrides {
		sev, err := types.ParseSeverity(level)
		if err != nil {
			return nil, types.ConfigErrorf("severity_overrides[%s]: %v", rule, err)
		}
		out[rule] = sev
	}
	return out, nil
}

// TimeoutDuration parses the timeout field. Zero means no budget.
func (fc FileConfig) TimeoutDuration() (time.Duration, error) {
	if fc.Timeout == nil || *fc.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(*fc.Timeout)
	if err != nil {
		return 0, types.ConfigErrorf("timeout: %v", err)
	}
	if d < 0 {
		return 0, types.ConfigErrorf("timeout must not be negative")
	}
	return d, nil
}

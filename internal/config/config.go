// Package config loads anteater's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"anteater/internal/logging"

	"gopkg.in/yaml.v3"
)

// Root is the document shape: everything lives under the top-level `anteater` key.
type Root struct {
	Anteater Config `yaml:"anteater"`
}

// Config mirrors spec.md §6's enumerated option set exactly; unknown keys
// are ignored unless Strict is set on Load.
type Config struct {
	Exclude []string          `yaml:"exclude"`
	Rules   []RuleEntry       `yaml:"rules"`
	Metrics MetricsThresholds `yaml:"metrics"`
	Debt    DebtConfig        `yaml:"debt"`
	Dup     DupConfig         `yaml:"duplicate-detection"`
}

// DupConfig configures internal/dup's embedding-based duplicate-code
// detector (SPEC_FULL.md §3.3), a collaborator spec.md §2 leaves
// unspecified beyond naming "duplicate-code" as a debt category.
type DupConfig struct {
	SimilarityThreshold float64 `yaml:"similarity-threshold"`
	MinTokens           int     `yaml:"min-tokens"`
	CachePath           string  `yaml:"cache-path"`
}

// RuleEntry is either a bare rule id ("no-unused-vars") or a map entry with
// per-rule overrides ({"no-unused-vars": {severity: "error"}}).
type RuleEntry struct {
	ID       string
	Severity string
	Exclude  []string
	Options  map[string]interface{}
}

// UnmarshalYAML implements the string-or-map union described in spec.md §6.
func (r *RuleEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var id string
		if err := node.Decode(&id); err != nil {
			return err
		}
		r.ID = id
		return nil
	}

	if node.Kind == yaml.MappingNode {
		raw := map[string]map[string]interface{}{}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		for id, opts := range raw {
			r.ID = id
			if sev, ok := opts["severity"].(string); ok {
				r.Severity = sev
				delete(opts, "severity")
			}
			if ex, ok := opts["exclude"].([]interface{}); ok {
				for _, g := range ex {
					if s, ok := g.(string); ok {
						r.Exclude = append(r.Exclude, s)
					}
				}
				delete(opts, "exclude")
			}
			r.Options = opts
			return nil
		}
	}
	return fmt.Errorf("rules entry must be a string or a single-key map")
}

// MetricsThresholds are the metrics.* thresholds of spec.md §6.
type MetricsThresholds struct {
	CyclomaticComplexity int `yaml:"cyclomatic-complexity"`
	CognitiveComplexity  int `yaml:"cognitive-complexity"`
	MaintainabilityIndex int `yaml:"maintainability-index"`
	SourceLinesOfCode    int `yaml:"source-lines-of-code"`
	MaximumNesting       int `yaml:"maximum-nesting"`
	NumberOfParameters   int `yaml:"number-of-parameters"`
	NumberOfMethods      int `yaml:"number-of-methods"`
	HalsteadVolume       int `yaml:"halstead-volume"`
}

// DebtConfig is the debt.* section of spec.md §6.
type DebtConfig struct {
	Unit        string             `yaml:"unit"`
	Threshold   float64            `yaml:"threshold"`
	Costs       map[string]float64 `yaml:"costs"`
	Multipliers Multipliers        `yaml:"multipliers"`
	Metrics     DebtMetricGates    `yaml:"metrics"`
	Exclude     []string           `yaml:"exclude"`
}

// Multipliers scale a debt item's base cost by its severity.
type Multipliers struct {
	Critical float64 `yaml:"critical"`
	High     float64 `yaml:"high"`
	Medium   float64 `yaml:"medium"`
	Low      float64 `yaml:"low"`
}

// DebtMetricGates are the metric thresholds that turn a metric reading into a debt item.
type DebtMetricGates struct {
	MaintainabilityIndex float64 `yaml:"maintainability-index"`
	CyclomaticComplexity int     `yaml:"cyclomatic-complexity"`
	CognitiveComplexity  int     `yaml:"cognitive-complexity"`
	LinesOfCode          int     `yaml:"lines-of-code"`
}

// DefaultConfig returns the documented defaults from spec.md §6.
func DefaultConfig() *Config {
	return &Config{
		Metrics: MetricsThresholds{
			CyclomaticComplexity: 20,
			CognitiveComplexity:  15,
			MaintainabilityIndex: 50,
			SourceLinesOfCode:    50,
			MaximumNesting:       5,
			NumberOfParameters:   4,
			NumberOfMethods:      20,
			HalsteadVolume:       150,
		},
		Debt: DebtConfig{
			Unit:      "hours",
			Threshold: 40,
			Costs: map[string]float64{
				"todo":                  0.25,
				"fixme":                 0.5,
				"ignore":                0.25,
				"ignore-for-file":       1,
				"as-dynamic":            0.5,
				"deprecated":            1,
				"low-maintainability":   2,
				"high-complexity":       2,
				"long-method":           1,
				"duplicate-code":        1.5,
			},
			Multipliers: Multipliers{Critical: 4, High: 2, Medium: 1, Low: 0.5},
			Metrics: DebtMetricGates{
				MaintainabilityIndex: 50,
				CyclomaticComplexity: 20,
				CognitiveComplexity:  15,
				LinesOfCode:          100,
			},
		},
		Dup: DupConfig{
			SimilarityThreshold: 0.95,
			MinTokens:           12,
			CachePath:           ".anteater/dup-embeddings.json",
		},
	}
}

// Load reads a YAML config file. A missing file yields defaults, not an
// error (spec.md §7: input errors are only for genuinely malformed input).
// When strict is true, unknown top-level `anteater.*` keys are rejected.
func Load(path string, strict bool) (*Config, error) {
	cfg := DefaultConfig()
	log := logging.Get(logging.CategoryConfig)
	log.Debug("loading config from %s (strict=%v)", path, strict)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	root := Root{Anteater: *cfg}
	if strict {
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(&root); err != nil {
			return nil, fmt.Errorf("parse config %s (strict mode): %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	merged := root.Anteater
	merged.applyEnvOverrides()
	log.Info("config loaded: %d exclude globs, %d rules", len(merged.Exclude), len(merged.Rules))
	return &merged, nil
}

// Save writes the configuration back out as YAML under the `anteater` key.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := yaml.Marshal(Root{Anteater: *c})
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides lets ANTEATER_DEBT_THRESHOLD and ANTEATER_DEBT_UNIT
// override file-based config, mirroring the teacher's env-override pass.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ANTEATER_DEBT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Debt.Threshold = f
		}
	}
	if v := os.Getenv("ANTEATER_DEBT_UNIT"); v != "" {
		c.Debt.Unit = v
	}
}

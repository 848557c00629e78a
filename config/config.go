// Package config defines the pipeline configuration and its loading
// rules.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/eykalynet/k12-schooling-fertility/regress"
	"github.com/eykalynet/k12-schooling-fertility/utils"
)

// ErrInvalidConfig marks configuration validation failures.
var ErrInvalidConfig = errors.New("invalid config")

// Config contains the pipeline settings.
type Config struct {

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataDir holds intermediate files (merged sample, column
	// stores); OutDir receives tables and workbooks.
	DataDir string `koanf:"data_dir"`
	OutDir  string `koanf:"out_dir"`

	// Source files.
	WomenCSV   string `koanf:"women_csv"`
	SchoolsCSV string `koanf:"schools_csv"`
	PopCSV     string `koanf:"pop_csv"`

	// SurveyYear anchors the cohort derivation; ReformCohort is the
	// first treated birth year.
	SurveyYear   int `koanf:"survey_year"`
	ReformCohort int `koanf:"reform_cohort"`

	// Risk window for the person-year panel.
	MinAge int `koanf:"min_age"`
	MaxAge int `koanf:"max_age"`

	// Model specification.
	GroupKey string   `koanf:"group_key"`
	Outcomes []string `koanf:"outcomes"`
	Focal    string   `koanf:"focal"`
	Controls []string `koanf:"controls"`
	Absorb   []string `koanf:"absorb"`
	Cluster  string   `koanf:"cluster"`
	Weight   string   `koanf:"weight"`

	// Workers bounds the goroutines used by the leave-one-out loop.
	Workers int `koanf:"workers"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		DataDir:      "data",
		OutDir:       "out",
		WomenCSV:     "raw/women.csv",
		SchoolsCSV:   "raw/schools.csv",
		PopCSV:       "raw/schoolage_pop.csv",
		SurveyYear:   2022,
		ReformCohort: utils.DefaultReformCohort,
		MinAge:       12,
		MaxAge:       19,
		GroupKey:     "Province",
		Outcomes:     []string{"TeenBirth", "BirthBy20"},
		Focal:        "ExposureTreated",
		Controls:     []string{"Educ", "Urban"},
		Absorb:       []string{"Province", "Cohort"},
		Cluster:      "Province",
		Weight:       "Weight",
		Workers:      1,
	}
}

// Load builds a Config by layering defaults, an optional YAML file,
// and environment variables.  Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if K12F_CONFIG is set
//  3. env (prefix K12F_)
func Load() (*Config, error) {

	base := New()

	k := koanf.New(".")

	if p := os.Getenv("K12F_CONFIG"); p != "" {
		if err := k.Load(file.Provider(p), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// K12F_MIN_AGE -> min_age, preserving underscores to match the
	// koanf tags.
	envProvider := env.Provider("K12F_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "k12f_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MinAge >= c.MaxAge {
		return fmt.Errorf("%w: min_age %d must be below max_age %d", ErrInvalidConfig, c.MinAge, c.MaxAge)
	}
	if len(c.Outcomes) == 0 {
		return fmt.Errorf("%w: at least one outcome is required", ErrInvalidConfig)
	}
	for _, f := range []struct{ name, val string }{
		{"group_key", c.GroupKey},
		{"focal", c.Focal},
		{"cluster", c.Cluster},
		{"weight", c.Weight},
	} {
		if f.val == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, f.name)
		}
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	return nil
}

// ModelSpec returns the regression specification, without an outcome;
// callers set the outcome per fit.
func (c *Config) ModelSpec() regress.Spec {
	return regress.Spec{
		Focal:    c.Focal,
		Controls: append([]string(nil), c.Controls...),
		Absorb:   append([]string(nil), c.Absorb...),
		Cluster:  c.Cluster,
		Weight:   c.Weight,
	}
}

// Paths to intermediate artifacts under DataDir.
func (c *Config) WomenGob() string     { return path.Join(c.DataDir, "women.gob.gz") }
func (c *Config) PanelDir() string     { return path.Join(c.DataDir, "panel") }
func (c *Config) WomenColsDir() string { return path.Join(c.DataDir, "womencols") }

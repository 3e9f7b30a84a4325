// Package config loads and validates verification session settings.
package config

import (
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of a verification session.
type Config struct {
	// RulesDir holds "<category>.txt" rule documents. Empty selects the
	// built-in rule pack.
	RulesDir string `yaml:"rulesDir,omitempty" json:"rulesDir,omitempty" validate:"omitempty,dir"`

	// WatchRules reloads rule documents when RulesDir changes.
	WatchRules bool `yaml:"watchRules,omitempty" json:"watchRules,omitempty"`

	// Strategy selects signature matching: prefix (default), exact or glob.
	Strategy string `yaml:"strategy,omitempty" json:"strategy,omitempty" validate:"omitempty,oneof=prefix exact glob"`

	// Categories lists the capability categories to check. Empty checks none.
	Categories []string `yaml:"categories,omitempty" json:"categories,omitempty" validate:"omitempty,unique,dive,oneof=filesystem network reflection process-termination command-execution"`

	// AllowedPackages are trusted; callables declared elsewhere are roots
	// of the capability check, and dependencies elsewhere are forbidden.
	AllowedPackages []string `yaml:"allowedPackages,omitempty" json:"allowedPackages,omitempty" validate:"omitempty,dive,required"`

	// Subpackages makes every allowed package also allow its subpackages.
	Subpackages bool `yaml:"subpackages,omitempty" json:"subpackages,omitempty"`

	// TrustedPackages are not traversed by the capability check.
	TrustedPackages []string `yaml:"trustedPackages,omitempty" json:"trustedPackages,omitempty" validate:"omitempty,dive,required"`

	// DependencyCheck enables the package-dependency check.
	DependencyCheck bool `yaml:"dependencyCheck,omitempty" json:"dependencyCheck,omitempty"`

	// Parallelism bounds concurrent checks; 0 means GOMAXPROCS.
	Parallelism int `yaml:"parallelism,omitempty" json:"parallelism,omitempty" validate:"gte=0,lte=1024"`

	// MaxPathLength caps reported violation paths; 0 keeps them whole.
	MaxPathLength int `yaml:"maxPathLength,omitempty" json:"maxPathLength,omitempty" validate:"gte=0"`
}

// Default returns the configuration used when no file is given: the
// built-in rules, prefix matching and every capability category.
func Default() *Config {
	cats := entities.AllCategories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return &Config{
		Strategy:   "prefix",
		Categories: names,
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.ConfigurationError{Err: fmt.Errorf("failed to read config: %w", err), Source: path}
	}
	cfg, err := Parse(data)
	if err != nil {
		var ce *errors.ConfigurationError
		if stdErrors.As(err, &ce) {
			ce.Source = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML configuration over the defaults and validates it.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stdErrors.Is(err, io.EOF) {
		return nil, &errors.ConfigurationError{Err: fmt.Errorf("failed to parse config: %w", err), Source: "config"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		return &errors.ConfigurationError{Err: fmt.Errorf("invalid config: %s", strings.Join(msgs, "; ")), Source: "config"}
	}
	return nil
}

// CategoryList returns the configured categories as typed values.
func (c *Config) CategoryList() []entities.Category {
	out := make([]entities.Category, 0, len(c.Categories))
	for _, name := range c.Categories {
		if cat, err := entities.ParseCategory(name); err == nil {
			out = append(out, cat)
		}
	}
	return out
}

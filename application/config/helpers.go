package config

import (
	"fmt"

	"github.com/reglet-dev/reglet-verify/domain/errors"
)

// Values is configuration supplied as a decoded key-value map, e.g. from
// an embedding test harness.
type Values = map[string]any

// GetString extracts a string, returning (value, found).
func GetString(values Values, key string) (string, bool) {
	v, ok := values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt extracts an int, handling int, int64, and float64.
func GetInt(values Values, key string) (int, bool) {
	v, ok := values[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// GetBool extracts a bool, returning (value, found).
func GetBool(values Values, key string) (bool, bool) {
	v, ok := values[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetStringSlice extracts a []string, accepting []string or the
// []interface{} produced by JSON and YAML decoding.
func GetStringSlice(values Values, key string) ([]string, bool) {
	v, ok := values[key]
	if !ok {
		return nil, false
	}
	if ss, ok := v.([]string); ok {
		return ss, true
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	result := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		result = append(result, s)
	}
	return result, true
}

// FromValues builds a Config from a key-value map over the defaults.
// Keys use the same names as the YAML file. Present keys with the wrong
// type are configuration errors.
func FromValues(values Values) (*Config, error) {
	cfg := Default()
	wrongType := func(key, want string) error {
		return &errors.ConfigurationError{
			Err:    fmt.Errorf("field '%s' is not a %s", key, want),
			Source: "config." + key,
		}
	}

	strs := map[string]*string{"rulesDir": &cfg.RulesDir, "strategy": &cfg.Strategy}
	for key, dst := range strs {
		if _, present := values[key]; !present {
			continue
		}
		s, ok := GetString(values, key)
		if !ok {
			return nil, wrongType(key, "string")
		}
		*dst = s
	}

	lists := map[string]*[]string{
		"categories":      &cfg.Categories,
		"allowedPackages": &cfg.AllowedPackages,
		"trustedPackages": &cfg.TrustedPackages,
	}
	for key, dst := range lists {
		if _, present := values[key]; !present {
			continue
		}
		ss, ok := GetStringSlice(values, key)
		if !ok {
			return nil, wrongType(key, "list of strings")
		}
		*dst = ss
	}

	bools := map[string]*bool{
		"subpackages":     &cfg.Subpackages,
		"dependencyCheck": &cfg.DependencyCheck,
		"watchRules":      &cfg.WatchRules,
	}
	for key, dst := range bools {
		if _, present := values[key]; !present {
			continue
		}
		b, ok := GetBool(values, key)
		if !ok {
			return nil, wrongType(key, "boolean")
		}
		*dst = b
	}

	ints := map[string]*int{"parallelism": &cfg.Parallelism, "maxPathLength": &cfg.MaxPathLength}
	for key, dst := range ints {
		if _, present := values[key]; !present {
			continue
		}
		n, ok := GetInt(values, key)
		if !ok {
			return nil, wrongType(key, "number")
		}
		*dst = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

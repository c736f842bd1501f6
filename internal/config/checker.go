package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DefaultTestsDirSentinel is the file whose presence marks a tests directory.
const DefaultTestsDirSentinel = "conftest.py"

// CheckerConfig is the docstring schema consumed by the checker. Every table
// is optional; an absent or malformed table disables the related check.
type CheckerConfig struct {
	KnownFields      []string
	ValidValues      map[string][]string
	RequiredFields   []string
	MarkerFields     map[string]string
	IgnoredFields    map[string]string
	WhitelistedTests []string
	BlacklistedTests []string
	TestsDirSentinel string
}

// HasSchema reports whether a known field set was configured. Without one
// the unknown-field check is disabled.
func (c CheckerConfig) HasSchema() bool {
	return len(c.KnownFields) > 0
}

// Sentinel returns the configured tests directory sentinel or the default.
func (c CheckerConfig) Sentinel() string {
	if c.TestsDirSentinel == "" {
		return DefaultTestsDirSentinel
	}
	return c.TestsDirSentinel
}

// LoadCheckerConfig reads the checker schema from the YAML file at path.
// The file is decoded separately from viper so field names keep their case.
func LoadCheckerConfig(path string) (CheckerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CheckerConfig{}, fmt.Errorf("failed to read checker config %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		// a broken file behaves like an empty schema
		return CheckerConfig{}, nil
	}
	return DecodeCheckerConfig(raw), nil
}

// DecodeCheckerConfig builds a CheckerConfig from a generic mapping. Rules
// that do not have the expected shape are skipped.
func DecodeCheckerConfig(raw map[string]any) CheckerConfig {
	cfg := CheckerConfig{
		TestsDirSentinel: cast.ToString(raw["tests_dir_sentinel"]),
		WhitelistedTests: stringList(raw["whitelisted_tests"]),
		BlacklistedTests: stringList(raw["blacklisted_tests"]),
	}

	known := fieldNames(raw["default_fields"])
	known = append(known, fieldNames(raw["custom_fields"])...)
	cfg.KnownFields = dedupe(known)

	docstrings, err := cast.ToStringMapE(raw["docstrings"])
	if err != nil {
		return cfg
	}
	cfg.RequiredFields = stringList(docstrings["required_fields"])
	cfg.MarkerFields = stringMap(docstrings["marker_fields"])
	cfg.IgnoredFields = stringMap(docstrings["ignored_fields"])
	cfg.ValidValues = validValues(docstrings["valid_values"])

	return cfg
}

// fieldNames accepts either a list of names or a mapping whose keys are names.
func fieldNames(v any) []string {
	if v == nil {
		return nil
	}
	if m, err := cast.ToStringMapE(v); err == nil {
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}
	return stringList(v)
}

func stringList(v any) []string {
	if v == nil {
		return nil
	}
	if _, ok := v.([]any); !ok {
		if _, ok := v.([]string); !ok {
			return nil
		}
	}
	out, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil
	}
	return out
}

func stringMap(v any) map[string]string {
	if v == nil {
		return nil
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		s, err := cast.ToStringE(val)
		if err != nil {
			continue
		}
		out[k] = s
	}
	return out
}

func validValues(v any) map[string][]string {
	if v == nil {
		return nil
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for field, values := range m {
		list := stringList(values)
		if list == nil {
			continue
		}
		out[field] = list
	}
	return out
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

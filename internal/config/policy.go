package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy is the deployment-level safety policy file. It narrows or widens
// the built-in ceilings and supplies the forbidden word list.
type Policy struct {
	ForbiddenWords    []string `yaml:"forbidden_words"`
	MaxContentLength  int      `yaml:"max_content_length"`
	MaxMatchesPerRule int      `yaml:"max_matches_per_rule"`
	FuzzyThreshold    float64  `yaml:"fuzzy_threshold"`
}

// ParsePolicy decodes and validates a policy payload.
func ParsePolicy(data []byte) (Policy, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Policy{}, fmt.Errorf("policy: payload is empty")
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("policy: decode: %w", err)
	}
	if p.MaxContentLength < 0 {
		return Policy{}, fmt.Errorf("policy: max_content_length must not be negative")
	}
	if p.MaxMatchesPerRule < 0 {
		return Policy{}, fmt.Errorf("policy: max_matches_per_rule must not be negative")
	}
	if p.FuzzyThreshold < 0 || p.FuzzyThreshold > 1 {
		return Policy{}, fmt.Errorf("policy: fuzzy_threshold must be within [0,1]")
	}
	return p, nil
}

// LoadPolicy reads a policy file from disk.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("policy: read %s: %w", path, err)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return Policy{}, fmt.Errorf("policy: %s: %w", path, err)
	}
	return p, nil
}

// Apply overlays non-zero policy values onto the config.
func (c *Config) Apply(p Policy) {
	if len(p.ForbiddenWords) > 0 {
		c.ForbiddenWords = p.ForbiddenWords
	}
	if p.MaxContentLength > 0 {
		c.MaxContentLength = p.MaxContentLength
	}
	if p.MaxMatchesPerRule > 0 {
		c.MaxMatchesPerRule = p.MaxMatchesPerRule
	}
	if p.FuzzyThreshold > 0 {
		c.FuzzyThreshold = p.FuzzyThreshold
	}
}

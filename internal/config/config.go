package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config carries everything the CLI and coordinator need. Values come from
// the environment with sane defaults; a YAML policy file can override the
// safety-related ones per deployment.
type Config struct {
	// Document API collaborator
	DocAPIBaseURL string
	DocAPIToken   string

	// Fuzzy matching
	FuzzyThreshold   float64
	FuzzyMaxDistance int

	// Safety ceilings
	MaxMatchesPerRule int
	MaxContentLength  int
	ForbiddenWords    []string

	// Audit log bounds
	AuditCapacity int
	AuditRetain   int

	// Optional policy file path
	PolicyFile string
}

func Load() Config {
	cfg := Config{
		DocAPIBaseURL: envOr("DOCAPI_URL", ""),
		DocAPIToken:   os.Getenv("DOCAPI_TOKEN"),

		FuzzyThreshold:   envFloat("FUZZY_THRESHOLD", 0.7),
		FuzzyMaxDistance: envInt("FUZZY_MAX_DISTANCE", 3),

		MaxMatchesPerRule: envInt("MAX_MATCHES_PER_RULE", 100),
		MaxContentLength:  envInt("MAX_CONTENT_LENGTH", 10000),

		AuditCapacity: envInt("AUDIT_CAPACITY", 1000),
		AuditRetain:   envInt("AUDIT_RETAIN", 500),

		PolicyFile: os.Getenv("DOCEDIT_POLICY_FILE"),
	}

	if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 1 {
		cfg.FuzzyThreshold = 0.7
	}
	if cfg.FuzzyMaxDistance <= 0 {
		cfg.FuzzyMaxDistance = 3
	}
	if cfg.MaxMatchesPerRule <= 0 {
		cfg.MaxMatchesPerRule = 100
	}
	if cfg.MaxContentLength <= 0 {
		cfg.MaxContentLength = 10000
	}
	if cfg.AuditCapacity <= 0 {
		cfg.AuditCapacity = 1000
	}
	if cfg.AuditRetain <= 0 || cfg.AuditRetain > cfg.AuditCapacity {
		cfg.AuditRetain = cfg.AuditCapacity / 2
	}

	return cfg
}

// Validate checks fields that must be present for remote operations. Local
// file-based commands work without a document API.
func (c Config) Validate() error {
	if c.DocAPIBaseURL != "" && c.DocAPIToken == "" {
		return fmt.Errorf("DOCAPI_TOKEN is required when DOCAPI_URL is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

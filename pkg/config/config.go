// Package config holds global settings for the threatscan engine and its
// HTTP surface. All settings can be configured via environment variables,
// an optional YAML file overlay, or programmatically.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phishzil/threatscan/pkg/threat"
)

// Config holds global settings for the engine, scan orchestrator, and server.
type Config struct {
	// === Core Settings ===
	ListenAddr   string `yaml:"listen_addr"`
	AuditLogPath string `yaml:"audit_log_path"` // JSONL audit trail (default: "audit_events.jsonl")

	// === Scan Orchestration ===
	DefaultDisarmMethod threat.DisarmMethod `yaml:"default_disarm_method"` // replacement style for malicious links
	MaxConcurrentScans  int                 `yaml:"max_concurrent_scans"`  // per-URL/per-attachment fan-out bound

	// === Lookup Collaborators ===
	LookupTimeout  time.Duration `yaml:"lookup_timeout"`
	LookupCacheTTL time.Duration `yaml:"lookup_cache_ttl"`
	RedisAddr      string        `yaml:"redis_addr"` // optional shared lookup cache; empty = in-process only
	RedisPassword  string        `yaml:"-"`
	RedisDB        int           `yaml:"redis_db"`

	// === Ordered Heuristic Tables ===
	// Iteration order is part of the contract: the first spoof candidate
	// that matches determines the indicator text.
	LegitimateDomains []string `yaml:"legitimate_domains"`
	SuspiciousTLDs    []string `yaml:"suspicious_tlds"`
	FreeMailProviders []string `yaml:"free_mail_providers"`

	// === Optional ML Channel ===
	MLModelPath string  `yaml:"ml_model_path"` // ONNX text-classification model dir; empty = disabled
	MLWeight    float64 `yaml:"ml_weight"`     // score weight of the ML channel
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	cfg := &Config{
		ListenAddr:   GetEnv("THREATSCAN_LISTEN_ADDR", ":8787"),
		AuditLogPath: GetEnv("THREATSCAN_AUDIT_LOG", "audit_events.jsonl"),

		DefaultDisarmMethod: threat.DisarmMethod(GetEnv("THREATSCAN_DISARM_METHOD", string(threat.DisarmBlock))),
		MaxConcurrentScans:  clampInt(GetEnvInt("THREATSCAN_MAX_CONCURRENT", 8), 1, 256),

		LookupTimeout:  time.Duration(GetEnvInt("THREATSCAN_LOOKUP_TIMEOUT_MS", 2000)) * time.Millisecond,
		LookupCacheTTL: time.Duration(GetEnvInt("THREATSCAN_CACHE_TTL_SECONDS", 900)) * time.Second,
		RedisAddr:      GetEnv("THREATSCAN_REDIS_ADDR", ""),
		RedisPassword:  GetEnv("THREATSCAN_REDIS_PASSWORD", ""),
		RedisDB:        GetEnvInt("THREATSCAN_REDIS_DB", 0),

		LegitimateDomains: GetEnvSlice("THREATSCAN_LEGIT_DOMAINS", []string{
			"google.com", "amazon.com", "microsoft.com", "apple.com",
			"paypal.com", "ebay.com", "facebook.com", "twitter.com",
		}),
		SuspiciousTLDs: GetEnvSlice("THREATSCAN_SUSPICIOUS_TLDS", []string{
			".tk", ".ml", ".ga", ".cf", ".buzz", ".click",
		}),
		FreeMailProviders: GetEnvSlice("THREATSCAN_FREE_PROVIDERS", []string{
			"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
		}),

		MLModelPath: GetEnv("THREATSCAN_ML_MODEL_PATH", ""),
		MLWeight:    GetEnvFloat("THREATSCAN_ML_WEIGHT", 0.7),
	}

	return cfg
}

// NewStrictConfig creates a Config for maximum protection: disarmed links
// are replaced with an explicit block notice and scan fan-out is reduced so
// lookups are less likely to time out under load.
func NewStrictConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.DefaultDisarmMethod = threat.DisarmBlock
	cfg.MaxConcurrentScans = 4
	cfg.LookupTimeout = 5 * time.Second
	return cfg
}

// NewPermissiveConfig creates a Config that keeps mail readable: malicious
// links are sanitized in place rather than replaced with a block notice.
func NewPermissiveConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.DefaultDisarmMethod = threat.DisarmSanitize
	return cfg
}

// LoadFile overlays settings from a YAML file onto the config.
// Env-derived values stay in place for any key the file omits.
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the config for values the engine cannot run with.
func (c *Config) Validate() error {
	switch c.DefaultDisarmMethod {
	case threat.DisarmBlock, threat.DisarmSanitize, threat.DisarmPlaceholder, threat.DisarmPreview:
	default:
		return fmt.Errorf("invalid disarm method %q", c.DefaultDisarmMethod)
	}
	if c.MaxConcurrentScans < 1 {
		return fmt.Errorf("max_concurrent_scans must be >= 1, got %d", c.MaxConcurrentScans)
	}
	if len(c.LegitimateDomains) == 0 {
		return fmt.Errorf("legitimate_domains table must not be empty")
	}
	if c.MLWeight < 0 || c.MLWeight > 1 {
		return fmt.Errorf("ml_weight must be in [0,1], got %v", c.MLWeight)
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before starting the server.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: Configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}

// clampInt ensures a value is within bounds
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

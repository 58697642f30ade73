// Package config provides configuration loading and validation for the
// server and CLI. It uses koanf to merge environment variables with optional
// file overrides; environment variables take precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the coordinator.
type Config struct {
	// Server settings
	Addr     string `koanf:"addr"`
	LogLevel string `koanf:"log_level"`
	SiteName string `koanf:"site_name"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis (wipe locks, consent gate cache). Optional; in-process fallbacks
	// are used when empty.
	RedisURL string `koanf:"redis_url"`

	// JWT Authentication
	JWTSigningKey string `koanf:"jwt_signing_key"`

	// Erasure
	ConfirmPhrase string `koanf:"confirm_phrase"`
	DNTPolicy     string `koanf:"dnt_policy"`

	// Lifecycle retention windows
	LifecycleInactiveDays int `koanf:"lifecycle_inactive_days"`
	LifecycleGraceDays    int `koanf:"lifecycle_grace_days"`

	// SMTP notification (optional; email sink disabled when host empty)
	SMTPHost    string   `koanf:"smtp_host"`
	SMTPPort    int      `koanf:"smtp_port"`
	SMTPFrom    string   `koanf:"smtp_from"`
	AdminEmails []string `koanf:"admin_emails"`

	// Off-site audit mirror (optional; mirror sink disabled when bucket empty)
	MirrorBucket    string `koanf:"mirror_bucket"`
	MirrorEndpoint  string `koanf:"mirror_endpoint"`
	MirrorRegion    string `koanf:"mirror_region"`
	MirrorAccessKey string `koanf:"mirror_access_key"`
	MirrorSecretKey string `koanf:"mirror_secret_key"`

	// Audit event stream (optional; stream sink disabled when brokers empty)
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL   = errors.New("DATABASE_URL is required")
	ErrMissingConfirmPhrase = errors.New("CONFIRM_PHRASE is required")
	ErrInvalidDNTPolicy     = errors.New("DNT_POLICY must be one of ignore, dnt-overrides, stored-overrides")
	ErrInvalidInactiveDays  = errors.New("LIFECYCLE_INACTIVE_DAYS must be positive")
)

// Default values for non-secret configuration.
const (
	DefaultAddr                  = ":8080"
	DefaultLogLevel              = "info"
	DefaultSiteName              = "datacustody"
	DefaultConfirmPhrase         = "DELETE MY ACCOUNT AND ALL MY DATA"
	DefaultDNTPolicy             = "stored-overrides"
	DefaultLifecycleInactiveDays = 540
	DefaultLifecycleGraceDays    = 30
	DefaultSMTPPort              = 25
	DefaultKafkaTopic            = "datacustody.audit"
)

// Load reads configuration from environment variables and an optional YAML
// file. Returns the loaded config and a slice of validation errors (empty if
// valid). If a config file path is provided and the file cannot be loaded,
// an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("load config file %s: %w", configFilePath, err)}
		}
	}

	cfg := &Config{
		Addr:                  stringOr(k, "addr", "CUSTODY_ADDR", DefaultAddr),
		LogLevel:              stringOr(k, "log_level", "CUSTODY_LOG_LEVEL", DefaultLogLevel),
		SiteName:              stringOr(k, "site_name", "CUSTODY_SITE_NAME", DefaultSiteName),
		DatabaseURL:           stringOr(k, "database_url", "DATABASE_URL", ""),
		RedisURL:              stringOr(k, "redis_url", "REDIS_URL", ""),
		JWTSigningKey:         stringOr(k, "jwt_signing_key", "JWT_SIGNING_KEY", ""),
		ConfirmPhrase:         stringOr(k, "confirm_phrase", "CONFIRM_PHRASE", DefaultConfirmPhrase),
		DNTPolicy:             stringOr(k, "dnt_policy", "DNT_POLICY", DefaultDNTPolicy),
		SMTPHost:              stringOr(k, "smtp_host", "SMTP_HOST", ""),
		SMTPFrom:              stringOr(k, "smtp_from", "SMTP_FROM", ""),
		MirrorBucket:          stringOr(k, "mirror_bucket", "MIRROR_BUCKET", ""),
		MirrorEndpoint:        stringOr(k, "mirror_endpoint", "MIRROR_ENDPOINT", ""),
		MirrorRegion:          stringOr(k, "mirror_region", "MIRROR_REGION", "auto"),
		MirrorAccessKey:       stringOr(k, "mirror_access_key", "MIRROR_ACCESS_KEY", ""),
		MirrorSecretKey:       stringOr(k, "mirror_secret_key", "MIRROR_SECRET_KEY", ""),
		KafkaTopic:            stringOr(k, "kafka_topic", "KAFKA_TOPIC", DefaultKafkaTopic),
		AdminEmails:           listOr(k, "admin_emails", "ADMIN_EMAILS"),
		KafkaBrokers:          listOr(k, "kafka_brokers", "KAFKA_BROKERS"),
		LifecycleInactiveDays: DefaultLifecycleInactiveDays,
		LifecycleGraceDays:    DefaultLifecycleGraceDays,
		SMTPPort:              DefaultSMTPPort,
	}

	var loadErrs []error

	inactiveDays, err := intOr(k, "lifecycle_inactive_days", "LIFECYCLE_INACTIVE_DAYS", DefaultLifecycleInactiveDays)
	if err != nil {
		loadErrs = append(loadErrs, err)
	} else {
		cfg.LifecycleInactiveDays = inactiveDays
	}

	graceDays, err := intOr(k, "lifecycle_grace_days", "LIFECYCLE_GRACE_DAYS", DefaultLifecycleGraceDays)
	if err != nil {
		loadErrs = append(loadErrs, err)
	} else {
		cfg.LifecycleGraceDays = graceDays
	}

	smtpPort, err := intOr(k, "smtp_port", "SMTP_PORT", DefaultSMTPPort)
	if err != nil {
		loadErrs = append(loadErrs, err)
	} else {
		cfg.SMTPPort = smtpPort
	}

	loadErrs = append(loadErrs, cfg.validate()...)
	return cfg, loadErrs
}

func (c *Config) validate() []error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if strings.TrimSpace(c.ConfirmPhrase) == "" {
		errs = append(errs, ErrMissingConfirmPhrase)
	}
	switch c.DNTPolicy {
	case "ignore", "dnt-overrides", "stored-overrides":
	default:
		errs = append(errs, ErrInvalidDNTPolicy)
	}
	if c.LifecycleInactiveDays <= 0 {
		errs = append(errs, ErrInvalidInactiveDays)
	}
	return errs
}

// stringOr resolves a value with env > file > default precedence.
func stringOr(k *koanf.Koanf, key, envVar, def string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	if val := k.String(key); val != "" {
		return val
	}
	return def
}

// intOr resolves an integer value with env > file > default precedence.
func intOr(k *koanf.Koanf, key, envVar string, def int) (int, error) {
	if val := os.Getenv(envVar); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return def, fmt.Errorf("%s must be a valid integer: %w", envVar, err)
		}
		return parsed, nil
	}
	if k.Exists(key) {
		return k.Int(key), nil
	}
	return def, nil
}

// listOr resolves a comma-separated list with env > file precedence.
func listOr(k *koanf.Koanf, key, envVar string) []string {
	raw := os.Getenv(envVar)
	if raw == "" {
		if vals := k.Strings(key); len(vals) > 0 {
			return vals
		}
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

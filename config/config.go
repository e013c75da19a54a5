// Package config loads operator configuration for the support-action
// workflow from a YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/AICogEngineer/supportgate/workflow"
)

// Config is the full operator configuration.
//
// The identity section may be absent: the identity gate then fails closed
// for every session, which is the intended security default. The fraud
// thresholds, by contrast, must be present; Validate rejects a missing
// fraud section instead of defaulting it.
type Config struct {
	Identity  *IdentityConfig `yaml:"identity"`
	Fraud     *FraudConfig    `yaml:"fraud"`
	Store     StoreConfig     `yaml:"store"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	LogLevel  string          `yaml:"log_level"`
}

// IdentityConfig is the trusted identity reference.
type IdentityConfig struct {
	TrustedUserID string `yaml:"trusted_user_id"`
	TrustedEmail  string `yaml:"trusted_email"`
}

// FraudConfig holds the red-flag policy thresholds.
type FraudConfig struct {
	MaxRefundCount *int     `yaml:"max_refund_count"`
	MaxDriftMiles  *float64 `yaml:"max_drift_miles"`
}

// StoreConfig selects the snapshot store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // "memory" or "sqlite"
	Path    string `yaml:"path"`    // sqlite database file
}

// RetrievalConfig selects the data retrieval collaborator.
type RetrievalConfig struct {
	Driver string `yaml:"driver"` // "static", "mysql", or "sqlite"
	DSN    string `yaml:"dsn"`
}

// KafkaConfig configures the optional audit event sink. Empty brokers
// disable it.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// MetricsConfig configures the optional Prometheus endpoint. An empty
// address disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads the YAML file at path (skipped when empty or absent) and
// applies environment overrides, then validates.
//
// Environment overrides: TRUSTED_USER_ID, TRUSTED_USER_EMAIL,
// MAX_REFUNDS_PER_MONTH, ADDRESS_DRIFT_THRESHOLD_MILES, LOG_LEVEL.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Store:     StoreConfig{Backend: "memory"},
		Retrieval: RetrievalConfig{Driver: "static"},
		Kafka:     KafkaConfig{Topic: "supportgate-audit"},
		LogLevel:  "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TRUSTED_USER_ID"); v != "" {
		if c.Identity == nil {
			c.Identity = &IdentityConfig{}
		}
		c.Identity.TrustedUserID = v
	}
	if v := os.Getenv("TRUSTED_USER_EMAIL"); v != "" {
		if c.Identity == nil {
			c.Identity = &IdentityConfig{}
		}
		c.Identity.TrustedEmail = v
	}
	if v := os.Getenv("MAX_REFUNDS_PER_MONTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_REFUNDS_PER_MONTH: %w", err)
		}
		if c.Fraud == nil {
			c.Fraud = &FraudConfig{}
		}
		c.Fraud.MaxRefundCount = &n
	}
	if v := os.Getenv("ADDRESS_DRIFT_THRESHOLD_MILES"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ADDRESS_DRIFT_THRESHOLD_MILES: %w", err)
		}
		if c.Fraud == nil {
			c.Fraud = &FraudConfig{}
		}
		c.Fraud.MaxDriftMiles = &f
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate rejects configurations the workflow must not run with.
func (c *Config) Validate() error {
	if c.Fraud == nil || c.Fraud.MaxRefundCount == nil || c.Fraud.MaxDriftMiles == nil {
		return fmt.Errorf("fraud thresholds are required: set fraud.max_refund_count and fraud.max_drift_miles")
	}
	if *c.Fraud.MaxRefundCount < 0 {
		return fmt.Errorf("fraud.max_refund_count must not be negative")
	}
	if *c.Fraud.MaxDriftMiles < 0 {
		return fmt.Errorf("fraud.max_drift_miles must not be negative")
	}
	if c.Identity != nil {
		// A partially configured reference is an operator mistake, not
		// a fail-closed situation.
		if c.Identity.TrustedUserID == "" || c.Identity.TrustedEmail == "" {
			return fmt.Errorf("identity reference is partial: both trusted_user_id and trusted_email are required")
		}
	}
	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Retrieval.Driver {
	case "static":
	case "mysql", "sqlite":
		if c.Retrieval.DSN == "" {
			return fmt.Errorf("retrieval.dsn is required for the %s driver", c.Retrieval.Driver)
		}
	default:
		return fmt.Errorf("unknown retrieval driver %q", c.Retrieval.Driver)
	}
	return nil
}

// TrustedIdentity converts the identity section for the workflow. Returns
// nil when unconfigured, which fails closed at the gate.
func (c *Config) TrustedIdentity() *workflow.TrustedIdentity {
	if c.Identity == nil {
		return nil
	}
	return &workflow.TrustedIdentity{
		UserID: c.Identity.TrustedUserID,
		Email:  c.Identity.TrustedEmail,
	}
}

// Thresholds converts the fraud section for the workflow. Call Validate
// first; a missing section yields nil, which the detector rejects.
func (c *Config) Thresholds() *workflow.Thresholds {
	if c.Fraud == nil || c.Fraud.MaxRefundCount == nil || c.Fraud.MaxDriftMiles == nil {
		return nil
	}
	return &workflow.Thresholds{
		MaxRefundCount: *c.Fraud.MaxRefundCount,
		MaxDriftMiles:  *c.Fraud.MaxDriftMiles,
	}
}

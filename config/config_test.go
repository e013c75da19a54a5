package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
identity:
  trusted_user_id: u1
  trusted_email: a@b.com
fraud:
  max_refund_count: 3
  max_drift_miles: 100
store:
  backend: memory
retrieval:
  driver: static
log_level: debug
`

func TestLoad(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, validYAML))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Identity.TrustedUserID != "u1" || cfg.Identity.TrustedEmail != "a@b.com" {
			t.Errorf("identity = %+v", cfg.Identity)
		}
		if *cfg.Fraud.MaxRefundCount != 3 || *cfg.Fraud.MaxDriftMiles != 100 {
			t.Errorf("fraud = %+v", cfg.Fraud)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("log_level = %s, want debug", cfg.LogLevel)
		}
	})

	t.Run("missing file uses defaults but still requires thresholds", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		if err == nil || !strings.Contains(err.Error(), "fraud thresholds") {
			t.Fatalf("err = %v, want missing-thresholds error", err)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("MAX_REFUNDS_PER_MONTH", "7")
		t.Setenv("ADDRESS_DRIFT_THRESHOLD_MILES", "250")
		t.Setenv("TRUSTED_USER_ID", "env-user")
		t.Setenv("TRUSTED_USER_EMAIL", "env@b.com")
		t.Setenv("LOG_LEVEL", "warn")

		cfg, err := Load(writeConfig(t, validYAML))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if *cfg.Fraud.MaxRefundCount != 7 {
			t.Errorf("max_refund_count = %d, want env override 7", *cfg.Fraud.MaxRefundCount)
		}
		if *cfg.Fraud.MaxDriftMiles != 250 {
			t.Errorf("max_drift_miles = %.0f, want env override 250", *cfg.Fraud.MaxDriftMiles)
		}
		if cfg.Identity.TrustedUserID != "env-user" {
			t.Errorf("trusted_user_id = %s, want env-user", cfg.Identity.TrustedUserID)
		}
		if cfg.LogLevel != "warn" {
			t.Errorf("log_level = %s, want warn", cfg.LogLevel)
		}
	})

	t.Run("env only", func(t *testing.T) {
		t.Setenv("MAX_REFUNDS_PER_MONTH", "3")
		t.Setenv("ADDRESS_DRIFT_THRESHOLD_MILES", "100")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Identity != nil {
			t.Error("identity must stay absent when not configured")
		}
		if cfg.Store.Backend != "memory" || cfg.Retrieval.Driver != "static" {
			t.Errorf("defaults = %+v / %+v", cfg.Store, cfg.Retrieval)
		}
	})

	t.Run("malformed env value", func(t *testing.T) {
		t.Setenv("MAX_REFUNDS_PER_MONTH", "lots")
		if _, err := Load(""); err == nil {
			t.Fatal("expected error for non-numeric MAX_REFUNDS_PER_MONTH")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		if _, err := Load(writeConfig(t, "fraud: [not a map")); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing fraud section",
			yaml: "store:\n  backend: memory\n",
			want: "fraud thresholds",
		},
		{
			name: "partial identity",
			yaml: "identity:\n  trusted_user_id: u1\nfraud:\n  max_refund_count: 3\n  max_drift_miles: 100\n",
			want: "identity reference is partial",
		},
		{
			name: "negative threshold",
			yaml: "fraud:\n  max_refund_count: -1\n  max_drift_miles: 100\n",
			want: "must not be negative",
		},
		{
			name: "sqlite store without path",
			yaml: "fraud:\n  max_refund_count: 3\n  max_drift_miles: 100\nstore:\n  backend: sqlite\n",
			want: "store.path",
		},
		{
			name: "unknown store backend",
			yaml: "fraud:\n  max_refund_count: 3\n  max_drift_miles: 100\nstore:\n  backend: redis\n",
			want: "unknown store backend",
		},
		{
			name: "sql retrieval without dsn",
			yaml: "fraud:\n  max_refund_count: 3\n  max_drift_miles: 100\nretrieval:\n  driver: mysql\n",
			want: "retrieval.dsn",
		},
		{
			name: "unknown retrieval driver",
			yaml: "fraud:\n  max_refund_count: 3\n  max_drift_miles: 100\nretrieval:\n  driver: mongo\n",
			want: "unknown retrieval driver",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	t.Run("trusted identity", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, validYAML))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		trusted := cfg.TrustedIdentity()
		if trusted == nil || trusted.UserID != "u1" || trusted.Email != "a@b.com" {
			t.Errorf("trusted = %+v", trusted)
		}
		thresholds := cfg.Thresholds()
		if thresholds == nil || thresholds.MaxRefundCount != 3 || thresholds.MaxDriftMiles != 100 {
			t.Errorf("thresholds = %+v", thresholds)
		}
	})

	t.Run("absent identity yields nil", func(t *testing.T) {
		cfg := &Config{}
		if cfg.TrustedIdentity() != nil {
			t.Error("unconfigured identity must convert to nil")
		}
		if cfg.Thresholds() != nil {
			t.Error("unconfigured fraud must convert to nil")
		}
	})
}

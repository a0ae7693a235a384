package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pipeline-monitor/src/models"
)

const minimalYAML = `
name: pipeline-monitor
host: 0.0.0.0
port: 8080
store:
  host: localhost
  port: 5432
  name: shop
  user: monitor
  password: secret
archive:
  db_type: sqlite
  db_path: monitor.db
`

// writeConfig drops YAML into a temp file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "SLACK_TOKEN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// -----------------------------------------------------------------------------

func TestNewConfigAppliesDefaults(t *testing.T) {
	clearEnvOverrides(t)
	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("log level = %s, want info", cfg.LogLevel)
	}
	if cfg.Store.SSLMode != "disable" {
		t.Errorf("sslmode = %s, want disable", cfg.Store.SSLMode)
	}
	if cfg.Archive.RetentionDays != 30 {
		t.Errorf("retention = %d, want 30", cfg.Archive.RetentionDays)
	}
	if cfg.Collect.IntervalSeconds != 60 || cfg.Collect.HistoryHours != 24 {
		t.Errorf("collect defaults = %+v", cfg.Collect)
	}
	if cfg.Detect.MinBaselineCount != 12 {
		t.Errorf("min baseline count = %d, want 12", cfg.Detect.MinBaselineCount)
	}
	if cfg.Detect.Thresholds.MinHourlyOrders != 10 || cfg.Detect.Thresholds.VolumeZScore != 3.0 {
		t.Errorf("threshold defaults = %+v", cfg.Detect.Thresholds)
	}
	if cfg.Alerting.MinSeverity != models.SeverityLow || cfg.Alerting.CooldownMinutes != 30 {
		t.Errorf("alerting defaults = %+v", cfg.Alerting)
	}
	if cfg.Limits.MaxMemoryMB != 512 || cfg.Limits.SamplesBuffer != 64 || cfg.Limits.WSSendBuffer != 256 {
		t.Errorf("limit defaults = %+v", cfg.Limits)
	}
}

func TestNewConfigKeepsExplicitValues(t *testing.T) {
	clearEnvOverrides(t)
	yaml := minimalYAML + `
log_level: debug
collect:
  interval_seconds: 30
detect:
  thresholds:
    max_failure_rate: 0.2
`
	cfg, err := NewConfig(writeConfig(t, yaml))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %s, want debug", cfg.LogLevel)
	}
	if cfg.Collect.IntervalSeconds != 30 {
		t.Errorf("interval = %d, want 30", cfg.Collect.IntervalSeconds)
	}

	// A partial threshold block is trusted as-is: zero disables a check
	if cfg.Detect.Thresholds.MaxFailureRate != 0.2 {
		t.Errorf("failure rate = %v, want 0.2", cfg.Detect.Thresholds.MaxFailureRate)
	}
	if cfg.Detect.Thresholds.MinHourlyOrders != 0 {
		t.Errorf("partial block got defaulted: %+v", cfg.Detect.Thresholds)
	}
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestNewConfigBadYAML(t *testing.T) {
	_, err := NewConfig(writeConfig(t, "name: [unclosed"))
	if err == nil {
		t.Fatal("malformed YAML accepted")
	}
}

// -----------------------------------------------------------------------------

func TestEnvOverrides(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "shop_prod")
	t.Setenv("DB_USER", "readonly")
	t.Setenv("DB_PASSWORD", "hunter2")
	t.Setenv("SLACK_TOKEN", "xoxb-test")

	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.Store.Host != "db.internal" || cfg.Store.Port != 5433 {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.Name != "shop_prod" || cfg.Store.User != "readonly" || cfg.Store.Password != "hunter2" {
		t.Errorf("store credentials = %+v", cfg.Store)
	}
	if cfg.Alerting.SlackToken != "xoxb-test" {
		t.Errorf("slack token = %s", cfg.Alerting.SlackToken)
	}
}

func TestEnvOverrideBadPort(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("DB_PORT", "not-a-port")

	_, err := NewConfig(writeConfig(t, minimalYAML))
	if err == nil {
		t.Fatal("invalid DB_PORT accepted")
	}
	if !strings.Contains(err.Error(), "DB_PORT") {
		t.Errorf("error does not name the variable: %v", err)
	}
}

// -----------------------------------------------------------------------------

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty name", func(c *Config) { c.Name = "" }},
		{"privileged port", func(c *Config) { c.Port = 80 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"no store host", func(c *Config) { c.Store.Host = "" }},
		{"no store user", func(c *Config) { c.Store.User = "" }},
		{"bad archive type", func(c *Config) { c.Archive.DBType = "mongodb" }},
		{"sqlite without path", func(c *Config) { c.Archive.DBPath = "" }},
		{"negative retention", func(c *Config) { c.Archive.RetentionDays = -1 }},
		{"zero interval", func(c *Config) { c.Collect.IntervalSeconds = 0 }},
		{"negative threshold", func(c *Config) { c.Detect.Thresholds.MinHourlyOrders = -5 }},
		{"unknown severity", func(c *Config) { c.Alerting.MinSeverity = "panic" }},
		{"negative cooldown", func(c *Config) { c.Alerting.CooldownMinutes = -10 }},
		{"inverted business hours", func(c *Config) { c.Alerting.BusinessHours = models.MBusinessHours{Start: 17, End: 9} }},
		{"zero memory limit", func(c *Config) { c.Limits.MaxMemoryMB = 0 }},
		{"zero buffers", func(c *Config) { c.Limits.SamplesBuffer = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvOverrides(t)
			cfg, err := NewConfig(writeConfig(t, minimalYAML))
			if err != nil {
				t.Fatalf("NewConfig: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("broken config passed validation")
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestShopDSN(t *testing.T) {
	clearEnvOverrides(t)
	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	want := "host=localhost port=5432 dbname=shop user=monitor password=secret sslmode=disable"
	if got := cfg.ShopDSN(); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}

func TestRedactedMasksCredentials(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("SLACK_TOKEN", "xoxb-secret")

	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	red := cfg.Redacted()
	if red.Store.Password != "********" {
		t.Errorf("password = %q", red.Store.Password)
	}
	if red.Alerting.SlackToken != "********" {
		t.Errorf("token = %q", red.Alerting.SlackToken)
	}

	// The original stays usable
	if cfg.Store.Password != "secret" {
		t.Error("redaction mutated the live config")
	}

	// Empty credentials stay empty rather than implying one exists
	cfg.Store.Password = ""
	if got := cfg.Redacted(); got.Store.Password != "" {
		t.Errorf("empty password masked to %q", got.Store.Password)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnvOverrides(t)
	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	cfg.Detect.Thresholds.MinHourlyOrders = 42
	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewConfig(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Detect.Thresholds.MinHourlyOrders != 42 {
		t.Errorf("reloaded threshold = %d, want 42", reloaded.Detect.Thresholds.MinHourlyOrders)
	}
	if reloaded.Store.Name != "shop" {
		t.Errorf("reloaded store name = %s", reloaded.Store.Name)
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"pipeline-monitor/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file. Environment
// variables override file values after loading, so containerized deployments
// need no config rewrite.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Apply environment overrides
	if err := config.UpdateFromEnv(); err != nil {
		return nil, err
	}

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// UpdateFromEnv overrides file values from the environment. Recognized
// variables: DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASSWORD for the shop
// store and SLACK_TOKEN for alert delivery.
func (c *Config) UpdateFromEnv() error {
	if v, ok := os.LookupEnv("DB_HOST"); ok {
		c.Store.Host = v
	}
	if v, ok := os.LookupEnv("DB_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT '%s': %w", v, err)
		}
		c.Store.Port = port
	}
	if v, ok := os.LookupEnv("DB_NAME"); ok {
		c.Store.Name = v
	}
	if v, ok := os.LookupEnv("DB_USER"); ok {
		c.Store.User = v
	}
	if v, ok := os.LookupEnv("DB_PASSWORD"); ok {
		c.Store.Password = v
	}
	if v, ok := os.LookupEnv("SLACK_TOKEN"); ok {
		c.Alerting.SlackToken = v
	}
	return nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills optional knobs so a minimal config file works.
// Thresholds are only defaulted as a block: a partially filled block is
// trusted as-is, since zero means "check disabled".
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Store.SSLMode == "" {
		c.Store.SSLMode = "disable"
	}
	if c.Archive.RetentionDays == 0 {
		c.Archive.RetentionDays = 30
	}
	if c.Collect.IntervalSeconds == 0 {
		c.Collect.IntervalSeconds = 60
	}
	if c.Collect.OrderWindowMinutes == 0 {
		c.Collect.OrderWindowMinutes = 60
	}
	if c.Collect.PaymentWindowMinutes == 0 {
		c.Collect.PaymentWindowMinutes = 60
	}
	if c.Collect.InventoryStaleAfterSeconds == 0 {
		c.Collect.InventoryStaleAfterSeconds = 300
	}
	if c.Collect.HistoryHours == 0 {
		c.Collect.HistoryHours = 24
	}
	if c.Detect.MinBaselineCount == 0 {
		c.Detect.MinBaselineCount = 12
	}
	if c.Detect.Thresholds == (models.MThresholds{}) {
		c.Detect.Thresholds = models.MThresholds{
			MinHourlyOrders:          10,
			MaxOrderValueChange:      0.3,
			MinUniqueCustomers:       5,
			MaxProcessingTimeSeconds: 30,
			MaxFailureRate:           0.05,
			MaxStaleRatio:            0.1,
			MaxSyncDelaySeconds:      300,
			VolumeZScore:             3.0,
		}
	}
	if c.Alerting.SlackChannel == "" {
		c.Alerting.SlackChannel = "#pipeline-alerts"
	}
	if c.Alerting.MinSeverity == "" {
		c.Alerting.MinSeverity = models.SeverityLow
	}
	if c.Alerting.CooldownMinutes == 0 {
		c.Alerting.CooldownMinutes = 30
	}
	if c.Alerting.CalendarMIC == "" {
		c.Alerting.CalendarMIC = "xnys"
	}
	if c.Alerting.BusinessHours == (models.MBusinessHours{}) {
		c.Alerting.BusinessHours = models.MBusinessHours{Start: 9, End: 17}
	}
	if c.Limits.MaxMemoryMB == 0 {
		c.Limits.MaxMemoryMB = 512
	}
	if c.Limits.SamplesBuffer == 0 {
		c.Limits.SamplesBuffer = 64
	}
	if c.Limits.WSSendBuffer == 0 {
		c.Limits.WSSendBuffer = 256
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Store configuration
	if c.Store.Host == "" {
		return fmt.Errorf("store host cannot be empty")
	}
	if c.Store.Port <= 0 || c.Store.Port > 65535 {
		return fmt.Errorf("invalid store port number: %d", c.Store.Port)
	}
	if c.Store.Name == "" {
		return fmt.Errorf("store database name cannot be empty")
	}
	if c.Store.User == "" {
		return fmt.Errorf("store user cannot be empty")
	}

	// Validate Archive configuration
	switch c.Archive.DBType {
	case "sqlite":
		if c.Archive.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Archive.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	case "":
		return fmt.Errorf("archive database type cannot be empty")
	default:
		return fmt.Errorf("unsupported archive database type: %s", c.Archive.DBType)
	}
	if c.Archive.RetentionDays <= 0 {
		return fmt.Errorf("retention days must be greater than 0")
	}

	// Validate Collect configuration
	if c.Collect.IntervalSeconds <= 0 {
		return fmt.Errorf("collect interval must be greater than 0")
	}
	if c.Collect.OrderWindowMinutes <= 0 || c.Collect.PaymentWindowMinutes <= 0 {
		return fmt.Errorf("collection windows must be greater than 0")
	}
	if c.Collect.InventoryStaleAfterSeconds <= 0 {
		return fmt.Errorf("inventory staleness window must be greater than 0")
	}
	if c.Collect.HistoryHours <= 0 {
		return fmt.Errorf("history hours must be greater than 0")
	}

	// Validate Detect configuration
	if err := c.Detect.Thresholds.Validate(); err != nil {
		return err
	}

	// Validate Alerting configuration
	if models.SeverityRank(c.Alerting.MinSeverity) < 0 {
		return fmt.Errorf("unknown minimum severity: %s", c.Alerting.MinSeverity)
	}
	if c.Alerting.CooldownMinutes < 0 {
		return fmt.Errorf("cooldown minutes cannot be negative")
	}
	bh := c.Alerting.BusinessHours
	if bh.Start < 0 || bh.End > 24 || bh.Start >= bh.End {
		return fmt.Errorf("invalid business hours window: %d-%d", bh.Start, bh.End)
	}

	// Validate Limits configuration
	if c.Limits.MaxMemoryMB <= 0 {
		return fmt.Errorf("memory limit must be greater than 0")
	}
	if c.Limits.SamplesBuffer <= 0 || c.Limits.WSSendBuffer <= 0 {
		return fmt.Errorf("channel buffer sizes must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// ShopDSN assembles the lib/pq connection string for the shop database.
func (c *Config) ShopDSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Store.Host, c.Store.Port, c.Store.Name, c.Store.User, c.Store.Password, c.Store.SSLMode)
}

// -----------------------------------------------------------------------------

// Redacted returns a copy safe to expose on the API: credentials are masked.
func (c *Config) Redacted() models.MConfig {
	out := *c.MConfig
	if out.Store.Password != "" {
		out.Store.Password = "********"
	}
	if out.Alerting.SlackToken != "" {
		out.Alerting.SlackToken = "********"
	}
	return out
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}

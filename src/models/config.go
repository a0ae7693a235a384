package models

import "errors"

// MConfig Structure. The json tags mirror the yaml names: the admin API
// serves the redacted config as JSON.
type MConfig struct {
	Name     string          `yaml:"name" json:"name"`
	Host     string          `yaml:"host" json:"host"`
	Port     int             `yaml:"port" json:"port"`
	LogLevel string          `yaml:"log_level" json:"log_level"`
	Store    MStoreConfig    `yaml:"store" json:"store"`
	Archive  MArchiveConfig  `yaml:"archive" json:"archive"`
	Collect  MCollectConfig  `yaml:"collect" json:"collect"`
	Detect   MDetectConfig   `yaml:"detect" json:"detect"`
	Alerting MAlertingConfig `yaml:"alerting" json:"alerting"`
	Limits   MLimitsConfig   `yaml:"limits" json:"limits"`
}

// MStoreConfig points at the shop database the collectors read from.
// The monitor never writes to this database.
type MStoreConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	SSLMode  string `yaml:"sslmode" json:"sslmode"`
}

// MArchiveConfig selects where collected samples, baselines and alerts are kept.
type MArchiveConfig struct {
	DBType             string `yaml:"db_type" json:"db_type"`
	DBPath             string `yaml:"db_path" json:"db_path"`
	DBConnectionString string `yaml:"db_connection_string" json:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days" json:"retention_days"`
}

type MCollectConfig struct {
	IntervalSeconds            int `yaml:"interval_seconds" json:"interval_seconds"`
	OrderWindowMinutes         int `yaml:"order_window_minutes" json:"order_window_minutes"`
	PaymentWindowMinutes       int `yaml:"payment_window_minutes" json:"payment_window_minutes"`
	InventoryStaleAfterSeconds int `yaml:"inventory_stale_after_seconds" json:"inventory_stale_after_seconds"`
	HistoryHours               int `yaml:"history_hours" json:"history_hours"`
}

type MDetectConfig struct {
	MinBaselineCount int         `yaml:"min_baseline_count" json:"min_baseline_count"`
	Thresholds       MThresholds `yaml:"thresholds" json:"thresholds"`
}

// MThresholds carries every tunable detection limit. A zero value disables
// the corresponding check. Also served and accepted on the admin API, hence
// the json tags.
type MThresholds struct {
	MinHourlyOrders          int     `yaml:"min_hourly_orders" json:"min_hourly_orders"`
	MaxOrderValueChange      float64 `yaml:"max_order_value_change" json:"max_order_value_change"`
	MinUniqueCustomers       int     `yaml:"min_unique_customers" json:"min_unique_customers"`
	MaxProcessingTimeSeconds float64 `yaml:"max_processing_time_seconds" json:"max_processing_time_seconds"`
	MaxFailureRate           float64 `yaml:"max_failure_rate" json:"max_failure_rate"`
	MaxStaleRatio            float64 `yaml:"max_stale_ratio" json:"max_stale_ratio"`
	MaxSyncDelaySeconds      float64 `yaml:"max_sync_delay_seconds" json:"max_sync_delay_seconds"`
	VolumeZScore             float64 `yaml:"volume_zscore" json:"volume_zscore"`
}

// Validate rejects threshold sets no check can work with. Zero values pass:
// they disable the check.
func (t MThresholds) Validate() error {
	if t.MinHourlyOrders < 0 || t.MinUniqueCustomers < 0 {
		return errors.New("order count thresholds cannot be negative")
	}
	if t.MaxOrderValueChange < 0 || t.MaxProcessingTimeSeconds < 0 || t.MaxFailureRate < 0 ||
		t.MaxStaleRatio < 0 || t.MaxSyncDelaySeconds < 0 || t.VolumeZScore < 0 {
		return errors.New("detection thresholds cannot be negative")
	}
	if t.MaxFailureRate > 1 || t.MaxStaleRatio > 1 {
		return errors.New("rate thresholds must be within [0, 1]")
	}
	return nil
}

type MAlertingConfig struct {
	SlackToken      string         `yaml:"slack_token" json:"slack_token"`
	SlackChannel    string         `yaml:"slack_channel" json:"slack_channel"`
	MinSeverity     string         `yaml:"min_severity" json:"min_severity"`
	CooldownMinutes int            `yaml:"cooldown_minutes" json:"cooldown_minutes"`
	QuietHolidays   bool           `yaml:"quiet_holidays" json:"quiet_holidays"`
	CalendarMIC     string         `yaml:"calendar_mic" json:"calendar_mic"`
	BusinessHours   MBusinessHours `yaml:"business_hours" json:"business_hours"`
}

// MBusinessHours bounds the local hours treated as open when the calendar
// carries no intraday schedule. End is exclusive.
type MBusinessHours struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

type MLimitsConfig struct {
	MaxMemoryMB   int `yaml:"max_memory_mb" json:"max_memory_mb"`
	SamplesBuffer int `yaml:"samples_buffer" json:"samples_buffer"`
	WSSendBuffer  int `yaml:"ws_send_buffer" json:"ws_send_buffer"`
}

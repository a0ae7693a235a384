package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
)

// -----------------------------------------------------------------------------

type PostgresArchive struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresArchive(cfg *models.MConfig, log *logger.Logger) (*PostgresArchive, error) {
	// Use the executable name for the schema so several monitors can share
	// one database.
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresArchive{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresArchive) Initialize() error {
	dsn := d.Config.Archive.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresArchive initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

// createTables builds the archive schema. Tables persist across runs: the
// warm start reads yesterday's rows back on boot.
func (d *PostgresArchive) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."order_metrics" (
			timestamp BIGINT PRIMARY KEY,
			order_count DOUBLE PRECISION,
			avg_order_value DOUBLE PRECISION,
			unique_customers DOUBLE PRECISION
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create order_metrics: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."payment_metrics" (
			timestamp BIGINT PRIMARY KEY,
			avg_processing_seconds DOUBLE PRECISION,
			failed_count DOUBLE PRECISION,
			succeeded_count DOUBLE PRECISION
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create payment_metrics: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."inventory_metrics" (
			timestamp BIGINT PRIMARY KEY,
			total_products DOUBLE PRECISION,
			stale_items DOUBLE PRECISION,
			sync_delay_seconds DOUBLE PRECISION
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create inventory_metrics: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."baseline_stats" (
			domain TEXT,
			feature TEXT,
			mean DOUBLE PRECISION,
			std DOUBLE PRECISION,
			data_points INTEGER,
			window_hours INTEGER,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (domain, feature)
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create baseline_stats: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."alerts" (
			id TEXT PRIMARY KEY,
			domain TEXT,
			kind TEXT,
			severity TEXT,
			message TEXT,
			value DOUBLE PRECISION,
			threshold DOUBLE PRECISION,
			fingerprint BIGINT,
			observed_at BIGINT,
			created_at BIGINT,
			delivered BOOLEAN,
			delivery_error TEXT
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create alerts: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresArchive) SaveSamples(samples []models.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Group samples by family so each table gets one prepared statement.
	byDomain := make(map[string][]models.MetricSample)
	for _, s := range samples {
		byDomain[s.Domain()] = append(byDomain[s.Domain()], s)
	}

	for domain, list := range byDomain {
		table := metricsTable(domain)
		if table == "" {
			d.Logger.Warning("PostgresArchive: skipping samples for unknown domain %s", domain)
			continue
		}

		query := fmt.Sprintf(`
			INSERT INTO "%s"."%s" (timestamp, %s)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (timestamp) DO NOTHING
		`, d.Schema, table, featureColumns(domain))

		stmt, err := tx.Prepare(query)
		if err != nil {
			return err
		}

		for _, s := range list {
			row := s.HistoryRow()
			if _, err := stmt.Exec(int64(row[models.RB_IDX_TIMESTAMP]), row[1], row[2], row[3]); err != nil {
				stmt.Close()
				return err
			}
		}
		stmt.Close()
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresArchive) SaveBaselines(stats []models.MBaselineStats) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."baseline_stats" (domain, feature, mean, std, data_points, window_hours, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (domain, feature) DO UPDATE SET
			mean = EXCLUDED.mean,
			std = EXCLUDED.std,
			data_points = EXCLUDED.data_points,
			window_hours = EXCLUDED.window_hours,
			updated_at = EXCLUDED.updated_at
	`, d.Schema)

	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		_, err := stmt.Exec(s.Domain, s.Feature, s.Mean, s.Std, s.Count, s.WindowHours, s.ComputedAt.UTC())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresArchive) SaveAlert(alert models.MAlert) error {
	query := fmt.Sprintf(`
		INSERT INTO "%s"."alerts" (id, domain, kind, severity, message, value, threshold, fingerprint, observed_at, created_at, delivered, delivery_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, d.Schema)

	a := alert.Anomaly
	_, err := d.DB.Exec(query,
		alert.ID, a.Domain, a.Kind, a.Severity, a.Message, a.Value, a.Threshold,
		int64(alert.Fingerprint), a.ObservedAt.Unix(), alert.CreatedAt.Unix(),
		alert.Delivered, alert.DeliveryError)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresArchive) RecentRows(domain string, since time.Time) ([][models.RB_NUM_FEATURES]float64, error) {
	table := metricsTable(domain)
	if table == "" {
		return nil, fmt.Errorf("unknown metric domain: %s", domain)
	}

	query := fmt.Sprintf(`
		SELECT timestamp, %s
		FROM "%s"."%s"
		WHERE timestamp >= $1
		ORDER BY timestamp ASC
	`, featureColumns(domain), d.Schema, table)

	rows, err := d.DB.Query(query, since.UTC().Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][models.RB_NUM_FEATURES]float64
	for rows.Next() {
		var ts int64
		var a, b, c float64
		if err := rows.Scan(&ts, &a, &b, &c); err != nil {
			return nil, err
		}
		out = append(out, [models.RB_NUM_FEATURES]float64{float64(ts), a, b, c})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresArchive) RecentAlerts(limit int) ([]models.MAlert, error) {
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT id, domain, kind, severity, message, value, threshold, fingerprint, observed_at, created_at, delivered, delivery_error
		FROM "%s"."alerts"
		ORDER BY created_at DESC
		LIMIT $1
	`, d.Schema)

	rows, err := d.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MAlert
	for rows.Next() {
		var alert models.MAlert
		var fp, observedAt, createdAt int64
		if err := rows.Scan(&alert.ID, &alert.Anomaly.Domain, &alert.Anomaly.Kind,
			&alert.Anomaly.Severity, &alert.Anomaly.Message, &alert.Anomaly.Value,
			&alert.Anomaly.Threshold, &fp, &observedAt, &createdAt,
			&alert.Delivered, &alert.DeliveryError); err != nil {
			return nil, err
		}
		alert.Fingerprint = uint64(fp)
		alert.Anomaly.ObservedAt = time.Unix(observedAt, 0).UTC()
		alert.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresArchive) CleanupOldData() error {
	retentionDays := d.Config.Archive.RetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up data older than %d days (timestamp < %d)...", retentionDays, cutoff)

	for _, domain := range models.Domains() {
		table := fmt.Sprintf(`"%s"."%s"`, d.Schema, metricsTable(domain))
		if _, err := d.DB.Exec(fmt.Sprintf("DELETE FROM %s WHERE timestamp < $1", table), cutoff); err != nil {
			d.Logger.Error("Cleanup %s error: %v", table, err)
		}
	}

	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."alerts" WHERE created_at < $1`, d.Schema), cutoff); err != nil {
		d.Logger.Error("Cleanup alerts error: %v", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresArchive) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

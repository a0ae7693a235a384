package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
)

// -----------------------------------------------------------------------------

type SQLiteArchive struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteArchive(cfg *models.MConfig, log *logger.Logger) (*SQLiteArchive, error) {
	return &SQLiteArchive{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteArchive) Initialize() error {
	dsn := d.Config.Archive.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		d.Logger.Warning("Failed to set busy timeout: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

// createTables builds the archive schema. Tables persist across runs: the
// warm start reads yesterday's rows back on boot.
// SQLite types: INTEGER for int64, REAL for float64, TEXT for string.
func (d *SQLiteArchive) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS order_metrics (
			timestamp INTEGER PRIMARY KEY,
			order_count REAL,
			avg_order_value REAL,
			unique_customers REAL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create order_metrics: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS payment_metrics (
			timestamp INTEGER PRIMARY KEY,
			avg_processing_seconds REAL,
			failed_count REAL,
			succeeded_count REAL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create payment_metrics: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS inventory_metrics (
			timestamp INTEGER PRIMARY KEY,
			total_products REAL,
			stale_items REAL,
			sync_delay_seconds REAL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create inventory_metrics: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS baseline_stats (
			domain TEXT,
			feature TEXT,
			mean REAL,
			std REAL,
			data_points INTEGER,
			window_hours INTEGER,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (domain, feature)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create baseline_stats: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			domain TEXT,
			kind TEXT,
			severity TEXT,
			message TEXT,
			value REAL,
			threshold REAL,
			fingerprint INTEGER,
			observed_at INTEGER,
			created_at INTEGER,
			delivered INTEGER,
			delivery_error TEXT
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create alerts: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteArchive) SaveSamples(samples []models.MetricSample) error {
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
			d.Logger.Warning("SQLiteArchive: skipping samples for unknown domain %s", domain)
			continue
		}

		query := fmt.Sprintf(`
			INSERT INTO %s (timestamp, %s)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (timestamp) DO NOTHING
		`, table, featureColumns(domain))

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

func (d *SQLiteArchive) SaveBaselines(stats []models.MBaselineStats) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO baseline_stats (domain, feature, mean, std, data_points, window_hours, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (domain, feature) DO UPDATE SET
			mean = excluded.mean,
			std = excluded.std,
			data_points = excluded.data_points,
			window_hours = excluded.window_hours,
			updated_at = excluded.updated_at
	`)
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

func (d *SQLiteArchive) SaveAlert(alert models.MAlert) error {
	a := alert.Anomaly
	_, err := d.DB.Exec(`
		INSERT INTO alerts (id, domain, kind, severity, message, value, threshold, fingerprint, observed_at, created_at, delivered, delivery_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		alert.ID, a.Domain, a.Kind, a.Severity, a.Message, a.Value, a.Threshold,
		int64(alert.Fingerprint), a.ObservedAt.Unix(), alert.CreatedAt.Unix(),
		alert.Delivered, alert.DeliveryError)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteArchive) RecentRows(domain string, since time.Time) ([][models.RB_NUM_FEATURES]float64, error) {
	table := metricsTable(domain)
	if table == "" {
		return nil, fmt.Errorf("unknown metric domain: %s", domain)
	}

	query := fmt.Sprintf(`
		SELECT timestamp, %s
		FROM %s
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
	`, featureColumns(domain), table)

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

func (d *SQLiteArchive) RecentAlerts(limit int) ([]models.MAlert, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.DB.Query(`
		SELECT id, domain, kind, severity, message, value, threshold, fingerprint, observed_at, created_at, delivered, delivery_error
		FROM alerts
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
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

func (d *SQLiteArchive) CleanupOldData() error {
	retentionDays := d.Config.Archive.RetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up data older than %d days (timestamp < %d)...", retentionDays, cutoff)

	for _, domain := range models.Domains() {
		table := metricsTable(domain)
		if _, err := d.DB.Exec(fmt.Sprintf("DELETE FROM %s WHERE timestamp < ?", table), cutoff); err != nil {
			d.Logger.Error("Cleanup %s error: %v", table, err)
		}
	}

	if _, err := d.DB.Exec("DELETE FROM alerts WHERE created_at < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup alerts error: %v", err)
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteArchive) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
)

// -----------------------------------------------------------------------------
// ShopDB is the read-only connection to the shop database the collectors
// query. It never creates, updates or deletes anything there.
// -----------------------------------------------------------------------------

type ShopDB struct {
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewShopDB(dsn string, log *logger.Logger) (*ShopDB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open shop database: %w", err)
	}

	// A handful of connections is plenty: three collectors, one query each.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &ShopDB{DB: db, Logger: log}, nil
}

// -----------------------------------------------------------------------------

func (s *ShopDB) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// -----------------------------------------------------------------------------

// OrderMetrics aggregates orders created since the cutoff. An empty window
// yields a zero-valued result, not an error.
func (s *ShopDB) OrderMetrics(ctx context.Context, since time.Time) (models.MOrderMetrics, error) {
	const query = `
		SELECT COUNT(*) AS order_count,
		       COALESCE(AVG(total_amount), 0) AS avg_order_value,
		       COUNT(DISTINCT customer_id) AS unique_customers
		FROM orders
		WHERE created_at >= $1
	`

	var m models.MOrderMetrics
	row := s.DB.QueryRowContext(ctx, query, since.UTC())
	if err := row.Scan(&m.OrderCount, &m.AvgOrderValue, &m.UniqueCustomers); err != nil {
		return m, fmt.Errorf("order metrics query failed: %w", err)
	}
	return m, nil
}

// -----------------------------------------------------------------------------

// PaymentMetrics aggregates transactions created since the cutoff.
// Processing time averages completed transactions only; AVG skips the NULL
// completed_at of unfinished rows.
func (s *ShopDB) PaymentMetrics(ctx context.Context, since time.Time) (models.MPaymentMetrics, error) {
	const query = `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - created_at))), 0) AS avg_processing_time,
		       COUNT(CASE WHEN status = 'failed' THEN 1 END) AS failed_transactions,
		       COUNT(CASE WHEN status = 'completed' THEN 1 END) AS successful_transactions
		FROM transactions
		WHERE created_at >= $1
	`

	var m models.MPaymentMetrics
	row := s.DB.QueryRowContext(ctx, query, since.UTC())
	if err := row.Scan(&m.AvgProcessingSeconds, &m.FailedCount, &m.SucceededCount); err != nil {
		return m, fmt.Errorf("payment metrics query failed: %w", err)
	}
	return m, nil
}

// -----------------------------------------------------------------------------

// InventoryMetrics scans the full inventory_status table. Items whose
// last_sync predates staleBefore count as stale.
func (s *ShopDB) InventoryMetrics(ctx context.Context, staleBefore time.Time) (models.MInventoryMetrics, error) {
	const query = `
		SELECT COUNT(*) AS total_products,
		       COUNT(CASE WHEN last_sync < $1 THEN 1 END) AS stale_items,
		       MAX(last_sync) AS latest_sync
		FROM inventory_status
	`

	var m models.MInventoryMetrics
	var latest sql.NullTime
	row := s.DB.QueryRowContext(ctx, query, staleBefore.UTC())
	if err := row.Scan(&m.TotalProducts, &m.StaleItems, &latest); err != nil {
		return m, fmt.Errorf("inventory metrics query failed: %w", err)
	}
	if latest.Valid {
		m.LatestSync = latest.Time.UTC()
	}
	return m, nil
}

// -----------------------------------------------------------------------------

func (s *ShopDB) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

package storage

import (
	"pipeline-monitor/src/models"
)

// Info: Shared table mapping for the archive drivers. Each metric family has
// its own table; feature columns line up with the history row layout.

// -----------------------------------------------------------------------------

// metricsTable maps a metric family to its archive table name.
func metricsTable(domain string) string {
	switch domain {
	case models.DomainOrders:
		return "order_metrics"
	case models.DomainPayments:
		return "payment_metrics"
	case models.DomainInventory:
		return "inventory_metrics"
	}
	return ""
}

// -----------------------------------------------------------------------------

// featureColumns lists a family's three feature columns in history-row order.
func featureColumns(domain string) string {
	switch domain {
	case models.DomainOrders:
		return "order_count, avg_order_value, unique_customers"
	case models.DomainPayments:
		return "avg_processing_seconds, failed_count, succeeded_count"
	case models.DomainInventory:
		return "total_products, stale_items, sync_delay_seconds"
	}
	return ""
}

package models

// RingBuffer indices and constants. Every history row is a fixed vector of
// the sample timestamp plus three family-specific features.
const (
	RB_IDX_TIMESTAMP = 0
	RB_NUM_FEATURES  = 4

	// order_volume rows
	RB_IDX_ORDER_COUNT = 1
	RB_IDX_ORDER_VALUE = 2
	RB_IDX_CUSTOMERS   = 3

	// payment_processing rows
	RB_IDX_PROC_SECONDS = 1
	RB_IDX_FAILED       = 2
	RB_IDX_SUCCEEDED    = 3

	// inventory_updates rows
	RB_IDX_TOTAL_ITEMS = 1
	RB_IDX_STALE_ITEMS = 2
	RB_IDX_SYNC_DELAY  = 3
)

// FeatureNames returns the names of a domain's three feature slots, in row
// index order 1..3. The archive uses the same names as column names.
func FeatureNames(domain string) [RB_NUM_FEATURES - 1]string {
	switch domain {
	case DomainPayments:
		return [RB_NUM_FEATURES - 1]string{"avg_processing_seconds", "failed_count", "succeeded_count"}
	case DomainInventory:
		return [RB_NUM_FEATURES - 1]string{"total_products", "stale_items", "sync_delay_seconds"}
	default:
		return [RB_NUM_FEATURES - 1]string{"order_count", "avg_order_value", "unique_customers"}
	}
}

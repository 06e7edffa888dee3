package models

// DedupeCounts reports how many records deduplication removed.
type DedupeCounts struct {
	ByID    int `json:"duplicates_by_id"`
	FullRow int `json:"duplicates_full_row"`
}

// DatasetReport summarizes validation of one dataset for one ingest date.
// Total counts the records that reached validation, i.e. after dedupe.
type DatasetReport struct {
	Total             int                  `json:"total"`
	Clean             int                  `json:"clean"`
	Quarantine        int                  `json:"quarantine"`
	Reasons           map[RejectReason]int `json:"reasons"`
	DuplicatesByID    int                  `json:"duplicates_by_id"`
	DuplicatesFullRow int                  `json:"duplicates_full_row"`
}

// ValidationReport is the per-date quality report. It is written wholesale on
// every run; a rerun for the same date replaces it.
type ValidationReport struct {
	IngestDate string        `json:"ingest_date"`
	Customers  DatasetReport `json:"customers"`
	Events     DatasetReport `json:"events"`
	Orders     DatasetReport `json:"orders"`
}

// DailyMetrics is the per-date metrics row computed over the date's outputs.
// Rate maps are keyed by dataset name; NullRates by "<dataset>.<column>".
// Percentiles are computed over clean records only and are nil when the clean
// set is empty.
type DailyMetrics struct {
	IngestDate string `json:"ingest_date"`

	CustomersTotal      int `json:"customers_total"`
	CustomersClean      int `json:"customers_clean"`
	CustomersQuarantine int `json:"customers_quarantine"`
	EventsTotal         int `json:"events_total"`
	EventsClean         int `json:"events_clean"`
	EventsQuarantine    int `json:"events_quarantine"`
	OrdersTotal         int `json:"orders_total"`
	OrdersClean         int `json:"orders_clean"`
	OrdersQuarantine    int `json:"orders_quarantine"`

	EventTypeCounts   map[string]int `json:"event_type_counts"`
	PlatformCounts    map[string]int `json:"platform_counts"`
	OrderStatusCounts map[string]int `json:"order_status_counts"`

	ActiveCustomersEvents int `json:"active_customers_events"`
	ActiveCustomersOrders int `json:"active_customers_orders"`

	InvalidTimestampRate map[string]float64 `json:"invalid_timestamp_rate"`
	OrphanRate           map[string]float64 `json:"orphan_rate"`
	DuplicateRate        map[string]float64 `json:"duplicate_rate"`
	NullRates            map[string]float64 `json:"null_rates"`

	DurationP50 *float64 `json:"duration_ms_p50"`
	DurationP95 *float64 `json:"duration_ms_p95"`
	AmountP50   *float64 `json:"amount_p50"`
	AmountP95   *float64 `json:"amount_p95"`
}

// HourlyEventCount is one row of the hourly event volume series. Hour is the
// UTC hour of day (0-23); hours without clean events produce no row.
type HourlyEventCount struct {
	IngestDate string `json:"ingest_date"`
	Hour       int    `json:"hour_utc"`
	Count      int    `json:"event_count"`
}

// DailyVolume is the slice of the historical metrics series the partial-load
// detector consumes: clean event volume per prior ingest date.
type DailyVolume struct {
	IngestDate  string `json:"ingest_date"`
	EventsClean int    `json:"events_clean"`
}

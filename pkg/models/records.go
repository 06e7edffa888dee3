package models

import "time"

// DatasetKind identifies one of the three raw feeds processed per ingest date.
type DatasetKind string

const (
	DatasetCustomers DatasetKind = "customers"
	DatasetEvents    DatasetKind = "events"
	DatasetOrders    DatasetKind = "orders"
)

// Unknown is the canonical value for category fields whose raw value could not
// be mapped into the field's vocabulary. Unknown values are kept, not dropped.
const Unknown = "unknown"

// Customer is a normalized customers_raw record.
//
// Presence flags record whether the raw source carried a value at all; a
// present field with a nil parsed value means the parse failed. Validation
// consumes both signals, normalization never rejects.
type Customer struct {
	CustomerID       string     `json:"customer_id"`
	Email            string     `json:"email"`
	EmailValid       bool       `json:"email_valid"`
	CreatedAt        *time.Time `json:"created_at_utc"`
	CreatedAtPresent bool       `json:"-"`
	Country          string     `json:"country"`
	Status           string     `json:"status"`
	StatusPresent    bool       `json:"-"`
	IngestDate       string     `json:"ingest_date,omitempty"`
	RowFingerprint   string     `json:"-"`
}

// DupKey returns the identity key used for id-based deduplication.
func (c Customer) DupKey() string { return c.CustomerID }

// Event is a normalized events_raw record.
type Event struct {
	EventID          string     `json:"event_id"`
	CustomerID       string     `json:"customer_id"`
	EventTime        *time.Time `json:"event_time_utc"`
	EventTimePresent bool       `json:"-"`
	EventType        string     `json:"event_type"`
	EventTypePresent bool       `json:"-"`
	Platform         string     `json:"platform"`
	PlatformPresent  bool       `json:"-"`
	SessionID        string     `json:"session_id"`
	DurationMS       *float64   `json:"duration_ms"`
	IngestDate       string     `json:"ingest_date,omitempty"`
	RowFingerprint   string     `json:"-"`
}

func (e Event) DupKey() string { return e.EventID }

// Order is a normalized orders_raw record.
type Order struct {
	OrderID          string     `json:"order_id"`
	CustomerID       string     `json:"customer_id"`
	OrderTime        *time.Time `json:"order_time_utc"`
	OrderTimePresent bool       `json:"-"`
	Amount           *float64   `json:"amount"`
	AmountPresent    bool       `json:"-"`
	Currency         string     `json:"currency"`
	CurrencyPresent  bool       `json:"-"`
	Status           string     `json:"status"`
	StatusPresent    bool       `json:"-"`
	IngestDate       string     `json:"ingest_date,omitempty"`
	RowFingerprint   string     `json:"-"`
}

func (o Order) DupKey() string { return o.OrderID }

// Quarantined wraps a normalized record that failed at least one validation
// rule. RejectReasons is ordered and non-empty by construction.
type Quarantined[T any] struct {
	Record        T              `json:"record"`
	RejectReasons []RejectReason `json:"reject_reasons"`
}

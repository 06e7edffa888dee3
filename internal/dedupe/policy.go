package dedupe

import (
	"time"

	"github.com/feedqc/feedqc/pkg/models"
)

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func cmpInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// cmpTime ranks later timestamps higher; a nil timestamp ranks below any
// non-nil one.
func cmpTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.After(*b):
		return 1
	case b.After(*a):
		return -1
	default:
		return 0
	}
}

// CustomerPolicy prefers records with a valid email, then a parseable
// created_at, then the latest created_at.
type CustomerPolicy struct{}

func (CustomerPolicy) Key(c models.Customer) string { return c.CustomerID }

func (CustomerPolicy) Compare(a, b models.Customer) int {
	if c := cmpBool(a.EmailValid, b.EmailValid); c != 0 {
		return c
	}
	if c := cmpBool(a.CreatedAt != nil, b.CreatedAt != nil); c != 0 {
		return c
	}
	return cmpTime(a.CreatedAt, b.CreatedAt)
}

// EventPolicy ranks by completeness score, then by the latest event_time.
type EventPolicy struct{}

func (EventPolicy) Key(e models.Event) string { return e.EventID }

func (EventPolicy) Compare(a, b models.Event) int {
	if c := cmpInt(eventCompleteness(a), eventCompleteness(b)); c != 0 {
		return c
	}
	return cmpTime(a.EventTime, b.EventTime)
}

func eventCompleteness(e models.Event) int {
	score := 0
	if e.EventTime != nil {
		score++
	}
	if e.CustomerID != "" {
		score++
	}
	if e.EventType != models.Unknown {
		score++
	}
	if e.Platform != models.Unknown {
		score++
	}
	if e.SessionID != "" {
		score++
	}
	if e.DurationMS != nil {
		score++
	}
	return score
}

// OrderPolicy ranks by completeness score, then by the latest order_time.
type OrderPolicy struct{}

func (OrderPolicy) Key(o models.Order) string { return o.OrderID }

func (OrderPolicy) Compare(a, b models.Order) int {
	if c := cmpInt(orderCompleteness(a), orderCompleteness(b)); c != 0 {
		return c
	}
	return cmpTime(a.OrderTime, b.OrderTime)
}

func orderCompleteness(o models.Order) int {
	score := 0
	if o.OrderTime != nil {
		score++
	}
	if o.CustomerID != "" {
		score++
	}
	if o.Amount != nil {
		score++
	}
	if o.Currency != models.Unknown {
		score++
	}
	if o.Status != models.Unknown {
		score++
	}
	return score
}

// Customers deduplicates a customers batch.
func Customers(records []models.Customer) ([]models.Customer, models.DedupeCounts) {
	return Deduplicate(records, func(c models.Customer) string { return c.RowFingerprint }, CustomerPolicy{})
}

// Events deduplicates an events batch.
func Events(records []models.Event) ([]models.Event, models.DedupeCounts) {
	return Deduplicate(records, func(e models.Event) string { return e.RowFingerprint }, EventPolicy{})
}

// Orders deduplicates an orders batch.
func Orders(records []models.Order) ([]models.Order, models.DedupeCounts) {
	return Deduplicate(records, func(o models.Order) string { return o.RowFingerprint }, OrderPolicy{})
}

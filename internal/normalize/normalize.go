// Package normalize canonicalizes raw feed rows into typed records. All
// functions are pure and total: unparseable values become nil with the
// presence flag still set, unknown categories become the literal "unknown",
// and nothing is ever dropped here.
package normalize

import (
	"github.com/feedqc/feedqc/pkg/models"
)

// Customer normalizes one customers_raw row.
func Customer(row map[string]string) models.Customer {
	c := models.Customer{
		CustomerID:     CleanText(row["customer_id"]),
		Email:          CleanText(row["email"]),
		Country:        Country(row["country"]),
		IngestDate:     CleanText(row["ingest_date"]),
		RowFingerprint: Fingerprint(row),
	}
	c.EmailValid = c.Email != "" && IsValidEmail(c.Email)

	rawCreated := row["created_at"]
	c.CreatedAtPresent = !MissingText(rawCreated)
	if t, ok := ParseTimestampUTC(rawCreated); ok {
		c.CreatedAt = &t
	}

	rawStatus := row["status"]
	c.StatusPresent = !MissingText(rawStatus)
	c.Status = CustomerStatus(rawStatus)

	return c
}

// Event normalizes one events_raw row.
func Event(row map[string]string) models.Event {
	e := models.Event{
		EventID:        CleanText(row["event_id"]),
		CustomerID:     CleanText(row["customer_id"]),
		SessionID:      CleanText(row["session_id"]),
		IngestDate:     CleanText(row["ingest_date"]),
		RowFingerprint: Fingerprint(row),
	}

	rawTime := row["event_time"]
	e.EventTimePresent = !MissingText(rawTime)
	if t, ok := ParseTimestampUTC(rawTime); ok {
		e.EventTime = &t
	}

	rawType := row["event_type"]
	e.EventTypePresent = !MissingText(rawType)
	e.EventType = EventType(rawType)

	rawPlatform := row["platform"]
	e.PlatformPresent = !MissingText(rawPlatform)
	e.Platform = Platform(rawPlatform)

	if f, ok := ParseNumber(row["duration_ms"]); ok {
		e.DurationMS = &f
	}

	return e
}

// Order normalizes one orders_raw row.
func Order(row map[string]string) models.Order {
	o := models.Order{
		OrderID:        CleanText(row["order_id"]),
		CustomerID:     CleanText(row["customer_id"]),
		IngestDate:     CleanText(row["ingest_date"]),
		RowFingerprint: Fingerprint(row),
	}

	rawTime := row["order_time"]
	o.OrderTimePresent = !MissingText(rawTime)
	if t, ok := ParseTimestampUTC(rawTime); ok {
		o.OrderTime = &t
	}

	rawAmount := row["amount"]
	o.AmountPresent = !MissingText(rawAmount)
	if f, ok := ParseNumber(rawAmount); ok {
		o.Amount = &f
	}

	rawCurrency := row["currency"]
	o.CurrencyPresent = !MissingText(rawCurrency)
	o.Currency = Currency(rawCurrency)

	rawStatus := row["status"]
	o.StatusPresent = !MissingText(rawStatus)
	o.Status = OrderStatus(rawStatus)

	return o
}

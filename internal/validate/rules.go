package validate

import (
	"regexp"
	"time"

	"github.com/feedqc/feedqc/pkg/models"
)

// MaxDurationMS caps event durations at 24 hours.
const MaxDurationMS = 24 * 60 * 60 * 1000

// customer_id shape: "c" followed by five digits.
var customerIDRE = regexp.MustCompile(`^[cC]\d{5}$`)

// timestampYearInRange sanity-checks a parsed timestamp. Anything before 1900
// or more than a year in the future is treated as corrupt.
func timestampYearInRange(t time.Time, now time.Time) bool {
	year := t.UTC().Year()
	return year >= 1900 && year <= now.UTC().Year()+1
}

// CustomerReasons evaluates every customer rule and returns the accumulated
// reject reasons in rule order. An empty result means the record is clean.
func CustomerReasons(c models.Customer, partitionDate string, now time.Time) []models.RejectReason {
	var reasons []models.RejectReason

	if c.CustomerID == "" || c.Email == "" || !c.CreatedAtPresent || !c.StatusPresent {
		reasons = append(reasons, models.ReasonMissingRequiredColumn)
	}
	if c.CustomerID != "" && !customerIDRE.MatchString(c.CustomerID) {
		reasons = append(reasons, models.ReasonInvalidCustomerID)
	}
	if c.Email != "" && !c.EmailValid {
		reasons = append(reasons, models.ReasonInvalidEmail)
	}
	if c.CreatedAtPresent && c.CreatedAt == nil {
		reasons = append(reasons, models.ReasonInvalidTimestamp)
	}
	if c.CreatedAt != nil && !timestampYearInRange(*c.CreatedAt, now) {
		reasons = append(reasons, models.ReasonTimestampOutOfRange)
	}
	if c.StatusPresent && c.Status == models.Unknown {
		reasons = append(reasons, models.ReasonInvalidStatus)
	}
	if c.IngestDate != "" && c.IngestDate != partitionDate {
		reasons = append(reasons, models.ReasonIngestDateMismatch)
	}
	return reasons
}

// EventReasons evaluates every event rule. Referential integrity is checked
// against the partition's clean customers only.
func EventReasons(e models.Event, cleanCustomers map[string]struct{}, partitionDate string) []models.RejectReason {
	var reasons []models.RejectReason

	if e.EventID == "" || e.CustomerID == "" || !e.EventTimePresent || !e.EventTypePresent || !e.PlatformPresent {
		reasons = append(reasons, models.ReasonMissingRequiredColumn)
	}
	if e.EventTimePresent && e.EventTime == nil {
		reasons = append(reasons, models.ReasonInvalidTimestamp)
	}
	if e.DurationMS == nil || *e.DurationMS < 0 || *e.DurationMS > MaxDurationMS {
		reasons = append(reasons, models.ReasonDurationOutOfRange)
	}
	if e.CustomerID != "" {
		if _, ok := cleanCustomers[e.CustomerID]; !ok {
			reasons = append(reasons, models.ReasonOrphanCustomer)
		}
	}
	if e.IngestDate != "" && e.IngestDate != partitionDate {
		reasons = append(reasons, models.ReasonIngestDateMismatch)
	}
	return reasons
}

// OrderReasons evaluates every order rule.
func OrderReasons(o models.Order, cleanCustomers map[string]struct{}, partitionDate string) []models.RejectReason {
	var reasons []models.RejectReason

	if o.OrderID == "" || o.CustomerID == "" || !o.OrderTimePresent ||
		!o.AmountPresent || !o.CurrencyPresent || !o.StatusPresent {
		reasons = append(reasons, models.ReasonMissingRequiredColumn)
	}
	if o.OrderTimePresent && o.OrderTime == nil {
		reasons = append(reasons, models.ReasonInvalidTimestamp)
	}
	if o.CurrencyPresent && o.Currency == models.Unknown {
		reasons = append(reasons, models.ReasonUnknownCurrency)
	}
	if violatesAmountPolicy(o) {
		reasons = append(reasons, models.ReasonAmountPolicyViolation)
	}
	if o.CustomerID != "" {
		if _, ok := cleanCustomers[o.CustomerID]; !ok {
			reasons = append(reasons, models.ReasonOrphanCustomer)
		}
	}
	if o.IngestDate != "" && o.IngestDate != partitionDate {
		reasons = append(reasons, models.ReasonIngestDateMismatch)
	}
	return reasons
}

// violatesAmountPolicy checks amount consistency with order status: the
// amount must be numeric and non-negative for every status, paid orders must
// charge a positive amount, failed orders must charge nothing, and refunds
// and chargebacks must reference the positive original amount.
func violatesAmountPolicy(o models.Order) bool {
	if o.Amount == nil {
		return true
	}
	amount := *o.Amount
	if amount < 0 {
		return true
	}
	switch o.Status {
	case "paid", "refunded", "chargeback":
		return amount == 0
	case "failed":
		return amount != 0
	default:
		return false
	}
}

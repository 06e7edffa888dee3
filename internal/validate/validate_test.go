package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedqc/feedqc/pkg/models"
)

const partitionDate = "2025-07-01"

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func fptr(v float64) *float64 { return &v }

func cleanCustomer(id string) models.Customer {
	return models.Customer{
		CustomerID:       id,
		Email:            "user@example.com",
		EmailValid:       true,
		CreatedAt:        ts("2025-06-01T00:00:00Z"),
		CreatedAtPresent: true,
		Status:           "active",
		StatusPresent:    true,
		IngestDate:       partitionDate,
	}
}

func cleanEvent(id, customerID string) models.Event {
	return models.Event{
		EventID:          id,
		CustomerID:       customerID,
		EventTime:        ts("2025-07-01T10:00:00Z"),
		EventTimePresent: true,
		EventType:        "login",
		EventTypePresent: true,
		Platform:         "ios",
		PlatformPresent:  true,
		SessionID:        "s1",
		DurationMS:       fptr(1500),
		IngestDate:       partitionDate,
	}
}

func cleanOrder(id, customerID string) models.Order {
	return models.Order{
		OrderID:          id,
		CustomerID:       customerID,
		OrderTime:        ts("2025-07-01T12:00:00Z"),
		OrderTimePresent: true,
		Amount:           fptr(19.99),
		AmountPresent:    true,
		Currency:         "USD",
		CurrencyPresent:  true,
		Status:           "paid",
		StatusPresent:    true,
		IngestDate:       partitionDate,
	}
}

func TestCustomerReasonsAccumulate(t *testing.T) {
	c := cleanCustomer("c00001")
	c.Email = "userexample.com"
	c.EmailValid = false
	c.CreatedAt = nil // present but unparseable
	c.Status = models.Unknown

	reasons := CustomerReasons(c, partitionDate, time.Now().UTC())
	assert.ElementsMatch(t, []models.RejectReason{
		models.ReasonInvalidEmail,
		models.ReasonInvalidTimestamp,
		models.ReasonInvalidStatus,
	}, reasons)
}

func TestCustomerIDShape(t *testing.T) {
	c := cleanCustomer("unknown_c00001")
	reasons := CustomerReasons(c, partitionDate, time.Now().UTC())
	assert.Equal(t, []models.RejectReason{models.ReasonInvalidCustomerID}, reasons)

	assert.Empty(t, CustomerReasons(cleanCustomer("C00042"), partitionDate, time.Now().UTC()))
}

func TestCustomerTimestampOutOfRange(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	c := cleanCustomer("c00001")
	c.CreatedAt = ts("1899-12-31T23:00:00Z")
	assert.Contains(t, CustomerReasons(c, partitionDate, now), models.ReasonTimestampOutOfRange)

	c.CreatedAt = ts("2027-01-01T00:00:00Z")
	assert.Contains(t, CustomerReasons(c, partitionDate, now), models.ReasonTimestampOutOfRange)

	// Next year is still within tolerance.
	c.CreatedAt = ts("2026-06-01T00:00:00Z")
	assert.Empty(t, CustomerReasons(c, partitionDate, now))
}

func TestCustomerIngestDateMismatch(t *testing.T) {
	c := cleanCustomer("c00001")
	c.IngestDate = "2099-01-01"
	reasons := CustomerReasons(c, partitionDate, time.Now().UTC())
	assert.Equal(t, []models.RejectReason{models.ReasonIngestDateMismatch}, reasons)
}

func TestEventOrphanCheckedAgainstCleanCustomersOnly(t *testing.T) {
	customers := []models.Customer{
		cleanCustomer("c00001"),
		func() models.Customer {
			c := cleanCustomer("c00002")
			c.EmailValid = false
			return c
		}(),
	}
	res := Customers(customers, partitionDate)
	require.Len(t, res.Clean, 1)
	ids := CleanCustomerIDSet(res.Clean)

	ok := EventReasons(cleanEvent("e1", "c00001"), ids, partitionDate)
	assert.Empty(t, ok)

	// c00002 exists in the raw feed but was quarantined; its events are orphans.
	orphan := EventReasons(cleanEvent("e2", "c00002"), ids, partitionDate)
	assert.Equal(t, []models.RejectReason{models.ReasonOrphanCustomer}, orphan)
}

func TestEventDurationBounds(t *testing.T) {
	ids := map[string]struct{}{"c00001": {}}

	e := cleanEvent("e1", "c00001")
	e.DurationMS = fptr(-1)
	assert.Contains(t, EventReasons(e, ids, partitionDate), models.ReasonDurationOutOfRange)

	e.DurationMS = fptr(MaxDurationMS + 1)
	assert.Contains(t, EventReasons(e, ids, partitionDate), models.ReasonDurationOutOfRange)

	e.DurationMS = nil
	assert.Contains(t, EventReasons(e, ids, partitionDate), models.ReasonDurationOutOfRange)

	e.DurationMS = fptr(0)
	assert.Empty(t, EventReasons(e, ids, partitionDate))
	e.DurationMS = fptr(MaxDurationMS)
	assert.Empty(t, EventReasons(e, ids, partitionDate))
}

func TestEventMultipleReasons(t *testing.T) {
	ids := map[string]struct{}{"c00001": {}}

	e := cleanEvent("e1", "c00099")
	e.EventTime = nil // present but unparseable
	e.DurationMS = fptr(-500)

	reasons := EventReasons(e, ids, partitionDate)
	assert.ElementsMatch(t, []models.RejectReason{
		models.ReasonInvalidTimestamp,
		models.ReasonDurationOutOfRange,
		models.ReasonOrphanCustomer,
	}, reasons)
}

func TestOrderAmountPolicy(t *testing.T) {
	ids := map[string]struct{}{"c00001": {}}

	tests := []struct {
		name     string
		status   string
		amount   *float64
		violates bool
	}{
		{"paid positive", "paid", fptr(10), false},
		{"paid zero", "paid", fptr(0), true},
		{"refunded zero", "refunded", fptr(0), true},
		{"refunded positive", "refunded", fptr(5), false},
		{"chargeback zero", "chargeback", fptr(0), true},
		{"failed zero", "failed", fptr(0), false},
		{"failed positive", "failed", fptr(10), true},
		{"negative amount", "paid", fptr(-1), true},
		{"null amount", "paid", nil, true},
		{"unknown status positive", models.Unknown, fptr(10), false},
		{"unknown status zero", models.Unknown, fptr(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := cleanOrder("o1", "c00001")
			o.Status = tt.status
			o.Amount = tt.amount

			reasons := OrderReasons(o, ids, partitionDate)
			if tt.violates {
				assert.Contains(t, reasons, models.ReasonAmountPolicyViolation)
			} else {
				assert.NotContains(t, reasons, models.ReasonAmountPolicyViolation)
			}
		})
	}
}

func TestOrderUnknownCurrency(t *testing.T) {
	ids := map[string]struct{}{"c00001": {}}
	o := cleanOrder("o1", "c00001")
	o.Currency = models.Unknown
	assert.Equal(t, []models.RejectReason{models.ReasonUnknownCurrency}, OrderReasons(o, ids, partitionDate))
}

func TestOrderMissingColumns(t *testing.T) {
	ids := map[string]struct{}{"c00001": {}}
	o := cleanOrder("o1", "c00001")
	o.AmountPresent = false
	o.Amount = nil

	reasons := OrderReasons(o, ids, partitionDate)
	assert.Contains(t, reasons, models.ReasonMissingRequiredColumn)
	assert.Contains(t, reasons, models.ReasonAmountPolicyViolation)
}

func TestSplitIsTotalAndDisjoint(t *testing.T) {
	customers := []models.Customer{
		cleanCustomer("c00001"),
		cleanCustomer("c00002"),
	}
	bad := cleanCustomer("c00003")
	bad.EmailValid = false
	customers = append(customers, bad)

	res := Customers(customers, partitionDate)
	assert.Equal(t, len(customers), len(res.Clean)+len(res.Quarantined))
	assert.Len(t, res.Clean, 2)
	require.Len(t, res.Quarantined, 1)
	assert.NotEmpty(t, res.Quarantined[0].RejectReasons)
	assert.Equal(t, 1, res.Reasons[models.ReasonInvalidEmail])
}

func TestReportCounts(t *testing.T) {
	res := Customers([]models.Customer{cleanCustomer("c00001")}, partitionDate)
	rep := Report(res, models.DedupeCounts{ByID: 2, FullRow: 3})

	assert.Equal(t, 1, rep.Total)
	assert.Equal(t, 1, rep.Clean)
	assert.Equal(t, 0, rep.Quarantine)
	assert.Equal(t, 2, rep.DuplicatesByID)
	assert.Equal(t, 3, rep.DuplicatesFullRow)
}

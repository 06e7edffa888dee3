// Package metrics aggregates per-date volume and quality statistics over the
// validation outputs. Pure aggregation, no I/O.
package metrics

import (
	"math"
	"sort"

	"github.com/feedqc/feedqc/pkg/models"
)

// Input carries one date's validation outputs into the aggregation.
type Input struct {
	CustomersClean      []models.Customer
	CustomersQuarantine []models.Quarantined[models.Customer]
	CustomersDupes      models.DedupeCounts

	EventsClean      []models.Event
	EventsQuarantine []models.Quarantined[models.Event]
	EventsDupes      models.DedupeCounts

	OrdersClean      []models.Order
	OrdersQuarantine []models.Quarantined[models.Order]
	OrdersDupes      models.DedupeCounts
}

// Percentile returns the p-th percentile of values using the nearest-rank
// method: the element at 1-based rank ceil(p/100*n) of the sorted values.
// p50 of [1,2,3,4] is therefore 2. Returns nil for an empty input.
func Percentile(values []float64, p float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	v := sorted[rank-1]
	return &v
}

// ComputeDaily builds the DailyMetrics row for one ingest date.
func ComputeDaily(ingestDate string, in Input) models.DailyMetrics {
	m := models.DailyMetrics{
		IngestDate:          ingestDate,
		CustomersClean:      len(in.CustomersClean),
		CustomersQuarantine: len(in.CustomersQuarantine),
		EventsClean:         len(in.EventsClean),
		EventsQuarantine:    len(in.EventsQuarantine),
		OrdersClean:         len(in.OrdersClean),
		OrdersQuarantine:    len(in.OrdersQuarantine),
		EventTypeCounts:     make(map[string]int),
		PlatformCounts:      make(map[string]int),
		OrderStatusCounts:   make(map[string]int),
	}
	m.CustomersTotal = m.CustomersClean + m.CustomersQuarantine
	m.EventsTotal = m.EventsClean + m.EventsQuarantine
	m.OrdersTotal = m.OrdersClean + m.OrdersQuarantine

	// Breakdowns and numeric percentiles over clean records only.
	activeEvents := make(map[string]struct{})
	durations := make([]float64, 0, len(in.EventsClean))
	for _, e := range in.EventsClean {
		m.EventTypeCounts[e.EventType]++
		m.PlatformCounts[e.Platform]++
		if e.CustomerID != "" {
			activeEvents[e.CustomerID] = struct{}{}
		}
		if e.DurationMS != nil {
			durations = append(durations, *e.DurationMS)
		}
	}
	activeOrders := make(map[string]struct{})
	amounts := make([]float64, 0, len(in.OrdersClean))
	for _, o := range in.OrdersClean {
		m.OrderStatusCounts[o.Status]++
		if o.CustomerID != "" {
			activeOrders[o.CustomerID] = struct{}{}
		}
		if o.Amount != nil {
			amounts = append(amounts, *o.Amount)
		}
	}
	m.ActiveCustomersEvents = len(activeEvents)
	m.ActiveCustomersOrders = len(activeOrders)
	m.DurationP50 = Percentile(durations, 50)
	m.DurationP95 = Percentile(durations, 95)
	m.AmountP50 = Percentile(amounts, 50)
	m.AmountP95 = Percentile(amounts, 95)

	m.InvalidTimestampRate = map[string]float64{
		string(models.DatasetCustomers): reasonRate(in.CustomersQuarantine, models.ReasonInvalidTimestamp, m.CustomersTotal),
		string(models.DatasetEvents):    reasonRate(in.EventsQuarantine, models.ReasonInvalidTimestamp, m.EventsTotal),
		string(models.DatasetOrders):    reasonRate(in.OrdersQuarantine, models.ReasonInvalidTimestamp, m.OrdersTotal),
	}
	m.OrphanRate = map[string]float64{
		string(models.DatasetEvents): reasonRate(in.EventsQuarantine, models.ReasonOrphanCustomer, m.EventsTotal),
		string(models.DatasetOrders): reasonRate(in.OrdersQuarantine, models.ReasonOrphanCustomer, m.OrdersTotal),
	}
	m.DuplicateRate = map[string]float64{
		string(models.DatasetCustomers): duplicateRate(in.CustomersDupes, m.CustomersTotal),
		string(models.DatasetEvents):    duplicateRate(in.EventsDupes, m.EventsTotal),
		string(models.DatasetOrders):    duplicateRate(in.OrdersDupes, m.OrdersTotal),
	}
	m.NullRates = nullRates(in)

	return m
}

// ComputeHourlyEvents counts clean events per UTC hour of day. Hours without
// events produce no row; the detector treats absent hours as zero.
func ComputeHourlyEvents(ingestDate string, cleanEvents []models.Event) []models.HourlyEventCount {
	byHour := make(map[int]int)
	for _, e := range cleanEvents {
		if e.EventTime == nil {
			continue
		}
		byHour[e.EventTime.UTC().Hour()]++
	}
	out := make([]models.HourlyEventCount, 0, len(byHour))
	for hour := 0; hour < 24; hour++ {
		if n, ok := byHour[hour]; ok {
			out = append(out, models.HourlyEventCount{IngestDate: ingestDate, Hour: hour, Count: n})
		}
	}
	return out
}

func reasonRate[T any](quarantined []models.Quarantined[T], reason models.RejectReason, total int) float64 {
	if total == 0 {
		return 0
	}
	count := 0
	for _, q := range quarantined {
		for _, r := range q.RejectReasons {
			if r == reason {
				count++
				break
			}
		}
	}
	return float64(count) / float64(total)
}

// duplicateRate relates removed duplicates to the raw pre-dedupe row count.
func duplicateRate(dupes models.DedupeCounts, postDedupeTotal int) float64 {
	removed := dupes.ByID + dupes.FullRow
	raw := postDedupeTotal + removed
	if raw == 0 {
		return 0
	}
	return float64(removed) / float64(raw)
}

// nullRates computes post-normalization null rates per key column over the
// union of clean and quarantined records, so parse failures count.
func nullRates(in Input) map[string]float64 {
	rates := make(map[string]float64)

	custTotal := len(in.CustomersClean) + len(in.CustomersQuarantine)
	custNull := 0
	for _, c := range in.CustomersClean {
		if c.CreatedAt == nil {
			custNull++
		}
	}
	for _, q := range in.CustomersQuarantine {
		if q.Record.CreatedAt == nil {
			custNull++
		}
	}
	rates["customers.created_at"] = rate(custNull, custTotal)

	evTotal := len(in.EventsClean) + len(in.EventsQuarantine)
	evTimeNull, evDurNull := 0, 0
	for _, e := range in.EventsClean {
		if e.EventTime == nil {
			evTimeNull++
		}
		if e.DurationMS == nil {
			evDurNull++
		}
	}
	for _, q := range in.EventsQuarantine {
		if q.Record.EventTime == nil {
			evTimeNull++
		}
		if q.Record.DurationMS == nil {
			evDurNull++
		}
	}
	rates["events.event_time"] = rate(evTimeNull, evTotal)
	rates["events.duration_ms"] = rate(evDurNull, evTotal)

	ordTotal := len(in.OrdersClean) + len(in.OrdersQuarantine)
	ordTimeNull, ordAmountNull := 0, 0
	for _, o := range in.OrdersClean {
		if o.OrderTime == nil {
			ordTimeNull++
		}
		if o.Amount == nil {
			ordAmountNull++
		}
	}
	for _, q := range in.OrdersQuarantine {
		if q.Record.OrderTime == nil {
			ordTimeNull++
		}
		if q.Record.Amount == nil {
			ordAmountNull++
		}
	}
	rates["orders.order_time"] = rate(ordTimeNull, ordTotal)
	rates["orders.amount"] = rate(ordAmountNull, ordTotal)

	return rates
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

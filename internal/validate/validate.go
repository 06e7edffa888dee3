// Package validate partitions deduplicated records into clean and quarantined
// sets. Every rule is evaluated for every record; reasons accumulate rather
// than short-circuiting, so a record failing several rules reports all of
// them. Quarantine is an output channel, not an error.
package validate

import (
	"time"

	"github.com/feedqc/feedqc/pkg/models"
)

// Result holds one dataset's validation outcome.
type Result[T any] struct {
	Clean       []T
	Quarantined []models.Quarantined[T]
	Reasons     map[models.RejectReason]int
}

func split[T any](records []T, check func(T) []models.RejectReason) Result[T] {
	res := Result[T]{
		Clean:   make([]T, 0, len(records)),
		Reasons: make(map[models.RejectReason]int),
	}
	for _, rec := range records {
		reasons := check(rec)
		if len(reasons) == 0 {
			res.Clean = append(res.Clean, rec)
			continue
		}
		for _, r := range reasons {
			res.Reasons[r]++
		}
		res.Quarantined = append(res.Quarantined, models.Quarantined[T]{Record: rec, RejectReasons: reasons})
	}
	return res
}

// Customers validates a customers batch against the partition date.
func Customers(records []models.Customer, partitionDate string) Result[models.Customer] {
	now := time.Now().UTC()
	return split(records, func(c models.Customer) []models.RejectReason {
		return CustomerReasons(c, partitionDate, now)
	})
}

// Events validates an events batch. cleanCustomerIDs must be the ids of the
// partition date's clean customers; referential integrity is never checked
// against raw or quarantined customers.
func Events(records []models.Event, cleanCustomerIDs map[string]struct{}, partitionDate string) Result[models.Event] {
	return split(records, func(e models.Event) []models.RejectReason {
		return EventReasons(e, cleanCustomerIDs, partitionDate)
	})
}

// Orders validates an orders batch against the clean customers set.
func Orders(records []models.Order, cleanCustomerIDs map[string]struct{}, partitionDate string) Result[models.Order] {
	return split(records, func(o models.Order) []models.RejectReason {
		return OrderReasons(o, cleanCustomerIDs, partitionDate)
	})
}

// CleanCustomerIDSet collects the distinct ids of clean customers for the
// referential checks on events and orders.
func CleanCustomerIDSet(clean []models.Customer) map[string]struct{} {
	ids := make(map[string]struct{}, len(clean))
	for _, c := range clean {
		if c.CustomerID != "" {
			ids[c.CustomerID] = struct{}{}
		}
	}
	return ids
}

// Report assembles a dataset report from a validation result and the dedupe
// counts observed before validation.
func Report[T any](res Result[T], dupes models.DedupeCounts) models.DatasetReport {
	return models.DatasetReport{
		Total:             len(res.Clean) + len(res.Quarantined),
		Clean:             len(res.Clean),
		Quarantine:        len(res.Quarantined),
		Reasons:           res.Reasons,
		DuplicatesByID:    dupes.ByID,
		DuplicatesFullRow: dupes.FullRow,
	}
}

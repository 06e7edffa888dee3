// Package dedupe removes duplicate records per dataset. One generic
// grouping/selection algorithm serves all three datasets; only the ranking
// policy differs.
package dedupe

import (
	"sort"

	"github.com/feedqc/feedqc/pkg/models"
)

// Policy ranks duplicate candidates for one dataset.
type Policy[T any] interface {
	// Key returns the identity key records are grouped by. Records with an
	// empty key bypass grouping entirely.
	Key(rec T) string
	// Compare applies the dataset's ordered tie-break chain. It returns a
	// positive value when a outranks b, negative when b outranks a, and zero
	// when every criterion ties.
	Compare(a, b T) int
}

// Deduplicate drops exact full-row duplicates, then keeps one winner per
// identity key according to the policy. When every policy criterion ties the
// later occurrence wins, so reprocessing the same input is deterministic.
// Winners come out in their original input order, which makes the pass
// idempotent: running it on its own output finds nothing to remove.
func Deduplicate[T any](records []T, fingerprint func(T) string, policy Policy[T]) ([]T, models.DedupeCounts) {
	var counts models.DedupeCounts

	// Full-row duplicates: keep the last occurrence of each fingerprint.
	lastByFP := make(map[string]int, len(records))
	for i, rec := range records {
		if fp := fingerprint(rec); fp != "" {
			lastByFP[fp] = i
		}
	}
	survivors := make([]T, 0, len(records))
	for i, rec := range records {
		fp := fingerprint(rec)
		if fp != "" && lastByFP[fp] != i {
			counts.FullRow++
			continue
		}
		survivors = append(survivors, rec)
	}

	// Group by identity key, preserving each record's position.
	type candidate struct {
		rec T
		idx int
	}
	groups := make(map[string][]candidate)
	order := make([]string, 0)
	keyless := make([]candidate, 0)
	for i, rec := range survivors {
		key := policy.Key(rec)
		if key == "" {
			keyless = append(keyless, candidate{rec, i})
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], candidate{rec, i})
	}

	winners := make([]candidate, 0, len(order)+len(keyless))
	for _, key := range order {
		group := groups[key]
		best := group[0]
		for _, cand := range group[1:] {
			if policy.Compare(cand.rec, best.rec) >= 0 {
				best = cand
			}
		}
		counts.ByID += len(group) - 1
		winners = append(winners, best)
	}
	winners = append(winners, keyless...)

	// Restore input order.
	sort.Slice(winners, func(i, j int) bool { return winners[i].idx < winners[j].idx })
	kept := make([]T, len(winners))
	for i, w := range winners {
		kept[i] = w.rec
	}
	return kept, counts
}

// Package alerts implements the partial-load heuristics: hourly coverage and
// volume drop against the trailing daily median. The two checks are
// independent; either, both, or neither may fire for a date.
package alerts

import (
	"sort"

	"github.com/feedqc/feedqc/pkg/models"
)

const expectedHours = 24

// Thresholds tune the partial-load heuristics.
type Thresholds struct {
	// MissingHours is the number of zero-event hours above which the
	// hourly-coverage alert fires.
	MissingHours int `json:"missing_hours" mapstructure:"missing_hours"`
	// TrailingDays is the required number of available prior days for the
	// volume-drop check. With fewer, the check is silently skipped.
	TrailingDays int `json:"trailing_days" mapstructure:"trailing_days"`
	// DropFraction is the relative drop against the trailing median above
	// which the volume-drop alert fires.
	DropFraction float64 `json:"drop_fraction" mapstructure:"drop_fraction"`
}

// DefaultThresholds returns the stock heuristic tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{MissingHours: 4, TrailingDays: 7, DropFraction: 0.5}
}

// Detect runs both heuristics for one ingest date. hourly is the date's clean
// event count per UTC hour (absent hours count as zero); history is the
// ordered series of prior days' clean event volumes, oldest first, and must
// not include the date under inspection.
func Detect(ingestDate string, hourly []models.HourlyEventCount, history []models.DailyVolume, th Thresholds) []models.Alert {
	alerts := make([]models.Alert, 0, 2)

	if a := checkHourlyCoverage(ingestDate, hourly, th); a != nil {
		alerts = append(alerts, *a)
	}
	if a := checkVolumeDrop(ingestDate, hourly, history, th); a != nil {
		alerts = append(alerts, *a)
	}
	return alerts
}

func checkHourlyCoverage(ingestDate string, hourly []models.HourlyEventCount, th Thresholds) *models.Alert {
	present := make(map[int]int, len(hourly))
	for _, h := range hourly {
		if h.IngestDate == ingestDate {
			present[h.Hour] = h.Count
		}
	}

	zeroHours := 0
	for hour := 0; hour < expectedHours; hour++ {
		if present[hour] == 0 {
			zeroHours++
		}
	}
	if zeroHours <= th.MissingHours {
		return nil
	}

	// A day with no events at all is a stronger signal than a gap.
	severity := models.SeverityMedium
	if zeroHours == expectedHours {
		severity = models.SeverityHigh
	}
	return &models.Alert{
		IngestDate: ingestDate,
		Kind:       models.AlertHourlyCoverage,
		Severity:   severity,
		Detail: map[string]interface{}{
			"missing_hours":  zeroHours,
			"expected_hours": expectedHours,
			"threshold":      th.MissingHours,
		},
	}
}

func checkVolumeDrop(ingestDate string, hourly []models.HourlyEventCount, history []models.DailyVolume, th Thresholds) *models.Alert {
	if len(history) < th.TrailingDays {
		return nil
	}
	window := history[len(history)-th.TrailingDays:]
	volumes := make([]float64, len(window))
	for i, d := range window {
		volumes[i] = float64(d.EventsClean)
	}
	med := median(volumes)
	if med <= 0 {
		return nil
	}

	today := 0.0
	for _, h := range hourly {
		if h.IngestDate == ingestDate {
			today += float64(h.Count)
		}
	}

	dropPct := (med - today) / med
	if dropPct <= th.DropFraction {
		return nil
	}
	return &models.Alert{
		IngestDate: ingestDate,
		Kind:       models.AlertVolumeDrop,
		Severity:   models.SeverityHigh,
		Detail: map[string]interface{}{
			"today":         today,
			"median":        med,
			"drop_pct":      dropPct,
			"trailing_days": th.TrailingDays,
		},
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

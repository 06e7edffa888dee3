package alerts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedqc/feedqc/pkg/models"
)

const date = "2025-07-10"

func hourlyFor(hours ...int) []models.HourlyEventCount {
	out := make([]models.HourlyEventCount, 0, len(hours))
	for _, h := range hours {
		out = append(out, models.HourlyEventCount{IngestDate: date, Hour: h, Count: 10})
	}
	return out
}

func volumes(counts ...int) []models.DailyVolume {
	out := make([]models.DailyVolume, 0, len(counts))
	for i, c := range counts {
		out = append(out, models.DailyVolume{IngestDate: fmt.Sprintf("2025-07-%02d", i+1), EventsClean: c})
	}
	return out
}

func TestHourlyCoverageFiresAboveThreshold(t *testing.T) {
	// Events in 5 hours only: 19 zero hours, well above the threshold of 4.
	hourly := hourlyFor(0, 1, 2, 3, 4)
	alerts := Detect(date, hourly, nil, DefaultThresholds())

	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, models.AlertHourlyCoverage, a.Kind)
	assert.Equal(t, models.SeverityMedium, a.Severity)
	assert.Equal(t, 19, a.Detail["missing_hours"])
}

func TestHourlyCoverageQuietAtOrBelowThreshold(t *testing.T) {
	// 23 covered hours, 1 missing.
	hours := make([]int, 0, 23)
	for h := 0; h < 23; h++ {
		hours = append(hours, h)
	}
	alerts := Detect(date, hourlyFor(hours...), nil, DefaultThresholds())
	assert.Empty(t, alerts)

	// Exactly at the threshold: 4 missing does not fire.
	hours = hours[:20]
	alerts = Detect(date, hourlyFor(hours...), nil, DefaultThresholds())
	assert.Empty(t, alerts)
}

func TestHourlyCoverageEmptyDayIsHighSeverity(t *testing.T) {
	alerts := Detect(date, nil, nil, DefaultThresholds())

	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertHourlyCoverage, alerts[0].Kind)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, 24, alerts[0].Detail["missing_hours"])
}

func TestHourlyCoverageCountsZeroCountRows(t *testing.T) {
	// A persisted row with count zero is still a missing hour.
	hourly := hourlyFor(0, 1, 2, 3, 4)
	hourly = append(hourly, models.HourlyEventCount{IngestDate: date, Hour: 5, Count: 0})
	alerts := Detect(date, hourly, nil, DefaultThresholds())

	require.Len(t, alerts, 1)
	assert.Equal(t, 19, alerts[0].Detail["missing_hours"])
}

func TestVolumeDropFires(t *testing.T) {
	history := volumes(100, 110, 90, 105, 95, 100, 98)
	// 40 events today against a trailing median of 100: 60% drop. Full hourly
	// coverage keeps the coverage alert quiet.
	alerts := Detect(date, hourlyTotaling(40), history, DefaultThresholds())

	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, models.AlertVolumeDrop, a.Kind)
	assert.Equal(t, models.SeverityHigh, a.Severity)
	assert.InDelta(t, 100.0, a.Detail["median"].(float64), 1e-9)
	assert.InDelta(t, 0.6, a.Detail["drop_pct"].(float64), 1e-3)
}

func TestVolumeDropSkippedWithShortHistory(t *testing.T) {
	history := volumes(100, 110, 90, 105, 95) // only five prior days

	alerts := Detect(date, hourlyTotaling(24), history, DefaultThresholds())
	assert.Nil(t, findKind(alerts, models.AlertVolumeDrop))
}

func TestVolumeDropExactlyAtThresholdDoesNotFire(t *testing.T) {
	history := volumes(100, 100, 100, 100, 100, 100, 100)

	alerts := Detect(date, hourlyTotaling(50), history, DefaultThresholds())
	assert.Nil(t, findKind(alerts, models.AlertVolumeDrop))
}

func TestVolumeDropUsesTrailingWindowOnly(t *testing.T) {
	// Old low-volume days outside the 7-day window must not dilute the median.
	history := append(volumes(1, 1, 1), volumes(100, 110, 90, 105, 95, 100, 98)...)

	alerts := Detect(date, hourlyTotaling(40), history, DefaultThresholds())
	found := findKind(alerts, models.AlertVolumeDrop)
	require.NotNil(t, found)
	assert.InDelta(t, 100.0, found.Detail["median"].(float64), 1e-9)
}

func TestDetectIgnoresOtherDatesHourlyRows(t *testing.T) {
	full := fullCoverage()
	stray := models.HourlyEventCount{IngestDate: "2025-07-09", Hour: 12, Count: 500}

	alerts := Detect(date, append(full, stray), nil, DefaultThresholds())
	assert.Empty(t, alerts)
}

func TestMedianEvenCount(t *testing.T) {
	assert.Equal(t, 15.0, median([]float64{10, 20, 30, 0}))
	assert.Equal(t, 20.0, median([]float64{10, 20, 30}))
	assert.Zero(t, median(nil))
}

func fullCoverage() []models.HourlyEventCount {
	return hourlyTotaling(240)
}

// hourlyTotaling spreads total events over all 24 hours so only the
// volume-drop heuristic can fire.
func hourlyTotaling(total int) []models.HourlyEventCount {
	base, rem := total/24, total%24
	out := make([]models.HourlyEventCount, 0, 24)
	for h := 0; h < 24; h++ {
		n := base
		if h < rem {
			n++
		}
		out = append(out, models.HourlyEventCount{IngestDate: date, Hour: h, Count: n})
	}
	return out
}

func findKind(alerts []models.Alert, kind models.AlertKind) *models.Alert {
	for i := range alerts {
		if alerts[i].Kind == kind {
			return &alerts[i]
		}
	}
	return nil
}

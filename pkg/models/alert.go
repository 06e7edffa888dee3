package models

// AlertKind identifies a partial-load heuristic.
type AlertKind string

const (
	AlertHourlyCoverage AlertKind = "hourly_coverage"
	AlertVolumeDrop     AlertKind = "volume_drop"
)

// AlertSeverity ranks how strongly a heuristic fired.
type AlertSeverity string

const (
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// Alert is one partial-load finding for an ingest date. Detail carries the
// heuristic's numeric evidence.
type Alert struct {
	IngestDate string                 `json:"ingest_date"`
	Kind       AlertKind              `json:"kind"`
	Severity   AlertSeverity          `json:"severity"`
	Detail     map[string]interface{} `json:"detail"`
}

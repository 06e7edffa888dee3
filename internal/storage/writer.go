package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/feedqc/feedqc/pkg/errors"
	"github.com/feedqc/feedqc/pkg/models"
)

// Writer persists one run's outputs under the output directory:
//
//	clean/<dataset>/ingest_date=<date>/part-00000.csv
//	quarantine/<dataset>/ingest_date=<date>/part-00000.csv
//	reports/ingest_date=<date>/{validation_report,alerts,daily_metrics}.json
//	metrics/{daily_metrics,hourly_events}.csv
//
// Every write is atomic-by-replacement: content goes to a temporary path
// first and is renamed over the final one, so a failed run never leaves a
// date's outputs half-overwritten and reruns replace partitions wholesale.
type Writer struct {
	outDir string
	logger *logrus.Logger

	// Serializes access to the shared metrics series files when dates are
	// processed by concurrent workers.
	mu sync.Mutex
}

const (
	partFileName     = "part-00000.csv"
	dailySeriesFile  = "daily_metrics.csv"
	hourlySeriesFile = "hourly_events.csv"
)

// NewWriter creates a writer rooted at outDir.
func NewWriter(outDir string, logger *logrus.Logger) *Writer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Writer{outDir: outDir, logger: logger}
}

// WriteCustomers persists the clean and quarantined customer partitions.
func (w *Writer) WriteCustomers(date string, clean []models.Customer, quarantined []models.Quarantined[models.Customer]) error {
	header := []string{"customer_id", "email", "email_valid", "created_at_utc", "country", "status", "ingest_date"}
	row := func(c models.Customer) []string {
		return []string{
			c.CustomerID, c.Email, strconv.FormatBool(c.EmailValid),
			formatTime(c.CreatedAt), c.Country, c.Status, c.IngestDate,
		}
	}
	if err := w.writePartition("clean", models.DatasetCustomers, date, header, mapRows(clean, row)); err != nil {
		return err
	}
	return w.writePartition("quarantine", models.DatasetCustomers, date,
		append(header, "reject_reasons"), quarantineRows(quarantined, row))
}

// WriteEvents persists the clean and quarantined event partitions.
func (w *Writer) WriteEvents(date string, clean []models.Event, quarantined []models.Quarantined[models.Event]) error {
	header := []string{"event_id", "customer_id", "event_time_utc", "event_type", "platform", "session_id", "duration_ms", "ingest_date"}
	row := func(e models.Event) []string {
		return []string{
			e.EventID, e.CustomerID, formatTime(e.EventTime), e.EventType,
			e.Platform, e.SessionID, formatFloat(e.DurationMS), e.IngestDate,
		}
	}
	if err := w.writePartition("clean", models.DatasetEvents, date, header, mapRows(clean, row)); err != nil {
		return err
	}
	return w.writePartition("quarantine", models.DatasetEvents, date,
		append(header, "reject_reasons"), quarantineRows(quarantined, row))
}

// WriteOrders persists the clean and quarantined order partitions.
func (w *Writer) WriteOrders(date string, clean []models.Order, quarantined []models.Quarantined[models.Order]) error {
	header := []string{"order_id", "customer_id", "order_time_utc", "amount", "currency", "status", "ingest_date"}
	row := func(o models.Order) []string {
		return []string{
			o.OrderID, o.CustomerID, formatTime(o.OrderTime), formatFloat(o.Amount),
			o.Currency, o.Status, o.IngestDate,
		}
	}
	if err := w.writePartition("clean", models.DatasetOrders, date, header, mapRows(clean, row)); err != nil {
		return err
	}
	return w.writePartition("quarantine", models.DatasetOrders, date,
		append(header, "reject_reasons"), quarantineRows(quarantined, row))
}

// WriteValidationReport persists the per-date validation report as JSON.
func (w *Writer) WriteValidationReport(date string, report models.ValidationReport) error {
	return w.writeJSON(date, "validation_report.json", report)
}

// WriteDailyMetrics persists the full per-date metrics document as JSON.
func (w *Writer) WriteDailyMetrics(date string, m models.DailyMetrics) error {
	return w.writeJSON(date, "daily_metrics.json", m)
}

// WriteAlerts persists the date's alerts as JSON, an empty array when none
// fired.
func (w *Writer) WriteAlerts(date string, alerts []models.Alert) error {
	if alerts == nil {
		alerts = []models.Alert{}
	}
	return w.writeJSON(date, "alerts.json", alerts)
}

// UpsertDailyMetrics appends the date's row to the long-lived daily metrics
// series, replacing any existing rows for the same date so reruns stay
// idempotent.
func (w *Writer) UpsertDailyMetrics(m models.DailyMetrics) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join(w.outDir, "metrics", dailySeriesFile)
	header := []string{
		"ingest_date",
		"customers_total", "customers_clean", "customers_quarantine",
		"events_total", "events_clean", "events_quarantine",
		"orders_total", "orders_clean", "orders_quarantine",
		"active_customers_events", "active_customers_orders",
		"duration_ms_p50", "duration_ms_p95", "amount_p50", "amount_p95",
	}
	row := []string{
		m.IngestDate,
		strconv.Itoa(m.CustomersTotal), strconv.Itoa(m.CustomersClean), strconv.Itoa(m.CustomersQuarantine),
		strconv.Itoa(m.EventsTotal), strconv.Itoa(m.EventsClean), strconv.Itoa(m.EventsQuarantine),
		strconv.Itoa(m.OrdersTotal), strconv.Itoa(m.OrdersClean), strconv.Itoa(m.OrdersQuarantine),
		strconv.Itoa(m.ActiveCustomersEvents), strconv.Itoa(m.ActiveCustomersOrders),
		formatFloat(m.DurationP50), formatFloat(m.DurationP95),
		formatFloat(m.AmountP50), formatFloat(m.AmountP95),
	}
	return w.upsertSeries(path, header, m.IngestDate, [][]string{row})
}

// UpsertHourlyEvents replaces the date's rows in the hourly event series.
func (w *Writer) UpsertHourlyEvents(date string, counts []models.HourlyEventCount) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join(w.outDir, "metrics", hourlySeriesFile)
	header := []string{"ingest_date", "hour_utc", "event_count"}
	rows := make([][]string, 0, len(counts))
	for _, h := range counts {
		rows = append(rows, []string{h.IngestDate, strconv.Itoa(h.Hour), strconv.Itoa(h.Count)})
	}
	return w.upsertSeries(path, header, date, rows)
}

// LoadDailyVolumes reads the daily metrics series into the detector's
// historical volume lookup, ordered by ingest date. A missing series file
// means no history yet.
func (w *Writer) LoadDailyVolumes() ([]models.DailyVolume, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, header, err := w.readSeries(filepath.Join(w.outDir, "metrics", dailySeriesFile))
	if err != nil || rows == nil {
		return nil, err
	}
	dateIdx, volIdx := indexOf(header, "ingest_date"), indexOf(header, "events_clean")
	if dateIdx < 0 || volIdx < 0 {
		return nil, apperrors.NewStorageError("SERIES_SCHEMA_INVALID", "daily metrics series is missing required columns")
	}
	volumes := make([]models.DailyVolume, 0, len(rows))
	for _, r := range rows {
		if len(r) <= dateIdx || len(r) <= volIdx {
			continue
		}
		n, err := strconv.Atoi(r[volIdx])
		if err != nil {
			continue
		}
		volumes = append(volumes, models.DailyVolume{IngestDate: r[dateIdx], EventsClean: n})
	}
	sort.Slice(volumes, func(i, j int) bool { return volumes[i].IngestDate < volumes[j].IngestDate })
	return volumes, nil
}

func (w *Writer) writePartition(channel string, dataset models.DatasetKind, date string, header []string, rows [][]string) error {
	finalDir := filepath.Join(w.outDir, channel, string(dataset), "ingest_date="+date)
	tmpDir := finalDir + ".tmp"

	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeStorage, "PARTITION_DIR_FAILED",
			fmt.Sprintf("cannot create partition directory %s", tmpDir))
	}
	if err := writeCSVFile(filepath.Join(tmpDir, partFileName), header, rows); err != nil {
		os.RemoveAll(tmpDir)
		return err
	}
	if err := os.RemoveAll(finalDir); err != nil {
		os.RemoveAll(tmpDir)
		return apperrors.WrapError(err, apperrors.ErrorTypeStorage, "PARTITION_SWAP_FAILED",
			fmt.Sprintf("cannot replace partition %s", finalDir))
	}
	if err := os.Rename(tmpDir, finalDir); err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeStorage, "PARTITION_SWAP_FAILED",
			fmt.Sprintf("cannot swap partition %s into place", finalDir))
	}

	w.logger.WithFields(logrus.Fields{
		"channel":     channel,
		"dataset":     dataset,
		"ingest_date": date,
		"rows":        len(rows),
	}).Debug("Partition written")

	return nil
}

func (w *Writer) writeJSON(date, name string, v interface{}) error {
	dir := filepath.Join(w.outDir, "reports", "ingest_date="+date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeStorage, "REPORT_DIR_FAILED",
			fmt.Sprintf("cannot create report directory %s", dir))
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeStorage, "REPORT_ENCODE_FAILED",
			fmt.Sprintf("cannot encode %s", name))
	}
	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeStorage, "REPORT_WRITE_FAILED",
			fmt.Sprintf("cannot write %s", tmp))
	}
	return os.Rename(tmp, path)
}

// upsertSeries rewrites a series file with the date's previous rows removed
// and the new rows appended, sorted by the leading ingest_date column.
func (w *Writer) upsertSeries(path string, header []string, date string, newRows [][]string) error {
	existing, existingHeader, err := w.readSeries(path)
	if err != nil {
		return err
	}
	kept := make([][]string, 0, len(existing)+len(newRows))
	if existingHeader != nil {
		dateIdx := indexOf(existingHeader, "ingest_date")
		for _, r := range existing {
			if dateIdx >= 0 && dateIdx < len(r) && r[dateIdx] == date {
				continue
			}
			kept = append(kept, r)
		}
	}
	kept = append(kept, newRows...)
	sort.SliceStable(kept, func(i, j int) bool { return kept[i][0] < kept[j][0] })

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeStorage, "SERIES_DIR_FAILED",
			fmt.Sprintf("cannot create metrics directory %s", filepath.Dir(path)))
	}
	tmp := path + ".tmp"
	if err := writeCSVFile(tmp, header, kept); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (w *Writer) readSeries(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, apperrors.WrapError(err, apperrors.ErrorTypeStorage, "SERIES_UNREADABLE",
			fmt.Sprintf("cannot open series file %s", path))
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, apperrors.WrapError(err, apperrors.ErrorTypeStorage, "SERIES_UNREADABLE",
			fmt.Sprintf("cannot parse series file %s", path))
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[1:], all[0], nil
}

func writeCSVFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeStorage, "FILE_CREATE_FAILED",
			fmt.Sprintf("cannot create %s", path))
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		f.Close()
		return apperrors.WrapError(err, apperrors.ErrorTypeStorage, "FILE_WRITE_FAILED",
			fmt.Sprintf("cannot write header of %s", path))
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			f.Close()
			return apperrors.WrapError(err, apperrors.ErrorTypeStorage, "FILE_WRITE_FAILED",
				fmt.Sprintf("cannot write row to %s", path))
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return apperrors.WrapError(err, apperrors.ErrorTypeStorage, "FILE_WRITE_FAILED",
			fmt.Sprintf("cannot flush %s", path))
	}
	return f.Close()
}

func mapRows[T any](records []T, row func(T) []string) [][]string {
	out := make([][]string, len(records))
	for i, rec := range records {
		out[i] = row(rec)
	}
	return out
}

// quarantineRows appends the ordered reject reasons, pipe-separated, as the
// trailing column.
func quarantineRows[T any](quarantined []models.Quarantined[T], row func(T) []string) [][]string {
	out := make([][]string, len(quarantined))
	for i, q := range quarantined {
		reasons := make([]string, len(q.RejectReasons))
		for j, r := range q.RejectReasons {
			reasons[j] = string(r)
		}
		out[i] = append(row(q.Record), strings.Join(reasons, "|"))
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

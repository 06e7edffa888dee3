// Package pipeline orchestrates one ingest date end to end: read raw feeds,
// normalize, deduplicate, validate, compute metrics, persist outputs, and run
// the partial-load heuristics. Customers are finalized before events and
// orders because referential integrity is checked against the date's clean
// customers.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/feedqc/feedqc/internal/alerts"
	"github.com/feedqc/feedqc/internal/config"
	"github.com/feedqc/feedqc/internal/dedupe"
	"github.com/feedqc/feedqc/internal/metrics"
	"github.com/feedqc/feedqc/internal/normalize"
	"github.com/feedqc/feedqc/internal/storage"
	"github.com/feedqc/feedqc/internal/validate"
	apperrors "github.com/feedqc/feedqc/pkg/errors"
	"github.com/feedqc/feedqc/pkg/models"
)

// Runner executes the pipeline for one or more ingest dates.
type Runner struct {
	cfg    *config.Config
	logger *logrus.Logger
	reader *storage.Reader
	writer *storage.Writer
}

// NewRunner wires a runner from resolved configuration.
func NewRunner(cfg *config.Config, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{
		cfg:    cfg,
		logger: logger,
		reader: storage.NewReader(cfg.DataDir, logger),
		writer: storage.NewWriter(cfg.OutDir, logger),
	}
}

// Run processes the given dates with a pool of workers. Dates are
// independent; only the metrics series is shared, and the writer serializes
// access to it. The first fatal error is returned after all workers drain.
// Record-level problems never fail a run.
func (r *Runner) Run(ctx context.Context, dates []string) error {
	workers := r.cfg.Workers
	if workers > len(dates) {
		workers = len(dates)
	}
	if workers < 1 {
		workers = 1
	}

	queue := make(chan string)
	errs := make(chan error, len(dates))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for date := range queue {
				if err := r.ProcessDate(ctx, date); err != nil {
					r.logger.WithFields(logrus.Fields{
						"ingest_date": date,
						"worker_id":   workerID,
					}).WithError(err).Error("Date failed")
					errs <- err
				}
			}
		}(i)
	}

	for _, date := range dates {
		select {
		case <-ctx.Done():
		case queue <- date:
		}
	}
	close(queue)
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return err
	}
	return ctx.Err()
}

// ProcessDate runs the full pipeline for one ingest date. On a fatal setup
// error nothing is written for the date.
func (r *Runner) ProcessDate(ctx context.Context, date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return apperrors.ErrInvalidDate.WithContext("ingest_date", date)
	}

	start := time.Now()
	logger := r.logger.WithFields(logrus.Fields{
		"ingest_date": date,
		"run_id":      uuid.NewString(),
	})
	logger.Info("Processing ingest date")

	// Read and normalize all three feeds before any output is written, so a
	// missing or unreadable file aborts the date cleanly.
	var customers []models.Customer
	if _, err := r.reader.ReadRows(date, models.DatasetCustomers, func(row map[string]string) error {
		customers = append(customers, normalize.Customer(row))
		return nil
	}); err != nil {
		return err
	}
	var events []models.Event
	if _, err := r.reader.ReadRows(date, models.DatasetEvents, func(row map[string]string) error {
		events = append(events, normalize.Event(row))
		return nil
	}); err != nil {
		return err
	}
	var orders []models.Order
	if _, err := r.reader.ReadRows(date, models.DatasetOrders, func(row map[string]string) error {
		orders = append(orders, normalize.Order(row))
		return nil
	}); err != nil {
		return err
	}

	customers, customerDupes := dedupe.Customers(customers)
	events, eventDupes := dedupe.Events(events)
	orders, orderDupes := dedupe.Orders(orders)

	// Customers first: events/orders validate against the clean customer set.
	custResult := validate.Customers(customers, date)
	cleanIDs := validate.CleanCustomerIDSet(custResult.Clean)
	eventResult := validate.Events(events, cleanIDs, date)
	orderResult := validate.Orders(orders, cleanIDs, date)

	report := models.ValidationReport{
		IngestDate: date,
		Customers:  validate.Report(custResult, customerDupes),
		Events:     validate.Report(eventResult, eventDupes),
		Orders:     validate.Report(orderResult, orderDupes),
	}

	daily := metrics.ComputeDaily(date, metrics.Input{
		CustomersClean:      custResult.Clean,
		CustomersQuarantine: custResult.Quarantined,
		CustomersDupes:      customerDupes,
		EventsClean:         eventResult.Clean,
		EventsQuarantine:    eventResult.Quarantined,
		EventsDupes:         eventDupes,
		OrdersClean:         orderResult.Clean,
		OrdersQuarantine:    orderResult.Quarantined,
		OrdersDupes:         orderDupes,
	})
	hourly := metrics.ComputeHourlyEvents(date, eventResult.Clean)

	if err := r.persist(date, custResult, eventResult, orderResult, report, daily, hourly); err != nil {
		return err
	}

	// History is read after today's upsert; the detector only consumes rows
	// strictly before the date under inspection.
	history, err := r.writer.LoadDailyVolumes()
	if err != nil {
		return err
	}
	prior := make([]models.DailyVolume, 0, len(history))
	for _, v := range history {
		if v.IngestDate < date {
			prior = append(prior, v)
		}
	}
	dateAlerts := alerts.Detect(date, hourly, prior, r.cfg.Alerts)
	if err := r.writer.WriteAlerts(date, dateAlerts); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"customers_clean":      report.Customers.Clean,
		"customers_quarantine": report.Customers.Quarantine,
		"events_clean":         report.Events.Clean,
		"events_quarantine":    report.Events.Quarantine,
		"orders_clean":         report.Orders.Clean,
		"orders_quarantine":    report.Orders.Quarantine,
		"alerts":               len(dateAlerts),
		"duration":             time.Since(start),
	}).Info("Ingest date completed")

	return nil
}

func (r *Runner) persist(
	date string,
	custResult validate.Result[models.Customer],
	eventResult validate.Result[models.Event],
	orderResult validate.Result[models.Order],
	report models.ValidationReport,
	daily models.DailyMetrics,
	hourly []models.HourlyEventCount,
) error {
	if err := r.writer.WriteCustomers(date, custResult.Clean, custResult.Quarantined); err != nil {
		return err
	}
	if err := r.writer.WriteEvents(date, eventResult.Clean, eventResult.Quarantined); err != nil {
		return err
	}
	if err := r.writer.WriteOrders(date, orderResult.Clean, orderResult.Quarantined); err != nil {
		return err
	}
	if err := r.writer.WriteValidationReport(date, report); err != nil {
		return err
	}
	if err := r.writer.WriteDailyMetrics(date, daily); err != nil {
		return err
	}
	if err := r.writer.UpsertHourlyEvents(date, hourly); err != nil {
		return err
	}
	return r.writer.UpsertDailyMetrics(daily)
}

// DateRange expands an inclusive start/end pair into the list of dates to
// process, oldest first.
func DateRange(start, end string) ([]string, error) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, apperrors.ErrInvalidDate.WithContext("date", start)
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, apperrors.ErrInvalidDate.WithContext("date", end)
	}
	if e.Before(s) {
		return nil, apperrors.ErrInvalidDateRange.WithContext("start", start).WithContext("end", end)
	}
	var dates []string
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates, nil
}

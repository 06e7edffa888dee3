package commands

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type GenerateOptions struct {
	OutDir      string
	Date        string
	Start       string
	End         string
	Customers   int
	Events      int
	Orders      int
	PartialLoad string
	Seed        int64
}

// NewGenerateCmd builds the synthetic raw feed generator. The feeds are
// deliberately messy: mixed timestamp formats and timezones, duplicate rows,
// orphan customer ids, unknown categories, bad durations and amounts, and an
// optional partial-load gap of six consecutive missing hours.
func NewGenerateCmd() *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate synthetic raw feeds for testing",
		Example: `  # Two weeks of feeds with a partial load on the 10th
  feedqc generate --start 2025-07-01 --end 2025-07-14 \
    --out-dir data/raw --partial-load 2025-07-10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts)
		},
	}

	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "data/raw", "Directory for the generated ingest_date partitions")
	cmd.Flags().StringVar(&opts.Date, "date", "", "Single ingest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Start, "start", "", "Range start date, inclusive")
	cmd.Flags().StringVar(&opts.End, "end", "", "Range end date, inclusive")
	cmd.Flags().IntVar(&opts.Customers, "customers", 200, "Customers per day")
	cmd.Flags().IntVar(&opts.Events, "events", 5000, "Events per day")
	cmd.Flags().IntVar(&opts.Orders, "orders", 400, "Orders per day")
	cmd.Flags().StringVar(&opts.PartialLoad, "partial-load", "", "Comma-separated dates that get a 6-hour feed gap")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 42, "Base random seed")

	return cmd
}

func runGenerate(opts *GenerateOptions) error {
	dates, err := resolveDates(&RunOptions{Date: opts.Date, Start: opts.Start, End: opts.End})
	if err != nil {
		return err
	}
	partial := make(map[string]bool)
	for _, d := range strings.Split(opts.PartialLoad, ",") {
		if d = strings.TrimSpace(d); d != "" {
			partial[d] = true
		}
	}

	logger := logrus.New()
	for _, date := range dates {
		g := newFeedGenerator(opts, date, partial[date])
		if err := g.writeDay(opts.OutDir); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"ingest_date":  date,
			"partial_load": partial[date],
		}).Info("Feeds generated")
	}
	fmt.Printf("Generated feeds for %d date(s) under %s\n", len(dates), opts.OutDir)
	return nil
}

type feedGenerator struct {
	opts    *GenerateOptions
	date    string
	day     time.Time
	rand    *rand.Rand
	gapFrom int // first missing hour when partial, -1 otherwise
}

func newFeedGenerator(opts *GenerateOptions, date string, partial bool) *feedGenerator {
	// Seed derived from the date so regenerating a day is reproducible.
	seed := opts.Seed + int64(crc(date))
	rng := rand.New(rand.NewSource(seed))
	day, _ := time.Parse("2006-01-02", date)

	gapFrom := -1
	if partial {
		gapFrom = rng.Intn(11)
	}
	return &feedGenerator{opts: opts, date: date, day: day.UTC(), rand: rng, gapFrom: gapFrom}
}

func crc(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func (g *feedGenerator) writeDay(outDir string) error {
	dir := filepath.Join(outDir, "ingest_date="+g.date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := g.writeCustomers(filepath.Join(dir, "customers_raw.csv")); err != nil {
		return err
	}
	if err := g.writeEvents(filepath.Join(dir, "events_raw.csv")); err != nil {
		return err
	}
	return g.writeOrders(filepath.Join(dir, "orders_raw.csv"))
}

func (g *feedGenerator) writeCustomers(path string) error {
	countries := []string{"US", "usa", "United States", "IN", "india", "GB", "uk", "BR", "N/A", ""}
	statuses := []string{"active", "ACTIVE", "inactive", "banned", "", "actve"}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := [][]string{{"customer_id", "email", "created_at", "country", "status", "ingest_date"}}
	for i := 0; i < g.opts.Customers; i++ {
		cid := fmt.Sprintf("c%05d", i)
		created := base.AddDate(0, 0, g.rand.Intn(300)).Add(time.Duration(g.rand.Intn(24)) * time.Hour)
		createdStr := created.Format("2006-01-02 15:04:05")
		if g.rand.Float64() >= 0.6 {
			createdStr = created.Format(time.RFC3339)
		}
		email := fmt.Sprintf("user%d@example.com", i)
		if g.rand.Float64() >= 0.9 {
			email = fmt.Sprintf("user%dexample.com", i)
		}
		ingest := g.date
		if g.rand.Float64() >= 0.9 {
			ingest = "2099-01-01"
		}
		row := []string{cid, email, createdStr, pick(g.rand, countries), pick(g.rand, statuses), ingest}
		rows = append(rows, row)
		// Occasional duplicate with an unparseable created_at.
		if g.rand.Float64() < 0.05 {
			dup := append([]string(nil), row...)
			dup[2] = "not a date"
			rows = append(rows, dup)
		}
	}
	return writeCSV(path, rows)
}

func (g *feedGenerator) writeEvents(path string) error {
	eventTypes := []string{"login", "feature_use", "error", "Logout", "FEATURE_USE", "", "paywall_view"}
	platforms := []string{"ios", "android", "web", "iPhone", "browser", "AND", ""}
	offset := time.FixedZone("UTC-5", -5*3600)

	rows := [][]string{{"event_id", "customer_id", "event_time", "event_type", "platform", "session_id", "duration_ms", "ingest_date"}}
	for i := 0; i < g.opts.Events; i++ {
		eid := randID(g.rand, "e")
		cid := fmt.Sprintf("c%05d", g.rand.Intn(g.opts.Customers))
		if g.rand.Float64() < 0.02 {
			cid = "unknown_" + cid
		}

		hr := g.rand.Intn(24)
		if g.gapFrom >= 0 && hr >= g.gapFrom && hr < g.gapFrom+6 {
			hr = (hr + 7) % 24
		}
		ts := g.day.Add(time.Duration(hr)*time.Hour +
			time.Duration(g.rand.Intn(60))*time.Minute +
			time.Duration(g.rand.Intn(60))*time.Second)

		var tsStr string
		switch r := g.rand.Float64(); {
		case r < 0.6:
			tsStr = ts.Format("2006-01-02 15:04:05")
		case r < 0.85:
			tsStr = ts.In(offset).Format(time.RFC3339)
		default:
			tsStr = "bad-ts"
		}

		dur := int(g.rand.ExpFloat64() * 120000)
		if g.rand.Float64() < 0.01 {
			dur = -dur
		}
		if g.rand.Float64() < 0.005 {
			dur = 999999999
		}

		session := randID(g.rand, "s")
		if g.rand.Float64() >= 0.8 {
			session = ""
		}

		row := []string{eid, cid, tsStr, pick(g.rand, eventTypes), pick(g.rand, platforms), session, strconv.Itoa(dur), g.date}
		rows = append(rows, row)
		// Full-row duplicates and id collisions with degraded copies.
		if g.rand.Float64() < 0.01 {
			rows = append(rows, append([]string(nil), row...))
		}
		if g.rand.Float64() < 0.01 {
			degraded := append([]string(nil), row...)
			degraded[2] = ""
			degraded[6] = ""
			rows = append(rows, degraded)
		}
	}
	return writeCSV(path, rows)
}

func (g *feedGenerator) writeOrders(path string) error {
	currencies := []string{"USD", "usd", "$", "EUR", "eur", "XyZ", ""}
	statuses := []string{"paid", "succeeded", "failed", "refunded", "chargeback", ""}

	rows := [][]string{{"order_id", "customer_id", "order_time", "amount", "currency", "status", "ingest_date"}}
	for i := 0; i < g.opts.Orders; i++ {
		oid := randID(g.rand, "o")
		cid := fmt.Sprintf("c%05d", g.rand.Intn(g.opts.Customers))
		if g.rand.Float64() < 0.02 {
			cid = "unknown_" + cid
		}
		ts := g.day.Add(time.Duration(g.rand.Intn(24))*time.Hour + time.Duration(g.rand.Intn(3600))*time.Second)

		status := pick(g.rand, statuses)
		amount := float64(g.rand.Intn(20000)) / 100
		switch {
		case status == "failed" && g.rand.Float64() < 0.7:
			amount = 0
		case g.rand.Float64() < 0.02:
			amount = -amount
		case status == "paid" && g.rand.Float64() < 0.02:
			amount = 0
		}

		row := []string{
			oid, cid, ts.Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(amount, 'f', 2, 64),
			pick(g.rand, currencies), status, g.date,
		}
		rows = append(rows, row)
		if g.rand.Float64() < 0.02 {
			rows = append(rows, append([]string(nil), row...))
		}
	}
	return writeCSV(path, rows)
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func randID(rng *rand.Rand, prefix string) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 8)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return prefix + string(b)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

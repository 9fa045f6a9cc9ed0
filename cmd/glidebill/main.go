// Command glidebill runs one gliding-club billing pass: it loads a run
// configuration document, builds the year's rule tree in code, loads and
// validates the configured CSV/NDA inputs, evaluates every event against
// the rule tree, assembles and writes invoices, and records a run audit
// row and a metrics textfile. Wired the way cmd/valora/main.go wires its
// long-running HTTP app, except every module here composes under a single
// fx.Invoke that runs to completion and exits.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/glidebill/internal/audit"
	auditdomain "github.com/smallbiznis/glidebill/internal/audit/domain"
	"github.com/smallbiznis/glidebill/internal/billingctx"
	"github.com/smallbiznis/glidebill/internal/config"
	"github.com/smallbiznis/glidebill/internal/engine"
	"github.com/smallbiznis/glidebill/internal/event"
	"github.com/smallbiznis/glidebill/internal/ids"
	"github.com/smallbiznis/glidebill/internal/invoice"
	"github.com/smallbiznis/glidebill/internal/loader"
	"github.com/smallbiznis/glidebill/internal/logger"
	"github.com/smallbiznis/glidebill/internal/metrics"
	"github.com/smallbiznis/glidebill/internal/migration"
	"github.com/smallbiznis/glidebill/internal/money"
	"github.com/smallbiznis/glidebill/internal/rules"
	"github.com/smallbiznis/glidebill/internal/runctx"
	"github.com/smallbiznis/glidebill/internal/validator"
	"github.com/smallbiznis/glidebill/internal/writer"
	"github.com/smallbiznis/glidebill/pkg/db"
)

// configError and inputFormatError tag which bucket of spec.md §7's error
// taxonomy an error falls into, so main can pick the right exit code
// without the rest of the pipeline importing os.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

type inputFormatError struct{ err error }

func (e *inputFormatError) Error() string { return e.err.Error() }
func (e *inputFormatError) Unwrap() error { return e.err }

const (
	exitSuccess          = 0
	exitUnhandled        = 1
	exitConfigError      = 2
	exitInputFormatError = 3
)

var runErr error

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: glidebill <config-file>")
		os.Exit(exitConfigError)
	}

	app := fx.New(
		logger.Module,
		fx.Supply(config.Path(os.Args[1])),
		fx.Provide(func(path config.Path) (config.RunConfig, error) {
			// Every error config.Load can return — missing required keys,
			// an invalid row_csv_name_template, an unreadable or malformed
			// config document — is a ConfigError per spec.md §7, so it is
			// wrapped here rather than left to surface as a bare fx error.
			cfg, err := config.Load(string(path))
			if err != nil {
				return config.RunConfig{}, &configError{err}
			}
			return cfg, nil
		}),
		ids.Module,
		fx.Provide(func(cfg config.RunConfig) (db.Config, error) {
			// audit.db tracks every run's outcome across invocations, so it
			// lives beside the config file rather than inside out_dir: §7
			// treats a pre-existing out_dir as a fatal ConfigError, and
			// out_dir is removed/recreated by operators between runs while
			// the audit history should persist.
			auditDir := cfg.Resolve(".glidebill")
			if err := os.MkdirAll(auditDir, 0o755); err != nil {
				return db.Config{}, &configError{fmt.Errorf("audit store dir %s: %w", auditDir, err)}
			}
			return db.DefaultConfig(auditDir), nil
		}),
		db.Module,
		migration.Module,
		audit.Module,
		metrics.Module,
		fx.Invoke(func(lc fx.Lifecycle, cfg config.RunConfig, log *zap.Logger, node *snowflake.Node, auditSvc auditdomain.Service, m *metrics.Metrics) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					runErr = run(cfg, log, node, auditSvc, m)
					return nil
				},
			})
		}),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
	stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStop()
	_ = app.Stop(stopCtx)

	os.Exit(exitCode(runErr))
}

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		return exitConfigError
	}
	var inputErr *inputFormatError
	if errors.As(err, &inputErr) {
		return exitInputFormatError
	}
	return exitUnhandled
}

// run executes the full pipeline for one invocation, grounded on
// original_source/pik/processor.py's process_billing order: load context,
// load metadata, build rules, load events, validate (diagnostic only),
// assemble invoices, write outputs, save context, record audit, write
// metrics.
func run(cfg config.RunConfig, log *zap.Logger, node *snowflake.Node, auditSvc auditdomain.Service, m *metrics.Metrics) error {
	start := time.Now().UTC()
	runID := runctx.New()
	log = log.With(zap.String("run_id", runID.String()))

	record := &auditdomain.AuditRecord{
		RunID:      runID.String(),
		ConfigPath: os.Args[1],
		Status:     auditdomain.StatusSuccess,
		StartedAt:  start,
	}

	invoiceDate, err := loader.ParseDate(cfg.InvoiceDate)
	if err != nil {
		return finish(record, cfg.OutDir, auditSvc, m, log, &configError{fmt.Errorf("invoice_date: %w", err)})
	}

	if cfg.OutDir != "" {
		if _, statErr := os.Stat(cfg.OutDir); statErr == nil {
			return finish(record, cfg.OutDir, auditSvc, m, log, &configError{fmt.Errorf("out_dir %s already exists", cfg.OutDir)})
		}
	}

	ctx := billingctx.New()
	if cfg.ContextFileIn != "" {
		path := cfg.Resolve(cfg.ContextFileIn)
		if b, readErr := os.ReadFile(path); readErr == nil {
			if jsonErr := json.Unmarshal(b, ctx); jsonErr != nil {
				return finish(record, cfg.OutDir, auditSvc, m, log, &configError{fmt.Errorf("context_file_in %s: %w", path, jsonErr)})
			}
		} else if !os.IsNotExist(readErr) {
			return finish(record, cfg.OutDir, auditSvc, m, log, &configError{fmt.Errorf("context_file_in %s: %w", path, readErr)})
		}
	}

	birthDates, err := (loader.BirthDateCSVLoader{}).Load(cfg.ResolveAll(cfg.BirthDateFiles))
	if err != nil {
		return finish(record, cfg.OutDir, auditSvc, m, log, &inputFormatError{err})
	}
	courseMemberSet, err := (loader.MemberIDCSVLoader{}).Load(cfg.ResolveAll(cfg.CourseMemberFiles))
	if err != nil {
		return finish(record, cfg.OutDir, auditSvc, m, log, &inputFormatError{err})
	}
	courseMembers := make([]string, 0, len(courseMemberSet))
	for id := range courseMemberSet {
		courseMembers = append(courseMembers, id)
	}

	year := invoiceDate.Year()
	ruleTree := rules.Build(year, ctx, rules.Metadata{BirthDates: birthDates, CourseMembers: courseMembers})

	events, err := loadAllEvents(cfg)
	if err != nil {
		return finish(record, cfg.OutDir, auditSvc, m, log, &inputFormatError{err})
	}
	event.SortStable(events)
	record.EventCount = len(events)

	knownIDSet, err := (loader.KnownIDLoader{}).Load(cfg.ResolveAll(cfg.ValidIDFiles))
	if err != nil {
		return finish(record, cfg.OutDir, auditSvc, m, log, &inputFormatError{err})
	}
	externalIDSet := make(map[string]struct{}, len(cfg.NoInvoicingPrefix))
	for _, id := range cfg.NoInvoicingPrefix {
		externalIDSet[id] = struct{}{}
	}
	v := validator.New(knownIDSet, externalIDSet, log)
	report := v.Run(events)
	for kind, count := range report.InvalidCounts {
		record.InvalidCount += count
		m.AddValidatorRejected(kind, count)
	}

	eng := engine.New(ruleTree, ctx, cfg.NoInvoicingPrefix)
	lines, summary := eng.Run(events)
	record.MatchedCount = summary.MatchedEvents
	record.UnmatchedCount = len(summary.UnmatchedEvents)
	record.SkippedNoInvoicingCount = len(summary.NoInvoicingSkipped)
	for _, u := range summary.UnmatchedEvents {
		m.IncUnmatched(u.EventKind)
	}
	for range summary.NoInvoicingSkipped {
		m.IncSkippedNoInvoicing()
	}
	m.AddMatched(summary.MatchedEvents)
	for _, l := range lines {
		if !l.Capped {
			continue
		}
		// RuleRef's leading segment ("glider", "equipment_fee", ...)
		// names which cap applied, without matching CapDescription's
		// free-text wording.
		kind, _, _ := strings.Cut(l.RuleRef, ".")
		m.IncCappedRewrite(kind)
	}

	invoices := invoice.Assemble(lines, invoiceDate)

	outWriter := writer.NewInvoiceTextWriter(cfg.OutDir, cfg.Description, cfg.InvoiceFormat)
	if err := outWriter.WriteAll(invoices); err != nil {
		return finish(record, cfg.OutDir, auditSvc, m, log, err)
	}

	totalsName := cfg.TotalCSVName
	if totalsName == "" {
		totalsName = "totals.csv"
	}
	totalsWriter := writer.NewTotalsCSVWriter(filepath.Join(cfg.OutDir, totalsName))
	if err := totalsWriter.Write(invoices); err != nil {
		return finish(record, cfg.OutDir, auditSvc, m, log, err)
	}

	if cfg.RowCSVNameTemplate != "" {
		rowsWriter := writer.NewRowsCSVWriter(cfg.OutDir, cfg.RowCSVNameTemplate)
		if err := rowsWriter.Write(invoices); err != nil {
			return finish(record, cfg.OutDir, auditSvc, m, log, err)
		}
	}

	if cfg.ContextFileOut != "" {
		ctxWriter := writer.NewContextJSONWriter(cfg.Resolve(cfg.ContextFileOut))
		if err := ctxWriter.Write(ctx); err != nil {
			return finish(record, cfg.OutDir, auditSvc, m, log, err)
		}
	}

	nonZero, zero := 0, 0
	total := money.Zero
	for _, inv := range invoices {
		if inv.IsZero() {
			zero++
			continue
		}
		nonZero++
		total = total.Add(inv.Total())
	}
	record.InvoiceCount = nonZero
	record.TotalAmount = total.Display()
	// Prometheus gauges are float64-only by the client library's own
	// contract; this is the one place the run's total leaves fixed-point
	// money, at the metrics-export boundary rather than during accumulation.
	m.SetInvoiceSummary(nonZero, zero, float64(total.Micros())/float64(money.Micros))

	ctxJSON, err := json.Marshal(ctx)
	if err == nil {
		sum := sha256.Sum256(ctxJSON)
		record.ContextChecksum = hex.EncodeToString(sum[:])
	}

	log.Info("billing run complete",
		zap.Int("events", record.EventCount),
		zap.Int("matched", record.MatchedCount),
		zap.Int("unmatched", record.UnmatchedCount),
		zap.Int("invalid", record.InvalidCount),
		zap.Int("invoices", record.InvoiceCount),
		zap.String("total", record.TotalAmount),
	)

	return finish(record, cfg.OutDir, auditSvc, m, log, nil)
}

func loadAllEvents(cfg config.RunConfig) ([]event.Event, error) {
	var all []event.Event

	simpleLoader := loader.NewSimpleEventCSVLoader()
	for _, path := range cfg.ResolveAll(cfg.EventFiles) {
		evs, err := simpleLoader.Load(path)
		if err != nil {
			return nil, err
		}
		all = append(all, evs...)
	}

	flightLoader := loader.NewFlightCSVLoader()
	for _, path := range cfg.ResolveAll(cfg.FlightFiles) {
		evs, err := flightLoader.Load(path)
		if err != nil {
			return nil, err
		}
		all = append(all, evs...)
	}

	ndaLoader := loader.NewNDALoader()
	for _, path := range cfg.ResolveAll(cfg.NDAFiles) {
		evs, err := ndaLoader.Load(path)
		if err != nil {
			return nil, err
		}
		all = append(all, evs...)
	}

	return all, nil
}

// finish stamps record's finish time and status from err, records it
// through auditSvc, writes the metrics textfile, and returns err unchanged
// so main's exit-code mapping still sees the original error.
func finish(record *auditdomain.AuditRecord, outDir string, auditSvc auditdomain.Service, m *metrics.Metrics, log *zap.Logger, err error) error {
	record.FinishedAt = time.Now().UTC()
	switch {
	case err == nil:
		record.Status = auditdomain.StatusSuccess
	case errors.As(err, new(*configError)):
		record.Status = auditdomain.StatusConfigError
	case errors.As(err, new(*inputFormatError)):
		record.Status = auditdomain.StatusInputFormatError
	default:
		record.Status = auditdomain.StatusError
	}
	if err != nil {
		msg := err.Error()
		record.ErrorMessage = &msg
	}

	if auditErr := auditSvc.Record(context.Background(), record); auditErr != nil {
		log.Warn("failed to persist audit record", zap.Error(auditErr))
	}
	if outDir != "" {
		if metricsErr := m.WriteTextfile(filepath.Join(outDir, "metrics.prom")); metricsErr != nil {
			log.Warn("failed to write metrics textfile", zap.Error(metricsErr))
		}
	}
	return err
}

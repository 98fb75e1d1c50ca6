// Package pipeline runs a complete threshold study over a list of entries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
	"threshold-lab/internal/entries"
	"threshold-lab/internal/events"
	"threshold-lab/internal/exit"
	"threshold-lab/internal/ledger"
	"threshold-lab/internal/marketdata"
	"threshold-lab/internal/metrics"
	"threshold-lab/internal/observability"
	"threshold-lab/internal/reporting"
	"threshold-lab/internal/scanner"
	"threshold-lab/internal/simulation"
	"threshold-lab/internal/storage"
)

// DefaultWorkers bounds concurrent scans when RunnerOptions.Workers is unset.
const DefaultWorkers = 4

// Run statuses recorded in metrics.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Runner errors
var (
	ErrNoEntries = errors.New("no entries to study")
)

// Runner executes studies.
type Runner struct {
	accessor marketdata.Accessor
	calendar calendar.Calendar
	study    domain.StudyConfig
	workers  int

	runStore       storage.RunStore
	ledgerStore    storage.TradeLedgerStore
	thresholdStore storage.ThresholdStatStore
	equityStore    storage.EquityCurveStore
	publisher      events.Publisher

	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string
}

// RunnerOptions contains configuration for creating a Runner.
// Stores are optional; when RunStore is nil nothing is persisted.
type RunnerOptions struct {
	Accessor marketdata.Accessor
	Calendar calendar.Calendar
	Study    domain.StudyConfig
	Workers  int

	RunStore       storage.RunStore
	LedgerStore    storage.TradeLedgerStore
	ThresholdStore storage.ThresholdStatStore
	EquityStore    storage.EquityCurveStore
	Publisher      events.Publisher

	Logger  *zap.Logger
	Metrics *observability.Metrics
	Clock   func() time.Time
	NewID   func() string
}

// NewRunner creates a study runner.
func NewRunner(opts RunnerOptions) *Runner {
	r := &Runner{
		accessor:       opts.Accessor,
		calendar:       opts.Calendar,
		study:          opts.Study,
		workers:        opts.Workers,
		runStore:       opts.RunStore,
		ledgerStore:    opts.LedgerStore,
		thresholdStore: opts.ThresholdStore,
		equityStore:    opts.EquityStore,
		publisher:      opts.Publisher,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		now:            opts.Clock,
		newID:          opts.NewID,
	}
	if r.workers <= 0 {
		r.workers = DefaultWorkers
	}
	if r.publisher == nil {
		r.publisher = events.NopPublisher{}
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.now == nil {
		r.now = func() time.Time { return time.Now().UTC() }
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	return r
}

// Result holds every artifact of one run.
type Result struct {
	Run        *domain.RunSummary
	Scans      []*domain.ThresholdResult // successful scans, input order
	Entries    []domain.ResolvedEntry    // resolved scans, input order
	Simulation *simulation.Result
	Stats      domain.ThresholdStats
	Ledger     []domain.TradeLedgerRow
}

// Report assembles the renderable report of the run.
func (res *Result) Report(generatedAt time.Time) *reporting.Report {
	return reporting.Build(generatedAt, res.Run, res.Stats, res.Simulation.Equity, res.Ledger)
}

// Run executes the study over raw entries.
// Steps:
//  1. Deduplicate entries (earliest signal per symbol)
//  2. Scan entries with bounded concurrency; unavailable data drops the entry
//  3. Resolve the governing exit of each scan
//  4. Simulate the capital-constrained book
//  5. Compute metrics and threshold stats
//  6. Build the trade ledger
//  7. Persist run artifacts
//  8. Publish run.completed
func (r *Runner) Run(ctx context.Context, raw []domain.Entry) (res *Result, err error) {
	began := time.Now()
	defer func() {
		status := StatusSuccess
		if err != nil {
			status = StatusFailed
		}
		r.metrics.RecordRun(status, time.Since(began).Seconds(), time.Now().Unix())
	}()

	// 1. Deduplicate
	unique := entries.Dedup(raw)
	if len(unique) == 0 {
		return nil, ErrNoEntries
	}

	runID := r.newID()
	log := r.logger.With(zap.String("run_id", runID))
	log.Info("study started",
		zap.Int("input_entries", len(raw)),
		zap.Int("unique_entries", len(unique)),
		zap.Int("workers", r.workers))

	// 2. Scan
	scans, err := r.scan(ctx, unique, log)
	if err != nil {
		return nil, err
	}

	// 3. Resolve exits
	resolver := exit.New(r.accessor, exit.Config{
		Target:           r.study.Thresholds.Target,
		Stoploss:         r.study.Thresholds.Stoploss,
		TimeoutDays:      r.study.TimeoutDays,
		ExitLookbackDays: r.study.ExitLookbackDays,
	}, log, r.metrics)

	resolved := make([]domain.ResolvedEntry, 0, len(scans))
	for _, s := range scans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resolved = append(resolved, domain.ResolvedEntry{Result: s, Exit: resolver.Resolve(ctx, s)})
	}

	// 4. Simulate
	sim := simulation.Simulate(resolved, r.study)
	for _, t := range sim.Trades {
		decision := "accepted"
		if !t.Accepted {
			decision = string(t.SkipReason)
		}
		r.metrics.RecordDecision(decision)
	}

	// 5. Metrics
	stats := metrics.ComputeThresholdStats(scans, r.study.Thresholds)
	dd := metrics.MaxDrawdown(sim.Equity)

	// 6. Ledger
	rows := ledger.NewBuilder(r.accessor, r.study.TradeSize, log, r.metrics).Build(ctx, resolved)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].RunID = runID
	}

	run := &domain.RunSummary{
		RunID:           runID,
		CreatedAt:       r.now(),
		TradeSize:       r.study.TradeSize,
		InitialCapital:  sim.InitialCapital,
		MaxTradesPerDay: r.study.MaxTradesPerDay,
		TargetPct:       float64(r.study.Thresholds.Target),
		StoplossPct:     float64(r.study.Thresholds.Stoploss),
		TimeoutDays:     r.study.TimeoutDays,
		PriceField:      r.study.PriceField,
		InputEntries:    len(raw),
		UniqueEntries:   len(unique),
		ScannedEntries:  len(scans),
		DroppedEntries:  len(unique) - len(scans),
		AcceptedTrades:  sim.Accepted(),
		SkippedTrades:   sim.Skipped(),
		LedgerRows:      len(rows),
		FinalCapital:    sim.FinalCapital,
		WinRatePct:      metrics.WinRate(resolved),
		ExpectedPayoff:  metrics.ExpectedPayoff(resolved, r.study),
		MaxDrawdown:     dd.Amount,
		MaxDrawdownPct:  dd.Pct,
		CAGRPct:         metrics.CAGR(sim.InitialCapital, sim.FinalCapital, sim.Equity),
	}
	countExits(run, resolved)

	res = &Result{
		Run:        run,
		Scans:      scans,
		Entries:    resolved,
		Simulation: sim,
		Stats:      stats,
		Ledger:     rows,
	}

	// 7. Persist
	if err := r.persist(ctx, res); err != nil {
		return nil, err
	}

	// 8. Publish
	if err := r.publisher.PublishRunCompleted(ctx, run); err != nil {
		log.Warn("run event not published", zap.Error(err))
	}

	log.Info("study finished",
		zap.Int("scanned", run.ScannedEntries),
		zap.Int("dropped", run.DroppedEntries),
		zap.Int("accepted", run.AcceptedTrades),
		zap.String("final_capital", run.FinalCapital.String()),
		zap.Float64("win_rate_pct", run.WinRatePct))

	return res, nil
}

// scan runs the scanner over entries with at most r.workers in flight.
// Results land in index-addressed slots so output order equals input order.
// A failed entry is dropped without cancelling its siblings.
func (r *Runner) scan(ctx context.Context, unique []domain.Entry, log *zap.Logger) ([]*domain.ThresholdResult, error) {
	sc := scanner.New(r.accessor, r.calendar, scanner.Config{
		Thresholds:     r.study.Thresholds,
		ScanWindowDays: r.study.ScanWindowDays,
		PriceField:     r.study.PriceField,
		DayCount:       r.study.DayCount,
	}, log, r.metrics)

	slots := make([]*domain.ThresholdResult, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, e := range unique {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := sc.Scan(gctx, e)
			if err != nil {
				log.Warn("entry dropped",
					zap.String("symbol", e.Symbol),
					zap.String("signal_date", calendar.FormatDate(e.SignalDate)),
					zap.Error(err))
				return nil
			}
			slots[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	scans := make([]*domain.ThresholdResult, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			scans = append(scans, s)
		}
	}
	return scans, nil
}

// persist writes run artifacts; a nil RunStore disables persistence.
// The run row goes first since artifact tables reference it. If an artifact
// write fails the run is deleted again, so no run is readable without them.
func (r *Runner) persist(ctx context.Context, res *Result) error {
	if r.runStore == nil {
		return nil
	}
	runID := res.Run.RunID

	if err := r.runStore.Insert(ctx, res.Run); err != nil {
		return fmt.Errorf("persist run: %w", err)
	}
	if err := r.persistArtifacts(ctx, res); err != nil {
		// Cleanup must run even when ctx is what failed
		if delErr := r.runStore.Delete(context.WithoutCancel(ctx), runID); delErr != nil {
			r.logger.Error("failed to remove partially persisted run",
				zap.String("run_id", runID),
				zap.Error(delErr))
			return errors.Join(err, fmt.Errorf("remove run: %w", delErr))
		}
		return err
	}
	return nil
}

func (r *Runner) persistArtifacts(ctx context.Context, res *Result) error {
	runID := res.Run.RunID

	if r.ledgerStore != nil && len(res.Ledger) > 0 {
		ptrs := make([]*domain.TradeLedgerRow, len(res.Ledger))
		for i := range res.Ledger {
			ptrs[i] = &res.Ledger[i]
		}
		if err := r.ledgerStore.InsertBulk(ctx, ptrs); err != nil {
			return fmt.Errorf("persist ledger: %w", err)
		}
	}
	if r.thresholdStore != nil && len(res.Stats) > 0 {
		if err := r.thresholdStore.Insert(ctx, runID, res.Stats); err != nil {
			return fmt.Errorf("persist threshold stats: %w", err)
		}
	}
	if r.equityStore != nil && len(res.Simulation.Equity) > 0 {
		if err := r.equityStore.InsertBulk(ctx, runID, res.Simulation.Equity); err != nil {
			return fmt.Errorf("persist equity curve: %w", err)
		}
	}
	return nil
}

func countExits(run *domain.RunSummary, resolved []domain.ResolvedEntry) {
	for _, e := range resolved {
		switch e.Exit.Reason {
		case domain.ExitReasonTarget:
			run.TargetExits++
		case domain.ExitReasonStoploss:
			run.StoplossExits++
		case domain.ExitReasonTimedExit:
			run.TimedExits++
			if e.Exit.ExitPrice == nil {
				run.UnresolvedExits++
			}
		}
	}
}

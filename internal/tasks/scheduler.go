package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tasksync/internal/services"
	"github.com/desertthunder/tasksync/internal/shared"
)

// Backoff computes the polling interval between sync cycles.
//
// A failed cycle multiplies the interval, a clean cycle divides it, and the
// result is always clamped to [Min, Max].
type Backoff struct {
	Base       time.Duration // Starting interval
	Min        time.Duration // Lower bound (defaults to Base)
	Max        time.Duration // Upper bound
	Multiplier float64       // Growth factor on failure (must be > 1)
}

// BackoffFromConfig builds a Backoff from the sync section of the config.
func BackoffFromConfig(cfg shared.SyncConfig) Backoff {
	return Backoff{
		Base:       cfg.BaseInterval(),
		Min:        cfg.MinInterval(),
		Max:        cfg.MaxInterval(),
		Multiplier: cfg.BackoffMultiplier,
	}
}

// normalized fills in defaults for zero fields.
func (b Backoff) normalized() Backoff {
	if b.Base <= 0 {
		b.Base = 5 * time.Minute
	}
	if b.Multiplier <= 1 {
		b.Multiplier = 2.0
	}
	if b.Min <= 0 {
		b.Min = b.Base
	}
	if b.Max <= 0 {
		b.Max = time.Hour
	}
	if b.Max < b.Min {
		b.Max = b.Min
	}
	return b
}

// Next returns the interval to wait before the next cycle given the current
// interval and whether the last cycle succeeded.
func (b Backoff) Next(current time.Duration, success bool) time.Duration {
	n := b.normalized()
	if current <= 0 {
		current = n.Base
	}

	var next time.Duration
	if success {
		next = time.Duration(float64(current) / n.Multiplier)
	} else {
		next = time.Duration(float64(current) * n.Multiplier)
	}

	if next < n.Min {
		next = n.Min
	}
	if next > n.Max {
		next = n.Max
	}
	return next
}

// PairResult is the outcome of reconciling one configured pair.
type PairResult struct {
	Pair      shared.SyncPair
	Result    *ReconcileResult // Partial counts survive a mid-apply failure
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Succeeded reports whether the pair reconciled without error.
func (p PairResult) Succeeded() bool {
	return p.Err == nil
}

// CycleResult is the outcome of one pass over every configured pair.
type CycleResult struct {
	StartedAt time.Time
	Duration  time.Duration
	Results   []PairResult
	Failed    int
}

// Succeeded reports whether every pair in the cycle reconciled cleanly.
func (c CycleResult) Succeeded() bool {
	return c.Failed == 0
}

// Recorder persists pair outcomes. Implementations must tolerate partial
// results; Result may carry counts even when Err is set.
type Recorder interface {
	RecordRun(res PairResult) error
}

// Scheduler runs the engine over every configured pair in a polling loop.
type Scheduler struct {
	engine   SyncEngine
	services map[string]services.TaskService
	pairs    []shared.SyncPair
	backoff  Backoff
	recorder Recorder
	logger   *log.Logger
	onCycle  func(CycleResult)
	sleep    func(ctx context.Context, d time.Duration) error
}

// SchedulerOpts configures a Scheduler. Engine, Services, and Pairs are
// required; everything else has sensible defaults.
type SchedulerOpts struct {
	Engine   SyncEngine
	Services map[string]services.TaskService // Keyed by account email
	Pairs    []shared.SyncPair
	Backoff  Backoff
	Recorder Recorder           // Optional run history sink
	Logger   *log.Logger        // Defaults to a stderr logger
	OnCycle  func(CycleResult)  // Optional per-cycle hook for UI layers
	Sleep    func(ctx context.Context, d time.Duration) error
}

// NewScheduler creates a Scheduler from opts.
func NewScheduler(opts SchedulerOpts) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Scheduler{
		engine:   opts.Engine,
		services: opts.Services,
		pairs:    opts.Pairs,
		backoff:  opts.Backoff.normalized(),
		recorder: opts.Recorder,
		logger:   logger,
		onCycle:  opts.OnCycle,
		sleep:    sleep,
	}
}

// sleepContext waits for d or until ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run polls until ctx is canceled, adjusting the interval after each cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.pairs) == 0 {
		return fmt.Errorf("%w: no sync pairs configured", shared.ErrInvalidInput)
	}

	interval := s.backoff.Base
	for {
		cycle := s.RunCycle(ctx)
		if s.onCycle != nil {
			s.onCycle(cycle)
		}

		interval = s.backoff.Next(interval, cycle.Succeeded())
		s.logger.Info("cycle finished",
			"pairs", len(cycle.Results),
			"failed", cycle.Failed,
			"duration", cycle.Duration,
			"next_interval", interval,
		)

		if err := s.sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// RunCycle reconciles every configured pair once.
//
// A failing pair is logged and recorded but never stops the cycle; the
// remaining pairs still run.
func (s *Scheduler) RunCycle(ctx context.Context) CycleResult {
	cycle := CycleResult{
		StartedAt: time.Now(),
		Results:   make([]PairResult, 0, len(s.pairs)),
	}

	for _, pair := range s.pairs {
		res := s.runPair(ctx, pair)
		if res.Err != nil {
			cycle.Failed++
			s.logger.Error("pair failed", "pair", pair.String(), "error", res.Err)
		} else {
			s.logger.Info("pair reconciled",
				"pair", pair.String(),
				"created", res.Result.Created,
				"updated", res.Result.Updated,
				"deleted", res.Result.Deleted,
				"completed", res.Result.Completed,
			)
		}

		if s.recorder != nil {
			if err := s.recorder.RecordRun(res); err != nil {
				s.logger.Warn("failed to record run", "pair", pair.String(), "error", err)
			}
		}

		cycle.Results = append(cycle.Results, res)
	}

	cycle.Duration = time.Since(cycle.StartedAt)
	return cycle
}

// runPair reconciles a single pair, resolving account services by email.
func (s *Scheduler) runPair(ctx context.Context, pair shared.SyncPair) PairResult {
	res := PairResult{Pair: pair, StartedAt: time.Now()}
	defer func() {
		res.Duration = time.Since(res.StartedAt)
	}()

	source, ok := s.services[pair.SourceAccount]
	if !ok {
		res.Err = fmt.Errorf("%w: %s", shared.ErrUnknownAccount, pair.SourceAccount)
		return res
	}
	target, ok := s.services[pair.TargetAccount]
	if !ok {
		res.Err = fmt.Errorf("%w: %s", shared.ErrUnknownAccount, pair.TargetAccount)
		return res
	}

	res.Result, res.Err = s.engine.Reconcile(ctx, nil, source, target, pair.ListName)
	return res
}

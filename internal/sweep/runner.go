package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/lca-sweep/internal/invoker"
	"github.com/GoSim-25-26J-441/lca-sweep/internal/policy"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/logger"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/utils"
)

// Collector turns the artifacts of a run into per-algorithm results
type Collector interface {
	Collect(arts invoker.Artifacts) (map[string]models.AlgorithmResult, error)
}

// ResultStore receives groups and results in generation order
type ResultStore interface {
	BeginGroup(cfg models.GroupConfig, name string) models.ExperimentGroup
	Append(groupID string, result models.RunResult) error
	Flush() error
}

// Observer is told about every run and setup outcome
type Observer interface {
	RunFinished(status RunStatus, d time.Duration)
	SetupFailed()
}

// RunStatus is the outcome of one descriptor
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusSkipped   RunStatus = "skipped"
)

// RunOutcome records what happened to one descriptor
type RunOutcome struct {
	Index      int
	RunID      string
	ConfigType int
	Status     RunStatus
	Error      string
	Duration   time.Duration
}

// GroupReport summarises one experiment group
type GroupReport struct {
	GroupID           string
	Name              string
	Planned           int
	Completed         int
	Failed            int
	Skipped           int
	FailedConfigTypes []int
	Runs              []RunOutcome
}

// Report summarises a whole sweep
type Report struct {
	SweepID    string
	Name       string
	StartedAt  time.Time
	FinishedAt time.Time
	Cancelled  bool
	Groups     []GroupReport
}

// Totals sums the counters of every group
func (r *Report) Totals() (planned, completed, failed, skipped int) {
	for _, g := range r.Groups {
		planned += g.Planned
		completed += g.Completed
		failed += g.Failed
		skipped += g.Skipped
	}
	return planned, completed, failed, skipped
}

// RunnerConfig tunes a Runner. Zero values pick the defaults.
type RunnerConfig struct {
	ConfigTypeCount int
	Retry           *policy.RetryPolicy
	Observer        Observer
}

// Runner executes sweep requests one descriptor at a time
type Runner struct {
	invoker         invoker.Invoker
	collector       Collector
	store           ResultStore
	retry           *policy.RetryPolicy
	observer        Observer
	configTypeCount int
}

// NewRunner creates a sweep runner
func NewRunner(inv invoker.Invoker, collector Collector, store ResultStore, cfg RunnerConfig) *Runner {
	r := &Runner{
		invoker:         inv,
		collector:       collector,
		store:           store,
		retry:           cfg.Retry,
		observer:        cfg.Observer,
		configTypeCount: cfg.ConfigTypeCount,
	}
	if r.retry == nil {
		r.retry = policy.NewRetryPolicy(0, utils.BackoffConstant, 0)
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	if r.configTypeCount <= 0 {
		r.configTypeCount = 9
	}
	return r
}

// Run executes every group of req. Validation failures abort before any
// invocation. A failed run is recorded and skipped. A failed setup skips the
// runs of its config type and is returned, joined with the others, after
// the results are flushed. Cancellation stops between runs and still flushes.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	if err := req.Validate(r.configTypeCount); err != nil {
		return nil, err
	}
	grids := make([][]models.RunDescriptor, len(req.Groups))
	for i, g := range req.Groups {
		grid, err := BuildGrid(g, r.configTypeCount)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		grids[i] = grid
	}

	report := &Report{
		SweepID:   utils.GenerateSweepID(),
		Name:      req.Name,
		StartedAt: time.Now(),
	}
	logger.Info("sweep started", "sweep_id", report.SweepID, "groups", len(req.Groups))

	var setupErrs []error
	for i, cfg := range req.Groups {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		gr, errs := r.runGroup(ctx, cfg, groupName(req.Name, i), grids[i])
		report.Groups = append(report.Groups, gr)
		setupErrs = append(setupErrs, errs...)
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
	}
	report.FinishedAt = time.Now()

	if err := r.store.Flush(); err != nil {
		return report, fmt.Errorf("failed to persist sweep results: %w", err)
	}

	planned, completed, failed, skipped := report.Totals()
	logger.Info("sweep finished",
		"sweep_id", report.SweepID,
		"planned", planned,
		"completed", completed,
		"failed", failed,
		"skipped", skipped,
		"cancelled", report.Cancelled,
		"duration", report.FinishedAt.Sub(report.StartedAt))

	if report.Cancelled {
		return report, ctx.Err()
	}
	if len(setupErrs) > 0 {
		return report, errors.Join(setupErrs...)
	}
	return report, nil
}

func (r *Runner) runGroup(ctx context.Context, cfg models.GroupConfig, name string, grid []models.RunDescriptor) (GroupReport, []error) {
	group := r.store.BeginGroup(cfg, name)
	gr := GroupReport{GroupID: group.ID, Name: name, Planned: len(grid)}
	log := logger.With("group", group.ID)
	log.Info("group started", "runs", len(grid), "config_types", cfg.ConfigTypes)

	var setupErrs []error
	for _, branch := range SplitByConfigType(grid) {
		if ctx.Err() != nil {
			return gr, setupErrs
		}

		setup := invoker.SetupRequest{
			ConfigType:       branch.ConfigType,
			CostConfigType:   cfg.CostConfigType,
			VMSchedulingMode: cfg.VMSchedulingMode,
		}
		if err := r.invoker.GenerateConfig(ctx, setup); err != nil {
			cerr := &ConfigGenerationError{GroupID: group.ID, ConfigType: branch.ConfigType, Err: err}
			log.Error("config generation failed, skipping config type",
				"config_type", branch.ConfigType,
				"skipped_runs", len(branch.Runs),
				"error", err)
			r.observer.SetupFailed()
			setupErrs = append(setupErrs, cerr)
			gr.FailedConfigTypes = append(gr.FailedConfigTypes, branch.ConfigType)
			for _, d := range branch.Runs {
				gr.Skipped++
				gr.Runs = append(gr.Runs, RunOutcome{
					Index:      d.Index,
					RunID:      utils.RunID(group.ID, d.Index),
					ConfigType: d.ConfigType,
					Status:     RunStatusSkipped,
					Error:      cerr.Error(),
				})
			}
			continue
		}

		for _, d := range branch.Runs {
			if ctx.Err() != nil {
				return gr, setupErrs
			}
			outcome := r.runOne(ctx, group.ID, d)
			switch outcome.Status {
			case RunStatusCompleted:
				gr.Completed++
			case RunStatusSkipped:
				gr.Skipped++
			default:
				gr.Failed++
			}
			gr.Runs = append(gr.Runs, outcome)
		}
	}
	return gr, setupErrs
}

func (r *Runner) runOne(ctx context.Context, groupID string, d models.RunDescriptor) RunOutcome {
	outcome := RunOutcome{Index: d.Index, RunID: utils.RunID(groupID, d.Index), ConfigType: d.ConfigType}
	start := time.Now()

	var algorithms map[string]models.AlgorithmResult
	err := r.retry.Do(ctx, func(attempt int) error {
		if attempt > 0 {
			logger.Warn("retrying run", "group", groupID, "run_index", d.Index, "attempt", attempt)
		}
		arts, err := r.invoker.Invoke(ctx, d)
		if err != nil {
			return err
		}
		defer arts.Release()

		algorithms, err = r.collector.Collect(arts)
		return err
	})
	if err == nil {
		err = r.store.Append(groupID, models.RunResult{RunID: outcome.RunID, Descriptor: d, Algorithms: algorithms})
	}
	outcome.Duration = time.Since(start)

	switch {
	case err != nil && ctx.Err() != nil:
		// Cancelled mid-run; the run itself did not fail.
		outcome.Status = RunStatusSkipped
		outcome.Error = err.Error()
		logger.Info("run interrupted",
			"group", groupID,
			"run_index", d.Index,
			"config_type", d.ConfigType,
			"reason", ctx.Err())
	case err != nil:
		outcome.Status = RunStatusFailed
		outcome.Error = err.Error()
		logger.Error("run failed",
			"group", groupID,
			"run_index", d.Index,
			"config_type", d.ConfigType,
			"params", d.Key(),
			"error", err)
	default:
		outcome.Status = RunStatusCompleted
		logger.Info("run completed",
			"group", groupID,
			"run_index", d.Index,
			"config_type", d.ConfigType,
			"algorithms", len(algorithms),
			"duration", outcome.Duration)
	}
	r.observer.RunFinished(outcome.Status, outcome.Duration)
	return outcome
}

func groupName(sweepName string, i int) string {
	if sweepName == "" {
		return fmt.Sprintf("group-%d", i)
	}
	return fmt.Sprintf("%s/%d", sweepName, i)
}

type nopObserver struct{}

func (nopObserver) RunFinished(RunStatus, time.Duration) {}
func (nopObserver) SetupFailed()                         {}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoSim-25-26J-441/lca-sweep/internal/collector"
	"github.com/GoSim-25-26J-441/lca-sweep/internal/export"
	"github.com/GoSim-25-26J-441/lca-sweep/internal/invoker"
	"github.com/GoSim-25-26J-441/lca-sweep/internal/metrics"
	"github.com/GoSim-25-26J-441/lca-sweep/internal/notify"
	"github.com/GoSim-25-26J-441/lca-sweep/internal/pareto"
	"github.com/GoSim-25-26J-441/lca-sweep/internal/policy"
	"github.com/GoSim-25-26J-441/lca-sweep/internal/store"
	"github.com/GoSim-25-26J-441/lca-sweep/internal/sweep"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/logger"
)

const notifyTimeout = 30 * time.Second

func runCommand(ctx context.Context, args []string, stdout io.Writer) error {
	fs, global := newFlagSet("run")
	requestPath := fs.String("request", "", "sweep request JSON file")
	save := fs.Bool("save", false, "append the request to the run-config store")
	metricsAddr := fs.String("metrics-addr", "", "expose sweep metrics on this address while the sweep runs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := global.load()
	if err != nil {
		return err
	}
	if *requestPath == "" {
		return errors.New("run: -request is required")
	}

	data, err := os.ReadFile(*requestPath)
	if err != nil {
		return fmt.Errorf("failed to read request %s: %w", *requestPath, err)
	}
	req, err := sweep.ParseRequest(data)
	if err != nil {
		return err
	}
	if *save {
		configs := store.NewConfigStore(cfg.Workspace.RunConfigsPath, cfg.Workspace.MainDir)
		idx, err := configs.SaveRunConfig(data)
		if err != nil {
			return err
		}
		logger.Info("run config saved", "path", cfg.Workspace.RunConfigsPath, "index", idx)
	}

	results, err := store.Open(cfg.Workspace.StorePath)
	if err != nil {
		return err
	}
	inv, err := invoker.NewProcessInvoker(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	sweepMetrics, err := metrics.NewSweepMetrics(reg)
	if err != nil {
		return err
	}
	// metrics.addr belongs to serve; a sweep only listens when asked to.
	if *metricsAddr != "" {
		srv := startMetricsServer(*metricsAddr, reg, nil)
		defer shutdownHTTP(srv)
	}

	runner := sweep.NewRunner(inv, collector.New(), results, sweep.RunnerConfig{
		ConfigTypeCount: cfg.Sweep.ConfigTypeCount,
		Retry:           policy.NewRetryPolicyFromConfig(&cfg.Invoker),
		Observer:        sweepMetrics,
	})
	report, runErr := runner.Run(ctx, req)
	if report != nil {
		planned, completed, failed, skipped := report.Totals()
		fmt.Fprintf(stdout, "sweep %s: %d planned, %d completed, %d failed, %d skipped\n",
			report.SweepID, planned, completed, failed, skipped)
	}

	// The signal context may already be done; the callback still has to go out.
	notifyCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	summary := notify.SummaryFromReport(report, runErr)
	if err := notify.NewNotifier().Notify(notifyCtx, cfg.Notify.CallbackURL, cfg.Notify.CallbackSecret, summary); err != nil {
		logger.Warn("sweep callback failed", "sweep_id", summary.SweepID, "error", err)
	}
	return runErr
}

func paretoCommand(ctx context.Context, args []string, stdout io.Writer) error {
	fs, global := newFlagSet("pareto")
	groupIndex := fs.Int("group", 0, "index of the experiment group")
	algorithm := fs.String("algorithm", "", "algorithm to project (defaults to sweep.multi_objective_algorithm)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := global.load()
	if err != nil {
		return err
	}
	if *algorithm == "" {
		*algorithm = cfg.Sweep.MultiObjectiveAlgorithm
	}

	groups, err := store.Load(cfg.Workspace.StorePath)
	if err != nil {
		return err
	}
	if *groupIndex < 0 || *groupIndex >= len(groups) {
		return fmt.Errorf("group %d: %w (%d groups)", *groupIndex, store.ErrGroupNotFound, len(groups))
	}
	group := groups[*groupIndex]

	all := pareto.Points(group.Results, *algorithm)
	front := pareto.NonDominated(all)
	summary, err := pareto.Summarize(front, all)
	if err != nil {
		return fmt.Errorf("group %d, algorithm %s: %w", *groupIndex, *algorithm, err)
	}
	return writeJSON(stdout, map[string]any{
		"group_id":  group.ID,
		"algorithm": *algorithm,
		"front":     front,
		"summary":   summary,
	})
}

func exportCommand(ctx context.Context, args []string, stdout io.Writer) error {
	fs, global := newFlagSet("export")
	out := fs.String("out", "", "CSV output file (stdout when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := global.load()
	if err != nil {
		return err
	}

	groups, err := store.Load(cfg.Workspace.StorePath)
	if err != nil {
		return err
	}
	rows := export.Rows(groups)
	if *out == "" {
		return export.WriteCSV(stdout, rows)
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}
	if err := export.WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("results exported", "path", *out, "rows", len(rows))
	return nil
}

func fitnessCommand(ctx context.Context, args []string, stdout io.Writer) error {
	fs, global := newFlagSet("fitness")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := global.load()
	if err != nil {
		return err
	}
	series, err := collector.ReadFitnessLogs(cfg.Workspace.FitnessDir, cfg.Sweep.FitnessLogs)
	if err != nil {
		return err
	}
	return writeJSON(stdout, series)
}

func configsCommand(ctx context.Context, args []string, stdout io.Writer) error {
	fs, global := newFlagSet("configs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := global.load()
	if err != nil {
		return err
	}

	configs := store.NewConfigStore(cfg.Workspace.RunConfigsPath, cfg.Workspace.MainDir)
	runConfigs, err := configs.ListRunConfigs()
	if err != nil {
		return err
	}
	sim, err := configs.SimConfigs()
	if err != nil {
		return err
	}
	return writeJSON(stdout, map[string]any{
		"run_configs": runConfigs,
		"sim":         sim,
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package invoker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/config"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/logger"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

// SetupRequest selects the simulator configuration generated before the runs
// of one config type.
type SetupRequest struct {
	ConfigType       int
	CostConfigType   int
	VMSchedulingMode string
}

// Args renders the request as optimiser flags
func (r SetupRequest) Args() []string {
	return []string{
		"--job", "1",
		"--config-type", strconv.Itoa(r.ConfigType),
		"--cost-config-type", strconv.Itoa(r.CostConfigType),
		"--vm-scheduling-mode", r.VMSchedulingMode,
	}
}

// Artifacts locates the output of one invocation. It carries the mailbox
// lease of that invocation until Release is called.
type Artifacts struct {
	ResultsDir string
	FitnessDir string
	// StartedAt is when the optimiser process was launched. Fitness logs
	// last written before it belong to an earlier run. Zero disables the
	// check.
	StartedAt time.Time

	lease *Lease
}

// NewArtifacts describes artifacts that are not tied to a lease
func NewArtifacts(resultsDir, fitnessDir string) Artifacts {
	return Artifacts{ResultsDir: resultsDir, FitnessDir: fitnessDir}
}

// Release frees the mailbox so the next invocation can start
func (a Artifacts) Release() {
	a.lease.Release()
}

// Invoker runs the external optimiser
type Invoker interface {
	// GenerateConfig runs the setup pre-step for one config type
	GenerateConfig(ctx context.Context, req SetupRequest) error
	// Invoke runs the optimiser for one descriptor
	Invoke(ctx context.Context, desc models.RunDescriptor) (Artifacts, error)
}

// ProcessInvoker starts the optimiser as a child process. Every call holds
// the parameter mailbox for its duration, so calls are serialised.
type ProcessInvoker struct {
	python     string
	script     string
	workDir    string
	resultsDir string
	fitnessDir string
	timeout    time.Duration
	mailbox    *Mailbox
}

// NewProcessInvoker creates an invoker from the service config
func NewProcessInvoker(cfg *config.Config) (*ProcessInvoker, error) {
	timeout, err := cfg.Invoker.GetTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid invoker timeout: %w", err)
	}
	return &ProcessInvoker{
		python:     cfg.Invoker.Python,
		script:     cfg.Invoker.Script,
		workDir:    cfg.Workspace.MainDir,
		resultsDir: cfg.Workspace.ResultsDir,
		fitnessDir: cfg.Workspace.FitnessDir,
		timeout:    timeout,
		mailbox:    NewMailbox(cfg.Workspace.ParametersFile),
	}, nil
}

// Mailbox returns the parameter mailbox used by this invoker
func (p *ProcessInvoker) Mailbox() *Mailbox {
	return p.mailbox
}

// GenerateConfig implements Invoker
func (p *ProcessInvoker) GenerateConfig(ctx context.Context, req SetupRequest) error {
	lease, err := p.mailbox.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire parameter mailbox: %w", err)
	}
	defer lease.Release()

	logger.Info("generating simulator config",
		"config_type", req.ConfigType,
		"cost_config_type", req.CostConfigType,
		"vm_scheduling_mode", req.VMSchedulingMode)

	if err := p.run(ctx, req.Args()...); err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}
	return nil
}

// Invoke implements Invoker. On success the returned Artifacts hold the
// mailbox lease and must be released by the caller.
func (p *ProcessInvoker) Invoke(ctx context.Context, desc models.RunDescriptor) (Artifacts, error) {
	lease, err := p.mailbox.Acquire(ctx)
	if err != nil {
		return Artifacts{}, &RunInvocationError{RunIndex: desc.Index, Stage: "acquire", Err: err}
	}

	if err := lease.WriteParameters(desc.Parameters()); err != nil {
		lease.Release()
		return Artifacts{}, &RunInvocationError{RunIndex: desc.Index, Stage: "write parameters", Err: err}
	}
	if err := ClearResults(p.resultsDir); err != nil {
		lease.Release()
		return Artifacts{}, &RunInvocationError{RunIndex: desc.Index, Stage: "clear results", Err: err}
	}

	start := time.Now()
	if err := p.run(ctx); err != nil {
		lease.Release()
		return Artifacts{}, &RunInvocationError{RunIndex: desc.Index, Stage: "execute", Err: err}
	}
	logger.Debug("optimiser run finished",
		"run_index", desc.Index,
		"duration", time.Since(start))

	arts := lease.Artifacts(p.resultsDir, p.fitnessDir)
	arts.StartedAt = start
	return arts, nil
}

func (p *ProcessInvoker) run(parent context.Context, args ...string) error {
	ctx, cancel := context.WithTimeout(parent, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.python, append([]string{p.script}, args...)...)
	cmd.Dir = p.workDir
	cmd.WaitDelay = 5 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if out := strings.TrimSpace(stdout.String()); out != "" {
		logger.Debug("optimiser output", "args", args, "stdout", tail(out, 2000))
	}
	if ctx.Err() != nil {
		if perr := parent.Err(); perr != nil {
			return fmt.Errorf("optimiser interrupted: %w", perr)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, p.timeout)
		}
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, tail(msg, 500))
		}
		return err
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		logger.Warn("optimiser wrote to stderr", "args", args, "stderr", tail(msg, 2000))
	}
	return nil
}

// ClearResults deletes leftover result JSON files so a failed run cannot
// be mistaken for the previous one. A missing dir is not an error.
func ClearResults(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read results dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove stale result %s: %w", e.Name(), err)
		}
	}
	return nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

package invoker

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/config"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

// newShellInvoker runs script with sh in place of the python interpreter
func newShellInvoker(t *testing.T, script, timeout string) (*ProcessInvoker, string) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "run.sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	cfg := config.Default()
	cfg.Workspace = config.Workspace{
		MainDir:        dir,
		ResultsDir:     filepath.Join(dir, "results"),
		FitnessDir:     filepath.Join(dir, "lca"),
		ParametersFile: filepath.Join(dir, "LCA_parameters.json"),
	}
	cfg.Invoker.Python = "sh"
	cfg.Invoker.Script = scriptPath
	cfg.Invoker.Timeout = timeout

	inv, err := NewProcessInvoker(cfg)
	if err != nil {
		t.Fatalf("failed to create invoker: %v", err)
	}
	return inv, dir
}

func TestSetupRequestArgs(t *testing.T) {
	req := SetupRequest{ConfigType: 4, CostConfigType: 2, VMSchedulingMode: "space"}
	got := strings.Join(req.Args(), " ")
	want := "--job 1 --config-type 4 --cost-config-type 2 --vm-scheduling-mode space"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGenerateConfigPassesFlags(t *testing.T) {
	inv, dir := newShellInvoker(t, `printf '%s\n' "$@" > args.txt`+"\n", "10s")

	req := SetupRequest{ConfigType: 3, CostConfigType: 1, VMSchedulingMode: "time"}
	if err := inv.GenerateConfig(context.Background(), req); err != nil {
		t.Fatalf("GenerateConfig failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	if err != nil {
		t.Fatalf("script did not run in the main dir: %v", err)
	}
	got := strings.Fields(string(data))
	if strings.Join(got, " ") != strings.Join(req.Args(), " ") {
		t.Fatalf("unexpected args: %v", got)
	}

	if lease, ok := inv.Mailbox().TryAcquire(); !ok {
		t.Fatalf("expected mailbox to be free after setup")
	} else {
		lease.Release()
	}
}

func TestInvokeWritesParametersAndHoldsLease(t *testing.T) {
	script := `mkdir -p results
cp LCA_parameters.json results/seen_params.txt
echo '{"fitness": 1.5, "run_time": 2}' > results/MO_LCA_result.json
test $# -eq 0
`
	inv, dir := newShellInvoker(t, script, "10s")

	if err := os.MkdirAll(filepath.Join(dir, "results"), 0o755); err != nil {
		t.Fatalf("failed to create results dir: %v", err)
	}
	stale := filepath.Join(dir, "results", "cost_LCA_result.json")
	if err := os.WriteFile(stale, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("failed to write stale file: %v", err)
	}

	desc := models.RunDescriptor{Index: 7, L: 10, S: 20, PC: 0.3, PSI1: 0.2, PSI2: 1}
	arts, err := inv.Invoke(context.Background(), desc)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if arts.ResultsDir != filepath.Join(dir, "results") || arts.FitnessDir != filepath.Join(dir, "lca") {
		t.Fatalf("unexpected artifact locations: %+v", arts)
	}
	if arts.StartedAt.IsZero() || arts.StartedAt.After(time.Now()) {
		t.Fatalf("expected the launch time on the artifacts, got %v", arts.StartedAt)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale result to be removed, stat err=%v", err)
	}
	seen, err := os.ReadFile(filepath.Join(dir, "results", "seen_params.txt"))
	if err != nil {
		t.Fatalf("optimiser did not see the parameter file: %v", err)
	}
	if !strings.Contains(string(seen), `"p_c": 0.3`) {
		t.Fatalf("parameter file missing p_c: %s", seen)
	}

	if _, ok := inv.Mailbox().TryAcquire(); ok {
		t.Fatalf("expected mailbox to stay held until artifacts are released")
	}
	arts.Release()
	if lease, ok := inv.Mailbox().TryAcquire(); !ok {
		t.Fatalf("expected mailbox to be free after release")
	} else {
		lease.Release()
	}
}

func TestInvokeFailureReleasesLease(t *testing.T) {
	inv, _ := newShellInvoker(t, "echo 'solver exploded' >&2\nexit 3\n", "10s")

	_, err := inv.Invoke(context.Background(), models.RunDescriptor{Index: 2})
	var runErr *RunInvocationError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected RunInvocationError, got %v", err)
	}
	if runErr.RunIndex != 2 || runErr.Stage != "execute" {
		t.Fatalf("unexpected error fields: %+v", runErr)
	}
	if !strings.Contains(err.Error(), "solver exploded") {
		t.Fatalf("expected stderr in error, got %v", err)
	}

	if lease, ok := inv.Mailbox().TryAcquire(); !ok {
		t.Fatalf("expected mailbox to be free after a failed run")
	} else {
		lease.Release()
	}
}

func TestInvokeTimeout(t *testing.T) {
	inv, _ := newShellInvoker(t, "exec sleep 5\n", "200ms")

	_, err := inv.Invoke(context.Background(), models.RunDescriptor{Index: 0})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	var runErr *RunInvocationError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected RunInvocationError, got %T", err)
	}
}

func TestInvokeParentDeadlineIsNotATimeout(t *testing.T) {
	inv, _ := newShellInvoker(t, "exec sleep 5\n", "30s")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := inv.Invoke(ctx, models.RunDescriptor{Index: 1})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("caller deadline reported as invocation timeout: %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestClearResults(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a_result.json", "a_sim_results.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	if err := ClearResults(dir); err != nil {
		t.Fatalf("ClearResults failed: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "notes.txt" {
		t.Fatalf("expected only notes.txt to remain, got %v", entries)
	}

	if err := ClearResults(filepath.Join(dir, "missing")); err != nil {
		t.Fatalf("expected missing dir to be ignored, got %v", err)
	}
}

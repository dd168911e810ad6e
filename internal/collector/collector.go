package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/lca-sweep/internal/invoker"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/logger"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

var resultFilePattern = regexp.MustCompile(`^(.+?)_(result|sim_results)\.json$`)

// MissingArtifactError reports result files that are absent or unreadable
type MissingArtifactError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MissingArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing artifact %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("missing artifact %s: %s", e.Path, e.Reason)
}

func (e *MissingArtifactError) Unwrap() error {
	return e.Err
}

type resultFile struct {
	Fitness float64 `json:"fitness"`
	RunTime float64 `json:"run_time"`
}

type simFile struct {
	Makespan       float64 `json:"makespan"`
	TotalCost      float64 `json:"totalCost"`
	ProcessingCost float64 `json:"processingCost"`
	VMCount        float64 `json:"vmCount"`
}

type filePair struct {
	result string
	sim    string
}

// Collector reads the artifacts of one optimiser run
type Collector struct{}

// New creates a Collector
func New() *Collector {
	return &Collector{}
}

// Collect pairs every <algo>_result.json with its <algo>_sim_results.json and
// attaches the algorithm's fitness log when one exists.
func (c *Collector) Collect(arts invoker.Artifacts) (map[string]models.AlgorithmResult, error) {
	entries, err := os.ReadDir(arts.ResultsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &MissingArtifactError{Path: arts.ResultsDir, Reason: "results directory does not exist"}
		}
		return nil, &MissingArtifactError{Path: arts.ResultsDir, Reason: "results directory unreadable", Err: err}
	}

	pairs := make(map[string]*filePair)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := resultFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		p, ok := pairs[m[1]]
		if !ok {
			p = &filePair{}
			pairs[m[1]] = p
		}
		path := filepath.Join(arts.ResultsDir, e.Name())
		if m[2] == "result" {
			p.result = path
		} else {
			p.sim = path
		}
	}
	if len(pairs) == 0 {
		return nil, &MissingArtifactError{Path: arts.ResultsDir, Reason: "no result files produced"}
	}

	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)

	fitnessLogs := listFitnessLogs(arts.FitnessDir, arts.StartedAt)

	results := make(map[string]models.AlgorithmResult, len(pairs))
	for _, name := range names {
		p := pairs[name]
		if p.result == "" {
			return nil, &MissingArtifactError{Path: filepath.Join(arts.ResultsDir, name+"_result.json"), Reason: "result file missing for algorithm " + name}
		}
		if p.sim == "" {
			return nil, &MissingArtifactError{Path: filepath.Join(arts.ResultsDir, name+"_sim_results.json"), Reason: "simulation result missing for algorithm " + name}
		}

		var rf resultFile
		if err := readJSON(p.result, &rf); err != nil {
			return nil, err
		}
		var sf simFile
		if err := readJSON(p.sim, &sf); err != nil {
			return nil, err
		}

		res := models.AlgorithmResult{
			Fitness:        rf.Fitness,
			RunTime:        rf.RunTime,
			Makespan:       sf.Makespan,
			TotalCost:      sf.TotalCost,
			ProcessingCost: sf.ProcessingCost,
			VMCount:        int(sf.VMCount),
		}
		if path, ok := fitnessLogs[strings.ToLower(name)]; ok {
			series, err := readFitnessLog(path)
			if err != nil {
				logger.Warn("failed to read fitness log", "algorithm", name, "path", path, "error", err)
			} else if len(series) > 0 {
				res.FitnessSeries = series
			}
		}
		results[name] = res
	}
	return results, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &MissingArtifactError{Path: path, Reason: "unreadable", Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &MissingArtifactError{Path: path, Reason: "malformed JSON", Err: err}
	}
	return nil
}

// listFitnessLogs maps lower-cased algorithm names to their .txt logs.
// The optimiser names logs Cost_LCA.txt while results use cost_LCA. Logs
// last modified before since are left out; since is truncated to the second
// for filesystems with coarse mtimes.
func listFitnessLogs(dir string, since time.Time) map[string]string {
	logs := make(map[string]string)
	if dir == "" {
		return logs
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return logs
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		if !since.IsZero() {
			info, err := e.Info()
			if err != nil || info.ModTime().Before(since.Truncate(time.Second)) {
				logger.Debug("ignoring stale fitness log", "path", filepath.Join(dir, e.Name()))
				continue
			}
		}
		name := strings.TrimSuffix(e.Name(), ".txt")
		logs[strings.ToLower(name)] = filepath.Join(dir, e.Name())
	}
	return logs
}

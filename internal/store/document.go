package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/utils"
)

// SchemaVersion is the version of the results document written by Flush.
//
// Version history:
//   - 0: bare array of runs ({L, S, results}), one implicit group
//   - 1: bare array of groups ({config, results})
//   - 2: {"schema_version": 2, "groups": [...]} with typed group configs
const SchemaVersion = 2

const (
	resultSuffix = "_result"
	simSuffix    = "_sim_results"
)

type document struct {
	SchemaVersion int           `json:"schema_version"`
	Groups        []groupRecord `json:"groups"`
}

type groupRecord struct {
	ID           string              `json:"id"`
	Name         string              `json:"name,omitempty"`
	Config       *models.GroupConfig `json:"config,omitempty"`
	LegacyConfig json.RawMessage     `json:"legacy_config,omitempty"`
	Results      []runRecord         `json:"results"`
}

type legacyGroupRecord struct {
	Config  json.RawMessage `json:"config"`
	Results []runRecord     `json:"results"`
}

type runRecord struct {
	RunID            string       `json:"run_id,omitempty"`
	Index            *int         `json:"index,omitempty"`
	L                float64      `json:"L"`
	S                float64      `json:"S"`
	PC               float64      `json:"p_c"`
	PSI1             float64      `json:"PSI1"`
	PSI2             float64      `json:"PSI2"`
	Q0               *float64     `json:"q0,omitempty"`
	ConfigType       int          `json:"config_type"`
	CostConfigType   int          `json:"cost_config_type,omitempty"`
	VMSchedulingMode string       `json:"vm_scheduling_mode,omitempty"`
	Results          bundleRecord `json:"results"`
}

// bundleRecord keeps the file-named keys the dashboard reads:
// result["MO_LCA_result"], simResult["MO_LCA_sim_results"].
type bundleRecord struct {
	Result    map[string]resultRecord         `json:"result"`
	SimResult map[string]simRecord            `json:"simResult"`
	Fitness   map[string][]models.FitnessPoint `json:"fitness,omitempty"`
}

type resultRecord struct {
	Fitness float64 `json:"fitness"`
	RunTime float64 `json:"run_time"`
}

type simRecord struct {
	Makespan       float64 `json:"makespan"`
	TotalCost      float64 `json:"totalCost"`
	ProcessingCost float64 `json:"processingCost"`
	VMCount        float64 `json:"vmCount"`
}

// EncodeDocument renders groups as a current-version results document
func EncodeDocument(groups []models.ExperimentGroup) ([]byte, error) {
	doc := document{SchemaVersion: SchemaVersion, Groups: make([]groupRecord, 0, len(groups))}
	for _, g := range groups {
		rec := groupRecord{
			ID:      g.ID,
			Name:    g.Name,
			Results: make([]runRecord, 0, len(g.Results)),
		}
		if len(g.LegacyConfig) > 0 {
			rec.LegacyConfig = g.LegacyConfig
		} else {
			cfg := g.Config
			rec.Config = &cfg
		}
		for _, r := range g.Results {
			rec.Results = append(rec.Results, encodeRun(r))
		}
		doc.Groups = append(doc.Groups, rec)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode results document: %w", err)
	}
	return data, nil
}

func encodeRun(r models.RunResult) runRecord {
	d := r.Descriptor
	index := d.Index
	rec := runRecord{
		RunID:            r.RunID,
		Index:            &index,
		L:                d.L,
		S:                d.S,
		PC:               d.PC,
		PSI1:             d.PSI1,
		PSI2:             d.PSI2,
		Q0:               d.Q0,
		ConfigType:       d.ConfigType,
		CostConfigType:   d.CostConfigType,
		VMSchedulingMode: d.VMSchedulingMode,
		Results: bundleRecord{
			Result:    make(map[string]resultRecord, len(r.Algorithms)),
			SimResult: make(map[string]simRecord, len(r.Algorithms)),
		},
	}
	for name, a := range r.Algorithms {
		rec.Results.Result[name+resultSuffix] = resultRecord{Fitness: a.Fitness, RunTime: a.RunTime}
		rec.Results.SimResult[name+simSuffix] = simRecord{
			Makespan:       a.Makespan,
			TotalCost:      a.TotalCost,
			ProcessingCost: a.ProcessingCost,
			VMCount:        float64(a.VMCount),
		}
		if len(a.FitnessSeries) > 0 {
			if rec.Results.Fitness == nil {
				rec.Results.Fitness = make(map[string][]models.FitnessPoint)
			}
			rec.Results.Fitness[name] = a.FitnessSeries
		}
	}
	return rec
}

// DecodeDocument parses a results document of any supported version
func DecodeDocument(data []byte) ([]models.ExperimentGroup, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '{':
		var doc document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode results document: %w", err)
		}
		if doc.SchemaVersion > SchemaVersion {
			return nil, fmt.Errorf("unsupported results schema_version %d", doc.SchemaVersion)
		}
		groups := make([]models.ExperimentGroup, 0, len(doc.Groups))
		for _, rec := range doc.Groups {
			g := models.ExperimentGroup{ID: rec.ID, Name: rec.Name}
			if rec.Config != nil {
				g.Config = *rec.Config
			}
			if len(rec.LegacyConfig) > 0 {
				raw, err := compactRaw(rec.LegacyConfig)
				if err != nil {
					return nil, err
				}
				g.LegacyConfig = raw
			}
			g.Results = decodeRuns(g.ID, rec.Results)
			groups = append(groups, g)
		}
		return groups, nil

	case '[':
		return decodeLegacy(trimmed)

	default:
		return nil, fmt.Errorf("failed to decode results document: unexpected leading %q", trimmed[0])
	}
}

// decodeLegacy migrates the bare-array documents of versions 0 and 1
func decodeLegacy(data []byte) ([]models.ExperimentGroup, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode legacy results document: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(items[0], &probe); err != nil {
		return nil, fmt.Errorf("failed to decode legacy results document: %w", err)
	}

	if _, flat := probe["L"]; flat {
		var runs []runRecord
		if err := json.Unmarshal(data, &runs); err != nil {
			return nil, fmt.Errorf("failed to decode legacy run list: %w", err)
		}
		const id = "legacy-0"
		return []models.ExperimentGroup{{ID: id, Name: "legacy", Results: decodeRuns(id, runs)}}, nil
	}

	var legacy []legacyGroupRecord
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to decode legacy group list: %w", err)
	}
	groups := make([]models.ExperimentGroup, 0, len(legacy))
	for i, rec := range legacy {
		id := fmt.Sprintf("legacy-%d", i)
		g := models.ExperimentGroup{ID: id, Name: "legacy"}
		if len(rec.Config) > 0 && string(rec.Config) != "null" {
			raw, err := compactRaw(rec.Config)
			if err != nil {
				return nil, err
			}
			g.LegacyConfig = raw
		}
		g.Results = decodeRuns(id, rec.Results)
		groups = append(groups, g)
	}
	return groups, nil
}

func decodeRuns(groupID string, recs []runRecord) []models.RunResult {
	var results []models.RunResult
	for i, rec := range recs {
		index := i
		if rec.Index != nil {
			index = *rec.Index
		}
		runID := rec.RunID
		if runID == "" {
			runID = utils.RunID(groupID, index)
		}
		results = append(results, models.RunResult{
			RunID: runID,
			Descriptor: models.RunDescriptor{
				Index:            index,
				ConfigType:       rec.ConfigType,
				CostConfigType:   rec.CostConfigType,
				VMSchedulingMode: rec.VMSchedulingMode,
				L:                rec.L,
				S:                rec.S,
				PC:               rec.PC,
				PSI1:             rec.PSI1,
				PSI2:             rec.PSI2,
				Q0:               rec.Q0,
			},
			Algorithms: decodeBundle(rec.Results),
		})
	}
	return results
}

func decodeBundle(b bundleRecord) map[string]models.AlgorithmResult {
	out := make(map[string]models.AlgorithmResult, len(b.Result))
	for key, r := range b.Result {
		name := strings.TrimSuffix(key, resultSuffix)
		a := out[name]
		a.Fitness = r.Fitness
		a.RunTime = r.RunTime
		out[name] = a
	}
	for key, s := range b.SimResult {
		name := strings.TrimSuffix(key, simSuffix)
		a := out[name]
		a.Makespan = s.Makespan
		a.TotalCost = s.TotalCost
		a.ProcessingCost = s.ProcessingCost
		a.VMCount = int(s.VMCount)
		out[name] = a
	}
	for name, series := range b.Fitness {
		if len(series) == 0 {
			continue
		}
		a := out[name]
		a.FitnessSeries = series
		out[name] = a
	}
	return out
}

func compactRaw(raw json.RawMessage) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("failed to decode legacy config: %w", err)
	}
	return json.RawMessage(buf.Bytes()), nil
}

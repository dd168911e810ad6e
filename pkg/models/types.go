package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Algorithm names written by the external optimiser into its result files.
const (
	AlgorithmMakespanLCA = "makespan_LCA"
	AlgorithmCostLCA     = "cost_LCA"
	AlgorithmMOLCA       = "MO_LCA"
)

// ConfigTypeAll is the config type sentinel meaning "every defined config type".
const ConfigTypeAll = -1

// ParameterKind selects how a ParameterSpec expands
type ParameterKind string

const (
	ParameterSingle ParameterKind = "single"
	ParameterRange  ParameterKind = "range"
)

// Range is an inclusive arithmetic range
type Range struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
	Step float64 `json:"step"`
}

// UnmarshalJSON accepts numbers and quoted numbers for every bound. A
// missing bound is zero.
func (r *Range) UnmarshalJSON(data []byte) error {
	var wire struct {
		From json.RawMessage `json:"from"`
		To   json.RawMessage `json:"to"`
		Step json.RawMessage `json:"step"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var out Range
	var err error
	if out.From, err = ParseFlexibleFloat(wire.From); err != nil {
		return fmt.Errorf("range from: %w", err)
	}
	if out.To, err = ParseFlexibleFloat(wire.To); err != nil {
		return fmt.Errorf("range to: %w", err)
	}
	if out.Step, err = ParseFlexibleFloat(wire.Step); err != nil {
		return fmt.Errorf("range step: %w", err)
	}
	*r = out
	return nil
}

// ParameterSpec is one swept parameter as submitted by the dashboard.
// Only Value is meaningful for single specs and only Range for range specs.
type ParameterSpec struct {
	Kind  ParameterKind
	Value float64
	Range Range
}

// Single returns a spec that expands to exactly one value
func Single(v float64) ParameterSpec {
	return ParameterSpec{Kind: ParameterSingle, Value: v}
}

// RangeOf returns a range spec
func RangeOf(from, to, step float64) ParameterSpec {
	return ParameterSpec{Kind: ParameterRange, Range: Range{From: from, To: to, Step: step}}
}

type parameterSpecJSON struct {
	Type  ParameterKind   `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the spec as {"type": ..., "value": ...}
func (p ParameterSpec) MarshalJSON() ([]byte, error) {
	var value any = p.Value
	if p.Kind == ParameterRange {
		value = p.Range
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(parameterSpecJSON{Type: p.Kind, Value: raw})
}

// UnmarshalJSON accepts {"type": "single", "value": 3} and
// {"type": "range", "value": {"from": 1, "to": 3, "step": 1}}. A bare number,
// quoted or not, is read as a single spec.
func (p *ParameterSpec) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*p = ParameterSpec{}
		return nil
	}
	if trimmed[0] != '{' {
		v, err := ParseFlexibleFloat(trimmed)
		if err != nil {
			return fmt.Errorf("failed to parse parameter spec: %w", err)
		}
		*p = Single(v)
		return nil
	}

	var wire parameterSpecJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to parse parameter spec: %w", err)
	}
	return p.decode(wire.Type, wire.Value)
}

// DecodeParameterSpec builds a spec from a kind and its raw value, the shape
// used by the legacy flat request ("L_type": "range", "L": {...}).
func DecodeParameterSpec(kind ParameterKind, value json.RawMessage) (ParameterSpec, error) {
	var p ParameterSpec
	err := p.decode(kind, value)
	return p, err
}

func (p *ParameterSpec) decode(kind ParameterKind, value json.RawMessage) error {
	kind = ParameterKind(strings.ToLower(string(kind)))
	switch kind {
	case ParameterSingle:
		v, err := ParseFlexibleFloat(value)
		if err != nil {
			return fmt.Errorf("failed to parse single value: %w", err)
		}
		*p = Single(v)
	case ParameterRange:
		var r Range
		if err := json.Unmarshal(value, &r); err != nil {
			return fmt.Errorf("failed to parse range value: %w", err)
		}
		*p = ParameterSpec{Kind: ParameterRange, Range: r}
	default:
		// Kept as-is so validation reports the unknown kind with context.
		*p = ParameterSpec{Kind: kind}
	}
	return nil
}

// String renders the spec for logs
func (p ParameterSpec) String() string {
	switch p.Kind {
	case ParameterSingle:
		return strconv.FormatFloat(p.Value, 'g', -1, 64)
	case ParameterRange:
		return fmt.Sprintf("%g..%g step %g", p.Range.From, p.Range.To, p.Range.Step)
	default:
		return fmt.Sprintf("<%s>", p.Kind)
	}
}

// ParseFlexibleFloat reads a JSON number or a string holding one. Form posts
// from the dashboard send both.
func ParseFlexibleFloat(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("must be a number")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("must be a number, got %q", s)
	}
	return v, nil
}

// ParseFlexibleInt reads a JSON integer or a string holding one
func ParseFlexibleInt(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("must be an integer, got %q", s)
	}
	return n, nil
}

// ConfigTypes lists the simulator config types a group runs under. Each
// entry is a concrete type or ConfigTypeAll. A bare value reads as a
// one-element list and a one-element list is written back bare, so
// documents with a scalar "config_type" keep their shape.
type ConfigTypes []int

// MarshalJSON implements json.Marshaler
func (c ConfigTypes) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	if c == nil {
		return []byte("null"), nil
	}
	return json.Marshal([]int(c))
}

// UnmarshalJSON accepts 3, "3", [2, 5] and ["2", "5"]
func (c *ConfigTypes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*c = nil
		return nil
	}
	if trimmed[0] != '[' {
		n, err := ParseFlexibleInt(trimmed)
		if err != nil {
			return err
		}
		*c = ConfigTypes{n}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	out := make(ConfigTypes, 0, len(items))
	for i, item := range items {
		n, err := ParseFlexibleInt(item)
		if err != nil {
			return fmt.Errorf("config_type[%d]: %w", i, err)
		}
		out = append(out, n)
	}
	*c = out
	return nil
}

// GroupConfig is the outer configuration shared by every run of an
// experiment group: the simulator selectors plus the LCA parameter specs.
type GroupConfig struct {
	ConfigTypes      ConfigTypes    `json:"config_type"`
	CostConfigType   int            `json:"cost_config_type"`
	VMSchedulingMode string         `json:"vm_scheduling_mode"`
	L                ParameterSpec  `json:"L"`
	S                ParameterSpec  `json:"S"`
	PC               ParameterSpec  `json:"p_c"`
	PSI1             ParameterSpec  `json:"PSI1"`
	PSI2             ParameterSpec  `json:"PSI2"`
	Q0               *ParameterSpec `json:"q0,omitempty"`
}

// RunDescriptor is one concrete point of a sweep
type RunDescriptor struct {
	Index            int      `json:"index"`
	ConfigType       int      `json:"config_type"`
	CostConfigType   int      `json:"cost_config_type"`
	VMSchedulingMode string   `json:"vm_scheduling_mode"`
	L                float64  `json:"L"`
	S                float64  `json:"S"`
	PC               float64  `json:"p_c"`
	PSI1             float64  `json:"PSI1"`
	PSI2             float64  `json:"PSI2"`
	Q0               *float64 `json:"q0,omitempty"`
}

// Key identifies the descriptor by its parameter values (index excluded).
func (d RunDescriptor) Key() string {
	q0 := "-"
	if d.Q0 != nil {
		q0 = strconv.FormatFloat(*d.Q0, 'g', -1, 64)
	}
	return fmt.Sprintf("ct=%d/cct=%d/vm=%s/L=%g/S=%g/pc=%g/psi1=%g/psi2=%g/q0=%s",
		d.ConfigType, d.CostConfigType, d.VMSchedulingMode, d.L, d.S, d.PC, d.PSI1, d.PSI2, q0)
}

// Parameters returns the payload of the parameter file read by the optimiser
func (d RunDescriptor) Parameters() LCAParameters {
	return LCAParameters{L: d.L, S: d.S, PC: d.PC, PSI1: d.PSI1, PSI2: d.PSI2, Q0: d.Q0}
}

// LCAParameters is the content of LCA_parameters.json
type LCAParameters struct {
	L    float64  `json:"L"`
	S    float64  `json:"S"`
	PC   float64  `json:"p_c"`
	PSI1 float64  `json:"PSI1"`
	PSI2 float64  `json:"PSI2"`
	Q0   *float64 `json:"q0,omitempty"`
}

// FitnessPoint is one line of a fitness-over-time log
type FitnessPoint struct {
	T       int     `json:"t"`
	Fitness float64 `json:"fitness"`
}

// AlgorithmResult merges an algorithm's optimiser output with its
// simulation output.
type AlgorithmResult struct {
	Fitness        float64        `json:"fitness"`
	RunTime        float64        `json:"run_time"`
	Makespan       float64        `json:"makespan"`
	TotalCost      float64        `json:"totalCost"`
	ProcessingCost float64        `json:"processingCost"`
	VMCount        int            `json:"vmCount"`
	FitnessSeries  []FitnessPoint `json:"fitness_series,omitempty"`
}

// RunResult is a descriptor together with what every algorithm produced for it
type RunResult struct {
	RunID      string                     `json:"run_id"`
	Descriptor RunDescriptor              `json:"descriptor"`
	Algorithms map[string]AlgorithmResult `json:"algorithms"`
}

// AlgorithmNames returns the algorithm keys in sorted order
func (r RunResult) AlgorithmNames() []string {
	names := make([]string, 0, len(r.Algorithms))
	for name := range r.Algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExperimentGroup collects the results of one outer configuration.
// LegacyConfig carries the untyped config of documents written before
// configs were versioned; Config is zero in that case.
type ExperimentGroup struct {
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	Config       GroupConfig     `json:"config"`
	LegacyConfig json.RawMessage `json:"legacy_config,omitempty"`
	Results      []RunResult     `json:"results"`
}

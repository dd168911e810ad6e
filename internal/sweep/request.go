package sweep

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

// RequestSchemaVersion is the version written by SaveRunConfig and the UI
const RequestSchemaVersion = 1

// VM scheduling modes accepted by the simulator
const (
	VMSchedulingTime  = "time"
	VMSchedulingSpace = "space"
)

// Request is a sweep request: one or more LCA config groups, each expanded
// into its own experiment group.
type Request struct {
	SchemaVersion int                  `json:"schema_version"`
	Name          string               `json:"name,omitempty"`
	Groups        []models.GroupConfig `json:"LCA_configs"`
}

// selectorKeys are the simulator selectors a grouped request may set once
// at the top level for all of its LCA_configs entries.
var selectorKeys = []string{"config_type", "cost_config_type", "vm_scheduling_mode"}

// ParseRequest decodes a sweep request. Three shapes are accepted:
//
//   - the versioned request, {"schema_version": 1, "LCA_configs": [{...}]}
//   - the grouped dashboard payload, where the selectors sit next to
//     LCA_configs and each entry uses "L_type" + "L" pairs
//   - the flat run_config.json ({"L_type": "range", "L": {...}, ...}), which
//     becomes a single group
//
// Selectors set on an entry take precedence over the top-level ones.
func ParseRequest(data []byte) (Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Request{}, fmt.Errorf("failed to parse sweep request: %w", err)
	}

	var req Request
	if raw, ok := fields["schema_version"]; ok {
		v, err := models.ParseFlexibleInt(raw)
		if err != nil {
			return Request{}, &InvalidSpecError{Field: "schema_version", Reason: err.Error()}
		}
		req.SchemaVersion = v
	}
	if raw, ok := fields["name"]; ok {
		if err := json.Unmarshal(raw, &req.Name); err != nil {
			return Request{}, &InvalidSpecError{Field: "name", Reason: "must be a string"}
		}
	}

	if rawGroups, ok := fields["LCA_configs"]; ok {
		var entries []map[string]json.RawMessage
		if err := json.Unmarshal(rawGroups, &entries); err != nil {
			return Request{}, fmt.Errorf("failed to parse LCA_configs: %w", err)
		}
		for i, entry := range entries {
			group, err := parseGroup(entry, fields)
			if err != nil {
				return Request{}, fmt.Errorf("LCA_configs[%d]: %w", i, err)
			}
			req.Groups = append(req.Groups, group)
		}
	} else {
		group, err := parseGroup(fields, nil)
		if err != nil {
			return Request{}, err
		}
		req.Groups = []models.GroupConfig{group}
	}

	if req.SchemaVersion == 0 {
		req.SchemaVersion = RequestSchemaVersion
	}
	if req.SchemaVersion > RequestSchemaVersion {
		return Request{}, &InvalidSpecError{Field: "schema_version", Reason: fmt.Sprintf("unsupported version %d", req.SchemaVersion)}
	}
	for i := range req.Groups {
		applyGroupDefaults(&req.Groups[i])
	}
	return req, nil
}

// parseGroup reads one group config from fields, falling back to outer for
// the simulator selectors.
func parseGroup(fields, outer map[string]json.RawMessage) (models.GroupConfig, error) {
	var cfg models.GroupConfig
	var err error

	if cfg.L, err = paramSpec(fields, "L"); err != nil {
		return cfg, err
	}
	if cfg.S, err = paramSpec(fields, "S"); err != nil {
		return cfg, err
	}
	if cfg.PC, err = paramSpec(fields, "p_c"); err != nil {
		return cfg, err
	}
	if cfg.PSI1, err = paramSpec(fields, "PSI1"); err != nil {
		return cfg, err
	}
	if cfg.PSI2, err = paramSpec(fields, "PSI2"); err != nil {
		return cfg, err
	}
	if _, ok := fields["q0"]; ok {
		q0, err := paramSpec(fields, "q0")
		if err != nil {
			return cfg, err
		}
		cfg.Q0 = &q0
	}

	selectors := make(map[string]json.RawMessage, len(selectorKeys))
	for _, key := range selectorKeys {
		if raw, ok := fields[key]; ok {
			selectors[key] = raw
		} else if raw, ok := outer[key]; ok {
			selectors[key] = raw
		}
	}
	if raw, ok := selectors["config_type"]; ok {
		if err := json.Unmarshal(raw, &cfg.ConfigTypes); err != nil {
			return cfg, &InvalidSpecError{Field: "config_type", Reason: err.Error()}
		}
	}
	if cfg.CostConfigType, err = models.ParseFlexibleInt(selectors["cost_config_type"]); err != nil {
		return cfg, &InvalidSpecError{Field: "cost_config_type", Reason: err.Error()}
	}
	if raw, ok := selectors["vm_scheduling_mode"]; ok {
		if err := json.Unmarshal(raw, &cfg.VMSchedulingMode); err != nil {
			return cfg, &InvalidSpecError{Field: "vm_scheduling_mode", Reason: "must be a string"}
		}
	}
	return cfg, nil
}

// paramSpec reads name and its optional name_type companion
func paramSpec(fields map[string]json.RawMessage, name string) (models.ParameterSpec, error) {
	raw, ok := fields[name]
	if !ok {
		return models.ParameterSpec{}, nil
	}

	var spec models.ParameterSpec
	var err error
	if rawKind, ok := fields[name+"_type"]; ok {
		var kind string
		if err := json.Unmarshal(rawKind, &kind); err != nil {
			return spec, &InvalidSpecError{Field: name + "_type", Reason: "must be a string"}
		}
		spec, err = models.DecodeParameterSpec(models.ParameterKind(kind), raw)
	} else {
		err = json.Unmarshal(raw, &spec)
	}
	if err != nil {
		return spec, &InvalidSpecError{Field: name, Reason: err.Error()}
	}
	return spec, nil
}

func applyGroupDefaults(cfg *models.GroupConfig) {
	if cfg.CostConfigType == 0 {
		cfg.CostConfigType = 1
	}
	if cfg.VMSchedulingMode == "" {
		cfg.VMSchedulingMode = VMSchedulingTime
	}
	cfg.VMSchedulingMode = strings.ToLower(cfg.VMSchedulingMode)
}

// Validate checks every group of the request
func (r Request) Validate(configTypeCount int) error {
	if len(r.Groups) == 0 {
		return &InvalidSpecError{Field: "LCA_configs", Reason: "at least one config group is required"}
	}
	for i, g := range r.Groups {
		if err := ValidateGroup(g, configTypeCount); err != nil {
			return fmt.Errorf("group %d: %w", i, err)
		}
	}
	return nil
}

// ValidateGroup applies the dashboard form rules to one group config
func ValidateGroup(cfg models.GroupConfig, configTypeCount int) error {
	if len(cfg.ConfigTypes) == 0 {
		return &InvalidSpecError{Field: "config_type", Reason: "at least one config type is required"}
	}
	for _, ct := range cfg.ConfigTypes {
		if ct != models.ConfigTypeAll && (ct < 1 || ct > configTypeCount) {
			return &InvalidSpecError{Field: "config_type", Reason: fmt.Sprintf("must be between 1 and %d or %d for all types, got %d", configTypeCount, models.ConfigTypeAll, ct)}
		}
	}
	if cfg.CostConfigType != 1 && cfg.CostConfigType != 2 {
		return &InvalidSpecError{Field: "cost_config_type", Reason: "must be 1 or 2"}
	}
	if cfg.VMSchedulingMode != VMSchedulingTime && cfg.VMSchedulingMode != VMSchedulingSpace {
		return &InvalidSpecError{Field: "vm_scheduling_mode", Reason: fmt.Sprintf("must be %q or %q", VMSchedulingTime, VMSchedulingSpace)}
	}

	checks := []struct {
		name  string
		spec  models.ParameterSpec
		check func(float64) bool
		rule  string
	}{
		{"L", cfg.L, func(v float64) bool { return v > 0 }, "must be positive"},
		{"S", cfg.S, func(v float64) bool { return v > 0 }, "must be positive"},
		{"p_c", cfg.PC, func(v float64) bool { return v > 0 && v < 1 }, "must be between 0 and 1 (exclusive)"},
		{"PSI1", cfg.PSI1, func(v float64) bool { return v >= 0 && v <= 1 }, "must be between 0 and 1"},
		{"PSI2", cfg.PSI2, func(v float64) bool { return v >= 0 && v <= 1 }, "must be between 0 and 1"},
	}
	for _, c := range checks {
		values, err := expandField(c.name, c.spec)
		if err != nil {
			return err
		}
		for _, v := range values {
			if !c.check(v) {
				return &InvalidSpecError{Field: c.name, Reason: fmt.Sprintf("%s, got %g", c.rule, v)}
			}
		}
	}
	if cfg.Q0 != nil {
		if _, err := expandField("q0", *cfg.Q0); err != nil {
			return err
		}
	}
	return nil
}

package sweep

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

func TestParseRequestVersioned(t *testing.T) {
	data := `{
		"schema_version": 1,
		"name": "nightly",
		"LCA_configs": [{
			"config_type": -1,
			"cost_config_type": 2,
			"vm_scheduling_mode": "Space",
			"L": {"type": "range", "value": {"from": 10, "to": 30, "step": 10}},
			"S": {"type": "single", "value": 20},
			"p_c": 0.3,
			"PSI1": {"type": "single", "value": 0.2},
			"PSI2": {"type": "single", "value": 1}
		}]
	}`

	req, err := ParseRequest([]byte(data))
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Name != "nightly" || len(req.Groups) != 1 {
		t.Fatalf("unexpected request: %+v", req)
	}
	g := req.Groups[0]
	if !reflect.DeepEqual(g.ConfigTypes, models.ConfigTypes{models.ConfigTypeAll}) || g.CostConfigType != 2 || g.VMSchedulingMode != VMSchedulingSpace {
		t.Fatalf("unexpected selectors: %+v", g)
	}
	if g.L != models.RangeOf(10, 30, 10) || g.PC != models.Single(0.3) {
		t.Fatalf("unexpected specs: L=%v p_c=%v", g.L, g.PC)
	}
	if err := req.Validate(9); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestParseRequestLegacyFlat(t *testing.T) {
	data := `{
		"L_type": "range", "L": {"from": 10, "to": 20, "step": 5},
		"S_type": "single", "S": 30,
		"p_c": 0.4, "PSI1": 0.1, "PSI2": 0.9,
		"config_type": "3", "cost_config_type": 1, "vm_scheduling_mode": "time"
	}`

	req, err := ParseRequest([]byte(data))
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.SchemaVersion != RequestSchemaVersion || len(req.Groups) != 1 {
		t.Fatalf("expected a single migrated group, got %+v", req)
	}
	g := req.Groups[0]
	if !reflect.DeepEqual(g.ConfigTypes, models.ConfigTypes{3}) || g.L != models.RangeOf(10, 20, 5) || g.S != models.Single(30) || g.PSI2 != models.Single(0.9) {
		t.Fatalf("unexpected migrated group: %+v", g)
	}
	if g.Q0 != nil {
		t.Fatalf("expected no q0")
	}

	grid, err := BuildGrid(g, 9)
	if err != nil || len(grid) != 3 {
		t.Fatalf("expected 3 runs from migrated request, got %d (%v)", len(grid), err)
	}
}

func TestParseRequestGroupedDashboardPayload(t *testing.T) {
	data := `{
		"config_type": 1,
		"cost_config_type": 1,
		"vm_scheduling_mode": "time",
		"LCA_configs": [
			{
				"L_type": "single", "S_type": "single", "p_c_type": "single",
				"PSI1_type": "single", "PSI2_type": "single", "q0_type": "single",
				"L": 20, "S": 20, "p_c": 0.3, "PSI1": 0.2, "PSI2": 1, "q0": 1
			},
			{
				"config_type": "4",
				"L_type": "range", "L": {"from": 10, "to": 30, "step": 10},
				"S_type": "single", "S": "5",
				"p_c": 0.3, "PSI1": 0.2, "PSI2": 1
			}
		]
	}`

	req, err := ParseRequest([]byte(data))
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if len(req.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(req.Groups))
	}
	if err := req.Validate(9); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	first := req.Groups[0]
	if !reflect.DeepEqual(first.ConfigTypes, models.ConfigTypes{1}) || first.CostConfigType != 1 || first.VMSchedulingMode != VMSchedulingTime {
		t.Fatalf("top-level selectors not inherited: %+v", first)
	}
	if first.L != models.Single(20) || first.Q0 == nil || *first.Q0 != models.Single(1) {
		t.Fatalf("unexpected first group specs: %+v", first)
	}

	second := req.Groups[1]
	if !reflect.DeepEqual(second.ConfigTypes, models.ConfigTypes{4}) {
		t.Fatalf("entry config_type should override the top level, got %v", second.ConfigTypes)
	}
	if second.L != models.RangeOf(10, 30, 10) || second.S != models.Single(5) {
		t.Fatalf("unexpected second group specs: L=%v S=%v", second.L, second.S)
	}
	grid, err := BuildGrid(second, 9)
	if err != nil || len(grid) != 3 {
		t.Fatalf("expected 3 runs for the second group, got %d (%v)", len(grid), err)
	}
}

func TestParseRequestConfigTypeList(t *testing.T) {
	data := `{"LCA_configs": [{"config_type": [2, "5"], "L": 1, "S": 1, "p_c": 0.5, "PSI1": 0, "PSI2": 0}]}`
	req, err := ParseRequest([]byte(data))
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if got := req.Groups[0].ConfigTypes; !reflect.DeepEqual(got, models.ConfigTypes{2, 5}) {
		t.Fatalf("expected [2 5], got %v", got)
	}
}

func TestParseRequestDefaults(t *testing.T) {
	req, err := ParseRequest([]byte(`{"LCA_configs": [{"config_type": 1, "L": 1, "S": 1, "p_c": 0.5, "PSI1": 0, "PSI2": 0}]}`))
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	g := req.Groups[0]
	if g.CostConfigType != 1 || g.VMSchedulingMode != VMSchedulingTime {
		t.Fatalf("expected defaults cost_config_type=1 vm=time, got %d %q", g.CostConfigType, g.VMSchedulingMode)
	}
}

func TestParseRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"future version", `{"schema_version": 9, "LCA_configs": []}`},
		{"bad legacy kind value", `{"L_type": "range", "L": 5}`},
		{"bad config type", `{"L": 1, "config_type": "three"}`},
		{"bad config type list", `{"LCA_configs": [{"L": 1, "config_type": [1, "x"]}]}`},
		{"groups not a list", `{"LCA_configs": {"L": 1}}`},
		{"bad grouped range", `{"config_type": 1, "LCA_configs": [{"L_type": "range", "L": 5}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRequest([]byte(tt.data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestValidateGroup(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.GroupConfig)
		field  string
	}{
		{"valid", func(*models.GroupConfig) {}, ""},
		{"all types", func(g *models.GroupConfig) { g.ConfigTypes = models.ConfigTypes{models.ConfigTypeAll} }, ""},
		{"explicit types", func(g *models.GroupConfig) { g.ConfigTypes = models.ConfigTypes{2, 5} }, ""},
		{"no config type", func(g *models.GroupConfig) { g.ConfigTypes = nil }, "config_type"},
		{"config type zero", func(g *models.GroupConfig) { g.ConfigTypes = models.ConfigTypes{0} }, "config_type"},
		{"config type too high", func(g *models.GroupConfig) { g.ConfigTypes = models.ConfigTypes{1, 10} }, "config_type"},
		{"cost config type", func(g *models.GroupConfig) { g.CostConfigType = 3 }, "cost_config_type"},
		{"vm mode", func(g *models.GroupConfig) { g.VMSchedulingMode = "both" }, "vm_scheduling_mode"},
		{"p_c at one", func(g *models.GroupConfig) { g.PC = models.Single(1) }, "p_c"},
		{"p_c range touching zero", func(g *models.GroupConfig) { g.PC = models.RangeOf(0, 0.5, 0.1) }, "p_c"},
		{"PSI1 above one", func(g *models.GroupConfig) { g.PSI1 = models.Single(1.5) }, "PSI1"},
		{"PSI2 boundary", func(g *models.GroupConfig) { g.PSI2 = models.RangeOf(0, 1, 0.25) }, ""},
		{"L zero", func(g *models.GroupConfig) { g.L = models.Single(0) }, "L"},
		{"S missing", func(g *models.GroupConfig) { g.S = models.ParameterSpec{} }, "S"},
		{"q0 bad step", func(g *models.GroupConfig) { q := models.RangeOf(0, 1, 0); g.Q0 = &q }, "q0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := baseGroup()
			tt.mutate(&g)
			err := ValidateGroup(g, 9)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid group, got %v", err)
				}
				return
			}
			var specErr *InvalidSpecError
			if !errors.As(err, &specErr) {
				t.Fatalf("expected InvalidSpecError, got %v", err)
			}
			if specErr.Field != tt.field {
				t.Fatalf("expected field %s, got %s (%v)", tt.field, specErr.Field, err)
			}
		})
	}
}

func TestValidateEmptyRequest(t *testing.T) {
	err := Request{}.Validate(9)
	if err == nil || !strings.Contains(err.Error(), "LCA_configs") {
		t.Fatalf("expected LCA_configs error, got %v", err)
	}
}

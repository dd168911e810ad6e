package sweep

import "github.com/GoSim-25-26J-441/lca-sweep/pkg/models"

// ExpandConfigTypes resolves a config type list in order. The sentinel
// models.ConfigTypeAll expands to 1..count; any other entry is taken as is.
// A type listed twice runs once, at its first position.
func ExpandConfigTypes(configTypes []int, count int) []int {
	var types []int
	seen := make(map[int]bool)
	add := func(ct int) {
		if !seen[ct] {
			seen[ct] = true
			types = append(types, ct)
		}
	}
	for _, ct := range configTypes {
		if ct != models.ConfigTypeAll {
			add(ct)
			continue
		}
		for i := 1; i <= count; i++ {
			add(i)
		}
	}
	return types
}

type sweptParam struct {
	name   string
	values []float64
	assign func(d *models.RunDescriptor, v float64)
}

// BuildGrid crosses the group's parameters into run descriptors. Nesting,
// outer to inner: config type, L, S, p_c, PSI1, PSI2, q0. Index records the
// generation order.
func BuildGrid(cfg models.GroupConfig, configTypeCount int) ([]models.RunDescriptor, error) {
	params := []struct {
		name   string
		spec   models.ParameterSpec
		assign func(d *models.RunDescriptor, v float64)
	}{
		{"L", cfg.L, func(d *models.RunDescriptor, v float64) { d.L = v }},
		{"S", cfg.S, func(d *models.RunDescriptor, v float64) { d.S = v }},
		{"p_c", cfg.PC, func(d *models.RunDescriptor, v float64) { d.PC = v }},
		{"PSI1", cfg.PSI1, func(d *models.RunDescriptor, v float64) { d.PSI1 = v }},
		{"PSI2", cfg.PSI2, func(d *models.RunDescriptor, v float64) { d.PSI2 = v }},
	}
	if cfg.Q0 != nil {
		params = append(params, struct {
			name   string
			spec   models.ParameterSpec
			assign func(d *models.RunDescriptor, v float64)
		}{"q0", *cfg.Q0, func(d *models.RunDescriptor, v float64) {
			q0 := v
			d.Q0 = &q0
		}})
	}

	swept := make([]sweptParam, 0, len(params))
	total := 1
	for _, p := range params {
		values, err := expandField(p.name, p.spec)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return nil, &EmptyGridError{Field: p.name}
		}
		swept = append(swept, sweptParam{name: p.name, values: values, assign: p.assign})
		total *= len(values)
	}

	configTypes := ExpandConfigTypes(cfg.ConfigTypes, configTypeCount)
	if len(configTypes) == 0 {
		return nil, &EmptyGridError{Field: "config_type"}
	}

	grid := make([]models.RunDescriptor, 0, total*len(configTypes))
	for _, ct := range configTypes {
		base := models.RunDescriptor{
			ConfigType:       ct,
			CostConfigType:   cfg.CostConfigType,
			VMSchedulingMode: cfg.VMSchedulingMode,
		}
		grid = crossInto(grid, base, swept)
	}
	for i := range grid {
		grid[i].Index = i
	}
	return grid, nil
}

// crossInto appends the cartesian product of params to grid, with the first
// param varying slowest.
func crossInto(grid []models.RunDescriptor, base models.RunDescriptor, params []sweptParam) []models.RunDescriptor {
	if len(params) == 0 {
		return append(grid, base)
	}
	head, rest := params[0], params[1:]
	for _, v := range head.values {
		d := base
		head.assign(&d, v)
		grid = crossInto(grid, d, rest)
	}
	return grid
}

// Branch is the slice of a grid that shares one config type and therefore
// one setup pre-step.
type Branch struct {
	ConfigType int
	Runs       []models.RunDescriptor
}

// SplitByConfigType groups consecutive descriptors by config type
func SplitByConfigType(grid []models.RunDescriptor) []Branch {
	var branches []Branch
	for _, d := range grid {
		if n := len(branches); n > 0 && branches[n-1].ConfigType == d.ConfigType {
			branches[n-1].Runs = append(branches[n-1].Runs, d)
			continue
		}
		branches = append(branches, Branch{ConfigType: d.ConfigType, Runs: []models.RunDescriptor{d}})
	}
	return branches
}

package pareto

import (
	"errors"
	"math"
	"testing"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

func point(id string, cost, makespan float64) Point {
	return Point{RunID: id, Cost: cost, Makespan: makespan}
}

func TestDominates(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want bool
	}{
		{"better on both", point("a", 1, 1), point("b", 2, 2), true},
		{"better on cost only", point("a", 1, 2), point("b", 2, 2), true},
		{"better on makespan only", point("a", 2, 1), point("b", 2, 2), true},
		{"equal", point("a", 2, 2), point("b", 2, 2), false},
		{"trade-off", point("a", 1, 3), point("b", 2, 2), false},
		{"worse", point("a", 3, 3), point("b", 2, 2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dominates(tt.a, tt.b); got != tt.want {
				t.Errorf("Dominates(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestNonDominated(t *testing.T) {
	points := []Point{
		point("r0", 10, 100),
		point("r1", 20, 50),
		point("r2", 15, 120),
		point("r3", 10, 100),
		point("r4", 30, 40),
		point("r5", 25, 60),
	}

	front := NonDominated(points)
	var ids []string
	for _, p := range front {
		ids = append(ids, p.RunID)
	}
	want := []string{"r0", "r1", "r3", "r4"}
	if len(ids) != len(want) {
		t.Fatalf("expected front %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected front %v, got %v", want, ids)
		}
	}

	for _, p := range front {
		for _, q := range points {
			if Dominates(q, p) {
				t.Errorf("front point %s is dominated by %s", p.RunID, q.RunID)
			}
		}
	}
}

func TestFrontFiltersAlgorithm(t *testing.T) {
	results := []models.RunResult{
		{RunID: "a", Algorithms: map[string]models.AlgorithmResult{
			models.AlgorithmMOLCA:   {TotalCost: 5, Makespan: 50, Fitness: 0.1},
			models.AlgorithmCostLCA: {TotalCost: 1, Makespan: 1},
		}},
		{RunID: "b", Algorithms: map[string]models.AlgorithmResult{
			models.AlgorithmCostLCA: {TotalCost: 1, Makespan: 1},
		}},
		{RunID: "c", Algorithms: map[string]models.AlgorithmResult{
			models.AlgorithmMOLCA: {TotalCost: 6, Makespan: 60},
		}},
	}

	front := Front(results, models.AlgorithmMOLCA)
	if len(front) != 1 || front[0].RunID != "a" {
		t.Fatalf("expected only run a on the front, got %+v", front)
	}
	if front[0].Algorithm != models.AlgorithmMOLCA || front[0].Fitness != 0.1 {
		t.Fatalf("unexpected point fields: %+v", front[0])
	}

	if got := Front(nil, models.AlgorithmMOLCA); len(got) != 0 {
		t.Fatalf("expected empty front, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	all := []Point{
		{RunID: "r0", Cost: 10, Makespan: 100, RunTime: 1},
		{RunID: "r1", Cost: 20, Makespan: 50, RunTime: 2},
		{RunID: "r2", Cost: 10, Makespan: 100, RunTime: 3},
		{RunID: "r3", Cost: 40, Makespan: 150, RunTime: 6},
	}
	front := NonDominated(all)

	s, err := Summarize(front, all)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if s.BestCost.RunID != "r0" {
		t.Errorf("expected first minimal cost r0, got %s", s.BestCost.RunID)
	}
	if s.BestMakespan.RunID != "r1" {
		t.Errorf("expected best makespan r1, got %s", s.BestMakespan.RunID)
	}
	if s.FrontSize != 3 || s.Total != 4 {
		t.Errorf("expected front 3 of 4, got %d of %d", s.FrontSize, s.Total)
	}
	if math.Abs(s.Average.RunTime-3) > 1e-9 || math.Abs(s.Average.Makespan-100) > 1e-9 || math.Abs(s.Average.TotalCost-20) > 1e-9 {
		t.Errorf("unexpected averages: %+v", s.Average)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if _, err := Summarize(nil, nil); !errors.Is(err, ErrNoPoints) {
		t.Fatalf("expected ErrNoPoints, got %v", err)
	}
}

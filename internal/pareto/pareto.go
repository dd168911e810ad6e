package pareto

import (
	"errors"

	"gonum.org/v1/gonum/stat"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

// ErrNoPoints is returned when there is nothing to summarise
var ErrNoPoints = errors.New("no pareto points")

// Point is one run projected onto the (cost, makespan) plane
type Point struct {
	RunID      string               `json:"run_id"`
	Algorithm  string               `json:"algorithm"`
	Cost       float64              `json:"cost"`
	Makespan   float64              `json:"makespan"`
	Fitness    float64              `json:"fitness"`
	RunTime    float64              `json:"run_time"`
	Descriptor models.RunDescriptor `json:"descriptor"`
}

// Dominates reports whether a dominates b: no worse on both objectives and
// strictly better on at least one.
func Dominates(a, b Point) bool {
	return a.Cost <= b.Cost && a.Makespan <= b.Makespan &&
		(a.Cost < b.Cost || a.Makespan < b.Makespan)
}

// Points projects the results that carry algorithm, in input order
func Points(results []models.RunResult, algorithm string) []Point {
	points := make([]Point, 0, len(results))
	for _, r := range results {
		res, ok := r.Algorithms[algorithm]
		if !ok {
			continue
		}
		points = append(points, Point{
			RunID:      r.RunID,
			Algorithm:  algorithm,
			Cost:       res.TotalCost,
			Makespan:   res.Makespan,
			Fitness:    res.Fitness,
			RunTime:    res.RunTime,
			Descriptor: r.Descriptor,
		})
	}
	return points
}

// NonDominated keeps the points no other point dominates. Input order is
// preserved and equal points are all kept.
func NonDominated(points []Point) []Point {
	front := make([]Point, 0, len(points))
	for i, p := range points {
		dominated := false
		for j, q := range points {
			if i != j && Dominates(q, p) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, p)
		}
	}
	return front
}

// Front returns the Pareto front over the results of one algorithm
func Front(results []models.RunResult, algorithm string) []Point {
	return NonDominated(Points(results, algorithm))
}

// Average holds means over every point, not just the front
type Average struct {
	RunTime   float64 `json:"run_time"`
	Makespan  float64 `json:"makespan"`
	TotalCost float64 `json:"totalCost"`
}

// Summary highlights the extremes of a front
type Summary struct {
	BestCost     Point   `json:"best_cost"`
	BestMakespan Point   `json:"best_makespan"`
	Average      Average `json:"average"`
	FrontSize    int     `json:"front_size"`
	Total        int     `json:"total"`
}

// Summarize picks the lowest-cost and lowest-makespan front points (first
// wins on ties) and averages run time, makespan and cost over all.
func Summarize(front, all []Point) (Summary, error) {
	if len(front) == 0 || len(all) == 0 {
		return Summary{}, ErrNoPoints
	}

	bestCost, bestMakespan := front[0], front[0]
	for _, p := range front[1:] {
		if p.Cost < bestCost.Cost {
			bestCost = p
		}
		if p.Makespan < bestMakespan.Makespan {
			bestMakespan = p
		}
	}

	runTimes := make([]float64, len(all))
	makespans := make([]float64, len(all))
	costs := make([]float64, len(all))
	for i, p := range all {
		runTimes[i] = p.RunTime
		makespans[i] = p.Makespan
		costs[i] = p.Cost
	}

	return Summary{
		BestCost:     bestCost,
		BestMakespan: bestMakespan,
		Average: Average{
			RunTime:   stat.Mean(runTimes, nil),
			Makespan:  stat.Mean(makespans, nil),
			TotalCost: stat.Mean(costs, nil),
		},
		FrontSize: len(front),
		Total:     len(all),
	}, nil
}

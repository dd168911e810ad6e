package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

// StoreLoader reads the persisted experiment groups
type StoreLoader func() ([]models.ExperimentGroup, error)

// StoreCollector exports the contents of the results document. It reloads
// the document on every scrape so runs flushed by another process show up.
type StoreCollector struct {
	load    StoreLoader
	groups  *prometheus.Desc
	runs    *prometheus.Desc
	results *prometheus.Desc
}

// NewStoreCollector creates a collector over load
func NewStoreCollector(load StoreLoader) *StoreCollector {
	return &StoreCollector{
		load: load,
		groups: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "groups"),
			"Experiment groups in the results document.",
			nil, nil),
		runs: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "runs"),
			"Stored runs by config type.",
			[]string{"config_type"}, nil),
		results: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "algorithm_results"),
			"Stored algorithm results by algorithm.",
			[]string{"algorithm"}, nil),
	}
}

// Describe implements prometheus.Collector
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.groups
	ch <- c.runs
	ch <- c.results
}

// Collect implements prometheus.Collector
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	groups, err := c.load()
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.groups, err)
		return
	}

	runs := make(map[int]int)
	results := make(map[string]int)
	for _, g := range groups {
		for _, r := range g.Results {
			runs[r.Descriptor.ConfigType]++
			for name := range r.Algorithms {
				results[name]++
			}
		}
	}

	ch <- prometheus.MustNewConstMetric(c.groups, prometheus.GaugeValue, float64(len(groups)))
	for ct, n := range runs {
		ch <- prometheus.MustNewConstMetric(c.runs, prometheus.GaugeValue, float64(n), strconv.Itoa(ct))
	}
	for name, n := range results {
		ch <- prometheus.MustNewConstMetric(c.results, prometheus.GaugeValue, float64(n), name)
	}
}

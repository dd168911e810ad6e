package config

import (
	"path/filepath"
	"time"
)

// Config represents the orchestrator configuration
type Config struct {
	LogLevel  string    `yaml:"log_level"`
	LogFormat string    `yaml:"log_format"` // text or json
	Workspace Workspace `yaml:"workspace"`
	Invoker   Invoker   `yaml:"invoker"`
	Sweep     Sweep     `yaml:"sweep"`
	GRPC      GRPC      `yaml:"grpc"`
	Metrics   Metrics   `yaml:"metrics"`
	Notify    Notify    `yaml:"notify"`
}

// Workspace locates the files shared with the external optimiser.
// Relative paths are resolved against MainDir.
type Workspace struct {
	MainDir        string `yaml:"main_dir"`
	ResultsDir     string `yaml:"results_dir"`
	FitnessDir     string `yaml:"fitness_dir"`
	ParametersFile string `yaml:"parameters_file"`
	StorePath      string `yaml:"store_path"`
	RunConfigsPath string `yaml:"run_configs_path"`
}

// Invoker configures how the optimiser process is started
type Invoker struct {
	Python  string `yaml:"python"`
	Script  string `yaml:"script"`
	Timeout string `yaml:"timeout"` // e.g. "30m"
	Retries int    `yaml:"retries"`
	Backoff string `yaml:"backoff"` // exponential, linear, constant
	BaseMs  int    `yaml:"base_ms"`
}

// Sweep holds settings for sweep expansion and aggregation
type Sweep struct {
	ConfigTypeCount         int      `yaml:"config_type_count"`
	MultiObjectiveAlgorithm string   `yaml:"multi_objective_algorithm"`
	FitnessLogs             []string `yaml:"fitness_logs"`
}

// GRPC configures the query service listener
type GRPC struct {
	Addr string `yaml:"addr"`
}

// Metrics configures the Prometheus listener. Empty Addr disables it.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Notify configures the sweep completion webhook. Empty CallbackURL disables it.
type Notify struct {
	CallbackURL    string `yaml:"callback_url"`
	CallbackSecret string `yaml:"callback_secret"`
}

// GetTimeout parses the per-invocation timeout
func (i *Invoker) GetTimeout() (time.Duration, error) {
	return time.ParseDuration(i.Timeout)
}

// Resolve returns p joined to the main dir unless p is absolute
func (w *Workspace) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(w.MainDir, p)
}

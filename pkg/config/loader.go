package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultConfigTypeCount = 9
	defaultTimeout         = "30m"
)

// LoadConfig loads and parses a configuration file. An empty path yields the
// defaults, with the main dir taken from $MAIN_DIR when set.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		applyDefaults(cfg)
		if err := validateConfig(cfg); err != nil {
			return nil, fmt.Errorf("invalid default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns a Config with every field at its default
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Invoker: Invoker{
			Python:  "python3",
			Script:  "run.py",
			Timeout: defaultTimeout,
			Backoff: "exponential",
			BaseMs:  1000,
		},
		Sweep: Sweep{
			ConfigTypeCount:         defaultConfigTypeCount,
			MultiObjectiveAlgorithm: "MO_LCA",
			FitnessLogs:             []string{"Cost_LCA", "Makespan_LCA", "MO_LCA"},
		},
		GRPC: GRPC{Addr: ":50051"},
	}
}

// applyDefaults fills fields left empty by the YAML document and resolves
// workspace paths against the main dir.
func applyDefaults(cfg *Config) {
	ws := &cfg.Workspace
	if ws.MainDir == "" {
		ws.MainDir = os.Getenv("MAIN_DIR")
	}
	if ws.MainDir == "" {
		ws.MainDir = "."
	}
	ws.MainDir = filepath.Clean(ws.MainDir)

	if ws.ResultsDir == "" {
		ws.ResultsDir = "results"
	}
	if ws.FitnessDir == "" {
		ws.FitnessDir = "lca"
	}
	if ws.ParametersFile == "" {
		ws.ParametersFile = "LCA_parameters.json"
	}
	if ws.StorePath == "" {
		ws.StorePath = "all_experiment_results.json"
	}
	if ws.RunConfigsPath == "" {
		ws.RunConfigsPath = "run_configs.json"
	}
	ws.ResultsDir = ws.Resolve(ws.ResultsDir)
	ws.FitnessDir = ws.Resolve(ws.FitnessDir)
	ws.ParametersFile = ws.Resolve(ws.ParametersFile)
	ws.StorePath = ws.Resolve(ws.StorePath)
	ws.RunConfigsPath = ws.Resolve(ws.RunConfigsPath)

	if cfg.Invoker.Python == "" {
		cfg.Invoker.Python = "python3"
	}
	if cfg.Invoker.Script == "" {
		cfg.Invoker.Script = "run.py"
	}
	cfg.Invoker.Script = ws.Resolve(cfg.Invoker.Script)
	if cfg.Invoker.Timeout == "" {
		cfg.Invoker.Timeout = defaultTimeout
	}
	if cfg.Invoker.Backoff == "" {
		cfg.Invoker.Backoff = "exponential"
	}
	if cfg.Sweep.ConfigTypeCount == 0 {
		cfg.Sweep.ConfigTypeCount = defaultConfigTypeCount
	}
	if cfg.Sweep.MultiObjectiveAlgorithm == "" {
		cfg.Sweep.MultiObjectiveAlgorithm = "MO_LCA"
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log_format: %s (must be text or json)", cfg.LogFormat)
	}

	if err := validateInvoker(&cfg.Invoker); err != nil {
		return fmt.Errorf("invoker validation failed: %w", err)
	}

	if cfg.Sweep.ConfigTypeCount < 1 {
		return fmt.Errorf("sweep config_type_count must be positive, got %d", cfg.Sweep.ConfigTypeCount)
	}
	for i, name := range cfg.Sweep.FitnessLogs {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("sweep fitness_logs[%d] cannot be empty", i)
		}
	}

	return nil
}

// validateInvoker validates the optimiser process settings
func validateInvoker(inv *Invoker) error {
	timeout, err := inv.GetTimeout()
	if err != nil {
		return fmt.Errorf("invalid timeout %s: %w", inv.Timeout, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", inv.Timeout)
	}
	if inv.Retries < 0 {
		return fmt.Errorf("retries cannot be negative, got %d", inv.Retries)
	}
	validBackoffs := map[string]bool{
		"exponential": true,
		"linear":      true,
		"constant":    true,
	}
	if !validBackoffs[inv.Backoff] {
		return fmt.Errorf("invalid backoff type: %s (must be exponential, linear, or constant)", inv.Backoff)
	}
	if inv.BaseMs < 0 {
		return fmt.Errorf("base_ms cannot be negative, got %d", inv.BaseMs)
	}
	return nil
}

package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/logger"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/utils"
)

// Simulator preset files read from the main dir
const (
	SimConfigFile     = "sim_config.json"
	SimCostConfigFile = "sim_cost_config.json"
)

// SimConfigs holds the simulator presets the dashboard offers
type SimConfigs struct {
	SimConfig     json.RawMessage `json:"simConfig,omitempty"`
	SimCostConfig json.RawMessage `json:"simCostConfig,omitempty"`
}

// ConfigStore keeps saved sweep requests in a JSON array file
type ConfigStore struct {
	mu      sync.Mutex
	path    string
	mainDir string
}

// NewConfigStore creates a store for run configs at path. Simulator presets
// are read from mainDir.
func NewConfigStore(path, mainDir string) *ConfigStore {
	return &ConfigStore{path: path, mainDir: mainDir}
}

// SaveRunConfig appends a request to the file and returns the new count. A
// file that does not hold an array is wrapped into one first.
func (c *ConfigStore) SaveRunConfig(raw []byte) (int, error) {
	entry, err := compactObject(raw)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	configs, err := c.read()
	if err != nil {
		logger.Warn("discarding unreadable run configs", "path", c.path, "error", err)
		configs = nil
	}
	configs = append(configs, entry)

	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to encode run configs: %w", err)
	}
	if err := utils.WriteFileAtomic(c.path, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to save run config: %w", err)
	}
	return len(configs), nil
}

// ListRunConfigs returns the saved requests in insertion order
func (c *ConfigStore) ListRunConfigs() ([]json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	configs, err := c.read()
	if err != nil {
		return nil, err
	}
	if configs == nil {
		configs = []json.RawMessage{}
	}
	return configs, nil
}

func (c *ConfigStore) read() ([]json.RawMessage, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read run configs: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var configs []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &configs); err != nil {
			return nil, fmt.Errorf("failed to parse run configs: %w", err)
		}
	} else {
		configs = []json.RawMessage{json.RawMessage(data)}
	}

	for i, raw := range configs {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, fmt.Errorf("failed to parse run config %d: %w", i, err)
		}
		configs[i] = buf.Bytes()
	}
	return configs, nil
}

// SimConfigs returns the simulator presets. A missing preset is left empty.
func (c *ConfigStore) SimConfigs() (SimConfigs, error) {
	var out SimConfigs
	var err error
	if out.SimConfig, err = readOptionalJSON(filepath.Join(c.mainDir, SimConfigFile)); err != nil {
		return SimConfigs{}, err
	}
	if out.SimCostConfig, err = readOptionalJSON(filepath.Join(c.mainDir, SimCostConfigFile)); err != nil {
		return SimConfigs{}, err
	}
	return out, nil
}

func readOptionalJSON(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

func compactObject(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("run config must be a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}
	return buf.Bytes(), nil
}

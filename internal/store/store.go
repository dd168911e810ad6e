package store

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/logger"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/utils"
)

// ErrGroupNotFound is returned when appending to an unknown group
var ErrGroupNotFound = errors.New("experiment group not found")

// PersistenceError reports a results document that could not be read or
// written.
type PersistenceError struct {
	Path string
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s results document %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ExperimentStore holds experiment groups in memory and persists them as a
// single JSON document. Groups and results are append-only.
type ExperimentStore struct {
	mu     sync.RWMutex
	path   string
	groups []*models.ExperimentGroup
	byID   map[string]*models.ExperimentGroup
}

// Open loads the document at path, or starts empty if it does not exist
func Open(path string) (*ExperimentStore, error) {
	s := &ExperimentStore{
		path: path,
		byID: make(map[string]*models.ExperimentGroup),
	}

	groups, err := readDocument(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	for i := range groups {
		g := groups[i]
		s.groups = append(s.groups, &g)
		s.byID[g.ID] = &g
	}
	logger.Debug("results document loaded", "path", path, "groups", len(groups))
	return s, nil
}

// Path returns the document location
func (s *ExperimentStore) Path() string {
	return s.path
}

// BeginGroup starts a new empty group and returns a copy of it
func (s *ExperimentStore) BeginGroup(cfg models.GroupConfig, name string) models.ExperimentGroup {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := &models.ExperimentGroup{
		ID:     utils.GenerateGroupID(),
		Name:   name,
		Config: cfg,
	}
	for s.byID[g.ID] != nil {
		g.ID = utils.GenerateGroupID()
	}
	s.groups = append(s.groups, g)
	s.byID[g.ID] = g
	return *g
}

// Append adds a result to the end of a group
func (s *ExperimentStore) Append(groupID string, result models.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.byID[groupID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	if result.RunID == "" {
		result.RunID = utils.RunID(groupID, result.Descriptor.Index)
	}
	g.Results = append(g.Results, result)
	return nil
}

// Groups returns a snapshot of every group in insertion order
func (s *ExperimentStore) Groups() []models.ExperimentGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ExperimentGroup, 0, len(s.groups))
	for _, g := range s.groups {
		c := *g
		if g.Results != nil {
			c.Results = append([]models.RunResult(nil), g.Results...)
		}
		out = append(out, c)
	}
	return out
}

// Group returns the group at index i
func (s *ExperimentStore) Group(i int) (models.ExperimentGroup, bool) {
	groups := s.Groups()
	if i < 0 || i >= len(groups) {
		return models.ExperimentGroup{}, false
	}
	return groups[i], true
}

// Flush writes every group to disk atomically
func (s *ExperimentStore) Flush() error {
	groups := s.Groups()

	data, err := EncodeDocument(groups)
	if err != nil {
		return &PersistenceError{Path: s.path, Op: "encode", Err: err}
	}
	if err := utils.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return &PersistenceError{Path: s.path, Op: "write", Err: err}
	}
	logger.Info("results document saved", "path", s.path, "groups", len(groups))
	return nil
}

// Load re-reads the document from disk
func (s *ExperimentStore) Load() ([]models.ExperimentGroup, error) {
	return Load(s.path)
}

// Load reads the results document at path. A missing file yields no groups.
func Load(path string) ([]models.ExperimentGroup, error) {
	groups, err := readDocument(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return groups, err
}

func readDocument(path string) ([]models.ExperimentGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, &PersistenceError{Path: path, Op: "read", Err: err}
	}
	groups, err := DecodeDocument(data)
	if err != nil {
		return nil, &PersistenceError{Path: path, Op: "decode", Err: err}
	}
	return groups, nil
}

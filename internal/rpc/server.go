package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/lca-sweep/internal/pareto"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/logger"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

// ResultsLoader reads the persisted experiment groups
type ResultsLoader interface {
	Load() ([]models.ExperimentGroup, error)
}

// RunConfigLister reads saved sweep requests
type RunConfigLister interface {
	ListRunConfigs() ([]json.RawMessage, error)
}

// FitnessReader returns the current fitness logs by name
type FitnessReader func() (map[string][]models.FitnessPoint, error)

// ExperimentServer implements ExperimentService over the results document
type ExperimentServer struct {
	results          ResultsLoader
	configs          RunConfigLister
	fitness          FitnessReader
	defaultAlgorithm string
}

// NewExperimentServer creates a server. defaultAlgorithm is used when a
// Pareto request names none.
func NewExperimentServer(results ResultsLoader, configs RunConfigLister, fitness FitnessReader, defaultAlgorithm string) *ExperimentServer {
	if defaultAlgorithm == "" {
		defaultAlgorithm = models.AlgorithmMOLCA
	}
	return &ExperimentServer{
		results:          results,
		configs:          configs,
		fitness:          fitness,
		defaultAlgorithm: defaultAlgorithm,
	}
}

// NewGRPCServer builds a grpc.Server serving srv and the standard health
// service, already marked as serving.
func NewGRPCServer(srv *ExperimentServer, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(opts...)
	RegisterExperimentService(s, srv)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s, hs
}

func (s *ExperimentServer) ListGroups(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	groups, err := s.results.Load()
	if err != nil {
		logger.Error("failed to load results", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	if groups == nil {
		groups = []models.ExperimentGroup{}
	}
	return toStruct(map[string]any{"groups": groups})
}

func (s *ExperimentServer) GetParetoFront(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	index, err := groupIndex(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	algorithm := req.GetFields()["algorithm"].GetStringValue()
	if algorithm == "" {
		algorithm = s.defaultAlgorithm
	}

	groups, err := s.results.Load()
	if err != nil {
		logger.Error("failed to load results", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	if index >= len(groups) {
		return nil, status.Errorf(codes.NotFound, "group %d not found (%d groups)", index, len(groups))
	}
	group := groups[index]

	all := pareto.Points(group.Results, algorithm)
	front := pareto.NonDominated(all)
	summary, err := pareto.Summarize(front, all)
	if errors.Is(err, pareto.ErrNoPoints) {
		return nil, status.Errorf(codes.FailedPrecondition, "group %d has no %s results", index, algorithm)
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return toStruct(map[string]any{
		"group_index": index,
		"group_id":    group.ID,
		"algorithm":   algorithm,
		"front":       front,
		"summary":     summary,
	})
}

func (s *ExperimentServer) GetFitness(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.fitness == nil {
		return nil, status.Error(codes.Unimplemented, "fitness logs are not configured")
	}
	series, err := s.fitness()
	if err != nil {
		logger.Error("failed to read fitness logs", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return toStruct(map[string]any{"fitness": series})
}

func (s *ExperimentServer) ListRunConfigs(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.configs == nil {
		return nil, status.Error(codes.Unimplemented, "run configs are not configured")
	}
	configs, err := s.configs.ListRunConfigs()
	if err != nil {
		logger.Error("failed to read run configs", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return toStruct(map[string]any{"configs": configs})
}

func groupIndex(req *structpb.Struct) (int, error) {
	v, ok := req.GetFields()["group_index"]
	if !ok {
		return 0, fmt.Errorf("group_index is required")
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("group_index must be a number")
	}
	f := n.NumberValue
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("group_index must be a non-negative integer, got %v", f)
	}
	return int(f), nil
}

// toStruct converts v to a Struct through its JSON encoding, so the wire
// shape matches the results document.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode response: %v", err))
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode response: %v", err))
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode response: %v", err))
	}
	return out, nil
}

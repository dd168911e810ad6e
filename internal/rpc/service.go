package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "lcasweep.v1.ExperimentService"

const (
	methodListGroups     = "/" + ServiceName + "/ListGroups"
	methodGetParetoFront = "/" + ServiceName + "/GetParetoFront"
	methodGetFitness     = "/" + ServiceName + "/GetFitness"
	methodListRunConfigs = "/" + ServiceName + "/ListRunConfigs"
)

// ExperimentService is the read API over persisted sweep results. Requests
// and responses are protobuf well-known types.
type ExperimentService interface {
	ListGroups(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetParetoFront(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetFitness(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListRunConfigs(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes ExperimentService to grpc.Server
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExperimentService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListGroups", Handler: emptyHandler(methodListGroups, ExperimentService.ListGroups)},
		{MethodName: "GetParetoFront", Handler: structHandler(methodGetParetoFront, ExperimentService.GetParetoFront)},
		{MethodName: "GetFitness", Handler: emptyHandler(methodGetFitness, ExperimentService.GetFitness)},
		{MethodName: "ListRunConfigs", Handler: emptyHandler(methodListRunConfigs, ExperimentService.ListRunConfigs)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lcasweep/v1/experiment.proto",
}

// RegisterExperimentService registers srv on s
func RegisterExperimentService(s grpc.ServiceRegistrar, srv ExperimentService) {
	s.RegisterService(&ServiceDesc, srv)
}

// methodHandler has the same type as grpc.MethodDesc.Handler
type methodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

type emptyMethod func(ExperimentService, context.Context, *emptypb.Empty) (*structpb.Struct, error)

type structMethod func(ExperimentService, context.Context, *structpb.Struct) (*structpb.Struct, error)

func emptyHandler(fullMethod string, call emptyMethod) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExperimentService), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExperimentService), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func structHandler(fullMethod string, call structMethod) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExperimentService), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExperimentService), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls ExperimentService over a connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ListGroups(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodListGroups, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetParetoFront(ctx context.Context, groupIndex int, algorithm string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{
		"group_index": groupIndex,
		"algorithm":   algorithm,
	})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetParetoFront, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetFitness(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetFitness, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListRunConfigs(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodListRunConfigs, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

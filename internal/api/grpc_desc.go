package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AnalyticsServiceName is the fully-qualified gRPC service name.
const AnalyticsServiceName = "qapulse.analytics.v1.Analytics"

const (
	answerMethod      = "/" + AnalyticsServiceName + "/Answer"
	suggestionsMethod = "/" + AnalyticsServiceName + "/Suggestions"
)

// AnalyticsServer is the server API for the Analytics service.
type AnalyticsServer interface {
	Answer(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Suggestions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterAnalyticsServer registers srv on s.
func RegisterAnalyticsServer(s grpc.ServiceRegistrar, srv AnalyticsServer) {
	s.RegisterService(&AnalyticsServiceDesc, srv)
}

func answerHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalyticsServer).Answer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: answerMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AnalyticsServer).Answer(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func suggestionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalyticsServer).Suggestions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: suggestionsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AnalyticsServer).Suggestions(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// AnalyticsServiceDesc describes the Analytics service over well-known message types.
var AnalyticsServiceDesc = grpc.ServiceDesc{
	ServiceName: AnalyticsServiceName,
	HandlerType: (*AnalyticsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Answer", Handler: answerHandler},
		{MethodName: "Suggestions", Handler: suggestionsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: analyticsProtoFile,
}

// AnalyticsClient calls the Analytics service.
type AnalyticsClient struct {
	cc grpc.ClientConnInterface
}

// NewAnalyticsClient wraps an established client connection.
func NewAnalyticsClient(cc grpc.ClientConnInterface) *AnalyticsClient {
	return &AnalyticsClient{cc: cc}
}

// Answer asks a natural-language question.
func (c *AnalyticsClient) Answer(ctx context.Context, question string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, answerMethod, wrapperspb.String(question), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Suggestions lists the example questions.
func (c *AnalyticsClient) Suggestions(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, suggestionsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

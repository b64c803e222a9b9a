package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/qapulse/qapulse/internal/config"
	"github.com/qapulse/qapulse/internal/models"
)

type fakeAnalyticsServer struct{}

func (fakeAnalyticsServer) Answer(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "question is required")
	}
	return ToProtoAnswer(models.Answer{
		Query:   req.GetValue(),
		Params:  models.QueryParams{AnalysisType: models.AnalysisSlow, TimeRange: models.TimeRange{Days: 90}},
		Results: []models.Row{{"name": "checkout", "avg_duration": int64(42000)}},
		Count:   1,
	})
}

func (fakeAnalyticsServer) Suggestions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return ToProtoSuggestions([]models.Suggestion{{Text: "Slow tests", Category: "slow"}})
}

func TestGRPCServerRoundTrip(t *testing.T) {
	srv, err := NewServer(config.ServerConfig{GRPCAddress: "127.0.0.1:0"}, fakeAnalyticsServer{})
	require.NoError(t, err)
	go func() { _ = srv.Start() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient(srv.Address(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := NewAnalyticsClient(conn)
	out, err := client.Answer(ctx, "slow tests")
	require.NoError(t, err)
	answer, err := FromProtoAnswer(out)
	require.NoError(t, err)
	assert.Equal(t, "slow tests", answer.Query)
	assert.Equal(t, models.AnalysisSlow, answer.Params.AnalysisType)
	assert.EqualValues(t, 42000, answer.Results[0]["avg_duration"])

	_, err = client.Answer(ctx, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	suggestions, err := client.Suggestions(ctx)
	require.NoError(t, err)
	assert.Len(t, suggestions.GetFields()["suggestions"].GetListValue().GetValues(), 1)

	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: AnalyticsServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.GetStatus())
}

func TestAnalyticsServiceDescriptorIsRegistered(t *testing.T) {
	desc, err := protoregistry.GlobalFiles.FindDescriptorByName(AnalyticsServiceName)
	require.NoError(t, err)
	svc, ok := desc.(protoreflect.ServiceDescriptor)
	require.True(t, ok)
	assert.Equal(t, analyticsProtoFile, svc.ParentFile().Path())

	methods := svc.Methods()
	require.Equal(t, len(AnalyticsServiceDesc.Methods), methods.Len())
	answer := methods.ByName("Answer")
	require.NotNil(t, answer)
	assert.Equal(t, protoreflect.FullName("google.protobuf.StringValue"), answer.Input().FullName())
	assert.Equal(t, protoreflect.FullName("google.protobuf.Struct"), answer.Output().FullName())
	suggestions := methods.ByName("Suggestions")
	require.NotNil(t, suggestions)
	assert.Equal(t, protoreflect.FullName("google.protobuf.Empty"), suggestions.Input().FullName())
}

func TestReflectionResolvesAnalyticsService(t *testing.T) {
	srv, err := NewServer(config.ServerConfig{GRPCAddress: "127.0.0.1:0"}, fakeAnalyticsServer{})
	require.NoError(t, err)
	go func() { _ = srv.Start() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient(srv.Address(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := reflectionpb.NewServerReflectionClient(conn).ServerReflectionInfo(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_FileContainingSymbol{
			FileContainingSymbol: AnalyticsServiceName,
		},
	}))
	resp, err := stream.Recv()
	require.NoError(t, err)
	require.Nil(t, resp.GetErrorResponse())

	var found bool
	for _, raw := range resp.GetFileDescriptorResponse().GetFileDescriptorProto() {
		fdp := &descriptorpb.FileDescriptorProto{}
		require.NoError(t, proto.Unmarshal(raw, fdp))
		if fdp.GetName() == analyticsProtoFile {
			found = true
			require.Len(t, fdp.GetService(), 1)
			assert.Equal(t, "Analytics", fdp.GetService()[0].GetName())
		}
	}
	assert.True(t, found, "reflection response did not include the analytics file")
	require.NoError(t, stream.CloseSend())
}

func TestToProtoAnswerShape(t *testing.T) {
	s, err := ToProtoAnswer(models.Answer{
		Query:       "q",
		Description: "d",
		Params:      models.QueryParams{AnalysisType: models.AnalysisFailing, TimeRange: models.TimeRange{Days: 7}},
		Results:     []models.Row{},
	})
	require.NoError(t, err)
	fields := s.GetFields()
	assert.Equal(t, "d", fields["description"].GetStringValue())
	assert.Equal(t, "failing", fields["params"].GetStructValue().GetFields()["analysisType"].GetStringValue())
	assert.NotNil(t, fields["results"].GetListValue())
	assert.Equal(t, float64(0), fields["count"].GetNumberValue())
}

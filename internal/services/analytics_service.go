package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/qapulse/qapulse/internal/api"
	"github.com/qapulse/qapulse/internal/engine"
	"github.com/qapulse/qapulse/internal/metrics"
	"github.com/qapulse/qapulse/internal/models"
	"github.com/qapulse/qapulse/internal/patterns"
	"github.com/qapulse/qapulse/internal/utils"
)

// unknownAnalysis labels queries that failed before an analysis type was known.
const unknownAnalysis = "unknown"

// ResultStore defines the persistence operations behind ingestion and drill-downs.
type ResultStore interface {
	InsertRun(ctx context.Context, payload models.RunPayload) (models.IngestResult, error)
	FailureHistory(ctx context.Context, testName string, limit int) ([]models.FailureDetail, error)
	ListProjects(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// Invalidator drops cached answers after new results arrive.
type Invalidator interface {
	Invalidate()
}

// AnalyticsService answers analytics questions over HTTP and gRPC.
type AnalyticsService struct {
	logger      *slog.Logger
	pipeline    *engine.Pipeline
	catalog     *engine.SuggestionCatalog
	store       ResultStore
	miner       *patterns.Miner
	invalidator Invalidator
	latencies   *utils.LatencyTracker
}

var _ api.AnalyticsServer = (*AnalyticsService)(nil)
var _ api.Backend = (*AnalyticsService)(nil)

// NewAnalyticsService constructs the analytics service facade.
// store and invalidator may be nil for query-only deployments.
func NewAnalyticsService(
	logger *slog.Logger,
	pipeline *engine.Pipeline,
	catalog *engine.SuggestionCatalog,
	store ResultStore,
	miner *patterns.Miner,
	invalidator Invalidator,
) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	if miner == nil {
		miner = patterns.NewMiner(logger)
	}
	return &AnalyticsService{
		logger:      logger,
		pipeline:    pipeline,
		catalog:     catalog,
		store:       store,
		miner:       miner,
		invalidator: invalidator,
		latencies:   utils.NewLatencyTracker(1024),
	}
}

// Ask interprets a natural-language question and executes it.
func (s *AnalyticsService) Ask(ctx context.Context, question string) (models.Answer, error) {
	if s.pipeline == nil {
		return models.Answer{}, errors.New("pipeline not configured")
	}
	start := time.Now()
	answer, err := s.pipeline.Answer(ctx, question)
	s.observe(string(answer.Params.AnalysisType), time.Since(start), err)
	if err != nil {
		return models.Answer{}, err
	}
	s.logger.Debug("answered question",
		slog.String("description", answer.Description),
		slog.Int("rows", answer.Count),
	)
	return answer, nil
}

// Run executes structured params supplied by the caller.
func (s *AnalyticsService) Run(ctx context.Context, params models.QueryParams) (models.Answer, error) {
	if s.pipeline == nil {
		return models.Answer{}, errors.New("pipeline not configured")
	}
	start := time.Now()
	answer, err := s.pipeline.Run(ctx, params)
	label := ""
	if params.AnalysisType.Known() {
		label = string(params.AnalysisType)
	}
	s.observe(label, time.Since(start), err)
	return answer, err
}

// ListSuggestions returns the example questions.
func (s *AnalyticsService) ListSuggestions() []models.Suggestion {
	return s.catalog.List()
}

// AnalysisTypes describes the supported analyses and their defaults.
func (s *AnalyticsService) AnalysisTypes() []models.TemplateInfo {
	return s.compiler().Templates()
}

// AnalysisType describes a single analysis.
func (s *AnalyticsService) AnalysisType(t models.AnalysisType) (models.TemplateInfo, error) {
	return s.compiler().Template(t)
}

func (s *AnalyticsService) compiler() *engine.Compiler {
	if s.pipeline == nil {
		return engine.NewCompiler()
	}
	return s.pipeline.Compiler()
}

// ListProjects returns the known project keys for filter pickers.
func (s *AnalyticsService) ListProjects(ctx context.Context) ([]string, error) {
	if s.store == nil {
		return []string{}, nil
	}
	keys, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// FailureHistory returns the recent failures of one test with mined signatures.
func (s *AnalyticsService) FailureHistory(ctx context.Context, testName string, limit int) (models.FailureHistory, error) {
	testName = strings.TrimSpace(testName)
	if testName == "" {
		return models.FailureHistory{}, fmt.Errorf("%w: test name is required", models.ErrInvalidParams)
	}
	if s.store == nil {
		return models.FailureHistory{}, errors.New("result store not configured")
	}
	failures, err := s.store.FailureHistory(ctx, testName, limit)
	if err != nil {
		return models.FailureHistory{}, fmt.Errorf("load failure history: %w", err)
	}
	signatures := s.miner.Mine(failures)
	if signatures == nil {
		signatures = []models.SignatureSummary{}
	}
	return models.FailureHistory{TestName: testName, Failures: failures, Signatures: signatures}, nil
}

// IngestRun stores a run and invalidates cached answers.
func (s *AnalyticsService) IngestRun(ctx context.Context, payload models.RunPayload) (models.IngestResult, error) {
	if s.store == nil {
		return models.IngestResult{}, errors.New("result store not configured")
	}
	result, err := s.store.InsertRun(ctx, payload)
	if err != nil {
		if !errors.Is(err, models.ErrInvalidPayload) {
			s.logger.Error("ingest run failed", slog.String("project", payload.ProjectKey), slog.Any("error", err))
		}
		return models.IngestResult{}, err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	metrics.ObserveIngestedCases(result.Totals.Pass, result.Totals.Fail, result.Totals.Skip)
	s.logger.Info("ingested run",
		slog.String("run_id", result.RunID),
		slog.String("project", payload.ProjectKey),
		slog.Int("cases", result.Totals.Total),
	)
	return result, nil
}

// Ping reports whether the result store is reachable.
func (s *AnalyticsService) Ping(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Ping(ctx)
}

// Answer implements the gRPC Analytics.Answer method.
func (s *AnalyticsService) Answer(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	answer, err := s.Ask(ctx, req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	out, err := api.ToProtoAnswer(answer)
	if err != nil {
		s.logger.Error("encode answer failed", slog.Any("error", err))
		return nil, status.Error(codes.Internal, "failed to encode answer")
	}
	return out, nil
}

// Suggestions implements the gRPC Analytics.Suggestions method.
func (s *AnalyticsService) Suggestions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := api.ToProtoSuggestions(s.ListSuggestions())
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode suggestions")
	}
	return out, nil
}

// LatencyP95 returns the current p95 query latency.
func (s *AnalyticsService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

func (s *AnalyticsService) observe(analysis string, duration time.Duration, err error) {
	if analysis == "" {
		analysis = unknownAnalysis
	}
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
		s.latencies.Observe(duration)
		if count := s.latencies.Count(); count >= 50 && count%50 == 0 {
			s.logger.Info("analytics query latency",
				slog.Duration("p95", s.latencies.Percentile(95)),
				slog.Int("samples", count),
			)
		}
	case isInvalid(err):
		outcome = metrics.OutcomeInvalid
	default:
		outcome = metrics.OutcomeError
		s.logger.Error("analytics query failed", slog.String("analysis", analysis), slog.Any("error", err))
	}
	metrics.ObserveQuery(analysis, duration, outcome)
}

func isInvalid(err error) bool {
	return errors.Is(err, models.ErrEmptyQuestion) ||
		errors.Is(err, models.ErrInvalidParams) ||
		errors.Is(err, engine.ErrUnknownAnalysisType)
}

func grpcError(err error) error {
	switch {
	case isInvalid(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "analytics query failed")
	}
}

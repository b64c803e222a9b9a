package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/qapulse/qapulse/internal/extractors"
	"github.com/qapulse/qapulse/internal/models"
)

// QueryExecutor runs a compiled analytics statement against the result store.
type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, sql string, args ...any) ([]models.Row, error)
}

// Pipeline orchestrates the question -> params -> SQL -> rows flow.
type Pipeline struct {
	logger   *slog.Logger
	compiler *Compiler
	executor QueryExecutor
}

// NewPipeline constructs a new answer pipeline.
func NewPipeline(logger *slog.Logger, compiler *Compiler, executor QueryExecutor) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if compiler == nil {
		compiler = NewCompiler()
	}
	return &Pipeline{logger: logger, compiler: compiler, executor: executor}
}

// Compiler exposes the compiler used by the pipeline.
func (p *Pipeline) Compiler() *Compiler {
	return p.compiler
}

// Answer interprets a free-text question, compiles it and executes the result.
func (p *Pipeline) Answer(ctx context.Context, question string) (models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.Answer{}, models.ErrEmptyQuestion
	}
	params := extractors.Parse(question)
	return p.execute(ctx, question, params)
}

// Run executes caller-supplied params without going through the extractor.
func (p *Pipeline) Run(ctx context.Context, params models.QueryParams) (models.Answer, error) {
	return p.execute(ctx, "", params)
}

func (p *Pipeline) execute(ctx context.Context, question string, params models.QueryParams) (models.Answer, error) {
	if p.executor == nil {
		return models.Answer{}, errors.New("query executor not configured")
	}
	q, err := p.compiler.Build(params)
	if err != nil {
		return models.Answer{}, err
	}

	p.logger.Debug("executing analytics query",
		slog.String("analysis", string(q.Analysis)),
		slog.String("cutoff", q.CutoffDate),
		slog.Int("args", len(q.Args)),
	)

	rows, err := p.executor.ExecuteQuery(ctx, q.SQL, q.Args...)
	if err != nil {
		return models.Answer{}, fmt.Errorf("execute analytics query: %w", err)
	}
	if rows == nil {
		rows = []models.Row{}
	}

	return models.Answer{
		Query:       question,
		Description: extractors.Describe(params),
		Params:      params,
		Results:     rows,
		Count:       len(rows),
	}, nil
}

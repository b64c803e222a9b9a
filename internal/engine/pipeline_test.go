package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qapulse/qapulse/internal/models"
)

type fakeExecutor struct {
	rows  []models.Row
	err   error
	sql   string
	args  []any
	calls int
}

func (f *fakeExecutor) ExecuteQuery(ctx context.Context, sql string, args ...any) ([]models.Row, error) {
	f.calls++
	f.sql = sql
	f.args = args
	return f.rows, f.err
}

func TestPipelineAnswer(t *testing.T) {
	exec := &fakeExecutor{rows: []models.Row{{"name": "login", "pass_rate": 40.0}}}
	p := NewPipeline(nil, fixedCompiler(), exec)

	answer, err := p.Answer(context.Background(), "  show me flaky tests with pass rate less than 50%  ")
	require.NoError(t, err)

	assert.Equal(t, "show me flaky tests with pass rate less than 50%", answer.Query)
	assert.Equal(t, "Flaky tests with pass rate 0%-50% in the last 90 days (top 50)", answer.Description)
	assert.Equal(t, 1, answer.Count)
	assert.Equal(t, models.AnalysisFlaky, answer.Params.AnalysisType)
	assert.Equal(t, []any{"2023-12-02", 5, 0, 50, 50}, exec.args)
}

func TestPipelineEmptyQuestion(t *testing.T) {
	exec := &fakeExecutor{}
	p := NewPipeline(nil, fixedCompiler(), exec)

	_, err := p.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, models.ErrEmptyQuestion)
	assert.Zero(t, exec.calls)
}

func TestPipelineEmptyResultIsSuccess(t *testing.T) {
	p := NewPipeline(nil, fixedCompiler(), &fakeExecutor{})

	answer, err := p.Answer(context.Background(), "slow tests")
	require.NoError(t, err)
	assert.NotNil(t, answer.Results)
	assert.Zero(t, answer.Count)
}

func TestPipelineExecutionErrorIsNotEmptyResult(t *testing.T) {
	boom := errors.New("database is locked")
	p := NewPipeline(nil, fixedCompiler(), &fakeExecutor{err: boom})

	_, err := p.Answer(context.Background(), "failing tests")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "execute analytics query")
}

func TestPipelineRunValidatesParams(t *testing.T) {
	exec := &fakeExecutor{}
	p := NewPipeline(nil, fixedCompiler(), exec)

	_, err := p.Run(context.Background(), models.QueryParams{AnalysisType: models.AnalysisSlow})
	assert.ErrorIs(t, err, models.ErrInvalidParams)

	_, err = p.Run(context.Background(), models.QueryParams{AnalysisType: "trend", TimeRange: models.TimeRange{Days: 3}})
	assert.ErrorIs(t, err, ErrUnknownAnalysisType)
	assert.Zero(t, exec.calls)

	answer, err := p.Run(context.Background(), models.QueryParams{
		AnalysisType: models.AnalysisSlow,
		TimeRange:    models.TimeRange{Days: 3},
		MinDuration:  2000,
	})
	require.NoError(t, err)
	assert.Equal(t, "Slow tests taking more than 2 seconds in the last 3 days", answer.Description)
	assert.Empty(t, answer.Query)
}

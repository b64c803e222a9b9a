package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/qapulse/qapulse/internal/models"
	"github.com/qapulse/qapulse/internal/utils"
)

// ErrUnknownAnalysisType is returned by Build for an analysis type outside the supported set.
var ErrUnknownAnalysisType = errors.New("unknown analysis type")

// Query is a compiled, parameterized analytics statement.
type Query struct {
	Analysis   models.AnalysisType
	Template   string
	SQL        string
	Args       []any
	CutoffDate string
}

// CompilerOption customises a Compiler.
type CompilerOption func(*Compiler)

// WithClock overrides the time source used to compute the cutoff date.
func WithClock(now func() time.Time) CompilerOption {
	return func(c *Compiler) {
		if now != nil {
			c.now = now
		}
	}
}

// Compiler turns QueryParams into SQL against the test result schema.
// It holds no mutable state and is safe for concurrent use.
type Compiler struct {
	now func() time.Time
}

// NewCompiler constructs a Compiler using the wall clock unless overridden.
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Build compiles params into a single SELECT with positional arguments.
func (c *Compiler) Build(params models.QueryParams) (Query, error) {
	tmpl, err := templateFor(params.AnalysisType)
	if err != nil {
		return Query{}, utils.NewAppError("compile", string(params.AnalysisType), err)
	}
	if err := params.Validate(); err != nil {
		return Query{}, utils.Wrap("compile", err)
	}
	if err := tmpl.validate(params); err != nil {
		return Query{}, utils.Wrap("compile", err)
	}

	cutoff := utils.CutoffDate(c.now(), params.TimeRange.Days)
	b := &selectBuilder{
		groupBy: []string{"tc.name", "p.key"},
		limit:   orDefault(params.Limit, tmpl.defaults().Limit),
	}
	b.addWhere("date(tr.started_at / 1000, 'unixepoch') > ?", cutoff)
	tmpl.apply(b, params)
	b.addWhereIn("p.key", params.Projects)
	b.addWhereIn("tr.env", params.Environments)
	b.addWhereIn("tc.browser", params.Browsers)

	sql, args := b.build()
	return Query{
		Analysis:   params.AnalysisType,
		Template:   tmpl.description(),
		SQL:        sql,
		Args:       args,
		CutoffDate: cutoff,
	}, nil
}

// Templates describes every supported analysis in presentation order.
func (c *Compiler) Templates() []models.TemplateInfo {
	out := make([]models.TemplateInfo, 0, len(models.AnalysisTypes))
	for _, t := range models.AnalysisTypes {
		tmpl, err := templateFor(t)
		if err != nil {
			continue
		}
		out = append(out, models.TemplateInfo{
			AnalysisType: t,
			Description:  tmpl.description(),
			Defaults:     tmpl.defaults().asMap(),
		})
	}
	return out
}

// Template returns the description and defaults of a single analysis.
func (c *Compiler) Template(t models.AnalysisType) (models.TemplateInfo, error) {
	tmpl, err := templateFor(t)
	if err != nil {
		return models.TemplateInfo{}, fmt.Errorf("%w: %q", err, t)
	}
	return models.TemplateInfo{
		AnalysisType: t,
		Description:  tmpl.description(),
		Defaults:     tmpl.defaults().asMap(),
	}, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

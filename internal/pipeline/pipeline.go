// Package pipeline wires extraction, normalization, form building,
// validation and explanation into one request.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/ownfunds/internal/cache"
	"github.com/ppiankov/ownfunds/internal/explain"
	"github.com/ppiankov/ownfunds/internal/extract"
	"github.com/ppiankov/ownfunds/internal/form"
	"github.com/ppiankov/ownfunds/internal/llm"
	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/ppiankov/ownfunds/internal/normalize"
	"github.com/ppiankov/ownfunds/internal/rules"
	"github.com/ppiankov/ownfunds/internal/schema"
	"github.com/ppiankov/ownfunds/internal/validate"
	"go.uber.org/zap"
)

// ErrEmptyScenario is returned for blank input
var ErrEmptyScenario = extract.ErrEmptyScenario

// Engine orchestrates one scenario end to end.
// Tables are loaded once at construction and shared by every request.
type Engine struct {
	schema    *schema.Store
	rules     *rules.Table
	extractor *extract.Extractor
	builder   *form.Builder
	validator *validate.Validator
	explainer *explain.Explainer
	renderer  *Renderer
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures an Engine
type Option func(*engineOptions)

type engineOptions struct {
	logger  *zap.Logger
	limiter extract.Waiter
}

// WithLogger sets the engine logger
func WithLogger(l *zap.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// WithLimiter throttles provider calls
func WithLimiter(w extract.Waiter) Option {
	return func(o *engineOptions) {
		o.limiter = w
	}
}

// NewEngine loads the schema, rule and check tables named in cfg and
// binds them to provider.
func NewEngine(cfg *model.Config, provider llm.Provider, opts ...Option) (*Engine, error) {
	o := engineOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	schemaStore := schema.NewStore()
	if _, err := schemaStore.Load(cfg.Tables.Schema); err != nil {
		return nil, err
	}

	ruleTable := rules.NewTable()
	if _, err := ruleTable.Load(cfg.Tables.Rules, schemaStore); err != nil {
		return nil, err
	}

	checks, err := validate.LoadChecks(cfg.Tables.Checks)
	if err != nil {
		return nil, fmt.Errorf("load checks: %w", err)
	}

	o.logger.Debug("tables loaded",
		zap.String("schema", schemaStore.Source()),
		zap.Int("rows", len(schemaStore.Rows())),
		zap.String("rules", ruleTable.Source()),
		zap.Int("concepts", len(ruleTable.Concepts())),
		zap.Int("checks", len(checks)))

	extractOpts := []extract.Option{
		extract.WithTimeout(cfg.Extraction.Timeout),
		extract.WithModel(cfg.LLM.Model),
		extract.WithLogger(o.logger.Named("extract")),
	}
	if c := cache.New(cfg.Cache); c != nil {
		extractOpts = append(extractOpts, extract.WithCache(c, cfg.Cache.MemoryTTL))
	}
	if o.limiter != nil {
		extractOpts = append(extractOpts, extract.WithLimiter(o.limiter))
	}

	return &Engine{
		schema:    schemaStore,
		rules:     ruleTable,
		extractor: extract.NewExtractor(provider, ruleTable, extractOpts...),
		builder:   form.NewBuilder(schemaStore, ruleTable),
		validator: validate.NewValidator(checks, o.logger.Named("validate")),
		explainer: explain.NewExplainer(),
		renderer:  NewRenderer(schemaStore),
		logger:    o.logger,
		now:       time.Now,
	}, nil
}

// Schema returns the loaded schema store
func (e *Engine) Schema() *schema.Store { return e.schema }

// Rules returns the loaded rule table
func (e *Engine) Rules() *rules.Table { return e.rules }

// Renderer returns a renderer bound to the loaded schema
func (e *Engine) Renderer() *Renderer { return e.renderer }

// ProcessScenario turns scenario text into a populated, validated and
// explained report. Only an extraction failure aborts the request;
// every other problem is reported as an issue on the form.
func (e *Engine) ProcessScenario(ctx context.Context, text string) (*model.Report, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyScenario
	}

	id := uuid.NewString()
	log := e.logger.With(zap.String("report_id", id))
	start := e.now()

	// 1. Extract facts
	extraction, err := e.extractor.Extract(ctx, text)
	if err != nil {
		log.Warn("extraction failed", zap.Error(err))
		return nil, err
	}
	log.Info("facts extracted",
		zap.String("provider", extraction.Provider),
		zap.Int("facts", len(extraction.Facts)),
		zap.Bool("cached", extraction.Cached))

	// 2. Normalize amounts; bad amounts become issues
	normalized, amountErrs := normalize.All(extraction.Facts)
	issues := append([]model.ValidationIssue{}, extraction.Rejected...)
	for _, ae := range amountErrs {
		issues = append(issues, model.ValidationIssue{
			Kind:    model.IssueUnmatchedFact,
			Concept: ae.Concept,
			Detail:  ae.Error(),
		})
	}

	// 3. Build the form
	f, err := e.builder.Build(normalized)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	f.Issues = append(issues, f.Issues...)

	// 4. Validate, 5. explain
	allIssues := e.validator.Validate(f, e.schema)
	explanation := e.explainer.Explain(f, e.schema)

	report := &model.Report{
		ID:          id,
		Template:    e.schema.Template(),
		Currency:    e.schema.Currency(),
		GeneratedAt: e.now().UTC(),
		Scenario:    text,
		Rows:        f.Rows,
		Issues:      allIssues,
		Explanation: explanation,
		Extraction: model.ExtractionMeta{
			Provider:   extraction.Provider,
			Model:      extraction.Model,
			TokensUsed: extraction.TokensUsed,
			Cached:     extraction.Cached,
			Facts:      len(extraction.Facts) + len(extraction.Rejected),
		},
	}
	if report.Rows == nil {
		report.Rows = []model.RowValue{}
	}

	log.Info("scenario processed",
		zap.Int("rows", len(report.Rows)),
		zap.Int("issues", len(report.Issues)),
		zap.String("trail", explanation.Trail),
		zap.Duration("elapsed", e.now().Sub(start)))

	return report, nil
}

// RenderReport writes the report to the requested files and prints the summary
func (e *Engine) RenderReport(report *model.Report, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := e.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := e.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	return nil
}

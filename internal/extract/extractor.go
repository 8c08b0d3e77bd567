// Package extract turns scenario text into structured financial facts.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/ownfunds/internal/cache"
	"github.com/ppiankov/ownfunds/internal/llm"
	"github.com/ppiankov/ownfunds/internal/model"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one extraction call
const DefaultTimeout = 30 * time.Second

// ErrEmptyScenario is returned for blank input, before any provider call
var ErrEmptyScenario = errors.New("scenario text is empty")

// ConceptSource lists the concepts the rule table recognizes, in file order
type ConceptSource interface {
	Concepts() []string
}

// Waiter throttles outbound calls per key
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// Extraction is the outcome of one extraction call
type Extraction struct {
	Facts      []model.ExtractedFact
	Rejected   []model.ValidationIssue // Entries dropped while parsing the payload
	Provider   string
	Model      string
	TokensUsed int
	Cached     bool
}

// Extractor calls one language-understanding provider per scenario.
// There is no retry: any failure aborts the request.
type Extractor struct {
	provider llm.Provider
	concepts ConceptSource
	timeout  time.Duration
	cache    cache.Cache
	cacheTTL time.Duration
	model    string
	limiter  Waiter
	logger   *zap.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithCache stores raw completions keyed by instruction and text
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(e *Extractor) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// WithModel names the configured model so that cached completions do not
// outlive a model change
func WithModel(model string) Option {
	return func(e *Extractor) {
		e.model = model
	}
}

// WithLimiter throttles provider calls, keyed by provider name
func WithLimiter(w Waiter) Option {
	return func(e *Extractor) {
		e.limiter = w
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor creates an extractor over provider and the rule table's concepts
func NewExtractor(provider llm.Provider, concepts ConceptSource, opts ...Option) *Extractor {
	e := &Extractor{
		provider: provider,
		concepts: concepts,
		timeout:  DefaultTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// cachedCompletion is what the cache stores for one call
type cachedCompletion struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Extract asks the provider for the facts stated in text.
// Every failure, including timeout, is returned as *model.ExtractionError.
func (e *Extractor) Extract(ctx context.Context, text string) (*Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyScenario
	}
	if e.provider == nil {
		return nil, &model.ExtractionError{Err: errors.New("no LLM provider configured")}
	}
	name := e.provider.Name()

	instruction := BuildInstruction(e.conceptList())
	key := cache.CacheKey(name, e.model, instruction, text)

	out := &Extraction{Provider: name}
	var completion cachedCompletion

	if hit, ok := e.lookup(key); ok {
		completion = hit
		out.Cached = true
		e.logger.Debug("extraction cache hit", zap.String("provider", name))
	} else {
		resp, err := e.call(ctx, instruction, text)
		if err != nil {
			return nil, &model.ExtractionError{Provider: name, Err: err}
		}
		completion = cachedCompletion{Text: resp.Text, Model: resp.Model}
		out.TokensUsed = resp.TokensUsed
	}
	out.Model = completion.Model

	facts, rejected, err := ParsePayload(completion.Text)
	if err != nil {
		e.logger.Warn("unparseable extraction payload",
			zap.String("provider", name),
			zap.Int("length", len(completion.Text)),
			zap.Error(err))
		return nil, &model.ExtractionError{Provider: name, Err: err}
	}
	out.Facts = facts
	out.Rejected = rejected

	if !out.Cached {
		e.store(key, completion)
	}

	e.logger.Debug("facts extracted",
		zap.String("provider", name),
		zap.String("model", out.Model),
		zap.Int("facts", len(facts)),
		zap.Int("rejected", len(rejected)),
		zap.Int("tokens", out.TokensUsed))

	return out, nil
}

// call runs the single provider call under the extraction timeout
func (e *Extractor) call(ctx context.Context, instruction, text string) (*llm.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, e.provider.Name()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System: instruction,
		Prompt: text,
		JSON:   true,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return nil, err
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return nil, errors.New("empty response")
	}

	e.logger.Debug("provider call finished",
		zap.String("provider", e.provider.Name()),
		zap.Duration("elapsed", time.Since(start)))

	return resp, nil
}

func (e *Extractor) conceptList() []string {
	if e.concepts == nil {
		return nil
	}
	return e.concepts.Concepts()
}

func (e *Extractor) lookup(key string) (cachedCompletion, bool) {
	var c cachedCompletion
	if e.cache == nil {
		return c, false
	}
	data, ok := e.cache.Get(key)
	if !ok {
		return c, false
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, false
	}
	return c, true
}

// store caches only completions that parsed
func (e *Extractor) store(key string, c cachedCompletion) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := e.cache.Set(key, data, e.cacheTTL); err != nil {
		e.logger.Warn("extraction cache write failed", zap.Error(err))
	}
}

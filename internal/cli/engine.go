package cli

import (
	"fmt"

	"github.com/ppiankov/ownfunds/internal/llm"
	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/ppiankov/ownfunds/internal/pipeline"
	"github.com/ppiankov/ownfunds/internal/worker"
)

// newEngine builds the configured provider and binds it to the loaded tables.
// A nil limiter leaves provider calls unthrottled.
func newEngine(cfg *model.Config, limiter *worker.Limiter) (*pipeline.Engine, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if limiter != nil {
		opts = append(opts, pipeline.WithLimiter(limiter))
	}

	engine, err := pipeline.NewEngine(cfg, provider, opts...)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	return engine, nil
}

package extract

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/ownfunds/internal/cache"
	"github.com/ppiankov/ownfunds/internal/llm"
	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenario = "The bank has £50M ordinary share capital, £20M share premium, £80M retained earnings, and £40M intangible assets."

const scenarioPayload = `{"facts":[
	{"concept":"ordinary share capital","amount":50,"unit":"million","source_text":"£50M ordinary share capital"},
	{"concept":"share premium","amount":20,"unit":"million","source_text":"£20M share premium"},
	{"concept":"retained earnings","amount":80,"unit":"million","source_text":"£80M retained earnings"},
	{"concept":"intangible assets","amount":40,"unit":"million","source_text":"£40M intangible assets"}
]}`

type fakeProvider struct {
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32
	last  llm.CompletionRequest
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) IsAvailable(context.Context) bool { return true }

func (p *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls.Add(1)
	p.last = req
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Text: p.text, Model: "fake-1", TokensUsed: 42}, nil
}

type staticConcepts []string

func (c staticConcepts) Concepts() []string { return c }

type countingWaiter struct {
	keys []string
	err  error
}

func (w *countingWaiter) Wait(_ context.Context, key string) error {
	w.keys = append(w.keys, key)
	return w.err
}

func TestExtract_Scenario(t *testing.T) {
	p := &fakeProvider{text: scenarioPayload}
	e := NewExtractor(p, staticConcepts{"ordinary share capital", "intangible assets"})

	got, err := e.Extract(context.Background(), scenario)
	require.NoError(t, err)

	require.Len(t, got.Facts, 4)
	assert.Equal(t, "fake", got.Provider)
	assert.Equal(t, "fake-1", got.Model)
	assert.Equal(t, 42, got.TokensUsed)
	assert.False(t, got.Cached)

	assert.True(t, p.last.JSON)
	assert.Equal(t, scenario, p.last.Prompt)
	assert.Contains(t, p.last.System, "- intangible assets")
}

func TestExtract_EmptyTextMakesNoCall(t *testing.T) {
	p := &fakeProvider{text: scenarioPayload}
	e := NewExtractor(p, nil)

	_, err := e.Extract(context.Background(), "  \n\t ")
	assert.ErrorIs(t, err, ErrEmptyScenario)
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
	}{
		{"transport error", &fakeProvider{err: errors.New("connection refused")}},
		{"empty response", &fakeProvider{text: "   "}},
		{"prose only", &fakeProvider{text: "Sorry, I cannot help with that."}},
		{"malformed json", &fakeProvider{text: `{"facts": [`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(tt.provider, nil)
			got, err := e.Extract(context.Background(), scenario)
			require.Error(t, err)
			assert.Nil(t, got)

			var extractionErr *model.ExtractionError
			require.True(t, errors.As(err, &extractionErr))
			assert.Equal(t, "fake", extractionErr.Provider)
			assert.Equal(t, int32(1), tt.provider.calls.Load(), "no retry")
		})
	}
}

func TestExtract_Timeout(t *testing.T) {
	p := &fakeProvider{text: scenarioPayload, delay: time.Second}
	e := NewExtractor(p, nil, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := e.Extract(context.Background(), scenario)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	var extractionErr *model.ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExtract_NoProvider(t *testing.T) {
	_, err := NewExtractor(nil, nil).Extract(context.Background(), scenario)
	var extractionErr *model.ExtractionError
	assert.True(t, errors.As(err, &extractionErr))
}

func TestExtract_Cache(t *testing.T) {
	p := &fakeProvider{text: scenarioPayload}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	e := NewExtractor(p, staticConcepts{"retained earnings"}, WithCache(c, time.Minute))

	first, err := e.Extract(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := e.Extract(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Facts, second.Facts)
	assert.Equal(t, "fake-1", second.Model)
	assert.Equal(t, 0, second.TokensUsed)
	assert.Equal(t, int32(1), p.calls.Load())

	// A different rule table yields a different instruction and key
	other := NewExtractor(p, staticConcepts{"goodwill"}, WithCache(c, time.Minute))
	_, err = other.Extract(context.Background(), scenario)
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestExtract_CacheKeyedByModel(t *testing.T) {
	p := &fakeProvider{text: scenarioPayload}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	concepts := staticConcepts{"retained earnings"}

	_, err := NewExtractor(p, concepts, WithCache(c, time.Minute), WithModel("gpt-4o-mini")).
		Extract(context.Background(), scenario)
	require.NoError(t, err)

	got, err := NewExtractor(p, concepts, WithCache(c, time.Minute), WithModel("gpt-4o")).
		Extract(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, got.Cached)
	assert.Equal(t, int32(2), p.calls.Load())

	got, err = NewExtractor(p, concepts, WithCache(c, time.Minute), WithModel("gpt-4o")).
		Extract(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, got.Cached)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestExtract_UnparseableNotCached(t *testing.T) {
	p := &fakeProvider{text: "no json here"}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	e := NewExtractor(p, nil, WithCache(c, time.Minute))

	_, err := e.Extract(context.Background(), scenario)
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestExtract_Limiter(t *testing.T) {
	p := &fakeProvider{text: scenarioPayload}
	w := &countingWaiter{}
	e := NewExtractor(p, nil, WithLimiter(w))

	_, err := e.Extract(context.Background(), scenario)
	require.NoError(t, err)
	assert.Equal(t, []string{"fake"}, w.keys)

	w.err = errors.New("limiter closed")
	_, err = e.Extract(context.Background(), scenario)
	require.Error(t, err)
	assert.Equal(t, int32(1), p.calls.Load())
}

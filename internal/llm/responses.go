package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"github.com/ppiankov/ownfunds/internal/util"
)

const responsesDefaultModel = "gpt-4.1-mini"

// ResponsesProvider talks to the OpenAI Responses API through the official SDK
type ResponsesProvider struct {
	client *openai.Client
	config Config
}

// NewResponsesProvider creates a new Responses API provider
func NewResponsesProvider(config Config) (*ResponsesProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		// One call per scenario; the caller decides about retries
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		}),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := openai.NewClient(opts...)
	return &ResponsesProvider{client: &client, config: config}, nil
}

// Name returns the provider name
func (p *ResponsesProvider) Name() string {
	return "openai-responses"
}

// IsAvailable checks if the provider is properly configured
func (p *ResponsesProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.Models.List(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI Responses API check failed: %v\n", err)
		return false
	}
	return true
}

// Complete sends the instruction and prompt as one Responses API call
func (p *ResponsesProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model, maxTokens, temperature := p.config.resolve(req, responsesDefaultModel)

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(req.System, responses.EasyInputMessageRoleSystem),
				responses.ResponseInputItemParamOfMessage(req.Prompt, responses.EasyInputMessageRoleUser),
			},
		},
		MaxOutputTokens: openai.Int(int64(maxTokens)),
		Temperature:     openai.Float(temperature),
	}
	if req.JSON {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
		}
	}

	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("call OpenAI: %w", err)
	}

	output := strings.TrimSpace(resp.OutputText())
	if output == "" {
		return nil, errors.New("model returned an empty response")
	}

	respModel := string(resp.Model)
	if respModel == "" {
		respModel = model
	}

	return &CompletionResponse{
		Text:       output,
		Model:      respModel,
		TokensUsed: int(resp.Usage.TotalTokens),
	}, nil
}

package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResponsesProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/responses") {
			t.Errorf("Expected responses endpoint, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header %q", r.Header.Get("Authorization"))
		}

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["model"] != responsesDefaultModel {
			t.Errorf("Expected default model, got %v", req["model"])
		}
		if !strings.Contains(string(body), `"json_object"`) {
			t.Errorf("Expected json_object text format in %s", body)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "resp_1",
			"object": "response",
			"model": "gpt-4.1-mini",
			"status": "completed",
			"output": [{
				"type": "message",
				"id": "msg_1",
				"role": "assistant",
				"status": "completed",
				"content": [{"type": "output_text", "text": `+jsonString(factsPayload)+`, "annotations": []}]
			}],
			"usage": {"input_tokens": 40, "output_tokens": 20, "total_tokens": 60}
		}`)
	}))
	defer server.Close()

	provider, err := NewResponsesProvider(Config{APIKey: "test-key", BaseURL: server.URL + "/v1/", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		System: "extract facts",
		Prompt: "£80M retained earnings",
		JSON:   true,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != factsPayload {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensUsed != 60 {
		t.Errorf("Expected 60 tokens, got %d", resp.TokensUsed)
	}
}

func TestResponsesProvider_Complete_APIError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider, err := NewResponsesProvider(Config{APIKey: "test-key", BaseURL: server.URL + "/v1/", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "x"}); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("Expected exactly one call without retries, got %d", calls)
	}
}

func TestResponsesProvider_MissingKey(t *testing.T) {
	if _, err := NewResponsesProvider(Config{}); err == nil {
		t.Error("Expected error without API key")
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAnthropicGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("Anthropic-Version") == "" {
			t.Errorf("missing version header")
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.System != "be terse" {
			t.Errorf("system = %q", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContentBlock{{Type: "text", Text: `{"valid": true}`}},
		})
	}))
	defer srv.Close()

	p := &AnthropicProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	got, err := p.Generate(context.Background(), "review this", Settings{System: "be terse"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != `{"valid": true}` {
		t.Errorf("got %q", got)
	}
}

func TestAnthropicGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := &AnthropicProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	if _, err := p.Generate(context.Background(), "x", Settings{}); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestOpenAIGenerateSystemMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("expected system + user messages, got %d", len(req.Messages))
		}
		if req.Messages[0].Role != "system" || req.Messages[0].Content != "be terse" {
			t.Errorf("system message = %+v", req.Messages[0])
		}
		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: openaiMessage{Role: "assistant", Content: "ok"}}},
		})
	}))
	defer srv.Close()

	p := &OpenAIProvider{apiKey: "test-key", apiURL: srv.URL, client: srv.Client()}
	got, err := p.Generate(context.Background(), "review this", Settings{System: "be terse"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q", got)
	}
}

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream should be false")
		}
		if req.System != "be terse" {
			t.Errorf("system = %q", req.System)
		}
		if req.Model != "llama3" {
			t.Errorf("model = %q", req.Model)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "done"})
	}))
	defer srv.Close()

	p := &OllamaProvider{host: srv.URL, client: srv.Client()}
	got, err := p.Generate(context.Background(), "review this", Settings{Model: "llama3", System: "be terse"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "done" {
		t.Errorf("got %q", got)
	}
}

func TestResolveProviderOllamaPrefix(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "codellama" {
			t.Errorf("model override not applied, got %q", req.Model)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "ok"})
	}))
	defer srv.Close()
	t.Setenv("OLLAMA_HOST", srv.URL)

	p, err := ResolveProvider("ollama:codellama")
	if err != nil {
		t.Fatalf("ResolveProvider failed: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("provider = %q", p.Name())
	}
	if _, err := p.Generate(context.Background(), "x", Settings{}); err != nil {
		t.Errorf("Generate failed: %v", err)
	}
}

func TestResolveProviderFallsBackToOllama(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	p, err := ResolveProvider("")
	if err != nil {
		t.Fatalf("ResolveProvider failed: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("expected ollama fallback, got %q", p.Name())
	}
}

func TestResolveProviderMissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := ResolveProvider("claude-sonnet-4-6"); err == nil {
		t.Fatal("claude model without API key should fail")
	}
}

func TestLimiterSpacing(t *testing.T) {
	l := NewLimiter(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("3 calls at 20ms interval finished in %v, want >= 40ms", elapsed)
	}
}

func TestLimiterCancelled(t *testing.T) {
	l := NewLimiter(time.Minute)
	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := l.Wait(cancelled); err == nil {
		t.Fatal("Wait with cancelled context should fail")
	}
}

func TestWithRateLimitZeroInterval(t *testing.T) {
	p := &MockProvider{Response: "ok"}
	if WithRateLimit(p, 0) != Provider(p) {
		t.Error("non-positive interval should return the provider unchanged")
	}
}

func TestScriptProviderFIFO(t *testing.T) {
	s := &ScriptProvider{Responses: []string{"one", "two"}}
	ctx := context.Background()

	if got, _ := s.Generate(ctx, "a", Settings{System: "sys"}); got != "one" {
		t.Errorf("got %q, want one", got)
	}
	if got, _ := s.Generate(ctx, "b", Settings{}); got != "two" {
		t.Errorf("got %q, want two", got)
	}
	if _, err := s.Generate(ctx, "c", Settings{}); err == nil {
		t.Error("exhausted script should error")
	}
	if s.Calls() != 3 {
		t.Errorf("calls = %d, want 3", s.Calls())
	}
	if s.Systems[0] != "sys" {
		t.Errorf("recorded system = %q", s.Systems[0])
	}
}

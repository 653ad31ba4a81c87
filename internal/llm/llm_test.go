package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seenimoa/newspulse/internal/config"
)

// ════════════════════════════════════════════════════════════════════
// provider.go: Types & Helpers
// ════════════════════════════════════════════════════════════════════

func TestMessageConstructors(t *testing.T) {
	sys := SystemMessage("You are helpful.")
	if sys.Role != RoleSystem || sys.Content != "You are helpful." {
		t.Fatalf("SystemMessage: got %+v", sys)
	}

	user := UserMessage("hello")
	if user.Role != RoleUser || user.Content != "hello" {
		t.Fatalf("UserMessage: got %+v", user)
	}

	asst := AssistantMessage("hi there")
	if asst.Role != RoleAssistant || asst.Content != "hi there" {
		t.Fatalf("AssistantMessage: got %+v", asst)
	}
}

func TestResponseString(t *testing.T) {
	r := &Response{
		Provider: "openai", Model: "gpt-4o-mini",
		Content: "short answer",
		Usage:   Usage{TotalTokens: 50},
		Latency: 100 * time.Millisecond,
	}
	s := r.String()
	if !strings.Contains(s, "openai/gpt-4o-mini") || !strings.Contains(s, "50 tokens") {
		t.Fatalf("unexpected String(): %s", s)
	}

	r.Content = strings.Repeat("x", 200)
	s = r.String()
	if !strings.Contains(s, "...") {
		t.Fatalf("long content should be truncated: %s", s)
	}
}

// ════════════════════════════════════════════════════════════════════
// json.go
// ════════════════════════════════════════════════════════════════════

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose", `Sure! Here it is: {"a":{"b":2}} hope that helps`, `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ExtractJSON("no json here"); err == nil {
		t.Fatal("expected error for reply without JSON")
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Sentiment string   `json:"sentiment"`
		Topics    []string `json:"topics"`
	}
	err := DecodeJSON("```json\n{\"sentiment\":\"Positive\",\"topics\":[\"EV\"]}\n```", &v)
	if err != nil {
		t.Fatal(err)
	}
	if v.Sentiment != "Positive" || len(v.Topics) != 1 {
		t.Fatalf("unexpected decode: %+v", v)
	}
	if err := DecodeJSON(`{"sentiment":`, &v); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

// ════════════════════════════════════════════════════════════════════
// openai.go
// ════════════════════════════════════════════════════════════════════

func TestOpenAIProviderNew(t *testing.T) {
	_, err := NewOpenAIProvider("")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got: %v", err)
	}

	p, err := NewOpenAIProvider("sk-test", WithOpenAIModel("gpt-4o"), WithOpenAIBaseURL("http://custom/v1/"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "openai" || p.Model() != "gpt-4o" || p.baseURL != "http://custom/v1/" {
		t.Fatalf("unexpected config: %+v", p)
	}
}

func newMockOpenAIServer(handler http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(handler)
}

func TestOpenAIChat(t *testing.T) {
	server := newMockOpenAIServer(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("missing auth header")
		}

		var req struct {
			Model          string            `json:"model"`
			Messages       []json.RawMessage `json:"messages"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o-mini" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if len(req.Messages) != 2 {
			t.Errorf("expected 2 messages, got %d", len(req.Messages))
		}
		if req.ResponseFormat.Type != "json_object" {
			t.Errorf("expected json_object response format, got %q", req.ResponseFormat.Type)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-123",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "{\"sentiment\":\"Positive\"}"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 10, "total_tokens": 30}
		}`))
	})
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL+"/v1/"))
	resp, err := p.Chat(context.Background(),
		[]Message{SystemMessage("Classify."), UserMessage("Tesla beats estimates")},
		&ChatOptions{JSONMode: true, Temperature: 0.1, MaxTokens: 64})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != `{"sentiment":"Positive"}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if resp.Provider != "openai" || resp.Usage.TotalTokens != 30 || resp.FinishReason != "stop" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestOpenAIErrorHandling(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		want       error
	}{
		{"unauthorized", 401, `{"error":{"message":"Invalid key","type":"auth","code":"invalid_api_key"}}`, ErrNoAPIKey},
		{"rate_limit", 429, `{"error":{"message":"Rate limit exceeded","type":"rate_limit"}}`, ErrRateLimit},
		{"context_length", 400, `{"error":{"message":"Too many tokens","code":"context_length_exceeded"}}`, ErrContextLength},
		{"model_not_found", 404, `{"error":{"message":"Model not found","code":"model_not_found"}}`, ErrInvalidModel},
		{"server_error", 503, `{"error":{"message":"overloaded"}}`, ErrProviderDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newMockOpenAIServer(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			})
			defer server.Close()

			p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL+"/v1/"))
			_, err := p.Chat(context.Background(), []Message{UserMessage("test")}, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got: %v", tt.want, err)
			}
		})
	}
}

func TestOpenAIPing(t *testing.T) {
	server := newMockOpenAIServer(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o-mini","object":"model","created":1,"owned_by":"openai"}]}`))
	})
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL+"/v1/"))
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestOpenAICustomHTTPClient(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	p, _ := NewOpenAIProvider("sk-test", WithOpenAIHTTPClient(client))
	if p.http != client {
		t.Fatal("custom HTTP client not applied")
	}
}

func TestConvertToOpenAIMessages(t *testing.T) {
	msgs := convertToOpenAIMessages([]Message{
		SystemMessage("s"), UserMessage("u"), AssistantMessage("a"),
	})
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].OfSystem == nil || msgs[1].OfUser == nil || msgs[2].OfAssistant == nil {
		t.Fatalf("roles not mapped: %+v", msgs)
	}
}

// ════════════════════════════════════════════════════════════════════
// ollama.go
// ════════════════════════════════════════════════════════════════════

func TestOllamaProviderNew(t *testing.T) {
	p, err := NewOllamaProvider("")
	if err != nil {
		t.Fatal(err)
	}
	if p.baseURL != "http://localhost:11434" || p.Name() != "ollama" {
		t.Fatalf("unexpected defaults: %+v", p)
	}

	p, _ = NewOllamaProvider("http://gpu-box:11434/", WithOllamaModel("llama3"))
	if p.baseURL != "http://gpu-box:11434" || p.Model() != "llama3" {
		t.Fatalf("unexpected config: %+v", p)
	}
}

func TestOllamaChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("stream should be false")
		}
		if req.Format != "json" {
			t.Errorf("expected json format, got %q", req.Format)
		}
		if req.Options == nil || req.Options.NumPredict != 128 {
			t.Errorf("expected num_predict 128, got %+v", req.Options)
		}

		json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:           "qwen2.5:7b",
			Message:         ollamaMessage{Role: "assistant", Content: `{"summary":"ok"}`},
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       8,
		})
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(server.URL)
	resp, err := p.Chat(context.Background(), []Message{UserMessage("summarize")},
		&ChatOptions{JSONMode: true, MaxTokens: 128})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != `{"summary":"ok"}` || resp.Usage.TotalTokens != 20 || resp.Provider != "ollama" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestOllamaHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrInvalidModel},
		{http.StatusInternalServerError, ErrProviderDown},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", tt.status)
		}))
		p, _ := NewOllamaProvider(server.URL)
		_, err := p.Chat(context.Background(), []Message{UserMessage("x")}, nil)
		server.Close()
		if !errors.Is(err, tt.want) {
			t.Fatalf("status %d: expected %v, got %v", tt.status, tt.want, err)
		}
	}
}

func TestOllamaEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":""},"done":true}`))
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(server.URL)
	_, err := p.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestOllamaPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.Write([]byte(`{"models":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(server.URL)
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	p, _ = NewOllamaProvider("http://127.0.0.1:1")
	if err := p.Ping(context.Background()); !errors.Is(err, ErrProviderDown) {
		t.Fatalf("expected ErrProviderDown, got %v", err)
	}
}

// ════════════════════════════════════════════════════════════════════
// router.go: Router tests
// ════════════════════════════════════════════════════════════════════

// mockProvider implements LLMProvider for testing the router.
type mockProvider struct {
	name     string
	chatFunc func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)
	pingErr  error
	calls    atomic.Int32
}

func (m *mockProvider) Name() string                   { return m.name }
func (m *mockProvider) Ping(ctx context.Context) error { return m.pingErr }
func (m *mockProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	m.calls.Add(1)
	if m.chatFunc != nil {
		return m.chatFunc(ctx, messages, opts)
	}
	return &Response{Content: "mock response", Provider: m.name}, nil
}

func failing(err error) func(context.Context, []Message, *ChatOptions) (*Response, error) {
	return func(context.Context, []Message, *ChatOptions) (*Response, error) { return nil, err }
}

func TestRouterBasic(t *testing.T) {
	r := NewRouter("primary")
	r.RegisterProvider(&mockProvider{name: "primary"})

	p, err := r.Primary()
	if err != nil || p.Name() != "primary" {
		t.Fatalf("Primary: %v, %v", p, err)
	}

	names := r.ProviderNames()
	if len(names) != 1 || names[0] != "primary" {
		t.Fatalf("ProviderNames: %v", names)
	}
	if r.Name() != "router/primary" {
		t.Fatalf("Name: %s", r.Name())
	}
}

func TestRouterChat(t *testing.T) {
	r := NewRouter("main")
	r.RegisterProvider(&mockProvider{
		name: "main",
		chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
			return &Response{Content: "from main", Provider: "main"}, nil
		},
	})

	resp, err := r.Chat(context.Background(), []Message{UserMessage("test")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "from main" {
		t.Fatalf("unexpected: %s", resp.Content)
	}
}

func TestRouterFallback(t *testing.T) {
	r := NewRouter("primary", WithFallbacks("backup"), WithMaxRetries(1), WithRetryDelay(time.Millisecond))
	primary := &mockProvider{name: "primary", chatFunc: failing(ErrProviderDown)}
	r.RegisterProvider(primary)
	r.RegisterProvider(&mockProvider{name: "backup"})

	resp, err := r.Chat(context.Background(), []Message{UserMessage("test")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Provider != "backup" {
		t.Fatalf("expected backup provider, got %s", resp.Provider)
	}
	if primary.calls.Load() != 2 {
		t.Fatalf("expected 2 attempts on primary, got %d", primary.calls.Load())
	}
}

func TestRouterRetryRecovers(t *testing.T) {
	var n atomic.Int32
	r := NewRouter("flaky", WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	r.RegisterProvider(&mockProvider{
		name: "flaky",
		chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
			if n.Add(1) < 3 {
				return nil, ErrRateLimit
			}
			return &Response{Content: "ok"}, nil
		},
	})

	resp, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "ok" || n.Load() != 3 {
		t.Fatalf("expected success on third attempt, got %q after %d", resp.Content, n.Load())
	}
}

func TestRouterAllFail(t *testing.T) {
	r := NewRouter("a", WithFallbacks("b"), WithMaxRetries(0))
	r.RegisterProvider(&mockProvider{name: "a", chatFunc: failing(ErrProviderDown)})
	r.RegisterProvider(&mockProvider{name: "b", chatFunc: failing(ErrRateLimit)})

	_, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrRateLimit) || !strings.Contains(err.Error(), "all providers failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRouterNoProviders(t *testing.T) {
	r := NewRouter("missing")
	_, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestRouterNonRetryableError(t *testing.T) {
	r := NewRouter("a", WithFallbacks("b"), WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	a := &mockProvider{name: "a", chatFunc: failing(ErrNoAPIKey)}
	b := &mockProvider{name: "b"}
	r.RegisterProvider(a)
	r.RegisterProvider(b)

	_, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if a.calls.Load() != 1 || b.calls.Load() != 0 {
		t.Fatalf("non-retryable error should stop the chain: a=%d b=%d", a.calls.Load(), b.calls.Load())
	}
}

func TestRouterContextCancelled(t *testing.T) {
	r := NewRouter("slow", WithMaxRetries(5), WithRetryDelay(time.Hour))
	r.RegisterProvider(&mockProvider{name: "slow", chatFunc: failing(ErrProviderDown)})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.Chat(ctx, []Message{UserMessage("x")}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRouterHealthCheck(t *testing.T) {
	r := NewRouter("up")
	r.RegisterProvider(&mockProvider{name: "up"})
	r.RegisterProvider(&mockProvider{name: "down", pingErr: ErrProviderDown})

	status := r.HealthCheck(context.Background())
	if len(status) != 2 {
		t.Fatalf("expected 2 results, got %d", len(status))
	}
	if status["up"] != nil || !errors.Is(status["down"], ErrProviderDown) {
		t.Fatalf("unexpected health: %v", status)
	}
}

func TestRouterPing(t *testing.T) {
	r := NewRouter("p")
	if err := r.Ping(context.Background()); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders without primary, got %v", err)
	}
	r.RegisterProvider(&mockProvider{name: "p", pingErr: ErrProviderDown})
	if err := r.Ping(context.Background()); !errors.Is(err, ErrProviderDown) {
		t.Fatalf("expected ErrProviderDown, got %v", err)
	}
}

func TestNewRouterFromConfig(t *testing.T) {
	t.Run("openai primary with ollama fallback", func(t *testing.T) {
		r, err := NewRouterFromConfig(config.LLMConfig{
			Primary: "openai", OpenAIKey: "sk-test", Model: "gpt-4o-mini",
			OllamaURL: "http://localhost:11434", OllamaModel: "qwen2.5:7b",
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if r.primary != "openai" || len(r.fallbacks) != 1 || r.fallbacks[0] != "ollama" {
			t.Fatalf("unexpected chain: %s %v", r.primary, r.fallbacks)
		}
	})

	t.Run("missing key promotes ollama", func(t *testing.T) {
		r, err := NewRouterFromConfig(config.LLMConfig{
			Primary: "openai", OllamaURL: "http://localhost:11434", OllamaModel: "qwen2.5:7b",
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if r.primary != "ollama" || len(r.fallbacks) != 0 {
			t.Fatalf("unexpected chain: %s %v", r.primary, r.fallbacks)
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := NewRouterFromConfig(config.LLMConfig{Primary: "openai"}, nil)
		if !errors.Is(err, ErrNoProviders) {
			t.Fatalf("expected ErrNoProviders, got %v", err)
		}
	})
}

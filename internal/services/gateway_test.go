package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"corpchat-backend/internal/models"
)

func testConfig(baseURL string) GatewayConfig {
	return GatewayConfig{
		BaseURL:        baseURL,
		AccountID:      "acct",
		GatewayName:    "corp",
		GatewayToken:   "gw-token",
		OpenAIToken:    "openai-token",
		WorkersAIToken: "workers-token",
	}
}

var transcript = []models.ChatMessage{
	{Role: "system", Content: "be brief"},
	{Role: "user", Content: "hello"},
	{Role: "assistant", Content: "<p>hi</p>"},
	{Role: "user", Content: "how are you?"},
}

func TestBuildPayload_OpenAIPassesMessagesThrough(t *testing.T) {
	svc := NewGatewayService(testConfig("http://gateway.test"), nil)

	payload, err := svc.BuildPayload(models.ProviderOpenAI, "gpt-4o-mini", transcript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(payload.Messages, transcript) {
		t.Fatalf("messages changed: %+v", payload.Messages)
	}
	if payload.MaxTokens != 0 {
		t.Fatalf("openai payload must not carry max_tokens, got %d", payload.MaxTokens)
	}

	raw, _ := json.Marshal(payload)
	var fields map[string]json.RawMessage
	json.Unmarshal(raw, &fields)
	if _, ok := fields["max_tokens"]; ok {
		t.Fatalf("max_tokens serialized for openai: %s", raw)
	}
}

func TestBuildPayload_WorkersAICollapsesRoles(t *testing.T) {
	svc := NewGatewayService(testConfig("http://gateway.test"), nil)

	payload, err := svc.BuildPayload(models.ProviderWorkersAI, "@cf/meta/llama-2-7b-chat-fp16", transcript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.Messages) != len(transcript) {
		t.Fatalf("expected %d messages, got %d", len(transcript), len(payload.Messages))
	}
	for i, m := range payload.Messages {
		if m.Role != "user" && m.Role != "assistant" {
			t.Errorf("message %d has role %q", i, m.Role)
		}
		if m.Content != transcript[i].Content {
			t.Errorf("message %d content changed: %q", i, m.Content)
		}
	}
	if payload.Messages[0].Role != "assistant" {
		t.Errorf("system role should collapse to assistant, got %q", payload.Messages[0].Role)
	}
	if payload.MaxTokens != DefaultWorkersAIMaxTokens {
		t.Errorf("expected max_tokens %d, got %d", DefaultWorkersAIMaxTokens, payload.MaxTokens)
	}
	if transcript[0].Role != "system" {
		t.Fatalf("input transcript was mutated")
	}
}

func TestEndpoint(t *testing.T) {
	svc := NewGatewayService(testConfig("https://gateway.ai.cloudflare.com/v1"), nil)

	tests := []struct {
		provider models.Provider
		expected string
	}{
		{models.ProviderOpenAI, "https://gateway.ai.cloudflare.com/v1/acct/corp/openai/chat/completions"},
		{models.ProviderWorkersAI, "https://gateway.ai.cloudflare.com/v1/acct/corp/workers-ai/v1/chat/completions"},
	}

	for _, tc := range tests {
		got, err := svc.Endpoint(tc.provider)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.provider, err)
		}
		if got != tc.expected {
			t.Errorf("%s: expected %q, got %q", tc.provider, tc.expected, got)
		}
	}

	if _, err := svc.Endpoint(models.Provider(0)); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestBuildRequest_Headers(t *testing.T) {
	svc := NewGatewayService(testConfig("http://gateway.test"), nil)

	tests := []struct {
		provider models.Provider
		bearer   string
	}{
		{models.ProviderOpenAI, "Bearer openai-token"},
		{models.ProviderWorkersAI, "Bearer workers-token"},
	}

	for _, tc := range tests {
		req, err := svc.BuildRequest(context.Background(), tc.provider, "m", transcript)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", req.Method)
		}
		if got := req.Header.Get("Authorization"); got != tc.bearer {
			t.Errorf("%s: expected %q, got %q", tc.provider, tc.bearer, got)
		}
		if got := req.Header.Get("cf-aig-authorization"); got != "Bearer gw-token" {
			t.Errorf("%s: unexpected gateway auth %q", tc.provider, got)
		}
		if got := req.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("%s: unexpected content type %q", tc.provider, got)
		}
	}
}

// fakeGateway records the last request and replies with status and body.
type fakeGateway struct {
	status int
	body   string
	calls  atomic.Int32
	path   atomic.Value
	sent   atomic.Value
}

func (f *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	f.path.Store(r.URL.Path)
	b, _ := io.ReadAll(r.Body)
	f.sent.Store(b)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	io.WriteString(w, f.body)
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		status   int
		body     string
		expected string
		path     string
	}{
		{"openai success", "openai", http.StatusOK, `{"choices":[{"message":{"content":"**hi**"}}]}`, "**hi**", "/acct/corp/openai/chat/completions"},
		{"workersai success", "workersai", http.StatusOK, `{"result":{"response":"hi"}}`, "hi", "/acct/corp/workers-ai/v1/chat/completions"},
		{"invalid json is not fatal", "workersai", http.StatusOK, `<html>`, ParseErrorText, "/acct/corp/workers-ai/v1/chat/completions"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeGateway{status: tc.status, body: tc.body}
			srv := httptest.NewServer(fake)
			defer srv.Close()

			svc := NewGatewayService(testConfig(srv.URL), srv.Client())
			got, err := svc.Complete(context.Background(), models.ChatRequest{
				Messages:      transcript,
				ModelProvider: tc.provider,
				ModelName:     "some-model",
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
			if p, _ := fake.path.Load().(string); p != tc.path {
				t.Errorf("Expected path %q, got %q", tc.path, p)
			}

			var sent models.UpstreamRequest
			if err := json.Unmarshal(fake.sent.Load().([]byte), &sent); err != nil {
				t.Fatalf("upstream body is not JSON: %v", err)
			}
			if sent.Model != "some-model" {
				t.Errorf("Expected model to be forwarded, got %q", sent.Model)
			}
		})
	}
}

func TestComplete_PolicyBlocked(t *testing.T) {
	fake := &fakeGateway{status: http.StatusFailedDependency, body: `{"error":"blocked"}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	svc := NewGatewayService(testConfig(srv.URL), srv.Client())
	_, err := svc.Complete(context.Background(), models.ChatRequest{ModelProvider: "openai", ModelName: "gpt-4o-mini"})
	if !errors.Is(err, ErrPolicyBlocked) {
		t.Fatalf("expected ErrPolicyBlocked, got %v", err)
	}
}

func TestComplete_GatewayError(t *testing.T) {
	fake := &fakeGateway{status: http.StatusBadGateway, body: `{}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	svc := NewGatewayService(testConfig(srv.URL), srv.Client())
	_, err := svc.Complete(context.Background(), models.ChatRequest{ModelProvider: "workersai", ModelName: "m"})

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *GatewayError, got %v", err)
	}
	if gwErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", gwErr.StatusCode)
	}
	if err.Error() != "AI Gateway Error: 502" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestComplete_UnsupportedProviderMakesNoCall(t *testing.T) {
	fake := &fakeGateway{status: http.StatusOK, body: `{}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	svc := NewGatewayService(testConfig(srv.URL), srv.Client())
	_, err := svc.Complete(context.Background(), models.ChatRequest{ModelProvider: "anthropic", ModelName: "m"})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
	if n := fake.calls.Load(); n != 0 {
		t.Fatalf("expected no upstream call, got %d", n)
	}
}

func TestComplete_OpenAIMissingContent(t *testing.T) {
	fake := &fakeGateway{status: http.StatusOK, body: `{"choices":[]}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	svc := NewGatewayService(testConfig(srv.URL), srv.Client())
	_, err := svc.Complete(context.Background(), models.ChatRequest{ModelProvider: "openai", ModelName: "m"})
	if !errors.Is(err, ErrUnparseableResponse) {
		t.Fatalf("expected ErrUnparseableResponse, got %v", err)
	}
}

func TestNewGatewayService_NonPositiveTimeoutUsesDefault(t *testing.T) {
	for _, timeout := range []time.Duration{0, -5 * time.Second} {
		cfg := testConfig("http://gateway.test")
		cfg.Timeout = timeout

		svc := NewGatewayService(cfg, nil)
		if svc.client.Timeout != DefaultTimeout {
			t.Errorf("timeout %s: expected client timeout %s, got %s", timeout, DefaultTimeout, svc.client.Timeout)
		}
	}
}

func TestComplete_SlowGatewayTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
		io.WriteString(w, `{"response":"late"}`)
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL)
	cfg.Timeout = 100 * time.Millisecond
	svc := NewGatewayService(cfg, nil)

	start := time.Now()
	got, err := svc.Complete(context.Background(), models.ChatRequest{ModelProvider: "workersai", ModelName: "m"})
	if err == nil {
		t.Fatalf("expected timeout error, got reply %q", got)
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Errorf("expected a timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("request was not cut off, took %s", elapsed)
	}
}

func TestComplete_ResponseTooLarge(t *testing.T) {
	body := `{"response":"` + strings.Repeat("a", maxUpstreamBody) + `"}`
	fake := &fakeGateway{status: http.StatusOK, body: body}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	svc := NewGatewayService(testConfig(srv.URL), srv.Client())
	_, err := svc.Complete(context.Background(), models.ChatRequest{ModelProvider: "workersai", ModelName: "m"})
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("expected ErrResponseTooLarge, got %v", err)
	}
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"corpchat-backend/internal/logx"
	"corpchat-backend/internal/metrics"
	"corpchat-backend/internal/models"
)

const (
	// maxUpstreamBody caps how much of a gateway reply is read into memory.
	maxUpstreamBody = 8 << 20

	DefaultWorkersAIMaxTokens = 1000
	DefaultTimeout            = 120 * time.Second
)

// GatewayConfig carries everything needed to address both providers through
// the AI gateway. It is built once at startup from config.Config.
type GatewayConfig struct {
	BaseURL      string
	AccountID    string
	GatewayName  string
	GatewayToken string

	OpenAIToken        string
	WorkersAIToken     string
	WorkersAIMaxTokens int

	Timeout time.Duration
}

type GatewayService struct {
	cfg    GatewayConfig
	client *http.Client
}

// NewGatewayService returns a service using client, or a fresh client bounded
// by cfg.Timeout when client is nil. A non-positive timeout means DefaultTimeout.
func NewGatewayService(cfg GatewayConfig, client *http.Client) *GatewayService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.WorkersAIMaxTokens <= 0 {
		cfg.WorkersAIMaxTokens = DefaultWorkersAIMaxTokens
	}
	return &GatewayService{cfg: cfg, client: client}
}

// Complete sends the transcript to the requested provider and returns the
// generated text. A 424 from the gateway is reported as ErrPolicyBlocked.
func (s *GatewayService) Complete(ctx context.Context, req models.ChatRequest) (string, error) {
	provider, err := models.ParseProvider(req.ModelProvider)
	if err != nil {
		return "", err
	}

	httpReq, err := s.BuildRequest(ctx, provider, req.ModelName, req.Messages)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("AI Gateway request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(provider.String(), resp.StatusCode, time.Since(start))

	logx.Log.Debug().
		Str("provider", provider.String()).
		Str("model", req.ModelName).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("gateway response")

	if resp.StatusCode == StatusPolicyBlocked {
		return "", ErrPolicyBlocked
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &GatewayError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody+1))
	if err != nil {
		return "", fmt.Errorf("failed to read AI Gateway response: %w", err)
	}
	if len(body) > maxUpstreamBody {
		return "", fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, maxUpstreamBody)
	}

	return ExtractText(provider, body)
}

// BuildRequest assembles the outbound gateway request for provider.
func (s *GatewayService) BuildRequest(ctx context.Context, provider models.Provider, model string, messages []models.ChatMessage) (*http.Request, error) {
	endpoint, err := s.Endpoint(provider)
	if err != nil {
		return nil, err
	}
	token, err := s.providerToken(provider)
	if err != nil {
		return nil, err
	}
	payload, err := s.BuildPayload(provider, model, messages)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upstream request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("cf-aig-authorization", "Bearer "+s.cfg.GatewayToken)
	return httpReq, nil
}

// Endpoint returns the chat completions URL for provider.
func (s *GatewayService) Endpoint(provider models.Provider) (string, error) {
	var segments []string
	switch provider {
	case models.ProviderOpenAI:
		segments = []string{"openai", "chat", "completions"}
	case models.ProviderWorkersAI:
		segments = []string{"workers-ai", "v1", "chat", "completions"}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	elems := append([]string{s.cfg.AccountID, s.cfg.GatewayName}, segments...)
	endpoint, err := url.JoinPath(s.cfg.BaseURL, elems...)
	if err != nil {
		return "", fmt.Errorf("invalid gateway base URL: %w", err)
	}
	return endpoint, nil
}

// BuildPayload returns the provider-specific request body. OpenAI receives
// the transcript unchanged; Workers AI gets collapsed roles and a token cap.
func (s *GatewayService) BuildPayload(provider models.Provider, model string, messages []models.ChatMessage) (models.UpstreamRequest, error) {
	switch provider {
	case models.ProviderOpenAI:
		return models.UpstreamRequest{Model: model, Messages: messages}, nil
	case models.ProviderWorkersAI:
		return models.UpstreamRequest{
			Model:     model,
			Messages:  collapseRoles(messages),
			MaxTokens: s.cfg.WorkersAIMaxTokens,
		}, nil
	default:
		return models.UpstreamRequest{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

func (s *GatewayService) providerToken(provider models.Provider) (string, error) {
	switch provider {
	case models.ProviderOpenAI:
		return s.cfg.OpenAIToken, nil
	case models.ProviderWorkersAI:
		return s.cfg.WorkersAIToken, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

// collapseRoles keeps "user" and maps every other role to "assistant".
func collapseRoles(messages []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, len(messages))
	for i, m := range messages {
		role := "assistant"
		if m.Role == "user" {
			role = "user"
		}
		out[i] = models.ChatMessage{Role: role, Content: m.Content}
	}
	return out
}

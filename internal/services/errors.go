package services

import (
	"errors"
	"fmt"
	"net/http"

	"corpchat-backend/internal/models"
)

// ErrUnsupportedProvider is re-exported so callers only need this package.
var ErrUnsupportedProvider = models.ErrUnsupportedProvider

var (
	// ErrPolicyBlocked means the gateway refused the prompt (HTTP 424).
	ErrPolicyBlocked = errors.New("prompt blocked by gateway policy")

	// ErrUnparseableResponse means the upstream body was valid JSON but held no
	// generated text where the provider puts it.
	ErrUnparseableResponse = errors.New("unparseable upstream response")

	ErrResponseTooLarge = errors.New("AI Gateway response too large")
)

// StatusPolicyBlocked is the gateway status for prompts rejected by its guardrails.
const StatusPolicyBlocked = http.StatusFailedDependency

// GatewayError is a non-success, non-424 status returned by the gateway.
type GatewayError struct {
	StatusCode int
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("AI Gateway Error: %d", e.StatusCode)
}

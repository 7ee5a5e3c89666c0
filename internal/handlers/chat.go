package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"corpchat-backend/internal/logx"
	"corpchat-backend/internal/markup"
	"corpchat-backend/internal/metrics"
	"corpchat-backend/internal/middleware"
	"corpchat-backend/internal/models"
	"corpchat-backend/internal/services"
)

// ChatPath is the suffix that routes a request to the chat endpoint.
const ChatPath = "/api/chat"

const usageRecordTimeout = 2 * time.Second

// errInvalidRequest marks a chat body that could not be decoded.
var errInvalidRequest = errors.New("invalid request body")

type chatCompleter interface {
	Complete(ctx context.Context, req models.ChatRequest) (string, error)
}

type usageRecorder interface {
	Record(ctx context.Context, provider, model, outcome string) error
}

type ChatHandler struct {
	gateway      chatCompleter
	usage        usageRecorder
	maxBodyBytes int64
}

// NewChatHandler builds the chat endpoint. usage may be nil.
func NewChatHandler(gateway chatCompleter, usage usageRecorder, maxBodyBytes int64) *ChatHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &ChatHandler{
		gateway:      gateway,
		usage:        usage,
		maxBodyBytes: maxBodyBytes,
	}
}

// Chat handles POST */api/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeChatError(w, r, "", fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}

	reply, err := h.gateway.Complete(r.Context(), req)
	switch {
	case errors.Is(err, services.ErrPolicyBlocked):
		h.record(r.Context(), req, models.OutcomeBlocked)
		writeJSON(w, http.StatusOK, models.ChatResponse{
			Response:      services.BlockedReplyText,
			ModelProvider: req.ModelProvider,
		})
		return
	case err != nil:
		h.record(r.Context(), req, models.OutcomeError)
		writeChatError(w, r, req.ModelProvider, err)
		return
	}

	h.record(r.Context(), req, models.OutcomeSuccess)
	writeJSON(w, http.StatusOK, models.ChatResponse{
		Response:      markup.ToHTML(reply),
		ModelProvider: req.ModelProvider,
	})
}

// MethodNotAllowed answers non-POST requests to the chat endpoint.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// record updates metrics and the usage ledger. Unknown providers are counted
// in metrics under "unknown" and never reach the ledger.
func (h *ChatHandler) record(ctx context.Context, req models.ChatRequest, outcome string) {
	provider, err := models.ParseProvider(req.ModelProvider)
	if err != nil {
		metrics.RecordChatRequest("unknown", outcome)
		return
	}
	metrics.RecordChatRequest(provider.String(), outcome)

	if h.usage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageRecordTimeout)
	defer cancel()
	if err := h.usage.Record(ctx, provider.String(), req.ModelName, outcome); err != nil {
		logx.Log.Warn().
			Err(err).
			Str("request_id", middleware.GetRequestID(ctx)).
			Msg("usage not recorded")
	}
}

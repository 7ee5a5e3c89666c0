package handlers

import (
	"encoding/json"
	"net/http"

	"corpchat-backend/internal/logx"
	"corpchat-backend/internal/middleware"
	"corpchat-backend/internal/models"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logx.Log.Error().Err(err).Msg("write response")
	}
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: middleware.GetRequestID(r.Context()),
		},
	}
}

// writeChatError is the chat endpoint's single failure path: log, then answer
// 500 with the uniform error envelope.
func writeChatError(w http.ResponseWriter, r *http.Request, provider string, err error) {
	logx.Log.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("provider", provider).
		Msg("Error handling chat request")

	writeJSON(w, http.StatusInternalServerError, models.ChatErrorResponse{
		Error:         err.Error(),
		ModelProvider: models.ErrorProvider,
	})
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

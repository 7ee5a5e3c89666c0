package handlers

import (
	"net/http"
	"strings"
)

type PageHandler struct {
	page []byte
}

func NewPageHandler(page []byte) *PageHandler {
	return &PageHandler{page: page}
}

// Serve writes the chat page.
func (h *PageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(h.page)
}

// Dispatch is the catch-all for paths no explicit route claimed: anything
// ending in ChatPath goes to the chat endpoint (POST) or gets a 405, every
// other path gets the page.
func Dispatch(chat *ChatHandler, page *PageHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ChatPath) {
			if r.Method == http.MethodPost {
				chat.Chat(w, r)
				return
			}
			MethodNotAllowed(w, r)
			return
		}
		page.Serve(w, r)
	}
}

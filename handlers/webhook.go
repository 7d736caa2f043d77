package handlers

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"ryotgo/services/integrations"
)

// WebhookHandler serves POST /webhooks/integrations/{slug}, the sink
// half of C8: a self-hosted media server (Plex, Jellyfin) posts its own
// webhook payload shape directly, unauthenticated beyond the slug
// itself being an unguessable per-integration token.
type WebhookHandler struct {
	integrations *integrations.Service
}

func NewWebhookHandler(integrationsSvc *integrations.Service) *WebhookHandler {
	return &WebhookHandler{integrations: integrationsSvc}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}
	if err := h.integrations.HandleSinkWebhook(r.Context(), slug, body); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusOK)
}

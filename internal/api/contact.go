package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/weblithic/site/internal/mailer"
)

// ContactHandler relays contact form submissions.
type ContactHandler struct {
	sender mailer.Sender
	logger *slog.Logger
}

// NewContactHandler creates a ContactHandler.
func NewContactHandler(sender mailer.Sender, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{sender: sender, logger: logger}
}

// Contact handles /api/contact. Only POST is accepted.
func (h *ContactHandler) Contact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: "Method not allowed"})
		return
	}
	var msg mailer.Message
	if err := decodeJSON(w, r, &msg); err != nil || !msg.Complete() {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Missing required fields"})
		return
	}
	msg.Email = strings.TrimSpace(msg.Email)

	if err := h.sender.Send(r.Context(), msg); err != nil {
		h.logger.Error("contact: send failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, messageResponse{
			Message: "Error sending message",
			Error:   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Message sent successfully"})
}

// ClientConfigHandler serves the public client configuration.
type ClientConfigHandler struct {
	cfg    ClientConfig
	logger *slog.Logger
}

// NewClientConfigHandler creates a ClientConfigHandler.
func NewClientConfigHandler(cfg ClientConfig, logger *slog.Logger) *ClientConfigHandler {
	return &ClientConfigHandler{cfg: cfg, logger: logger}
}

// ClientConfig handles /api/client-config.
func (h *ClientConfigHandler) ClientConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
		return
	}

	if missing := h.cfg.Missing(); len(missing) > 0 {
		h.logger.Error("client config: missing values", slog.Any("fields", missing))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Server configuration error",
			"message": "Missing required environment variables",
		})
		return
	}
	writeJSON(w, http.StatusOK, h.cfg)
}

package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SecretTokenHeader carries the secret registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxUpdateBytes bounds the request body; Telegram updates are far smaller.
const maxUpdateBytes = 1 << 20

// WebhookHandler receives updates pushed by Telegram. Each update is handled
// synchronously, so Telegram's max_connections bounds concurrency and
// http.Server.Shutdown drains in-flight handlers.
type WebhookHandler struct {
	handler     Handler
	secretToken string
	logger      *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler. When secretToken is non-empty,
// requests without the matching header are rejected.
func NewWebhookHandler(handler Handler, secretToken string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		handler:     handler,
		secretToken: secretToken,
		logger:      logger,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.secretToken != "" {
		got := r.Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secretToken)) != 1 {
			h.logger.Warn("webhook request with invalid secret token", "remote_addr", r.RemoteAddr)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	msg, ok := ToIncoming(update)
	if !ok {
		h.logger.Debug("ignoring update", "update_id", update.UpdateID)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Always 200: any other status makes Telegram redeliver the update.
	if err := h.handler.Handle(context.WithoutCancel(r.Context()), msg); err != nil {
		h.logger.Error("handle message failed", "chat_id", msg.ChatID, "error", err)
	}
	w.WriteHeader(http.StatusOK)
}

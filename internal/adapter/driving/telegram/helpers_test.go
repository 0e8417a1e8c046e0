package telegram_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ericfisherdev/ephemvault/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// textUpdate builds a private-chat message update. A leading slash marks the
// first word as a bot_command entity, as Telegram does.
func textUpdate(updateID int, chatID int64, messageID int, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: messageID,
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		length := len(text)
		if i := strings.IndexByte(text, ' '); i != -1 {
			length = i
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	return tgbotapi.Update{UpdateID: updateID, Message: msg}
}

// recordingHandler collects handled messages.
type recordingHandler struct {
	mu      sync.Mutex
	handled []model.IncomingMessage
	err     error
	block   chan struct{}
	ctxErrs []error
}

func (h *recordingHandler) Handle(ctx context.Context, msg model.IncomingMessage) error {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, msg)
	h.ctxErrs = append(h.ctxErrs, ctx.Err())
	return h.err
}

func (h *recordingHandler) Handled() []model.IncomingMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.IncomingMessage(nil), h.handled...)
}

func (h *recordingHandler) ContextErrors() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.ctxErrs...)
}

// Package telegram is the driving adapter that turns Telegram updates into
// application commands, either by long polling or through a webhook.
package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ericfisherdev/ephemvault/internal/domain/model"
)

// Handler processes one incoming message. application.CommandService
// satisfies it.
type Handler interface {
	Handle(ctx context.Context, msg model.IncomingMessage) error
}

// ToIncoming extracts the message carried by an update. ok is false for
// updates the bot does not react to (edits, callbacks, channel posts).
// Command suffixes such as /get@vaultbot are stripped by tgbotapi.
func ToIncoming(update tgbotapi.Update) (msg model.IncomingMessage, ok bool) {
	m := update.Message
	if m == nil || m.Chat == nil {
		return model.IncomingMessage{}, false
	}

	return model.IncomingMessage{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Command:   m.Command(),
		Args:      strings.Fields(m.CommandArguments()),
	}, true
}

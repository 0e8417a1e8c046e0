package driven

import (
	"context"

	"github.com/ericfisherdev/ephemvault/internal/domain/model"
)

// Messenger defines the driven port for the chat transport's outbound side.
type Messenger interface {
	// Send posts text to the chat and returns the sent message.
	Send(ctx context.Context, chatID int64, text string) (model.OutgoingMessage, error)

	// Delete removes a message from the chat.
	Delete(ctx context.Context, msg model.OutgoingMessage) error
}

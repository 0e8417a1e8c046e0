package telegram_test

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ephemvault/internal/adapter/driving/telegram"
	"github.com/ericfisherdev/ephemvault/internal/domain/model"
)

func TestToIncoming(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.IncomingMessage
	}{
		{
			name: "set with arguments",
			text: "/set github alice hunter2",
			want: model.IncomingMessage{ChatID: 42, MessageID: 7, Command: "set", Args: []string{"github", "alice", "hunter2"}},
		},
		{
			name: "bot suffix is stripped",
			text: "/get@vaultbot github",
			want: model.IncomingMessage{ChatID: 42, MessageID: 7, Command: "get", Args: []string{"github"}},
		},
		{
			name: "extra whitespace collapses",
			text: "/del   github  ",
			want: model.IncomingMessage{ChatID: 42, MessageID: 7, Command: "del", Args: []string{"github"}},
		},
		{
			name: "bare command",
			text: "/start",
			want: model.IncomingMessage{ChatID: 42, MessageID: 7, Command: "start", Args: []string{}},
		},
		{
			name: "plain text has no command",
			text: "hello there",
			want: model.IncomingMessage{ChatID: 42, MessageID: 7, Command: "", Args: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := telegram.ToIncoming(textUpdate(1, 42, 7, tt.text))
			require.True(t, ok)

			assert.Equal(t, tt.want.ChatID, got.ChatID)
			assert.Equal(t, tt.want.MessageID, got.MessageID)
			assert.Equal(t, tt.want.Command, got.Command)
			assert.ElementsMatch(t, tt.want.Args, got.Args)
		})
	}
}

func TestToIncoming_IgnoresNonMessageUpdates(t *testing.T) {
	_, ok := telegram.ToIncoming(tgbotapi.Update{UpdateID: 1})
	assert.False(t, ok)

	_, ok = telegram.ToIncoming(tgbotapi.Update{UpdateID: 2, EditedMessage: &tgbotapi.Message{Text: "/get x"}})
	assert.False(t, ok)

	_, ok = telegram.ToIncoming(tgbotapi.Update{UpdateID: 3, Message: &tgbotapi.Message{Text: "/get x"}})
	assert.False(t, ok, "message without chat")
}

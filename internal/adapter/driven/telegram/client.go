// Package telegram implements the Messenger port using the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ericfisherdev/ephemvault/internal/domain/model"
	"github.com/ericfisherdev/ephemvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Messenger = (*Client)(nil)

// Client implements the driven.Messenger port on top of tgbotapi.BotAPI.
// The underlying library has no context support, so ctx is only checked
// before each call.
type Client struct {
	bot   *tgbotapi.BotAPI
	token string
}

// NewClient connects to the Telegram Bot API and verifies the token with getMe.
// timeout must exceed the long-poll timeout used for getUpdates.
func NewClient(token string, timeout time.Duration) (*Client, error) {
	return NewClientWithHTTPClient(&http.Client{Timeout: timeout}, tgbotapi.APIEndpoint, token)
}

// NewClientWithHTTPClient creates a Client against a custom endpoint format
// ("<base>/bot%s/%s"). This constructor is intended for testing, allowing
// injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, endpoint, token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", redact(err, token))
	}
	return &Client{bot: bot, token: token}, nil
}

// Username returns the bot's own username as reported by getMe.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// Send posts text as a plain message, without any parse mode, so user input
// is never interpreted as markup.
func (c *Client) Send(ctx context.Context, chatID int64, text string) (model.OutgoingMessage, error) {
	if err := ctx.Err(); err != nil {
		return model.OutgoingMessage{}, err
	}

	sent, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return model.OutgoingMessage{}, fmt.Errorf("sendMessage to chat %d: %w", chatID, redact(err, c.token))
	}
	return model.OutgoingMessage{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// Delete removes a message. deleteMessage returns a bare boolean, hence
// Request rather than Send.
func (c *Client) Delete(ctx context.Context, msg model.OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.bot.Request(tgbotapi.NewDeleteMessage(msg.ChatID, msg.MessageID)); err != nil {
		return fmt.Errorf("deleteMessage %d in chat %d: %w", msg.MessageID, msg.ChatID, redact(err, c.token))
	}
	return nil
}

// GetUpdates long-polls for updates. It is used by the driving adapter.
func (c *Client) GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	updates, err := c.bot.GetUpdates(config)
	if err != nil {
		return nil, fmt.Errorf("getUpdates: %w", redact(err, c.token))
	}
	return updates, nil
}

// SetWebhook registers url with Telegram. Telegram echoes secretToken in the
// X-Telegram-Bot-Api-Secret-Token header of every delivery.
func (c *Client) SetWebhook(url, secretToken string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secretToken)
	if _, err := c.bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("setWebhook: %w", redact(err, c.token))
	}
	return nil
}

// DeleteWebhook removes any registered webhook so getUpdates can be used.
func (c *Client) DeleteWebhook() error {
	if _, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("deleteWebhook: %w", redact(err, c.token))
	}
	return nil
}

// redactedError hides the bot token, which transport errors embed in the
// request URL.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), err: err}
}

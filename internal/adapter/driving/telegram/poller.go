package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/juju/clock"

	"github.com/ericfisherdev/ephemvault/internal/domain/model"
)

// DefaultRetryDelay is how long the poller waits after a failed getUpdates call.
const DefaultRetryDelay = 3 * time.Second

// UpdateSource fetches pending updates. *tgbotapi.BotAPI and the driven
// telegram Client both satisfy it.
type UpdateSource interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Poller long-polls an UpdateSource and hands messages to a Handler. Messages
// from one chat are handled one at a time in update order; different chats
// run concurrently. At most maxInFlight messages are queued or running.
type Poller struct {
	source     UpdateSource
	handler    Handler
	clock      clock.Clock
	timeout    time.Duration
	retryDelay time.Duration
	sem        chan struct{}
	wg         sync.WaitGroup
	logger     *slog.Logger

	mu     sync.Mutex
	queues map[int64][]model.IncomingMessage // a key is present while its chat worker runs
}

// NewPoller creates a Poller. timeout is the long-poll timeout sent to
// Telegram, rounded down to whole seconds.
func NewPoller(
	source UpdateSource,
	handler Handler,
	clk clock.Clock,
	timeout time.Duration,
	maxInFlight int,
	logger *slog.Logger,
) *Poller {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &Poller{
		source:     source,
		handler:    handler,
		clock:      clk,
		timeout:    timeout,
		retryDelay: DefaultRetryDelay,
		sem:        make(chan struct{}, maxInFlight),
		logger:     logger,
		queues:     make(map[int64][]model.IncomingMessage),
	}
}

// Start polls until ctx is cancelled. An in-flight getUpdates call is
// abandoned on cancellation; its updates were never acknowledged, so Telegram
// delivers them again on the next start.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("telegram poller started", "timeout", p.timeout)

	offset := 0
	for {
		updates, err := p.fetch(ctx, offset)
		if ctx.Err() != nil {
			p.logger.Info("telegram poller stopped")
			return
		}
		if err != nil {
			p.logger.Error("get updates failed", "error", err, "retry_in", p.retryDelay)
			select {
			case <-ctx.Done():
				p.logger.Info("telegram poller stopped")
				return
			case <-p.clock.After(p.retryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if !p.dispatch(ctx, update) {
				p.logger.Info("telegram poller stopped")
				return
			}
		}
	}
}

// Wait blocks until every dispatched handler has returned.
func (p *Poller) Wait() {
	p.wg.Wait()
}

type fetchResult struct {
	updates []tgbotapi.Update
	err     error
}

func (p *Poller) fetch(ctx context.Context, offset int) ([]tgbotapi.Update, error) {
	config := tgbotapi.NewUpdate(offset)
	config.Timeout = int(p.timeout / time.Second)
	config.AllowedUpdates = []string{"message"}

	done := make(chan fetchResult, 1)
	go func() {
		updates, err := p.source.GetUpdates(config)
		done <- fetchResult{updates: updates, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.updates, res.err
	}
}

// dispatch queues one update on its chat's worker, starting the worker if
// the chat has none. It reports false when ctx was cancelled while waiting
// for a free handler slot.
func (p *Poller) dispatch(ctx context.Context, update tgbotapi.Update) bool {
	msg, ok := ToIncoming(update)
	if !ok {
		p.logger.Debug("ignoring update", "update_id", update.UpdateID)
		return true
	}

	// The slot is held from here until the handler returns, so a backlog in
	// one chat still counts against maxInFlight.
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return false
	}

	p.mu.Lock()
	queue, running := p.queues[msg.ChatID]
	p.queues[msg.ChatID] = append(queue, msg)
	p.mu.Unlock()
	if running {
		return true
	}

	// Handlers outlive the polling context so replies already in progress
	// complete during shutdown.
	handlerCtx := context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.drain(handlerCtx, msg.ChatID)
	}()
	return true
}

// drain handles chatID's queued messages in order and exits once the queue
// is empty.
func (p *Poller) drain(ctx context.Context, chatID int64) {
	for {
		p.mu.Lock()
		queue := p.queues[chatID]
		if len(queue) == 0 {
			delete(p.queues, chatID)
			p.mu.Unlock()
			return
		}
		msg := queue[0]
		p.queues[chatID] = queue[1:]
		p.mu.Unlock()

		if err := p.handler.Handle(ctx, msg); err != nil {
			p.logger.Error("handle message failed", "chat_id", msg.ChatID, "error", err)
		}
		<-p.sem
	}
}

package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/ericfisherdev/ephemvault/internal/domain/model"
	"github.com/ericfisherdev/ephemvault/internal/domain/port/driven"
	"github.com/ericfisherdev/ephemvault/internal/metrics"
)

// deleteTimeout bounds a single message deletion call.
const deleteTimeout = 10 * time.Second

type pendingErasure struct {
	msg   model.OutgoingMessage
	timer clock.Timer
}

// ErasureService owns the timers behind deletion requests. Deletions are
// fire-and-forget: a failed delete (message already gone, chat closed) is
// logged and counted, never returned to the caller.
type ErasureService struct {
	messenger driven.Messenger
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[uint64]pendingErasure
	nextID  uint64
	flushed bool
}

// NewErasureService creates an ErasureService. Pass clock.WallClock in production.
func NewErasureService(messenger driven.Messenger, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) *ErasureService {
	return &ErasureService{
		messenger: messenger,
		clock:     clk,
		metrics:   m,
		logger:    logger,
		pending:   make(map[uint64]pendingErasure),
	}
}

// Schedule deletes msg after the given delay. After Flush has run, the
// message is deleted immediately instead.
func (s *ErasureService) Schedule(msg model.OutgoingMessage, after time.Duration) {
	s.mu.Lock()
	if s.flushed {
		s.mu.Unlock()
		s.erase(msg)
		return
	}

	id := s.nextID
	s.nextID++
	timer := s.clock.AfterFunc(after, func() { s.fire(id) })
	s.pending[id] = pendingErasure{msg: msg, timer: timer}
	n := len(s.pending)
	s.mu.Unlock()

	s.metrics.SetPendingErasures(n)
}

// Pending returns the number of deletions waiting for their timer.
func (s *ErasureService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush stops every pending timer and deletes the messages now, so nothing
// scheduled for erasure outlives the process. It blocks until all deletions
// have been attempted or ctx is done.
func (s *ErasureService) Flush(ctx context.Context) {
	s.mu.Lock()
	s.flushed = true
	msgs := make([]model.OutgoingMessage, 0, len(s.pending))
	for id, p := range s.pending {
		p.timer.Stop()
		msgs = append(msgs, p.msg)
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.metrics.SetPendingErasures(0)
	if len(msgs) == 0 {
		return
	}
	s.logger.Info("flushing pending erasures", "count", len(msgs))

	var wg sync.WaitGroup
	for _, msg := range msgs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.erase(msg)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("erasure flush interrupted", "error", ctx.Err())
	}
}

// fire runs on the timer goroutine. Whoever removes the entry from pending
// (fire or Flush) performs the deletion, so a message is deleted once.
func (s *ErasureService) fire(id uint64) {
	s.mu.Lock()
	p, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	n := len(s.pending)
	s.mu.Unlock()

	if !ok {
		return
	}
	s.metrics.SetPendingErasures(n)
	s.erase(p.msg)
}

func (s *ErasureService) erase(msg model.OutgoingMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	if err := s.messenger.Delete(ctx, msg); err != nil {
		s.logger.Debug("message erasure failed",
			"chat_id", msg.ChatID,
			"message_id", msg.MessageID,
			"error", err,
		)
		s.metrics.ObserveErasure(false)
		return
	}
	s.metrics.ObserveErasure(true)
}

package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ephemvault/internal/adapter/driven/memory"
	"github.com/ericfisherdev/ephemvault/internal/application"
	"github.com/ericfisherdev/ephemvault/internal/domain/model"
	"github.com/ericfisherdev/ephemvault/internal/domain/port/driven"
	"github.com/ericfisherdev/ephemvault/internal/domain/vaultkey"
)

var testEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock implementations ---

type sendCall struct {
	ChatID int64
	Text   string
}

type mockMessenger struct {
	mu        sync.Mutex
	nextID    int
	sends     []sendCall
	deletes   []model.OutgoingMessage
	sendErr   error
	deleteErr error
}

func (m *mockMessenger) Send(_ context.Context, chatID int64, text string) (model.OutgoingMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return model.OutgoingMessage{}, m.sendErr
	}
	m.nextID++
	m.sends = append(m.sends, sendCall{ChatID: chatID, Text: text})
	return model.OutgoingMessage{ChatID: chatID, MessageID: 1000 + m.nextID}, nil
}

func (m *mockMessenger) Delete(_ context.Context, msg model.OutgoingMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, msg)
	return m.deleteErr
}

func (m *mockMessenger) Sends() []sendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sendCall(nil), m.sends...)
}

func (m *mockMessenger) Deletes() []model.OutgoingMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OutgoingMessage(nil), m.deletes...)
}

type scheduleCall struct {
	Msg   model.OutgoingMessage
	After time.Duration
}

type mockScheduler struct {
	calls []scheduleCall
}

func (m *mockScheduler) Schedule(msg model.OutgoingMessage, after time.Duration) {
	m.calls = append(m.calls, scheduleCall{Msg: msg, After: after})
}

// failingStore reports every operation as a connectivity failure.
type failingStore struct{}

var errConnRefused = errors.New("connection refused")

func (failingStore) Set(context.Context, string, string, time.Duration) error {
	return errors.Join(driven.ErrStoreUnavailable, errConnRefused)
}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.Join(driven.ErrStoreUnavailable, errConnRefused)
}

func (failingStore) Exists(context.Context, string) (bool, error) {
	return false, errors.Join(driven.ErrStoreUnavailable, errConnRefused)
}

func (failingStore) Delete(context.Context, string) error {
	return errors.Join(driven.ErrStoreUnavailable, errConnRefused)
}

func (failingStore) Ping(context.Context) error {
	return errors.Join(driven.ErrStoreUnavailable, errConnRefused)
}

// --- Helpers ---

func newTestDeriver(t *testing.T) *vaultkey.Deriver {
	t.Helper()
	d, err := vaultkey.New([]byte("test-master-secret"))
	require.NoError(t, err)
	return d
}

// newTestVault returns a vault backed by an in-memory store on a test clock.
func newTestVault(t *testing.T) (*application.VaultService, *memory.EntryStore, *testclock.Clock) {
	t.Helper()
	clk := testclock.NewClock(testEpoch)
	store := memory.NewEntryStore(clk)
	vault := application.NewVaultService(
		store,
		newTestDeriver(t),
		model.DefaultEntryTTL,
		model.DefaultDisclosureTTL,
		discardLogger(),
	)
	return vault, store, clk
}

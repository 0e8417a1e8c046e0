package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ephemvault/internal/application"
	"github.com/ericfisherdev/ephemvault/internal/domain/model"
)

func newTestCommandService(t *testing.T, vault *application.VaultService) (*application.CommandService, *mockMessenger, *mockScheduler) {
	t.Helper()
	messenger := &mockMessenger{}
	scheduler := &mockScheduler{}
	svc := application.NewCommandService(
		vault,
		messenger,
		scheduler,
		model.DefaultEntryTTL,
		model.DefaultDisclosureTTL,
		nil,
		discardLogger(),
	)
	return svc, messenger, scheduler
}

func TestCommandService_Dispatch(t *testing.T) {
	vault, _, _ := newTestVault(t)
	svc, _, _ := newTestCommandService(t, vault)
	ctx := context.Background()

	res, err := svc.Dispatch(ctx, model.IncomingMessage{ChatID: 42, Command: "set", Args: []string{"github", "alice", "p@ss"}})
	require.NoError(t, err)
	assert.Equal(t, application.ReplyAdded, res.Reply)

	res, err = svc.Dispatch(ctx, model.IncomingMessage{ChatID: 42, Command: "get", Args: []string{"github"}})
	require.NoError(t, err)
	assert.Equal(t, "Service: github\nLogin: alice\nPassword: p@ss", res.Reply)

	res, err = svc.Dispatch(ctx, model.IncomingMessage{ChatID: 42, Command: "del", Args: []string{"github"}})
	require.NoError(t, err)
	assert.Equal(t, application.ReplyDeleted, res.Reply)

	res, err = svc.Dispatch(ctx, model.IncomingMessage{ChatID: 42, Command: "get", Args: []string{"github"}})
	require.NoError(t, err)
	assert.Equal(t, application.ReplyNotFound, res.Reply)
}

func TestCommandService_DispatchIgnoresCommandCase(t *testing.T) {
	vault, _, _ := newTestVault(t)
	svc, _, _ := newTestCommandService(t, vault)
	ctx := context.Background()

	res, err := svc.Dispatch(ctx, model.IncomingMessage{ChatID: 42, Command: "Set", Args: []string{"github", "alice", "p@ss"}})
	require.NoError(t, err)
	assert.Equal(t, application.ReplyAdded, res.Reply)

	res, err = svc.Dispatch(ctx, model.IncomingMessage{ChatID: 42, Command: "GET", Args: []string{"github"}})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeOK, res.Outcome)
	assert.Equal(t, "Service: github\nLogin: alice\nPassword: p@ss", res.Reply)

	res, err = svc.Dispatch(ctx, model.IncomingMessage{ChatID: 42, Command: "START"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeOK, res.Outcome)
	assert.Contains(t, res.Reply, "/get <service_name>")
}

func TestCommandService_DispatchStartAndUnknown(t *testing.T) {
	vault, _, _ := newTestVault(t)
	svc, _, _ := newTestCommandService(t, vault)
	ctx := context.Background()

	res, err := svc.Dispatch(ctx, model.IncomingMessage{ChatID: 42, Command: "start"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeOK, res.Outcome)
	assert.Contains(t, res.Reply, "/set <service_name> <login> <password>")
	assert.Contains(t, res.Reply, "60 seconds")
	assert.Contains(t, res.Reply, "10 seconds")
	assert.Empty(t, res.Deletions)

	for _, msg := range []model.IncomingMessage{
		{ChatID: 42, Command: "list"},
		{ChatID: 42, Command: ""},
	} {
		res, err = svc.Dispatch(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeUnknownCommand, res.Outcome)
		assert.Equal(t, "You wrote wrong command!\nType /start for showing command list.", res.Reply)
		assert.Empty(t, res.Deletions)
	}
}

func TestCommandService_HandleGetSchedulesBothErasures(t *testing.T) {
	vault, _, _ := newTestVault(t)
	svc, messenger, scheduler := newTestCommandService(t, vault)
	ctx := context.Background()

	_, err := vault.Store(ctx, "42", []string{"github", "alice", "p@ss"})
	require.NoError(t, err)

	err = svc.Handle(ctx, model.IncomingMessage{ChatID: 42, MessageID: 5, Command: "get", Args: []string{"github"}})
	require.NoError(t, err)

	require.Len(t, messenger.Sends(), 1)
	assert.Equal(t, sendCall{ChatID: 42, Text: "Service: github\nLogin: alice\nPassword: p@ss"}, messenger.Sends()[0])
	assert.Equal(t, []scheduleCall{
		{Msg: model.OutgoingMessage{ChatID: 42, MessageID: 5}, After: 10 * time.Second},
		{Msg: model.OutgoingMessage{ChatID: 42, MessageID: 1001}, After: 10 * time.Second},
	}, scheduler.calls)
}

func TestCommandService_HandleUsageErasesOnlyCommand(t *testing.T) {
	vault, _, _ := newTestVault(t)
	svc, messenger, scheduler := newTestCommandService(t, vault)

	err := svc.Handle(context.Background(), model.IncomingMessage{ChatID: 42, MessageID: 5, Command: "set", Args: []string{"1"}})
	require.NoError(t, err)

	require.Len(t, messenger.Sends(), 1)
	assert.Equal(t, application.UsageSet, messenger.Sends()[0].Text)
	assert.Equal(t, []scheduleCall{
		{Msg: model.OutgoingMessage{ChatID: 42, MessageID: 5}, After: 10 * time.Second},
	}, scheduler.calls)
}

func TestCommandService_HandleStartSchedulesNothing(t *testing.T) {
	vault, _, _ := newTestVault(t)
	svc, messenger, scheduler := newTestCommandService(t, vault)

	err := svc.Handle(context.Background(), model.IncomingMessage{ChatID: 42, MessageID: 5, Command: "start"})
	require.NoError(t, err)

	assert.Len(t, messenger.Sends(), 1)
	assert.Empty(t, scheduler.calls)
}

func TestCommandService_HandleStoreFailure(t *testing.T) {
	vault := application.NewVaultService(failingStore{}, newTestDeriver(t), time.Minute, 10*time.Second, discardLogger())
	svc, messenger, scheduler := newTestCommandService(t, vault)

	err := svc.Handle(context.Background(), model.IncomingMessage{ChatID: 42, MessageID: 5, Command: "set", Args: []string{"github", "alice", "p@ss"}})
	require.NoError(t, err)

	require.Len(t, messenger.Sends(), 1)
	assert.Equal(t, application.ReplyInternal, messenger.Sends()[0].Text)
	assert.NotContains(t, messenger.Sends()[0].Text, "connection refused")
	assert.Equal(t, []scheduleCall{
		{Msg: model.OutgoingMessage{ChatID: 42, MessageID: 5}, After: 10 * time.Second},
	}, scheduler.calls, "the command echoing the password is still erased")
}

func TestCommandService_HandleSendFailure(t *testing.T) {
	vault, _, _ := newTestVault(t)
	svc, messenger, scheduler := newTestCommandService(t, vault)
	messenger.sendErr = errors.New("Forbidden: bot was blocked by the user")

	err := svc.Handle(context.Background(), model.IncomingMessage{ChatID: 42, MessageID: 5, Command: "set", Args: []string{"github", "alice", "p@ss"}})

	require.Error(t, err)
	assert.Len(t, scheduler.calls, 1, "command erasure is scheduled before sending")
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "42", application.Identity(42))
	assert.Equal(t, "-1001234567890", application.Identity(-1001234567890))
}

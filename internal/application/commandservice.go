package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/ephemvault/internal/domain/model"
	"github.com/ericfisherdev/ephemvault/internal/domain/port/driven"
	"github.com/ericfisherdev/ephemvault/internal/metrics"
)

// Command names as typed after the slash.
const (
	CommandStart = "start"
	CommandSet   = "set"
	CommandGet   = "get"
	CommandDel   = "del"
)

const (
	ReplyWrongCommand = "You wrote wrong command!\nType /start for showing command list."
	ReplyInternal     = "Something went wrong, please try again later."
)

// Scheduler accepts deletion requests for sent messages.
type Scheduler interface {
	Schedule(msg model.OutgoingMessage, after time.Duration)
}

// CommandService routes incoming chat messages to the vault, sends the reply
// and hands every deletion request to the scheduler. It is the only place
// where vault results meet the transport.
type CommandService struct {
	vault         *VaultService
	messenger     driven.Messenger
	scheduler     Scheduler
	entryTTL      time.Duration
	disclosureTTL time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewCommandService creates a CommandService with all required dependencies.
func NewCommandService(
	vault *VaultService,
	messenger driven.Messenger,
	scheduler Scheduler,
	entryTTL time.Duration,
	disclosureTTL time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CommandService {
	return &CommandService{
		vault:         vault,
		messenger:     messenger,
		scheduler:     scheduler,
		entryTTL:      entryTTL,
		disclosureTTL: disclosureTTL,
		metrics:       m,
		logger:        logger,
	}
}

// Dispatch maps a message to its vault operation and returns the result
// without touching the transport. Commands match case-insensitively. Store errors are returned unchanged.
func (s *CommandService) Dispatch(ctx context.Context, msg model.IncomingMessage) (model.Result, error) {
	identity := Identity(msg.ChatID)

	switch strings.ToLower(msg.Command) {
	case CommandStart:
		return model.Result{Outcome: model.OutcomeOK, Reply: s.StartText()}, nil
	case CommandSet:
		return s.vault.Store(ctx, identity, msg.Args)
	case CommandGet:
		return s.vault.Retrieve(ctx, identity, msg.Args)
	case CommandDel:
		return s.vault.Remove(ctx, identity, msg.Args)
	default:
		return model.Result{Outcome: model.OutcomeUnknownCommand, Reply: ReplyWrongCommand}, nil
	}
}

// Handle dispatches msg, sends the reply and schedules the requested
// deletions. The command message is scheduled for erasure even when the
// vault fails, since it may echo a password.
func (s *CommandService) Handle(ctx context.Context, msg model.IncomingMessage) error {
	result, err := s.Dispatch(ctx, msg)
	if err != nil {
		s.logger.Error("command failed", "command", msg.Command, "chat_id", msg.ChatID, "error", err)
		s.metrics.ObserveCommand(metricCommand(msg.Command), "error")
		result = model.Result{
			Reply:     ReplyInternal,
			Deletions: []model.DeletionRequest{{Target: model.TargetCommand, After: s.disclosureTTL}},
		}
	} else {
		s.metrics.ObserveCommand(metricCommand(msg.Command), string(result.Outcome))
		s.logger.Debug("command handled", "command", msg.Command, "chat_id", msg.ChatID, "outcome", result.Outcome)
	}

	incoming := model.OutgoingMessage{ChatID: msg.ChatID, MessageID: msg.MessageID}
	for _, d := range result.Deletions {
		if d.Target == model.TargetCommand {
			s.scheduler.Schedule(incoming, d.After)
		}
	}

	sent, sendErr := s.messenger.Send(ctx, msg.ChatID, result.Reply)
	if sendErr != nil {
		return fmt.Errorf("send reply: %w", sendErr)
	}

	for _, d := range result.Deletions {
		if d.Target == model.TargetReply {
			s.scheduler.Schedule(sent, d.After)
		}
	}

	return nil
}

// StartText is the /start help message.
func (s *CommandService) StartText() string {
	return fmt.Sprintf("Hi!\n"+
		"Service is removed %s after being added.\n"+
		"Get command shows data for %s.\n"+
		"Your get/set/del commands are erased after %s because of security.\n"+
		"Usage:\n"+
		"/set <service_name> <login> <password>\n"+
		"/get <service_name>\n"+
		"/del <service_name>\n"+
		"/start",
		humanDuration(s.entryTTL), humanDuration(s.disclosureTTL), humanDuration(s.disclosureTTL))
}

// Identity renders a chat id as the vault's user identity.
func Identity(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// metricCommand keeps the label set bounded: anything unknown is "other".
func metricCommand(cmd string) string {
	cmd = strings.ToLower(cmd)
	switch cmd {
	case CommandStart, CommandSet, CommandGet, CommandDel:
		return cmd
	default:
		return "other"
	}
}

func humanDuration(d time.Duration) string {
	if d%time.Second == 0 {
		secs := int64(d / time.Second)
		if secs == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}
	return d.String()
}

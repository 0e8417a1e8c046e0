// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/ephemvault/internal/domain/codec"
	"github.com/ericfisherdev/ephemvault/internal/domain/model"
	"github.com/ericfisherdev/ephemvault/internal/domain/port/driven"
	"github.com/ericfisherdev/ephemvault/internal/domain/vaultkey"
)

// Fixed user-facing replies. They never vary with input so that outcomes
// cannot be told apart by anything but the outcome itself.
const (
	UsageSet = "Usage: /set <service_name> <login> <password>"
	UsageGet = "Usage: /get <service_name>"
	UsageDel = "Usage: /del <service_name>"

	ReplyAdded    = "Successfully added!"
	ReplyDeleted  = "Successfully deleted!"
	ReplyNotFound = "Given service is not found.\nPossibly it was deleted."
)

// VaultService implements store, retrieve and remove for one (identity,
// service) slot at a time. It holds no state of its own; expiry is the
// store's job.
type VaultService struct {
	store         driven.EntryStore
	deriver       *vaultkey.Deriver
	entryTTL      time.Duration
	disclosureTTL time.Duration
	logger        *slog.Logger
}

// NewVaultService creates a VaultService with the required dependencies.
func NewVaultService(
	store driven.EntryStore,
	deriver *vaultkey.Deriver,
	entryTTL time.Duration,
	disclosureTTL time.Duration,
	logger *slog.Logger,
) *VaultService {
	return &VaultService{
		store:         store,
		deriver:       deriver,
		entryTTL:      entryTTL,
		disclosureTTL: disclosureTTL,
		logger:        logger,
	}
}

// Store saves login and password under args = [service, login, password],
// overwriting any live entry for the slot.
func (s *VaultService) Store(ctx context.Context, identity string, args []string) (model.Result, error) {
	if len(args) != 3 {
		return s.usage(UsageSet), nil
	}
	service, login, password := args[0], args[1], args[2]

	blob, err := codec.Encode(model.Credential{Login: login, Password: password}, s.deriver.DeriveEntrySecret(identity, service))
	if err != nil {
		return model.Result{}, fmt.Errorf("encode credential: %w", err)
	}

	if err := s.store.Set(ctx, s.deriver.StorageKey(identity, service), blob, s.entryTTL); err != nil {
		return model.Result{}, fmt.Errorf("store credential: %w", err)
	}

	return model.Result{
		Outcome:   model.OutcomeOK,
		Reply:     ReplyAdded,
		Deletions: s.eraseBoth(),
	}, nil
}

// Retrieve returns the credential stored under args = [service]. Absent,
// expired and undecodable entries all yield the same not-found result.
func (s *VaultService) Retrieve(ctx context.Context, identity string, args []string) (model.Result, error) {
	if len(args) != 1 {
		return s.usage(UsageGet), nil
	}
	service := args[0]
	key := s.deriver.StorageKey(identity, service)

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return model.Result{}, fmt.Errorf("check credential: %w", err)
	}
	if !exists {
		return s.notFound(), nil
	}

	blob, found, err := s.store.Get(ctx, key)
	if err != nil {
		return model.Result{}, fmt.Errorf("load credential: %w", err)
	}
	if !found {
		// Expired between Exists and Get.
		return s.notFound(), nil
	}

	cred, err := codec.Decode(blob, s.deriver.DeriveEntrySecret(identity, service))
	if err != nil {
		if !errors.Is(err, codec.ErrIntegrity) {
			return model.Result{}, fmt.Errorf("decode credential: %w", err)
		}
		s.logger.Warn("stored credential failed verification", "identity", identity)
		return s.notFound(), nil
	}
	cred.Service = service

	return model.Result{
		Outcome:    model.OutcomeOK,
		Reply:      FormatCredential(cred),
		Credential: &cred,
		Deletions:  s.eraseBoth(),
	}, nil
}

// Remove deletes the entry stored under args = [service].
func (s *VaultService) Remove(ctx context.Context, identity string, args []string) (model.Result, error) {
	if len(args) != 1 {
		return s.usage(UsageDel), nil
	}
	key := s.deriver.StorageKey(identity, args[0])

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return model.Result{}, fmt.Errorf("check credential: %w", err)
	}
	if !exists {
		return s.notFound(), nil
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return model.Result{}, fmt.Errorf("delete credential: %w", err)
	}

	return model.Result{
		Outcome:   model.OutcomeOK,
		Reply:     ReplyDeleted,
		Deletions: s.eraseBoth(),
	}, nil
}

// FormatCredential renders the disclosure reply for a retrieved credential.
func FormatCredential(cred model.Credential) string {
	return fmt.Sprintf("Service: %s\nLogin: %s\nPassword: %s", cred.Service, cred.Login, cred.Password)
}

// usage and notFound replies carry nothing sensitive, so only the command
// message (which echoes the arguments) is erased.
func (s *VaultService) usage(text string) model.Result {
	return model.Result{
		Outcome:   model.OutcomeUsageError,
		Reply:     text,
		Deletions: s.eraseCommand(),
	}
}

func (s *VaultService) notFound() model.Result {
	return model.Result{
		Outcome:   model.OutcomeNotFound,
		Reply:     ReplyNotFound,
		Deletions: s.eraseCommand(),
	}
}

func (s *VaultService) eraseCommand() []model.DeletionRequest {
	return []model.DeletionRequest{{Target: model.TargetCommand, After: s.disclosureTTL}}
}

func (s *VaultService) eraseBoth() []model.DeletionRequest {
	return []model.DeletionRequest{
		{Target: model.TargetCommand, After: s.disclosureTTL},
		{Target: model.TargetReply, After: s.disclosureTTL},
	}
}

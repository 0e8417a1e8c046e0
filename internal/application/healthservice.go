package application

import (
	"context"
	"time"

	"github.com/ericfisherdev/ephemvault/internal/domain/port/driven"
)

// healthTimeout bounds a single store ping.
const healthTimeout = 2 * time.Second

// HealthService reports whether the backing store is reachable.
type HealthService struct {
	store driven.EntryStore
}

// NewHealthService creates a new HealthService with the required dependencies.
func NewHealthService(store driven.EntryStore) *HealthService {
	return &HealthService{store: store}
}

// Check pings the store. A nil error means the service can take traffic.
func (s *HealthService) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return s.store.Ping(ctx)
}

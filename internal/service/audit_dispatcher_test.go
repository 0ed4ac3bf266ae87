package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edumanage-api/internal/models"
	"github.com/noah-isme/edumanage-api/pkg/jobs"
)

func TestAuditDispatcherFlushesOnStop(t *testing.T) {
	store := &mockAuditRecorder{}
	dispatcher := NewAuditDispatcher(store, jobs.QueueConfig{Workers: 2})
	dispatcher.Start(context.Background())

	for _, action := range []string{models.AuditActionCreate, models.AuditActionUpdate, models.AuditActionDelete} {
		require.NoError(t, dispatcher.Create(context.Background(), &models.AuditLog{Action: action, Resource: "students"}))
	}
	dispatcher.Stop()

	assert.Len(t, store.entries(), 3)
	for _, entry := range store.entries() {
		assert.NotEmpty(t, entry.ID)
	}
}

func TestAuditDispatcherRetriesStoreFailures(t *testing.T) {
	store := &flakyAuditStore{failures: 1}
	dispatcher := NewAuditDispatcher(store, jobs.QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	dispatcher.Start(context.Background())

	require.NoError(t, dispatcher.Create(context.Background(), &models.AuditLog{Action: models.AuditActionLogin}))
	dispatcher.Stop()

	assert.Equal(t, 2, store.calls)
	assert.Equal(t, 1, store.stored)
}

func TestAuditDispatcherRejectsAfterStop(t *testing.T) {
	dispatcher := NewAuditDispatcher(&mockAuditRecorder{}, jobs.QueueConfig{})
	dispatcher.Start(context.Background())
	dispatcher.Stop()

	assert.Error(t, dispatcher.Create(context.Background(), &models.AuditLog{Action: models.AuditActionLogout}))
}

// flakyAuditStore is only called from one worker at a time.
type flakyAuditStore struct {
	failures int
	calls    int
	stored   int
}

func (s *flakyAuditStore) Create(ctx context.Context, log *models.AuditLog) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("db unavailable")
	}
	s.stored++
	return nil
}

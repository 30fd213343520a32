package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/indexer/domain"
)

// setupTestRedis connects to TEST_REDIS_ADDR and returns a client plus a
// unique key prefix that is removed after the test.
func setupTestRedis(t *testing.T) (*redis.Client, string) {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping redis tests")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	require.NoError(t, err)

	prefix := "test_indexer_" + uuid.NewString()
	t.Cleanup(func() {
		keys, err := client.Keys(ctx, prefix+":*").Result()
		if err == nil && len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		_ = client.Close()
	})
	return client, prefix
}

func TestCredentialStore(t *testing.T) {
	client, prefix := setupTestRedis(t)
	store := NewCredentialStore(client, prefix)
	ctx := context.Background()

	_, err := store.GetCredentialByUserID(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
	assert.ErrorIs(t, store.UpdateCredentialStatus(ctx, "user-1", domain.StatusUpdate{Status: domain.CredentialStatusActive}), domain.ErrCredentialNotFound)

	// The failed update must not have created a partial hash.
	n, err := client.Exists(ctx, prefix+":credential:user-1").Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	id := uuid.NewString()
	require.NoError(t, store.UpsertCredential(ctx, &domain.Credential{
		ID:          id,
		UserID:      "user-1",
		ProjectID:   "p1",
		ClientEmail: "a@p1.iam.gserviceaccount.com",
		PrivateKey:  "key-1",
		Status:      domain.CredentialStatusPending,
	}))

	require.NoError(t, store.UpdateCredentialStatus(ctx, "user-1", domain.StatusUpdate{
		Status:       domain.CredentialStatusInvalid,
		ErrorMessage: "Permission denied.",
	}))
	got, err := store.GetCredentialByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, domain.CredentialStatusInvalid, got.Status)
	assert.Equal(t, "Permission denied.", got.ErrorMessage)
	assert.Equal(t, "key-1", got.PrivateKey)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, store.UpsertCredential(ctx, &domain.Credential{
		ID:          uuid.NewString(),
		UserID:      "user-1",
		ProjectID:   "p2",
		ClientEmail: "b@p2.iam.gserviceaccount.com",
		PrivateKey:  "key-2",
		Status:      domain.CredentialStatusPending,
	}))
	got, err = store.GetCredentialByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "p2", got.ProjectID)
	assert.Equal(t, domain.CredentialStatusPending, got.Status)
	assert.Empty(t, got.ErrorMessage)
}

func TestSubmissionLogStore(t *testing.T) {
	client, prefix := setupTestRedis(t)
	store := NewSubmissionLogStore(client, prefix)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, u := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
		require.NoError(t, store.CreateSubmissionLog(ctx, &domain.SubmissionLog{
			ID:         uuid.NewString(),
			UserID:     "user-1",
			URL:        u,
			Type:       domain.NotificationURLUpdated,
			StatusCode: 200,
			Success:    true,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	logs, err := store.ListSubmissionLogs(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "https://example.com/3", logs[0].URL)
	assert.Equal(t, "https://example.com/2", logs[1].URL)

	logs, err = store.ListSubmissionLogs(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, logs, 3)

	logs, err = store.ListSubmissionLogs(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

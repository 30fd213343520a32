package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.pilab.hu/indexer/domain"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, CreateSchema(context.Background(), db))
	// Idempotent.
	require.NoError(t, CreateSchema(context.Background(), db))
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.ErrorContains(t, err, "unsupported sql driver")
}

func TestCredentialRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepository(db)
	ctx := context.Background()

	_, err := repo.GetCredentialByUserID(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
	assert.ErrorIs(t, repo.UpdateCredentialStatus(ctx, "user-1", domain.StatusUpdate{Status: domain.CredentialStatusActive}), domain.ErrCredentialNotFound)

	id := uuid.NewString()
	require.NoError(t, repo.UpsertCredential(ctx, &domain.Credential{
		ID:          id,
		UserID:      "user-1",
		ProjectID:   "p1",
		ClientEmail: "a@p1.iam.gserviceaccount.com",
		PrivateKey:  "key-1",
		Status:      domain.CredentialStatusPending,
	}))

	require.NoError(t, repo.UpdateCredentialStatus(ctx, "user-1", domain.StatusUpdate{
		Status:       domain.CredentialStatusInvalid,
		ErrorMessage: "Permission denied.",
	}))
	got, err := repo.GetCredentialByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, domain.CredentialStatusInvalid, got.Status)
	assert.Equal(t, "Permission denied.", got.ErrorMessage)
	assert.Equal(t, "key-1", got.PrivateKey)

	require.NoError(t, repo.UpdateCredentialStatus(ctx, "user-1", domain.StatusUpdate{Status: domain.CredentialStatusActive}))
	got, err = repo.GetCredentialByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CredentialStatusActive, got.Status)
	assert.Empty(t, got.ErrorMessage)

	// Saving again replaces the row in place.
	require.NoError(t, repo.UpsertCredential(ctx, &domain.Credential{
		ID:          uuid.NewString(),
		UserID:      "user-1",
		ProjectID:   "p2",
		ClientEmail: "b@p2.iam.gserviceaccount.com",
		PrivateKey:  "key-2",
		Status:      domain.CredentialStatusPending,
	}))
	got, err = repo.GetCredentialByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "p2", got.ProjectID)
	assert.Equal(t, "key-2", got.PrivateKey)
	assert.Equal(t, domain.CredentialStatusPending, got.Status)

	count, err := db.NewSelect().Model((*credentialModel)(nil)).Where("user_id = ?", "user-1").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSubmissionLogRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionLogRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, u := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
		require.NoError(t, repo.CreateSubmissionLog(ctx, &domain.SubmissionLog{
			ID:         uuid.NewString(),
			UserID:     "user-1",
			URL:        u,
			Type:       domain.NotificationURLUpdated,
			StatusCode: 200,
			Success:    true,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.CreateSubmissionLog(ctx, &domain.SubmissionLog{
		ID:           uuid.NewString(),
		UserID:       "user-2",
		URL:          "https://example.org/",
		Type:         domain.NotificationURLDeleted,
		StatusCode:   403,
		ErrorMessage: "Permission denied.",
	}))

	logs, err := repo.ListSubmissionLogs(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "https://example.com/3", logs[0].URL)
	assert.Equal(t, "https://example.com/2", logs[1].URL)

	logs, err = repo.ListSubmissionLogs(ctx, "user-2", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)
	assert.Equal(t, domain.NotificationURLDeleted, logs[0].Type)
	assert.Equal(t, "Permission denied.", logs[0].ErrorMessage)
}

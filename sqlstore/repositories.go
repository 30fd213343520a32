package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.pilab.hu/indexer/domain"
)

// CredentialRepository implements domain.CredentialRepository on bun.
type CredentialRepository struct {
	db *bun.DB
}

var _ domain.CredentialRepository = (*CredentialRepository)(nil)

func NewCredentialRepository(db *bun.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) GetCredentialByUserID(ctx context.Context, userID string) (*domain.Credential, error) {
	var m credentialModel
	err := r.db.NewSelect().Model(&m).Where("user_id = ?", userID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

// UpsertCredential inserts cred or, when the user already has a row,
// replaces its key material and status in place. id and created_at are kept.
func (r *CredentialRepository) UpsertCredential(ctx context.Context, cred *domain.Credential) error {
	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	if cred.UpdatedAt.IsZero() {
		cred.UpdatedAt = now
	}

	_, err := r.db.NewInsert().
		Model(credentialToModel(cred)).
		On("CONFLICT (user_id) DO UPDATE").
		Set("project_id = EXCLUDED.project_id").
		Set("client_email = EXCLUDED.client_email").
		Set("private_key = EXCLUDED.private_key").
		Set("status = EXCLUDED.status").
		Set("error_message = EXCLUDED.error_message").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *CredentialRepository) UpdateCredentialStatus(ctx context.Context, userID string, upd domain.StatusUpdate) error {
	var errMsg any
	if upd.ErrorMessage != "" {
		errMsg = upd.ErrorMessage
	}

	res, err := r.db.NewUpdate().
		Model((*credentialModel)(nil)).
		Set("status = ?", string(upd.Status)).
		Set("error_message = ?", errMsg).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCredentialNotFound
	}
	return nil
}

// SubmissionLogRepository implements domain.SubmissionLogRepository on bun.
type SubmissionLogRepository struct {
	db *bun.DB
}

var _ domain.SubmissionLogRepository = (*SubmissionLogRepository)(nil)

func NewSubmissionLogRepository(db *bun.DB) *SubmissionLogRepository {
	return &SubmissionLogRepository{db: db}
}

func (r *SubmissionLogRepository) CreateSubmissionLog(ctx context.Context, entry *domain.SubmissionLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NewInsert().Model(&submissionLogModel{
		ID:           entry.ID,
		UserID:       entry.UserID,
		URL:          entry.URL,
		Type:         string(entry.Type),
		StatusCode:   entry.StatusCode,
		Success:      entry.Success,
		ErrorMessage: entry.ErrorMessage,
		CreatedAt:    entry.CreatedAt,
	}).Exec(ctx)
	return err
}

func (r *SubmissionLogRepository) ListSubmissionLogs(ctx context.Context, userID string, limit int) ([]*domain.SubmissionLog, error) {
	var rows []submissionLogModel
	q := r.db.NewSelect().Model(&rows).Where("user_id = ?", userID).OrderExpr("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	entries := make([]*domain.SubmissionLog, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toDomain())
	}
	return entries, nil
}

package domain

import (
	"context"
	"errors"
)

//go:generate mockgen -destination=mocks/mock_repositories.go -package=mocks . CredentialRepository,SubmissionLogRepository

// ErrCredentialNotFound is returned by repositories when no credential exists for a user.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialRepository stores one Credential per user.
type CredentialRepository interface {
	// GetCredentialByUserID returns ErrCredentialNotFound when the user has none.
	GetCredentialByUserID(ctx context.Context, userID string) (*Credential, error)
	// UpsertCredential creates or replaces the user's credential, keyed by UserID.
	UpsertCredential(ctx context.Context, cred *Credential) error
	// UpdateCredentialStatus writes only status and error_message.
	UpdateCredentialStatus(ctx context.Context, userID string, update StatusUpdate) error
}

// SubmissionLogRepository keeps a history of publish attempts.
type SubmissionLogRepository interface {
	CreateSubmissionLog(ctx context.Context, entry *SubmissionLog) error
	// ListSubmissionLogs returns the newest entries first.
	ListSubmissionLogs(ctx context.Context, userID string, limit int) ([]*SubmissionLog, error)
}

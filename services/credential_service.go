package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.pilab.hu/indexer/domain"
	serrors "go.pilab.hu/indexer/errors"
	"go.pilab.hu/indexer/internal/audit"
	"go.pilab.hu/indexer/internal/google"
	"go.pilab.hu/indexer/log"
)

// Messages for rejected credential uploads.
const (
	MsgUserIDRequired      = "user_id is required"
	MsgClientEmailRequired = "client_email is required"
)

// CredentialInput is the key material an operator stores for a user. It
// mirrors the fields of a Google service-account JSON key file.
type CredentialInput struct {
	UserID      string `json:"user_id"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// CredentialService manages stored service-account credentials.
type CredentialService struct {
	repo   domain.CredentialRepository
	logs   domain.SubmissionLogRepository
	logger log.Logger
	audit  *audit.Logger
	now    func() time.Time
}

func NewCredentialService(repo domain.CredentialRepository, logs domain.SubmissionLogRepository, logger log.Logger, a *audit.Logger) *CredentialService {
	if logger == nil {
		logger = log.NewNop()
	}
	return &CredentialService{repo: repo, logs: logs, logger: logger, audit: a, now: time.Now}
}

// Save validates in and upserts it as the user's only credential. Saving new
// key material resets the status to pending and clears the last error.
func (s *CredentialService) Save(ctx context.Context, in CredentialInput) (*domain.Credential, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.ClientEmail = strings.TrimSpace(in.ClientEmail)
	if in.UserID == "" {
		return nil, serrors.NewValidationError(MsgUserIDRequired)
	}
	if in.ClientEmail == "" {
		return nil, serrors.NewValidationError(MsgClientEmailRequired)
	}
	if _, err := google.ParsePrivateKey(in.PrivateKey); err != nil {
		// Surface the key problem as a validation failure; nothing is stored.
		e := serrors.NewValidationError(serrors.AsError(err).Message)
		e.Err = err
		return nil, e
	}

	now := s.now().UTC()
	cred := &domain.Credential{
		UserID:      in.UserID,
		ProjectID:   in.ProjectID,
		ClientEmail: in.ClientEmail,
		PrivateKey:  in.PrivateKey,
		Status:      domain.CredentialStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	existing, err := s.repo.GetCredentialByUserID(ctx, in.UserID)
	switch {
	case err == nil && existing != nil:
		cred.ID = existing.ID
		cred.CreatedAt = existing.CreatedAt
	case errors.Is(err, domain.ErrCredentialNotFound):
		cred.ID = uuid.NewString()
	case err != nil:
		return nil, serrors.NewUnknownError(fmt.Errorf("load credential: %w", err))
	}

	if err := s.repo.UpsertCredential(ctx, cred); err != nil {
		s.audit.Log(audit.ActionCredentialSaved, in.UserID, in.ClientEmail, "", false, err)
		return nil, serrors.NewUnknownError(fmt.Errorf("save credential: %w", err))
	}

	s.audit.Log(audit.ActionCredentialSaved, in.UserID, in.ClientEmail, "status reset to pending", true, nil)
	s.logger.Info(ctx, "credential saved", log.Fields{"user_id": in.UserID, "client_email": in.ClientEmail})
	return cred, nil
}

// Get returns the redacted credential of userID.
func (s *CredentialService) Get(ctx context.Context, userID string) (*domain.CredentialView, error) {
	cred, err := s.repo.GetCredentialByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return nil, serrors.NewCredentialNotFound(err)
		}
		return nil, serrors.NewUnknownError(err)
	}
	view := cred.View()
	return &view, nil
}

// History returns the newest submission logs of userID.
func (s *CredentialService) History(ctx context.Context, userID string, limit int) ([]*domain.SubmissionLog, error) {
	if s.logs == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	entries, err := s.logs.ListSubmissionLogs(ctx, userID, limit)
	if err != nil {
		return nil, serrors.NewUnknownError(err)
	}
	return entries, nil
}

package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
	"go.pilab.hu/indexer/domain"
)

type credentialModel struct {
	bun.BaseModel `bun:"table:google_credentials,alias:gc"`

	ID           string    `bun:"id,pk"`
	UserID       string    `bun:"user_id,notnull,unique"`
	ProjectID    string    `bun:"project_id,notnull"`
	ClientEmail  string    `bun:"client_email,notnull"`
	PrivateKey   string    `bun:"private_key,notnull"`
	Status       string    `bun:"status,notnull"`
	ErrorMessage string    `bun:"error_message,nullzero"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func credentialToModel(c *domain.Credential) *credentialModel {
	return &credentialModel{
		ID:           c.ID,
		UserID:       c.UserID,
		ProjectID:    c.ProjectID,
		ClientEmail:  c.ClientEmail,
		PrivateKey:   c.PrivateKey,
		Status:       string(c.Status),
		ErrorMessage: c.ErrorMessage,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (m *credentialModel) toDomain() *domain.Credential {
	return &domain.Credential{
		ID:           m.ID,
		UserID:       m.UserID,
		ProjectID:    m.ProjectID,
		ClientEmail:  m.ClientEmail,
		PrivateKey:   m.PrivateKey,
		Status:       domain.CredentialStatus(m.Status),
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type submissionLogModel struct {
	bun.BaseModel `bun:"table:indexing_submissions,alias:isub"`

	ID           string    `bun:"id,pk"`
	UserID       string    `bun:"user_id,notnull"`
	URL          string    `bun:"url,notnull"`
	Type         string    `bun:"type,notnull"`
	StatusCode   int       `bun:"status_code,notnull"`
	Success      bool      `bun:"success,notnull"`
	ErrorMessage string    `bun:"error_message,nullzero"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

func (m *submissionLogModel) toDomain() *domain.SubmissionLog {
	return &domain.SubmissionLog{
		ID:           m.ID,
		UserID:       m.UserID,
		URL:          m.URL,
		Type:         domain.NotificationType(m.Type),
		StatusCode:   m.StatusCode,
		Success:      m.Success,
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt,
	}
}

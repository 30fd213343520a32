package domain

import "time"

// CredentialStatus is the coarse health indicator of a stored service-account credential.
type CredentialStatus string

const (
	CredentialStatusPending CredentialStatus = "pending"
	CredentialStatusActive  CredentialStatus = "active"
	CredentialStatusInvalid CredentialStatus = "invalid"
)

// IsValid reports whether s is one of the known statuses.
func (s CredentialStatus) IsValid() bool {
	switch s {
	case CredentialStatusPending, CredentialStatusActive, CredentialStatusInvalid:
		return true
	}
	return false
}

func (s CredentialStatus) String() string { return string(s) }

// Credential is the per-user Google service account used to call the Indexing API.
// There is exactly one Credential per UserID.
type Credential struct {
	ID           string           `json:"id" bson:"_id,omitempty"`
	UserID       string           `json:"user_id" bson:"user_id"`
	ProjectID    string           `json:"project_id" bson:"project_id"`
	ClientEmail  string           `json:"client_email" bson:"client_email"`
	PrivateKey   string           `json:"-" bson:"private_key"` // PEM encoded PKCS#8, never echoed back
	Status       CredentialStatus `json:"status" bson:"status"`
	ErrorMessage string           `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" bson:"updated_at"`
}

// StatusUpdate is the only mutation the indexing flow performs on a Credential.
type StatusUpdate struct {
	Status       CredentialStatus
	ErrorMessage string
}

// Apply returns a copy of c with the update applied.
func (u StatusUpdate) Apply(c Credential) Credential {
	c.Status = u.Status
	c.ErrorMessage = u.ErrorMessage
	return c
}

// CredentialView is the redacted representation handed to callers.
type CredentialView struct {
	ProjectID    string           `json:"project_id" yaml:"project_id"`
	ClientEmail  string           `json:"client_email" yaml:"client_email"`
	Status       CredentialStatus `json:"status" yaml:"status"`
	ErrorMessage string           `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at" yaml:"updated_at"`
}

// View strips the key material.
func (c *Credential) View() CredentialView {
	return CredentialView{
		ProjectID:    c.ProjectID,
		ClientEmail:  c.ClientEmail,
		Status:       c.Status,
		ErrorMessage: c.ErrorMessage,
		UpdatedAt:    c.UpdatedAt,
	}
}

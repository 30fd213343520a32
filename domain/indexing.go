package domain

import (
	"encoding/json"
	"time"
)

// NotificationType is the Indexing API notification kind.
type NotificationType string

const (
	NotificationURLUpdated NotificationType = "URL_UPDATED"
	NotificationURLDeleted NotificationType = "URL_DELETED"
)

// IsValid reports whether t is accepted by the Indexing API.
func (t NotificationType) IsValid() bool {
	return t == NotificationURLUpdated || t == NotificationURLDeleted
}

// IndexingRequest is a single URL notification.
type IndexingRequest struct {
	URL  string           `json:"url"`
	Type NotificationType `json:"type"`
}

// PublishResult is what the Indexing API answered. A non-2xx answer is a
// result, not an error.
type PublishResult struct {
	StatusCode   int
	Body         json.RawMessage
	OK           bool
	ErrorMessage string
}

// Principal is a caller verified by the identity service.
type Principal struct {
	ID    string
	Email string
}

// SubmissionLog records one publish attempt. It never carries tokens or keys.
type SubmissionLog struct {
	ID           string           `json:"id" bson:"_id"`
	UserID       string           `json:"user_id" bson:"user_id"`
	URL          string           `json:"url" bson:"url"`
	Type         NotificationType `json:"type" bson:"type"`
	StatusCode   int              `json:"status_code" bson:"status_code"`
	Success      bool             `json:"success" bson:"success"`
	ErrorMessage string           `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at" bson:"created_at"`
}

// BulkRequest submits several URLs with one notification type.
type BulkRequest struct {
	URLs []string         `json:"urls"`
	Type NotificationType `json:"type,omitempty"`
}

// BulkItem is the outcome for one URL of a bulk submission.
type BulkItem struct {
	URL    string          `json:"url"`
	Status int             `json:"status"`
	OK     bool            `json:"ok"`
	Body   json.RawMessage `json:"body,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// BulkResult summarises a bulk submission.
type BulkResult struct {
	Submitted int        `json:"submitted"`
	Failed    int        `json:"failed"`
	Results   []BulkItem `json:"results"`
}

// Package api holds what the HTTP adapters share: routes, CORS values and
// the response shapes.
package api

import (
	"context"

	"go.pilab.hu/indexer/domain"
	"go.pilab.hu/indexer/services"
)

// Routes served by every adapter.
const (
	PathPublish    = "/google-indexing"
	PathBulk       = "/google-indexing/bulk"
	PathCredential = "/google-indexing/credential"
)

// CORS values sent on every response, including errors and preflights.
const (
	CORSAllowOrigin  = "*"
	CORSAllowHeaders = "authorization, x-client-info, apikey, content-type"
	CORSAllowMethods = "GET, POST, OPTIONS"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 1 << 20

// ErrorResponse is the single failure shape: {"error": message}.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Authenticator resolves an Authorization header to a caller.
type Authenticator interface {
	Authenticate(ctx context.Context, authHeader string) (*domain.Principal, error)
}

// IndexingService is what the adapters need from services.IndexingService.
type IndexingService interface {
	Authenticator
	Publish(ctx context.Context, userID string, body []byte) (*domain.PublishResult, error)
	PublishBulk(ctx context.Context, userID string, body []byte) (*domain.BulkResult, error)
	CredentialView(ctx context.Context, userID string) (*domain.CredentialView, error)
}

var _ IndexingService = (*services.IndexingService)(nil)

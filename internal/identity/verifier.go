// Package identity verifies the bearer tokens callers present to the relay.
package identity

import (
	"context"

	"go.pilab.hu/indexer/domain"
)

// Verifier resolves a caller's bearer token to a Principal.
// Failures are returned as auth errors carrying the "Invalid token" message.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.Principal, error)
}

package services

import (
	"context"

	"go.pilab.hu/indexer/domain"
	"golang.org/x/oauth2"
)

// Signer builds a signed JWT-bearer assertion for a stored credential.
type Signer interface {
	Sign(cred *domain.Credential) (string, error)
}

// Exchanger trades an assertion for an access token.
type Exchanger interface {
	Exchange(ctx context.Context, assertion string) (*oauth2.Token, error)
}

// Publisher sends a single URL notification.
type Publisher interface {
	Publish(ctx context.Context, token *oauth2.Token, req domain.IndexingRequest) (*domain.PublishResult, error)
}

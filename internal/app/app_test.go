package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/indexer/config"
	serrors "go.pilab.hu/indexer/errors"
	"go.pilab.hu/indexer/internal/identity"
	"go.pilab.hu/indexer/internal/store"
)

func TestNewVerifier(t *testing.T) {
	remote, err := NewVerifier(&config.ServerConfig{IdentityMode: config.IdentityRemote, IdentityURL: "http://id.local"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &identity.RemoteVerifier{}, remote)

	local, err := NewVerifier(&config.ServerConfig{IdentityMode: config.IdentityJWT, IdentityJWTSecret: "s3cret"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &identity.JWTVerifier{}, local)

	_, err = NewVerifier(&config.ServerConfig{IdentityMode: "ldap"}, nil)
	assert.Error(t, err)
}

func TestNewIndexingService_WithoutVerifier(t *testing.T) {
	ctx := context.Background()
	cfg := &config.ServerConfig{
		StoreDriver:     config.StoreSQLite,
		SQLDSN:          ":memory:",
		UpstreamTimeout: time.Second,
		BulkMaxURLs:     10,
	}
	p, err := store.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })

	svc := NewIndexingService(cfg, p, nil, Components{})

	_, err = svc.Authenticate(ctx, "Bearer abc")
	assert.Equal(t, serrors.KindAuth, serrors.KindOf(err))

	_, err = svc.Publish(ctx, "nobody", []byte(`{"url":"https://example.com/"}`))
	assert.Equal(t, serrors.KindCredentialNotFound, serrors.KindOf(err))
}

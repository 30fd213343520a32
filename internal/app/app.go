// Package app assembles the indexing services from configuration. It is
// shared by the server and the operator CLI.
package app

import (
	"fmt"
	"net/http"

	"go.pilab.hu/indexer/config"
	"go.pilab.hu/indexer/internal/audit"
	"go.pilab.hu/indexer/internal/google"
	"go.pilab.hu/indexer/internal/identity"
	"go.pilab.hu/indexer/internal/metrics"
	"go.pilab.hu/indexer/internal/store"
	"go.pilab.hu/indexer/log"
	"go.pilab.hu/indexer/services"
)

// Components are the optional cross-cutting collaborators.
type Components struct {
	Logger  log.Logger
	Metrics *metrics.Metrics
	Audit   *audit.Logger
	// HTTPClient is shared by all outbound calls. Nil gets one client per
	// upstream with UpstreamTimeout as its deadline.
	HTTPClient *http.Client
}

// NewVerifier returns the caller verifier selected by cfg.IdentityMode.
func NewVerifier(cfg *config.ServerConfig, client *http.Client) (identity.Verifier, error) {
	switch cfg.IdentityMode {
	case config.IdentityRemote:
		return identity.NewRemoteVerifier(cfg.IdentityURL, cfg.IdentityAPIKey, client, cfg.UpstreamTimeout), nil
	case config.IdentityJWT:
		return identity.NewJWTVerifier(cfg.IdentityJWTSecret), nil
	default:
		return nil, fmt.Errorf("unknown identity mode %q", cfg.IdentityMode)
	}
}

// NewIndexingService wires the Google clients and the given repositories.
// verifier may be nil when the caller is already known, as in the CLI.
func NewIndexingService(cfg *config.ServerConfig, p *store.Provider, verifier identity.Verifier, c Components) *services.IndexingService {
	return services.NewIndexingService(services.IndexingDeps{
		Verifier:    verifier,
		Credentials: p.Credentials,
		Logs:        p.Logs,
		Signer:      google.NewAssertionSigner(cfg.GoogleIndexingScope, cfg.GoogleTokenURL),
		Exchanger:   google.NewTokenExchanger(cfg.GoogleTokenURL, c.HTTPClient, cfg.UpstreamTimeout),
		Publisher:   google.NewPublishClient(cfg.GoogleIndexingURL, c.HTTPClient, cfg.UpstreamTimeout),
		Logger:      c.Logger,
		Metrics:     c.Metrics,
		Audit:       c.Audit,
		BulkMaxURLs: cfg.BulkMaxURLs,
	})
}

// NewCredentialService wires the credential management service.
func NewCredentialService(p *store.Provider, c Components) *services.CredentialService {
	return services.NewCredentialService(p.Credentials, p.Logs, c.Logger, c.Audit)
}

// Package store opens the configured repository backend.
package store

import (
	"context"
	"fmt"

	"go.pilab.hu/indexer/config"
	"go.pilab.hu/indexer/domain"
	"go.pilab.hu/indexer/mongodb"
	"go.pilab.hu/indexer/redisstore"
	"go.pilab.hu/indexer/sqlstore"
)

// Provider hands out the repositories of one backend.
type Provider struct {
	Credentials domain.CredentialRepository
	Logs        domain.SubmissionLogRepository
	Driver      string

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Open connects to the backend named by cfg.StoreDriver and prepares its
// collections, tables or keyspace.
func Open(ctx context.Context, cfg *config.ServerConfig) (*Provider, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return openMongo(ctx, cfg)
	case config.StorePostgres, config.StoreSQLite:
		return openSQL(ctx, cfg)
	case config.StoreRedis:
		return openRedis(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openMongo(ctx context.Context, cfg *config.ServerConfig) (*Provider, error) {
	db, err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, err
	}
	creds, err := mongodb.NewCredentialRepositoryMongo(ctx, db)
	if err != nil {
		mongodb.CloseMongoDB(ctx)
		return nil, fmt.Errorf("failed to initialize credential repository: %w", err)
	}
	logs, err := mongodb.NewSubmissionLogRepositoryMongo(ctx, db)
	if err != nil {
		mongodb.CloseMongoDB(ctx)
		return nil, fmt.Errorf("failed to initialize submission log repository: %w", err)
	}

	return &Provider{
		Credentials: creds,
		Logs:        logs,
		Driver:      config.StoreMongo,
		ping:        mongodb.Ping,
		close: func(ctx context.Context) error {
			mongodb.CloseMongoDB(ctx)
			return nil
		},
	}, nil
}

func openSQL(ctx context.Context, cfg *config.ServerConfig) (*Provider, error) {
	db, err := sqlstore.Open(cfg.StoreDriver, cfg.SQLDSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.StoreDriver, err)
	}
	if err := sqlstore.CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Provider{
		Credentials: sqlstore.NewCredentialRepository(db),
		Logs:        sqlstore.NewSubmissionLogRepository(db),
		Driver:      cfg.StoreDriver,
		ping:        db.PingContext,
		close:       func(context.Context) error { return db.Close() },
	}, nil
}

func openRedis(ctx context.Context, cfg *config.ServerConfig) (*Provider, error) {
	client, err := redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}

	return &Provider{
		Credentials: redisstore.NewCredentialStore(client, cfg.RedisPrefix),
		Logs:        redisstore.NewSubmissionLogStore(client, cfg.RedisPrefix),
		Driver:      config.StoreRedis,
		ping:        func(ctx context.Context) error { return client.Ping(ctx).Err() },
		close:       func(context.Context) error { return client.Close() },
	}, nil
}

// Ping reports whether the backend answers.
func (p *Provider) Ping(ctx context.Context) error {
	if p.ping == nil {
		return nil
	}
	return p.ping(ctx)
}

// Close releases the backend connection.
func (p *Provider) Close(ctx context.Context) error {
	if p.close == nil {
		return nil
	}
	return p.close(ctx)
}

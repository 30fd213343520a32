// Package cmd implements indexctl, the operator CLI. It talks to the
// configured store directly and publishes on behalf of a given user.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.pilab.hu/indexer/config"
	"go.pilab.hu/indexer/internal/app"
	"go.pilab.hu/indexer/internal/audit"
	"go.pilab.hu/indexer/internal/store"
	"go.pilab.hu/indexer/log"
	"go.pilab.hu/indexer/services"
)

const appName = "indexctl"

// env is what every subcommand works against.
type env struct {
	cfg         *config.ServerConfig
	logger      log.Logger
	stores      *store.Provider
	indexing    *services.IndexingService
	credentials *services.CredentialService
}

func (e *env) close(ctx context.Context) error {
	if e == nil || e.stores == nil {
		return nil
	}
	return e.stores.Close(ctx)
}

// loadConfig is replaced in tests.
var loadConfig = config.LoadConfig

func openEnv(ctx context.Context, verbose bool) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := log.NewZerologAdapter(level, true)

	stores, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}

	components := app.Components{
		Logger: logger,
		Audit:  audit.New(appName, os.Stderr),
	}
	return &env{
		cfg:         cfg,
		logger:      logger,
		stores:      stores,
		indexing:    app.NewIndexingService(cfg, stores, nil, components),
		credentials: app.NewCredentialService(stores, components),
	}, nil
}

// newRootCmd builds the command tree. Subcommands reach the opened env
// once PersistentPreRunE has run. The returned func releases it and must be
// called after Execute, whether or not the command failed.
func newRootCmd() (*cobra.Command, func(context.Context) error) {
	var (
		e       *env
		verbose bool
	)

	root := &cobra.Command{
		Use:           appName,
		Short:         "indexctl manages Indexing API credentials and submissions",
		Long:          `A command-line interface for storing Google service-account credentials, checking their status, publishing URL notifications and reading the submission history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			e, err = openEnv(cmd.Context(), verbose)
			return err
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	getEnv := func() *env { return e }
	root.AddCommand(
		newCredentialCmd(getEnv),
		newPublishCmd(getEnv),
		newLogsCmd(getEnv),
	)
	return root, func(ctx context.Context) error { return e.close(ctx) }
}

// Execute runs the CLI with os.Args.
func Execute() error {
	ctx := context.Background()
	root, closeEnv := newRootCmd()
	err := root.ExecuteContext(ctx)
	if cerr := closeEnv(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/getpup/pgstage/mcp"
	"github.com/getpup/pgstage/metrics"
	"github.com/getpup/pgstage/migrate"
	"github.com/getpup/pgstage/provision"
	"github.com/getpup/pgstage/registry"
	"github.com/getpup/pgstage/registry/memory"
	"github.com/getpup/pgstage/registry/sqlite"
	"github.com/getpup/pgstage/sqlexec"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP tools on stdio",
	Long: "Serve the migration workflow as MCP tools on stdio. The control-plane API\n" +
		"URL and key come from --api-url/--api-key or the PGSTAGE_API_URL and\n" +
		"PGSTAGE_API_KEY environment variables.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("api-url", "", "Control-plane API base URL (required)")
	serveCmd.Flags().String("api-key", "", "Control-plane API key (required)")
	serveCmd.Flags().String("dsn-template", "postgres://{role}@{branch}/{database}",
		"Connection string template; {branch}, {database} and {role} are substituted per target")
	serveCmd.Flags().String("registry-path", "", "SQLite file for the migration registry (empty: in-memory)")
	serveCmd.Flags().String("metrics-addr", "", "Prometheus /metrics listen address (empty: disabled)")
	serveCmd.Flags().String("role", migrate.DefaultRole, "Database role SQL executes as")

	for _, flag := range []string{"api-url", "api-key", "dsn-template", "registry-path", "metrics-addr", "role"} {
		if err := viper.BindPFlag(flag, serveCmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	apiURL := viper.GetString("api-url")
	if apiURL == "" {
		return errors.New("--api-url or PGSTAGE_API_URL is required")
	}
	apiKey := viper.GetString("api-key")
	if apiKey == "" {
		return errors.New("--api-key or PGSTAGE_API_KEY is required")
	}

	provisioner := provision.NewAPIClient(apiURL, apiKey)

	executor := sqlexec.NewPGExecutor(sqlexec.TemplateResolver(viper.GetString("dsn-template")))
	defer executor.Close()

	var reg registry.Registry
	if path := viper.GetString("registry-path"); path != "" {
		store, err := sqlite.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open registry: %w", err)
		}
		defer func() { _ = store.Close() }()
		reg = store
		logger.Info().Str("path", path).Msg("using sqlite registry")
	} else {
		reg = memory.New()
		logger.Info().Msg("using in-memory registry; staged migrations do not survive restarts")
	}

	role := viper.GetString("role")

	orch, err := migrate.New(migrate.Config{
		Provisioner: provisioner,
		Executor:    executor,
		Registry:    reg,
		Role:        role,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if addr := viper.GetString("metrics-addr"); addr != "" {
		metricsServer := metrics.NewServer(addr)
		metricsServer.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(ctx)
		}()
		logger.Info().Str("addr", addr).Msg("metrics server started")
	}

	mcp.Version = version
	srv, err := mcp.NewServer(mcp.Config{
		Orchestrator: orch,
		Provisioner:  provisioner,
		Executor:     executor,
		Registry:     reg,
		Role:         role,
	})
	if err != nil {
		return err
	}

	logger.Info().Str("version", version).Msg("serving MCP on stdio")
	if err := srv.ServeStdio(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server stopped")
		return err
	}

	return nil
}

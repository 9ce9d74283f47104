package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagLogLevel string

	rootCmd = &cobra.Command{
		Use:   "pgstage",
		Short: "Stage and commit Postgres schema migrations on ephemeral branches",
		Long: "pgstage stages schema migrations on ephemeral copy-on-write branches of a\n" +
			"managed Postgres project and commits them to the primary branch once\n" +
			"verified. The serve command exposes the workflow as MCP tools on stdio.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")

	viper.SetEnvPrefix("PGSTAGE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger. MCP owns stdout, so all logging
// goes to stderr.
func newLogger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(flagLogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

// Package main provides the pgstage CLI.
//
// pgstage exposes two-phase schema migrations for managed Postgres
// projects over the Model Context Protocol. The serve command speaks
// MCP on stdio; everything else (logs, errors) goes to stderr.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

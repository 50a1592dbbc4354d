package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/jmc/jmc/workspace"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the language server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := workspace.NewLSPServer(version,
				workspace.WithParserOptions(parserOptions()...),
				workspace.WithBuiltins(workspace.Builtins{
					Classes:   cfg.Builtins.Classes,
					Functions: cfg.Builtins.Functions,
				}),
			)
			return server.RunStdio()
		},
	}
}

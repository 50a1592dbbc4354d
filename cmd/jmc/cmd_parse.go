package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/jmc/format"
	"github.com/dhamidi/jmc/jmc/parser"
)

func newParseCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a .jmc file and dump the syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoder, err := format.NewEncoder(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read jmc file: %w", err)
			}

			tree := parser.NewTree(parserOptions()...)
			if err := tree.Initialize(cmd.Context(), string(data)); err != nil {
				return fmt.Errorf("parse: %w", err)
			}

			if err := encoder.Encode(tree); err != nil {
				return fmt.Errorf("encode %s: %w", outputFormat, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "tree", "output format ("+strings.Join(format.Names, ", ")+")")

	return cmd
}

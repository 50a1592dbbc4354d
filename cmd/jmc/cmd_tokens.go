package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dhamidi/jmc/jmc/parser"
)

func newTokensCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the lexer output of a .jmc file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read jmc file: %w", err)
			}

			text := string(data)
			toks := parser.Lex(text)
			mapper := parser.NewMapper(text, toks)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tPOSITION\tKIND\tTOKEN")
			for i, tok := range toks.Trimmed {
				if tok == "" && !all {
					continue
				}
				kind := "Whitespace"
				if tok != "" {
					kind = parser.Classify(tok).String()
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, mapper.StartPositionOf(i), kind, strconv.Quote(toks.Raw[i]))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include whitespace entries")

	return cmd
}

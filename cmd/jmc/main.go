package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/jmc/config"
	"github.com/dhamidi/jmc/jmc/parser"
)

const version = "0.1.0"

var cfg *config.Config

func main() {
	var (
		configDir string
		verbose   int
		logFile   string
	)

	rootCmd := &cobra.Command{
		Use:           "jmc",
		Short:         "Parser and language server for JMC datapack sources",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(nil, configDir)
			if err != nil {
				return err
			}
			cfg = loaded

			verbosity := cfg.Log.Verbosity
			if cmd.Flags().Changed("verbose") {
				verbosity = verbose
			}
			path := cfg.Log.File
			if logFile != "" {
				path = logFile
			}
			if path == "" {
				commonlog.Configure(verbosity, nil)
			} else {
				commonlog.Configure(verbosity, &path)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configDir, "dir", "C", ".", "project directory holding .jmc.yaml and .env")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newTokensCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newLSPCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parserOptions() []parser.Option {
	return []parser.Option{
		parser.WithFileTypes(cfg.Registry()),
		parser.WithValidator(cfg.Validator()),
	}
}

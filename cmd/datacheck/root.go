package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"mktpulse/internal/config"
	"mktpulse/internal/dataset"
	"mktpulse/internal/infrastructure"
	"mktpulse/pkg/contracts"
)

type options struct {
	configFile string
	dataDir    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "datacheck",
		Short:         "Check the marketing dataset files the dashboard reads",
		Version:       contracts.GetVersionInfo().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: config.yaml lookup)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "dataset directory (overrides config)")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "log loader activity to stderr")

	root.AddCommand(newListCmd(opts), newValidateCmd(opts))
	return root
}

// loader resolves the data directory from the flags or the configuration.
// The cache is off: every command reads the files once.
func (o *options) loader(stderr io.Writer) (*dataset.Loader, error) {
	dir := o.dataDir
	maxIssues := dataset.DefaultMaxIssues
	if dir == "" {
		var (
			cfg *config.Config
			err error
		)
		if o.configFile != "" {
			cfg, err = config.LoadFrom(o.configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return nil, err
		}
		dir = cfg.GetDataDir()
		maxIssues = cfg.Data.MaxRowIssues
	}

	level := "error"
	if o.verbose {
		level = "debug"
	}
	logger := infrastructure.NewLoggerWithWriter(stderr, level)

	return dataset.NewLoader(dir, nil,
		dataset.WithLogger(logger.With(slog.String("command", "datacheck"))),
		dataset.WithMaxIssues(maxIssues),
	), nil
}

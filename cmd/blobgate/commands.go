package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/blobgate/service"
	"github.com/kbukum/blobgate/version"
)

type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	v := version.Get()

	root := &cobra.Command{
		Use:           "blobgate",
		Short:         "HTTP gateway over object storage",
		Version:       fmt.Sprintf("%s, commit %s", v.Version, v.GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default: first of cmd/blobgate/config.yml, config/config.yml, config.yml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", ".env file loaded before the environment is read")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the gateway until SIGINT or SIGTERM",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration with secrets redacted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				return printConfig(cmd, cfg)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(version.Get())
			},
		},
	)
	return root
}

func loadConfig(opts *rootOptions) (*service.Config, error) {
	cfg, err := service.Load(opts.configFile, opts.envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func serve(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	app, err := service.New(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx)
}

func printConfig(cmd *cobra.Command, cfg *service.Config) error {
	redacted := *cfg
	if redacted.Storage.AccountKey != "" {
		redacted.Storage.AccountKey = "[REDACTED]"
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(redacted)
}

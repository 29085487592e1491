package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/siegeboard/internal/config"
	"github.com/okian/siegeboard/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "siegeboard",
		Short:         "Castle siege rankings scraped from the game history pages",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	root.AddCommand(newServeCmd(), newRankCmd(), newVerifyCmd())
	return root
}

// setup loads the configuration and initializes logging to stderr so
// command output on stdout stays machine readable.
func setup(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(
		logger.WithLevel(cfg.LogLevel),
		logger.WithFormat(cfg.LogFormat),
		logger.WithOutput(cmd.ErrOrStderr()),
	); err != nil {
		return nil, nil, err
	}
	return cfg, logger.Get(), nil
}

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/cyphera/cyphera-relayer/internal/config"
	"github.com/cyphera/cyphera-relayer/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the relayer",
		Long: `Starts the JSON-RPC gateway

Serves wallet_sendTransaction and wallet_getCapabilities (and their
odyssey_ aliases) at POST / and GET /ws, plus /health, /ready and
/metrics. Stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveCmdFunc(cmd.Context())
		},
	}
}

func serveCmdFunc(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	secrets, err := config.NewSecretSource(ctx, config.NewViper())
	if err != nil {
		return err
	}
	relayerKey, err := config.ResolveRelayerKey(ctx, secrets)
	if err != nil {
		return err
	}

	return server.Run(ctx, cfg, relayerKey)
}

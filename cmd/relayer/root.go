package main

import (
	"fmt"
	"os"

	"github.com/cyphera/cyphera-relayer/internal/config"
	"github.com/cyphera/cyphera-relayer/internal/constants"
	"github.com/cyphera/cyphera-relayer/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Set through -ldflags at build time.
var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "relayer",
	Short:   constants.ServiceName,
	Long: fmt.Sprintf(`%v

A JSON-RPC gateway that sponsors gas for EIP-7702 delegated accounts.
Requires configuration through ENV.`, constants.ServiceName),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newServeCmd(),
		newProbeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// loadConfig reads .env, builds the configuration and initializes logging.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	v := config.NewViper()
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	logger.Configure(logger.Options{Level: cfg.LogLevel, Stage: cfg.Stage})
	logger.For(logger.ComponentConfig).Info("Configuration loaded",
		zap.String("stage", cfg.Stage),
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Int("delegation_addresses", len(cfg.Capability.Addresses)),
		zap.Strings("trusted_proxies", cfg.TrustedProxies),
	)

	return cfg, nil
}

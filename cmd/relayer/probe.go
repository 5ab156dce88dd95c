package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cyphera/cyphera-relayer/internal/config"
	"github.com/cyphera/cyphera-relayer/internal/logger"
	"github.com/cyphera/cyphera-relayer/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	verboseFlag = "verbose"
	timeoutFlag = "timeout"
)

type ReadinessFlags struct {
	Verbose bool
	Timeout time.Duration
}

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Runs probes against the relayer's dependencies",
	}
	cmd.AddCommand(newReadinessCmd())
	return cmd
}

func newReadinessCmd() *cobra.Command {
	var flags ReadinessFlags

	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Runs readiness probes",
		Long: `Runs the same upstream node check as GET /ready

Fails with a non zero exit code when the node cannot be reached
or reports a chain id other than CHAIN_ID.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return RunReadiness(cmd.Context(), cfg, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.Verbose, verboseFlag, "v", false, "Show verbose output.")
	cmd.Flags().DurationVar(&flags.Timeout, timeoutFlag, 10*time.Second, "Overall probe timeout.")

	return cmd
}

// RunReadiness checks that the configured node answers and serves the
// expected chain.
func RunReadiness(ctx context.Context, cfg *config.Config, flags ReadinessFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, flags.Timeout)
	defer cancel()

	node := services.NewBlockchainService(cfg.RPCURL,
		services.WithRetryConfig(&services.RetryConfig{
			MaxRetries:      0,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
			Multiplier:      1,
			MaxElapsedTime:  flags.Timeout,
		}),
		services.WithRequestTimeout(flags.Timeout),
	)
	if err := node.Initialize(ctx); err != nil {
		return fmt.Errorf("readiness check failed: %w", err)
	}
	defer node.Close()

	chainID, err := node.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("readiness check failed: %w", err)
	}
	if cfg.ChainID != nil && cfg.ChainID.Cmp(chainID) != 0 {
		return fmt.Errorf("readiness check failed: node chain id %s, expected %s", chainID, cfg.ChainID)
	}
	if err := node.Ping(ctx); err != nil {
		return fmt.Errorf("readiness check failed: %w", err)
	}

	if flags.Verbose {
		logger.For(logger.ComponentChain).Info("Readiness check passed", zap.String("chain_id", chainID.String()))
	}
	return nil
}

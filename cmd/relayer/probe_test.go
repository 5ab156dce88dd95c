package main

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/cyphera/cyphera-relayer/internal/config"
	"github.com/cyphera/cyphera-relayer/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRunReadiness(t *testing.T) {
	chainID := big.NewInt(911867)
	node := testutil.NewFakeNode(t, chainID)
	flags := ReadinessFlags{Verbose: true, Timeout: 5 * time.Second}

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr bool
	}{
		{name: "reachable node", cfg: &config.Config{RPCURL: node.URL()}},
		{name: "matching chain id", cfg: &config.Config{RPCURL: node.URL(), ChainID: big.NewInt(911867)}},
		{name: "mismatched chain id", cfg: &config.Config{RPCURL: node.URL(), ChainID: big.NewInt(1)}, wantErr: true},
		{name: "unreachable node", cfg: &config.Config{RPCURL: "http://127.0.0.1:1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RunReadiness(context.Background(), tt.cfg, flags)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

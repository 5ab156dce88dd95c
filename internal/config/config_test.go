package config

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contractA = "0x35202a6E6317F3CC3a177EeEE562D3BcDA4a6FcC"
	contractB = "0x9999999999999999999999999999999999999999"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(KeyRPCURL, "http://localhost:8546")

	cfg, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Stage)
	assert.Equal(t, ":8545", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:8546", cfg.RPCURL)
	assert.Nil(t, cfg.ChainID)
	assert.Nil(t, cfg.Capability.Addresses)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 50, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 100, cfg.RateLimit.Burst)
	assert.Nil(t, cfg.TrustedProxies)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(KeyRPCURL, "http://node:8545")
	t.Setenv(KeyStage, "prod")
	t.Setenv(KeyChainID, "0xde9fb")
	t.Setenv(KeyDelegationAddrs, contractA+", "+contractB+","+contractA)
	t.Setenv(KeyCORSAllowedOrigins, "https://a.example, https://b.example")
	t.Setenv(KeyRateLimitRPS, "5")
	t.Setenv(KeyRateLimitBurst, "10")
	t.Setenv(KeyTrustedProxies, "10.0.0.0/8, 192.168.1.10")
	t.Setenv(KeyGinMode, "debug")
	t.Setenv(KeyShutdownTimeout, "3s")

	cfg, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Stage)
	assert.Equal(t, big.NewInt(911867), cfg.ChainID)
	assert.Equal(t, []common.Address{common.HexToAddress(contractA), common.HexToAddress(contractB)}, cfg.Capability.Addresses)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.10"}, cfg.TrustedProxies)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing rpc url", env: map[string]string{}},
		{name: "invalid stage", env: map[string]string{KeyRPCURL: "http://node", KeyStage: "staging"}},
		{name: "invalid chain id", env: map[string]string{KeyRPCURL: "http://node", KeyChainID: "abc"}},
		{name: "zero chain id", env: map[string]string{KeyRPCURL: "http://node", KeyChainID: "0"}},
		{name: "invalid delegation address", env: map[string]string{KeyRPCURL: "http://node", KeyDelegationAddrs: "0x1234"}},
		{name: "zero rate limit", env: map[string]string{KeyRPCURL: "http://node", KeyRateLimitRPS: "0"}},
		{name: "missing capabilities file", env: map[string]string{KeyRPCURL: "http://node", KeyCapabilitiesFile: "/does/not/exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(NewViper())
			assert.Error(t, err)
		})
	}
}

func TestLoadCapability_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capabilities.yaml")
	content := "delegation:\n  addresses:\n    - " + contractB + "\n    - " + contractA + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv(KeyDelegationAddrs, contractA)
	t.Setenv(KeyCapabilitiesFile, path)

	capability, err := LoadCapability(NewViper())
	require.NoError(t, err)
	assert.Equal(t, []common.Address{common.HexToAddress(contractA), common.HexToAddress(contractB)}, capability.Addresses)
	assert.Equal(t, []string{contractA, contractB}, DelegationAddressesHex(capability.Addresses))
}

type staticSecrets struct {
	value string
	err   error
}

func (s staticSecrets) GetSecretString(ctx context.Context, arnKey, fallbackKey string) (string, error) {
	return s.value, s.err
}

func TestResolveRelayerKey(t *testing.T) {
	const key = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

	tests := []struct {
		name     string
		secrets  staticSecrets
		expected string
		wantErr  bool
	}{
		{name: "prefixed key", secrets: staticSecrets{value: "0x" + key}, expected: "0x" + key},
		{name: "bare key gets a prefix", secrets: staticSecrets{value: key + "\n"}, expected: "0x" + key},
		{name: "malformed key", secrets: staticSecrets{value: "0x1234"}, wantErr: true},
		{name: "no secret", secrets: staticSecrets{err: errors.New("not found")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveRelayerKey(context.Background(), tt.secrets)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

package config

import (
	"context"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/cyphera/cyphera-relayer/internal/client/aws"
	"github.com/cyphera/cyphera-relayer/internal/helpers"
	"github.com/cyphera/cyphera-relayer/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Configuration keys, read from the environment.
const (
	KeyStage              = "STAGE"
	KeyListenAddr         = "LISTEN_ADDR"
	KeyRPCURL             = "RPC_URL"
	KeyChainID            = "CHAIN_ID"
	KeyDelegationAddrs    = "DELEGATION_ADDRESSES"
	KeyCapabilitiesFile   = "CAPABILITIES_FILE"
	KeyCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
	KeyRateLimitRPS       = "RATE_LIMIT_RPS"
	KeyRateLimitBurst     = "RATE_LIMIT_BURST"
	KeyTrustedProxies     = "TRUSTED_PROXIES"
	KeyGinMode            = "GIN_MODE"
	KeyLogLevel           = "LOG_LEVEL"
	KeyShutdownTimeout    = "SHUTDOWN_TIMEOUT"
	KeyRelayerKey         = "RELAYER_PRIVATE_KEY"
	KeyRelayerKeyARN      = "RELAYER_PRIVATE_KEY_ARN"
)

// CORSConfig controls cross origin access to the JSON-RPC endpoint.
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig is the per client token bucket.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// Config is the relayer's runtime configuration.
type Config struct {
	Stage           string
	ListenAddr      string
	RPCURL          string
	ChainID         *big.Int // nil means ask the node
	Capability      business.DelegationCapability
	CORS            CORSConfig
	RateLimit       RateLimitConfig
	TrustedProxies  []string // nil trusts no forwarding headers
	GinMode         string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// IsDevelopment reports whether gin runs outside release mode.
func (c *Config) IsDevelopment() bool {
	return c.GinMode != "release"
}

// LoadDotEnv loads a .env file from the working directory when present.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to load .env file")
	}
	return nil
}

// NewViper returns a viper instance bound to the environment with defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(KeyStage, helpers.StageLocal)
	v.SetDefault(KeyListenAddr, ":8545")
	v.SetDefault(KeyCORSAllowedOrigins, "*")
	v.SetDefault(KeyRateLimitRPS, 50)
	v.SetDefault(KeyRateLimitBurst, 100)
	v.SetDefault(KeyGinMode, "release")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyShutdownTimeout, 15*time.Second)

	return v
}

// Load builds the configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Stage:      v.GetString(KeyStage),
		ListenAddr: v.GetString(KeyListenAddr),
		RPCURL:     v.GetString(KeyRPCURL),
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString(KeyCORSAllowedOrigins)),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetInt(KeyRateLimitRPS),
			Burst:             v.GetInt(KeyRateLimitBurst),
		},
		TrustedProxies:  splitList(v.GetString(KeyTrustedProxies)),
		GinMode:         v.GetString(KeyGinMode),
		LogLevel:        v.GetString(KeyLogLevel),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
	}

	if !helpers.IsValidStage(cfg.Stage) {
		return nil, errors.Errorf("invalid %s %q", KeyStage, cfg.Stage)
	}
	if cfg.RPCURL == "" {
		return nil, errors.Errorf("%s is required", KeyRPCURL)
	}
	if cfg.RateLimit.RequestsPerSecond <= 0 || cfg.RateLimit.Burst <= 0 {
		return nil, errors.Errorf("%s and %s must be positive", KeyRateLimitRPS, KeyRateLimitBurst)
	}

	if raw := strings.TrimSpace(v.GetString(KeyChainID)); raw != "" {
		chainID, ok := new(big.Int).SetString(raw, 0)
		if !ok || chainID.Sign() <= 0 {
			return nil, errors.Errorf("invalid %s %q", KeyChainID, raw)
		}
		cfg.ChainID = chainID
	}

	capability, err := LoadCapability(v)
	if err != nil {
		return nil, err
	}
	cfg.Capability = capability

	return cfg, nil
}

// LoadCapability merges the delegation contracts listed in the environment
// with those in the optional capabilities file. Order is preserved and
// duplicates are dropped.
func LoadCapability(v *viper.Viper) (business.DelegationCapability, error) {
	entries := splitList(v.GetString(KeyDelegationAddrs))

	if path := v.GetString(KeyCapabilitiesFile); path != "" {
		fv := viper.New()
		fv.SetConfigFile(path)
		if err := fv.ReadInConfig(); err != nil {
			return business.DelegationCapability{}, errors.Wrapf(err, "failed to read capabilities file %s", path)
		}
		entries = append(entries, fv.GetStringSlice("delegation.addresses")...)
	}

	addresses, err := helpers.ParseAddressList(strings.Join(entries, ","))
	if err != nil {
		return business.DelegationCapability{}, errors.Wrap(err, "invalid delegation address")
	}
	if len(addresses) == 0 {
		addresses = nil
	}
	return business.DelegationCapability{Addresses: addresses}, nil
}

// SecretSource resolves a secret by ARN key with a plain key fallback.
type SecretSource interface {
	GetSecretString(ctx context.Context, arnKey, fallbackKey string) (string, error)
}

// NewSecretSource returns the AWS Secrets Manager backed source reading its
// keys from v.
func NewSecretSource(ctx context.Context, v *viper.Viper) (SecretSource, error) {
	client, err := aws.NewSecretsManagerClient(ctx, v.GetString)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create secrets manager client")
	}
	return client, nil
}

// ResolveRelayerKey loads the relayer's hex encoded private key.
func ResolveRelayerKey(ctx context.Context, secrets SecretSource) (string, error) {
	key, err := secrets.GetSecretString(ctx, KeyRelayerKeyARN, KeyRelayerKey)
	if err != nil {
		return "", errors.Wrap(err, "relayer private key not configured")
	}

	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, "0x") {
		key = "0x" + key
	}
	if !helpers.IsPrivateKeyValid(key) {
		return "", errors.New("relayer private key must be 32 hex encoded bytes")
	}
	return key, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DelegationAddressesHex formats the capability for logging.
func DelegationAddressesHex(addresses []common.Address) []string {
	out := make([]string, len(addresses))
	for i, addr := range addresses {
		out[i] = addr.Hex()
	}
	return out
}

package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/cyphera/cyphera-relayer/internal/logger"
)

// SecretsAPI is the subset of the Secrets Manager API used by the relayer.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Lookup resolves a configuration key, usually backed by viper.
type Lookup func(key string) string

// SecretsManagerClient resolves secrets from AWS Secrets Manager with a
// plain configuration fallback.
type SecretsManagerClient struct {
	svc    SecretsAPI
	lookup Lookup
}

// NewSecretsManagerClient creates a client from the default AWS
// configuration chain (environment variables, shared config, IAM role).
func NewSecretsManagerClient(ctx context.Context, lookup Lookup) (*SecretsManagerClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	return NewSecretsManagerClientWithAPI(secretsmanager.NewFromConfig(cfg), lookup), nil
}

// NewSecretsManagerClientWithAPI creates a client around an existing API implementation.
func NewSecretsManagerClientWithAPI(svc SecretsAPI, lookup Lookup) *SecretsManagerClient {
	return &SecretsManagerClient{
		svc:    svc,
		lookup: lookup,
	}
}

// GetSecretString fetches the secret whose ARN is stored under arnKey. When
// arnKey is unset or the fetch fails, the value stored under fallbackKey is
// used instead.
func (c *SecretsManagerClient) GetSecretString(ctx context.Context, arnKey, fallbackKey string) (string, error) {
	if secretArn := c.lookup(arnKey); secretArn != "" {
		logger.For(logger.ComponentConfig).Debug("Attempting to fetch secret from Secrets Manager",
			zap.String("arn_key", arnKey),
			zap.String("secret_arn", secretArn),
		)

		result, err := c.svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretArn),
		})
		if err == nil && result.SecretString != nil && *result.SecretString != "" {
			logger.For(logger.ComponentConfig).Info("Fetched secret from Secrets Manager", zap.String("secret_arn", secretArn))
			return *result.SecretString, nil
		}

		logger.For(logger.ComponentConfig).Warn("Failed to retrieve secret from Secrets Manager, falling back",
			zap.String("secret_arn", secretArn),
			zap.String("fallback_key", fallbackKey),
			zap.Error(err),
		)
	}

	if value := c.lookup(fallbackKey); value != "" {
		logger.For(logger.ComponentConfig).Info("Using secret from configuration", zap.String("key", fallbackKey))
		return value, nil
	}

	return "", fmt.Errorf("secret not found using ARN key '%s' or key '%s'", arnKey, fallbackKey)
}

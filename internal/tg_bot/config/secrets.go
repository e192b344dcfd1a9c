package config

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretGetter is the part of the Secrets Manager client used here.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveSecurityKey returns SECURITY_KEY, or reads it from AWS Secrets
// Manager when only SECURITY_KEY_SECRET_ID is configured.
func (c *Config) ResolveSecurityKey(ctx context.Context) (string, error) {
	if c.EnvSecurityKey != "" {
		return c.EnvSecurityKey, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if c.EnvAWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(c.EnvAWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}
	return fetchSecret(ctx, secretsmanager.NewFromConfig(awsCfg), c.EnvSecurityKeySecretID)
}

func fetchSecret(ctx context.Context, client SecretGetter, secretID string) (string, error) {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretID,
	})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", secretID, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", errors.New("security key secret is empty")
	}
	return *out.SecretString, nil
}

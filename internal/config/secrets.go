package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// secretGetter is the part of the Secrets Manager client we use.
type secretGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// secretEnvVars are the keys looked up as <prefix><NAME>.
var secretEnvVars = []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "MCP_API_KEY"}

// LoadSecrets fetches provider API keys from AWS Secrets Manager and sets
// them as environment variables. Variables already set are left alone and
// missing secrets are skipped.
func LoadSecrets(ctx context.Context, prefix, region string, logger *slog.Logger) error {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}
	return loadSecrets(ctx, secretsmanager.NewFromConfig(cfg), prefix, logger)
}

func loadSecrets(ctx context.Context, client secretGetter, prefix string, logger *slog.Logger) error {
	for _, envVar := range secretEnvVars {
		if os.Getenv(envVar) != "" {
			continue
		}

		secretID := prefix + envVar
		result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretID),
		})
		if err != nil {
			logger.Info("Secret not found", "secret_id", secretID, "error", err)
			continue
		}
		if result.SecretString != nil {
			if err := os.Setenv(envVar, *result.SecretString); err != nil {
				return fmt.Errorf("set %s: %w", envVar, err)
			}
			logger.Info("Loaded secret", "secret_id", secretID)
		}
	}
	return nil
}

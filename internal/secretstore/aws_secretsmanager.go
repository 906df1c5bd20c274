package secretstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/keyvigil/keyvigil/internal/errors"
)

// SecretsManagerClientAPI defines the interface for AWS Secrets Manager
// operations. This allows for mocking in tests.
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	UpdateSecret(ctx context.Context, params *secretsmanager.UpdateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.UpdateSecretOutput, error)
}

// SecretsManagerAdapter implements Adapter on AWS Secrets Manager. The secret
// reference is the secret name or ARN.
type SecretsManagerAdapter struct {
	client SecretsManagerClientAPI
}

// SecretsManagerOption is a functional option for configuring the adapter.
type SecretsManagerOption func(*SecretsManagerAdapter)

// WithSecretsManagerClient sets a custom client (for testing).
func WithSecretsManagerClient(client SecretsManagerClientAPI) SecretsManagerOption {
	return func(a *SecretsManagerAdapter) {
		a.client = client
	}
}

// SecretsManagerConfig holds the adapter configuration.
type SecretsManagerConfig struct {
	Region   string
	Endpoint string // LocalStack or testing

	// Static credentials for local endpoints; ambient credentials otherwise.
	AccessKeyID     string
	SecretAccessKey string
}

// NewSecretsManagerAdapter creates an AWS Secrets Manager adapter.
func NewSecretsManagerAdapter(ctx context.Context, cfg SecretsManagerConfig, opts ...SecretsManagerOption) (*SecretsManagerAdapter, error) {
	a := &SecretsManagerAdapter{}
	for _, opt := range opts {
		opt(a)
	}
	if a.client != nil {
		return a, nil
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	configOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*secretsmanager.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	a.client = secretsmanager.NewFromConfig(awsCfg, clientOpts...)
	return a, nil
}

// Name implements Adapter.
func (a *SecretsManagerAdapter) Name() string { return "aws.secretsmanager" }

// Read implements Adapter.
func (a *SecretsManagerAdapter) Read(ctx context.Context, ref string) (Payload, error) {
	out, err := a.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref),
	})
	if err != nil {
		return Payload{}, errors.StoreReadError{Ref: ref, Err: err}
	}
	if out.SecretString == nil {
		return Payload{}, errors.StoreReadError{Ref: ref, Err: fmt.Errorf("secret has no string value")}
	}
	return ParsePayload(*out.SecretString), nil
}

// Write implements Adapter.
func (a *SecretsManagerAdapter) Write(ctx context.Context, ref string, payload Payload) error {
	_, err := a.client.UpdateSecret(ctx, &secretsmanager.UpdateSecretInput{
		SecretId:     aws.String(ref),
		SecretString: aws.String(payload.Raw()),
	})
	if err != nil {
		return errors.StoreWriteError{Ref: ref, Err: err}
	}
	return nil
}

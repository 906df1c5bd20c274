package secretstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/keyvigil/keyvigil/internal/errors"
)

// SSMClientAPI defines the interface for AWS SSM Parameter Store operations.
// This allows for mocking in tests.
type SSMClientAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SSMAdapter implements Adapter on AWS Systems Manager Parameter Store.
// The secret reference is the parameter name; values are written as
// SecureString parameters.
type SSMAdapter struct {
	client SSMClientAPI
}

// SSMOption is a functional option for configuring the adapter.
type SSMOption func(*SSMAdapter)

// WithSSMClient sets a custom SSM client (for testing).
func WithSSMClient(client SSMClientAPI) SSMOption {
	return func(a *SSMAdapter) {
		a.client = client
	}
}

// NewSSMAdapter creates a Parameter Store adapter.
func NewSSMAdapter(ctx context.Context, region, endpoint string, opts ...SSMOption) (*SSMAdapter, error) {
	a := &SSMAdapter{}
	for _, opt := range opts {
		opt(a)
	}
	if a.client != nil {
		return a, nil
	}

	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*ssm.Options)
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *ssm.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	a.client = ssm.NewFromConfig(awsCfg, clientOpts...)
	return a, nil
}

// Name implements Adapter.
func (a *SSMAdapter) Name() string { return "aws.ssm" }

// Read implements Adapter.
func (a *SSMAdapter) Read(ctx context.Context, ref string) (Payload, error) {
	out, err := a.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(ref),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return Payload{}, errors.StoreReadError{Ref: ref, Err: err}
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return Payload{}, errors.StoreReadError{Ref: ref, Err: fmt.Errorf("parameter has no value")}
	}
	return ParsePayload(*out.Parameter.Value), nil
}

// Write implements Adapter.
func (a *SSMAdapter) Write(ctx context.Context, ref string, payload Payload) error {
	_, err := a.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(ref),
		Value:     aws.String(payload.Raw()),
		Type:      types.ParameterTypeSecureString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return errors.StoreWriteError{Ref: ref, Err: err}
	}
	return nil
}

package deps

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/keyvigil/keyvigil/internal/errors"
	"github.com/keyvigil/keyvigil/internal/inventory"
	"github.com/keyvigil/keyvigil/internal/logging"
)

// dependentServicesKey is the provider metadata field listing the compute
// services that consume a credential, comma separated.
const dependentServicesKey = "dependent_services"

// ECSClientAPI defines the interface for the ECS operations the notifier
// needs. This allows for mocking in tests.
type ECSClientAPI interface {
	UpdateService(ctx context.Context, params *ecs.UpdateServiceInput, optFns ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error)
}

// ECSNotifier forces a new deployment of each dependent ECS service so
// running tasks restart and read the rotated credential.
type ECSNotifier struct {
	client  ECSClientAPI
	cluster string
	logger  *logging.Logger
}

// ECSOption is a functional option for configuring the notifier.
type ECSOption func(*ECSNotifier)

// WithECSClient sets a custom ECS client (for testing).
func WithECSClient(client ECSClientAPI) ECSOption {
	return func(n *ECSNotifier) {
		n.client = client
	}
}

// NewECSNotifier creates a notifier against the given cluster.
func NewECSNotifier(ctx context.Context, cluster, region, endpoint string, logger *logging.Logger, opts ...ECSOption) (*ECSNotifier, error) {
	n := &ECSNotifier{cluster: cluster, logger: logger}
	for _, opt := range opts {
		opt(n)
	}
	if n.client != nil {
		return n, nil
	}

	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*ecs.Options)
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *ecs.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	n.client = ecs.NewFromConfig(awsCfg, clientOpts...)
	return n, nil
}

// Name implements Notifier.
func (n *ECSNotifier) Name() string { return "ecs" }

// NotifyDependents implements Notifier. Each named service gets a forced new
// deployment; the first failure is returned but remaining services are still
// attempted.
func (n *ECSNotifier) NotifyDependents(ctx context.Context, cred *inventory.Credential) error {
	raw := cred.Meta(dependentServicesKey)
	if raw == "" {
		return nil
	}

	var firstErr error
	for _, service := range strings.Split(raw, ",") {
		service = strings.TrimSpace(service)
		if service == "" {
			continue
		}

		_, err := n.client.UpdateService(ctx, &ecs.UpdateServiceInput{
			Cluster:            aws.String(n.cluster),
			Service:            aws.String(service),
			ForceNewDeployment: true,
		})
		if err != nil {
			n.logger.Warn("failed to refresh dependent service '%s': %v", service, err)
			if firstErr == nil {
				firstErr = errors.DependentNotifyError{Service: service, Err: err}
			}
			continue
		}
		n.logger.Debug("forced new deployment of '%s' after rotating '%s'", service, cred.ID)
	}
	return firstErr
}

package deps

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/keyvigil/keyvigil/internal/errors"
	"github.com/keyvigil/keyvigil/internal/inventory"
	"github.com/keyvigil/keyvigil/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeECSClient struct {
	updated []string
	failOn  map[string]error
}

func (f *fakeECSClient) UpdateService(ctx context.Context, params *ecs.UpdateServiceInput, optFns ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error) {
	service := aws.ToString(params.Service)
	if err, ok := f.failOn[service]; ok {
		return nil, err
	}
	if !params.ForceNewDeployment {
		return nil, fmt.Errorf("expected a forced deployment")
	}
	f.updated = append(f.updated, service)
	return &ecs.UpdateServiceOutput{}, nil
}

func testLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, false, true)
}

func newTestNotifier(t *testing.T, client ECSClientAPI) *ECSNotifier {
	t.Helper()
	n, err := NewECSNotifier(context.Background(), "prod", "", "", testLogger(), WithECSClient(client))
	require.NoError(t, err)
	return n
}

func TestNotifyDependentsRefreshesEachService(t *testing.T) {
	client := &fakeECSClient{}
	notifier := newTestNotifier(t, client)

	cred := &inventory.Credential{
		ID:           "c1",
		ProviderMeta: map[string]string{"dependent_services": "api, worker ,billing"},
	}

	err := notifier.NotifyDependents(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "worker", "billing"}, client.updated)
}

func TestNotifyDependentsNoMetadataIsNoop(t *testing.T) {
	client := &fakeECSClient{}
	notifier := newTestNotifier(t, client)

	err := notifier.NotifyDependents(context.Background(), &inventory.Credential{ID: "c1"})
	require.NoError(t, err)
	assert.Empty(t, client.updated)
}

func TestNotifyDependentsContinuesPastFailures(t *testing.T) {
	client := &fakeECSClient{failOn: map[string]error{"api": fmt.Errorf("service not found")}}
	notifier := newTestNotifier(t, client)

	cred := &inventory.Credential{
		ID:           "c1",
		ProviderMeta: map[string]string{"dependent_services": "api,worker"},
	}

	err := notifier.NotifyDependents(context.Background(), cred)
	require.Error(t, err)

	var depErr errors.DependentNotifyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "api", depErr.Service)
	assert.Equal(t, []string{"worker"}, client.updated, "remaining services still refreshed")
}

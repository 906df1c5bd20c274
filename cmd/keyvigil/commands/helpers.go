package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/keyvigil/keyvigil/internal/audit"
	"github.com/keyvigil/keyvigil/internal/config"
	"github.com/keyvigil/keyvigil/internal/inventory"
	"github.com/keyvigil/keyvigil/internal/logging"
	"github.com/keyvigil/keyvigil/internal/notifications"
	"github.com/keyvigil/keyvigil/internal/rotation"
	"github.com/keyvigil/keyvigil/internal/rotation/deps"
	"github.com/keyvigil/keyvigil/internal/secretstore"
)

// engine bundles the wired rotation components for one command invocation.
type engine struct {
	store   inventory.Store
	adapter secretstore.Adapter
	sink    audit.Sink
	manager *notifications.Manager
	orch    *rotation.Orchestrator
	logger  *logging.Logger

	closers []func(context.Context) error
}

// Close releases backend connections and drains pending notifications.
func (e *engine) Close(ctx context.Context) {
	if e.manager != nil {
		e.manager.Stop()
	}
	for _, closer := range e.closers {
		if err := closer(ctx); err != nil {
			e.logger.Warn("close: %v", err)
		}
	}
}

// buildEngine wires every configured backend into a ready orchestrator.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine, *config.Definition, error) {
	def, err := config.Load(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	cfg.Definition = def
	logger := cfg.Logger

	e := &engine{logger: logger}

	e.store, err = buildInventory(ctx, e, def, logger)
	if err != nil {
		return nil, nil, err
	}
	e.adapter, err = buildAdapter(ctx, def, logger)
	if err != nil {
		e.Close(ctx)
		return nil, nil, err
	}
	e.sink, err = buildAudit(ctx, e, def, logger)
	if err != nil {
		e.Close(ctx)
		return nil, nil, err
	}

	if def.Notify.WebhookURL != "" {
		e.manager = notifications.NewManager(def.Notify.QueueSize, logger)
		e.manager.RegisterProvider(notifications.NewWebhookProvider(notifications.WebhookConfig{
			URL:     def.Notify.WebhookURL,
			Headers: def.Notify.Headers,
			Timeout: time.Duration(def.Notify.TimeoutMs) * time.Millisecond,
		}))
		e.manager.Start(ctx)
	}

	notifier, err := buildDepsNotifier(ctx, def, logger)
	if err != nil {
		e.Close(ctx)
		return nil, nil, err
	}

	metrics := rotation.NewMetrics()
	e.orch = rotation.NewOrchestrator(rotation.OrchestratorParams{
		Store:            e.store,
		Adapter:          e.adapter,
		Audit:            e.sink,
		Notifications:    e.manager,
		Metrics:          metrics,
		Logger:           logger,
		ThresholdDays:    def.Rotation.ThresholdDays,
		PeriodDays:       def.Rotation.PeriodDays,
		BatchConcurrency: def.Rotation.BatchConcurrency,
	})

	verifier := rotation.NewVerifier(e.adapter, def.Rotation.VerifyInterval(), def.Rotation.VerifyAttempts, logger, metrics)
	gen := rotation.NewGenerator(def.Rotation.PasswordLength, def.Rotation.TokenBytes)

	e.orch.RegisterStrategy(rotation.NewDatabasePasswordStrategy(e.adapter, verifier, gen, notifier, logger))
	e.orch.RegisterStrategy(rotation.NewSMTPPasswordStrategy(e.adapter, verifier, gen, notifier, logger))
	e.orch.RegisterStrategy(rotation.NewGenericSecretStrategy(e.adapter, verifier, gen, notifier, logger))
	e.orch.RegisterStrategy(rotation.NewTokenStrategy(e.adapter, verifier, gen, notifier, logger))

	iamStrategy, err := rotation.NewIAMKeyStrategy(ctx, def.Store.Region, def.Store.Endpoint, e.adapter, verifier, notifier, logger)
	if err != nil {
		e.Close(ctx)
		return nil, nil, err
	}
	e.orch.RegisterStrategy(iamStrategy)

	return e, def, nil
}

func buildInventory(ctx context.Context, e *engine, def *config.Definition, logger *logging.Logger) (inventory.Store, error) {
	switch def.Inventory.Type {
	case "mongo":
		store, err := inventory.NewMongoStore(ctx, def.Inventory.URI, def.Inventory.Database, def.Inventory.Collection)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, store.Close)
		return store, nil
	case "", "memory":
		logger.Warn("using in-memory inventory; records do not persist across runs")
		return inventory.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown inventory type '%s'", def.Inventory.Type)
	}
}

func buildAdapter(ctx context.Context, def *config.Definition, logger *logging.Logger) (secretstore.Adapter, error) {
	switch def.Store.Type {
	case "aws.secretsmanager":
		return secretstore.NewSecretsManagerAdapter(ctx, secretstore.SecretsManagerConfig{
			Region:          def.Store.Region,
			Endpoint:        def.Store.Endpoint,
			AccessKeyID:     def.Store.AccessKeyID,
			SecretAccessKey: def.Store.SecretAccessKey,
		})
	case "aws.ssm":
		return secretstore.NewSSMAdapter(ctx, def.Store.Region, def.Store.Endpoint)
	case "", "memory":
		logger.Warn("using in-memory secret store; values do not persist across runs")
		return secretstore.NewMemoryAdapter(), nil
	default:
		return nil, fmt.Errorf("unknown secret store type '%s'", def.Store.Type)
	}
}

func buildAudit(ctx context.Context, e *engine, def *config.Definition, logger *logging.Logger) (audit.Sink, error) {
	switch def.Audit.Type {
	case "mongo":
		sink, err := audit.NewMongoSink(ctx, def.Audit.URI, def.Audit.Database, def.Audit.Collection)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, sink.Close)
		return sink, nil
	case "", "memory":
		logger.Warn("using in-memory audit sink; records do not persist across runs")
		return audit.NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("unknown audit sink type '%s'", def.Audit.Type)
	}
}

func buildDepsNotifier(ctx context.Context, def *config.Definition, logger *logging.Logger) (deps.Notifier, error) {
	switch def.Deps.Type {
	case "ecs":
		return deps.NewECSNotifier(ctx, def.Deps.Cluster, def.Deps.Region, def.Deps.Endpoint, logger)
	case "", "none":
		return deps.NoopNotifier{}, nil
	default:
		return nil, fmt.Errorf("unknown dependents type '%s'", def.Deps.Type)
	}
}

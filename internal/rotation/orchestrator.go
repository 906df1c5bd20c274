package rotation

import (
	"context"
	"sync"
	"time"

	"github.com/keyvigil/keyvigil/internal/audit"
	"github.com/keyvigil/keyvigil/internal/config"
	"github.com/keyvigil/keyvigil/internal/errors"
	"github.com/keyvigil/keyvigil/internal/inventory"
	"github.com/keyvigil/keyvigil/internal/logging"
	"github.com/keyvigil/keyvigil/internal/notifications"
	"github.com/keyvigil/keyvigil/internal/secretstore"
)

// DefaultRotationTimeout bounds one credential rotation end to end, including
// verification waits.
const DefaultRotationTimeout = 2 * time.Minute

// OrchestratorParams wires an Orchestrator. Store, Adapter, Audit and Logger
// are required; everything else has a working default.
type OrchestratorParams struct {
	Store         inventory.Store
	Adapter       secretstore.Adapter
	Audit         audit.Sink
	Notifications *notifications.Manager // optional
	Metrics       *Metrics               // optional
	Logger        *logging.Logger

	ThresholdDays    int
	PeriodDays       int
	BatchConcurrency int
	Timeout          time.Duration
}

// Orchestrator drives rotation: it selects due credentials, resolves each to
// a strategy, runs the rotation, and owns all bookkeeping around it (status
// transitions, audit records, notifications, metrics). Strategies never touch
// the inventory; the orchestrator is the only writer.
type Orchestrator struct {
	store         inventory.Store
	adapter       secretstore.Adapter
	classifier    *Classifier
	strategies    map[inventory.Kind]Strategy
	auditSink     audit.Sink
	notifications *notifications.Manager
	metrics       *Metrics
	logger        *logging.Logger

	thresholdDays int
	periodDays    int
	concurrency   int
	timeout       time.Duration

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewOrchestrator creates an orchestrator. Strategies are registered
// separately with RegisterStrategy.
func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	if p.ThresholdDays <= 0 {
		p.ThresholdDays = config.DefaultRotationThresholdDays
	}
	if p.PeriodDays <= 0 {
		p.PeriodDays = config.DefaultRotationPeriodDays
	}
	if p.BatchConcurrency <= 0 {
		p.BatchConcurrency = config.DefaultBatchConcurrency
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultRotationTimeout
	}
	return &Orchestrator{
		store:         p.Store,
		adapter:       p.Adapter,
		classifier:    NewClassifier(p.Adapter, p.Logger),
		strategies:    make(map[inventory.Kind]Strategy),
		auditSink:     p.Audit,
		notifications: p.Notifications,
		metrics:       p.Metrics,
		logger:        p.Logger,
		thresholdDays: p.ThresholdDays,
		periodDays:    p.PeriodDays,
		concurrency:   p.BatchConcurrency,
		timeout:       p.Timeout,
		locks:         make(map[string]*sync.Mutex),
	}
}

// RegisterStrategy adds a strategy, keyed by the kind it rotates.
func (o *Orchestrator) RegisterStrategy(s Strategy) {
	o.strategies[s.Kind()] = s
}

// DueCredentials returns the credentials the next RunDueRotations pass would
// process, without touching them.
func (o *Orchestrator) DueCredentials(ctx context.Context) ([]inventory.Credential, error) {
	return o.store.ListDue(ctx, o.thresholdDays)
}

// RunDueRotations rotates every due credential through a bounded worker pool.
// One credential's failure never stops the batch; the returned outcomes are
// in due-list order, one per credential.
func (o *Orchestrator) RunDueRotations(ctx context.Context) ([]Outcome, error) {
	due, err := o.store.ListDue(ctx, o.thresholdDays)
	if err != nil {
		return nil, err
	}
	if len(due) == 0 {
		o.logger.Info("no credentials due for rotation")
		return nil, nil
	}
	o.logger.Info("%d credential(s) due for rotation", len(due))

	outcomes := make([]Outcome, len(due))
	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup
	for i := range due {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = o.rotate(ctx, &due[i])
		}(i)
	}
	wg.Wait()
	return outcomes, nil
}

// RotateOne rotates a single credential by id. Unless force is set, a
// credential that is not due is skipped without an audit record.
func (o *Orchestrator) RotateOne(ctx context.Context, id string, force bool) (Outcome, error) {
	cred, err := o.store.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if cred.Status == inventory.StatusRotating {
		// Another run owns this credential. Force does not override the
		// cross-process lock.
		return skipped(cred.ID, cred.Name, string(cred.Kind), "rotation already in progress"), nil
	}
	if !force && !o.isDue(cred) {
		o.logger.Info("credential '%s' is not due for rotation (%d days remaining)", cred.ID, cred.ExpiresIn)
		return skipped(cred.ID, cred.Name, string(cred.Kind), "not due for rotation"), nil
	}
	return o.rotate(ctx, cred), nil
}

func (o *Orchestrator) isDue(cred *inventory.Credential) bool {
	switch cred.Status {
	case inventory.StatusExpiring, inventory.StatusExpired, inventory.StatusFailed:
		return true
	}
	return cred.ExpiresIn < o.thresholdDays
}

// rotate runs the full pipeline for one credential and produces exactly one
// outcome, one audit record per actual attempt, and one notification.
func (o *Orchestrator) rotate(ctx context.Context, cred *inventory.Credential) Outcome {
	mu := o.credentialLock(cred.ID)
	mu.Lock()
	defer mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	prev := cred.Status
	acquired, err := o.store.UpdateStatusIf(ctx, cred.ID, prev, inventory.StatusRotating)
	if err != nil {
		// The status was never changed, so there is nothing to restore, but
		// the attempt still gets its audit record and notification.
		return o.failureBookkeeping(ctx, cred, cred.Kind, time.Now(), err)
	}
	if !acquired {
		o.logger.Warn("credential '%s' changed status concurrently, skipping", cred.ID)
		return skipped(cred.ID, cred.Name, string(cred.Kind), "rotation already in progress")
	}

	kind := o.classifier.Classify(ctx, cred)
	o.logger.Info("rotating credential '%s' (%s) via %s", cred.ID, kind, o.adapter.Name())
	if o.metrics != nil {
		o.metrics.RecordStarted(string(kind))
	}
	start := time.Now()

	strategy, ok := o.strategies[kind]
	if !ok {
		return o.finishFailure(ctx, cred, prev, kind, start, errors.UnsupportedKindError{Kind: string(kind)})
	}

	working := *cred
	working.Kind = kind
	result, err := strategy.Rotate(ctx, &working)
	if err != nil {
		return o.finishFailure(ctx, cred, prev, kind, start, err)
	}

	// The secret is durably rotated and verified; if a verify failure had
	// occurred the old status would be restored and the credential would stay
	// due, so the next pass overwrites the orphaned value.
	update := inventory.RotationUpdate{
		LastRotated: time.Now().UTC(),
		ExpiresIn:   o.periodDays,
		Status:      inventory.StatusActive,
	}
	if err := o.store.UpdateAfterRotation(ctx, cred.ID, update); err != nil {
		return o.finishFailure(ctx, cred, prev, kind, start, err)
	}
	if result != nil && len(result.MetadataUpdates) > 0 {
		if err := o.store.MergeProviderMetadata(ctx, cred.ID, result.MetadataUpdates); err != nil {
			// The rotation itself is committed; losing metadata is worth a
			// warning, not a failure outcome.
			o.logger.Warn("failed to record provider metadata for '%s': %v", cred.ID, err)
		}
	}

	o.recordAudit(ctx, audit.ActionRotation, cred, kind, nil)
	o.notify(cred, kind, nil)
	if o.metrics != nil {
		o.metrics.RecordCompleted(string(kind), "success", time.Since(start).Seconds())
	}
	o.logger.Info("rotation of '%s' completed", cred.ID)
	return succeeded(cred.ID, cred.Name, string(kind))
}

// finishFailure restores the pre-attempt status so the credential stays due
// and is re-attempted on the next pass, then does the failure bookkeeping.
func (o *Orchestrator) finishFailure(ctx context.Context, cred *inventory.Credential, prev inventory.Status, kind inventory.Kind, start time.Time, cause error) Outcome {
	if err := o.store.UpdateStatus(ctx, cred.ID, prev); err != nil {
		o.logger.Error("failed to restore status of '%s' after failed rotation: %v", cred.ID, err)
	}
	return o.failureBookkeeping(ctx, cred, kind, start, cause)
}

// failureBookkeeping produces the audit record, notification, metrics and
// outcome every failed attempt gets, regardless of how far the attempt got.
func (o *Orchestrator) failureBookkeeping(ctx context.Context, cred *inventory.Credential, kind inventory.Kind, start time.Time, cause error) Outcome {
	o.recordAudit(ctx, audit.ActionRotationFailed, cred, kind, cause)
	o.notify(cred, kind, cause)
	if o.metrics != nil {
		o.metrics.RecordCompleted(string(kind), "failure", time.Since(start).Seconds())
	}
	o.logger.Error("rotation of '%s' failed: %v", cred.ID, cause)
	return failed(cred.ID, cred.Name, string(kind), cause)
}

func (o *Orchestrator) recordAudit(ctx context.Context, action string, cred *inventory.Credential, kind inventory.Kind, cause error) {
	metadata := map[string]string{
		"credential_id":   cred.ID,
		"credential_name": cred.Name,
		"kind":            string(kind),
		"store":           o.adapter.Name(),
	}
	description := "rotated credential '" + cred.Name + "'"
	if cause != nil {
		description = "rotation of credential '" + cred.Name + "' failed"
		metadata["error"] = cause.Error()
	}

	if err := o.auditSink.Append(ctx, audit.NewRecord(action, description, metadata)); err != nil {
		o.logger.Error("failed to append audit record for '%s': %v", cred.ID, err)
	}
}

func (o *Orchestrator) notify(cred *inventory.Credential, kind inventory.Kind, cause error) {
	if o.notifications == nil {
		return
	}
	event := notifications.Event{
		CredentialName: cred.Name,
		CredentialType: string(kind),
		Status:         notifications.StatusSuccess,
		Timestamp:      time.Now().UTC(),
	}
	if cause != nil {
		event.Status = notifications.StatusFailure
		event.Error = cause.Error()
	}
	o.notifications.Send(event)
}

func (o *Orchestrator) credentialLock(id string) *sync.Mutex {
	o.lockMu.Lock()
	defer o.lockMu.Unlock()
	mu, ok := o.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		o.locks[id] = mu
	}
	return mu
}

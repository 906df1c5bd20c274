package notifications

import (
	"context"
	"sync"

	"github.com/keyvigil/keyvigil/internal/logging"
)

// DefaultQueueSize is the maximum number of events that can be queued.
const DefaultQueueSize = 100

// Manager coordinates notification delivery across providers. It uses an
// async bounded queue so rotation operations never block on delivery.
type Manager struct {
	providers []Provider
	queue     chan Event
	logger    *logging.Logger
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
	done      chan struct{}

	droppedMu    sync.Mutex
	droppedCount int64
}

// NewManager creates a notification manager. If queueSize is not positive,
// DefaultQueueSize is used.
func NewManager(queueSize int, logger *logging.Logger) *Manager {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Manager{
		queue:  make(chan Event, queueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// RegisterProvider adds a notification provider.
func (m *Manager) RegisterProvider(provider Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers = append(m.providers, provider)
}

// Start begins the background delivery worker. Must be called before Send.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.worker(ctx)
}

// Stop shuts the manager down, draining queued events first.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.done)
	m.wg.Wait()
}

// Send queues an event for delivery. When the queue is full the oldest event
// is dropped so the caller never blocks; notifications are best-effort.
func (m *Manager) Send(event Event) {
	for {
		select {
		case m.queue <- event:
			return
		default:
			select {
			case <-m.queue:
				m.droppedMu.Lock()
				m.droppedCount++
				m.droppedMu.Unlock()
			default:
			}
		}
	}
}

// DroppedCount returns how many events were dropped due to queue overflow.
func (m *Manager) DroppedCount() int64 {
	m.droppedMu.Lock()
	defer m.droppedMu.Unlock()
	return m.droppedCount
}

func (m *Manager) worker(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case event := <-m.queue:
			m.deliver(ctx, event)
		case <-m.done:
			// Drain remaining events before exiting.
			for {
				select {
				case event := <-m.queue:
					m.deliver(ctx, event)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) deliver(ctx context.Context, event Event) {
	m.mu.Lock()
	providers := make([]Provider, len(m.providers))
	copy(providers, m.providers)
	m.mu.Unlock()

	for _, provider := range providers {
		if err := provider.Send(ctx, event); err != nil {
			if m.logger != nil {
				m.logger.Warn("notification via %s failed for %s: %v",
					provider.Name(), event.CredentialName, err)
			}
		}
	}
}

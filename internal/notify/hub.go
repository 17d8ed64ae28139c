package notify

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lehuagavin/genslides/internal/id"
)

// ErrClosed is returned by Subscribe after Shutdown.
var ErrClosed = errors.New("notification hub closed")

// subscriberBuffer is how many events a slow listener may lag before drops.
const subscriberBuffer = 64

// Subscriber is one attached listener.
type Subscriber struct {
	ID          string
	Slug        string
	Events      chan Event
	Done        chan struct{}
	ConnectedAt time.Time
}

// Relay forwards locally published events to other processes.
type Relay interface {
	Forward(ctx context.Context, event Event) error
}

// Hub fans events out to the listeners of each project slug and tracks which
// slides have a generation in flight.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[string]*Subscriber

	tasksMu sync.Mutex
	tasks   map[string]map[string]string // slug -> sid -> task id

	relayMu sync.RWMutex
	relay   Relay

	shutdownMu sync.RWMutex
	shutdown   bool

	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[string]*Subscriber),
		tasks:  make(map[string]map[string]string),
		logger: logger,
	}
}

// SetRelay installs a cross-process relay. Pass nil to remove it.
func (h *Hub) SetRelay(r Relay) {
	h.relayMu.Lock()
	defer h.relayMu.Unlock()
	h.relay = r
}

// Subscribe attaches a listener to slug. If any slide of the project is
// generating, the first event the listener sees is sync_generating_tasks.
func (h *Hub) Subscribe(slug string) (*Subscriber, error) {
	h.shutdownMu.RLock()
	closed := h.shutdown
	h.shutdownMu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	subID, err := id.Generate("sub")
	if err != nil {
		return nil, err
	}

	sub := &Subscriber{
		ID:          subID,
		Slug:        slug,
		Events:      make(chan Event, subscriberBuffer),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	if sids := h.GeneratingSIDs(slug); len(sids) > 0 {
		sub.Events <- SyncGenerating(slug, sids)
	}

	h.mu.Lock()
	if h.subs[slug] == nil {
		h.subs[slug] = make(map[string]*Subscriber)
	}
	h.subs[slug][sub.ID] = sub
	total := len(h.subs[slug])
	h.mu.Unlock()

	h.logger.Info("listener attached",
		"slug", slug,
		"subscriber_id", sub.ID,
		"total_listeners", total,
	)
	return sub, nil
}

// Unsubscribe detaches a listener and closes its channels. Safe to repeat.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	listeners, ok := h.subs[sub.Slug]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := listeners[sub.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(listeners, sub.ID)
	if len(listeners) == 0 {
		delete(h.subs, sub.Slug)
	}
	h.mu.Unlock()

	close(sub.Done)
	close(sub.Events)

	h.logger.Info("listener detached",
		"slug", sub.Slug,
		"subscriber_id", sub.ID,
		"duration", time.Since(sub.ConnectedAt),
	)
}

// Publish delivers event to local listeners and forwards it through the relay.
func (h *Hub) Publish(ctx context.Context, event Event) {
	h.Deliver(event)

	h.relayMu.RLock()
	relay := h.relay
	h.relayMu.RUnlock()
	if relay == nil {
		return
	}
	if err := relay.Forward(ctx, event); err != nil {
		h.logger.Warn("failed to relay event",
			"slug", event.Slug,
			"event_type", string(event.Type),
			"error", err,
		)
	}
}

// Deliver sends event to local listeners only. Slow listeners lose the event.
func (h *Hub) Deliver(event Event) {
	h.shutdownMu.RLock()
	defer h.shutdownMu.RUnlock()
	if h.shutdown {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	var delivered, dropped int
	for _, sub := range h.subs[event.Slug] {
		select {
		case sub.Events <- event:
			delivered++
		default:
			dropped++
			h.logger.Warn("dropped event for slow listener",
				"subscriber_id", sub.ID,
				"event_type", string(event.Type),
			)
		}
	}

	h.logger.Debug("event published",
		"slug", event.Slug,
		"event_type", string(event.Type),
		slog.Group("stats",
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped)),
	)
}

// ListenerCount returns how many listeners slug has.
func (h *Hub) ListenerCount(slug string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[slug])
}

// AddTask records that sid of slug is generating under taskID.
// A newer task for the same slide replaces the older entry.
func (h *Hub) AddTask(slug, sid, taskID string) {
	h.tasksMu.Lock()
	defer h.tasksMu.Unlock()
	if h.tasks[slug] == nil {
		h.tasks[slug] = make(map[string]string)
	}
	h.tasks[slug][sid] = taskID
}

// RemoveTask clears the entry for sid if it still belongs to taskID.
func (h *Hub) RemoveTask(slug, sid, taskID string) {
	h.tasksMu.Lock()
	defer h.tasksMu.Unlock()
	bySID, ok := h.tasks[slug]
	if !ok || bySID[sid] != taskID {
		return
	}
	delete(bySID, sid)
	if len(bySID) == 0 {
		delete(h.tasks, slug)
	}
}

// GeneratingSIDs returns the slides of slug with a generation in flight, sorted.
func (h *Hub) GeneratingSIDs(slug string) []string {
	h.tasksMu.Lock()
	defer h.tasksMu.Unlock()
	sids := make([]string, 0, len(h.tasks[slug]))
	for sid := range h.tasks[slug] {
		sids = append(sids, sid)
	}
	sort.Strings(sids)
	return sids
}

// Shutdown stops delivery and detaches every listener.
func (h *Hub) Shutdown(_ context.Context) error {
	h.shutdownMu.Lock()
	h.shutdown = true
	h.shutdownMu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, listeners := range h.subs {
		for _, sub := range listeners {
			close(sub.Done)
			close(sub.Events)
		}
	}
	h.subs = make(map[string]map[string]*Subscriber)

	h.logger.Info("notification hub stopped")
	return nil
}

package likes

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type openStore struct {
	store    *Store
	lastSeen time.Time
}

// Registry hands out one Store per device, opening it on first use. Stores
// unused for the idle TTL are dropped and reopened from storage on demand.
type Registry struct {
	storage   Storage
	namespace string
	idleTTL   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	stores map[string]*openStore

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRegistry creates a registry whose stores live under namespace. A
// positive idleTTL starts a sweep that evicts idle devices; call Stop to end it.
func NewRegistry(storage Storage, namespace string, idleTTL time.Duration, logger *slog.Logger) *Registry {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	r := &Registry{
		storage:   storage,
		namespace: namespace,
		idleTTL:   idleTTL,
		logger:    logger,
		now:       time.Now,
		stores:    make(map[string]*openStore),
		done:      make(chan struct{}),
	}
	if idleTTL > 0 {
		r.wg.Add(1)
		go r.sweepLoop()
	}
	return r
}

// Key returns the storage slot of a device's liked set
func (r *Registry) Key(deviceID string) string {
	return r.namespace + ":" + deviceID
}

// Store returns the liked set of a device
func (r *Registry) Store(ctx context.Context, deviceID string) (*Store, error) {
	if store, ok := r.touch(deviceID); ok {
		return store, nil
	}

	opened, err := Open(ctx, r.storage, r.Key(deviceID), r.logger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another request may have opened it meanwhile
	if entry, ok := r.stores[deviceID]; ok {
		entry.lastSeen = r.now()
		return entry.store, nil
	}
	r.stores[deviceID] = &openStore{store: opened, lastSeen: r.now()}
	return opened, nil
}

func (r *Registry) touch(deviceID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.stores[deviceID]
	if !ok {
		return nil, false
	}
	entry.lastSeen = r.now()
	return entry.store, true
}

// Len returns the number of open stores
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Stop shuts down the eviction goroutine
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
}

func (r *Registry) sweepLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep drops stores idle for longer than idleTTL. Every toggle has already
// been written to storage, so a dropped store loses nothing.
func (r *Registry) sweep() {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	for deviceID, entry := range r.stores {
		if entry.lastSeen.Before(cutoff) {
			delete(r.stores, deviceID)
		}
	}
}

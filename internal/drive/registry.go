package drive

import (
	"context"
	"sync"
)

// Registry tracks in-flight downloads so they can be cancelled by file ID.
type Registry struct {
	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// NewRegistry creates an empty download registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]context.CancelFunc)}
}

// Register derives a cancellable context for a download and records it under
// the file ID. A second registration for the same ID cancels the first.
func (r *Registry) Register(ctx context.Context, fileID string) (context.Context, context.CancelFunc) {
	dctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if prev, ok := r.active[fileID]; ok {
		prev()
	}
	r.active[fileID] = cancel
	r.mu.Unlock()

	return dctx, func() {
		cancel()
		r.Unregister(fileID)
	}
}

// Unregister drops the registration without cancelling.
func (r *Registry) Unregister(fileID string) {
	r.mu.Lock()
	delete(r.active, fileID)
	r.mu.Unlock()
}

// Cancel cancels the download for the file ID. It reports whether a download
// was registered.
func (r *Registry) Cancel(fileID string) bool {
	r.mu.Lock()
	cancel, ok := r.active[fileID]
	delete(r.active, fileID)
	r.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

// Active reports whether a download is registered for the file ID.
func (r *Registry) Active(fileID string) bool {
	r.mu.Lock()
	_, ok := r.active[fileID]
	r.mu.Unlock()
	return ok
}

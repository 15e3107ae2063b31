package session

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/user/spikeclust/internal/types"
)

// Observer receives session notifications. Calls happen after the change is
// committed, outside the session lock; observers may query the session but
// must not mutate it from inside a notification.
type Observer interface {
	OnLoad(types.Update)
	OnSelect(types.Update)
	// OnCluster receives partition and metadata changes, including those
	// produced by undo and redo.
	OnCluster(types.Update)
	// OnStatus reports operations that completed without changing anything.
	OnStatus(types.Status)
}

// NopObserver implements Observer with no-ops, for embedding.
type NopObserver struct{}

func (NopObserver) OnLoad(types.Update)    {}
func (NopObserver) OnSelect(types.Update)  {}
func (NopObserver) OnCluster(types.Update) {}
func (NopObserver) OnStatus(types.Status)  {}

// Registry keeps the registered observers in registration order.
type Registry struct {
	mu        sync.RWMutex
	observers []Observer
}

// Register adds an observer.
func (r *Registry) Register(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Unregister removes an observer and closes it when it implements io.Closer.
func (r *Registry) Unregister(o Observer) error {
	r.mu.Lock()
	r.observers = slices.DeleteFunc(r.observers, func(x Observer) bool { return x == o })
	r.mu.Unlock()

	if c, ok := o.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Observers returns a snapshot of the registered observers.
func (r *Registry) Observers() []Observer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.observers)
}

// notify calls fn on every observer. A panicking observer is logged and
// skipped; it cannot undo the committed change.
func (r *Registry) notify(log *slog.Logger, fn func(Observer)) {
	for _, o := range r.Observers() {
		func() {
			defer func() {
				if p := recover(); p != nil {
					log.Error("observer panicked", "observer", fmt.Sprintf("%T", o), "panic", p)
				}
			}()
			fn(o)
		}()
	}
}

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/user/spikeclust/internal/dataset"
	"github.com/user/spikeclust/internal/session"
	"github.com/user/spikeclust/internal/types"
)

// Gateway hosts several sessions. Every command against a session runs on
// that session's lane, so a session is only ever driven by one goroutine at
// a time, while different sessions progress in parallel.
type Gateway struct {
	Queue *Queue

	sessions    types.SessionStore
	observers   func(types.SessionID) []session.Observer
	sessionOpts []session.Option

	mu     sync.RWMutex
	hosted map[types.SessionID]*session.Session
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithSessionStore records opened sessions in an index.
func WithSessionStore(store types.SessionStore) Option {
	return func(g *Gateway) { g.sessions = store }
}

// WithObservers registers the observers returned by fn on every new session,
// before its data is loaded.
func WithObservers(fn func(types.SessionID) []session.Observer) Option {
	return func(g *Gateway) { g.observers = fn }
}

// WithSessionOptions applies opts to every new session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(g *Gateway) { g.sessionOpts = append(g.sessionOpts, opts...) }
}

// New creates a Gateway with the given concurrency limit for simultaneous
// job processing.
func New(maxConcurrent int64, opts ...Option) *Gateway {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	g := &Gateway{
		Queue:  NewQueue(maxConcurrent),
		hosted: make(map[types.SessionID]*session.Session),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.Queue.SetProcessor(g.process)
	return g
}

// Start initialises the gateway's context and starts the internal queue.
func (g *Gateway) Start(ctx context.Context) {
	g.Queue.Start(ctx)
}

// Stop stops the queue and waits for outstanding jobs to finish.
func (g *Gateway) Stop() {
	g.Queue.Stop()
}

func (g *Gateway) process(job *Job) error {
	if job.Session == nil {
		return fmt.Errorf("session not found: %s", job.SessionID)
	}
	return job.Fn(job.Session)
}

func (g *Gateway) lookup(id types.SessionID) (*session.Session, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.hosted[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return s, nil
}

// Open validates ds, records the session in the index, registers the
// configured observers and loads the dataset. A session whose load fails is
// marked failed in the index.
func (g *Gateway) Open(ctx context.Context, ds *dataset.Dataset) (types.SessionID, error) {
	if err := ds.Validate(); err != nil {
		return "", fmt.Errorf("open %s: %w", ds.Name, err)
	}
	s := session.New(g.sessionOpts...)
	id := s.ID()
	if g.sessions != nil {
		idx := &types.SessionIndex{SessionID: id, Dataset: ds.Name, Spikes: len(ds.SpikeClusters)}
		if err := g.sessions.Create(ctx, idx); err != nil {
			return "", fmt.Errorf("record session: %w", err)
		}
	}

	if g.observers != nil {
		for _, o := range g.observers(id) {
			s.Register(o)
		}
	}
	if err := s.Load(ds.SpikeClusters, ds.Metadata); err != nil {
		if serr := g.setStatus(ctx, id, "failed"); serr != nil {
			slog.Warn("mark session failed", "session_id", string(id), "error", serr)
		}
		return "", fmt.Errorf("open %s: %w", ds.Name, err)
	}

	g.mu.Lock()
	g.hosted[id] = s
	g.mu.Unlock()
	return id, nil
}

func (g *Gateway) setStatus(ctx context.Context, id types.SessionID, status string) error {
	if g.sessions == nil {
		return nil
	}
	idx, err := g.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	idx.Status = status
	return g.sessions.Update(ctx, idx)
}

// Do runs fn against the session on its lane and waits for the result.
func (g *Gateway) Do(ctx context.Context, id types.SessionID, fn func(*session.Session) error) error {
	s, err := g.lookup(id)
	if err != nil {
		return err
	}
	return g.run(ctx, s, fn)
}

func (g *Gateway) run(ctx context.Context, s *session.Session, fn func(*session.Session) error) error {
	job := NewJob(s.ID(), fn)
	job.Session = s
	if err := g.Queue.Enqueue(job); err != nil {
		return err
	}
	select {
	case <-job.Done():
		return job.Error
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops hosting a session. New commands are rejected at once; commands
// already queued run before the lane is removed. Its observers are then
// unregistered (and closed) and the index entry is marked closed.
func (g *Gateway) Close(ctx context.Context, id types.SessionID) error {
	g.mu.Lock()
	s, ok := g.hosted[id]
	delete(g.hosted, id)
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	if err := g.run(ctx, s, func(*session.Session) error { return nil }); err != nil {
		return fmt.Errorf("drain session %s: %w", id, err)
	}
	g.Queue.Remove(id)

	var firstErr error
	for _, o := range s.Observers() {
		if err := s.Unregister(o); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close observer: %w", err)
		}
	}
	if err := g.setStatus(ctx, id, "closed"); err != nil {
		return err
	}
	return firstErr
}

// Sessions returns the ids of the hosted sessions.
func (g *Gateway) Sessions() []types.SessionID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]types.SessionID, 0, len(g.hosted))
	for id := range g.hosted {
		ids = append(ids, id)
	}
	return ids
}

// Package client maps each browser to its own session store and route guard.
package client

import (
	"context"
	"sync"
	"time"

	"eduvista/internal/guard"
	"eduvista/internal/metrics"
	"eduvista/internal/policy"
	"eduvista/internal/service"
	"eduvista/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client is one running dashboard.
type Client struct {
	ID       string
	Sessions *session.Store
	Guard    *guard.Guard

	restore  sync.Once
	now      func() time.Time
	mu       sync.Mutex
	lastSeen time.Time
	streams  int
	active   bool
}

func (c *Client) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

// Hold marks the client as having an open event stream. A held client is
// never swept; release ends the hold and restarts the idle clock.
func (c *Client) Hold() (release func()) {
	c.mu.Lock()
	c.streams++
	c.lastSeen = c.now()
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.streams--
			c.lastSeen = c.now()
			c.mu.Unlock()
		})
	}
}

func (c *Client) idle(cutoff time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams == 0 && c.lastSeen.Before(cutoff)
}

// PersisterFactory returns the session record storage for a client ID.
type PersisterFactory func(clientID string) session.Persister

// Registry holds the clients seen by this process.
type Registry struct {
	auth         service.AuthService
	policy       *policy.Policy
	newPersister PersisterFactory
	logger       *zap.Logger
	now          func() time.Time

	mu      sync.Mutex
	clients map[string]*Client
}

func NewRegistry(auth service.AuthService, p *policy.Policy, newPersister PersisterFactory, logger *zap.Logger) *Registry {
	return &Registry{
		auth:         auth,
		policy:       p,
		newPersister: newPersister,
		logger:       logger,
		now:          time.Now,
		clients:      make(map[string]*Client),
	}
}

// Open returns the client for id, creating it (and restoring its persisted
// session) on first use. Anything that is not a UUID gets a fresh ID.
func (r *Registry) Open(ctx context.Context, id string) *Client {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	r.mu.Lock()
	c, ok := r.clients[id]
	if !ok {
		c = r.newClient(id)
		r.clients[id] = c
		metrics.ConnectedClients.Set(float64(len(r.clients)))
	}
	r.mu.Unlock()

	c.restore.Do(func() {
		c.Sessions.Restore(ctx)
		r.logger.Debug("client opened", zap.String("client_id", id))
	})
	c.touch(r.now())
	return c
}

// Get returns an existing client without creating one.
func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	return c, ok
}

// Len is the number of clients in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Sweep drops clients idle for longer than maxIdle, skipping clients with an
// open event stream. Persisted records are left alone: with file-backed
// records a returning client gets its session back, with in-memory records
// it starts logged out.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var dropped []*Client
	for id, c := range r.clients {
		if c.idle(cutoff) {
			delete(r.clients, id)
			dropped = append(dropped, c)
		}
	}
	metrics.ConnectedClients.Set(float64(len(r.clients)))
	r.mu.Unlock()

	for _, c := range dropped {
		c.mu.Lock()
		if c.active {
			c.active = false
			metrics.ActiveSessions.Dec()
		}
		c.mu.Unlock()
	}
	if len(dropped) > 0 {
		r.logger.Info("idle clients swept", zap.Int("count", len(dropped)))
	}
	return len(dropped)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(maxIdle)
		}
	}
}

func (r *Registry) newClient(id string) *Client {
	logger := r.logger.With(zap.String("client_id", id))
	store := session.NewStore(r.auth, r.newPersister(id), logger)
	c := &Client{
		ID:       id,
		Sessions: store,
		Guard:    guard.New(store, r.policy, logger),
		now:      func() time.Time { return r.now() },
		lastSeen: r.now(),
	}
	store.Subscribe(func(ev session.Event) {
		c.mu.Lock()
		defer c.mu.Unlock()
		switch ev.Type {
		case session.EventLogin, session.EventRegister, session.EventRestore:
			if !c.active {
				c.active = true
				metrics.ActiveSessions.Inc()
			}
		case session.EventLogout, session.EventInvalidated:
			c.Guard.Forget()
			if c.active {
				c.active = false
				metrics.ActiveSessions.Dec()
			}
		}
	})
	return c
}

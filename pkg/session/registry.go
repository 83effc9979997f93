package session

import (
	"sync"
	"time"

	"github.com/adatp-project/adatp/internal/logger"
	"github.com/adatp-project/adatp/internal/metrics"
)

// RegistryConfig controls how long an idle session may live in a Registry
// before the background sweep evicts it.
type RegistryConfig struct {
	IdleTimeout     time.Duration
	SweepInterval   time.Duration
}

// DefaultRegistryConfig returns a generous idle timeout swept frequently
// enough to bound memory growth on a long-running server.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		IdleTimeout:   10 * time.Minute,
		SweepInterval: 30 * time.Second,
	}
}

type entry struct {
	session  *SecureSession
	lastUsed time.Time
}

// Registry tracks live SecureSession values by session ID for a server that
// handles many concurrent connections. It is ambient bookkeeping around the
// core, not part of the cryptographic core itself — a process speaking
// AdaTP over a single connection has no need of one.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	cfg     RegistryConfig
	logger  logger.Logger

	stop chan struct{}
	once sync.Once
}

// NewRegistry starts a registry with the given config, including its
// background sweep goroutine.
func NewRegistry(cfg RegistryConfig) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		cfg:     cfg,
		logger:  logger.GetDefaultLogger(),
		stop:    make(chan struct{}),
	}
	go r.sweepLoop()
	return r
}

// SetLogger overrides the registry's logger, letting a caller route
// session-lifecycle events to its own sink instead of the package default.
func (r *Registry) SetLogger(l logger.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = l
}

// Put registers sess under id, touching its last-used time to now.
func (r *Registry) Put(id string, sess *SecureSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &entry{session: sess, lastUsed: time.Now()}
	metrics.SessionsActive.Set(float64(len(r.entries)))
	r.logger.Debug("session registered", logger.SessionID(id), logger.PeerRole(sess.role.String()))
}

// Get returns the session registered under id, touching its last-used time.
// The second return value is false if no live entry exists.
func (r *Registry) Get(id string) (*SecureSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = time.Now()
	return e.session, true
}

// Remove evicts and closes the session registered under id, if any.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.session.Close()
		delete(r.entries, id)
		metrics.SessionsActive.Set(float64(len(r.entries)))
		r.logger.Debug("session removed", logger.SessionID(id))
	}
}

// Count returns the number of live entries.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close stops the background sweep and closes every tracked session.
func (r *Registry) Close() {
	r.once.Do(func() { close(r.stop) })

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		e.session.Close()
		delete(r.entries, id)
	}
	metrics.SessionsActive.Set(0)
}

func (r *Registry) sweepLoop() {
	interval := r.cfg.SweepInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stop:
			return
		}
	}
}

func (r *Registry) sweep() {
	if r.cfg.IdleTimeout <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, e := range r.entries {
		if now.Sub(e.lastUsed) > r.cfg.IdleTimeout {
			e.session.Close()
			delete(r.entries, id)
			metrics.SessionsEvicted.Inc()
			r.logger.Debug("session evicted on idle timeout",
				logger.SessionID(id), logger.Duration("idle", now.Sub(e.lastUsed)))
		}
	}
	metrics.SessionsActive.Set(float64(len(r.entries)))
}

// Package connectivity maintains the session's online flag.
//
// The flag is set from two sources: periodic reachability probes of the
// gateway, and immediate overrides from OS-level network events. A probe is a
// point sample; concurrent probes are allowed and the last one to finish wins.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 10 * time.Second

// Prober checks that the remote is reachable
type Prober interface {
	Health(ctx context.Context) error
}

// Monitor writes the online flag into a state container
type Monitor struct {
	prober    Prober
	container *state.Container
	timeout   time.Duration
	logger    *slog.Logger

	mu        sync.Mutex
	listeners []func(online bool)
}

// NewMonitor creates a monitor probing through prober
func NewMonitor(prober Prober, container *state.Container, timeout time.Duration, logger *slog.Logger) *Monitor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		prober:    prober,
		container: container,
		timeout:   timeout,
		logger:    logger,
	}
}

// OnChange registers fn to be called after every offline/online transition
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// CheckConnectivity probes the remote and records the result. Any error,
// including the timeout, means offline. It never fails.
func (m *Monitor) CheckConnectivity(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.prober.Health(ctx)
	if err != nil {
		m.logger.Debug("connectivity probe failed", "error", err)
	}
	online := err == nil
	m.SetOnline(online)
	return online
}

// SetOnline records the flag directly, e.g. from an OS network event.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	was := m.container.Online()
	if err := m.container.Dispatch(state.SetOnline{Online: online}); err != nil {
		m.mu.Unlock()
		m.logger.Warn("failed to record online flag", "error", err)
		return
	}
	var listeners []func(bool)
	if was != online {
		listeners = append(listeners, m.listeners...)
	}
	m.mu.Unlock()

	if was != online {
		m.logger.Info("connectivity changed", "online", online)
	}
	for _, fn := range listeners {
		fn(online)
	}
}

// Online reports the current flag
func (m *Monitor) Online() bool {
	return m.container.Online()
}

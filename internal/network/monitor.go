// Package network tracks whether the upstream API is reachable.
package network

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/charlesng35/hvacquote/pkg/logger"
	"github.com/charlesng35/hvacquote/pkg/metrics"
)

const (
	defaultInterval     = 10 * time.Second
	defaultProbeTimeout = 5 * time.Second
	subscriberBuffer    = 8
)

// Prober checks upstream reachability. apiclient.Client satisfies it.
type Prober interface {
	Ping(ctx context.Context) error
}

// Status is the ephemeral connectivity state. It is never persisted.
type Status struct {
	IsOnline     bool       `json:"isOnline"`
	IsConnecting bool       `json:"isConnecting"`
	LastOnline   *time.Time `json:"lastOnline,omitempty"`
	LastOffline  *time.Time `json:"lastOffline,omitempty"`
}

func (s Status) clone() Status {
	if s.LastOnline != nil {
		t := *s.LastOnline
		s.LastOnline = &t
	}
	if s.LastOffline != nil {
		t := *s.LastOffline
		s.LastOffline = &t
	}
	return s
}

// Monitor owns the connectivity state. Explicit online/offline signals apply immediately;
// while offline a scheduled probe tries to detect recovery.
type Monitor struct {
	prober   Prober
	cron     *cron.Cron
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	log      *zap.Logger

	mu      sync.RWMutex
	status  Status
	started bool

	subsMu sync.Mutex
	subs   map[int]chan Status
	nextID int
}

// Option customises the Monitor.
type Option func(*Monitor)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(m *Monitor) {
		if c != nil {
			m.cron = c
		}
	}
}

// WithNow overrides the clock used to stamp transitions.
func WithNow(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithInterval sets the probe cadence used while offline.
func WithInterval(interval time.Duration) Option {
	return func(m *Monitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// WithProbeTimeout bounds each connectivity probe.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(m *Monitor) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithInitialOnline seeds the starting state.
func WithInitialOnline(online bool) Option {
	return func(m *Monitor) {
		m.status.IsOnline = online
	}
}

// NewMonitor constructs a Monitor. A nil prober disables recovery probing.
func NewMonitor(prober Prober, opts ...Option) *Monitor {
	m := &Monitor{
		prober:   prober,
		interval: defaultInterval,
		timeout:  defaultProbeTimeout,
		now:      time.Now,
		log:      logger.WithModule("network"),
		status:   Status{IsOnline: true},
		subs:     make(map[int]chan Status),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cron == nil {
		m.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	now := m.now()
	if m.status.IsOnline {
		m.status.LastOnline = &now
	} else {
		m.status.LastOffline = &now
	}
	metrics.NetworkOnline.Set(metrics.BoolGauge(m.status.IsOnline))
	return m
}

// Status returns a copy of the current state.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.clone()
}

// IsOnline reports the current reachability.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.IsOnline
}

// SetOnline records an online signal.
func (m *Monitor) SetOnline() {
	now := m.now()
	m.update(func(s *Status) bool {
		s.IsOnline = true
		s.IsConnecting = false
		s.LastOnline = &now
		return true
	})
	m.log.Info("network online")
}

// SetOffline records an offline signal. IsConnecting is left untouched.
func (m *Monitor) SetOffline() {
	now := m.now()
	m.update(func(s *Status) bool {
		s.IsOnline = false
		s.LastOffline = &now
		return true
	})
	m.log.Info("network offline")
}

// Tick runs one probe round. It does nothing while online.
func (m *Monitor) Tick(ctx context.Context) {
	if m.prober == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !m.update(func(s *Status) bool {
		if s.IsOnline {
			return false
		}
		s.IsConnecting = true
		return true
	}) {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.prober.Ping(probeCtx)
	cancel()

	if err == nil {
		metrics.ConnectivityProbes.WithLabelValues("success").Inc()
		m.SetOnline()
		return
	}

	metrics.ConnectivityProbes.WithLabelValues("failure").Inc()
	m.log.Debug("connectivity probe failed", zap.Error(err))
	m.update(func(s *Status) bool {
		s.IsConnecting = false
		return true
	})
}

// Start schedules Tick at the configured interval. Overlapping ticks are skipped.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.prober == nil {
		return nil
	}

	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		m.Tick(context.Background())
	}))
	if _, err := m.cron.AddJob(fmt.Sprintf("@every %s", m.interval), job); err != nil {
		return fmt.Errorf("network: schedule probe: %w", err)
	}
	m.cron.Start()
	m.started = true
	return nil
}

// Stop halts the scheduler. The returned context is done once a running probe finishes,
// or immediately when the scheduler was never started.
func (m *Monitor) Stop() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	m.started = false
	return m.cron.Stop()
}

// Subscribe returns a channel receiving every state change. When a subscriber falls behind
// the oldest pending update is dropped. The cancel func closes the channel.
func (m *Monitor) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, subscriberBuffer)

	m.subsMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.subsMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.subsMu.Lock()
			delete(m.subs, id)
			m.subsMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// update applies mutate under the state lock and publishes the result. Holding subsMu for
// the whole transition keeps subscribers observing changes in order.
func (m *Monitor) update(mutate func(*Status) bool) bool {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	m.mu.Lock()
	changed := mutate(&m.status)
	snapshot := m.status.clone()
	m.mu.Unlock()
	if !changed {
		return false
	}

	metrics.NetworkOnline.Set(metrics.BoolGauge(snapshot.IsOnline))
	for _, ch := range m.subs {
		deliver(ch, snapshot.clone())
	}
	return true
}

func deliver(ch chan Status, status Status) {
	select {
	case ch <- status:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- status:
	default:
	}
}

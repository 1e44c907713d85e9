// Package monitor schedules sampling passes and publishes their results.
//
// A Monitor polls on a fixed interval while started, and can run a single
// manual pass while stopped. Every pass takes a monotonically increasing
// pass number when it begins; a finished pass is published only if no newer
// pass has been published already, so a slow pass can never overwrite the
// display with older data. Stopping the monitor prevents the next pass from
// being scheduled but lets an in-flight pass finish and publish.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"connwatch/internal/analysis"
	"connwatch/internal/models"
)

// DefaultInterval is the polling period.
const DefaultInterval = 5 * time.Second

// ErrAlreadyRunning is returned by Start when polling is active.
var ErrAlreadyRunning = errors.New("monitor already running")

// Batcher produces one classified batch. *sampler.Sampler implements it.
type Batcher interface {
	Batch(ctx context.Context) models.SampleBatch
}

// Snapshot is what a pass publishes: the batch and its statistics.
type Snapshot struct {
	SessionID string
	Manual    bool
	Batch     models.SampleBatch
	Stats     analysis.Statistics
}

// Sink receives published snapshots. Sinks are called one at a time and
// should return quickly.
type Sink func(Snapshot)

// Monitor is the state holder shared by the polling loop and manual passes.
type Monitor struct {
	batcher   Batcher
	interval  time.Duration
	logger    zerolog.Logger
	sessionID string

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
	pass    uint64

	publishMu sync.Mutex
	published uint64
	sinks     []Sink

	inflight sync.WaitGroup
}

// New creates a stopped monitor.
func New(batcher Batcher, interval time.Duration, logger zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	id := uuid.NewString()
	return &Monitor{
		batcher:   batcher,
		interval:  interval,
		sessionID: id,
		logger: logger.With().
			Str("component", "monitor").
			Str("session", id).
			Logger(),
	}
}

// SessionID identifies this monitor instance in logs and reports.
func (m *Monitor) SessionID() string { return m.sessionID }

// Interval returns the polling period.
func (m *Monitor) Interval() time.Duration { return m.interval }

// Subscribe adds a sink. It is not safe to call concurrently with passes.
func (m *Monitor) Subscribe(s Sink) {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()
	m.sinks = append(m.sinks, s)
}

// Running reports whether the polling loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Start launches the polling loop. The first pass runs immediately.
// The loop ends on Stop or when ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.stopped = make(chan struct{})

	m.logger.Info().Dur("interval", m.interval).Msg("Monitoring started")
	go m.loop(loopCtx, m.stopped)
	return nil
}

// Stop cancels scheduling of the next pass. It does not wait for a pass
// already in flight; use Wait for that.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, stopped := m.cancel, m.stopped
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	m.logger.Info().Msg("Monitoring stopped")
}

// Refresh runs one manual pass in the background. It refuses (returns
// false) while polling is active.
func (m *Monitor) Refresh(ctx context.Context) bool {
	if m.Running() {
		return false
	}

	pass := m.nextPass()
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		m.logger.Info().Uint64("pass", pass).Msg("Manual refresh started")
		m.run(ctx, pass, true)
	}()
	return true
}

// RunOnce runs a pass synchronously, publishes it, and returns it.
func (m *Monitor) RunOnce(ctx context.Context) Snapshot {
	m.inflight.Add(1)
	defer m.inflight.Done()
	return m.run(ctx, m.nextPass(), true)
}

// Wait blocks until every in-flight pass has finished.
func (m *Monitor) Wait() {
	m.inflight.Wait()
}

func (m *Monitor) loop(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		pass := m.nextPass()
		done := make(chan struct{})
		m.inflight.Add(1)
		// A pass outlives Stop: it runs detached from the loop's cancellation.
		go func() {
			defer m.inflight.Done()
			defer close(done)
			m.run(context.WithoutCancel(ctx), pass, false)
		}()

		// The next pass is armed only after this one finishes.
		select {
		case <-ctx.Done():
			return
		case <-done:
		}

		timer.Reset(m.interval)
	}
}

func (m *Monitor) nextPass() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pass++
	return m.pass
}

func (m *Monitor) run(ctx context.Context, pass uint64, manual bool) Snapshot {
	start := time.Now()
	batch := m.batcher.Batch(ctx)
	batch.Pass = pass

	snap := Snapshot{
		SessionID: m.sessionID,
		Manual:    manual,
		Batch:     batch,
		Stats:     analysis.Summarize(batch),
	}

	event := m.logger.Info()
	if batch.Degraded {
		event = m.logger.Warn()
	}
	event.
		Uint64("pass", pass).
		Str("source", batch.Source).
		Bool("degraded", batch.Degraded).
		Int("connections", snap.Stats.TotalConnections).
		Int("suspicious", snap.Stats.TotalSuspicious).
		Dur("elapsed", time.Since(start)).
		Msg("Sampling pass complete")

	m.publish(snap)
	return snap
}

func (m *Monitor) publish(snap Snapshot) {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	if snap.Batch.Pass <= m.published {
		m.logger.Debug().
			Uint64("pass", snap.Batch.Pass).
			Uint64("published", m.published).
			Msg("Discarding stale pass")
		return
	}
	m.published = snap.Batch.Pass

	for _, sink := range m.sinks {
		sink(snap)
	}
}

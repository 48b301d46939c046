package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks the poll loop. It is safe for concurrent use.
type Metrics struct {
	polls       atomic.Uint64
	pollTotalNs atomic.Int64
	pollMaxNs   atomic.Int64
	lateTicks   atomic.Uint64

	reloads        atomic.Uint64
	reloadFailures atomic.Uint64
	swaps          atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordPoll records the time one engine poll took. A poll slower than the
// tick interval counts as late.
func (m *Metrics) RecordPoll(d, interval time.Duration) {
	ns := d.Nanoseconds()
	m.polls.Add(1)
	m.pollTotalNs.Add(ns)

	for {
		old := m.pollMaxNs.Load()
		if ns <= old {
			break
		}
		if m.pollMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
	if interval > 0 && d > interval {
		m.lateTicks.Add(1)
	}
}

// RecordReload records a registry rebuild attempt.
func (m *Metrics) RecordReload(err error) {
	if err != nil {
		m.reloadFailures.Add(1)
		return
	}
	m.reloads.Add(1)
}

// RecordSwap records an engine handoff to a reloaded registry.
func (m *Metrics) RecordSwap() {
	m.swaps.Add(1)
}

// Snapshot is a point-in-time copy of Metrics.
type Snapshot struct {
	Polls          uint64
	AvgPoll        time.Duration
	MaxPoll        time.Duration
	LateTicks      uint64
	Reloads        uint64
	ReloadFailures uint64
	Swaps          uint64
	Uptime         time.Duration
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Polls:          m.polls.Load(),
		MaxPoll:        time.Duration(m.pollMaxNs.Load()),
		LateTicks:      m.lateTicks.Load(),
		Reloads:        m.reloads.Load(),
		ReloadFailures: m.reloadFailures.Load(),
		Swaps:          m.swaps.Load(),
		Uptime:         time.Since(m.startTime),
	}
	if s.Polls > 0 {
		s.AvgPoll = time.Duration(m.pollTotalNs.Load() / int64(s.Polls))
	}
	return s
}

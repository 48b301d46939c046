package command

import (
	"sort"
	"sync"
	"time"
)

// Metrics collects dispatch statistics.
// It is safe for concurrent use, so status commands may read it while the
// poll loop records.
type Metrics struct {
	mu sync.RWMutex

	commands map[string]*CommandMetrics

	totalDispatches  uint64
	totalDiagnostics uint64
	totalPanics      uint64
	totalStreamTicks uint64
}

// CommandMetrics holds counters for one command.
type CommandMetrics struct {
	Name          string
	DispatchCount uint64
	StreamTicks   uint64
	PanicCount    uint64
	TotalDuration time.Duration
	MaxDuration   time.Duration
	LastDispatch  time.Time
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{commands: make(map[string]*CommandMetrics)}
}

func (m *Metrics) entry(name string) *CommandMetrics {
	cm := m.commands[name]
	if cm == nil {
		cm = &CommandMetrics{Name: name}
		m.commands[name] = cm
	}
	return cm
}

// RecordDispatch records a handler run started by a submitted line.
func (m *Metrics) RecordDispatch(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	cm := m.entry(name)
	cm.DispatchCount++
	cm.TotalDuration += d
	cm.LastDispatch = time.Now()
	if d > cm.MaxDuration {
		cm.MaxDuration = d
	}
}

// RecordStreamTick records a streaming re-invocation.
func (m *Metrics) RecordStreamTick(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalStreamTicks++
	cm := m.entry(name)
	cm.StreamTicks++
	cm.TotalDuration += d
	if d > cm.MaxDuration {
		cm.MaxDuration = d
	}
}

// RecordDiagnostic records a line rejected before any handler ran.
func (m *Metrics) RecordDiagnostic() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalDiagnostics++
}

// RecordPanic records a recovered handler panic.
func (m *Metrics) RecordPanic(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPanics++
	m.entry(name).PanicCount++
}

// TotalDispatches returns the number of dispatched lines.
func (m *Metrics) TotalDispatches() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalDispatches
}

// TotalDiagnostics returns the number of rejected lines.
func (m *Metrics) TotalDiagnostics() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalDiagnostics
}

// TotalPanics returns the number of recovered panics.
func (m *Metrics) TotalPanics() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalPanics
}

// TotalStreamTicks returns the number of streaming re-invocations.
func (m *Metrics) TotalStreamTicks() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalStreamTicks
}

// Command returns a copy of the counters for name.
func (m *Metrics) Command(name string) (CommandMetrics, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cm, ok := m.commands[name]
	if !ok {
		return CommandMetrics{}, false
	}
	return *cm, true
}

// TopCommands returns up to n commands ordered by dispatch count.
func (m *Metrics) TopCommands(n int) []CommandMetrics {
	m.mu.RLock()
	out := make([]CommandMetrics, 0, len(m.commands))
	for _, cm := range m.commands {
		out = append(out, *cm)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].DispatchCount != out[j].DispatchCount {
			return out[i].DispatchCount > out[j].DispatchCount
		}
		return out[i].Name < out[j].Name
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = make(map[string]*CommandMetrics)
	m.totalDispatches = 0
	m.totalDiagnostics = 0
	m.totalPanics = 0
	m.totalStreamTicks = 0
}

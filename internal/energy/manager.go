// Package energy implements the EnergyManager collaborator: a process-wide
// cognitive energy budget that gates which pipelines the ResourceArbiter
// will allow to run. It never blocks — Consume either atomically debits the
// requested cost or fails outright.
package energy

import (
	"sync"
	"time"
)

// Manager is a mutex-guarded, self-recovering energy pool. Energy recovers
// continuously at RecoveryRate per second, capped at Max, and is recovered
// lazily at the start of every Consume/Level/Recover call rather than on a
// background timer — so a long-idle process and a busy one converge to the
// same level once either calls in.
type Manager struct {
	mu            sync.Mutex
	level         float64
	max           float64
	recoveryRate  float64
	lastRecovered time.Time
	now           func() time.Time
}

// NewManager constructs a Manager starting at full energy.
func NewManager(max, recoveryRatePerSecond float64) *Manager {
	return &Manager{
		level:         max,
		max:           max,
		recoveryRate:  recoveryRatePerSecond,
		lastRecovered: time.Now(),
		now:           time.Now,
	}
}

// recoverLocked applies elapsed-time recovery. Caller must hold m.mu.
func (m *Manager) recoverLocked() {
	now := m.now()
	elapsed := now.Sub(m.lastRecovered).Seconds()
	if elapsed > 0 {
		m.level += elapsed * m.recoveryRate
		if m.level > m.max {
			m.level = m.max
		}
	}
	m.lastRecovered = now
}

// Consume atomically recovers, then debits cost if sufficient energy is
// available. It returns false without side effects if cost exceeds the
// recovered level.
func (m *Manager) Consume(cost float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoverLocked()
	if cost > m.level {
		return false
	}
	m.level -= cost
	return true
}

// Level returns the current energy level after applying any pending
// recovery.
func (m *Manager) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoverLocked()
	return m.level
}

// Recover is an idempotent, explicit recovery tick. The Governor calls this
// unconditionally once per loop iteration; Consume and Level also recover
// lazily, so this is a convenience for callers that only want the
// side-effect.
func (m *Manager) Recover() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoverLocked()
}

// Max returns the configured ceiling energy level.
func (m *Manager) Max() float64 {
	return m.max
}

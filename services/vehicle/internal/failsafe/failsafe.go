// Package failsafe implements the two-state monitor that forces neutral
// actuation when no command source has been active recently.
package failsafe

// Monitor transitions NORMAL <-> FAILSAFE. It owns lastActiveMs and is
// re-evaluated every check interval by the control loop.
type Monitor struct {
	timeoutMs    int64
	lastActiveMs int64
	active       bool
}

// NewMonitor starts in NORMAL with the activity clock set to nowMs, so a
// vehicle that boots with no source trips after one full timeout rather
// than instantly.
func NewMonitor(timeoutMs, nowMs int64) *Monitor {
	return &Monitor{timeoutMs: timeoutMs, lastActiveMs: nowMs}
}

// Update re-evaluates the state and returns whether failsafe is active.
// Any active source recovers to NORMAL immediately.
func (m *Monitor) Update(nowMs int64, rcActive, netActive bool) bool {
	if rcActive || netActive {
		m.lastActiveMs = nowMs
		m.active = false
		return false
	}
	if nowMs-m.lastActiveMs >= m.timeoutMs {
		m.active = true
	}
	return m.active
}

// Active reports the current state without re-evaluating.
func (m *Monitor) Active() bool { return m.active }

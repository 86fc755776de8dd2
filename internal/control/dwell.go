package control

import "time"

// DwellGate rate-limits actuation commands independently of the
// sampling cadence. It gates frequency only, not change detection:
// re-sending an unchanged speed once the dwell elapses is expected.
type DwellGate struct {
	dwell time.Duration
	last  time.Time
}

// NewDwellGate creates a gate enforcing a minimum interval between
// actuation commands. The first command is never gated.
func NewDwellGate(dwell time.Duration) *DwellGate {
	return &DwellGate{dwell: dwell}
}

// ShouldActuate reports whether an actuation command may be issued now.
func (g *DwellGate) ShouldActuate(now time.Time) bool {
	return g.last.IsZero() || now.Sub(g.last) >= g.dwell
}

// Commit records a successful actuation. Not called on failure, so a
// failed command is retried on the next tick instead of waiting out a
// full dwell period.
func (g *DwellGate) Commit(now time.Time) {
	g.last = now
}

// LastActuation returns when the gate last committed, zero if never.
func (g *DwellGate) LastActuation() time.Time {
	return g.last
}

// Package risk implements the pre-trade risk gate: an inventory-asymmetric
// cap, a per-millisecond throttle on admitted quotes, and a kill switch.
// The notional cap is accepted and stored but not yet enforced, matching
// the original harness's staged rollout (notional wiring lands once PnL
// tracking is available).
package risk

import (
	"log/slog"

	"mm-backtest/pkg/types"
)

const (
	defaultInvCap        = 100
	defaultNotionalCap   = 1e12
	defaultThrottlePerMs = 100
)

// Gate decides whether a candidate quote may be sent, given current
// inventory and the event clock.
type Gate struct {
	invCap        int32
	notionalCap   float64
	throttlePerMs int

	curMs    uint64
	sentInMs int
	killed   bool

	logger *slog.Logger
}

// NewGate creates a gate with the original harness's defaults (inventory
// cap 100, notional cap effectively unbounded, throttle 100 quotes/ms).
func NewGate(logger *slog.Logger) *Gate {
	return &Gate{
		invCap:        defaultInvCap,
		notionalCap:   defaultNotionalCap,
		throttlePerMs: defaultThrottlePerMs,
		logger:        logger.With("component", "risk"),
	}
}

// Configure overrides the inventory cap, notional cap, and per-ms throttle.
func (g *Gate) Configure(invCap int32, notionalCap float64, throttlePerMs int) {
	g.invCap = invCap
	g.notionalCap = notionalCap
	g.throttlePerMs = throttlePerMs
}

// Kill permanently disables the gate; every subsequent Allow call returns
// false. There is no un-kill: a killed gate models a fatal stop, not a
// cooldown.
func (g *Gate) Kill() {
	g.killed = true
	g.logger.Error("risk gate killed")
}

// Killed reports whether Kill has been called.
func (g *Gate) Killed() bool {
	return g.killed
}

// Allow decides whether quote q may be sent at event time tsNs, given
// current signed inventory inv. Quoting on the side that would worsen an
// already-breached inventory cap is rejected; otherwise quotes are admitted
// up to throttlePerMs per millisecond bucket (a hard reset-and-count gate,
// not a continuously refilling token bucket).
func (g *Gate) Allow(q types.Quote, inv int32, tsNs uint64) bool {
	if g.killed {
		return false
	}

	if inv > g.invCap {
		if q.BidQty > 0 {
			return false
		}
	} else if -inv > g.invCap {
		if q.AskQty > 0 {
			return false
		}
	}

	ms := tsNs / 1_000_000
	if ms != g.curMs {
		g.curMs = ms
		g.sentInMs = 0
	}
	if g.sentInMs >= g.throttlePerMs {
		return false
	}
	g.sentInMs++
	return true
}

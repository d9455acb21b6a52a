// Package signal implements the queue-reactive heuristic market-making
// signal: a small amount of state (last mid, recent fill/cancel pressure)
// that widens and skews quotes around the book's mid price without any
// statistical model.
package signal

import (
	"math"

	"mm-backtest/internal/lob"
	"mm-backtest/pkg/types"
)

// window bounds the saturating recentExecs/recentCancels counters.
const window = 128

// Heuristic is a stateful queue-reactive quoting signal. The zero value is
// ready to use.
type Heuristic struct {
	lastMid       int32
	recentExecs   int
	recentCancels int
}

// Quote derives a bid/ask pair from the book's current best prices,
// inventory inv, and the tuning parameters qAlpha (spread widening per unit
// of absolute inventory) and skew (price skew magnitude per unit of
// inventory, scaled by invCap). Recent fill pressure (more execs than
// cancels) additionally widens the quoted spread.
func (h *Heuristic) Quote(book *lob.Book, qAlpha, skew float64, inv, invCap int32) types.Quote {
	bb, aa := book.BestBid(), book.BestAsk()

	var mid int32
	if bb == math.MinInt32 || aa == math.MaxInt32 {
		mid = h.lastMid
	} else {
		mid = (bb + aa) / 2
	}
	h.lastMid = mid

	base := int32(2)
	if h.recentExecs > h.recentCancels {
		base += 2
	}
	absInv := inv
	if absInv < 0 {
		absInv = -absInv
	}
	base += int32(qAlpha * float64(absInv))

	denom := invCap
	if denom < 1 {
		denom = 1
	}
	skewPx := skew * float64(inv) / float64(denom)

	return types.Quote{
		BidPx:  mid - base - int32(skewPx),
		AskPx:  mid + base - int32(skewPx),
		BidQty: 1,
		AskQty: 1,
	}
}

// OnExec records a fill, incrementing the saturating recent-exec counter.
func (h *Heuristic) OnExec() {
	h.recentExecs++
	if h.recentExecs > window {
		h.recentExecs = window
	}
}

// OnCancel records a cancel, incrementing the saturating recent-cancel
// counter.
func (h *Heuristic) OnCancel() {
	h.recentCancels++
	if h.recentCancels > window {
		h.recentCancels = window
	}
}

// Decay relaxes both counters toward zero by one; call once per tick.
func (h *Heuristic) Decay() {
	if h.recentExecs > 0 {
		h.recentExecs--
	}
	if h.recentCancels > 0 {
		h.recentCancels--
	}
}

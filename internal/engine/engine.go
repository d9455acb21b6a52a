// Package engine is the single-threaded orchestrator of the backtest
// harness: it replays a pre-loaded event stream through the order book,
// quoting signal, and risk gate in strict array order, timing each stage
// and arming the allocation tripwire once warmup completes.
//
// There is exactly one goroutine here and it never blocks on I/O mid-run —
// the concurrency model spec'd for this harness is "none", by design: a
// deterministic backtest's latency numbers are meaningless if the
// scheduler is free to interleave other work into the measured stages.
package engine

import (
	"math"

	"mm-backtest/internal/config"
	"mm-backtest/internal/histogram"
	"mm-backtest/internal/lob"
	"mm-backtest/internal/nomalloc"
	"mm-backtest/internal/output"
	"mm-backtest/internal/pnl"
	"mm-backtest/internal/risk"
	"mm-backtest/internal/signal"
	"mm-backtest/internal/stoch"
	"mm-backtest/internal/timing"
	"mm-backtest/pkg/types"
)

// Result is everything a backtest run produces, ready to hand to
// internal/output or to inspect directly in tests.
type Result struct {
	Rows       []output.ResultRow
	Timers     *timing.StageTimers
	Histograms *histogram.StageHistograms
	Processed  int
	E2E        timing.Summary
}

// Engine owns one run's order book, quoting signal, risk gate, and PnL
// state. A fresh Engine must be constructed per run; it is not reusable.
type Engine struct {
	cfg  config.Config
	book *lob.Book
	sig  *signal.Heuristic
	gate *risk.Gate
	pnl  pnl.State
}

// New wires one run's components from cfg. logger-free by design: the risk
// gate logs its own kill transitions, and everything else is pure
// computation with no diagnostic branches to gate.
func New(cfg config.Config, gate *risk.Gate) *Engine {
	gate.Configure(cfg.InvCap, cfg.NotionalCap, cfg.Throttle)
	return &Engine{
		cfg:  cfg,
		book: lob.NewBook(lob.DefaultMaxOrders, lob.DefaultMaxLevels),
		sig:  &signal.Heuristic{},
		gate: gate,
	}
}

// Run consumes events in order, producing one Result for the whole run.
// Events must already be sorted by ts_ns (LoadCSV preserves file order,
// which the replay format guarantees is timestamp-ordered).
func (e *Engine) Run(events []types.Event) (Result, error) {
	n := len(events)
	st := timing.NewStageTimers(n + 16)
	hist := histogram.NewStageHistograms(histogram.DefaultEdgesUs)
	rows := make([]output.ResultRow, 0, n)

	mids := make([]float64, 0, n)
	tss := make([]uint64, 0, n)

	guardEnabled := false
	processed := 0

	for _, ev := range events {
		if !guardEnabled && processed >= e.cfg.Warmup {
			nomalloc.Enable()
			guardEnabled = true
		}

		pt := timing.Start(st.Parse)
		pt.Stop()

		lt := timing.Start(st.Lob)
		switch ev.Kind {
		case types.Add:
			e.book.Add(lob.Order{TsNs: ev.TsNs, ID: ev.OrderID, Px: ev.Px, Qty: ev.Qty, IsBuy: bool(ev.Side)})
		case types.Cancel:
			e.book.Cancel(ev.OrderID)
			e.sig.OnCancel()
		default:
			// Anything that isn't Add/Cancel is treated as Exec, matching the
			// original replay loop's type-byte fallthrough.
			e.sig.OnExec()
			e.pnl.OnExec(ev.Px, ev.Qty, !bool(ev.Side))
			e.book.Cancel(ev.OrderID)
		}
		lt.Stop()

		bb, aa := e.book.BestBid(), e.book.BestAsk()
		if bb != math.MinInt32 && aa != math.MaxInt32 {
			mids = append(mids, float64((bb+aa)/2))
			tss = append(tss, ev.TsNs)
		}

		var q types.Quote
		sgt := timing.Start(st.Sig)
		if e.cfg.Mode == "avs" && len(mids) >= 64 {
			q = e.avsQuote(mids, tss)
		} else {
			q = e.sig.Quote(e.book, 0.01, 2.0, e.pnl.Inv, e.cfg.InvCap)
		}
		sgt.Stop()

		rt := timing.Start(st.Risk)
		allowed := e.gate.Allow(q, e.pnl.Inv, ev.TsNs)
		rt.Stop()

		et := timing.Start(st.E2E)
		if allowed {
			rows = append(rows, output.ResultRow{
				TsNs:          ev.TsNs,
				Event:         ev.Kind,
				OrderID:       ev.OrderID,
				Side:          ev.Side,
				BidPx:         q.BidPx,
				BidQty:        q.BidQty,
				InvAfter:      e.pnl.Inv,
				NotionalAfter: e.pnl.PnL,
			})
		}
		et.Stop()

		processed++
	}

	if guardEnabled {
		nomalloc.Disable()
	}

	start := e.cfg.Warmup
	if start > len(st.E2E.Samples()) {
		start = len(st.E2E.Samples())
	}
	end := processed
	stageSamples := [...]*timing.SampleBuffer{st.Parse, st.Lob, st.Sig, st.Risk, st.E2E}
	stageHists := [...]*histogram.Histogram{hist.Parse, hist.Lob, hist.Sig, hist.Risk, hist.E2E}
	for s := range stageSamples {
		samples := stageSamples[s].Samples()
		endIdx := end
		if endIdx > len(samples) {
			endIdx = len(samples)
		}
		for i := start; i < endIdx; i++ {
			stageHists[s].AddNs(samples[i])
		}
	}

	return Result{
		Rows:       rows,
		Timers:     st,
		Histograms: hist,
		Processed:  processed,
		E2E:        timing.Summarize(st.E2E.Samples(), e.cfg.Warmup, processed),
	}, nil
}

// avsQuote fits an Ornstein-Uhlenbeck process to the mid-price series
// observed so far and derives an Avellaneda-Stoikov reservation
// price/half-spread quote from it. dt is estimated from the wall-clock
// span of the observed mids, floored at 1ms to avoid a degenerate fit on
// a burst of same-timestamp events.
func (e *Engine) avsQuote(mids []float64, tss []uint64) types.Quote {
	m := len(mids)
	dtS := 1e-3
	if m > 1 {
		dtS = (float64(tss[m-1]-tss[0]) / 1e9) / float64(m-1)
		if dtS < 1e-3 {
			dtS = 1e-3
		}
	}
	ou, err := stoch.FitOU(mids, dtS)
	if err != nil {
		return e.sig.Quote(e.book, 0.01, 2.0, e.pnl.Inv, e.cfg.InvCap)
	}
	avp := types.AvsParams{Gamma: e.cfg.AvsGamma, K: e.cfg.AvsK, HorizonS: e.cfg.AvsHorizon}
	px := stoch.Quote(mids[m-1], e.pnl.Inv, ou, avp)
	return types.Quote{BidPx: px.BidPx, AskPx: px.AskPx, BidQty: 1, AskQty: 1}
}

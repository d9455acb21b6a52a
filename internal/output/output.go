// Package output writes the backtest's three CSV artifacts: the per-event
// results log, the raw per-stage latency samples, and the per-stage
// latency histograms. Notional is rendered with shopspring/decimal so the
// six-decimal-digit formatting is exact rather than subject to binary
// float rounding.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"mm-backtest/internal/histogram"
	"mm-backtest/internal/timing"
	"mm-backtest/pkg/types"
)

// ResultRow is one admitted-quote line of the results CSV.
type ResultRow struct {
	TsNs           uint64
	Event          types.EvType
	OrderID        uint32
	Side           types.Side
	BidPx          int32
	BidQty         int32
	InvAfter       int32
	NotionalAfter  float64
}

// WriteResultsCSV writes rows in the original harness's column order:
// ts_ns,event,order_id,side,px,qty,inv_after,notional_after.
func WriteResultsCSV(path string, rows []ResultRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ts_ns", "event", "order_id", "side", "px", "qty", "inv_after", "notional_after"}); err != nil {
		return err
	}

	notional := decimal.NewFromFloat(0)
	record := make([]string, 8)
	for _, r := range rows {
		notional = decimal.NewFromFloat(r.NotionalAfter)
		side := 0
		if r.Side {
			side = 1
		}
		record[0] = strconv.FormatUint(r.TsNs, 10)
		record[1] = string(rune(r.Event))
		record[2] = strconv.FormatUint(uint64(r.OrderID), 10)
		record[3] = strconv.Itoa(side)
		record[4] = strconv.FormatInt(int64(r.BidPx), 10)
		record[5] = strconv.FormatInt(int64(r.BidQty), 10)
		record[6] = strconv.FormatInt(int64(r.InvAfter), 10)
		record[7] = notional.StringFixed(6)
		if err := w.Write(record); err != nil {
			return fmt.Errorf("output: writing row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteLatencyCSV writes one stage,ns row per post-warmup sample across all
// five stages, in the order parse, lob, sig, risk, e2e.
func WriteLatencyCSV(path string, st *timing.StageTimers, warmup, total int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"stage", "ns"}); err != nil {
		return err
	}

	stages := []struct {
		name string
		buf  *timing.SampleBuffer
	}{
		{"parse", st.Parse},
		{"lob", st.Lob},
		{"sig", st.Sig},
		{"risk", st.Risk},
		{"e2e", st.E2E},
	}
	for _, s := range stages {
		samples := s.buf.Samples()
		start := warmup
		if start > len(samples) {
			start = len(samples)
		}
		end := total
		if end > len(samples) {
			end = len(samples)
		}
		for i := start; i < end; i++ {
			if err := w.Write([]string{s.name, strconv.FormatUint(samples[i], 10)}); err != nil {
				return fmt.Errorf("output: writing latency row: %w", err)
			}
		}
	}
	w.Flush()
	return w.Error()
}

// WriteHistogramCSV writes one stage,bucket_us,count row per stage per
// bucket edge, in the order parse, lob, sig, risk, e2e.
func WriteHistogramCSV(path string, h *histogram.StageHistograms) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"stage", "bucket_us", "count"}); err != nil {
		return err
	}

	stages := []struct {
		name string
		h    *histogram.Histogram
	}{
		{"parse", h.Parse},
		{"lob", h.Lob},
		{"sig", h.Sig},
		{"risk", h.Risk},
		{"e2e", h.E2E},
	}
	for _, s := range stages {
		for i, edge := range s.h.EdgesUs {
			row := []string{
				s.name,
				strconv.FormatUint(uint64(edge), 10),
				strconv.FormatUint(s.h.Counts[i], 10),
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("output: writing histogram row: %w", err)
			}
		}
	}
	w.Flush()
	return w.Error()
}

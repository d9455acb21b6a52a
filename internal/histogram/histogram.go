// Package histogram implements fixed-edge microsecond latency bucketing for
// the per-stage CSV dumps.
package histogram

// DefaultEdgesUs are the fixed bucket upper bounds, in microseconds,
// inclusive, used for every stage histogram.
var DefaultEdgesUs = []uint32{1, 2, 5, 10, 20, 50, 80, 100, 200, 500, 1000}

// Histogram counts samples into a fixed set of inclusive microsecond
// bucket edges; anything above the last edge falls into the last bucket.
type Histogram struct {
	EdgesUs []uint32
	Counts  []uint64
}

// New creates a histogram over edgesUs, sharing the slice by reference
// (callers should treat it as read-only after construction).
func New(edgesUs []uint32) *Histogram {
	return &Histogram{
		EdgesUs: edgesUs,
		Counts:  make([]uint64, len(edgesUs)),
	}
}

// AddNs records one sample given in nanoseconds.
func (h *Histogram) AddNs(ns uint64) {
	us := uint32(ns / 1000)
	for i, edge := range h.EdgesUs {
		if us <= edge {
			h.Counts[i]++
			return
		}
	}
	if len(h.Counts) > 0 {
		h.Counts[len(h.Counts)-1]++
	}
}

// StageHistograms groups the five canonical pipeline stages' histograms.
type StageHistograms struct {
	Parse *Histogram
	Lob   *Histogram
	Sig   *Histogram
	Risk  *Histogram
	E2E   *Histogram
}

// NewStageHistograms creates one histogram per stage, all sharing edgesUs.
func NewStageHistograms(edgesUs []uint32) *StageHistograms {
	return &StageHistograms{
		Parse: New(edgesUs),
		Lob:   New(edgesUs),
		Sig:   New(edgesUs),
		Risk:  New(edgesUs),
		E2E:   New(edgesUs),
	}
}

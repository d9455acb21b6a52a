// Package lob implements a price-time-priority limit order book for one
// instrument, built entirely on pre-allocated arenas indexed by int rather
// than pointers, so that steady-state Add/Cancel/MatchTop calls make zero
// heap allocations.
//
// Each side (bid, ask) owns its own order pool, price-level table, and the
// two fixedmap.Map lookup tables (price -> level index, order id -> order
// index) that let every operation run without scanning the book, except for
// locating a free price-level slot and rescanning for a new best level once
// the best one empties, both bounded linear scans over the level table
// exactly as in the original harness.
package lob

import (
	"math"

	"mm-backtest/internal/fixedmap"
)

// DefaultMaxOrders and DefaultMaxLevels size the production book: two
// million resting orders and 8192 distinct price levels per side.
const (
	DefaultMaxOrders = 2_000_000
	DefaultMaxLevels = 8192
)

// Order is a resting or incoming limit order.
type Order struct {
	TsNs  uint64
	ID    uint32
	Px    int32
	Qty   int32
	IsBuy bool
}

// Exec is one fill produced by MatchTop. Only the id of the earlier-arriving
// (resting) order is reported, matching the original harness's simplified
// execution report.
type Exec struct {
	TsNs uint64
	ID   uint32
	Px   int32
	Qty  int32
}

type orderNode struct {
	id     uint32
	px     int32
	qty    int32
	tsNs   uint64
	next   int
	prev   int
	level  int
	isBuy  bool
	active bool
}

type priceLevel struct {
	px       int32
	head     int
	tail     int
	totalQty int32
	active   bool
}

type side struct {
	pool      []orderNode
	levels    []priceLevel
	px2lvl    *fixedmap.Map[int32]
	id2ord    *fixedmap.Map[uint32]
	bestLevel int
	isBuy     bool
	freeHead  int
}

func int32Hash(k int32) uint64   { return uint64(uint32(k)) }
func uint32Hash(k uint32) uint64 { return uint64(k) }

func newSide(maxOrders, maxLevels int, isBuy bool) *side {
	s := &side{
		pool:   make([]orderNode, maxOrders),
		levels: make([]priceLevel, maxLevels),
		px2lvl: fixedmap.New(maxLevels*2, int32(math.MinInt32), int32Hash),
		id2ord: fixedmap.New(maxOrders*2, uint32(0), uint32Hash),
		isBuy:  isBuy,
	}
	s.reset()
	return s
}

func (s *side) reset() {
	n := len(s.pool)
	for i := range s.pool {
		s.pool[i] = orderNode{level: -1, prev: -1}
		if i+1 < n {
			s.pool[i].next = i + 1
		} else {
			s.pool[i].next = -1
		}
	}
	s.freeHead = 0
	for i := range s.levels {
		s.levels[i] = priceLevel{}
	}
	s.px2lvl.Clear()
	s.id2ord.Clear()
	s.bestLevel = -1
}

func (s *side) allocNode() int {
	idx := s.freeHead
	if idx < 0 {
		panic("lob: order pool exhausted")
	}
	s.freeHead = s.pool[idx].next
	s.pool[idx].next = -1
	s.pool[idx].prev = -1
	s.pool[idx].active = true
	return idx
}

func (s *side) freeNode(idx int) {
	if idx < 0 {
		return
	}
	n := &s.pool[idx]
	n.active = false
	n.level = -1
	n.qty = 0
	n.prev = -1
	n.next = s.freeHead
	s.freeHead = idx
}

func (s *side) betterThan(px, than int32) bool {
	if s.isBuy {
		return px > than
	}
	return px < than
}

// ensureLevel returns the index of the price level for px, creating it in
// the first inactive level slot if none exists yet. The scan for a free
// slot is linear over len(levels), matching the original fixed-array book.
func (s *side) ensureLevel(px int32) int {
	if lvl := s.px2lvl.Get(px); lvl >= 0 {
		return lvl
	}
	for i := range s.levels {
		if s.levels[i].active {
			continue
		}
		s.levels[i] = priceLevel{active: true, px: px, head: -1, tail: -1}
		s.px2lvl.Put(px, i)
		if s.bestLevel < 0 || s.betterThan(px, s.levels[s.bestLevel].px) {
			s.bestLevel = i
		}
		return i
	}
	panic("lob: no free price level")
}

func (s *side) enqueue(o Order) {
	lvl := s.ensureLevel(o.Px)
	idx := s.allocNode()

	n := &s.pool[idx]
	n.id, n.px, n.qty, n.tsNs, n.isBuy, n.level = o.ID, o.Px, o.Qty, o.TsNs, o.IsBuy, lvl

	L := &s.levels[lvl]
	n.prev = L.tail
	n.next = -1
	if L.tail >= 0 {
		s.pool[L.tail].next = idx
	} else {
		L.head = idx
	}
	L.tail = idx
	L.totalQty += o.Qty

	s.id2ord.Put(o.ID, idx)

	if s.bestLevel < 0 || s.betterThan(o.Px, s.levels[s.bestLevel].px) {
		s.bestLevel = lvl
	}
}

func (s *side) removeIdx(idx int) {
	if idx < 0 {
		return
	}
	n := &s.pool[idx]
	if !n.active {
		return
	}

	lvlIdx := n.level
	L := &s.levels[lvlIdx]

	if n.prev >= 0 {
		s.pool[n.prev].next = n.next
	} else {
		L.head = n.next
	}
	if n.next >= 0 {
		s.pool[n.next].prev = n.prev
	} else {
		L.tail = n.prev
	}

	L.totalQty -= n.qty
	s.id2ord.Erase(n.id)
	s.freeNode(idx)

	if L.totalQty <= 0 {
		s.px2lvl.Erase(L.px)
		*L = priceLevel{}
		if s.bestLevel == lvlIdx {
			s.recomputeBest()
		}
	}
}

func (s *side) recomputeBest() {
	s.bestLevel = -1
	for i := range s.levels {
		if !s.levels[i].active {
			continue
		}
		if s.bestLevel < 0 || s.betterThan(s.levels[i].px, s.levels[s.bestLevel].px) {
			s.bestLevel = i
		}
	}
}

// Book is a two-sided limit order book: one arena-backed side for bids, one
// for asks.
type Book struct {
	bid *side
	ask *side
}

// NewBook allocates a book sized for maxOrders resting orders and maxLevels
// distinct price levels per side. Use DefaultMaxOrders/DefaultMaxLevels for
// production sizing; smaller values are useful in tests. Order id 0 is the
// id map's empty sentinel, so callers must not submit an order with ID 0.
func NewBook(maxOrders, maxLevels int) *Book {
	return &Book{
		bid: newSide(maxOrders, maxLevels, true),
		ask: newSide(maxOrders, maxLevels, false),
	}
}

// Reset clears both sides back to empty.
func (b *Book) Reset() {
	b.bid.reset()
	b.ask.reset()
}

// Add enqueues a resting order at the back of its price level's FIFO queue,
// price-time priority.
func (b *Book) Add(o Order) {
	if o.IsBuy {
		b.bid.enqueue(o)
	} else {
		b.ask.enqueue(o)
	}
}

// Cancel removes the order with the given id, if resting. Idempotent: a
// cancel for an id that is absent, or already canceled, is a silent no-op.
func (b *Book) Cancel(id uint32) {
	if idx := b.bid.id2ord.Get(id); idx >= 0 {
		b.bid.removeIdx(idx)
		return
	}
	if idx := b.ask.id2ord.Get(id); idx >= 0 {
		b.ask.removeIdx(idx)
	}
}

// BestBid returns the best (highest) resting bid price, or math.MinInt32 if
// the bid side is empty.
func (b *Book) BestBid() int32 {
	if b.bid.bestLevel < 0 {
		return math.MinInt32
	}
	return b.bid.levels[b.bid.bestLevel].px
}

// BestAsk returns the best (lowest) resting ask price, or math.MaxInt32 if
// the ask side is empty.
func (b *Book) BestAsk() int32 {
	if b.ask.bestLevel < 0 {
		return math.MaxInt32
	}
	return b.ask.levels[b.ask.bestLevel].px
}

// MatchTop consumes quantity at the crossed top of book, if any, reporting
// exactly one execution per call. Exec.ID is the id of whichever top order
// arrived first, ties resolving to the ask; Exec.Px is the limit price of
// whichever top order arrived second. Either or both top orders are fully
// removed once their quantity reaches zero.
func (b *Book) MatchTop() (Exec, bool) {
	bi, ai := b.bid.bestLevel, b.ask.bestLevel
	if bi < 0 || ai < 0 {
		return Exec{}, false
	}
	B, A := &b.bid.levels[bi], &b.ask.levels[ai]
	if !B.active || !A.active || B.px < A.px {
		return Exec{}, false
	}

	bidx, aidx := B.head, A.head
	if bidx < 0 || aidx < 0 {
		return Exec{}, false
	}

	bo, ao := &b.bid.pool[bidx], &b.ask.pool[aidx]

	qty := bo.qty
	if ao.qty < qty {
		qty = ao.qty
	}
	px := bo.px
	if bo.tsNs <= ao.tsNs {
		px = ao.px
	}

	var e Exec
	if bo.tsNs < ao.tsNs {
		e = Exec{TsNs: ao.tsNs, ID: bo.id, Qty: qty, Px: px}
	} else {
		e = Exec{TsNs: bo.tsNs, ID: ao.id, Qty: qty, Px: px}
	}

	bo.qty -= qty
	ao.qty -= qty
	B.totalQty -= qty
	A.totalQty -= qty

	if bo.qty == 0 {
		b.bid.removeIdx(bidx)
	}
	if ao.qty == 0 {
		b.ask.removeIdx(aidx)
	}
	return e, true
}


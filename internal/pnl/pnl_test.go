package pnl

import "testing"

func TestOnExecBuyIncreasesInventoryAndSpendsCash(t *testing.T) {
	t.Parallel()
	var s State
	s.OnExec(100, 2, true)

	if s.Inv != 2 {
		t.Errorf("Inv = %d, want 2", s.Inv)
	}
	if s.PnL != -200 {
		t.Errorf("PnL = %v, want -200", s.PnL)
	}
}

func TestOnExecSellDecreasesInventoryAndReceivesCash(t *testing.T) {
	t.Parallel()
	var s State
	s.OnExec(100, 3, false)

	if s.Inv != -3 {
		t.Errorf("Inv = %d, want -3", s.Inv)
	}
	if s.PnL != 300 {
		t.Errorf("PnL = %v, want 300", s.PnL)
	}
}

func TestOnExecAccumulatesAcrossCalls(t *testing.T) {
	t.Parallel()
	var s State
	s.OnExec(100, 1, true)
	s.OnExec(105, 1, false)

	if s.Inv != 0 {
		t.Errorf("Inv = %d, want 0", s.Inv)
	}
	if s.PnL != 5 {
		t.Errorf("PnL = %v, want 5 (bought at 100, sold at 105)", s.PnL)
	}
}

// TestDeterminismFeedScenario mirrors the spec's literal walk-through: a
// single Exec event at px=100 qty=1 inverted to the sell side (the event's
// own side was buy, so the passive counterparty sold) should leave
// inv = -1 from the passive seller's perspective once inverted correctly
// by the caller — this test exercises OnExec directly with the already
// inverted side, as internal/engine is responsible for the inversion.
func TestDeterminismFeedScenario(t *testing.T) {
	t.Parallel()
	var s State
	// event side was buy (ev.side=1); inverted is_buy = !true = false.
	s.OnExec(100, 1, false)

	if s.Inv != -1 {
		t.Errorf("Inv = %d, want -1", s.Inv)
	}
	if s.PnL != 100 {
		t.Errorf("PnL = %v, want 100", s.PnL)
	}
}

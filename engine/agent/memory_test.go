package agent

import (
	"testing"

	engine "github.com/feng-mou-mou/Railof1914/engine"
)

// TestMemory_RoundReset verifies attempts are forgotten on a new round only.
func TestMemory_RoundReset(t *testing.T) {
	m := NewMemory()
	m.Observe(5)
	m.TryVillage("FR-1", engine.NewHex(1, 1))
	m.TryMerge("FR-1", "a", "b")
	m.TryRailway("FR-1", engine.NewHex(0, 0), engine.NewHex(0, 1))
	if m.Len() != 3 {
		t.Fatalf("expected 3 attempts, got %d", m.Len())
	}

	m.Observe(5)
	if m.Len() != 3 {
		t.Errorf("same round should keep attempts, got %d", m.Len())
	}

	m.Observe(6)
	if m.Len() != 0 || m.Round() != 6 {
		t.Errorf("new round should clear attempts: len=%d round=%d", m.Len(), m.Round())
	}
}

// TestMemory_OrderInsensitive checks merges and railways match either way round.
func TestMemory_OrderInsensitive(t *testing.T) {
	m := NewMemory()
	m.TryMerge("GE-3", "德01号城", "德02号城")
	if !m.MergeTried("GE-3", "德02号城", "德01号城") {
		t.Errorf("merge memory should ignore order")
	}
	if m.MergeTried("GE-2", "德01号城", "德02号城") {
		t.Errorf("merge memory should be scoped by region")
	}

	a, b := engine.NewHex(2, 2), engine.NewHex(3, 2)
	m.TryRailway("GE-3", a, b)
	if !m.RailwayTried("GE-3", b, a) {
		t.Errorf("railway memory should ignore order")
	}
}

// TestMemory_VillageIgnoresS checks village keys use Q and R only.
func TestMemory_VillageIgnoresS(t *testing.T) {
	m := NewMemory()
	m.TryVillage("FR-3", engine.Hex{Q: 1, R: 2, S: 0})
	if !m.VillageTried("FR-3", engine.NewHex(1, 2)) {
		t.Errorf("village memory should match on Q,R")
	}
}

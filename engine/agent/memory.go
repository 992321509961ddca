package agent

import (
	"fmt"

	engine "github.com/feng-mou-mou/Railof1914/engine"
)

// Memory records actions the AI already tried this round so a failing action
// is not retried. Everything is forgotten when a new round is observed.
type Memory struct {
	round    int
	villages map[string]struct{}
	merges   map[string]struct{}
	railways map[string]struct{}
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	m := &Memory{}
	m.reset(0)
	return m
}

func (m *Memory) reset(round int) {
	m.round = round
	m.villages = make(map[string]struct{})
	m.merges = make(map[string]struct{})
	m.railways = make(map[string]struct{})
}

// Observe clears the memory if round differs from the last one seen.
func (m *Memory) Observe(round int) {
	if round != m.round {
		m.reset(round)
	}
}

// Round returns the round the memory belongs to.
func (m *Memory) Round() int { return m.round }

func villageKey(regionID string, h engine.Hex) string {
	return fmt.Sprintf("%s-%s", regionID, h.Key())
}

// mergeKey is order-insensitive in the two town names.
func mergeKey(regionID, a, b string) string {
	if a > b {
		a, b = b, a
	}
	return regionID + "-" + a + "|" + b
}

// railwayKey is order-insensitive in the two endpoints.
func railwayKey(regionID string, a, b engine.Hex) string {
	ka, kb := a.Key(), b.Key()
	if ka > kb {
		ka, kb = kb, ka
	}
	return regionID + "-" + ka + "-" + kb
}

func (m *Memory) TryVillage(regionID string, h engine.Hex) {
	m.villages[villageKey(regionID, h)] = struct{}{}
}

func (m *Memory) VillageTried(regionID string, h engine.Hex) bool {
	_, ok := m.villages[villageKey(regionID, h)]
	return ok
}

func (m *Memory) TryMerge(regionID, a, b string) {
	m.merges[mergeKey(regionID, a, b)] = struct{}{}
}

func (m *Memory) MergeTried(regionID, a, b string) bool {
	_, ok := m.merges[mergeKey(regionID, a, b)]
	return ok
}

func (m *Memory) TryRailway(regionID string, a, b engine.Hex) {
	m.railways[railwayKey(regionID, a, b)] = struct{}{}
}

func (m *Memory) RailwayTried(regionID string, a, b engine.Hex) bool {
	_, ok := m.railways[railwayKey(regionID, a, b)]
	return ok
}

// Len returns the number of remembered attempts across all categories.
func (m *Memory) Len() int { return len(m.villages) + len(m.merges) + len(m.railways) }

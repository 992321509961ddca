package agent

import (
	"sort"

	engine "github.com/feng-mou-mou/Railof1914/engine"
)

// Merge is a candidate pair of railway-connected towns of the same level.
type Merge struct {
	RegionID string
	A, B     engine.Town
	Level    engine.TownLevel
	Cost     int
}

// Segment is a candidate railway segment.
type Segment struct {
	RegionID string
	From, To engine.Hex
}

// Mobilization is a town with manpower left to mobilize.
type Mobilization struct {
	RegionID string
	Town     engine.Town
	Amount   int
}

// View is one faction's read-only perspective of a match, filtered through
// the per-round memory of attempts. All candidate lists are deterministic.
type View struct {
	State   *engine.MatchState
	Faction engine.Faction
	Memory  *Memory
}

// NewView builds a view and lets the memory observe the current round.
func NewView(s *engine.MatchState, f engine.Faction, m *Memory) *View {
	if m == nil {
		m = NewMemory()
	}
	m.Observe(s.Round)
	return &View{State: s, Faction: f, Memory: m}
}

// ConflictRegionID returns the faction's frontline region id.
func (v *View) ConflictRegionID() string { return engine.ConflictRegion(v.Faction) }

// OwnedRegions lists regions controlled by the faction, frontline first, then by id.
func (v *View) OwnedRegions() []*engine.Region {
	var out []*engine.Region
	for i := range v.State.Regions {
		if v.State.Regions[i].Owner() == v.Faction {
			out = append(out, &v.State.Regions[i])
		}
	}
	conflict := v.ConflictRegionID()
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].ID == conflict, out[j].ID == conflict
		if ci != cj {
			return ci
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// OwnedTowns returns the faction's towns in a region that have known coordinates.
func (v *View) OwnedTowns(reg *engine.Region) []engine.Town {
	var out []engine.Town
	for _, t := range reg.Towns {
		if t.Owner == v.Faction && t.Coords != nil {
			out = append(out, t)
		}
	}
	return out
}

// TownCount counts the faction's towns in every region.
func (v *View) TownCount() int { return v.State.TownsOwnedBy(v.Faction) }

// mergeable reports whether a town can take part in a merge at all.
func mergeable(t engine.Town) bool {
	_, ok := engine.MergeCost(t.Level)
	return ok && !t.UnderConstruction && t.Mobilized == 0 && t.Coords != nil
}

// MergeCandidates lists pairs of same-level towns joined directly by a
// finished railway, cheapest first.
func (v *View) MergeCandidates() []Merge {
	var out []Merge
	for _, reg := range v.OwnedRegions() {
		towns := v.OwnedTowns(reg)
		for i := 0; i < len(towns); i++ {
			for j := i + 1; j < len(towns); j++ {
				a, b := towns[i], towns[j]
				if a.Level != b.Level || !mergeable(a) || !mergeable(b) {
					continue
				}
				if !railwayBetween(reg, *a.Coords, *b.Coords) {
					continue
				}
				if v.Memory.MergeTried(reg.ID, a.Name, b.Name) {
					continue
				}
				cost, _ := engine.MergeCost(a.Level)
				out = append(out, Merge{RegionID: reg.ID, A: a, B: b, Level: a.Level, Cost: cost})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cost < out[j].Cost })
	return out
}

func railwayBetween(reg *engine.Region, a, b engine.Hex) bool {
	for _, rw := range reg.Railways {
		if !rw.UnderConstruction && rw.Connects(a, b) {
			return true
		}
	}
	return false
}

// isEdge reports whether h has a neighbor outside the region's tiles.
func isEdge(reg *engine.Region, h engine.Hex) bool {
	for _, n := range h.Neighbors() {
		if !reg.HasTile(n) {
			return true
		}
	}
	return false
}

// VillageSites lists free tiles in the region that were not tried this round.
// Interior tiles come first; edge tiles are used only when no interior tile
// is left.
func (v *View) VillageSites(reg *engine.Region) []engine.Hex {
	var interior, edge []engine.Hex
	for _, h := range reg.HexTiles {
		if _, taken := reg.TownAt(h); taken {
			continue
		}
		if v.Memory.VillageTried(reg.ID, h) {
			continue
		}
		if isEdge(reg, h) {
			edge = append(edge, h)
		} else {
			interior = append(interior, h)
		}
	}
	if len(interior) > 0 {
		return interior
	}
	return edge
}

// tileExists reports whether h belongs to any region on the map.
func (v *View) tileExists(h engine.Hex) bool {
	for i := range v.State.Regions {
		if v.State.Regions[i].HasTile(h) {
			return true
		}
	}
	return false
}

// RailwayCandidates lists new segments starting at the faction's towns in the
// region. Segments linking two owned towns come before segments to empty tiles.
func (v *View) RailwayCandidates(reg *engine.Region) []Segment {
	towns := v.OwnedTowns(reg)
	var townLinks, tileLinks []Segment
	seen := make(map[string]bool)
	for _, t := range towns {
		from := *t.Coords
		for _, n := range from.Neighbors() {
			if reg.HasRailway(from, n) || !v.tileExists(n) {
				continue
			}
			if v.Memory.RailwayTried(reg.ID, from, n) {
				continue
			}
			key := railwayKey(reg.ID, from, n)
			if seen[key] {
				continue
			}
			seen[key] = true
			seg := Segment{RegionID: reg.ID, From: from, To: n}
			if other, ok := reg.TownAt(n); ok && other.Owner == v.Faction {
				townLinks = append(townLinks, seg)
			} else {
				tileLinks = append(tileLinks, seg)
			}
		}
	}
	return append(townLinks, tileLinks...)
}

// ConflictConnections lists segments in the frontline region, used by the
// later stages to extend the network toward the front.
func (v *View) ConflictConnections() []Segment {
	reg, ok := v.State.Region(v.ConflictRegionID())
	if !ok || reg.Owner() != v.Faction {
		return nil
	}
	return v.RailwayCandidates(reg)
}

// MobilizationTargets lists towns with available manpower, frontline towns
// first and then by descending availability.
func (v *View) MobilizationTargets() []Mobilization {
	conflict := v.ConflictRegionID()
	var out []Mobilization
	for _, reg := range v.OwnedRegions() {
		for _, t := range reg.Towns {
			if t.Owner != v.Faction || t.UnderConstruction {
				continue
			}
			if avail := engine.AvailableMobilization(t); avail > 0 {
				out = append(out, Mobilization{RegionID: reg.ID, Town: t, Amount: avail})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].RegionID == conflict, out[j].RegionID == conflict
		if ci != cj {
			return ci
		}
		return out[i].Amount > out[j].Amount
	})
	return out
}

// NextVillageName returns the first "<prefix><NN>号城" name not already used
// anywhere on the map, starting after the region's current town count.
func (v *View) NextVillageName(reg *engine.Region) string {
	used := make(map[string]bool)
	for _, r := range v.State.Regions {
		for _, t := range r.Towns {
			used[t.Name] = true
		}
	}
	prefix := engine.RegionPrefix(reg.Name, reg.Owner())
	for n := len(reg.Towns) + 1; ; n++ {
		if name := engine.VillageName(prefix, n); !used[name] {
			return name
		}
	}
}

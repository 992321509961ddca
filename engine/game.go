package engine

import "encoding/json"

// InitialGDP is each faction's GDP at game start.
const InitialGDP = 200

// PlayerResources holds a faction's economy.
type PlayerResources struct {
	GDP        int `json:"gdp"`
	Population int `json:"population"`
}

// Town is a settlement on one hex.
type Town struct {
	Name              string    `json:"name"`
	Level             TownLevel `json:"level"`
	Owner             Faction   `json:"owner"`
	Population        int       `json:"population"`
	Mobilized         int       `json:"mobilized"`
	GDP               int       `json:"gdp"`
	Coords            *Hex      `json:"coords"` // Nil when the backend could not locate the town.
	UnderConstruction bool      `json:"is_under_construction"`
}

// Railway is one segment between two adjacent hexes.
type Railway struct {
	Start             Hex       `json:"start"`
	End               Hex       `json:"end"`
	Level             RailLevel `json:"level"`
	Capacity          int       `json:"capacity,omitempty"`
	Troops            int       `json:"troops,omitempty"`
	UnderConstruction bool      `json:"is_under_construction"`
}

// Connects reports whether the segment joins a and b in either direction.
func (r Railway) Connects(a, b Hex) bool {
	return (SameTile(r.Start, a) && SameTile(r.End, b)) || (SameTile(r.Start, b) && SameTile(r.End, a))
}

// Region is a named group of hex tiles.
type Region struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	HexTiles []Hex     `json:"hex_tiles"`
	Towns    []Town    `json:"towns"`
	Railways []Railway `json:"railways"`
	Conflict bool      `json:"conflict,omitempty"`
}

// Owner is derived from the region id prefix only.
func (r *Region) Owner() Faction { return RegionOwner(r.ID) }

// TownAt returns the town located on h, if any.
func (r *Region) TownAt(h Hex) (*Town, bool) {
	for i := range r.Towns {
		if c := r.Towns[i].Coords; c != nil && SameTile(*c, h) {
			return &r.Towns[i], true
		}
	}
	return nil, false
}

// TownByName returns the named town, if any.
func (r *Region) TownByName(name string) (*Town, bool) {
	for i := range r.Towns {
		if r.Towns[i].Name == name {
			return &r.Towns[i], true
		}
	}
	return nil, false
}

// HasTile reports whether h belongs to the region.
func (r *Region) HasTile(h Hex) bool {
	for _, t := range r.HexTiles {
		if SameTile(t, h) {
			return true
		}
	}
	return false
}

// HasRailway reports whether a segment between a and b already exists.
func (r *Region) HasRailway(a, b Hex) bool {
	for _, rw := range r.Railways {
		if rw.Connects(a, b) {
			return true
		}
	}
	return false
}

// Army is a body of mobilized troops moving toward a region.
type Army struct {
	Owner          Faction `json:"owner"`
	Amount         int     `json:"amount"`
	Status         string  `json:"status"`
	SourceTown     string  `json:"source_town_name"`
	Position       *Hex    `json:"current_position"`
	TargetRegionID string  `json:"target_region_id"`
}

// MatchState is the authoritative state as last reported by the backend.
// It is replaced wholesale on every successful response.
type MatchState struct {
	Round           int                         `json:"round"`
	Phase           Phase                       `json:"phase"`
	CurrentPlayer   Faction                     `json:"current_player"`
	WarDeclared     bool                        `json:"war_declared"`
	WarCountdown    int                         `json:"war_countdown"`
	Regions         []Region                    `json:"regions"`
	Players         map[Faction]PlayerResources `json:"players"`
	ConflictRegions map[Faction]string          `json:"conflict_regions,omitempty"`
	Armies          []Army                      `json:"armies"`
	ArrivedForces   map[Faction]int             `json:"arrived_forces,omitempty"`
	GameEnded       bool                        `json:"game_ended"`
	Winner          *Faction                    `json:"winner,omitempty"`
}

// UnmarshalJSON decodes the backend shape and normalizes every hex so that
// S == -(Q+R) holds throughout the state.
func (s *MatchState) UnmarshalJSON(data []byte) error {
	type wire MatchState
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = MatchState(w)
	s.Normalize()
	return nil
}

// Normalize corrects all hex coordinates in place.
func (s *MatchState) Normalize() {
	for i := range s.Regions {
		reg := &s.Regions[i]
		for j := range reg.HexTiles {
			reg.HexTiles[j] = reg.HexTiles[j].Normalize()
		}
		for j := range reg.Towns {
			if c := reg.Towns[j].Coords; c != nil {
				n := c.Normalize()
				reg.Towns[j].Coords = &n
			}
		}
		for j := range reg.Railways {
			reg.Railways[j].Start = reg.Railways[j].Start.Normalize()
			reg.Railways[j].End = reg.Railways[j].End.Normalize()
		}
	}
	for i := range s.Armies {
		if p := s.Armies[i].Position; p != nil {
			n := p.Normalize()
			s.Armies[i].Position = &n
		}
	}
}

// Region returns the region with the given id.
func (s *MatchState) Region(id string) (*Region, bool) {
	for i := range s.Regions {
		if s.Regions[i].ID == id {
			return &s.Regions[i], true
		}
	}
	return nil, false
}

// GDP returns the faction's current GDP, zero if unknown.
func (s *MatchState) GDP(f Faction) int { return s.Players[f].GDP }

// TownsOwnedBy counts towns owned by f across all regions.
func (s *MatchState) TownsOwnedBy(f Faction) int {
	n := 0
	for _, reg := range s.Regions {
		for _, t := range reg.Towns {
			if t.Owner == f {
				n++
			}
		}
	}
	return n
}

// HasConflict reports whether fighting is under way in the region: either the
// backend flagged it or an army is bound for it.
func (s *MatchState) HasConflict(regionID string) bool {
	if reg, ok := s.Region(regionID); ok && reg.Conflict {
		return true
	}
	for _, a := range s.Armies {
		if a.TargetRegionID == regionID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s *MatchState) Clone() *MatchState {
	if s == nil {
		return nil
	}
	c := *s
	c.Regions = make([]Region, len(s.Regions))
	for i, reg := range s.Regions {
		nr := reg
		nr.HexTiles = append([]Hex(nil), reg.HexTiles...)
		nr.Railways = append([]Railway(nil), reg.Railways...)
		nr.Towns = make([]Town, len(reg.Towns))
		for j, t := range reg.Towns {
			if t.Coords != nil {
				h := *t.Coords
				t.Coords = &h
			}
			nr.Towns[j] = t
		}
		c.Regions[i] = nr
	}
	c.Players = make(map[Faction]PlayerResources, len(s.Players))
	for k, v := range s.Players {
		c.Players[k] = v
	}
	if s.ConflictRegions != nil {
		c.ConflictRegions = make(map[Faction]string, len(s.ConflictRegions))
		for k, v := range s.ConflictRegions {
			c.ConflictRegions[k] = v
		}
	}
	if s.ArrivedForces != nil {
		c.ArrivedForces = make(map[Faction]int, len(s.ArrivedForces))
		for k, v := range s.ArrivedForces {
			c.ArrivedForces[k] = v
		}
	}
	c.Armies = make([]Army, len(s.Armies))
	for i, a := range s.Armies {
		if a.Position != nil {
			h := *a.Position
			a.Position = &h
		}
		c.Armies[i] = a
	}
	if s.Winner != nil {
		w := *s.Winner
		c.Winner = &w
	}
	return &c
}

// PlaceholderState is used when the backend is unreachable at startup.
func PlaceholderState(current Faction) *MatchState {
	return &MatchState{
		Round:         1,
		Phase:         PhaseProtection,
		CurrentPlayer: current,
		Regions:       []Region{},
		Players: map[Faction]PlayerResources{
			FactionCentral: {GDP: InitialGDP},
			FactionEntente: {GDP: InitialGDP},
		},
		Armies: []Army{},
	}
}

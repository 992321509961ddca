package engine

import (
	"encoding/json"
	"testing"
)

// sampleStateJSON mirrors a backend /api/game-state response, including a
// mismatched S on one tile and alias faction spellings.
const sampleStateJSON = `{
  "round": 12,
  "phase": "保护期",
  "current_player": "协约国",
  "war_declared": false,
  "war_countdown": 0,
  "regions": [
    {
      "id": "FR-3", "name": "法国前线",
      "hex_tiles": [{"q":0,"r":0,"s":0},{"q":1,"r":0,"s":4},{"q":0,"r":1,"s":-1}],
      "towns": [
        {"name":"法01号城","level":"village","owner":"协约国","population":40,"mobilized":0,"gdp":10,
         "coords":{"q":0,"r":0,"s":0},"is_under_construction":false},
        {"name":"法02号城","level":"village","owner":"FR","population":40,"mobilized":0,"gdp":10,
         "coords":{"q":1,"r":0,"s":9},"is_under_construction":false}
      ],
      "railways": [
        {"level":"level_1","capacity":100,"troops":0,"start":{"q":0,"r":0,"s":0},"end":{"q":1,"r":0,"s":-1},"is_under_construction":false}
      ]
    }
  ],
  "players": {"德军": {"gdp": 180, "population": 0}, "协约国": {"gdp": 320, "population": 80}},
  "conflict_regions": {"德军": "GE-3", "协约国": "FR-3"},
  "armies": [],
  "game_ended": false,
  "winner": null
}`

// buildSampleState decodes sampleStateJSON.
func buildSampleState(t *testing.T) *MatchState {
	t.Helper()
	var s MatchState
	if err := json.Unmarshal([]byte(sampleStateJSON), &s); err != nil {
		t.Fatalf("decode sample state: %v", err)
	}
	return &s
}

// TestMatchStateDecode checks normalization on decode.
func TestMatchStateDecode(t *testing.T) {
	s := buildSampleState(t)
	if s.Round != 12 || s.Phase != PhaseProtection || s.CurrentPlayer != FactionEntente {
		t.Fatalf("header mismatch: %+v", s)
	}
	if s.GDP(FactionEntente) != 320 || s.GDP(FactionCentral) != 180 {
		t.Errorf("players not keyed by faction: %v", s.Players)
	}
	reg, ok := s.Region("FR-3")
	if !ok {
		t.Fatalf("region FR-3 missing")
	}
	for _, h := range reg.HexTiles {
		if !h.Valid() {
			t.Errorf("tile %v not normalized", h)
		}
	}
	town, ok := reg.TownByName("法02号城")
	if !ok || town.Owner != FactionEntente || !town.Coords.Valid() {
		t.Errorf("town not normalized: %+v", town)
	}
	if town.Level != LevelVillage {
		t.Errorf("town level = %v", town.Level)
	}
	if reg.Railways[0].Level != RailTier1 {
		t.Errorf("railway level = %v", reg.Railways[0].Level)
	}
	if s.Winner != nil {
		t.Errorf("winner should be nil")
	}
	if s.ConflictRegions[FactionCentral] != "GE-3" {
		t.Errorf("conflict regions = %v", s.ConflictRegions)
	}
}

// TestRegionLookups covers tile, town and railway queries.
func TestRegionLookups(t *testing.T) {
	s := buildSampleState(t)
	reg, _ := s.Region("FR-3")
	if !reg.HasTile(NewHex(0, 1)) || reg.HasTile(NewHex(5, 5)) {
		t.Errorf("HasTile mismatch")
	}
	if _, ok := reg.TownAt(NewHex(1, 0)); !ok {
		t.Errorf("TownAt(1,0) should find 法02号城")
	}
	if !reg.HasRailway(NewHex(1, 0), NewHex(0, 0)) {
		t.Errorf("railway should match in either direction")
	}
	if reg.Owner() != FactionEntente {
		t.Errorf("FR-3 owner = %v", reg.Owner())
	}
	if s.TownsOwnedBy(FactionEntente) != 2 || s.TownsOwnedBy(FactionCentral) != 0 {
		t.Errorf("TownsOwnedBy mismatch")
	}
}

// TestHasConflict checks armies bound for a region count as conflict.
func TestHasConflict(t *testing.T) {
	s := buildSampleState(t)
	if s.HasConflict("FR-3") {
		t.Fatalf("no conflict expected")
	}
	s.Armies = append(s.Armies, Army{Owner: FactionEntente, Amount: 10, TargetRegionID: "FR-3"})
	if !s.HasConflict("FR-3") {
		t.Errorf("army target should mark conflict")
	}
	reg, _ := s.Region("FR-3")
	s.Armies = nil
	reg.Conflict = true
	if !s.HasConflict("FR-3") {
		t.Errorf("region flag should mark conflict")
	}
}

// TestCloneIsDeep verifies mutations on a clone do not leak.
func TestCloneIsDeep(t *testing.T) {
	s := buildSampleState(t)
	c := s.Clone()
	c.Regions[0].Towns[0].Population = 999
	c.Regions[0].Towns[0].Coords.Q = 42
	c.Players[FactionCentral] = PlayerResources{GDP: 1}
	c.Regions[0].HexTiles[0] = NewHex(9, 9)

	orig := s.Regions[0]
	if orig.Towns[0].Population != 40 || orig.Towns[0].Coords.Q != 0 {
		t.Errorf("town mutated through clone")
	}
	if s.GDP(FactionCentral) != 180 {
		t.Errorf("players mutated through clone")
	}
	if orig.HexTiles[0] != NewHex(0, 0) {
		t.Errorf("tiles mutated through clone")
	}
	var nilState *MatchState
	if nilState.Clone() != nil {
		t.Errorf("nil clone should be nil")
	}
}

// TestPlaceholderState checks the offline fallback.
func TestPlaceholderState(t *testing.T) {
	s := PlaceholderState(FactionCentral)
	if s.Round != 1 || s.Phase != PhaseProtection || s.CurrentPlayer != FactionCentral {
		t.Errorf("placeholder header mismatch: %+v", s)
	}
	if s.GDP(FactionCentral) != 200 || s.GDP(FactionEntente) != 200 {
		t.Errorf("placeholder GDP mismatch")
	}
	if len(s.Regions) != 0 {
		t.Errorf("placeholder should have no regions")
	}
}

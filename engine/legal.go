package engine

import (
	"errors"
	"fmt"
)

// Errors returned by the client-side legality checks. They never require a
// round trip to the backend.
var (
	ErrUnknownRegion       = errors.New("unknown region")
	ErrRegionNotOwned      = errors.New("region is not controlled by this faction")
	ErrInsufficientGDP     = errors.New("insufficient GDP")
	ErrNotAdjacent         = errors.New("railway endpoints are not adjacent")
	ErrDuplicateRailway    = errors.New("railway already exists")
	ErrTileOccupied        = errors.New("hex already has a town")
	ErrTileOutsideRegion   = errors.New("hex is not part of the region")
	ErrEmptyName           = errors.New("town name is empty")
	ErrMergeLevelMismatch  = errors.New("towns must be the same level to merge")
	ErrMergeMaxLevel       = errors.New("large cities cannot be merged")
	ErrMergeSameTown       = errors.New("cannot merge a town with itself")
	ErrTownNotOwned        = errors.New("town is not owned by this faction")
	ErrTownUnavailable     = errors.New("town is under construction or has mobilized troops")
	ErrUnknownTown         = errors.New("unknown town")
	ErrWarTooEarly         = errors.New("war cannot be declared during the protection period")
	ErrWarAlreadyDeclared  = errors.New("war has already been declared")
	ErrConflictInProgress  = errors.New("conflict already in progress")
	ErrInvalidAmount       = errors.New("mobilization amount must be positive")
	ErrExceedsAvailability = errors.New("mobilization amount exceeds available manpower")
)

// CheckAffordable verifies the faction's GDP covers cost.
func (s *MatchState) CheckAffordable(f Faction, cost int) error {
	if gdp := s.GDP(f); gdp < cost {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientGDP, cost, gdp)
	}
	return nil
}

// ownedRegion resolves a region and checks it belongs to f. Ownership comes
// from the id prefix, so it is checked even if the region is not loaded.
func (s *MatchState) ownedRegion(f Faction, regionID string) (*Region, error) {
	if regionID == "" {
		return nil, ErrUnknownRegion
	}
	if RegionOwner(regionID) != f {
		return nil, fmt.Errorf("%w: %s", ErrRegionNotOwned, regionID)
	}
	reg, ok := s.Region(regionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegion, regionID)
	}
	return reg, nil
}

// CheckBuildTown validates a new village at h.
func (s *MatchState) CheckBuildTown(f Faction, regionID string, h Hex, name string) error {
	if name == "" {
		return ErrEmptyName
	}
	reg, err := s.ownedRegion(f, regionID)
	if err != nil {
		return err
	}
	if len(reg.HexTiles) > 0 && !reg.HasTile(h) {
		return fmt.Errorf("%w: %s in %s", ErrTileOutsideRegion, h, regionID)
	}
	if _, taken := reg.TownAt(h); taken {
		return fmt.Errorf("%w: %s", ErrTileOccupied, h)
	}
	return s.CheckAffordable(f, CostTown)
}

// CheckBuildRailway validates a railway segment from a to b.
func (s *MatchState) CheckBuildRailway(f Faction, regionID string, a, b Hex) error {
	if !AreAdjacent(a, b) {
		return fmt.Errorf("%w: %s and %s", ErrNotAdjacent, a, b)
	}
	reg, err := s.ownedRegion(f, regionID)
	if err != nil {
		return err
	}
	if reg.HasRailway(a, b) {
		return ErrDuplicateRailway
	}
	return s.CheckAffordable(f, CostRailway)
}

// CheckMerge validates merging two named towns in a region and returns the
// level they share.
func (s *MatchState) CheckMerge(f Faction, regionID, name1, name2 string) (TownLevel, error) {
	if name1 == name2 {
		return LevelUnknown, ErrMergeSameTown
	}
	reg, err := s.ownedRegion(f, regionID)
	if err != nil {
		return LevelUnknown, err
	}
	t1, ok := reg.TownByName(name1)
	if !ok {
		return LevelUnknown, fmt.Errorf("%w: %s", ErrUnknownTown, name1)
	}
	t2, ok := reg.TownByName(name2)
	if !ok {
		return LevelUnknown, fmt.Errorf("%w: %s", ErrUnknownTown, name2)
	}
	if t1.Owner != f || t2.Owner != f {
		return LevelUnknown, ErrTownNotOwned
	}
	if t1.Level != t2.Level {
		return LevelUnknown, fmt.Errorf("%w: %s vs %s", ErrMergeLevelMismatch, t1.Level, t2.Level)
	}
	cost, ok := MergeCost(t1.Level)
	if !ok {
		return LevelUnknown, ErrMergeMaxLevel
	}
	if t1.UnderConstruction || t2.UnderConstruction || t1.Mobilized > 0 || t2.Mobilized > 0 {
		return LevelUnknown, ErrTownUnavailable
	}
	return t1.Level, s.CheckAffordable(f, cost)
}

// CheckDeclareWar validates a war declaration by f.
func (s *MatchState) CheckDeclareWar(f Faction) error {
	if !CanDeclareWar(s.Round) {
		return fmt.Errorf("%w: round %d", ErrWarTooEarly, s.Round)
	}
	if s.WarDeclared {
		return ErrWarAlreadyDeclared
	}
	if s.HasConflict(ConflictRegion(f)) {
		return ErrConflictInProgress
	}
	return nil
}

// CheckMobilize validates mobilizing amount troops from a town.
func (s *MatchState) CheckMobilize(f Faction, regionID, townName string, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	reg, err := s.ownedRegion(f, regionID)
	if err != nil {
		return err
	}
	t, ok := reg.TownByName(townName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTown, townName)
	}
	if t.Owner != f {
		return ErrTownNotOwned
	}
	if avail := AvailableMobilization(*t); amount > avail {
		return fmt.Errorf("%w: requested %d, available %d", ErrExceedsAvailability, amount, avail)
	}
	return nil
}

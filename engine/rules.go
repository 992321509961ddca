package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// Action costs in GDP.
const (
	CostTown         = 50  // New village.
	CostRailway      = 20  // One railway segment between adjacent hexes.
	CostMergeVillage = 150 // Two villages into a small city.
	CostMergeSmall   = 400 // Two small cities into a large city.
)

// Round boundaries of the server-side phases.
const (
	ProtectionLastRound = 30 // War cannot be declared on or before this round.
	TensionLastRound    = 40
)

// MergeCost returns the cost of merging two towns of the given level.
// Large cities cannot merge.
func MergeCost(l TownLevel) (int, bool) {
	switch l {
	case LevelVillage:
		return CostMergeVillage, true
	case LevelSmallCity:
		return CostMergeSmall, true
	}
	return 0, false
}

// MobilizationRate is the fraction of a town's population that can be mobilized.
func MobilizationRate(l TownLevel) float64 {
	switch l {
	case LevelVillage:
		return 0.5
	case LevelSmallCity:
		return 0.4
	case LevelLargeCity:
		return 0.3
	}
	return 0
}

// AvailableMobilization returns floor(population*rate) minus troops already
// mobilized, never negative.
func AvailableMobilization(t Town) int {
	limit := int(float64(t.Population) * MobilizationRate(t.Level))
	if avail := limit - t.Mobilized; avail > 0 {
		return avail
	}
	return 0
}

// RegionOwner derives a region's owner from its id prefix.
// FR regions belong to the Entente; GE and BE regions to the Central Powers.
func RegionOwner(regionID string) Faction {
	prefix, _, _ := strings.Cut(strings.ToUpper(regionID), "-")
	switch prefix {
	case "FR":
		return FactionEntente
	case "GE", "BE":
		return FactionCentral
	}
	return FactionNone
}

// ConflictRegion returns the id of the faction's frontline region.
func ConflictRegion(f Faction) string {
	switch f {
	case FactionCentral:
		return "GE-3"
	case FactionEntente:
		return "FR-3"
	}
	return ""
}

// IsConflictRegion reports whether id is one of the two frontline regions.
func IsConflictRegion(id string) bool { return id == "GE-3" || id == "FR-3" }

var (
	townNumber    = regexp.MustCompile(`\d+`)
	townPrefixes  = []string{"法", "比", "德"}
	regionPrefix  = map[string]string{"法国": "法", "比利时": "比", "德国": "德"}
	mergedSuffix  = "城"
	fallbackMerge = "联合城"
)

func namePrefix(name string) string {
	for _, p := range townPrefixes {
		if strings.HasPrefix(name, p) {
			return p
		}
	}
	return ""
}

// MergedTownName builds the client-side name of a merge result.
// "法01号城" + "法02号城" gives "法01-02城". When either name has no number the
// result is the prefix followed by "联合城".
func MergedTownName(a, b string) string {
	prefix := namePrefix(a)
	if prefix == "" {
		prefix = namePrefix(b)
	}
	n1 := townNumber.FindString(a)
	n2 := townNumber.FindString(b)
	if n1 != "" && n2 != "" {
		return prefix + n1 + "-" + n2 + mergedSuffix
	}
	return prefix + fallbackMerge
}

// ServerMergedName is the name the backend gives a merged town.
func ServerMergedName(a, b string) string { return a + " - " + b }

// RegionPrefix returns the one-character town prefix for a region name.
// Unknown regions fall back to the prefix of the region owner.
func RegionPrefix(regionName string, owner Faction) string {
	for k, p := range regionPrefix {
		if strings.Contains(regionName, k) {
			return p
		}
	}
	if owner == FactionEntente {
		return "法"
	}
	return "德"
}

// VillageName returns "<prefix><NN>号城".
func VillageName(prefix string, n int) string {
	return fmt.Sprintf("%s%02d号城", prefix, n)
}

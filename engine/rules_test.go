package engine

import "testing"

// TestMergeCost verifies merge costs per level.
func TestMergeCost(t *testing.T) {
	if c, ok := MergeCost(LevelVillage); !ok || c != 150 {
		t.Errorf("village merge = %d,%v", c, ok)
	}
	if c, ok := MergeCost(LevelSmallCity); !ok || c != 400 {
		t.Errorf("small city merge = %d,%v", c, ok)
	}
	if _, ok := MergeCost(LevelLargeCity); ok {
		t.Errorf("large city merge should not be allowed")
	}
}

// TestAvailableMobilization covers the floor(pop*rate) - mobilized formula.
func TestAvailableMobilization(t *testing.T) {
	tests := []struct {
		name string
		town Town
		want int
	}{
		{"fresh village", Town{Level: LevelVillage, Population: 40}, 20},
		{"odd village floors", Town{Level: LevelVillage, Population: 41}, 20},
		{"small city", Town{Level: LevelSmallCity, Population: 105}, 42},
		{"large city partially mobilized", Town{Level: LevelLargeCity, Population: 300, Mobilized: 50}, 40},
		{"exhausted", Town{Level: LevelVillage, Population: 40, Mobilized: 20}, 0},
		{"over mobilized", Town{Level: LevelVillage, Population: 40, Mobilized: 30}, 0},
	}
	for _, tt := range tests {
		if got := AvailableMobilization(tt.town); got != tt.want {
			t.Errorf("%s: AvailableMobilization = %d, want %d", tt.name, got, tt.want)
		}
	}
}

// TestRegionOwner derives ownership from the id prefix.
func TestRegionOwner(t *testing.T) {
	tests := map[string]Faction{
		"FR-1": FactionEntente,
		"FR-3": FactionEntente,
		"GE-3": FactionCentral,
		"BE-1": FactionCentral,
		"IT-1": FactionNone,
		"":     FactionNone,
	}
	for id, want := range tests {
		if got := RegionOwner(id); got != want {
			t.Errorf("RegionOwner(%q) = %v, want %v", id, got, want)
		}
	}
}

// TestConflictRegion checks each faction's frontline.
func TestConflictRegion(t *testing.T) {
	if ConflictRegion(FactionCentral) != "GE-3" || ConflictRegion(FactionEntente) != "FR-3" {
		t.Errorf("conflict regions mismatch")
	}
	if !IsConflictRegion("FR-3") || IsConflictRegion("FR-1") {
		t.Errorf("IsConflictRegion mismatch")
	}
}

// TestMergedTownName covers the numbered and fallback forms.
func TestMergedTownName(t *testing.T) {
	tests := []struct {
		a, b string
		want string
	}{
		{"法01号城", "法02号城", "法01-02城"},
		{"德07号城", "德12号城", "德07-12城"},
		{"巴黎", "法03号城", "法联合城"},
		{"凡尔登", "色当", "联合城"},
	}
	for _, tt := range tests {
		if got := MergedTownName(tt.a, tt.b); got != tt.want {
			t.Errorf("MergedTownName(%q,%q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
	if ServerMergedName("A", "B") != "A - B" {
		t.Errorf("server merged name mismatch")
	}
}

// TestVillageName checks prefix selection and zero padding.
func TestVillageName(t *testing.T) {
	if got := VillageName(RegionPrefix("法国北部", FactionEntente), 3); got != "法03号城" {
		t.Errorf("VillageName = %q", got)
	}
	if got := RegionPrefix("比利时", FactionCentral); got != "比" {
		t.Errorf("RegionPrefix = %q", got)
	}
	if got := RegionPrefix("Alsace", FactionEntente); got != "法" {
		t.Errorf("fallback prefix = %q", got)
	}
}

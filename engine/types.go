package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Faction is one of the two sides of the war. The zero value is FactionNone.
type Faction uint8

const (
	FactionNone    Faction = iota // Unknown or unparseable faction.
	FactionCentral                // Central Powers, wire name "德军".
	FactionEntente                // Entente, wire name "协约国".
)

// Wire names used by the backend for each faction.
const (
	WireCentral = "德军"
	WireEntente = "协约国"
)

// factionAliases maps every spelling seen on the wire or in launch parameters
// to its canonical faction. Keys are lowercased.
var factionAliases = map[string]Faction{
	"德军":    FactionCentral,
	"德意志帝国": FactionCentral,
	"德国":    FactionCentral,
	"ge":    FactionCentral,
	"de":    FactionCentral,
	"germany": FactionCentral,
	"central": FactionCentral,
	"协约国":   FactionEntente,
	"法军":    FactionEntente,
	"法国":    FactionEntente,
	"fr":    FactionEntente,
	"france": FactionEntente,
	"allies":  FactionEntente,
	"entente": FactionEntente,
}

// ParseFaction normalizes any known faction spelling.
// Returns FactionNone and false for unrecognized input.
func ParseFaction(s string) (Faction, bool) {
	f, ok := factionAliases[strings.ToLower(strings.TrimSpace(s))]
	return f, ok
}

// String returns the backend wire name of the faction.
func (f Faction) String() string {
	switch f {
	case FactionCentral:
		return WireCentral
	case FactionEntente:
		return WireEntente
	}
	return ""
}

// Valid reports whether f is one of the two canonical factions.
func (f Faction) Valid() bool { return f == FactionCentral || f == FactionEntente }

// Opponent returns the other faction. FactionNone has no opponent.
func (f Faction) Opponent() Faction {
	switch f {
	case FactionCentral:
		return FactionEntente
	case FactionEntente:
		return FactionCentral
	}
	return FactionNone
}

// MarshalText writes the wire name. Faction is used as a map key on the wire.
func (f Faction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText accepts any known alias. Unknown strings decode to FactionNone
// so the caller can decide how to correct them.
func (f *Faction) UnmarshalText(text []byte) error {
	*f, _ = ParseFaction(string(text))
	return nil
}

// Phase is the game phase reported by the backend.
type Phase uint8

const (
	PhaseUnknown      Phase = iota
	PhaseProtection         // 保护期, rounds 1-30.
	PhaseTension            // 紧张期, rounds 31-40. War may be declared.
	PhaseWar                // 战争期, rounds 41+.
	PhaseConstruction       // 建设期
	PhaseMobilization       // 动员期
)

var phaseNames = [...]string{"", "保护期", "紧张期", "战争期", "建设期", "动员期"}

var phaseAliases = map[string]Phase{
	"保护期":          PhaseProtection,
	"protection":   PhaseProtection,
	"紧张期":          PhaseTension,
	"tension":      PhaseTension,
	"战争期":          PhaseWar,
	"war":          PhaseWar,
	"建设期":          PhaseConstruction,
	"construction": PhaseConstruction,
	"动员期":          PhaseMobilization,
	"mobilization": PhaseMobilization,
}

// ParsePhase normalizes English and Chinese phase names.
func ParsePhase(s string) (Phase, bool) {
	p, ok := phaseAliases[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}

// PhaseForRound returns the phase the backend assigns to a round.
func PhaseForRound(round int) Phase {
	switch {
	case round <= ProtectionLastRound:
		return PhaseProtection
	case round <= TensionLastRound:
		return PhaseTension
	}
	return PhaseWar
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return ""
}

func (p Phase) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("phase: %w", err)
	}
	*p, _ = ParsePhase(s)
	return nil
}

// TownLevel is the size class of a settlement.
type TownLevel uint8

const (
	LevelUnknown   TownLevel = iota
	LevelVillage             // Can merge into a small city.
	LevelSmallCity           // Can merge into a large city.
	LevelLargeCity           // Terminal level.
)

var levelNames = [...]string{"", "village", "small_city", "large_city"}

// ParseTownLevel accepts the backend names plus the "town"/"city" aliases.
func ParseTownLevel(s string) (TownLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "village":
		return LevelVillage, true
	case "small_city", "town":
		return LevelSmallCity, true
	case "large_city", "city":
		return LevelLargeCity, true
	}
	return LevelUnknown, false
}

// Next returns the level produced by merging two towns of level l.
func (l TownLevel) Next() (TownLevel, bool) {
	switch l {
	case LevelVillage:
		return LevelSmallCity, true
	case LevelSmallCity:
		return LevelLargeCity, true
	}
	return LevelUnknown, false
}

func (l TownLevel) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return ""
}

func (l TownLevel) MarshalJSON() ([]byte, error) { return json.Marshal(l.String()) }

func (l *TownLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("town level: %w", err)
	}
	*l, _ = ParseTownLevel(s)
	return nil
}

// RailLevel is the tier of a railway segment.
type RailLevel uint8

const (
	RailUnknown RailLevel = iota
	RailTier1
	RailTier2
)

// ParseRailLevel accepts "tier1"/"level_1" and "tier2"/"level_2".
func ParseRailLevel(s string) (RailLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tier1", "level_1", "1":
		return RailTier1, true
	case "tier2", "level_2", "2":
		return RailTier2, true
	}
	return RailUnknown, false
}

func (l RailLevel) String() string {
	switch l {
	case RailTier1:
		return "level_1"
	case RailTier2:
		return "level_2"
	}
	return ""
}

func (l RailLevel) MarshalJSON() ([]byte, error) { return json.Marshal(l.String()) }

func (l *RailLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("rail level: %w", err)
	}
	*l, _ = ParseRailLevel(s)
	return nil
}

// Difficulty tunes the AI opponent.
type Difficulty uint8

const (
	DifficultyMedium Difficulty = iota // Default.
	DifficultyEasy
	DifficultyHard
)

// ParseDifficulty defaults to medium for unknown input.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy
	case "hard":
		return DifficultyHard
	}
	return DifficultyMedium
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyHard:
		return "hard"
	}
	return "medium"
}

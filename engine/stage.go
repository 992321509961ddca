package engine

import "time"

// Stage is the AI's coarse view of game progress, derived from the round.
type Stage uint8

const (
	StageEarly Stage = iota // Rounds 1-10.
	StageMid                // Rounds 11-20.
	StageLate               // Rounds 21-30.
	StageWar                // Rounds 31+.
)

func (s Stage) String() string {
	switch s {
	case StageEarly:
		return "early"
	case StageMid:
		return "mid"
	case StageLate:
		return "late"
	}
	return "war"
}

// StageForRound maps a round number to its stage.
func StageForRound(round int) Stage {
	switch {
	case round <= 10:
		return StageEarly
	case round <= 20:
		return StageMid
	case round <= ProtectionLastRound:
		return StageLate
	}
	return StageWar
}

// Budget splits GDP into reserve, construction and railway allowances.
// Reserve + Construction + Railway always equals the GDP it was built from.
type Budget struct {
	Reserve      int
	Construction int
	Railway      int
}

// budgetPercents holds reserve and construction percentages per stage.
// Railway takes the remainder.
var budgetPercents = [...][2]int{
	StageEarly: {20, 50},
	StageMid:   {25, 40},
	StageLate:  {30, 35},
	StageWar:   {70, 15},
}

// AllocateBudget splits gdp for the stage using floor division.
func AllocateBudget(stage Stage, gdp int) Budget {
	if gdp < 0 {
		gdp = 0
	}
	p := budgetPercents[stage]
	reserve := gdp * p[0] / 100
	construction := gdp * p[1] / 100
	return Budget{
		Reserve:      reserve,
		Construction: construction,
		Railway:      gdp - reserve - construction,
	}
}

// MaxConstructionAttempts bounds the AI construction loop. Round 11 uses a
// reduced cap.
func MaxConstructionAttempts(round int) int {
	if round == 11 {
		return 2
	}
	return 5
}

// CanDeclareWar reports whether the round allows a war declaration at all.
func CanDeclareWar(round int) bool { return round > ProtectionLastRound }

// WarDeclarationProbability returns the chance the AI declares war this round:
// 0.2 + 0.05 per round past the protection period, capped at 0.7, then scaled
// by difficulty (easy x0.5, hard x1.5) and clamped to 1.
func WarDeclarationProbability(round int, d Difficulty) float64 {
	if !CanDeclareWar(round) {
		return 0
	}
	p := 0.2 + float64(round-ProtectionLastRound)*0.05
	if p > 0.7 {
		p = 0.7
	}
	switch d {
	case DifficultyEasy:
		p *= 0.5
	case DifficultyHard:
		p *= 1.5
	}
	if p > 1 {
		p = 1
	}
	return p
}

// ThinkingTime is the simulated delay before the AI acts.
func ThinkingTime(d Difficulty) time.Duration {
	switch d {
	case DifficultyEasy:
		return 1000 * time.Millisecond
	case DifficultyHard:
		return 2000 * time.Millisecond
	}
	return 1500 * time.Millisecond
}

package engine

import "fmt"

// Ability identifiers.
const (
	AbilityBlitzRaid        = "blitz_raid"
	AbilityEmergencyRepairs = "emergency_repairs"
	AbilityElasticDefense   = "elastic_defense"
	AbilityTaxiMiracle      = "taxi_miracle"
)

// Ability is a timed or one-shot commander power.
type Ability struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	OneTimeUse bool   `json:"oneTimeUse"`
	Duration   int    `json:"duration"`
	Used       bool   `json:"used"`
	TurnsLeft  int    `json:"turnsLeft"`
}

// Active reports whether the ability's effect is currently running.
func (a *Ability) Active() bool { return a.Used && a.TurnsLeft > 0 }

// Role is a faction commander and its abilities.
type Role struct {
	Faction   Faction    `json:"faction"`
	Name      string     `json:"name"`
	Abilities []*Ability `json:"abilities"`
}

// DefaultRole returns the commander for a faction.
func DefaultRole(f Faction) *Role {
	switch f {
	case FactionCentral:
		return &Role{
			Faction: f,
			Name:    "德意志帝国",
			Abilities: []*Ability{
				{ID: AbilityBlitzRaid, Name: "闪电突袭", Duration: 5},
				{ID: AbilityEmergencyRepairs, Name: "Emergency Repairs", Duration: 5},
			},
		}
	case FactionEntente:
		return &Role{
			Faction: f,
			Name:    "French Commander-in-Chief",
			Abilities: []*Ability{
				{ID: AbilityElasticDefense, Name: "Elastic Defense", Duration: 5},
				{ID: AbilityTaxiMiracle, Name: "Taxi Miracle Event", OneTimeUse: true},
			},
		}
	}
	return &Role{Faction: f}
}

// Ability looks up an ability by id.
func (r *Role) Ability(id string) (*Ability, bool) {
	for _, a := range r.Abilities {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Activate starts an ability. A spent one-time ability or one already running
// is rejected.
func (r *Role) Activate(id string) (*Ability, error) {
	a, ok := r.Ability(id)
	if !ok {
		return nil, fmt.Errorf("unknown ability %q", id)
	}
	if a.Used && a.OneTimeUse {
		return nil, fmt.Errorf("ability %q has already been used", id)
	}
	if a.Active() {
		return nil, fmt.Errorf("ability %q is active for %d more rounds", id, a.TurnsLeft)
	}
	a.Used = true
	a.TurnsLeft = a.Duration
	return a, nil
}

// Tick advances every running ability by one round and returns the ids whose
// effect ended. Expired abilities become usable again unless one-time.
func (r *Role) Tick() []string {
	var expired []string
	for _, a := range r.Abilities {
		if !a.Active() {
			continue
		}
		a.TurnsLeft--
		if a.TurnsLeft == 0 && !a.OneTimeUse {
			a.Used = false
			expired = append(expired, a.ID)
		}
	}
	return expired
}

// TransportBoost is the railway capacity multiplier from running abilities.
func (r *Role) TransportBoost() float64 {
	if a, ok := r.Ability(AbilityBlitzRaid); ok && a.Active() {
		return 1.3
	}
	return 1
}

// RepairBoost is the railway repair speed multiplier from running abilities.
func (r *Role) RepairBoost() float64 {
	if a, ok := r.Ability(AbilityElasticDefense); ok && a.Active() {
		return 1.5
	}
	return 1
}

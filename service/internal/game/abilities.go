// internal/game/abilities.go
package game

import (
	"fmt"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	log "github.com/sirupsen/logrus"
)

// UseAbility activates one of the human role's abilities and returns a copy
// of it. Abilities tick down once per advanced round.
func (g *Session) UseAbility(id string) (engine.Ability, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.closed || g.state == StateIdle {
		return engine.Ability{}, ErrGameOver
	}
	a, err := g.role.Activate(id)
	if err != nil {
		log.Infof("Session %s: ability %s rejected: %v", g.ID, id, err)
		return engine.Ability{}, err
	}
	log.Infof("Session %s: %s used %s (%d turns).", g.ID, g.Human, a.Name, a.TurnsLeft)
	g.logAction(g.Human, "ability_used", map[string]interface{}{"ability": a.ID, "turns": a.TurnsLeft})
	g.fireEvent(GameEvent{
		Type:    EventAbilityUsed,
		Round:   g.Store.Round(),
		Player:  g.Human,
		Message: fmt.Sprintf("%s发动了%s", g.Human, a.Name),
	})
	return *a, nil
}

// Abilities returns copies of the human role's abilities.
func (g *Session) Abilities() []engine.Ability {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	out := make([]engine.Ability, 0, len(g.role.Abilities))
	for _, a := range g.role.Abilities {
		out = append(out, *a)
	}
	return out
}

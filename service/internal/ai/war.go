// internal/ai/war.go
package ai

import (
	"context"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/feng-mou-mou/Railof1914/engine/agent"
	log "github.com/sirupsen/logrus"
)

// decideWar reinforces a conflict in the AI's own conflict region or, once
// the protection period is over, declares war with the brain's probability.
func (e *Engine) decideWar(ctx context.Context, s *engine.MatchState, out *Outcome) {
	conflict := engine.ConflictRegion(e.faction)
	if s.HasConflict(conflict) {
		log.Infof("AI %s: conflict in %s, reinforcing", e.faction, conflict)
		out.Reinforced = conflict
		return
	}
	if s.WarDeclared {
		log.Debugf("AI %s: war already declared, no conflict in %s yet", e.faction, conflict)
		return
	}
	p := e.brain.WarProbability(s.Round)
	if p <= 0 {
		return
	}
	if d := e.draw(); d >= p {
		log.Debugf("AI %s: holding off war (draw %.2f, p %.2f)", e.faction, d, p)
		return
	}
	if err := e.actions.DeclareWar(ctx, e.faction); err != nil {
		out.Failures++
		log.Warnf("AI %s: declare war failed: %v", e.faction, err)
		return
	}
	out.DeclaredWar = true
	out.record("向%s宣战", e.faction.Opponent())
}

// mobilize drafts available manpower, frontline towns first.
func (e *Engine) mobilize(ctx context.Context, s *engine.MatchState, out *Outcome) {
	view := agent.NewView(s, e.faction, e.memory)
	maxAttempts := engine.MaxConstructionAttempts(s.Round)
	for i, t := range view.MobilizationTargets() {
		if i >= maxAttempts || ctx.Err() != nil {
			return
		}
		got, err := e.actions.MobilizeTown(ctx, e.faction, t.RegionID, t.Town.Name, t.Amount)
		if err != nil {
			out.Failures++
			log.Debugf("AI %s: mobilize %s failed: %v", e.faction, t.Town.Name, err)
			continue
		}
		out.record("从%s动员%d兵力", t.Town.Name, got)
	}
}

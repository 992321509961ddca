// internal/ai/construction.go
package ai

import (
	"context"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/feng-mou-mou/Railof1914/engine/agent"
	log "github.com/sirupsen/logrus"
)

// maxCandidateFailures bounds how many candidates of one kind are tried in a
// single attempt before the attempt gives up.
const maxCandidateFailures = 3

// construct runs the construction loop: merges first, then alternating
// railway and village building, until the budget or attempt cap runs out.
func (e *Engine) construct(ctx context.Context, s *engine.MatchState, out *Outcome) {
	stage := engine.StageForRound(s.Round)
	budget := engine.AllocateBudget(stage, s.GDP(e.faction))
	maxAttempts := engine.MaxConstructionAttempts(s.Round)
	log.Debugf("AI %s: stage %s budget %+v, %d attempts", e.faction, stage, budget, maxAttempts)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}
		if budget.Construction < engine.CostTown && budget.Railway < engine.CostRailway {
			return
		}
		view := agent.NewView(s, e.faction, e.memory)

		acted := e.tryMerge(ctx, view, &budget, out)
		if !acted && attempt%2 == 0 && view.TownCount() >= 2 {
			acted = e.tryRailway(ctx, view, allRailwayCandidates(view), &budget, out)
		}
		if !acted {
			switch stage {
			case engine.StageEarly:
				acted = e.tryVillage(ctx, view, &budget, out)
			default:
				acted = e.tryRailway(ctx, view, view.ConflictConnections(), &budget, out) ||
					e.tryVillage(ctx, view, &budget, out)
			}
		}
		if !acted {
			return
		}
		s = e.refresh(s)
	}
}

// allRailwayCandidates lists segments from every owned region, frontline first.
func allRailwayCandidates(v *agent.View) []agent.Segment {
	var out []agent.Segment
	for _, reg := range v.OwnedRegions() {
		out = append(out, v.RailwayCandidates(reg)...)
	}
	return out
}

func (e *Engine) tryMerge(ctx context.Context, v *agent.View, b *engine.Budget, out *Outcome) bool {
	failures := 0
	for _, m := range v.MergeCandidates() {
		if m.Cost > b.Construction {
			continue
		}
		v.Memory.TryMerge(m.RegionID, m.A.Name, m.B.Name)
		name, err := e.actions.MergeTowns(ctx, e.faction, m.RegionID, m.A.Name, m.B.Name)
		if err != nil {
			out.Failures++
			log.Debugf("AI %s: merge %s+%s failed: %v", e.faction, m.A.Name, m.B.Name, err)
			if failures++; failures >= maxCandidateFailures || ctx.Err() != nil {
				return false
			}
			continue
		}
		b.Construction -= m.Cost
		out.record("合并%s与%s为%s", m.A.Name, m.B.Name, name)
		return true
	}
	return false
}

func (e *Engine) tryRailway(ctx context.Context, v *agent.View, segs []agent.Segment, b *engine.Budget, out *Outcome) bool {
	if b.Railway < engine.CostRailway {
		return false
	}
	failures := 0
	for _, seg := range segs {
		if v.Memory.RailwayTried(seg.RegionID, seg.From, seg.To) {
			continue
		}
		v.Memory.TryRailway(seg.RegionID, seg.From, seg.To)
		if err := e.actions.BuildRailway(ctx, e.faction, seg.RegionID, seg.From, seg.To); err != nil {
			out.Failures++
			log.Debugf("AI %s: railway %s-%s in %s failed: %v", e.faction, seg.From, seg.To, seg.RegionID, err)
			if failures++; failures >= maxCandidateFailures || ctx.Err() != nil {
				return false
			}
			continue
		}
		b.Railway -= engine.CostRailway
		out.record("在%s修建铁路%s-%s", seg.RegionID, seg.From, seg.To)
		return true
	}
	return false
}

func (e *Engine) tryVillage(ctx context.Context, v *agent.View, b *engine.Budget, out *Outcome) bool {
	if b.Construction < engine.CostTown {
		return false
	}
	failures := 0
	for _, reg := range v.OwnedRegions() {
		for _, h := range v.VillageSites(reg) {
			name := v.NextVillageName(reg)
			v.Memory.TryVillage(reg.ID, h)
			if err := e.actions.BuildTown(ctx, e.faction, reg.ID, h, name); err != nil {
				out.Failures++
				log.Debugf("AI %s: village %s at %s failed: %v", e.faction, name, h, err)
				if failures++; failures >= maxCandidateFailures || ctx.Err() != nil {
					return false
				}
				continue
			}
			b.Construction -= engine.CostTown
			out.record("在%s建设村庄%s", reg.ID, name)
			return true
		}
	}
	return false
}

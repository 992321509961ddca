// internal/ai/engine.go
package ai

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/feng-mou-mou/Railof1914/engine/agent"
	log "github.com/sirupsen/logrus"
)

// Actions is the part of the gateway the AI plays through. It is the same
// surface a human player uses.
type Actions interface {
	BuildTown(ctx context.Context, player engine.Faction, regionID string, h engine.Hex, name string) error
	BuildRailway(ctx context.Context, player engine.Faction, regionID string, a, b engine.Hex) error
	MergeTowns(ctx context.Context, player engine.Faction, regionID, name1, name2 string) (string, error)
	MobilizeTown(ctx context.Context, player engine.Faction, regionID, townName string, amount int) (int, error)
	DeclareWar(ctx context.Context, player engine.Faction) error
}

// Snapshotter supplies the latest authoritative state.
type Snapshotter interface {
	Snapshot() *engine.MatchState
}

// Outcome summarizes one AI turn.
type Outcome struct {
	Round       int
	Phase       engine.Phase
	Actions     []string // Human-readable description of every successful action.
	Failures    int      // Attempts rejected by validation or the backend.
	DeclaredWar bool
	Reinforced  string // Conflict region the AI chose to reinforce; not a submitted action.
	Passed      bool   // True when the AI performed no action.
}

func (o *Outcome) record(format string, args ...interface{}) {
	o.Actions = append(o.Actions, fmt.Sprintf(format, args...))
}

// Engine plays one faction. TakeTurn is safe to call from any goroutine; a
// call made while another turn is running passes immediately.
type Engine struct {
	faction engine.Faction
	brain   Brain
	actions Actions
	states  Snapshotter
	memory  *agent.Memory

	mu    sync.Mutex // Held for the duration of a turn.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRand replaces the random source used for the war decision.
func WithRand(r *rand.Rand) EngineOption { return func(e *Engine) { e.rng = r } }

// NewEngine creates an AI playing faction f.
func NewEngine(f engine.Faction, brain Brain, actions Actions, states Snapshotter, opts ...EngineOption) *Engine {
	now := uint64(time.Now().UnixNano())
	e := &Engine{
		faction: f,
		brain:   brain,
		actions: actions,
		states:  states,
		memory:  agent.NewMemory(),
		rng:     rand.New(rand.NewPCG(now, now>>17|1)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Faction returns the side this engine plays.
func (e *Engine) Faction() engine.Faction { return e.faction }

// Brain returns the engine's difficulty tuning.
func (e *Engine) Brain() Brain { return e.brain }

// TakeTurn plays one AI turn against the current snapshot. It never returns an
// error or panics: failures are logged and the AI passes.
func (e *Engine) TakeTurn(ctx context.Context) (out Outcome) {
	if !e.mu.TryLock() {
		log.Warnf("AI %s: turn already running, passing", e.faction)
		return Outcome{Passed: true}
	}
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("AI %s: recovered from panic during turn: %v", e.faction, r)
			out.Passed = len(out.Actions) == 0
		}
	}()

	s := e.states.Snapshot()
	if s == nil {
		log.Warnf("AI %s: no game state loaded, passing", e.faction)
		return Outcome{Passed: true}
	}
	out.Round = s.Round
	out.Phase = s.Phase
	if out.Phase == engine.PhaseUnknown {
		out.Phase = engine.PhaseForRound(s.Round)
	}

	log.Infof("AI %s: round %d, phase %s, GDP %d", e.faction, s.Round, out.Phase, s.GDP(e.faction))
	switch out.Phase {
	case engine.PhaseConstruction, engine.PhaseProtection:
		e.construct(ctx, s, &out)
	case engine.PhaseTension:
		e.decideWar(ctx, s, &out)
		e.construct(ctx, e.refresh(s), &out)
	case engine.PhaseWar:
		e.decideWar(ctx, s, &out)
	case engine.PhaseMobilization:
		e.mobilize(ctx, s, &out)
	}

	out.Passed = len(out.Actions) == 0
	log.Infof("AI %s: turn done, %d actions, %d failures", e.faction, len(out.Actions), out.Failures)
	return out
}

// refresh returns the latest snapshot, or prev if none is available.
func (e *Engine) refresh(prev *engine.MatchState) *engine.MatchState {
	if s := e.states.Snapshot(); s != nil {
		return s
	}
	return prev
}

func (e *Engine) draw() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64()
}

// internal/game/game.go
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/feng-mou-mou/Railof1914/service/internal/ai"
	"github.com/feng-mou-mou/Railof1914/service/internal/cache"
	"github.com/feng-mou-mou/Railof1914/service/internal/database"
	"github.com/feng-mou-mou/Railof1914/service/internal/gateway"
	"github.com/feng-mou-mou/Railof1914/service/internal/models"
	"github.com/feng-mou-mou/Railof1914/service/internal/store"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Errors returned by the turn controls.
var (
	ErrAdvanceInFlight = errors.New("round advance already in flight")
	ErrNotPlayerTurn   = errors.New("not the human player's turn")
	ErrGameOver        = errors.New("game has ended")
)

// OnRoundAdvancedFunc is called after every successful round advance with a
// copy of the new state.
type OnRoundAdvancedFunc func(sessionID uuid.UUID, s *engine.MatchState)

// OnSessionStartFunc registers the session before its first turn opens.
type OnSessionStartFunc func(ctx context.Context, sessionID uuid.UUID, human engine.Faction, difficulty engine.Difficulty) error

// GameEventType represents the type of an event broadcast to spectators.
type GameEventType string

// Constants defining the GameEvent types.
const (
	EventTurnStatus    GameEventType = "turn_status"    // Readiness flags changed.
	EventAIThinking    GameEventType = "ai_thinking"    // AI run started.
	EventAIDone        GameEventType = "ai_done"        // AI run completed.
	EventAITimeout     GameEventType = "ai_timeout"     // AI run force-completed.
	EventRoundAdvanced GameEventType = "round_advanced" // NextRound succeeded.
	EventRoundFailed   GameEventType = "round_failed"   // NextRound failed.
	EventStateSync     GameEventType = "state_sync"     // Full snapshot.
	EventActionLog     GameEventType = "action_log"     // Human-readable action line.
	EventAbilityUsed   GameEventType = "ability_used"   // Role ability activated.
)

// GameEvent is the structure broadcast for every turn change and action.
type GameEvent struct {
	Type        GameEventType           `json:"type"`
	Round       int                     `json:"round,omitempty"`
	Player      engine.Faction          `json:"player,omitempty"`
	Message     string                  `json:"message,omitempty"`
	Status      *models.TurnStatus      `json:"status,omitempty"`
	Log         *models.LogEntry        `json:"log,omitempty"`
	State       *engine.MatchState      `json:"state,omitempty"`
	MergedTowns map[string][]engine.Hex `json:"mergedTowns,omitempty"` // Every tile of each merged town, keyed by town name.
}

// Gateway is the backend surface the coordinator needs.
type Gateway interface {
	NextRound(ctx context.Context, player engine.Faction) (*engine.MatchState, error)
	FetchGameState(ctx context.Context) (*engine.MatchState, error)
}

// MergedTownSource reports the tiles covered by the merged towns of the
// current state.
type MergedTownSource interface {
	MergedTownTiles() map[string][]engine.Hex
}

// AIPlayer plays the opposing faction's turn.
type AIPlayer interface {
	TakeTurn(ctx context.Context) ai.Outcome
}

// Timings holds every delay of the turn protocol.
type Timings struct {
	AdvanceDelay  time.Duration // Both ready -> NextRound.
	AIStartDelay  time.Duration // Round advanced to the AI -> AI triggered.
	HandbackDelay time.Duration // AI done with the player ready -> NextRound.
	ThinkingTime  time.Duration // Simulated AI think before acting.
	AITimeout     time.Duration // Force-complete a run that has not finished.
}

// DefaultTimings returns the standard delays, with the thinking time taken
// from the brain.
func DefaultTimings(brain ai.Brain) Timings {
	t := Timings{
		AdvanceDelay:  500 * time.Millisecond,
		AIStartDelay:  time.Second,
		HandbackDelay: time.Second,
		ThinkingTime:  engine.ThinkingTime(engine.DifficultyMedium),
		AITimeout:     10 * time.Second,
	}
	if brain != nil {
		t.ThinkingTime = brain.ThinkingTime()
	}
	return t
}

// Session coordinates one human-versus-AI match: the readiness handshake, the
// AI run with its timeout, and round advancement.
type Session struct {
	ID        uuid.UUID      // Identifies this client session in logs, redis and the journal.
	Human     engine.Faction // Resolved once at start.
	AIFaction engine.Faction
	AIEnabled bool
	Timings   Timings
	Store     *store.GameStateStore

	// MergedTowns, when set, adds merged-town tiles to round and sync events.
	MergedTowns MergedTownSource

	gateway Gateway
	ai      AIPlayer
	role    *engine.Role

	// Turn state
	state          TurnState
	playerReady    bool
	aiReady        bool
	aiThinking     bool
	endTurnEnabled bool
	aiRunID        int // Increments per AI run; stale timers and completions compare against it.
	advanceID      int // Increments per scheduled advance.
	TurnID         int // Increments per successful round advance.
	actionIndex    int // Sequential index for action records.

	// CurrentPlayerCorrections counts server echoes of current_player that did
	// not normalize and were forced to the expected actor.
	CurrentPlayerCorrections int
	// AITimeouts counts force-completed AI runs.
	AITimeouts int

	advanceTimer   *time.Timer
	aiStartTimer   *time.Timer
	aiTimeoutTimer *time.Timer
	cancelAI       context.CancelFunc

	baseCtx context.Context
	closed  bool
	Mu      sync.Mutex // Protects every field above.

	// Communication Callbacks
	BroadcastFn     func(ev GameEvent)  // Sends an event to every spectator.
	OnSessionStart  OnSessionStartFunc  // Registers the session; runs before any round is journaled.
	OnRoundAdvanced OnRoundAdvancedFunc // Journals the new round.
}

// NewSession creates a session for the human faction. ai may be nil when the
// AI is disabled.
func NewSession(human engine.Faction, st *store.GameStateStore, gw Gateway, player AIPlayer, timings Timings) *Session {
	id, _ := uuid.NewRandom()
	g := &Session{
		ID:        id,
		Human:     human,
		AIFaction: human.Opponent(),
		AIEnabled: player != nil,
		Timings:   timings,
		Store:     st,
		gateway:   gw,
		ai:        player,
		role:      engine.DefaultRole(human),
		state:     StateIdle,
		baseCtx:   context.Background(),
	}
	g.OnSessionStart = func(ctx context.Context, sessionID uuid.UUID, human engine.Faction, difficulty engine.Difficulty) error {
		if database.DB == nil {
			return nil
		}
		return database.UpsertSession(ctx, sessionID, human, difficulty)
	}
	g.OnRoundAdvanced = func(sessionID uuid.UUID, s *engine.MatchState) {
		if database.DB != nil {
			database.JournalRound(sessionID, s)
		}
	}
	return g
}

// Run registers the session, opens the first turn and blocks until ctx is
// done, then stops every timer. The AI starts immediately if the loaded state
// says it is its turn.
func (g *Session) Run(ctx context.Context) error {
	g.Mu.Lock()
	closed, start := g.closed, g.OnSessionStart
	g.Mu.Unlock()
	if closed {
		return errors.New("session already closed")
	}

	// Round records reference the session row, so it must exist before the
	// first advance can be journaled.
	if start != nil {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := start(pctx, g.ID, g.Human, g.aiDifficulty()); err != nil {
			log.Warnf("Session %s: failed to persist session: %v", g.ID, err)
		}
		cancel()
	}

	g.Mu.Lock()
	if g.closed {
		g.Mu.Unlock()
		return errors.New("session already closed")
	}
	g.baseCtx = ctx
	g.openTurn(g.Store.Snapshot())
	log.Infof("Session %s: started as %s against %s AI (enabled=%v).", g.ID, g.Human, g.AIFaction, g.AIEnabled)
	g.logAction(g.Human, "session_start", map[string]interface{}{"human": g.Human.String()})
	g.broadcastStatus()
	g.Mu.Unlock()

	<-ctx.Done()
	g.Close()
	return nil
}

// Close stops all timers and cancels a running AI turn. Safe to call twice.
func (g *Session) Close() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.stopTimers()
	if g.cancelAI != nil {
		g.cancelAI()
		g.cancelAI = nil
	}
	g.state = StateIdle
	g.endTurnEnabled = false
	log.Infof("Session %s: closed.", g.ID)
}

// aiDifficulty reports the AI's difficulty for the journal.
func (g *Session) aiDifficulty() engine.Difficulty {
	if e, ok := g.ai.(*ai.Engine); ok && e.Brain() != nil {
		return e.Brain().Difficulty()
	}
	return engine.DifficultyMedium
}

// openTurn sets the turn state for a freshly loaded or advanced snapshot.
// Assumes lock is held by caller.
func (g *Session) openTurn(s *engine.MatchState) {
	g.playerReady = false
	g.aiReady = !g.AIEnabled
	if s != nil && s.GameEnded {
		g.state = StateIdle
		g.endTurnEnabled = false
		return
	}
	if g.AIEnabled && s != nil && s.CurrentPlayer == g.AIFaction {
		g.state = StateAwaitingAI
		g.endTurnEnabled = false
		g.scheduleAI(g.Timings.AIStartDelay)
		return
	}
	g.state = StateAwaitingPlayer
	g.endTurnEnabled = true
}

// MarkPlayerReady records the human's end-turn. If the AI has already
// finished, the round advances after AdvanceDelay; otherwise the turn is
// handed to the AI.
func (g *Session) MarkPlayerReady(ctx context.Context) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	switch {
	case g.closed:
		return ErrGameOver
	case g.state == StateAdvancing:
		return ErrAdvanceInFlight
	case g.state == StateIdle:
		return ErrGameOver
	case g.playerReady:
		log.Debugf("Session %s: player already ready, ignoring.", g.ID)
		return nil
	case !g.endTurnEnabled:
		return ErrNotPlayerTurn
	}

	g.playerReady = true
	g.endTurnEnabled = false
	log.Infof("Session %s: %s ended their turn (round %d).", g.ID, g.Human, g.Store.Round())
	g.logAction(g.Human, "player_ready", nil)

	if g.aiReady {
		g.scheduleAdvance(g.Timings.AdvanceDelay)
	} else {
		g.handTo(g.AIFaction)
		g.state = StateAwaitingAI
		if !g.aiThinking {
			g.triggerAI()
		}
	}
	g.broadcastStatus()
	return nil
}

// scheduleAdvance arms the advance timer.
// Assumes lock is held by caller.
func (g *Session) scheduleAdvance(delay time.Duration) {
	if g.advanceTimer != nil {
		g.advanceTimer.Stop()
	}
	g.advanceID++
	curAdvanceID := g.advanceID
	g.advanceTimer = time.AfterFunc(delay, func() {
		go func(expectedAdvanceID int) {
			g.Mu.Lock()
			isValid := !g.closed && g.advanceID == expectedAdvanceID
			ctx := g.baseCtx
			g.Mu.Unlock()
			if !isValid {
				return
			}
			if err := g.AdvanceRound(ctx); err != nil && !errors.Is(err, ErrAdvanceInFlight) {
				log.Warnf("Session %s: scheduled advance failed: %v", g.ID, err)
			}
		}(curAdvanceID)
	})
}

// AdvanceRound sends NextRound for the human faction. Only one advance may be
// in flight; a concurrent call returns ErrAdvanceInFlight without a request.
func (g *Session) AdvanceRound(ctx context.Context) error {
	g.Mu.Lock()
	if g.closed {
		g.Mu.Unlock()
		return ErrGameOver
	}
	if g.state == StateAdvancing {
		g.Mu.Unlock()
		return ErrAdvanceInFlight
	}
	g.state = StateAdvancing
	g.endTurnEnabled = false
	g.advanceID++ // Invalidate any pending advance timer.
	g.broadcastStatus()
	g.Mu.Unlock()

	s, err := g.gateway.NextRound(ctx, g.Human)

	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.closed {
		return ErrGameOver
	}
	if err != nil {
		log.Warnf("Session %s: next round failed: %v", g.ID, err)
		g.state = StateAwaitingPlayer
		g.playerReady = false
		g.endTurnEnabled = true
		g.fireEvent(GameEvent{Type: EventRoundFailed, Round: g.Store.Round(), Player: g.Human, Message: gateway.FriendlyMessage(err)})
		g.broadcastStatus()
		return err
	}
	if s == nil {
		s = g.Store.Snapshot()
	}
	if s == nil {
		s = engine.PlaceholderState(g.Human)
	}
	s = g.correctCurrentPlayer(s, g.Human)

	g.TurnID++
	for _, id := range g.role.Tick() {
		log.Infof("Session %s: ability %s expired.", g.ID, id)
	}
	log.Infof("Session %s: advanced to round %d (%s), current player %s.", g.ID, s.Round, s.Phase, s.CurrentPlayer)
	g.logAction(g.Human, "round_advanced", map[string]interface{}{"round": s.Round, "phase": s.Phase.String()})
	if g.OnRoundAdvanced != nil {
		go g.OnRoundAdvanced(g.ID, s.Clone())
	}
	g.fireEvent(GameEvent{Type: EventRoundAdvanced, Round: s.Round, Player: s.CurrentPlayer, State: s, MergedTowns: g.mergedTownTiles()})

	g.aiThinking = false
	g.openTurn(s)
	g.broadcastStatus()
	return nil
}

// correctCurrentPlayer forces a current_player that failed to normalize to
// the expected actor, in the store as well as in s.
// Assumes lock is held by caller.
func (g *Session) correctCurrentPlayer(s *engine.MatchState, expected engine.Faction) *engine.MatchState {
	if s.CurrentPlayer.Valid() {
		return s
	}
	g.CurrentPlayerCorrections++
	log.Warnf("Session %s: server current_player did not normalize, forcing %s (correction #%d).", g.ID, expected, g.CurrentPlayerCorrections)
	s.CurrentPlayer = expected
	g.Store.Update(func(ms *engine.MatchState) { ms.CurrentPlayer = expected })
	return s
}

// handTo passes control locally to f.
// Assumes lock is held by caller.
func (g *Session) handTo(f engine.Faction) {
	if g.Store.Update(func(ms *engine.MatchState) { ms.CurrentPlayer = f }) {
		log.Debugf("Session %s: control handed to %s.", g.ID, f)
	}
}

// stopTimers stops every pending timer.
// Assumes lock is held by caller.
func (g *Session) stopTimers() {
	for _, t := range []*time.Timer{g.advanceTimer, g.aiStartTimer, g.aiTimeoutTimer} {
		if t != nil {
			t.Stop()
		}
	}
	g.advanceTimer, g.aiStartTimer, g.aiTimeoutTimer = nil, nil, nil
}

// fireEvent broadcasts an event via the BroadcastFn callback.
// Assumes lock is held by caller.
func (g *Session) fireEvent(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	} else {
		log.Debugf("Session %s: BroadcastFn is nil, cannot broadcast event type %s.", g.ID, ev.Type)
	}
}

// RecordLog publishes a gateway action-log entry to spectators and redis.
func (g *Session) RecordLog(entry models.LogEntry) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.fireEvent(GameEvent{Type: EventActionLog, Round: entry.Round, Player: entry.Actor, Log: &entry, Message: entry.Message})
	g.logAction(entry.Actor, "action", map[string]interface{}{"message": entry.Message})
}

// logAction appends an action record to the redis history asynchronously.
// Assumes lock is held by caller.
func (g *Session) logAction(actor engine.Faction, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		SessionID:     g.ID,
		ActionIndex:   g.actionIndex,
		Round:         g.Store.Round(),
		Actor:         actor.String(),
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}

	go func(rec cache.GameActionRecord) {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishGameAction(ctx, rec); err != nil {
			log.Errorf("Session %s: failed publishing action %d ('%s') to Redis: %v", g.ID, rec.ActionIndex, rec.ActionType, err)
		}
	}(record)
}

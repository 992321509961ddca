// internal/game/sync_state.go
package game

import (
	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/feng-mou-mou/Railof1914/service/internal/models"
)

// TurnState is the coordinator's position in the turn protocol.
type TurnState uint8

const (
	StateIdle           TurnState = iota // Not started, closed or game over.
	StateAwaitingPlayer                  // Human may act and end the turn.
	StateAwaitingAI                      // AI has control.
	StateAdvancing                       // NextRound in flight.
)

func (s TurnState) String() string {
	switch s {
	case StateAwaitingPlayer:
		return "awaiting_player"
	case StateAwaitingAI:
		return "awaiting_ai"
	case StateAdvancing:
		return "advancing"
	}
	return "idle"
}

// Status returns the current turn status.
func (g *Session) Status() models.TurnStatus {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.statusLocked()
}

// EndTurnEnabled reports whether the human's end-turn control is active.
func (g *Session) EndTurnEnabled() bool {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.endTurnEnabled
}

// State returns the coordinator's turn state.
func (g *Session) State() TurnState {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.state
}

// statusLocked builds the status snapshot.
// Assumes lock is held by caller.
func (g *Session) statusLocked() models.TurnStatus {
	st := models.TurnStatus{
		State:          g.state.String(),
		Human:          g.Human,
		PlayerReady:    g.playerReady,
		AIReady:        g.aiReady,
		AIThinking:     g.aiThinking,
		EndTurnEnabled: g.endTurnEnabled,
	}
	if s := g.Store.Snapshot(); s != nil {
		st.Round = s.Round
		st.CurrentPlayer = s.CurrentPlayer
	}
	return st
}

// broadcastStatus sends the turn status to every spectator.
// Assumes lock is held by caller.
func (g *Session) broadcastStatus() {
	st := g.statusLocked()
	g.fireEvent(GameEvent{Type: EventTurnStatus, Round: st.Round, Player: st.CurrentPlayer, Status: &st})
}

// SyncState builds a state_sync event with the full snapshot, sent to a
// spectator when it connects.
func (g *Session) SyncState() GameEvent {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	st := g.statusLocked()
	return GameEvent{
		Type:        EventStateSync,
		Round:       st.Round,
		Player:      st.CurrentPlayer,
		Status:      &st,
		State:       g.Store.Snapshot(),
		MergedTowns: g.mergedTownTiles(),
	}
}

// mergedTownTiles returns the merged-town tiles, or nil without a source.
func (g *Session) mergedTownTiles() map[string][]engine.Hex {
	if g.MergedTowns == nil {
		return nil
	}
	return g.MergedTowns.MergedTownTiles()
}

// internal/game/ai_turn.go
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/feng-mou-mou/Railof1914/service/internal/ai"
	log "github.com/sirupsen/logrus"
)

// scheduleAI triggers the AI after delay, unless the round moves on first.
// Assumes lock is held by caller.
func (g *Session) scheduleAI(delay time.Duration) {
	if g.aiStartTimer != nil {
		g.aiStartTimer.Stop()
	}
	curTurnID := g.TurnID
	g.aiStartTimer = time.AfterFunc(delay, func() {
		go func(expectedTurnID int) {
			g.Mu.Lock()
			defer g.Mu.Unlock()

			isValid := !g.closed && g.TurnID == expectedTurnID && g.state == StateAwaitingAI
			if isValid {
				g.triggerAI()
			}
		}(curTurnID)
	})
}

// triggerAI starts an AI run: the thinking delay, then the engine in its own
// goroutine, raced against the AI timeout.
// Assumes lock is held by caller.
func (g *Session) triggerAI() {
	if !g.AIEnabled || g.aiThinking || g.closed {
		return
	}
	g.aiRunID++
	runID := g.aiRunID
	g.aiThinking = true
	g.aiReady = false
	log.Infof("Session %s: AI %s thinking (run %d, round %d).", g.ID, g.AIFaction, runID, g.Store.Round())
	g.fireEvent(GameEvent{Type: EventAIThinking, Round: g.Store.Round(), Player: g.AIFaction})

	g.aiStartTimer = time.AfterFunc(g.Timings.ThinkingTime, func() {
		go g.runAI(runID)
	})
	g.aiTimeoutTimer = time.AfterFunc(g.Timings.AITimeout, func() {
		go g.handleAITimeout(runID)
	})
}

// runAI executes one AI turn and reports its completion.
func (g *Session) runAI(runID int) {
	g.Mu.Lock()
	if g.closed || g.aiRunID != runID || !g.aiThinking {
		g.Mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(g.baseCtx, g.Timings.AITimeout)
	g.cancelAI = cancel
	g.Mu.Unlock()

	out := g.ai.TakeTurn(ctx)
	cancel()
	g.onAIComplete(runID, out)
}

// onAIComplete marks the AI ready, refreshes state and either advances the
// round or hands control back to the human. A completion that arrives after
// the timeout already fired is discarded.
func (g *Session) onAIComplete(runID int, out ai.Outcome) {
	g.Mu.Lock()
	if g.aiRunID != runID || !g.aiThinking {
		log.Infof("Session %s: discarding late AI completion for run %d.", g.ID, runID)
		g.Mu.Unlock()
		return
	}
	if g.aiTimeoutTimer != nil {
		g.aiTimeoutTimer.Stop()
		g.aiTimeoutTimer = nil
	}
	g.cancelAI = nil
	g.aiThinking = false
	g.aiReady = true
	ctx := g.baseCtx
	g.Mu.Unlock()

	if _, err := g.gateway.FetchGameState(ctx); err != nil {
		log.Warnf("Session %s: state refresh after AI turn failed: %v", g.ID, err)
	}

	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.closed {
		return
	}
	msg := "AI没有采取行动"
	switch {
	case !out.Passed:
		msg = fmt.Sprintf("AI完成了%d个行动", len(out.Actions))
	case out.Reinforced != "":
		msg = fmt.Sprintf("AI正在增援%s", out.Reinforced)
	}
	log.Infof("Session %s: AI run %d done: %d actions, %d failures.", g.ID, runID, len(out.Actions), out.Failures)
	g.logAction(g.AIFaction, "ai_done", map[string]interface{}{
		"actions":     out.Actions,
		"failures":    out.Failures,
		"declaredWar": out.DeclaredWar,
		"reinforced":  out.Reinforced,
	})
	g.fireEvent(GameEvent{Type: EventAIDone, Round: g.Store.Round(), Player: g.AIFaction, Message: msg})
	g.finishAITurn()
}

// handleAITimeout force-completes a run that has not finished. Control goes
// back to the human with end-turn re-enabled.
func (g *Session) handleAITimeout(runID int) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.closed || g.aiRunID != runID || !g.aiThinking {
		return
	}
	g.AITimeouts++
	log.Warnf("Session %s: AI run %d timed out after %s, forcing completion.", g.ID, runID, g.Timings.AITimeout)
	if g.aiStartTimer != nil {
		g.aiStartTimer.Stop()
		g.aiStartTimer = nil
	}
	if g.cancelAI != nil {
		g.cancelAI()
		g.cancelAI = nil
	}
	g.aiTimeoutTimer = nil
	g.aiThinking = false
	g.aiReady = true
	g.playerReady = false
	g.logAction(g.AIFaction, "ai_timeout", nil)
	g.fireEvent(GameEvent{Type: EventAITimeout, Round: g.Store.Round(), Player: g.AIFaction, Message: "AI思考超时，已强制结束"})

	g.handTo(g.Human)
	g.state = StateAwaitingPlayer
	g.endTurnEnabled = true
	g.broadcastStatus()
}

// finishAITurn advances the round if the human is already waiting, else hands
// control back to the human.
// Assumes lock is held by caller.
func (g *Session) finishAITurn() {
	if g.playerReady {
		g.state = StateAwaitingPlayer
		g.endTurnEnabled = false
		g.scheduleAdvance(g.Timings.HandbackDelay)
	} else {
		g.handTo(g.Human)
		g.state = StateAwaitingPlayer
		g.endTurnEnabled = true
	}
	g.broadcastStatus()
}

// internal/database/journal.go
package database

import (
	"context"
	"errors"
	"time"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ErrNoDatabase is returned when journaling is attempted without a pool.
var ErrNoDatabase = errors.New("database not configured")

// RoundRecord is one journal row, written after every successful advance.
type RoundRecord struct {
	SessionID     uuid.UUID
	Round         int
	Phase         string
	CurrentPlayer string
	CentralGDP    int
	EntenteGDP    int
	WarDeclared   bool
	RecordedAt    time.Time
}

// RecordFromState captures the journal fields of a snapshot.
func RecordFromState(sessionID uuid.UUID, s *engine.MatchState, at time.Time) RoundRecord {
	return RoundRecord{
		SessionID:     sessionID,
		Round:         s.Round,
		Phase:         s.Phase.String(),
		CurrentPlayer: s.CurrentPlayer.String(),
		CentralGDP:    s.GDP(engine.FactionCentral),
		EntenteGDP:    s.GDP(engine.FactionEntente),
		WarDeclared:   s.WarDeclared,
		RecordedAt:    at.UTC(),
	}
}

// UpsertSession registers the session.
func UpsertSession(ctx context.Context, id uuid.UUID, human engine.Faction, difficulty engine.Difficulty) error {
	if DB == nil {
		return ErrNoDatabase
	}
	_, err := DB.Exec(ctx, `
		INSERT INTO sessions (id, human, difficulty) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET human = EXCLUDED.human, difficulty = EXCLUDED.difficulty`,
		id, human.String(), difficulty.String())
	return err
}

// InsertRoundRecord writes rec and bumps the session's last round. A repeat of
// the same round overwrites the earlier row.
func InsertRoundRecord(ctx context.Context, rec RoundRecord) error {
	if DB == nil {
		return ErrNoDatabase
	}
	tx, err := DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO round_records (session_id, round, phase, current_player, central_gdp, entente_gdp, war_declared, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id, round) DO UPDATE SET
			phase = EXCLUDED.phase, current_player = EXCLUDED.current_player,
			central_gdp = EXCLUDED.central_gdp, entente_gdp = EXCLUDED.entente_gdp,
			war_declared = EXCLUDED.war_declared, recorded_at = EXCLUDED.recorded_at`,
		rec.SessionID, rec.Round, rec.Phase, rec.CurrentPlayer, rec.CentralGDP, rec.EntenteGDP, rec.WarDeclared, rec.RecordedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE sessions SET last_round = GREATEST(last_round, $2) WHERE id = $1`, rec.SessionID, rec.Round); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// JournalRound writes a round record in the background, logging failures.
func JournalRound(sessionID uuid.UUID, s *engine.MatchState) {
	rec := RecordFromState(sessionID, s, time.Now())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := InsertRoundRecord(ctx, rec); err != nil {
		log.Errorf("Session %s: failed journaling round %d: %v", sessionID, rec.Round, err)
	}
}

// LoadRoundRecords returns the journal of a session in round order.
func LoadRoundRecords(ctx context.Context, sessionID uuid.UUID) ([]RoundRecord, error) {
	if DB == nil {
		return nil, ErrNoDatabase
	}
	rows, err := DB.Query(ctx, `
		SELECT session_id, round, phase, current_player, central_gdp, entente_gdp, war_declared, recorded_at
		FROM round_records WHERE session_id = $1 ORDER BY round`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RoundRecord
	for rows.Next() {
		var r RoundRecord
		if err := rows.Scan(&r.SessionID, &r.Round, &r.Phase, &r.CurrentPlayer, &r.CentralGDP, &r.EntenteGDP, &r.WarDeclared, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

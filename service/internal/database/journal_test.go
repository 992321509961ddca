package database

import (
	"context"
	"os"
	"testing"
	"time"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFromState(t *testing.T) {
	s := engine.PlaceholderState(engine.FactionEntente)
	s.Round = 31
	s.Phase = engine.PhaseTension
	s.WarDeclared = true
	s.Players[engine.FactionCentral] = engine.PlayerResources{GDP: 480}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	id := uuid.New()

	rec := RecordFromState(id, s, at)
	assert.Equal(t, id, rec.SessionID)
	assert.Equal(t, 31, rec.Round)
	assert.Equal(t, "紧张期", rec.Phase)
	assert.Equal(t, "协约国", rec.CurrentPlayer)
	assert.Equal(t, 480, rec.CentralGDP)
	assert.Equal(t, 200, rec.EntenteGDP)
	assert.True(t, rec.WarDeclared)
	assert.Equal(t, time.UTC, rec.RecordedAt.Location())
}

func TestJournal_NoDatabase(t *testing.T) {
	saved := DB
	DB = nil
	defer func() { DB = saved }()
	ctx := context.Background()
	assert.ErrorIs(t, UpsertSession(ctx, uuid.New(), engine.FactionCentral, engine.DifficultyEasy), ErrNoDatabase)
	assert.ErrorIs(t, InsertRoundRecord(ctx, RoundRecord{}), ErrNoDatabase)
	_, err := LoadRoundRecords(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNoDatabase)
}

// TestJournal_RoundTrip runs against a real server when DATABASE_URL is set.
func TestJournal_RoundTrip(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, Connect(ctx, url))
	defer Close()

	id := uuid.New()
	require.NoError(t, UpsertSession(ctx, id, engine.FactionEntente, engine.DifficultyMedium))
	defer DB.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)

	s := engine.PlaceholderState(engine.FactionEntente)
	for round := 1; round <= 3; round++ {
		s.Round = round
		require.NoError(t, InsertRoundRecord(ctx, RecordFromState(id, s, time.Now())))
	}
	require.NoError(t, InsertRoundRecord(ctx, RecordFromState(id, s, time.Now())))

	recs, err := LoadRoundRecords(ctx, id)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, 1, recs[0].Round)
	assert.Equal(t, 3, recs[2].Round)
}

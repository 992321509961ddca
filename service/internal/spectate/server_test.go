package spectate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/feng-mou-mou/Railof1914/service/internal/auth"
	"github.com/feng-mou-mou/Railof1914/service/internal/game"
	"github.com/feng-mou-mou/Railof1914/service/internal/gateway"
	"github.com/feng-mou-mou/Railof1914/service/internal/models"
	"github.com/feng-mou-mou/Railof1914/service/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu        sync.Mutex
	readyErr  error
	readyHits int
	status    models.TurnStatus
	role      *engine.Role
}

func newFakeController() *fakeController {
	return &fakeController{
		status: models.TurnStatus{State: "awaiting_player", Round: 3, Human: engine.FactionEntente, EndTurnEnabled: true},
		role:   engine.DefaultRole(engine.FactionEntente),
	}
}

func (f *fakeController) Status() models.TurnStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeController) MarkPlayerReady(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyHits++
	if f.readyErr != nil {
		return f.readyErr
	}
	f.status.PlayerReady = true
	f.status.EndTurnEnabled = false
	return nil
}

func (f *fakeController) setReadyErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyErr = err
}

func (f *fakeController) hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readyHits
}

func (f *fakeController) UseAbility(id string) (engine.Ability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.role.Activate(id)
	if err != nil {
		return engine.Ability{}, err
	}
	return *a, nil
}

func (f *fakeController) Abilities() []engine.Ability {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]engine.Ability, 0, len(f.role.Abilities))
	for _, a := range f.role.Abilities {
		out = append(out, *a)
	}
	return out
}

func (f *fakeController) SyncState() game.GameEvent {
	st := f.Status()
	return game.GameEvent{Type: game.EventStateSync, Round: st.Round, Status: &st}
}

func setupServer(t *testing.T, st *store.GameStateStore, opts ...Option) (*fakeController, *Hub, *httptest.Server) {
	t.Helper()
	ctrl := newFakeController()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(NewServer(ctrl, st, hub, opts...).Handler())
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return ctrl, hub, srv
}

func TestState_NotLoaded(t *testing.T) {
	_, _, srv := setupServer(t, store.New(nil))

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestState_ReturnsSnapshot(t *testing.T) {
	_, _, srv := setupServer(t, store.New(engine.PlaceholderState(engine.FactionCentral)))

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view models.StateView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.NotNil(t, view.State)
	assert.Equal(t, 1, view.State.Round)
	assert.Equal(t, engine.FactionCentral, view.State.CurrentPlayer)
	assert.Empty(t, view.MergedTowns)
}

// mergeBackend serves a two-village Entente position and applies merges and
// round advances to it.
type mergeBackend struct {
	mu    sync.Mutex
	state *engine.MatchState
}

func newMergeBackend(t *testing.T) (*mergeBackend, *httptest.Server) {
	t.Helper()
	village := func(name string, q, r int) engine.Town {
		h := engine.NewHex(q, r)
		return engine.Town{Name: name, Level: engine.LevelVillage, Owner: engine.FactionEntente, Population: 40, Coords: &h}
	}
	mb := &mergeBackend{state: &engine.MatchState{
		Round:         12,
		Phase:         engine.PhaseProtection,
		CurrentPlayer: engine.FactionEntente,
		Regions: []engine.Region{{
			ID:       "FR-3",
			Name:     "法国前线",
			HexTiles: []engine.Hex{engine.NewHex(0, 0), engine.NewHex(1, 0), engine.NewHex(0, 1)},
			Towns:    []engine.Town{village("法01号城", 0, 0), village("法02号城", 1, 0)},
			Railways: []engine.Railway{{Start: engine.NewHex(0, 0), End: engine.NewHex(1, 0), Level: engine.RailTier1}},
		}},
		Players: map[engine.Faction]engine.PlayerResources{
			engine.FactionEntente: {GDP: 320},
			engine.FactionCentral: {GDP: 180},
		},
	}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mb.mu.Lock()
		switch r.URL.Path {
		case "/api/upgrade-town":
			merged := village("法01号城 - 法02号城", 0, 0)
			merged.Level = engine.LevelSmallCity
			mb.state.Regions[0].Towns = []engine.Town{merged}
		case "/api/next-round":
			mb.state.Round++
		}
		s := mb.state.Clone()
		mb.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/game-state" {
			_ = json.NewEncoder(w).Encode(s)
			return
		}
		_ = json.NewEncoder(w).Encode(models.ActionResponse{Success: true, GameState: s})
	}))
	t.Cleanup(srv.Close)
	return mb, srv
}

func TestState_MergedTownsSurviveRoundAdvance(t *testing.T) {
	_, backend := newMergeBackend(t)
	st := store.New(nil)
	gw := gateway.New(backend.URL, st)
	ctx := context.Background()
	_, err := gw.FetchGameState(ctx)
	require.NoError(t, err)
	_, _, srv := setupServer(t, st, WithMergedTowns(gw))

	key, err := gw.MergeTowns(ctx, engine.FactionEntente, "FR-3", "法01号城", "法02号城")
	require.NoError(t, err)
	_, err = gw.NextRound(ctx, engine.FactionEntente)
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view models.StateView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.NotNil(t, view.State)
	assert.Equal(t, 13, view.State.Round)
	require.Contains(t, view.MergedTowns, key)
	assert.ElementsMatch(t, []engine.Hex{engine.NewHex(0, 0), engine.NewHex(1, 0)}, view.MergedTowns[key])
}

func TestReady_Accepted(t *testing.T) {
	ctrl, _, srv := setupServer(t, store.New(nil))

	resp, err := http.Post(srv.URL+"/api/ready", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var st models.TurnStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.True(t, st.PlayerReady)
	assert.False(t, st.EndTurnEnabled)
	assert.Equal(t, 1, ctrl.hits())
}

func TestReady_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"advance in flight", game.ErrAdvanceInFlight, http.StatusConflict},
		{"not player turn", game.ErrNotPlayerTurn, http.StatusConflict},
		{"game over", game.ErrGameOver, http.StatusGone},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, _, srv := setupServer(t, store.New(nil))
			ctrl.setReadyErr(tt.err)

			resp, err := http.Post(srv.URL+"/api/ready", "application/json", nil)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestUseAbility(t *testing.T) {
	_, _, srv := setupServer(t, store.New(nil))

	resp, err := http.Post(srv.URL+"/api/abilities/"+engine.AbilityElasticDefense, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var a engine.Ability
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&a))
	assert.True(t, a.Used)
	assert.Equal(t, 5, a.TurnsLeft)

	again, err := http.Post(srv.URL+"/api/abilities/"+engine.AbilityElasticDefense, "application/json", nil)
	require.NoError(t, err)
	defer again.Body.Close()
	assert.Equal(t, http.StatusBadRequest, again.StatusCode, "an active ability cannot be reused")

	list, err := http.Get(srv.URL + "/api/abilities")
	require.NoError(t, err)
	defer list.Body.Close()
	var all []engine.Ability
	require.NoError(t, json.NewDecoder(list.Body).Decode(&all))
	assert.Len(t, all, 2)
}

func TestAuth_RequiresHumanToken(t *testing.T) {
	signer := auth.NewSigner("test-secret")
	ctrl, _, srv := setupServer(t, store.New(nil), WithAuth(signer, engine.FactionEntente))

	post := func(token string) int {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/ready", nil)
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, post(""))

	central, err := signer.Mint(uuid.New(), engine.FactionCentral)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, post(central))
	assert.Equal(t, 0, ctrl.hits())

	entente, err := signer.Mint(uuid.New(), engine.FactionEntente)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, post(entente))

	// Reads stay open.
	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocket_SyncThenBroadcast(t *testing.T) {
	_, hub, srv := setupServer(t, store.New(nil))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var first game.GameEvent
	require.NoError(t, wsjson.Read(ctx, conn, &first))
	assert.Equal(t, game.EventStateSync, first.Type)
	require.NotNil(t, first.Status)
	assert.Equal(t, 3, first.Status.Round)

	require.Eventually(t, func() bool { return hub.Clients(ctx) == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(game.GameEvent{Type: game.EventRoundAdvanced, Round: 4, Player: engine.FactionCentral})

	var next game.GameEvent
	require.NoError(t, wsjson.Read(ctx, conn, &next))
	assert.Equal(t, game.EventRoundAdvanced, next.Type)
	assert.Equal(t, 4, next.Round)
	assert.Equal(t, engine.FactionCentral, next.Player)
}

func TestWebSocket_DisconnectUnregisters(t *testing.T) {
	_, hub, srv := setupServer(t, store.New(nil))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	var first game.GameEvent
	require.NoError(t, wsjson.Read(ctx, conn, &first))
	require.Eventually(t, func() bool { return hub.Clients(ctx) == 1 }, time.Second, 10*time.Millisecond)

	conn.Close(websocket.StatusNormalClosure, "bye")
	assert.Eventually(t, func() bool { return hub.Clients(ctx) == 0 }, 2*time.Second, 10*time.Millisecond)
}

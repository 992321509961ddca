package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/feng-mou-mou/Railof1914/service/internal/models"
	"github.com/feng-mou-mou/Railof1914/service/internal/store"
)

// fakeBackend is an httptest server standing in for the game backend. Each
// path can be given a custom handler; /api/game-state serves State by default.
type fakeBackend struct {
	mu       sync.Mutex
	State    *engine.MatchState
	handlers map[string]http.HandlerFunc
	calls    map[string]int
	bodies   map[string][]byte
	headers  map[string]http.Header
	srv      *httptest.Server
}

func newFakeBackend(t *testing.T, s *engine.MatchState) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		State:    s,
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
		bodies:   make(map[string][]byte),
		headers:  make(map[string]http.Header),
	}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	fb.mu.Lock()
	fb.calls[r.URL.Path]++
	fb.bodies[r.URL.Path] = body
	fb.headers[r.URL.Path] = r.Header.Clone()
	h := fb.handlers[r.URL.Path]
	state := fb.State
	fb.mu.Unlock()

	if h != nil {
		h(w, r)
		return
	}
	if r.URL.Path == pathGameState {
		writeJSON(w, http.StatusOK, state)
		return
	}
	writeJSON(w, http.StatusOK, models.ActionResponse{Success: true, GameState: state})
}

// handle installs a handler for path.
func (fb *fakeBackend) handle(path string, h http.HandlerFunc) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handlers[path] = h
}

// callCount returns how many requests hit path.
func (fb *fakeBackend) callCount(path string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[path]
}

// totalCalls counts every request the backend saw.
func (fb *fakeBackend) totalCalls() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	n := 0
	for _, c := range fb.calls {
		n += c
	}
	return n
}

// lastBody decodes the most recent request body sent to path.
func (fb *fakeBackend) lastBody(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	fb.mu.Lock()
	raw := fb.bodies[path]
	fb.mu.Unlock()
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode request body for %s: %v", path, err)
	}
	return out
}

func (fb *fakeBackend) lastHeader(path string) http.Header {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.headers[path]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func hexPtr(q, r int) *engine.Hex {
	h := engine.NewHex(q, r)
	return &h
}

// testState is an Entente position in round 12: two railway-linked villages
// in FR-3 and an empty Central frontline.
func testState() *engine.MatchState {
	return &engine.MatchState{
		Round:         12,
		Phase:         engine.PhaseProtection,
		CurrentPlayer: engine.FactionEntente,
		Regions: []engine.Region{
			{
				ID:   "FR-3",
				Name: "法国前线",
				HexTiles: []engine.Hex{
					engine.NewHex(0, 0), engine.NewHex(1, 0), engine.NewHex(0, 1),
					engine.NewHex(1, 1), engine.NewHex(2, 0),
				},
				Towns: []engine.Town{
					{Name: "法01号城", Level: engine.LevelVillage, Owner: engine.FactionEntente, Population: 40, Coords: hexPtr(0, 0)},
					{Name: "法02号城", Level: engine.LevelVillage, Owner: engine.FactionEntente, Population: 40, Coords: hexPtr(1, 0)},
				},
				Railways: []engine.Railway{
					{Start: engine.NewHex(0, 0), End: engine.NewHex(1, 0), Level: engine.RailTier1},
				},
			},
			{ID: "GE-3", Name: "德国前线", HexTiles: []engine.Hex{engine.NewHex(5, 5)}},
		},
		Players: map[engine.Faction]engine.PlayerResources{
			engine.FactionEntente: {GDP: 320},
			engine.FactionCentral: {GDP: 180},
		},
	}
}

// newTestClient returns a client against fb whose store holds testState.
func newTestClient(t *testing.T, fb *fakeBackend, opts ...Option) *Client {
	t.Helper()
	return New(fb.srv.URL, store.New(testState()), opts...)
}

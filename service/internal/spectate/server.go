// internal/spectate/server.go
package spectate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/feng-mou-mou/Railof1914/service/internal/auth"
	"github.com/feng-mou-mou/Railof1914/service/internal/game"
	"github.com/feng-mou-mou/Railof1914/service/internal/models"
	"github.com/feng-mou-mou/Railof1914/service/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Controller is the coordinator surface the renderer drives.
type Controller interface {
	Status() models.TurnStatus
	MarkPlayerReady(ctx context.Context) error
	UseAbility(id string) (engine.Ability, error)
	Abilities() []engine.Ability
	SyncState() game.GameEvent
}

// Server exposes the current state, the turn status and the human's turn
// controls to a browser renderer.
type Server struct {
	ctrl   Controller
	store  *store.GameStateStore
	hub    *Hub
	signer *auth.Signer
	human  engine.Faction
	merged game.MergedTownSource
	router *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithAuth requires a bearer token minted for the human faction on the turn
// controls. A disabled signer leaves them open.
func WithAuth(signer *auth.Signer, human engine.Faction) Option {
	return func(s *Server) {
		s.signer = signer
		s.human = human
	}
}

// WithMergedTowns adds merged-town tiles to /api/state.
func WithMergedTowns(src game.MergedTownSource) Option { return func(s *Server) { s.merged = src } }

// NewServer builds the router.
func NewServer(ctrl Controller, st *store.GameStateStore, hub *Hub, opts ...Option) *Server {
	s := &Server{ctrl: ctrl, store: st, hub: hub}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/abilities", s.handleAbilities).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)

	controls := r.PathPrefix("/api").Subrouter()
	controls.Use(s.requireToken)
	controls.HandleFunc("/ready", s.handleReady).Methods(http.MethodPost)
	controls.HandleFunc("/abilities/{id}", s.handleUseAbility).Methods(http.MethodPost)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "game state not loaded")
		return
	}
	view := models.StateView{State: snap, MergedTowns: map[string][]engine.Hex{}}
	if s.merged != nil {
		for name, tiles := range s.merged.MergedTownTiles() {
			view.MergedTowns[name] = tiles
		}
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleAbilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Abilities())
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	err := s.ctrl.MarkPlayerReady(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, s.ctrl.Status())
	case errors.Is(err, game.ErrAdvanceInFlight), errors.Is(err, game.ErrNotPlayerTurn):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrGameOver):
		writeError(w, http.StatusGone, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleUseAbility(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	a, err := s.ctrl.UseAbility(id)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, game.ErrGameOver) {
			status = http.StatusGone
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleWS upgrades to a websocket, sends a state_sync and then streams every
// broadcast event. Messages from the client are ignored.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Warnf("spectate: websocket accept failed: %v", err)
		return
	}
	c := &client{id: uuid.New(), conn: conn, send: make(chan []byte, clientBuffer)}

	if data, err := json.Marshal(s.ctrl.SyncState()); err == nil {
		c.send <- data
	}

	ctx := conn.CloseRead(r.Context())
	select {
	case s.hub.register <- c:
	case <-ctx.Done():
		conn.Close(websocket.StatusGoingAway, "")
		return
	}

	done := make(chan struct{})
	go func() {
		c.writer(ctx)
		close(done)
	}()

	select {
	case <-ctx.Done():
		select {
		case s.hub.unregister <- c:
		case <-done:
		}
	case <-done:
		select {
		case s.hub.unregister <- c:
		case <-ctx.Done():
		}
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

// requireToken checks the bearer token when a signer is configured.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.signer.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		claims, err := s.signer.Parse(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if f, ok := claims.Faction(); !ok || f != s.human {
			writeError(w, http.StatusForbidden, "token is not for the human faction")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debugf("spectate: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

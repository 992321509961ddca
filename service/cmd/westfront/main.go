// cmd/westfront/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/feng-mou-mou/Railof1914/service/internal/ai"
	"github.com/feng-mou-mou/Railof1914/service/internal/auth"
	"github.com/feng-mou-mou/Railof1914/service/internal/cache"
	"github.com/feng-mou-mou/Railof1914/service/internal/config"
	"github.com/feng-mou-mou/Railof1914/service/internal/database"
	"github.com/feng-mou-mou/Railof1914/service/internal/game"
	"github.com/feng-mou-mou/Railof1914/service/internal/gateway"
	"github.com/feng-mou-mou/Railof1914/service/internal/models"
	"github.com/feng-mou-mou/Railof1914/service/internal/spectate"
	"github.com/feng-mou-mou/Railof1914/service/internal/store"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("westfront: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if cfg.RedisURL != "" {
		if err := cache.Connect(ctx, cfg.RedisURL); err != nil {
			log.Warnf("Redis unavailable, continuing without action log: %v", err)
		}
		defer cache.Close()
	}
	if cfg.DatabaseURL != "" {
		if err := database.Connect(ctx, cfg.DatabaseURL); err != nil {
			log.Warnf("Postgres unavailable, continuing without journal: %v", err)
		}
		defer database.Close()
	}

	st := store.New(nil)
	signer := auth.NewSigner(cfg.JWTSecret)

	// The session is created after the gateway; log entries arriving before
	// that are only written to the process log.
	var session *game.Session
	sessionID := cfg.SessionUUID()

	opts := []gateway.Option{
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		gateway.WithRateLimit(cfg.RateLimit),
		gateway.WithActionLog(func(e models.LogEntry) {
			if session != nil {
				session.RecordLog(e)
				return
			}
			log.Infof("[%s] %s", e.Actor, e.Message)
		}),
	}
	if signer.Enabled() {
		opts = append(opts, gateway.WithBearerToken(func() (string, error) {
			return signer.Mint(sessionID, cfg.Faction)
		}))
	}
	if cache.Rdb != nil {
		opts = append(opts, gateway.WithMergedTownCache(cache.NewRedisMergedTowns(cache.Rdb, sessionID)))
	}
	gw := gateway.New(cfg.BaseURL, st, opts...)

	loadCtx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
	s, err := gw.FetchGameState(loadCtx)
	cancel()
	if err != nil {
		log.Warnf("Initial state unavailable (%s), starting from placeholder.", gateway.FriendlyMessage(err))
		st.Replace(engine.PlaceholderState(cfg.Faction))
	} else {
		log.Infof("Loaded round %d, restored %d merged towns.", s.Round, len(gw.MergedTownTiles()))
	}

	var player game.AIPlayer
	var brain ai.Brain
	if cfg.AIEnabled {
		brain, err = ai.NewBrain(cfg.Difficulty)
		if err != nil {
			return err
		}
		player = ai.NewEngine(cfg.Faction.Opponent(), brain, gw, st)
	}

	timings := game.DefaultTimings(brain)
	timings.AITimeout = cfg.AITimeout
	hub := spectate.NewHub()

	session = game.NewSession(cfg.Faction, st, gw, player, timings)
	session.ID = sessionID
	session.BroadcastFn = hub.Broadcast
	session.MergedTowns = gw

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           spectate.NewServer(session, st, hub, spectate.WithAuth(signer, cfg.Faction), spectate.WithMergedTowns(gw)).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return session.Run(gctx) })
	g.Go(func() error {
		log.Infof("Spectate surface listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

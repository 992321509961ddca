// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds runtime settings for the westfront client.
type Config struct {
	BaseURL     string            // Backend root, e.g. http://localhost:5000.
	Faction     engine.Faction    // Human faction; the AI plays the opponent.
	Difficulty  engine.Difficulty // AI difficulty.
	AIEnabled   bool
	AITimeout   time.Duration // Forced completion of a stuck AI turn.
	HTTPTimeout time.Duration
	RateLimit   float64 // Requests per second to the backend; 0 disables limiting.
	ListenAddr  string  // Spectate HTTP/WS surface.
	LogLevel    string
	RedisURL    string // Optional action log and merged-town cache.
	DatabaseURL string // Optional session journal.
	JWTSecret   string // Optional bearer token signing key.
	SessionID   string // Optional; see SessionUUID.
}

// Default returns the settings used when no environment is provided.
func Default() Config {
	return Config{
		BaseURL:     "http://localhost:5000",
		Faction:     engine.FactionEntente,
		Difficulty:  engine.DifficultyMedium,
		AIEnabled:   true,
		AITimeout:   10 * time.Second,
		HTTPTimeout: 8 * time.Second,
		RateLimit:   0,
		ListenAddr:  ":8090",
		LogLevel:    "info",
	}
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		log.Warnf("config: could not load env file: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, starting from Default.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv("WESTFRONT_BASE_URL"); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v := getenv("WESTFRONT_FACTION"); v != "" {
		f, ok := engine.ParseFaction(v)
		if !ok {
			return cfg, fmt.Errorf("config: unknown faction %q", v)
		}
		cfg.Faction = f
	}
	if v := getenv("WESTFRONT_AI_DIFFICULTY"); v != "" {
		cfg.Difficulty = engine.ParseDifficulty(v)
	}
	if v := getenv("WESTFRONT_AI_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("config: WESTFRONT_AI_ENABLED: %w", err)
		}
		cfg.AIEnabled = b
	}
	var err error
	if cfg.AITimeout, err = durationVar(getenv, "WESTFRONT_AI_TIMEOUT", cfg.AITimeout); err != nil {
		return cfg, err
	}
	if cfg.HTTPTimeout, err = durationVar(getenv, "WESTFRONT_HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return cfg, err
	}
	if v := getenv("WESTFRONT_RATE_LIMIT"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r < 0 {
			return cfg, fmt.Errorf("config: WESTFRONT_RATE_LIMIT must be a non-negative number, got %q", v)
		}
		cfg.RateLimit = r
	}
	if v := getenv("WESTFRONT_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := getenv("WESTFRONT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.RedisURL = getenv("REDIS_URL")
	cfg.DatabaseURL = getenv("DATABASE_URL")
	cfg.JWTSecret = getenv("WESTFRONT_JWT_SECRET")
	if v := getenv("WESTFRONT_SESSION_ID"); v != "" {
		if _, err := uuid.Parse(v); err != nil {
			return cfg, fmt.Errorf("config: WESTFRONT_SESSION_ID: %w", err)
		}
		cfg.SessionID = v
	}
	return cfg, nil
}

// SessionUUID identifies this client's match across restarts. It is the
// configured session id when set, otherwise a name-based id derived from the
// backend URL and the human faction, so the merged-town cache and the journal
// are found again after a restart against the same game.
func (c Config) SessionUUID() uuid.UUID {
	if id, err := uuid.Parse(c.SessionID); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(c.BaseURL+"#"+c.Faction.String()))
}

// durationVar parses a Go duration, or a bare integer as milliseconds.
func durationVar(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

// ConfigureLogging applies the configured level to the standard logrus logger.
func (c Config) ConfigureLogging() {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("config: unknown log level %q, using info", c.LogLevel)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

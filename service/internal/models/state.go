// internal/models/state.go
package models

import engine "github.com/feng-mou-mou/Railof1914/engine"

// MapRegion is one entry of GET /api/map-data.
type MapRegion struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	HexTiles []engine.Hex   `json:"hex_tiles"`
	Faction  engine.Faction `json:"faction"`
}

// MapData is the static map layout.
type MapData struct {
	Regions []MapRegion `json:"regions"`
}

// StateView is the body of GET /api/state: the snapshot plus every tile of
// each merged town, which the snapshot reports as a single coordinate.
type StateView struct {
	State       *engine.MatchState      `json:"state"`
	MergedTowns map[string][]engine.Hex `json:"mergedTowns"`
}

// TurnStatus is the coordinator's view of the turn, exposed to the renderer.
type TurnStatus struct {
	State          string         `json:"state"`
	Round          int            `json:"round"`
	CurrentPlayer  engine.Faction `json:"currentPlayer"`
	Human          engine.Faction `json:"human"`
	PlayerReady    bool           `json:"playerReady"`
	AIReady        bool           `json:"aiReady"`
	AIThinking     bool           `json:"aiThinking"`
	EndTurnEnabled bool           `json:"endTurnEnabled"`
}

// LogEntry is a human-readable line for the action log panel.
type LogEntry struct {
	Round   int            `json:"round"`
	Actor   engine.Faction `json:"actor"`
	Message string         `json:"message"`
	AtMilli int64          `json:"at"`
}

// internal/models/actions.go
package models

import engine "github.com/feng-mou-mou/Railof1914/engine"

// ActionResponse is the envelope every mutating backend endpoint returns.
// GameState is present on success and sometimes on rejection.
type ActionResponse struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message,omitempty"`
	Error     string             `json:"error,omitempty"`
	GameState *engine.MatchState `json:"game_state,omitempty"`
	Amount    int                `json:"amount,omitempty"`   // Troops actually mobilized.
	TownName  string             `json:"townName,omitempty"` // Name the backend gave a merged town.
}

// Reason returns the most specific rejection text in the envelope.
func (r ActionResponse) Reason() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}

// ResetGameRequest is the body of POST /api/reset-game. Faction is "entente"
// or "germany".
type ResetGameRequest struct {
	Faction string `json:"faction"`
}

// NextRoundRequest is the body of POST /api/next-round.
type NextRoundRequest struct {
	Player engine.Faction `json:"player"`
}

// BuildTownRequest is the body of POST /api/build-town.
type BuildTownRequest struct {
	RegionID string         `json:"region_id"`
	Q        int            `json:"q"`
	R        int            `json:"r"`
	S        int            `json:"s"`
	TownName string         `json:"town_name"`
	Player   engine.Faction `json:"player"`
}

// BuildRailwayRequest is the body of POST /api/build-railway.
type BuildRailwayRequest struct {
	RegionID string         `json:"region_id"`
	StartQ   int            `json:"start_q"`
	StartR   int            `json:"start_r"`
	StartS   int            `json:"start_s"`
	EndQ     int            `json:"end_q"`
	EndR     int            `json:"end_r"`
	EndS     int            `json:"end_s"`
	Player   engine.Faction `json:"player"`
}

// MobilizeRequest is the body of POST /api/mobilize-troops. Either TownName and
// Amount are set, or IsRegionMobilization is true.
type MobilizeRequest struct {
	RegionID             string         `json:"region_id"`
	Player               engine.Faction `json:"player"`
	TownName             string         `json:"town_name,omitempty"`
	Amount               int            `json:"amount,omitempty"`
	IsRegionMobilization bool           `json:"is_region_mobilization,omitempty"`
}

// DeclareWarRequest is the body of POST /api/declare-war.
type DeclareWarRequest struct {
	Player   engine.Faction `json:"player"`
	RegionID string         `json:"region_id"`
}

// UpgradeTownRequest is the body of POST /api/upgrade-town. UpgradeType is the
// level of the two source towns ("village" or "small_city").
type UpgradeTownRequest struct {
	RegionID     string         `json:"region_id"`
	Town1Name    string         `json:"town1_name"`
	Town2Name    string         `json:"town2_name"`
	MergedName   string         `json:"merged_name"`
	Town1Q       int            `json:"town1_q"`
	Town1R       int            `json:"town1_r"`
	Town1S       int            `json:"town1_s"`
	Town2Q       int            `json:"town2_q"`
	Town2R       int            `json:"town2_r"`
	Town2S       int            `json:"town2_s"`
	AllLocations []engine.Hex   `json:"all_locations"`
	Player       engine.Faction `json:"player"`
	UpgradeType  string         `json:"upgrade_type"`
}

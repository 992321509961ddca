// internal/gateway/actions.go
package gateway

import (
	"context"
	"fmt"
	"net/http"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/feng-mou-mou/Railof1914/service/internal/models"
	log "github.com/sirupsen/logrus"
)

// Backend endpoint paths.
const (
	pathGameState    = "/api/game-state"
	pathMapData      = "/api/map-data"
	pathNextRound    = "/api/next-round"
	pathResetGame    = "/api/reset-game"
	pathBuildTown    = "/api/build-town"
	pathBuildRailway = "/api/build-railway"
	pathMobilize     = "/api/mobilize-troops"
	pathDeclareWar   = "/api/declare-war"
	pathUpgradeTown  = "/api/upgrade-town"
)

// snapshot returns the current state or a validation error if none is loaded.
func (c *Client) snapshot(op string) (*engine.MatchState, error) {
	s := c.store.Snapshot()
	if s == nil {
		return nil, &ValidationError{Op: op, Err: ErrStateNotLoaded}
	}
	return s, nil
}

// post sends an action, checks the envelope and applies the returned state.
// A success without a state in the body triggers a fresh fetch.
func (c *Client) post(ctx context.Context, op, path string, body interface{}) (*models.ActionResponse, error) {
	seq := c.store.Begin()
	var resp models.ActionResponse
	if err := c.do(ctx, op, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return &resp, &RejectionError{Op: op, Reason: resp.Reason()}
	}
	if resp.GameState != nil {
		if !c.store.Apply(seq, resp.GameState) {
			log.Debugf("gateway: %s response for seq %d was stale, dropped", op, seq)
		}
		return &resp, nil
	}
	if _, err := c.FetchGameState(ctx); err != nil {
		log.Warnf("gateway: %s succeeded but state refresh failed: %v", op, err)
	}
	return &resp, nil
}

// FetchGameState loads the authoritative state and replaces the snapshot.
func (c *Client) FetchGameState(ctx context.Context) (*engine.MatchState, error) {
	seq := c.store.Begin()
	var s engine.MatchState
	if err := c.do(ctx, "fetch game state", http.MethodGet, pathGameState, nil, &s); err != nil {
		return nil, err
	}
	c.store.Apply(seq, &s)
	c.refreshMergedTowns(ctx)
	return &s, nil
}

// FetchMapData loads the static region layout.
func (c *Client) FetchMapData(ctx context.Context) (*models.MapData, error) {
	var m models.MapData
	if err := c.do(ctx, "fetch map data", http.MethodGet, pathMapData, nil, &m); err != nil {
		return nil, err
	}
	for i := range m.Regions {
		for j := range m.Regions[i].HexTiles {
			m.Regions[i].HexTiles[j] = m.Regions[i].HexTiles[j].Normalize()
		}
	}
	return &m, nil
}

// NextRound asks the backend to advance one round on behalf of player.
func (c *Client) NextRound(ctx context.Context, player engine.Faction) (*engine.MatchState, error) {
	const op = "next round"
	if !player.Valid() {
		return nil, &ValidationError{Op: op, Err: fmt.Errorf("invalid player %v", player)}
	}
	resp, err := c.post(ctx, op, pathNextRound, models.NextRoundRequest{Player: player})
	if err != nil {
		return nil, err
	}
	if resp.GameState != nil {
		c.refreshMergedTowns(ctx)
	}
	s := resp.GameState
	if s == nil {
		s = c.store.Snapshot()
	}
	if s != nil {
		c.logAction(s.Round, player, fmt.Sprintf("进入第%d回合", s.Round))
	}
	return s, nil
}

// ResetGame restarts the backend match with player as the human side.
func (c *Client) ResetGame(ctx context.Context, player engine.Faction) (*engine.MatchState, error) {
	faction := "entente"
	if player == engine.FactionCentral {
		faction = "germany"
	}
	resp, err := c.post(ctx, "reset game", pathResetGame, models.ResetGameRequest{Faction: faction})
	if err != nil {
		return nil, err
	}
	c.logAction(1, player, "重置了游戏")
	return resp.GameState, nil
}

// BuildTown founds a village at h.
func (c *Client) BuildTown(ctx context.Context, player engine.Faction, regionID string, h engine.Hex, name string) error {
	const op = "build town"
	s, err := c.snapshot(op)
	if err != nil {
		return err
	}
	h = h.Normalize()
	if err := s.CheckBuildTown(player, regionID, h, name); err != nil {
		return &ValidationError{Op: op, Err: err}
	}
	req := models.BuildTownRequest{RegionID: regionID, Q: h.Q, R: h.R, S: h.S, TownName: name, Player: player}
	if _, err := c.post(ctx, op, pathBuildTown, req); err != nil {
		return err
	}
	c.logAction(s.Round, player, fmt.Sprintf("在%s建设了村庄%s", regionID, name))
	return nil
}

// BuildRailway lays one segment between adjacent hexes a and b.
func (c *Client) BuildRailway(ctx context.Context, player engine.Faction, regionID string, a, b engine.Hex) error {
	const op = "build railway"
	a, b = a.Normalize(), b.Normalize()
	if !engine.AreAdjacent(a, b) {
		return &ValidationError{Op: op, Err: fmt.Errorf("%w: %s and %s", engine.ErrNotAdjacent, a, b)}
	}
	s, err := c.snapshot(op)
	if err != nil {
		return err
	}
	if err := s.CheckBuildRailway(player, regionID, a, b); err != nil {
		return &ValidationError{Op: op, Err: err}
	}
	req := models.BuildRailwayRequest{
		RegionID: regionID,
		StartQ:   a.Q,
		StartR:   a.R,
		StartS:   a.S,
		EndQ:     b.Q,
		EndR:     b.R,
		EndS:     b.S,
		Player:   player,
	}
	if _, err := c.post(ctx, op, pathBuildRailway, req); err != nil {
		return err
	}
	c.logAction(s.Round, player, fmt.Sprintf("在%s建设了铁路%s-%s", regionID, a, b))
	return nil
}

// MobilizeTown mobilizes amount troops from one town and returns the number
// the backend actually mobilized.
func (c *Client) MobilizeTown(ctx context.Context, player engine.Faction, regionID, townName string, amount int) (int, error) {
	const op = "mobilize town"
	s, err := c.snapshot(op)
	if err != nil {
		return 0, err
	}
	if err := s.CheckMobilize(player, regionID, townName, amount); err != nil {
		return 0, &ValidationError{Op: op, Err: err}
	}
	req := models.MobilizeRequest{RegionID: regionID, Player: player, TownName: townName, Amount: amount}
	resp, err := c.post(ctx, op, pathMobilize, req)
	if err != nil {
		return 0, err
	}
	got := resp.Amount
	if got == 0 {
		got = amount
	}
	c.logAction(s.Round, player, fmt.Sprintf("从%s动员了%d兵力", townName, got))
	return got, nil
}

// MobilizeRegion mobilizes every available town in a region.
func (c *Client) MobilizeRegion(ctx context.Context, player engine.Faction, regionID string) (int, error) {
	const op = "mobilize region"
	s, err := c.snapshot(op)
	if err != nil {
		return 0, err
	}
	if engine.RegionOwner(regionID) != player {
		return 0, &ValidationError{Op: op, Err: fmt.Errorf("%w: %s", engine.ErrRegionNotOwned, regionID)}
	}
	req := models.MobilizeRequest{RegionID: regionID, Player: player, IsRegionMobilization: true}
	resp, err := c.post(ctx, op, pathMobilize, req)
	if err != nil {
		return 0, err
	}
	c.logAction(s.Round, player, fmt.Sprintf("在%s进行了区域动员，共%d兵力", regionID, resp.Amount))
	return resp.Amount, nil
}

// DeclareWar declares war from player's conflict region. Declarations during
// the protection period never reach the network.
func (c *Client) DeclareWar(ctx context.Context, player engine.Faction) error {
	const op = "declare war"
	s, err := c.snapshot(op)
	if err != nil {
		return err
	}
	if err := s.CheckDeclareWar(player); err != nil {
		return &ValidationError{Op: op, Err: err}
	}
	req := models.DeclareWarRequest{Player: player, RegionID: engine.ConflictRegion(player)}
	if _, err := c.post(ctx, op, pathDeclareWar, req); err != nil {
		return err
	}
	c.logAction(s.Round, player, fmt.Sprintf("宣布对%s开战", player.Opponent()))
	return nil
}

// MergeTowns merges two same-level towns and returns the key under which the
// merged town's tiles were cached.
func (c *Client) MergeTowns(ctx context.Context, player engine.Faction, regionID, name1, name2 string) (string, error) {
	const op = "merge towns"
	s, err := c.snapshot(op)
	if err != nil {
		return "", err
	}
	level, err := s.CheckMerge(player, regionID, name1, name2)
	if err != nil {
		return "", &ValidationError{Op: op, Err: err}
	}
	reg, _ := s.Region(regionID)
	t1, _ := reg.TownByName(name1)
	t2, _ := reg.TownByName(name2)
	if t1.Coords == nil || t2.Coords == nil {
		return "", &ValidationError{Op: op, Err: fmt.Errorf("%w: town has no coordinates", engine.ErrUnknownTown)}
	}
	tiles := unionTiles(originTiles(ctx, c.merged, t1), originTiles(ctx, c.merged, t2))
	h1, h2 := *t1.Coords, *t2.Coords
	req := models.UpgradeTownRequest{
		RegionID:     regionID,
		Town1Name:    name1,
		Town2Name:    name2,
		MergedName:   engine.MergedTownName(name1, name2),
		Town1Q:       h1.Q,
		Town1R:       h1.R,
		Town1S:       h1.S,
		Town2Q:       h2.Q,
		Town2R:       h2.R,
		Town2S:       h2.S,
		AllLocations: tiles,
		Player:       player,
		UpgradeType:  level.String(),
	}
	resp, err := c.post(ctx, op, pathUpgradeTown, req)
	if err != nil {
		return "", err
	}

	key := resp.TownName
	if key == "" {
		key = engine.ServerMergedName(name1, name2)
	}
	if err := c.merged.Put(ctx, key, tiles); err != nil {
		log.Warnf("gateway: caching merged town %s failed: %v", key, err)
	}
	if err := c.merged.Delete(ctx, name1, name2); err != nil {
		log.Warnf("gateway: pruning merged origins failed: %v", err)
	}
	c.rememberMerge(key, tiles, name1, name2)
	c.logAction(s.Round, player, fmt.Sprintf("将%s与%s合并为%s", name1, name2, key))
	return key, nil
}

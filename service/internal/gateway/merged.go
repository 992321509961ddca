// internal/gateway/merged.go
package gateway

import (
	"context"
	"sync"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	log "github.com/sirupsen/logrus"
)

// MergedTownCache remembers every tile a merged town covers, keyed by the
// merged town's name. The backend only reports one coordinate per town.
type MergedTownCache interface {
	Put(ctx context.Context, name string, tiles []engine.Hex) error
	Get(ctx context.Context, name string) ([]engine.Hex, bool, error)
	Delete(ctx context.Context, names ...string) error
	All(ctx context.Context) (map[string][]engine.Hex, error)
}

// MemoryMergedTowns is the default process-local cache.
type MemoryMergedTowns struct {
	mu    sync.RWMutex
	towns map[string][]engine.Hex
}

// NewMemoryMergedTowns returns an empty cache.
func NewMemoryMergedTowns() *MemoryMergedTowns {
	return &MemoryMergedTowns{towns: make(map[string][]engine.Hex)}
}

func (m *MemoryMergedTowns) Put(_ context.Context, name string, tiles []engine.Hex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.towns[name] = append([]engine.Hex(nil), tiles...)
	return nil
}

func (m *MemoryMergedTowns) Get(_ context.Context, name string) ([]engine.Hex, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tiles, ok := m.towns[name]
	return append([]engine.Hex(nil), tiles...), ok, nil
}

func (m *MemoryMergedTowns) Delete(_ context.Context, names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		delete(m.towns, n)
	}
	return nil
}

func (m *MemoryMergedTowns) All(_ context.Context) (map[string][]engine.Hex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]engine.Hex, len(m.towns))
	for k, v := range m.towns {
		out[k] = append([]engine.Hex(nil), v...)
	}
	return out, nil
}

// originTiles returns the tiles a merge source covers: its cached tiles when
// it is itself a merged town, else its single coordinate.
func originTiles(ctx context.Context, cache MergedTownCache, t *engine.Town) []engine.Hex {
	if tiles, ok, err := cache.Get(ctx, t.Name); err == nil && ok && len(tiles) > 0 {
		return tiles
	} else if err != nil {
		log.Warnf("gateway: merged-town lookup for %s failed: %v", t.Name, err)
	}
	if t.Coords != nil {
		return []engine.Hex{*t.Coords}
	}
	return nil
}

// unionTiles merges tile lists, dropping duplicates by Q,R and keeping order.
func unionTiles(lists ...[]engine.Hex) []engine.Hex {
	seen := make(map[string]bool)
	var out []engine.Hex
	for _, l := range lists {
		for _, h := range l {
			k := h.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, h.Normalize())
		}
	}
	return out
}

// RestoreMergedTowns drops cache entries whose town no longer exists in s and
// returns the rest. Cache errors are logged and yield an empty result.
func RestoreMergedTowns(ctx context.Context, cache MergedTownCache, s *engine.MatchState) map[string][]engine.Hex {
	all, err := cache.All(ctx)
	if err != nil {
		log.Warnf("gateway: could not restore merged towns: %v", err)
		return map[string][]engine.Hex{}
	}
	existing := make(map[string]bool)
	if s != nil {
		for _, reg := range s.Regions {
			for _, t := range reg.Towns {
				existing[t.Name] = true
			}
		}
	}
	var stale []string
	for name := range all {
		if !existing[name] {
			stale = append(stale, name)
			delete(all, name)
		}
	}
	if len(stale) > 0 {
		if err := cache.Delete(ctx, stale...); err != nil {
			log.Warnf("gateway: could not prune merged towns: %v", err)
		}
	}
	return all
}

// MergedTownTiles returns the tiles of every merged town in the last loaded
// state. It never touches the cache backend.
func (c *Client) MergedTownTiles() map[string][]engine.Hex {
	c.tilesMu.RLock()
	defer c.tilesMu.RUnlock()
	out := make(map[string][]engine.Hex, len(c.tiles))
	for k, v := range c.tiles {
		out[k] = append([]engine.Hex(nil), v...)
	}
	return out
}

// refreshMergedTowns reloads the merged tiles against the current snapshot,
// pruning entries for towns that are gone.
func (c *Client) refreshMergedTowns(ctx context.Context) {
	tiles := RestoreMergedTowns(ctx, c.merged, c.store.Snapshot())
	c.tilesMu.Lock()
	c.tiles = tiles
	c.tilesMu.Unlock()
}

// rememberMerge records a merge made by this client until the next refresh.
func (c *Client) rememberMerge(key string, tiles []engine.Hex, origins ...string) {
	c.tilesMu.Lock()
	defer c.tilesMu.Unlock()
	for _, n := range origins {
		delete(c.tiles, n)
	}
	c.tiles[key] = append([]engine.Hex(nil), tiles...)
}

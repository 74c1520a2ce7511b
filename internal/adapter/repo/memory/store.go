package memory

import (
	"sync"

	"cargoclash/internal/domain/game"
)

// Store holds the whole world state behind one mutex. The TxManager takes the
// lock for the duration of a transaction, which serializes command handlers
// the same way the SQL adapter's transactions do.
type Store struct {
	mu        sync.Mutex
	vehicles  map[string]game.Vehicle
	players   map[string]game.Player
	locations map[game.LocationID]game.Location
	missions  map[string]game.Mission
	market    map[marketKey]game.MarketEntry
	combatLog []game.CombatRecord
}

type marketKey struct {
	loc   game.LocationID
	cargo game.CargoType
}

func NewStore() *Store {
	return &Store{
		vehicles:  make(map[string]game.Vehicle),
		players:   make(map[string]game.Player),
		locations: make(map[game.LocationID]game.Location),
		missions:  make(map[string]game.Mission),
		market:    make(map[marketKey]game.MarketEntry),
	}
}

// storeSnapshot is a deep copy of the mutable state, taken at transaction
// start so an errored transaction restores exactly what it found. The combat
// log is append-only, its length is enough.
type storeSnapshot struct {
	vehicles  map[string]game.Vehicle
	players   map[string]game.Player
	locations map[game.LocationID]game.Location
	missions  map[string]game.Mission
	market    map[marketKey]game.MarketEntry
	combatLen int
}

// snapshot and restore assume the caller holds s.mu.

func (s *Store) snapshot() storeSnapshot {
	snap := storeSnapshot{
		vehicles:  make(map[string]game.Vehicle, len(s.vehicles)),
		players:   make(map[string]game.Player, len(s.players)),
		locations: make(map[game.LocationID]game.Location, len(s.locations)),
		missions:  make(map[string]game.Mission, len(s.missions)),
		market:    make(map[marketKey]game.MarketEntry, len(s.market)),
		combatLen: len(s.combatLog),
	}
	for id, v := range s.vehicles {
		snap.vehicles[id] = v.Clone()
	}
	for id, p := range s.players {
		snap.players[id] = p
	}
	for id, loc := range s.locations {
		snap.locations[id] = loc
	}
	for id, m := range s.missions {
		snap.missions[id] = m.Clone()
	}
	for k, e := range s.market {
		snap.market[k] = e.Clone()
	}
	return snap
}

func (s *Store) restore(snap storeSnapshot) {
	s.vehicles = snap.vehicles
	s.players = snap.players
	s.locations = snap.locations
	s.missions = snap.missions
	s.market = snap.market
	s.combatLog = s.combatLog[:snap.combatLen]
}

func (s *Store) SeedVehicle(v game.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = v.Clone()
}

func (s *Store) SeedPlayer(p game.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID] = p
}

func (s *Store) SeedLocation(loc game.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.ID] = loc
}

func (s *Store) SeedMission(m game.Mission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missions[m.ID] = m.Clone()
}

func (s *Store) SeedMarketEntry(e game.MarketEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.market[marketKey{e.LocationID, e.Cargo}] = e.Clone()
}

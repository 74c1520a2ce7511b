package memory

import (
	"context"
	"sort"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"
)

type MarketRepo struct {
	store *Store
}

func NewMarketRepo(store *Store) MarketRepo {
	return MarketRepo{store: store}
}

func (r MarketRepo) GetEntry(_ context.Context, loc game.LocationID, cargo game.CargoType) (game.MarketEntry, error) {
	e, ok := r.store.market[marketKey{loc, cargo}]
	if !ok {
		return game.MarketEntry{}, ports.ErrNotFound
	}
	return e.Clone(), nil
}

func (r MarketRepo) ListByCargo(_ context.Context, cargo game.CargoType) ([]game.MarketEntry, error) {
	out := []game.MarketEntry{}
	for key, e := range r.store.market {
		if key.cargo == cargo {
			out = append(out, e.Clone())
		}
	}
	sortEntries(out)
	return out, nil
}

func (r MarketRepo) ListAll(_ context.Context) ([]game.MarketEntry, error) {
	out := make([]game.MarketEntry, 0, len(r.store.market))
	for _, e := range r.store.market {
		out = append(out, e.Clone())
	}
	sortEntries(out)
	return out, nil
}

func (r MarketRepo) SaveWithVersion(_ context.Context, e game.MarketEntry, expectedVersion int64) error {
	key := marketKey{e.LocationID, e.Cargo}
	current, ok := r.store.market[key]
	if !ok {
		if expectedVersion != 0 {
			return ports.ErrStaleVersion
		}
		r.store.market[key] = e.Clone()
		return nil
	}
	if current.Version != expectedVersion {
		return ports.ErrStaleVersion
	}
	r.store.market[key] = e.Clone()
	return nil
}

func sortEntries(entries []game.MarketEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LocationID != entries[j].LocationID {
			return entries[i].LocationID < entries[j].LocationID
		}
		return entries[i].Cargo < entries[j].Cargo
	})
}

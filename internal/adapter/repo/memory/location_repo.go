package memory

import (
	"context"
	"sort"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"
)

type LocationRepo struct {
	store *Store
}

func NewLocationRepo(store *Store) LocationRepo {
	return LocationRepo{store: store}
}

func (r LocationRepo) GetByID(_ context.Context, id game.LocationID) (game.Location, error) {
	loc, ok := r.store.locations[id]
	if !ok {
		return game.Location{}, ports.ErrNotFound
	}
	return loc, nil
}

func (r LocationRepo) ListAll(_ context.Context) ([]game.Location, error) {
	out := make([]game.Location, 0, len(r.store.locations))
	for _, loc := range r.store.locations {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r LocationRepo) Save(_ context.Context, loc game.Location) error {
	r.store.locations[loc.ID] = loc
	return nil
}

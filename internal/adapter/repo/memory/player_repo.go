package memory

import (
	"context"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"
)

type PlayerRepo struct {
	store *Store
}

func NewPlayerRepo(store *Store) PlayerRepo {
	return PlayerRepo{store: store}
}

func (r PlayerRepo) GetByID(_ context.Context, id string) (game.Player, error) {
	p, ok := r.store.players[id]
	if !ok {
		return game.Player{}, ports.ErrNotFound
	}
	return p, nil
}

func (r PlayerRepo) SaveWithVersion(_ context.Context, p game.Player, expectedVersion int64) error {
	current, ok := r.store.players[p.ID]
	if !ok {
		if expectedVersion != 0 {
			return ports.ErrStaleVersion
		}
		r.store.players[p.ID] = p
		return nil
	}
	if current.Version != expectedVersion {
		return ports.ErrStaleVersion
	}
	r.store.players[p.ID] = p
	return nil
}

package memory

import (
	"context"
	"sort"
	"time"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"
)

type VehicleRepo struct {
	store *Store
}

func NewVehicleRepo(store *Store) VehicleRepo {
	return VehicleRepo{store: store}
}

func (r VehicleRepo) GetByID(_ context.Context, id string) (game.Vehicle, error) {
	v, ok := r.store.vehicles[id]
	if !ok {
		return game.Vehicle{}, ports.ErrNotFound
	}
	return v.Clone(), nil
}

func (r VehicleRepo) ListByOwner(_ context.Context, ownerID string) ([]game.Vehicle, error) {
	out := []game.Vehicle{}
	for _, v := range r.store.vehicles {
		if v.OwnerID == ownerID {
			out = append(out, v.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r VehicleRepo) ListDueArrivals(_ context.Context, now time.Time, limit int) ([]game.Vehicle, error) {
	out := []game.Vehicle{}
	for _, v := range r.store.vehicles {
		if v.Travel != nil && !v.Travel.ETA.After(now) {
			out = append(out, v.Clone())
		}
	}
	// Oldest ETA first so overflow carried to the next tick stays fair.
	sort.Slice(out, func(i, j int) bool { return out[i].Travel.ETA.Before(out[j].Travel.ETA) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r VehicleRepo) SaveWithVersion(_ context.Context, v game.Vehicle, expectedVersion int64) error {
	current, ok := r.store.vehicles[v.ID]
	if !ok {
		if expectedVersion != 0 {
			return ports.ErrStaleVersion
		}
		r.store.vehicles[v.ID] = v.Clone()
		return nil
	}
	if current.Version != expectedVersion {
		return ports.ErrStaleVersion
	}
	r.store.vehicles[v.ID] = v.Clone()
	return nil
}

package memory

import (
	"context"
	"sort"
	"time"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"
)

type MissionRepo struct {
	store *Store
}

func NewMissionRepo(store *Store) MissionRepo {
	return MissionRepo{store: store}
}

func (r MissionRepo) GetByID(_ context.Context, id string) (game.Mission, error) {
	m, ok := r.store.missions[id]
	if !ok {
		return game.Mission{}, ports.ErrNotFound
	}
	return m.Clone(), nil
}

func (r MissionRepo) ListByStatus(_ context.Context, status game.MissionStatus, limit int) ([]game.Mission, error) {
	out := []game.Mission{}
	for _, m := range r.store.missions {
		if m.Status == status {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r MissionRepo) ListDeadlineExpired(_ context.Context, now time.Time, limit int) ([]game.Mission, error) {
	out := []game.Mission{}
	for _, m := range r.store.missions {
		if !m.Status.Terminal() && m.DeadlinePassed(now) {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(*out[j].Deadline) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r MissionRepo) FindActiveByVehicle(_ context.Context, vehicleID string) (game.Mission, error) {
	for _, m := range r.store.missions {
		if m.VehicleID == vehicleID && (m.Status == game.MissionAccepted || m.Status == game.MissionInProgress) {
			return m.Clone(), nil
		}
	}
	return game.Mission{}, ports.ErrNotFound
}

func (r MissionRepo) SaveWithVersion(_ context.Context, m game.Mission, expectedVersion int64) error {
	current, ok := r.store.missions[m.ID]
	if !ok {
		if expectedVersion != 0 {
			return ports.ErrStaleVersion
		}
		r.store.missions[m.ID] = m.Clone()
		return nil
	}
	if current.Version != expectedVersion {
		return ports.ErrStaleVersion
	}
	r.store.missions[m.ID] = m.Clone()
	return nil
}

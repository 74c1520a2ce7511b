package memory

import (
	"context"

	"cargoclash/internal/domain/game"
)

type CombatLogRepo struct {
	store *Store
}

func NewCombatLogRepo(store *Store) CombatLogRepo {
	return CombatLogRepo{store: store}
}

func (r CombatLogRepo) Append(_ context.Context, rec game.CombatRecord) error {
	r.store.combatLog = append(r.store.combatLog, rec.Clone())
	return nil
}

func (r CombatLogRepo) ListByPlayer(_ context.Context, playerID string, limit int) ([]game.CombatRecord, error) {
	out := []game.CombatRecord{}
	// Newest first.
	for i := len(r.store.combatLog) - 1; i >= 0; i-- {
		rec := r.store.combatLog[i]
		if rec.AttackerPlayerID == playerID || rec.DefenderPlayerID == playerID {
			out = append(out, rec.Clone())
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

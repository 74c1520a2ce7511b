package gormrepo

import (
	"context"

	"cargoclash/internal/domain/game"

	"gorm.io/gorm"
)

type CombatLogRepo struct {
	db *gorm.DB
}

func NewCombatLogRepo(db *gorm.DB) CombatLogRepo {
	return CombatLogRepo{db: db}
}

func (r CombatLogRepo) Append(ctx context.Context, rec game.CombatRecord) error {
	m, err := toCombatRecordModel(rec)
	if err != nil {
		return err
	}
	return getDBFromCtx(ctx, r.db).Create(&m).Error
}

func (r CombatLogRepo) ListByPlayer(ctx context.Context, playerID string, limit int) ([]game.CombatRecord, error) {
	q := getDBFromCtx(ctx, r.db).
		Where("attacker_player_id = ? OR defender_player_id = ?", playerID, playerID).
		Order("resolved_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []combatRecordModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]game.CombatRecord, 0, len(models))
	for _, m := range models {
		rec, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

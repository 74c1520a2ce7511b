package gormrepo

import (
	"context"
	"errors"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"

	"gorm.io/gorm"
)

type PlayerRepo struct {
	db *gorm.DB
}

func NewPlayerRepo(db *gorm.DB) PlayerRepo {
	return PlayerRepo{db: db}
}

func (r PlayerRepo) GetByID(ctx context.Context, id string) (game.Player, error) {
	var m playerModel
	if err := getDBFromCtx(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return game.Player{}, ports.ErrNotFound
		}
		return game.Player{}, err
	}
	return m.toDomain(), nil
}

func (r PlayerRepo) SaveWithVersion(ctx context.Context, p game.Player, expectedVersion int64) error {
	db := getDBFromCtx(ctx, r.db)
	m := toPlayerModel(p)
	if expectedVersion == 0 {
		return db.Create(&m).Error
	}
	res := db.Model(&playerModel{}).
		Where("id = ? AND version = ?", p.ID, expectedVersion).
		Select("*").Omit("id").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrStaleVersion
	}
	return nil
}

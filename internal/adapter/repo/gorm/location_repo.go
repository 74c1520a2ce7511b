package gormrepo

import (
	"context"
	"errors"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LocationRepo struct {
	db *gorm.DB
}

func NewLocationRepo(db *gorm.DB) LocationRepo {
	return LocationRepo{db: db}
}

func (r LocationRepo) GetByID(ctx context.Context, id game.LocationID) (game.Location, error) {
	var m locationModel
	if err := getDBFromCtx(ctx, r.db).Where("id = ?", string(id)).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return game.Location{}, ports.ErrNotFound
		}
		return game.Location{}, err
	}
	return m.toDomain(), nil
}

func (r LocationRepo) ListAll(ctx context.Context) ([]game.Location, error) {
	var models []locationModel
	if err := getDBFromCtx(ctx, r.db).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]game.Location, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// Save upserts: locations are static world data without versioning.
func (r LocationRepo) Save(ctx context.Context, loc game.Location) error {
	m := toLocationModel(loc)
	return getDBFromCtx(ctx, r.db).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&m).Error
}

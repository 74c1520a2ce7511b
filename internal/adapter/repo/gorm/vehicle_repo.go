package gormrepo

import (
	"context"
	"errors"
	"time"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"

	"gorm.io/gorm"
)

type VehicleRepo struct {
	db *gorm.DB
}

func NewVehicleRepo(db *gorm.DB) VehicleRepo {
	return VehicleRepo{db: db}
}

func (r VehicleRepo) GetByID(ctx context.Context, id string) (game.Vehicle, error) {
	var m vehicleModel
	if err := getDBFromCtx(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return game.Vehicle{}, ports.ErrNotFound
		}
		return game.Vehicle{}, err
	}
	return m.toDomain()
}

func (r VehicleRepo) ListByOwner(ctx context.Context, ownerID string) ([]game.Vehicle, error) {
	var models []vehicleModel
	if err := getDBFromCtx(ctx, r.db).Where("owner_id = ?", ownerID).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]game.Vehicle, 0, len(models))
	for _, m := range models {
		v, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r VehicleRepo) ListDueArrivals(ctx context.Context, now time.Time, limit int) ([]game.Vehicle, error) {
	q := getDBFromCtx(ctx, r.db).
		Where("traveling = ? AND eta <= ?", true, now).
		Order("eta")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []vehicleModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]game.Vehicle, 0, len(models))
	for _, m := range models {
		v, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r VehicleRepo) SaveWithVersion(ctx context.Context, v game.Vehicle, expectedVersion int64) error {
	db := getDBFromCtx(ctx, r.db)
	m, err := toVehicleModel(v)
	if err != nil {
		return err
	}
	if expectedVersion == 0 {
		return db.Create(&m).Error
	}
	res := db.Model(&vehicleModel{}).
		Where("id = ? AND version = ?", v.ID, expectedVersion).
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

package gormrepo

import (
	"context"
	"errors"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"

	"gorm.io/gorm"
)

type MarketRepo struct {
	db *gorm.DB
}

func NewMarketRepo(db *gorm.DB) MarketRepo {
	return MarketRepo{db: db}
}

func (r MarketRepo) GetEntry(ctx context.Context, loc game.LocationID, cargo game.CargoType) (game.MarketEntry, error) {
	var m marketEntryModel
	err := getDBFromCtx(ctx, r.db).
		Where("location_id = ? AND cargo = ?", string(loc), string(cargo)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return game.MarketEntry{}, ports.ErrNotFound
		}
		return game.MarketEntry{}, err
	}
	return m.toDomain()
}

func (r MarketRepo) ListByCargo(ctx context.Context, cargo game.CargoType) ([]game.MarketEntry, error) {
	var models []marketEntryModel
	err := getDBFromCtx(ctx, r.db).
		Where("cargo = ?", string(cargo)).
		Order("location_id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return entriesToDomain(models)
}

func (r MarketRepo) ListAll(ctx context.Context) ([]game.MarketEntry, error) {
	var models []marketEntryModel
	if err := getDBFromCtx(ctx, r.db).Order("location_id, cargo").Find(&models).Error; err != nil {
		return nil, err
	}
	return entriesToDomain(models)
}

func (r MarketRepo) SaveWithVersion(ctx context.Context, e game.MarketEntry, expectedVersion int64) error {
	db := getDBFromCtx(ctx, r.db)
	m, err := toMarketEntryModel(e)
	if err != nil {
		return err
	}
	if expectedVersion == 0 {
		return db.Create(&m).Error
	}
	res := db.Model(&marketEntryModel{}).
		Where("location_id = ? AND cargo = ? AND version = ?", string(e.LocationID), string(e.Cargo), expectedVersion).
		Select("*").Omit("location_id", "cargo").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrStaleVersion
	}
	return nil
}

func entriesToDomain(models []marketEntryModel) ([]game.MarketEntry, error) {
	out := make([]game.MarketEntry, 0, len(models))
	for _, m := range models {
		e, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

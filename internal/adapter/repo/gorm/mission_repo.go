package gormrepo

import (
	"context"
	"errors"
	"time"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"

	"gorm.io/gorm"
)

type MissionRepo struct {
	db *gorm.DB
}

func NewMissionRepo(db *gorm.DB) MissionRepo {
	return MissionRepo{db: db}
}

func (r MissionRepo) GetByID(ctx context.Context, id string) (game.Mission, error) {
	var m missionModel
	if err := getDBFromCtx(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return game.Mission{}, ports.ErrNotFound
		}
		return game.Mission{}, err
	}
	return m.toDomain()
}

func (r MissionRepo) ListByStatus(ctx context.Context, status game.MissionStatus, limit int) ([]game.Mission, error) {
	q := getDBFromCtx(ctx, r.db).Where("status = ?", string(status)).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []missionModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	return missionsToDomain(models)
}

func (r MissionRepo) ListDeadlineExpired(ctx context.Context, now time.Time, limit int) ([]game.Mission, error) {
	// Any non-terminal mission with a lapsed deadline qualifies, matching
	// MissionStatus.Terminal.
	q := getDBFromCtx(ctx, r.db).
		Where("status NOT IN ? AND deadline IS NOT NULL AND deadline < ?",
			[]string{string(game.MissionCompleted), string(game.MissionFailed), string(game.MissionExpired)}, now).
		Order("deadline")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []missionModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	return missionsToDomain(models)
}

func (r MissionRepo) FindActiveByVehicle(ctx context.Context, vehicleID string) (game.Mission, error) {
	var m missionModel
	err := getDBFromCtx(ctx, r.db).
		Where("vehicle_id = ? AND status IN ?", vehicleID,
			[]string{string(game.MissionAccepted), string(game.MissionInProgress)}).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return game.Mission{}, ports.ErrNotFound
		}
		return game.Mission{}, err
	}
	return m.toDomain()
}

func (r MissionRepo) SaveWithVersion(ctx context.Context, mission game.Mission, expectedVersion int64) error {
	db := getDBFromCtx(ctx, r.db)
	m, err := toMissionModel(mission)
	if err != nil {
		return err
	}
	if expectedVersion == 0 {
		return db.Create(&m).Error
	}
	res := db.Model(&missionModel{}).
		Where("id = ? AND version = ?", mission.ID, expectedVersion).
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

func missionsToDomain(models []missionModel) ([]game.Mission, error) {
	out := make([]game.Mission, 0, len(models))
	for _, m := range models {
		mission, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, mission)
	}
	return out, nil
}

package ports

import (
	"context"
	"time"

	"cargoclash/internal/domain/game"
)

// SaveWithVersion semantics, shared by every repository: the write succeeds
// only if the stored version equals expectedVersion (0 means create), else
// ErrStaleVersion. Entity writes are all-or-nothing.

type VehicleRepository interface {
	GetByID(ctx context.Context, id string) (game.Vehicle, error)
	ListByOwner(ctx context.Context, ownerID string) ([]game.Vehicle, error)
	// ListDueArrivals returns traveling vehicles whose ETA is at or before now.
	ListDueArrivals(ctx context.Context, now time.Time, limit int) ([]game.Vehicle, error)
	SaveWithVersion(ctx context.Context, v game.Vehicle, expectedVersion int64) error
}

type PlayerRepository interface {
	GetByID(ctx context.Context, id string) (game.Player, error)
	SaveWithVersion(ctx context.Context, p game.Player, expectedVersion int64) error
}

type LocationRepository interface {
	GetByID(ctx context.Context, id game.LocationID) (game.Location, error)
	ListAll(ctx context.Context) ([]game.Location, error)
	Save(ctx context.Context, loc game.Location) error
}

type MissionRepository interface {
	GetByID(ctx context.Context, id string) (game.Mission, error)
	ListByStatus(ctx context.Context, status game.MissionStatus, limit int) ([]game.Mission, error)
	// ListDeadlineExpired returns non-terminal missions whose deadline is
	// strictly before now.
	ListDeadlineExpired(ctx context.Context, now time.Time, limit int) ([]game.Mission, error)
	// FindActiveByVehicle returns the accepted or in-progress mission bound
	// to the vehicle, or ErrNotFound.
	FindActiveByVehicle(ctx context.Context, vehicleID string) (game.Mission, error)
	SaveWithVersion(ctx context.Context, m game.Mission, expectedVersion int64) error
}

type MarketRepository interface {
	GetEntry(ctx context.Context, loc game.LocationID, cargo game.CargoType) (game.MarketEntry, error)
	ListByCargo(ctx context.Context, cargo game.CargoType) ([]game.MarketEntry, error)
	ListAll(ctx context.Context) ([]game.MarketEntry, error)
	SaveWithVersion(ctx context.Context, e game.MarketEntry, expectedVersion int64) error
}

// CombatLogRepository is append-only; records are never mutated once written.
type CombatLogRepository interface {
	Append(ctx context.Context, rec game.CombatRecord) error
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]game.CombatRecord, error)
}

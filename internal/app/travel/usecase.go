package travel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"

	"github.com/google/uuid"
)

var (
	ErrAlreadyTraveling = fmt.Errorf("%w: vehicle already traveling", ports.ErrInvalidState)
	ErrVehicleDestroyed = fmt.Errorf("%w: vehicle destroyed", ports.ErrInvalidState)
	ErrSameLocation     = fmt.Errorf("%w: destination equals current location", ports.ErrInvalidState)
	ErrUnknownLocation  = fmt.Errorf("%w: unknown location", ports.ErrNotFound)
	ErrInsufficientFuel = fmt.Errorf("%w: insufficient fuel", ports.ErrInsufficientResource)
)

type Config struct {
	// TimeUnit is the simulated duration of one distance/speed unit.
	TimeUnit time.Duration
	// ArrivalBatch bounds how many due arrivals one tick resolves; overflow
	// carries to the next tick.
	ArrivalBatch int
}

func DefaultConfig() Config {
	return Config{TimeUnit: time.Minute, ArrivalBatch: 256}
}

// ArrivalHandler lets the mission engine observe arrivals resolved in the
// same tick. Wired after construction to avoid a dependency cycle.
type ArrivalHandler interface {
	HandleArrival(ctx context.Context, v game.Vehicle, now time.Time) error
}

type UseCase struct {
	Tx        ports.TxManager
	Vehicles  ports.VehicleRepository
	Locations ports.LocationRepository
	Publisher ports.EventPublisher
	Metrics   ports.CommandMetrics
	Cfg       Config
	Arrivals  ArrivalHandler
}

type StartResult struct {
	VehicleID   string          `json:"vehicle_id"`
	Destination game.LocationID `json:"destination"`
	ETA         time.Time       `json:"eta"`
	FuelCost    int             `json:"fuel_cost"`
}

// Plan computes the deterministic travel leg for a vehicle between two
// locations. The same inputs always yield the same ETA and fuel cost, so the
// client-displayed ETA matches server resolution.
func (u UseCase) Plan(v game.Vehicle, from, to game.Location, now time.Time) (game.Travel, int, error) {
	if v.Destroyed {
		return game.Travel{}, 0, ErrVehicleDestroyed
	}
	if !v.Stationary() {
		return game.Travel{}, 0, ErrAlreadyTraveling
	}
	if from.ID == to.ID {
		return game.Travel{}, 0, ErrSameLocation
	}
	profile := v.Profile()
	distance := game.Distance(from, to)
	cost := game.FuelCost(distance, profile)
	if v.Fuel < cost {
		return game.Travel{}, 0, ErrInsufficientFuel
	}
	eta := now.Add(game.TravelDuration(distance, profile, u.Cfg.TimeUnit))
	return game.Travel{
		Origin:      from.ID,
		Destination: to.ID,
		DepartedAt:  now,
		ETA:         eta,
	}, cost, nil
}

func (u UseCase) StartTravel(ctx context.Context, playerID, vehicleID string, destination game.LocationID, now time.Time) (StartResult, error) {
	var out StartResult
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		v, err := u.Vehicles.GetByID(txCtx, vehicleID)
		if err != nil {
			return err
		}
		if v.OwnerID != playerID {
			return ports.ErrUnauthorized
		}
		from, err := u.Locations.GetByID(txCtx, v.LocationID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return ErrUnknownLocation
			}
			return err
		}
		to, err := u.Locations.GetByID(txCtx, destination)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return ErrUnknownLocation
			}
			return err
		}

		leg, cost, err := u.Plan(v, from, to, now)
		if err != nil {
			return err
		}

		expected := v.Version
		v.Depart(leg, cost)
		v.UpdatedAt = now
		v.Version++
		if err := u.Vehicles.SaveWithVersion(txCtx, v, expected); err != nil {
			return err
		}

		out = StartResult{VehicleID: v.ID, Destination: leg.Destination, ETA: leg.ETA, FuelCost: cost}
		return nil
	})
	u.record("travel.start", err)
	if err != nil {
		return StartResult{}, err
	}
	return out, nil
}

// ProcessArrivals resolves every due arrival up to the configured batch.
// Each vehicle is handled in its own transaction so one failure never aborts
// the rest; resolving is idempotent because arrival clears the travel state
// and the version check rejects a concurrent double-apply.
func (u UseCase) ProcessArrivals(ctx context.Context, now time.Time) (int, error) {
	due, err := u.listDue(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	var errs []error
	for _, candidate := range due {
		arrived, err := u.resolveArrival(ctx, candidate.ID, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("vehicle %s: %w", candidate.ID, err))
			continue
		}
		if !arrived {
			continue
		}
		processed++
	}
	return processed, errors.Join(errs...)
}

func (u UseCase) listDue(ctx context.Context, now time.Time) ([]game.Vehicle, error) {
	var due []game.Vehicle
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		due, err = u.Vehicles.ListDueArrivals(txCtx, now, u.Cfg.ArrivalBatch)
		return err
	})
	return due, err
}

func (u UseCase) resolveArrival(ctx context.Context, vehicleID string, now time.Time) (bool, error) {
	arrived := false
	var arrivedVehicle game.Vehicle
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		v, err := u.Vehicles.GetByID(txCtx, vehicleID)
		if err != nil {
			return err
		}
		// Already resolved by an earlier pass at this tick, or rescheduled.
		if v.Travel == nil || v.Travel.ETA.After(now) {
			return nil
		}
		if v.LastArrivalETA.Equal(v.Travel.ETA) {
			return nil
		}

		expected := v.Version
		v.ArriveAt(now)
		v.Version++
		if err := u.Vehicles.SaveWithVersion(txCtx, v, expected); err != nil {
			return err
		}

		arrived = true
		arrivedVehicle = v

		if u.Arrivals != nil {
			return u.Arrivals.HandleArrival(txCtx, v, now)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if arrived {
		u.Publisher.Publish(game.Event{
			ID:         uuid.NewString(),
			Type:       game.EventVehicleArrived,
			OccurredAt: now,
			Recipients: []string{arrivedVehicle.OwnerID},
			Payload: map[string]any{
				"vehicle_id":  arrivedVehicle.ID,
				"location_id": arrivedVehicle.LocationID,
			},
		})
	}
	return arrived, nil
}

func (u UseCase) record(op string, err error) {
	if u.Metrics == nil {
		return
	}
	switch {
	case err == nil:
		u.Metrics.RecordSuccess(op)
	case errors.Is(err, ports.ErrStaleVersion):
		u.Metrics.RecordConflict(op)
	default:
		u.Metrics.RecordFailure(op)
	}
}

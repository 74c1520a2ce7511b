package travel

import (
	"context"
	"fmt"
	"time"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"
)

// Per-unit service prices.
const (
	fuelUnitCost   = 2
	repairUnitCost = 5
)

var (
	ErrNothingToService    = fmt.Errorf("%w: nothing to service", ports.ErrInvalidState)
	ErrInsufficientCredits = fmt.Errorf("%w: insufficient credits", ports.ErrInsufficientResource)
)

type ServiceResult struct {
	VehicleID  string `json:"vehicle_id"`
	Cost       int    `json:"cost"`
	Fuel       int    `json:"fuel"`
	Durability int    `json:"durability"`
	Credits    int    `json:"credits"`
}

// MaintenanceUseCase covers stationary vehicle servicing: refuel to capacity
// and repair to full durability, both paid per unit.
type MaintenanceUseCase struct {
	Tx       ports.TxManager
	Vehicles ports.VehicleRepository
	Players  ports.PlayerRepository
	Metrics  ports.CommandMetrics
}

func (u MaintenanceUseCase) Refuel(ctx context.Context, playerID, vehicleID string, now time.Time) (ServiceResult, error) {
	return u.service(ctx, playerID, vehicleID, now, "travel.refuel", func(v *game.Vehicle) int {
		missing := v.Profile().FuelCapacity - v.Fuel
		if missing <= 0 {
			return -1
		}
		v.Fuel = v.Profile().FuelCapacity
		return missing * fuelUnitCost
	})
}

func (u MaintenanceUseCase) Repair(ctx context.Context, playerID, vehicleID string, now time.Time) (ServiceResult, error) {
	return u.service(ctx, playerID, vehicleID, now, "travel.repair", func(v *game.Vehicle) int {
		missing := v.Profile().MaxDurability - v.Durability
		if missing <= 0 {
			return -1
		}
		v.Durability = v.Profile().MaxDurability
		return missing * repairUnitCost
	})
}

func (u MaintenanceUseCase) service(ctx context.Context, playerID, vehicleID string, now time.Time, op string, apply func(*game.Vehicle) int) (ServiceResult, error) {
	var out ServiceResult
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		v, err := u.Vehicles.GetByID(txCtx, vehicleID)
		if err != nil {
			return err
		}
		if v.OwnerID != playerID {
			return ports.ErrUnauthorized
		}
		if v.Destroyed {
			return ErrVehicleDestroyed
		}
		if !v.Stationary() {
			return ErrAlreadyTraveling
		}
		p, err := u.Players.GetByID(txCtx, playerID)
		if err != nil {
			return err
		}

		cost := apply(&v)
		if cost < 0 {
			return ErrNothingToService
		}
		if !p.SpendCredits(cost) {
			return ErrInsufficientCredits
		}

		vExpected := v.Version
		v.Version++
		v.UpdatedAt = now
		if err := u.Vehicles.SaveWithVersion(txCtx, v, vExpected); err != nil {
			return err
		}
		pExpected := p.Version
		p.Version++
		p.UpdatedAt = now
		if err := u.Players.SaveWithVersion(txCtx, p, pExpected); err != nil {
			return err
		}

		out = ServiceResult{VehicleID: v.ID, Cost: cost, Fuel: v.Fuel, Durability: v.Durability, Credits: p.Credits}
		return nil
	})
	if u.Metrics != nil {
		if err != nil {
			u.Metrics.RecordFailure(op)
		} else {
			u.Metrics.RecordSuccess(op)
		}
	}
	if err != nil {
		return ServiceResult{}, err
	}
	return out, nil
}

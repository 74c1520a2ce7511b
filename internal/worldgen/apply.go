package worldgen

import (
	"context"
	"errors"
	"time"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"
)

// Applier writes a seed into the repositories. Apply is idempotent: existing
// aggregates are left alone, so a restart never resets live state.
type Applier struct {
	Tx        ports.TxManager
	Locations ports.LocationRepository
	Markets   ports.MarketRepository
	Players   ports.PlayerRepository
	Vehicles  ports.VehicleRepository
}

func (a Applier) Apply(ctx context.Context, seed Seed, now time.Time) error {
	return a.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, l := range seed.Locations {
			if err := a.applyLocation(txCtx, l, now); err != nil {
				return err
			}
		}
		for _, p := range seed.Players {
			if err := a.applyPlayer(txCtx, p, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a Applier) applyLocation(txCtx context.Context, l SeedLocation, now time.Time) error {
	loc := game.Location{
		ID: game.LocationID(l.ID), Name: l.Name, X: l.X, Y: l.Y,
		DangerLevel:       l.DangerLevel,
		EquilibriumSupply: l.Supply, EquilibriumDemand: l.Demand,
	}
	if err := a.Locations.Save(txCtx, loc); err != nil {
		return err
	}
	for cargo, base := range l.Prices {
		_, err := a.Markets.GetEntry(txCtx, loc.ID, game.CargoType(cargo))
		if err == nil {
			continue
		}
		if !errors.Is(err, ports.ErrNotFound) {
			return err
		}
		entry := game.MarketEntry{
			LocationID: loc.ID, Cargo: game.CargoType(cargo),
			BasePrice: base, Supply: l.Supply, Demand: l.Demand,
			Version: 1, UpdatedAt: now,
		}
		if err := a.Markets.SaveWithVersion(txCtx, entry, 0); err != nil {
			return err
		}
	}
	return nil
}

func (a Applier) applyPlayer(txCtx context.Context, p SeedPlayer, now time.Time) error {
	if _, err := a.Players.GetByID(txCtx, p.ID); err == nil {
		return nil
	} else if !errors.Is(err, ports.ErrNotFound) {
		return err
	}
	player := game.Player{
		ID: p.ID, Name: p.Name, Level: 1, Credits: p.Credits,
		Version: 1, UpdatedAt: now,
	}
	if err := a.Players.SaveWithVersion(txCtx, player, 0); err != nil {
		return err
	}
	for _, sv := range p.Vehicles {
		profile, _ := game.ProfileFor(game.VehicleType(sv.Type))
		v := game.Vehicle{
			ID: sv.ID, OwnerID: p.ID, Name: sv.Name,
			Type: game.VehicleType(sv.Type),
			Fuel: profile.FuelCapacity, Durability: profile.MaxDurability,
			LocationID: game.LocationID(sv.Location),
			Version:    1, UpdatedAt: now,
		}
		if err := a.Vehicles.SaveWithVersion(txCtx, v, 0); err != nil {
			return err
		}
	}
	return nil
}

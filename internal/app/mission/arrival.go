package mission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"

	"github.com/google/uuid"
)

// HandleArrival reacts to a vehicle reaching its destination. It runs inside
// the travel transaction, so it must never open a nested one.
//
// Arriving at the mission destination with the required manifest completes
// the mission: cargo is delivered, the reward and experience land on the
// player. Arriving at the origin loads the manifest and launches the
// delivery leg. Any other stop leaves the mission untouched.
func (u UseCase) HandleArrival(txCtx context.Context, v game.Vehicle, now time.Time) error {
	m, err := u.Missions.FindActiveByVehicle(txCtx, v.ID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if m.Status != game.MissionInProgress {
		return nil
	}

	switch v.LocationID {
	case m.Destination:
		if !v.Cargo.Contains(m.RequiredCargo) {
			return nil
		}
		return u.completeInTx(txCtx, &m, &v, now)
	case m.Origin:
		if err := loadManifest(&v, m.RequiredCargo); err != nil {
			// The manifest no longer fits; the contract cannot proceed.
			if err := u.failInTx(txCtx, &m, now); err != nil {
				return err
			}
			u.publishStatus(m, now, "cargo_overflow")
			return nil
		}
		if err := u.departTo(txCtx, &v, m.Destination, now); err != nil {
			if !errors.Is(err, ports.ErrInvalidState) && !errors.Is(err, ports.ErrInsufficientResource) {
				return err
			}
			// The delivery leg cannot launch, typically no fuel left for it.
			// The arrival itself must still commit: an error here would roll
			// it back and the vehicle would re-fail the same arrival every
			// tick. departTo saved nothing, so the vehicle stays stationary
			// at the origin with an empty hold; the contract fails.
			if err := u.failInTx(txCtx, &m, now); err != nil {
				return err
			}
			u.publishStatus(m, now, "relaunch_failed")
			return nil
		}
		return nil
	default:
		return nil
	}
}

func (u UseCase) completeInTx(txCtx context.Context, m *game.Mission, v *game.Vehicle, now time.Time) error {
	for cargo, qty := range m.RequiredCargo {
		if !v.RemoveCargo(cargo, qty) {
			return fmt.Errorf("%w: manifest missing %s", ports.ErrInvalidState, cargo)
		}
	}
	expectedV := v.Version
	v.UpdatedAt = now
	v.Version++
	if err := u.Vehicles.SaveWithVersion(txCtx, *v, expectedV); err != nil {
		return err
	}

	p, err := u.Players.GetByID(txCtx, m.PlayerID)
	if err != nil {
		return err
	}
	expectedP := p.Version
	p.Credits += m.RewardCredits
	p.Reputation += m.Difficulty
	p.GainExperience(m.RewardXP)
	p.UpdatedAt = now
	p.Version++
	if err := u.Players.SaveWithVersion(txCtx, p, expectedP); err != nil {
		return err
	}

	expectedM := m.Version
	m.Status = game.MissionCompleted
	completedAt := now
	m.CompletedAt = &completedAt
	m.UpdatedAt = now
	m.Version++
	if err := u.Missions.SaveWithVersion(txCtx, *m, expectedM); err != nil {
		return err
	}
	u.publishStatus(*m, now, "delivered")
	return nil
}

// failInTx marks the mission FAILED and applies the credit penalty. Cargo
// already on board stays on board.
func (u UseCase) failInTx(txCtx context.Context, m *game.Mission, now time.Time) error {
	if m.PlayerID != "" {
		p, err := u.Players.GetByID(txCtx, m.PlayerID)
		if err != nil {
			return err
		}
		expected := p.Version
		p.Penalize(m.PenaltyCredits)
		p.UpdatedAt = now
		p.Version++
		if err := u.Players.SaveWithVersion(txCtx, p, expected); err != nil {
			return err
		}
	}
	expected := m.Version
	m.Status = game.MissionFailed
	m.UpdatedAt = now
	m.Version++
	return u.Missions.SaveWithVersion(txCtx, *m, expected)
}

// FailForVehicleInTx fails the vehicle's active mission, if any. Combat
// calls it from its own transaction when a vehicle is destroyed.
func (u UseCase) FailForVehicleInTx(txCtx context.Context, vehicleID string, now time.Time) error {
	m, err := u.Missions.FindActiveByVehicle(txCtx, vehicleID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if m.Status.Terminal() {
		return nil
	}
	if err := u.failInTx(txCtx, &m, now); err != nil {
		return err
	}
	u.publishStatus(m, now, "vehicle_destroyed")
	return nil
}

// Generate replenishes the board toward target open missions, deriving
// rewards from route distance and danger.
func (u UseCase) Generate(ctx context.Context, target int, now time.Time) (int, error) {
	created := 0
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		open, err := u.Missions.ListByStatus(txCtx, game.MissionAvailable, 0)
		if err != nil {
			return err
		}
		if len(open) >= target {
			return nil
		}
		locs, err := u.Locations.ListAll(txCtx)
		if err != nil {
			return err
		}
		if len(locs) < 2 {
			return nil
		}
		for i := len(open); i < target; i++ {
			m := rollMission(locs, now, i)
			if err := u.Missions.SaveWithVersion(txCtx, m, 0); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	u.record("mission.generate", err)
	return created, err
}

var cargoPool = []game.CargoType{
	game.CargoFood, game.CargoFuel, game.CargoElectronics,
	game.CargoWeapons, game.CargoArtifacts, game.CargoMaterials,
}

func rollMission(locs []game.Location, now time.Time, salt int) game.Mission {
	origin := locs[salt%len(locs)]
	dest := locs[(salt+1+salt/len(locs))%len(locs)]
	if dest.ID == origin.ID {
		dest = locs[(salt+1)%len(locs)]
	}
	dist := game.Distance(origin, dest)
	difficulty := 1 + (origin.DangerLevel+dest.DangerLevel)/2
	qty := 20 + 10*(salt%4)
	cargo := cargoPool[salt%len(cargoPool)]
	return game.Mission{
		ID:             uuid.NewString(),
		Title:          "Deliver " + string(cargo) + " to " + dest.Name,
		Status:         game.MissionAvailable,
		Origin:         origin.ID,
		Destination:    dest.ID,
		RequiredCargo:  game.Manifest{cargo: qty},
		Difficulty:     difficulty,
		RewardCredits:  int(dist)*2 + 100*difficulty,
		RewardXP:       50 * difficulty,
		PenaltyCredits: (int(dist)*2 + 100*difficulty) / 4,
		TimeLimit:      time.Duration(int(dist)/10+60) * time.Minute,
		MinLevel:       difficulty / 2,
		UpdatedAt:      now,
		Version:        1,
	}
}

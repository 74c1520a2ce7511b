package mission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/app/travel"
	"cargoclash/internal/domain/game"

	"github.com/google/uuid"
)

var (
	ErrNotAvailable       = fmt.Errorf("%w: mission not available", ports.ErrInvalidState)
	ErrIllegalTransition  = fmt.Errorf("%w: illegal mission transition", ports.ErrInvalidState)
	ErrRequirementsNotMet = fmt.Errorf("%w: player or vehicle does not meet mission requirements", ports.ErrInvalidState)
	ErrVehicleBusy        = fmt.Errorf("%w: vehicle already committed", ports.ErrInvalidState)
	ErrVehicleNotIdle     = fmt.Errorf("%w: vehicle must be stationary", ports.ErrInvalidState)
	ErrCargoMismatch      = fmt.Errorf("%w: vehicle cannot carry the required manifest", ports.ErrInsufficientResource)
)

type UseCase struct {
	Tx        ports.TxManager
	Missions  ports.MissionRepository
	Vehicles  ports.VehicleRepository
	Players   ports.PlayerRepository
	Locations ports.LocationRepository
	Publisher ports.EventPublisher
	Metrics   ports.CommandMetrics
	Travel    *travel.UseCase
	// ExpiryBatch bounds one deadline sweep; overflow carries to the next tick.
	ExpiryBatch int
}

// Accept transitions AVAILABLE -> ACCEPTED for an eligible player and a
// stationary, uncommitted vehicle.
func (u UseCase) Accept(ctx context.Context, playerID, missionID, vehicleID string, now time.Time) (game.Mission, error) {
	var out game.Mission
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := u.Missions.GetByID(txCtx, missionID)
		if err != nil {
			return err
		}
		if m.Status != game.MissionAvailable {
			return ErrNotAvailable
		}
		p, err := u.Players.GetByID(txCtx, playerID)
		if err != nil {
			return err
		}
		v, err := u.Vehicles.GetByID(txCtx, vehicleID)
		if err != nil {
			return err
		}
		if v.OwnerID != playerID {
			return ports.ErrUnauthorized
		}
		if v.Destroyed || !v.Stationary() {
			return ErrVehicleNotIdle
		}
		if !m.Eligible(p, v) {
			return ErrRequirementsNotMet
		}
		if _, err := u.Missions.FindActiveByVehicle(txCtx, vehicleID); err == nil {
			return ErrVehicleBusy
		} else if !errors.Is(err, ports.ErrNotFound) {
			return err
		}

		expected := m.Version
		m.Assign(playerID, vehicleID, now)
		m.Version++
		if err := u.Missions.SaveWithVersion(txCtx, m, expected); err != nil {
			return err
		}
		out = m
		return nil
	})
	u.record("mission.accept", err)
	if err != nil {
		return game.Mission{}, err
	}
	u.publishStatus(out, now, "accepted")
	return out, nil
}

// Start transitions ACCEPTED -> IN_PROGRESS and launches the first travel
// leg. Departing the origin loads the required manifest; otherwise the
// vehicle is routed to the origin and loads on arrival.
func (u UseCase) Start(ctx context.Context, playerID, missionID string, now time.Time) (game.Mission, error) {
	var out game.Mission
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := u.Missions.GetByID(txCtx, missionID)
		if err != nil {
			return err
		}
		if m.PlayerID != playerID {
			return ports.ErrUnauthorized
		}
		if m.Status != game.MissionAccepted {
			return ErrIllegalTransition
		}
		v, err := u.Vehicles.GetByID(txCtx, m.VehicleID)
		if err != nil {
			return err
		}
		if !v.Stationary() {
			return ErrVehicleNotIdle
		}

		target := m.Origin
		if v.LocationID == m.Origin {
			if err := loadManifest(&v, m.RequiredCargo); err != nil {
				return err
			}
			target = m.Destination
		}

		if err := u.departTo(txCtx, &v, target, now); err != nil {
			return err
		}

		expected := m.Version
		m.Status = game.MissionInProgress
		m.UpdatedAt = now
		m.Version++
		if err := u.Missions.SaveWithVersion(txCtx, m, expected); err != nil {
			return err
		}
		out = m
		return nil
	})
	u.record("mission.start", err)
	if err != nil {
		return game.Mission{}, err
	}
	u.publishStatus(out, now, "started")
	return out, nil
}

// Abandon fails the mission at the assignee's request and applies the
// credit penalty. The vehicle keeps any cargo already loaded.
func (u UseCase) Abandon(ctx context.Context, playerID, missionID string, now time.Time) (game.Mission, error) {
	var out game.Mission
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := u.Missions.GetByID(txCtx, missionID)
		if err != nil {
			return err
		}
		if m.PlayerID != playerID {
			return ports.ErrUnauthorized
		}
		if m.Status != game.MissionAccepted && m.Status != game.MissionInProgress {
			return ErrIllegalTransition
		}
		if err := u.failInTx(txCtx, &m, now); err != nil {
			return err
		}
		out = m
		return nil
	})
	u.record("mission.abandon", err)
	if err != nil {
		return game.Mission{}, err
	}
	u.publishStatus(out, now, "abandoned")
	return out, nil
}

// ExpireDue sweeps non-terminal missions whose deadline has passed and marks
// them EXPIRED. Each mission is isolated in its own transaction so a single
// failure never aborts the sweep; re-running at the same now is a no-op
// because expiry is terminal.
func (u UseCase) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	var due []game.Mission
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		due, err = u.Missions.ListDeadlineExpired(txCtx, now, u.ExpiryBatch)
		return err
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	var errs []error
	for _, candidate := range due {
		var m game.Mission
		err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			m, err = u.Missions.GetByID(txCtx, candidate.ID)
			if err != nil {
				return err
			}
			if m.Status.Terminal() || !m.DeadlinePassed(now) {
				m = game.Mission{}
				return nil
			}
			expected := m.Version
			m.Status = game.MissionExpired
			m.UpdatedAt = now
			m.Version++
			return u.Missions.SaveWithVersion(txCtx, m, expected)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("mission %s: %w", candidate.ID, err))
			continue
		}
		if m.ID == "" {
			continue
		}
		expired++
		u.publishStatus(m, now, "deadline_expired")
	}
	return expired, errors.Join(errs...)
}

// Available lists open missions for the board.
func (u UseCase) Available(ctx context.Context, limit int) ([]game.Mission, error) {
	var out []game.Mission
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = u.Missions.ListByStatus(txCtx, game.MissionAvailable, limit)
		return err
	})
	return out, err
}

// ForPlayer lists the player's non-available missions, newest first kept to
// the repository's ordering.
func (u UseCase) ForPlayer(ctx context.Context, playerID string) ([]game.Mission, error) {
	var out []game.Mission
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, status := range []game.MissionStatus{game.MissionAccepted, game.MissionInProgress, game.MissionCompleted, game.MissionFailed, game.MissionExpired} {
			list, err := u.Missions.ListByStatus(txCtx, status, 0)
			if err != nil {
				return err
			}
			for _, m := range list {
				if m.PlayerID == playerID {
					out = append(out, m)
				}
			}
		}
		return nil
	})
	return out, err
}

func loadManifest(v *game.Vehicle, required game.Manifest) error {
	if v.CargoUsed()+required.Total() > v.Profile().CargoCapacity {
		return ErrCargoMismatch
	}
	for cargo, qty := range required {
		v.AddCargo(cargo, qty)
	}
	return nil
}

// departTo plans and applies a travel leg inside the caller's transaction.
func (u UseCase) departTo(txCtx context.Context, v *game.Vehicle, destination game.LocationID, now time.Time) error {
	from, err := u.Locations.GetByID(txCtx, v.LocationID)
	if err != nil {
		return err
	}
	to, err := u.Locations.GetByID(txCtx, destination)
	if err != nil {
		return err
	}
	leg, cost, err := u.Travel.Plan(*v, from, to, now)
	if err != nil {
		return err
	}
	expected := v.Version
	v.Depart(leg, cost)
	v.UpdatedAt = now
	v.Version++
	return u.Vehicles.SaveWithVersion(txCtx, *v, expected)
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

func (u UseCase) publishStatus(m game.Mission, now time.Time, reason string) {
	if u.Publisher == nil || m.PlayerID == "" {
		return
	}
	u.Publisher.Publish(game.Event{
		ID:         uuid.NewString(),
		Type:       game.EventMissionStatusChanged,
		OccurredAt: now,
		Recipients: []string{m.PlayerID},
		Payload: map[string]any{
			"mission_id": m.ID,
			"status":     string(m.Status),
			"reason":     reason,
		},
	})
}

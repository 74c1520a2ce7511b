package combat

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
	ErrInvalidAction    = fmt.Errorf("%w: unknown combat action", ports.ErrInvalidState)
	ErrSelfAttack       = fmt.Errorf("%w: cannot attack your own vehicle", ports.ErrInvalidState)
	ErrNotColocated     = fmt.Errorf("%w: both vehicles must be stationary at the same location", ports.ErrInvalidState)
	ErrVehicleDestroyed = fmt.Errorf("%w: vehicle is destroyed", ports.ErrInvalidState)
)

// MissionFailer lets combat fail a destroyed vehicle's active mission inside
// the combat transaction.
type MissionFailer interface {
	FailForVehicleInTx(ctx context.Context, vehicleID string, now time.Time) error
}

type UseCase struct {
	Tx        ports.TxManager
	Vehicles  ports.VehicleRepository
	Players   ports.PlayerRepository
	Locations ports.LocationRepository
	Log       ports.CombatLogRepository
	Publisher ports.EventPublisher
	Metrics   ports.CommandMetrics
	Missions  MissionFailer
	Cfg       game.CombatConfig
}

// Attack resolves player-versus-player combat between two vehicles parked at
// the same location. The full exchange, state writes and log append commit
// in one transaction.
func (u UseCase) Attack(ctx context.Context, playerID, vehicleID, targetVehicleID string, action game.CombatAction, now time.Time) (game.CombatRecord, error) {
	var rec game.CombatRecord
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if !game.ValidCombatAction(action) {
			return ErrInvalidAction
		}
		av, err := u.Vehicles.GetByID(txCtx, vehicleID)
		if err != nil {
			return err
		}
		if av.OwnerID != playerID {
			return ports.ErrUnauthorized
		}
		dv, err := u.Vehicles.GetByID(txCtx, targetVehicleID)
		if err != nil {
			return err
		}
		if dv.OwnerID == playerID {
			return ErrSelfAttack
		}
		if av.Destroyed || dv.Destroyed {
			return ErrVehicleDestroyed
		}
		if !av.Stationary() || !dv.Stationary() || av.LocationID != dv.LocationID {
			return ErrNotColocated
		}
		ap, err := u.Players.GetByID(txCtx, av.OwnerID)
		if err != nil {
			return err
		}
		dp, err := u.Players.GetByID(txCtx, dv.OwnerID)
		if err != nil {
			return err
		}

		outcome := game.ResolveCombat(uuid.NewString(), combatant(av, ap.Credits), combatant(dv, dp.Credits), action, now, u.Cfg)

		if err := u.applyVehicle(txCtx, av, outcome.Attacker, outcome.AttackerDestroyed, now); err != nil {
			return err
		}
		if err := u.applyVehicle(txCtx, dv, outcome.Defender, outcome.DefenderDestroyed, now); err != nil {
			return err
		}
		if err := u.applyPlayer(txCtx, ap, outcome.Attacker.Credits, outcome.Record.AttackerXP, now); err != nil {
			return err
		}
		if err := u.applyPlayer(txCtx, dp, outcome.Defender.Credits, outcome.Record.DefenderXP, now); err != nil {
			return err
		}
		// Mission failure re-reads the player, so it must run after the
		// credit and XP writes above.
		if err := u.failMissions(txCtx, outcome, av.ID, dv.ID, now); err != nil {
			return err
		}
		if err := u.Log.Append(txCtx, outcome.Record); err != nil {
			return err
		}
		rec = outcome.Record
		return nil
	})
	u.record("combat.attack", err)
	if err != nil {
		return game.CombatRecord{}, err
	}
	u.publish(rec, now)
	return rec, nil
}

// PirateEncounter pits a vehicle against an NPC raider scaled to the
// location's danger level. Defeat costs cargo and credits like any loss but
// pirates carry nothing worth looting beyond the bounty.
func (u UseCase) PirateEncounter(ctx context.Context, playerID, vehicleID string, action game.CombatAction, now time.Time) (game.CombatRecord, error) {
	var rec game.CombatRecord
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if !game.ValidCombatAction(action) {
			return ErrInvalidAction
		}
		av, err := u.Vehicles.GetByID(txCtx, vehicleID)
		if err != nil {
			return err
		}
		if av.OwnerID != playerID {
			return ports.ErrUnauthorized
		}
		if av.Destroyed {
			return ErrVehicleDestroyed
		}
		if !av.Stationary() {
			return ErrNotColocated
		}
		loc, err := u.Locations.GetByID(txCtx, av.LocationID)
		if err != nil {
			return err
		}
		ap, err := u.Players.GetByID(txCtx, playerID)
		if err != nil {
			return err
		}

		pirate := pirateFor(loc)
		outcome := game.ResolveCombat(uuid.NewString(), combatant(av, ap.Credits), pirate, action, now, u.Cfg)

		if err := u.applyVehicle(txCtx, av, outcome.Attacker, outcome.AttackerDestroyed, now); err != nil {
			return err
		}
		if err := u.applyPlayer(txCtx, ap, outcome.Attacker.Credits, outcome.Record.AttackerXP, now); err != nil {
			return err
		}
		if err := u.failMissions(txCtx, outcome, av.ID, "", now); err != nil {
			return err
		}
		if err := u.Log.Append(txCtx, outcome.Record); err != nil {
			return err
		}
		rec = outcome.Record
		return nil
	})
	u.record("combat.pirate", err)
	if err != nil {
		return game.CombatRecord{}, err
	}
	u.publish(rec, now)
	return rec, nil
}

// History lists a player's combat log, newest first.
func (u UseCase) History(ctx context.Context, playerID string, limit int) ([]game.CombatRecord, error) {
	var out []game.CombatRecord
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = u.Log.ListByPlayer(txCtx, playerID, limit)
		return err
	})
	return out, err
}

func combatant(v game.Vehicle, credits int) game.Combatant {
	p := v.Profile()
	return game.Combatant{
		PlayerID:      v.OwnerID,
		VehicleID:     v.ID,
		AttackPower:   p.AttackPower,
		Defense:       p.Defense,
		Durability:    v.Durability,
		MaxDurability: p.MaxDurability,
		Cargo:         v.Cargo,
		Credits:       credits,
	}
}

// pirateFor derives NPC raider stats from the location's danger level.
func pirateFor(loc game.Location) game.Combatant {
	d := loc.DangerLevel
	dur := 50 + 10*d
	return game.Combatant{
		VehicleID:     "pirate:" + string(loc.ID),
		AttackPower:   10 + 5*d,
		Defense:       5 + 3*d,
		Durability:    dur,
		MaxDurability: dur,
		Credits:       50 + 25*d, // the bounty a victory collects from
	}
}

func (u UseCase) applyVehicle(txCtx context.Context, v game.Vehicle, after game.Combatant, destroyed bool, now time.Time) error {
	expected := v.Version
	v.Durability = after.Durability
	v.Cargo = after.Cargo
	if destroyed {
		v.MarkDestroyed()
	}
	v.UpdatedAt = now
	v.Version++
	return u.Vehicles.SaveWithVersion(txCtx, v, expected)
}

func (u UseCase) failMissions(txCtx context.Context, outcome game.CombatOutcome, attackerVehicle, defenderVehicle string, now time.Time) error {
	if u.Missions == nil {
		return nil
	}
	if outcome.AttackerDestroyed {
		if err := u.Missions.FailForVehicleInTx(txCtx, attackerVehicle, now); err != nil {
			return err
		}
	}
	if outcome.DefenderDestroyed && defenderVehicle != "" {
		if err := u.Missions.FailForVehicleInTx(txCtx, defenderVehicle, now); err != nil {
			return err
		}
	}
	return nil
}

func (u UseCase) applyPlayer(txCtx context.Context, p game.Player, credits, xp int, now time.Time) error {
	expected := p.Version
	p.Credits = credits
	p.GainExperience(xp)
	p.UpdatedAt = now
	p.Version++
	return u.Players.SaveWithVersion(txCtx, p, expected)
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

func (u UseCase) publish(rec game.CombatRecord, now time.Time) {
	if u.Publisher == nil {
		return
	}
	recipients := []string{rec.AttackerPlayerID}
	if rec.DefenderPlayerID != "" {
		recipients = append(recipients, rec.DefenderPlayerID)
	}
	u.Publisher.Publish(game.Event{
		ID:         uuid.NewString(),
		Type:       game.EventCombatResolved,
		OccurredAt: now,
		Recipients: recipients,
		Payload: map[string]any{
			"combat_id": rec.ID,
			"winner":    rec.WinnerPlayerID,
			"attacker":  rec.AttackerVehicle,
			"defender":  rec.DefenderVehicle,
		},
	})
}

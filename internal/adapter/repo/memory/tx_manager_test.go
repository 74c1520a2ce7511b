package memory

import (
	"context"
	"errors"
	"testing"

	"cargoclash/internal/domain/game"
)

var errBoom = errors.New("boom")

func TestRunInTx_RollsBackOnError(t *testing.T) {
	store := NewStore()
	store.SeedVehicle(game.Vehicle{ID: "v1", OwnerID: "p1", Type: game.VehicleTruck, Fuel: 100, Version: 1})
	store.SeedPlayer(game.Player{ID: "p1", Credits: 500, Version: 1})

	tx := NewTxManager(store)
	vehicles := NewVehicleRepo(store)
	players := NewPlayerRepo(store)
	combat := NewCombatLogRepo(store)

	err := tx.RunInTx(context.Background(), func(txCtx context.Context) error {
		v, err := vehicles.GetByID(txCtx, "v1")
		if err != nil {
			return err
		}
		v.Fuel = 1
		v.Version++
		if err := vehicles.SaveWithVersion(txCtx, v, 1); err != nil {
			return err
		}
		p, err := players.GetByID(txCtx, "p1")
		if err != nil {
			return err
		}
		p.Credits = 0
		p.Version++
		if err := players.SaveWithVersion(txCtx, p, 1); err != nil {
			return err
		}
		if err := combat.Append(txCtx, game.CombatRecord{ID: "c1"}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("RunInTx err = %v, want errBoom", err)
	}

	// Every write inside the errored transaction must be gone.
	err = tx.RunInTx(context.Background(), func(txCtx context.Context) error {
		v, err := vehicles.GetByID(txCtx, "v1")
		if err != nil {
			return err
		}
		if v.Fuel != 100 || v.Version != 1 {
			t.Fatalf("vehicle leaked from rolled-back tx: fuel=%d version=%d", v.Fuel, v.Version)
		}
		p, err := players.GetByID(txCtx, "p1")
		if err != nil {
			return err
		}
		if p.Credits != 500 || p.Version != 1 {
			t.Fatalf("player leaked from rolled-back tx: credits=%d version=%d", p.Credits, p.Version)
		}
		recs, err := combat.ListByPlayer(txCtx, "p1", 0)
		if err != nil {
			return err
		}
		if len(recs) != 0 {
			t.Fatalf("combat record leaked from rolled-back tx: %v", recs)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify tx: %v", err)
	}
}

func TestRunInTx_CommitsOnSuccess(t *testing.T) {
	store := NewStore()
	store.SeedVehicle(game.Vehicle{ID: "v1", Fuel: 100, Version: 1})

	tx := NewTxManager(store)
	vehicles := NewVehicleRepo(store)

	err := tx.RunInTx(context.Background(), func(txCtx context.Context) error {
		v, err := vehicles.GetByID(txCtx, "v1")
		if err != nil {
			return err
		}
		v.Fuel = 70
		v.Version++
		return vehicles.SaveWithVersion(txCtx, v, 1)
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}

	_ = tx.RunInTx(context.Background(), func(txCtx context.Context) error {
		v, err := vehicles.GetByID(txCtx, "v1")
		if err != nil {
			return err
		}
		if v.Fuel != 70 || v.Version != 2 {
			t.Fatalf("committed write lost: fuel=%d version=%d", v.Fuel, v.Version)
		}
		return nil
	})
}

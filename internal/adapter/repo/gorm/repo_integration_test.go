package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestVehicleRoundTripAndCAS(t *testing.T) {
	db := openTestDB(t)
	repo := NewVehicleRepo(db)
	ctx := context.Background()

	departed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eta := departed.Add(10 * time.Minute)
	v := game.Vehicle{
		ID: "v1", OwnerID: "p1", Name: "Hauler", Type: game.VehicleTruck,
		Fuel: 150, Durability: 90,
		Cargo: game.Manifest{game.CargoFood: 40},
		Travel: &game.Travel{
			Origin: "port-a", Destination: "port-b",
			DepartedAt: departed, ETA: eta,
		},
		Version: 1, UpdatedAt: departed,
	}
	if err := repo.SaveWithVersion(ctx, v, 0); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, "v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Cargo[game.CargoFood] != 40 {
		t.Fatalf("cargo = %v", got.Cargo)
	}
	if got.Travel == nil || !got.Travel.ETA.Equal(eta) {
		t.Fatalf("travel = %+v", got.Travel)
	}

	// Arrive and save under the expected version.
	got.ArriveAt(eta)
	expected := got.Version
	got.Version++
	if err := repo.SaveWithVersion(ctx, got, expected); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A stale writer must be rejected.
	if err := repo.SaveWithVersion(ctx, got, expected); !errors.Is(err, ports.ErrStaleVersion) {
		t.Fatalf("stale save: %v, want ErrStaleVersion", err)
	}

	got, _ = repo.GetByID(ctx, "v1")
	if got.Travel != nil || got.LocationID != "port-b" {
		t.Fatalf("arrival not persisted: %+v", got)
	}
	if !got.LastArrivalETA.Equal(eta) {
		t.Fatalf("arrival marker = %v", got.LastArrivalETA)
	}
}

func TestListDueArrivals(t *testing.T) {
	db := openTestDB(t)
	repo := NewVehicleRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, eta := range []time.Duration{30 * time.Minute, 10 * time.Minute, 20 * time.Minute} {
		at := base.Add(eta)
		v := game.Vehicle{
			ID: fmt.Sprintf("v%d", i), OwnerID: "p1", Type: game.VehicleTruck,
			Fuel: 100, Durability: 100,
			Travel:  &game.Travel{Origin: "a", Destination: "b", DepartedAt: base, ETA: at},
			Version: 1,
		}
		if err := repo.SaveWithVersion(ctx, v, 0); err != nil {
			t.Fatal(err)
		}
	}

	due, err := repo.ListDueArrivals(ctx, base.Add(25*time.Minute), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 {
		t.Fatalf("due = %d, want 2", len(due))
	}
	if !due[0].Travel.ETA.Before(due[1].Travel.ETA) {
		t.Fatal("due arrivals not ordered by eta")
	}
}

func TestMissionQueries(t *testing.T) {
	db := openTestDB(t)
	repo := NewMissionRepo(db)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	deadline := now.Add(time.Hour)

	m := game.Mission{
		ID: "m1", Title: "Deliver food", Origin: "a", Destination: "b",
		RequiredCargo: game.Manifest{game.CargoFood: 20},
		Status:        game.MissionInProgress, PlayerID: "p1", VehicleID: "v1",
		TimeLimit: time.Hour, Deadline: &deadline,
		Version: 1, UpdatedAt: now,
	}
	if err := repo.SaveWithVersion(ctx, m, 0); err != nil {
		t.Fatal(err)
	}

	active, err := repo.FindActiveByVehicle(ctx, "v1")
	if err != nil || active.ID != "m1" {
		t.Fatalf("active = %+v (%v)", active, err)
	}
	if active.TimeLimit != time.Hour {
		t.Fatalf("time limit = %v", active.TimeLimit)
	}

	if _, err := repo.FindActiveByVehicle(ctx, "ghost"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("ghost vehicle: %v", err)
	}

	expired, err := repo.ListDeadlineExpired(ctx, now.Add(2*time.Hour), 0)
	if err != nil || len(expired) != 1 {
		t.Fatalf("expired = %v (%v)", expired, err)
	}
	if got, _ := repo.ListDeadlineExpired(ctx, now.Add(30*time.Minute), 0); len(got) != 0 {
		t.Fatalf("premature expiry: %v", got)
	}

	// The sweep covers every non-terminal status, including an AVAILABLE
	// mission seeded with a deadline, and skips terminal ones.
	earlier := now.Add(-time.Hour)
	board := game.Mission{
		ID: "m2", Title: "Deliver fuel", Origin: "a", Destination: "b",
		RequiredCargo: game.Manifest{game.CargoFuel: 10},
		Status:        game.MissionAvailable,
		TimeLimit:     time.Hour, Deadline: &earlier,
		Version: 1, UpdatedAt: now,
	}
	if err := repo.SaveWithVersion(ctx, board, 0); err != nil {
		t.Fatal(err)
	}
	done := game.Mission{
		ID: "m3", Title: "Done", Origin: "a", Destination: "b",
		RequiredCargo: game.Manifest{game.CargoFood: 10},
		Status:        game.MissionCompleted, PlayerID: "p1", VehicleID: "v2",
		TimeLimit: time.Hour, Deadline: &earlier,
		Version: 1, UpdatedAt: now,
	}
	if err := repo.SaveWithVersion(ctx, done, 0); err != nil {
		t.Fatal(err)
	}
	expired, err = repo.ListDeadlineExpired(ctx, now, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(expired) != 1 || expired[0].ID != "m2" {
		t.Fatalf("expired = %v, want just m2", expired)
	}
}

func TestMarketEntryCompositeKey(t *testing.T) {
	db := openTestDB(t)
	repo := NewMarketRepo(db)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, loc := range []game.LocationID{"port-a", "port-b"} {
		e := game.MarketEntry{
			LocationID: loc, Cargo: game.CargoFuel, BasePrice: 8,
			Supply: 100, Demand: 100, Version: 1, UpdatedAt: now,
		}
		e.RecordSample(game.DefaultPricing(), now)
		if err := repo.SaveWithVersion(ctx, e, 0); err != nil {
			t.Fatal(err)
		}
	}

	e, err := repo.GetEntry(ctx, "port-a", game.CargoFuel)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.History) != 1 {
		t.Fatalf("history = %v", e.History)
	}

	e.ApplyTrade(game.TradeBuy, 30, game.DefaultPricing())
	expected := e.Version
	e.Version++
	if err := repo.SaveWithVersion(ctx, e, expected); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveWithVersion(ctx, e, expected); !errors.Is(err, ports.ErrStaleVersion) {
		t.Fatalf("stale entry save: %v", err)
	}

	byCargo, err := repo.ListByCargo(ctx, game.CargoFuel)
	if err != nil || len(byCargo) != 2 {
		t.Fatalf("by cargo = %v (%v)", byCargo, err)
	}
}

func TestCombatLogOrdering(t *testing.T) {
	db := openTestDB(t)
	repo := NewCombatLogRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rec := game.CombatRecord{
			ID:               fmt.Sprintf("c%d", i),
			AttackerPlayerID: "p1", DefenderPlayerID: "p2",
			Action: game.ActionAttack,
			Rounds: []game.CombatRound{{Round: 1, DamageToDefender: 5}},
			CargoTransfer: game.Manifest{game.CargoFood: 2},
			ResolvedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	records, err := repo.ListByPlayer(ctx, "p2", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].ID != "c2" {
		t.Fatalf("records = %v", records)
	}
	if records[0].Rounds[0].DamageToDefender != 5 {
		t.Fatalf("rounds lost in round trip: %v", records[0].Rounds)
	}
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	players := NewPlayerRepo(db)
	tx := NewTxManager(db)
	ctx := context.Background()

	if err := players.SaveWithVersion(ctx, game.Player{ID: "p1", Credits: 100, Version: 1}, 0); err != nil {
		t.Fatal(err)
	}

	sentinel := errors.New("abort")
	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := players.GetByID(txCtx, "p1")
		if err != nil {
			return err
		}
		expected := p.Version
		p.Credits = 0
		p.Version++
		if err := players.SaveWithVersion(txCtx, p, expected); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v", err)
	}

	p, err := players.GetByID(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Credits != 100 || p.Version != 1 {
		t.Fatalf("rollback failed: %+v", p)
	}
}

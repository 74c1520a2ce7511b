package travel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cargoclash/internal/adapter/repo/memory"
	"cargoclash/internal/app/ports"
	"cargoclash/internal/app/travel"
	"cargoclash/internal/domain/game"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newFixture() (*memory.Store, travel.UseCase) {
	store := memory.NewStore()
	store.SeedLocation(game.Location{ID: "port-a", Name: "Port A", X: 0, Y: 0})
	store.SeedLocation(game.Location{ID: "port-b", Name: "Port B", X: 500, Y: 0})
	store.SeedPlayer(game.Player{ID: "p1", Name: "Ada", Level: 1, Credits: 1000, Version: 1})
	store.SeedVehicle(game.Vehicle{
		ID: "v1", OwnerID: "p1", Name: "Hauler", Type: game.VehicleTruck,
		Fuel: 200, Durability: 100, LocationID: "port-a", Version: 1,
	})
	uc := travel.UseCase{
		Tx:        memory.NewTxManager(store),
		Vehicles:  memory.NewVehicleRepo(store),
		Locations: memory.NewLocationRepo(store),
		Publisher: ports.NopPublisher{},
		Cfg:       travel.DefaultConfig(),
	}
	return store, uc
}

func TestStartTravelSchedulesETAAndDeductsFuel(t *testing.T) {
	store, uc := newFixture()
	ctx := context.Background()

	res, err := uc.StartTravel(ctx, "p1", "v1", "port-b", t0)
	if err != nil {
		t.Fatalf("StartTravel: %v", err)
	}
	// distance 500, truck speed 60 -> 8m20s at one minute per unit; fuel 50.
	travelMinutes := 500.0 / 60.0
	wantETA := t0.Add(time.Duration(travelMinutes * float64(time.Minute)))
	if !res.ETA.Equal(wantETA) {
		t.Fatalf("ETA = %v, want %v", res.ETA, wantETA)
	}
	if res.FuelCost != 50 {
		t.Fatalf("FuelCost = %d, want 50", res.FuelCost)
	}

	v, err := memory.NewVehicleRepo(store).GetByID(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if v.Fuel != 150 {
		t.Fatalf("fuel after departure = %d, want 150", v.Fuel)
	}
	if v.Stationary() || v.LocationID != "" {
		t.Fatalf("vehicle should be in transit with no stationary location, got %+v", v)
	}
	if v.Travel.Destination != "port-b" {
		t.Fatalf("travel destination = %q", v.Travel.Destination)
	}
}

func TestStartTravelRejections(t *testing.T) {
	_, uc := newFixture()
	ctx := context.Background()

	if _, err := uc.StartTravel(ctx, "p1", "v1", "port-a", t0); !errors.Is(err, ports.ErrInvalidState) {
		t.Fatalf("same location: got %v, want invalid state", err)
	}
	if _, err := uc.StartTravel(ctx, "p1", "v1", "nowhere", t0); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("unknown destination: got %v, want not found", err)
	}
	if _, err := uc.StartTravel(ctx, "p2", "v1", "port-b", t0); !errors.Is(err, ports.ErrUnauthorized) {
		t.Fatalf("other player's vehicle: got %v, want unauthorized", err)
	}

	if _, err := uc.StartTravel(ctx, "p1", "v1", "port-b", t0); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.StartTravel(ctx, "p1", "v1", "port-b", t0); !errors.Is(err, ports.ErrInvalidState) {
		t.Fatalf("already traveling: got %v, want invalid state", err)
	}
}

func TestStartTravelInsufficientFuel(t *testing.T) {
	store, uc := newFixture()
	store.SeedVehicle(game.Vehicle{
		ID: "v2", OwnerID: "p1", Type: game.VehicleTruck,
		Fuel: 10, Durability: 100, LocationID: "port-a", Version: 1,
	})

	_, err := uc.StartTravel(context.Background(), "p1", "v2", "port-b", t0)
	if !errors.Is(err, ports.ErrInsufficientResource) {
		t.Fatalf("got %v, want insufficient resource", err)
	}

	v, _ := memory.NewVehicleRepo(store).GetByID(context.Background(), "v2")
	if v.Fuel != 10 || !v.Stationary() {
		t.Fatalf("failed command must not mutate the vehicle, got %+v", v)
	}
}

func TestProcessArrivalsIsIdempotent(t *testing.T) {
	store, uc := newFixture()
	ctx := context.Background()

	res, err := uc.StartTravel(ctx, "p1", "v1", "port-b", t0)
	if err != nil {
		t.Fatal(err)
	}

	early := res.ETA.Add(-time.Second)
	if n, err := uc.ProcessArrivals(ctx, early); err != nil || n != 0 {
		t.Fatalf("before ETA: processed %d (%v), want 0", n, err)
	}

	late := res.ETA.Add(time.Second)
	if n, err := uc.ProcessArrivals(ctx, late); err != nil || n != 1 {
		t.Fatalf("at ETA: processed %d (%v), want 1", n, err)
	}
	if n, err := uc.ProcessArrivals(ctx, late); err != nil || n != 0 {
		t.Fatalf("second sweep: processed %d (%v), want 0", n, err)
	}

	v, _ := memory.NewVehicleRepo(store).GetByID(ctx, "v1")
	if !v.Stationary() || v.LocationID != "port-b" {
		t.Fatalf("vehicle should be stationary at port-b, got %+v", v)
	}
}

type captureHandler struct{ arrivals int }

func (h *captureHandler) HandleArrival(context.Context, game.Vehicle, time.Time) error {
	h.arrivals++
	return nil
}

func TestProcessArrivalsNotifiesHandlerOnce(t *testing.T) {
	_, uc := newFixture()
	h := &captureHandler{}
	uc.Arrivals = h
	ctx := context.Background()

	res, err := uc.StartTravel(ctx, "p1", "v1", "port-b", t0)
	if err != nil {
		t.Fatal(err)
	}
	late := res.ETA.Add(time.Second)
	if _, err := uc.ProcessArrivals(ctx, late); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.ProcessArrivals(ctx, late); err != nil {
		t.Fatal(err)
	}
	if h.arrivals != 1 {
		t.Fatalf("handler invoked %d times, want 1", h.arrivals)
	}
}

func TestRefuelAndRepairChargeCredits(t *testing.T) {
	store, _ := newFixture()
	store.SeedVehicle(game.Vehicle{
		ID: "v3", OwnerID: "p1", Type: game.VehicleTruck,
		Fuel: 150, Durability: 80, LocationID: "port-a", Version: 1,
	})
	maint := travel.MaintenanceUseCase{
		Tx:       memory.NewTxManager(store),
		Vehicles: memory.NewVehicleRepo(store),
		Players:  memory.NewPlayerRepo(store),
	}
	ctx := context.Background()

	res, err := maint.Refuel(ctx, "p1", "v3", t0)
	if err != nil {
		t.Fatalf("Refuel: %v", err)
	}
	if res.Fuel != 200 || res.Cost != 100 {
		t.Fatalf("refuel fuel=%d cost=%d, want 200/100", res.Fuel, res.Cost)
	}

	res, err = maint.Repair(ctx, "p1", "v3", t0)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if res.Durability != 100 || res.Cost != 100 {
		t.Fatalf("repair durability=%d cost=%d, want 100/100", res.Durability, res.Cost)
	}

	p, _ := memory.NewPlayerRepo(store).GetByID(ctx, "p1")
	if p.Credits != 800 {
		t.Fatalf("credits = %d, want 800", p.Credits)
	}

	if _, err := maint.Refuel(ctx, "p1", "v3", t0); !errors.Is(err, ports.ErrInvalidState) {
		t.Fatalf("full tank: got %v, want invalid state", err)
	}
}

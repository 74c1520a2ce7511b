package market_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cargoclash/internal/adapter/repo/memory"
	"cargoclash/internal/app/market"
	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newFixture() (*memory.Store, market.UseCase) {
	store := memory.NewStore()
	store.SeedLocation(game.Location{ID: "port-a", Name: "Port A", EquilibriumSupply: 100, EquilibriumDemand: 100})
	store.SeedLocation(game.Location{ID: "port-b", Name: "Port B", X: 300, EquilibriumSupply: 100, EquilibriumDemand: 100})
	store.SeedPlayer(game.Player{ID: "p1", Credits: 10000, Version: 1})
	store.SeedVehicle(game.Vehicle{
		ID: "v1", OwnerID: "p1", Type: game.VehicleTruck,
		Fuel: 200, Durability: 100, LocationID: "port-a", Version: 1,
	})
	store.SeedMarketEntry(game.MarketEntry{LocationID: "port-a", Cargo: game.CargoFood, BasePrice: 10, Supply: 100, Demand: 100, Version: 1})
	store.SeedMarketEntry(game.MarketEntry{LocationID: "port-b", Cargo: game.CargoFood, BasePrice: 10, Supply: 20, Demand: 300, Version: 1})
	uc := market.UseCase{
		Tx:        memory.NewTxManager(store),
		Entries:   memory.NewMarketRepo(store),
		Vehicles:  memory.NewVehicleRepo(store),
		Players:   memory.NewPlayerRepo(store),
		Locations: memory.NewLocationRepo(store),
		Publisher: ports.NopPublisher{},
		Pricing:   game.DefaultPricing(),
	}
	return store, uc
}

func TestBuyMovesPriceUp(t *testing.T) {
	store, uc := newFixture()
	ctx := context.Background()

	res, err := uc.Trade(ctx, "p1", "v1", game.CargoFood, game.TradeBuy, 20, t0)
	if err != nil {
		t.Fatalf("Trade: %v", err)
	}
	// Balanced entry at base 10: mid 10, buy 12, charged at the pre-trade quote.
	if res.UnitPrice != 12 || res.Total != 240 {
		t.Fatalf("unit=%d total=%d, want 12/240", res.UnitPrice, res.Total)
	}

	e, _ := memory.NewMarketRepo(store).GetEntry(ctx, "port-a", game.CargoFood)
	if e.Supply != 80 || e.Demand != 120 {
		t.Fatalf("supply/demand = %d/%d, want 80/120", e.Supply, e.Demand)
	}
	// Post-trade the mid sits above base: demand now exceeds supply.
	if mid := e.Price(game.DefaultPricing()); mid <= 10 {
		t.Fatalf("mid after buy = %d, want > 10", mid)
	}

	v, _ := memory.NewVehicleRepo(store).GetByID(ctx, "v1")
	if v.Cargo[game.CargoFood] != 20 {
		t.Fatalf("cargo = %v", v.Cargo)
	}
	p, _ := memory.NewPlayerRepo(store).GetByID(ctx, "p1")
	if p.Credits != 10000-240 {
		t.Fatalf("credits = %d", p.Credits)
	}
}

func TestSellCreditsAtSellQuote(t *testing.T) {
	store, uc := newFixture()
	store.SeedVehicle(game.Vehicle{
		ID: "v1", OwnerID: "p1", Type: game.VehicleTruck,
		Fuel: 200, Durability: 100, LocationID: "port-a",
		Cargo: game.Manifest{game.CargoFood: 50}, Version: 1,
	})
	ctx := context.Background()

	res, err := uc.Trade(ctx, "p1", "v1", game.CargoFood, game.TradeSell, 30, t0)
	if err != nil {
		t.Fatalf("Trade: %v", err)
	}
	if res.UnitPrice != 8 || res.Total != 240 {
		t.Fatalf("unit=%d total=%d, want 8/240", res.UnitPrice, res.Total)
	}
	e, _ := memory.NewMarketRepo(store).GetEntry(ctx, "port-a", game.CargoFood)
	if e.Supply != 130 || e.Demand != 70 {
		t.Fatalf("supply/demand = %d/%d, want 130/70", e.Supply, e.Demand)
	}
}

func TestTradeRejections(t *testing.T) {
	_, uc := newFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"zero quantity", func() error {
			_, err := uc.Trade(ctx, "p1", "v1", game.CargoFood, game.TradeBuy, 0, t0)
			return err
		}, ports.ErrInvalidState},
		{"unknown cargo", func() error {
			_, err := uc.Trade(ctx, "p1", "v1", "plutonium", game.TradeBuy, 1, t0)
			return err
		}, ports.ErrInvalidState},
		{"beyond supply", func() error {
			_, err := uc.Trade(ctx, "p1", "v1", game.CargoFood, game.TradeBuy, 101, t0)
			return err
		}, ports.ErrInsufficientResource},
		{"selling unheld cargo", func() error {
			_, err := uc.Trade(ctx, "p1", "v1", game.CargoFood, game.TradeSell, 5, t0)
			return err
		}, ports.ErrInsufficientResource},
		{"not the owner", func() error {
			_, err := uc.Trade(ctx, "p2", "v1", game.CargoFood, game.TradeBuy, 1, t0)
			return err
		}, ports.ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBuyBeyondCapacityRollsBack(t *testing.T) {
	store, uc := newFixture()
	ctx := context.Background()

	// Truck capacity is 150; push supply high enough that capacity is the
	// binding constraint.
	store.SeedMarketEntry(game.MarketEntry{LocationID: "port-a", Cargo: game.CargoFood, BasePrice: 10, Supply: 500, Demand: 100, Version: 1})
	_, err := uc.Trade(ctx, "p1", "v1", game.CargoFood, game.TradeBuy, 200, t0)
	if !errors.Is(err, ports.ErrInsufficientResource) {
		t.Fatalf("got %v, want insufficient resource", err)
	}

	p, _ := memory.NewPlayerRepo(store).GetByID(ctx, "p1")
	if p.Credits != 10000 {
		t.Fatalf("credits mutated on failed trade: %d", p.Credits)
	}
	e, _ := memory.NewMarketRepo(store).GetEntry(ctx, "port-a", game.CargoFood)
	if e.Supply != 500 || e.Demand != 100 {
		t.Fatalf("entry mutated on failed trade: %d/%d", e.Supply, e.Demand)
	}
}

func TestArbitrageRanksByMargin(t *testing.T) {
	_, uc := newFixture()

	routes, err := uc.Arbitrage(context.Background(), game.CargoFood, 1)
	if err != nil {
		t.Fatalf("Arbitrage: %v", err)
	}
	if len(routes) == 0 {
		t.Fatal("expected at least one route: port-b food is scarce and dear")
	}
	best := routes[0]
	if best.BuyAt != "port-a" || best.SellAt != "port-b" {
		t.Fatalf("best route %s -> %s, want port-a -> port-b", best.BuyAt, best.SellAt)
	}
	for i := 1; i < len(routes); i++ {
		if routes[i].Margin > routes[i-1].Margin {
			t.Fatalf("routes not sorted by margin desc at %d", i)
		}
	}
}

func TestDriftConvergesOnEquilibrium(t *testing.T) {
	store, uc := newFixture()
	ctx := context.Background()

	for i := 0; i < 400; i++ {
		if _, err := uc.DriftAll(ctx, t0.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("DriftAll: %v", err)
		}
	}
	e, _ := memory.NewMarketRepo(store).GetEntry(ctx, "port-b", game.CargoFood)
	if e.Supply != 100 || e.Demand != 100 {
		t.Fatalf("drift did not converge: %d/%d", e.Supply, e.Demand)
	}
	if len(e.History) > game.DefaultPricing().HistoryLimit {
		t.Fatalf("history exceeds limit: %d", len(e.History))
	}
}

func TestPricesRequiresKnownLocation(t *testing.T) {
	_, uc := newFixture()
	if _, err := uc.Prices(context.Background(), "nowhere"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
	quotes, err := uc.Prices(context.Background(), "port-a")
	if err != nil || len(quotes) != 1 {
		t.Fatalf("quotes = %v (%v)", quotes, err)
	}
	if quotes[0].BuyPrice < quotes[0].SellPrice {
		t.Fatal("buy quote below sell quote")
	}
}

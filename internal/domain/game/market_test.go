package game

import (
	"testing"
	"time"
)

func TestPriceRespondsToDemand(t *testing.T) {
	cfg := DefaultPricing()
	entry := MarketEntry{LocationID: "port-a", Cargo: CargoFood, BasePrice: 10, Supply: 100, Demand: 100}

	base := entry.BuyPrice(cfg)

	entry.ApplyTrade(TradeBuy, 20, cfg)
	if entry.Supply != 80 {
		t.Fatalf("expected supply 80, got %d", entry.Supply)
	}
	if entry.Demand != 120 {
		t.Fatalf("expected demand 120, got %d", entry.Demand)
	}
	if entry.BuyPrice(cfg) <= base {
		t.Fatalf("expected buy price above %d after buy, got %d", base, entry.BuyPrice(cfg))
	}
	if entry.BuyPrice(cfg) <= entry.BasePrice {
		t.Fatalf("expected buy price strictly above base %d, got %d", entry.BasePrice, entry.BuyPrice(cfg))
	}
}

func TestPriceClampedToBand(t *testing.T) {
	cfg := DefaultPricing()
	entry := MarketEntry{LocationID: "port-a", Cargo: CargoFuel, BasePrice: 100, Supply: 10, Demand: 100000}

	hi := int(float64(entry.BasePrice) * cfg.MaxMultiplier)
	if got := entry.Price(cfg); got > hi {
		t.Fatalf("price %d above upper clamp %d", got, hi)
	}

	entry.Supply = 100000
	entry.Demand = 10
	lo := int(float64(entry.BasePrice) * cfg.MinMultiplier)
	if got := entry.Price(cfg); got < lo {
		t.Fatalf("price %d below lower clamp %d", got, lo)
	}
}

func TestBuyPriceAboveSellPrice(t *testing.T) {
	cfg := DefaultPricing()
	entry := MarketEntry{LocationID: "port-a", Cargo: CargoWeapons, BasePrice: 40, Supply: 120, Demand: 80}

	if entry.BuyPrice(cfg) < entry.SellPrice(cfg)+2*cfg.Spread {
		t.Fatalf("expected buy %d >= sell %d plus spread", entry.BuyPrice(cfg), entry.SellPrice(cfg))
	}
}

func TestTradeNeverDrivesSupplyNegative(t *testing.T) {
	cfg := DefaultPricing()
	entry := MarketEntry{LocationID: "port-a", Cargo: CargoFood, BasePrice: 10, Supply: 15, Demand: 15}

	entry.ApplyTrade(TradeBuy, 15, cfg)
	if entry.Supply < cfg.SupplyFloor {
		t.Fatalf("supply %d fell below floor %d", entry.Supply, cfg.SupplyFloor)
	}

	entry.ApplyTrade(TradeSell, 500, cfg)
	if entry.Demand < cfg.DemandFloor {
		t.Fatalf("demand %d fell below floor %d", entry.Demand, cfg.DemandFloor)
	}
}

func TestDriftMovesTowardEquilibrium(t *testing.T) {
	cfg := DefaultPricing()
	entry := MarketEntry{LocationID: "port-a", Cargo: CargoFood, BasePrice: 10, Supply: 200, Demand: 50}

	moved := entry.Drift(100, 100, cfg)
	if !moved {
		t.Fatalf("expected drift to move supply/demand")
	}
	if entry.Supply >= 200 {
		t.Fatalf("expected supply to fall toward equilibrium, got %d", entry.Supply)
	}
	if entry.Demand <= 50 {
		t.Fatalf("expected demand to rise toward equilibrium, got %d", entry.Demand)
	}

	// Drift converges: repeated passes must reach the equilibrium exactly.
	for i := 0; i < 500; i++ {
		entry.Drift(100, 100, cfg)
	}
	if entry.Supply != 100 || entry.Demand != 100 {
		t.Fatalf("expected convergence to 100/100, got %d/%d", entry.Supply, entry.Demand)
	}
}

func TestHistoryBounded(t *testing.T) {
	cfg := DefaultPricing()
	cfg.HistoryLimit = 5
	entry := MarketEntry{LocationID: "port-a", Cargo: CargoFood, BasePrice: 10, Supply: 100, Demand: 100}

	start := time.Unix(0, 0)
	for i := 0; i < 12; i++ {
		entry.RecordSample(cfg, start.Add(time.Duration(i)*time.Minute))
	}
	if len(entry.History) != 5 {
		t.Fatalf("expected history capped at 5, got %d", len(entry.History))
	}
	if !entry.History[0].At.Equal(start.Add(7 * time.Minute)) {
		t.Fatalf("expected oldest sample evicted, first is %v", entry.History[0].At)
	}
}

package game

import (
	"math"
	"time"
)

type TradeDirection string

const (
	TradeBuy  TradeDirection = "buy"
	TradeSell TradeDirection = "sell"
)

// PricingConfig tunes the supply/demand price model shared by every entry.
type PricingConfig struct {
	Sensitivity   float64 // k in price = base * (1 + k*(d-s)/(d+s+eps))
	Epsilon       float64
	MinMultiplier float64 // lower clamp, as a fraction of base price
	MaxMultiplier float64 // upper clamp
	Spread        int     // buy = price + spread, sell = price - spread
	SupplyFloor   int     // supply/demand never drift below these
	DemandFloor   int
	HistoryLimit  int
	DriftRate     float64 // fraction of the equilibrium gap closed per pass
}

func DefaultPricing() PricingConfig {
	return PricingConfig{
		Sensitivity:   0.5,
		Epsilon:       1,
		MinMultiplier: 0.5,
		MaxMultiplier: 2.0,
		Spread:        2,
		SupplyFloor:   10,
		DemandFloor:   10,
		HistoryLimit:  48,
		DriftRate:     0.05,
	}
}

type PricePoint struct {
	BuyPrice  int       `json:"buy_price"`
	SellPrice int       `json:"sell_price"`
	At        time.Time `json:"at"`
}

// MarketEntry is the per-(location, cargo) pricing state. Prices are always
// derived from supply and demand, never written directly.
type MarketEntry struct {
	LocationID LocationID   `json:"location_id"`
	Cargo      CargoType    `json:"cargo"`
	BasePrice  int          `json:"base_price"`
	Supply     int          `json:"supply"`
	Demand     int          `json:"demand"`
	History    []PricePoint `json:"history,omitempty"`
	Version    int64        `json:"version"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Price is the clamped mid price for the current supply/demand balance.
func (e *MarketEntry) Price(cfg PricingConfig) int {
	s := float64(e.Supply)
	d := float64(e.Demand)
	raw := float64(e.BasePrice) * (1 + cfg.Sensitivity*(d-s)/(d+s+cfg.Epsilon))
	lo := float64(e.BasePrice) * cfg.MinMultiplier
	hi := float64(e.BasePrice) * cfg.MaxMultiplier
	clamped := math.Max(lo, math.Min(hi, raw))
	return int(math.Round(clamped))
}

func (e *MarketEntry) BuyPrice(cfg PricingConfig) int {
	return e.Price(cfg) + cfg.Spread
}

func (e *MarketEntry) SellPrice(cfg PricingConfig) int {
	p := e.Price(cfg) - cfg.Spread
	if p < 1 {
		p = 1
	}
	return p
}

// ApplyTrade shifts supply and demand for a trade of qty units. The caller
// validates availability; floors keep the pricing function away from its
// division singularity.
func (e *MarketEntry) ApplyTrade(dir TradeDirection, qty int, cfg PricingConfig) {
	switch dir {
	case TradeBuy:
		e.Supply = maxInt(cfg.SupplyFloor, e.Supply-qty)
		e.Demand += qty
	case TradeSell:
		e.Supply += qty
		e.Demand = maxInt(cfg.DemandFloor, e.Demand-qty)
	}
}

// Drift nudges supply and demand one step toward the location equilibrium.
// Reports whether anything moved.
func (e *MarketEntry) Drift(eqSupply, eqDemand int, cfg PricingConfig) bool {
	moved := false
	if next := driftStep(e.Supply, eqSupply, cfg.DriftRate); next != e.Supply {
		e.Supply = maxInt(cfg.SupplyFloor, next)
		moved = true
	}
	if next := driftStep(e.Demand, eqDemand, cfg.DriftRate); next != e.Demand {
		e.Demand = maxInt(cfg.DemandFloor, next)
		moved = true
	}
	return moved
}

func driftStep(current, target int, rate float64) int {
	gap := target - current
	if gap == 0 {
		return current
	}
	step := int(math.Round(float64(gap) * rate))
	if step == 0 {
		if gap > 0 {
			step = 1
		} else {
			step = -1
		}
	}
	return current + step
}

// RecordSample appends a price point, evicting the oldest past the limit.
func (e *MarketEntry) RecordSample(cfg PricingConfig, now time.Time) {
	e.History = append(e.History, PricePoint{
		BuyPrice:  e.BuyPrice(cfg),
		SellPrice: e.SellPrice(cfg),
		At:        now,
	})
	if cfg.HistoryLimit > 0 && len(e.History) > cfg.HistoryLimit {
		e.History = e.History[len(e.History)-cfg.HistoryLimit:]
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package market

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"

	"github.com/google/uuid"
)

var (
	ErrVehicleNotPresent = fmt.Errorf("%w: vehicle is not at the market location", ports.ErrInvalidState)
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be positive", ports.ErrInvalidState)
	ErrUnknownCargo      = fmt.Errorf("%w: unknown cargo type", ports.ErrInvalidState)
	ErrNoSupply          = fmt.Errorf("%w: market cannot supply that quantity", ports.ErrInsufficientResource)
	ErrCargoCapacity     = fmt.Errorf("%w: vehicle cargo capacity exceeded", ports.ErrInsufficientResource)
	ErrCargoShort        = fmt.Errorf("%w: vehicle does not hold that quantity", ports.ErrInsufficientResource)
	ErrCreditsShort      = fmt.Errorf("%w: insufficient credits", ports.ErrInsufficientResource)
)

type UseCase struct {
	Tx        ports.TxManager
	Entries   ports.MarketRepository
	Vehicles  ports.VehicleRepository
	Players   ports.PlayerRepository
	Locations ports.LocationRepository
	Publisher ports.EventPublisher
	Metrics   ports.CommandMetrics
	Pricing   game.PricingConfig
}

type TradeResult struct {
	LocationID game.LocationID `json:"location_id"`
	Cargo      game.CargoType  `json:"cargo"`
	Direction  game.TradeDirection
	Quantity   int `json:"quantity"`
	UnitPrice  int `json:"unit_price"`
	Total      int `json:"total"`
	Credits    int `json:"credits"`
}

// Trade executes a buy or sell at the unit price quoted before the trade
// shifts supply and demand. Credits, cargo and the market entry move in one
// transaction under version checks, so a conflict rolls everything back.
func (u UseCase) Trade(ctx context.Context, playerID, vehicleID string, cargo game.CargoType, dir game.TradeDirection, qty int, now time.Time) (TradeResult, error) {
	var out TradeResult
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if qty <= 0 {
			return ErrInvalidQuantity
		}
		if !game.ValidCargoType(cargo) {
			return ErrUnknownCargo
		}
		v, err := u.Vehicles.GetByID(txCtx, vehicleID)
		if err != nil {
			return err
		}
		if v.OwnerID != playerID {
			return ports.ErrUnauthorized
		}
		if !v.Stationary() || v.Destroyed {
			return ErrVehicleNotPresent
		}
		p, err := u.Players.GetByID(txCtx, playerID)
		if err != nil {
			return err
		}
		e, err := u.Entries.GetEntry(txCtx, v.LocationID, cargo)
		if err != nil {
			return err
		}

		var unit int
		switch dir {
		case game.TradeBuy:
			unit = e.BuyPrice(u.Pricing)
			total := unit * qty
			if e.Supply < qty {
				return ErrNoSupply
			}
			if !v.CanCarry(qty) {
				return ErrCargoCapacity
			}
			if !p.SpendCredits(total) {
				return ErrCreditsShort
			}
			v.AddCargo(cargo, qty)
		case game.TradeSell:
			unit = e.SellPrice(u.Pricing)
			if !v.RemoveCargo(cargo, qty) {
				return ErrCargoShort
			}
			p.Credits += unit * qty
		default:
			return fmt.Errorf("%w: unknown trade direction %q", ports.ErrInvalidState, dir)
		}

		e.ApplyTrade(dir, qty, u.Pricing)
		e.RecordSample(u.Pricing, now)

		expectedE := e.Version
		e.UpdatedAt = now
		e.Version++
		if err := u.Entries.SaveWithVersion(txCtx, e, expectedE); err != nil {
			return err
		}
		expectedV := v.Version
		v.UpdatedAt = now
		v.Version++
		if err := u.Vehicles.SaveWithVersion(txCtx, v, expectedV); err != nil {
			return err
		}
		expectedP := p.Version
		p.UpdatedAt = now
		p.Version++
		if err := u.Players.SaveWithVersion(txCtx, p, expectedP); err != nil {
			return err
		}

		out = TradeResult{
			LocationID: e.LocationID,
			Cargo:      cargo,
			Direction:  dir,
			Quantity:   qty,
			UnitPrice:  unit,
			Total:      unit * qty,
			Credits:    p.Credits,
		}
		return nil
	})
	u.record("market.trade", err)
	if err != nil {
		return TradeResult{}, err
	}
	u.publishPrice(out.LocationID, out.Cargo, now)
	return out, nil
}

// Quote returns the current entry with derived prices attached.
type Quote struct {
	game.MarketEntry
	BuyPrice  int `json:"buy_price"`
	SellPrice int `json:"sell_price"`
}

func (u UseCase) quote(e game.MarketEntry) Quote {
	return Quote{MarketEntry: e, BuyPrice: e.BuyPrice(u.Pricing), SellPrice: e.SellPrice(u.Pricing)}
}

// Prices lists every entry at a location.
func (u UseCase) Prices(ctx context.Context, loc game.LocationID) ([]Quote, error) {
	var out []Quote
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := u.Locations.GetByID(txCtx, loc); err != nil {
			return err
		}
		all, err := u.Entries.ListAll(txCtx)
		if err != nil {
			return err
		}
		for _, e := range all {
			if e.LocationID == loc {
				out = append(out, u.quote(e))
			}
		}
		return nil
	})
	return out, err
}

// History returns the retained price samples for one entry.
func (u UseCase) History(ctx context.Context, loc game.LocationID, cargo game.CargoType) ([]game.PricePoint, error) {
	var out []game.PricePoint
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		e, err := u.Entries.GetEntry(txCtx, loc, cargo)
		if err != nil {
			return err
		}
		out = e.History
		return nil
	})
	return out, err
}

// ArbitrageRoute pairs a cheap source with a dear sink for one cargo type.
type ArbitrageRoute struct {
	Cargo     game.CargoType  `json:"cargo"`
	BuyAt     game.LocationID `json:"buy_at"`
	BuyPrice  int             `json:"buy_price"`
	SellAt    game.LocationID `json:"sell_at"`
	SellPrice int             `json:"sell_price"`
	Margin    int             `json:"margin"`
}

// Arbitrage ranks location pairs by per-unit margin above minMargin,
// descending. Quotes are a snapshot; prices move the moment anyone trades.
func (u UseCase) Arbitrage(ctx context.Context, cargo game.CargoType, minMargin int) ([]ArbitrageRoute, error) {
	if !game.ValidCargoType(cargo) {
		return nil, ErrUnknownCargo
	}
	var entries []game.MarketEntry
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		entries, err = u.Entries.ListByCargo(txCtx, cargo)
		return err
	})
	if err != nil {
		return nil, err
	}

	var routes []ArbitrageRoute
	for _, src := range entries {
		buy := src.BuyPrice(u.Pricing)
		for _, dst := range entries {
			if src.LocationID == dst.LocationID {
				continue
			}
			sell := dst.SellPrice(u.Pricing)
			if margin := sell - buy; margin >= minMargin && margin > 0 {
				routes = append(routes, ArbitrageRoute{
					Cargo:     cargo,
					BuyAt:     src.LocationID,
					BuyPrice:  buy,
					SellAt:    dst.LocationID,
					SellPrice: sell,
					Margin:    margin,
				})
			}
		}
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Margin != routes[j].Margin {
			return routes[i].Margin > routes[j].Margin
		}
		if routes[i].BuyAt != routes[j].BuyAt {
			return routes[i].BuyAt < routes[j].BuyAt
		}
		return routes[i].SellAt < routes[j].SellAt
	})
	return routes, nil
}

// DriftAll nudges every entry toward its location's equilibrium. Entries are
// isolated per transaction so one conflict never stalls the pass.
func (u UseCase) DriftAll(ctx context.Context, now time.Time) (int, error) {
	var all []game.MarketEntry
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		all, err = u.Entries.ListAll(txCtx)
		return err
	})
	if err != nil {
		return 0, err
	}

	moved := 0
	var errs []error
	for _, snapshot := range all {
		changed, err := u.driftOne(ctx, snapshot.LocationID, snapshot.Cargo, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %s/%s: %w", snapshot.LocationID, snapshot.Cargo, err))
			continue
		}
		if changed {
			moved++
			u.publishPrice(snapshot.LocationID, snapshot.Cargo, now)
		}
	}
	return moved, errors.Join(errs...)
}

func (u UseCase) driftOne(ctx context.Context, loc game.LocationID, cargo game.CargoType, now time.Time) (bool, error) {
	changed := false
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		e, err := u.Entries.GetEntry(txCtx, loc, cargo)
		if err != nil {
			return err
		}
		l, err := u.Locations.GetByID(txCtx, loc)
		if err != nil {
			return err
		}
		if !e.Drift(l.EquilibriumSupply, l.EquilibriumDemand, u.Pricing) {
			return nil
		}
		e.RecordSample(u.Pricing, now)
		expected := e.Version
		e.UpdatedAt = now
		e.Version++
		if err := u.Entries.SaveWithVersion(txCtx, e, expected); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
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

func (u UseCase) publishPrice(loc game.LocationID, cargo game.CargoType, now time.Time) {
	if u.Publisher == nil {
		return
	}
	u.Publisher.Publish(game.Event{
		ID:         uuid.NewString(),
		Type:       game.EventPriceChanged,
		OccurredAt: now,
		Payload: map[string]any{
			"location_id": string(loc),
			"cargo":       string(cargo),
		},
	})
}

package gormrepo

import (
	"encoding/json"
	"time"

	"cargoclash/internal/domain/game"
)

type playerModel struct {
	ID         string `gorm:"primaryKey"`
	Name       string
	Level      int
	Experience int
	Credits    int
	Reputation int
	Version    int64
	UpdatedAt  time.Time
}

func (playerModel) TableName() string { return "players" }

func toPlayerModel(p game.Player) playerModel {
	return playerModel{
		ID: p.ID, Name: p.Name, Level: p.Level, Experience: p.Experience,
		Credits: p.Credits, Reputation: p.Reputation,
		Version: p.Version, UpdatedAt: p.UpdatedAt,
	}
}

func (m playerModel) toDomain() game.Player {
	return game.Player{
		ID: m.ID, Name: m.Name, Level: m.Level, Experience: m.Experience,
		Credits: m.Credits, Reputation: m.Reputation,
		Version: m.Version, UpdatedAt: m.UpdatedAt,
	}
}

type vehicleModel struct {
	ID             string `gorm:"primaryKey"`
	OwnerID        string `gorm:"index"`
	Name           string
	Type           string
	Fuel           int
	Durability     int
	Cargo          []byte
	Destroyed      bool
	LocationID     string
	Traveling      bool `gorm:"index"`
	TravelOrigin   string
	TravelDest     string
	DepartedAt     *time.Time
	ETA            *time.Time `gorm:"index"`
	LastArrivalETA *time.Time
	Version        int64
	UpdatedAt      time.Time
}

func (vehicleModel) TableName() string { return "vehicles" }

func toVehicleModel(v game.Vehicle) (vehicleModel, error) {
	cargo, err := json.Marshal(v.Cargo)
	if err != nil {
		return vehicleModel{}, err
	}
	m := vehicleModel{
		ID: v.ID, OwnerID: v.OwnerID, Name: v.Name, Type: string(v.Type),
		Fuel: v.Fuel, Durability: v.Durability, Cargo: cargo,
		Destroyed: v.Destroyed, LocationID: string(v.LocationID),
		Version: v.Version, UpdatedAt: v.UpdatedAt,
	}
	if !v.LastArrivalETA.IsZero() {
		t := v.LastArrivalETA
		m.LastArrivalETA = &t
	}
	if v.Travel != nil {
		m.Traveling = true
		m.TravelOrigin = string(v.Travel.Origin)
		m.TravelDest = string(v.Travel.Destination)
		departed := v.Travel.DepartedAt
		eta := v.Travel.ETA
		m.DepartedAt = &departed
		m.ETA = &eta
	}
	return m, nil
}

func (m vehicleModel) toDomain() (game.Vehicle, error) {
	var cargo game.Manifest
	if len(m.Cargo) > 0 {
		if err := json.Unmarshal(m.Cargo, &cargo); err != nil {
			return game.Vehicle{}, err
		}
	}
	v := game.Vehicle{
		ID: m.ID, OwnerID: m.OwnerID, Name: m.Name, Type: game.VehicleType(m.Type),
		Fuel: m.Fuel, Durability: m.Durability, Cargo: cargo,
		Destroyed: m.Destroyed, LocationID: game.LocationID(m.LocationID),
		Version: m.Version, UpdatedAt: m.UpdatedAt,
	}
	if m.LastArrivalETA != nil {
		v.LastArrivalETA = *m.LastArrivalETA
	}
	if m.Traveling && m.DepartedAt != nil && m.ETA != nil {
		v.Travel = &game.Travel{
			Origin:      game.LocationID(m.TravelOrigin),
			Destination: game.LocationID(m.TravelDest),
			DepartedAt:  *m.DepartedAt,
			ETA:         *m.ETA,
		}
	}
	return v, nil
}

type locationModel struct {
	ID                string `gorm:"primaryKey"`
	Name              string
	X                 float64
	Y                 float64
	DangerLevel       int
	EquilibriumSupply int
	EquilibriumDemand int
}

func (locationModel) TableName() string { return "locations" }

func toLocationModel(l game.Location) locationModel {
	return locationModel{
		ID: string(l.ID), Name: l.Name, X: l.X, Y: l.Y,
		DangerLevel: l.DangerLevel,
		EquilibriumSupply: l.EquilibriumSupply, EquilibriumDemand: l.EquilibriumDemand,
	}
}

func (m locationModel) toDomain() game.Location {
	return game.Location{
		ID: game.LocationID(m.ID), Name: m.Name, X: m.X, Y: m.Y,
		DangerLevel: m.DangerLevel,
		EquilibriumSupply: m.EquilibriumSupply, EquilibriumDemand: m.EquilibriumDemand,
	}
}

type missionModel struct {
	ID                  string `gorm:"primaryKey"`
	Title               string
	Origin              string
	Destination         string
	RequiredCargo       []byte
	Difficulty          int
	RewardCredits       int
	RewardXP            int
	PenaltyCredits      int
	TimeLimitNanos      int64
	MinLevel            int
	RequiredReputation  int
	RequiredVehicleType string
	Status              string `gorm:"index"`
	PlayerID            string `gorm:"index"`
	VehicleID           string `gorm:"index"`
	AcceptedAt          *time.Time
	CompletedAt         *time.Time
	Deadline            *time.Time `gorm:"index"`
	Version             int64
	UpdatedAt           time.Time
}

func (missionModel) TableName() string { return "missions" }

func toMissionModel(m game.Mission) (missionModel, error) {
	cargo, err := json.Marshal(m.RequiredCargo)
	if err != nil {
		return missionModel{}, err
	}
	return missionModel{
		ID: m.ID, Title: m.Title,
		Origin: string(m.Origin), Destination: string(m.Destination),
		RequiredCargo: cargo, Difficulty: m.Difficulty,
		RewardCredits: m.RewardCredits, RewardXP: m.RewardXP, PenaltyCredits: m.PenaltyCredits,
		TimeLimitNanos: int64(m.TimeLimit),
		MinLevel:       m.MinLevel, RequiredReputation: m.RequiredReputation,
		RequiredVehicleType: string(m.RequiredVehicleType),
		Status:              string(m.Status), PlayerID: m.PlayerID, VehicleID: m.VehicleID,
		AcceptedAt: m.AcceptedAt, CompletedAt: m.CompletedAt, Deadline: m.Deadline,
		Version: m.Version, UpdatedAt: m.UpdatedAt,
	}, nil
}

func (m missionModel) toDomain() (game.Mission, error) {
	var cargo game.Manifest
	if len(m.RequiredCargo) > 0 {
		if err := json.Unmarshal(m.RequiredCargo, &cargo); err != nil {
			return game.Mission{}, err
		}
	}
	return game.Mission{
		ID: m.ID, Title: m.Title,
		Origin: game.LocationID(m.Origin), Destination: game.LocationID(m.Destination),
		RequiredCargo: cargo, Difficulty: m.Difficulty,
		RewardCredits: m.RewardCredits, RewardXP: m.RewardXP, PenaltyCredits: m.PenaltyCredits,
		TimeLimit: time.Duration(m.TimeLimitNanos),
		MinLevel:  m.MinLevel, RequiredReputation: m.RequiredReputation,
		RequiredVehicleType: game.VehicleType(m.RequiredVehicleType),
		Status:              game.MissionStatus(m.Status), PlayerID: m.PlayerID, VehicleID: m.VehicleID,
		AcceptedAt: m.AcceptedAt, CompletedAt: m.CompletedAt, Deadline: m.Deadline,
		Version: m.Version, UpdatedAt: m.UpdatedAt,
	}, nil
}

type marketEntryModel struct {
	LocationID string `gorm:"primaryKey"`
	Cargo      string `gorm:"primaryKey"`
	BasePrice  int
	Supply     int
	Demand     int
	History    []byte
	Version    int64
	UpdatedAt  time.Time
}

func (marketEntryModel) TableName() string { return "market_entries" }

func toMarketEntryModel(e game.MarketEntry) (marketEntryModel, error) {
	history, err := json.Marshal(e.History)
	if err != nil {
		return marketEntryModel{}, err
	}
	return marketEntryModel{
		LocationID: string(e.LocationID), Cargo: string(e.Cargo),
		BasePrice: e.BasePrice, Supply: e.Supply, Demand: e.Demand,
		History: history, Version: e.Version, UpdatedAt: e.UpdatedAt,
	}, nil
}

func (m marketEntryModel) toDomain() (game.MarketEntry, error) {
	var history []game.PricePoint
	if len(m.History) > 0 {
		if err := json.Unmarshal(m.History, &history); err != nil {
			return game.MarketEntry{}, err
		}
	}
	return game.MarketEntry{
		LocationID: game.LocationID(m.LocationID), Cargo: game.CargoType(m.Cargo),
		BasePrice: m.BasePrice, Supply: m.Supply, Demand: m.Demand,
		History: history, Version: m.Version, UpdatedAt: m.UpdatedAt,
	}, nil
}

type combatRecordModel struct {
	ID               string `gorm:"primaryKey"`
	AttackerPlayerID string `gorm:"index"`
	DefenderPlayerID string `gorm:"index"`
	AttackerVehicle  string
	DefenderVehicle  string
	Action           string
	Rounds           []byte
	WinnerPlayerID   string
	CargoTransfer    []byte
	CreditTransfer   int
	AttackerXP       int
	DefenderXP       int
	ResolvedAt       time.Time `gorm:"index"`
}

func (combatRecordModel) TableName() string { return "combat_records" }

func toCombatRecordModel(r game.CombatRecord) (combatRecordModel, error) {
	rounds, err := json.Marshal(r.Rounds)
	if err != nil {
		return combatRecordModel{}, err
	}
	transfer, err := json.Marshal(r.CargoTransfer)
	if err != nil {
		return combatRecordModel{}, err
	}
	return combatRecordModel{
		ID:               r.ID,
		AttackerPlayerID: r.AttackerPlayerID, DefenderPlayerID: r.DefenderPlayerID,
		AttackerVehicle: r.AttackerVehicle, DefenderVehicle: r.DefenderVehicle,
		Action: string(r.Action), Rounds: rounds,
		WinnerPlayerID: r.WinnerPlayerID, CargoTransfer: transfer,
		CreditTransfer: r.CreditTransfer,
		AttackerXP:     r.AttackerXP, DefenderXP: r.DefenderXP,
		ResolvedAt: r.ResolvedAt,
	}, nil
}

func (m combatRecordModel) toDomain() (game.CombatRecord, error) {
	var rounds []game.CombatRound
	if len(m.Rounds) > 0 {
		if err := json.Unmarshal(m.Rounds, &rounds); err != nil {
			return game.CombatRecord{}, err
		}
	}
	var transfer game.Manifest
	if len(m.CargoTransfer) > 0 {
		if err := json.Unmarshal(m.CargoTransfer, &transfer); err != nil {
			return game.CombatRecord{}, err
		}
	}
	return game.CombatRecord{
		ID:               m.ID,
		AttackerPlayerID: m.AttackerPlayerID, DefenderPlayerID: m.DefenderPlayerID,
		AttackerVehicle: m.AttackerVehicle, DefenderVehicle: m.DefenderVehicle,
		Action: game.CombatAction(m.Action), Rounds: rounds,
		WinnerPlayerID: m.WinnerPlayerID, CargoTransfer: transfer,
		CreditTransfer: m.CreditTransfer,
		AttackerXP:     m.AttackerXP, DefenderXP: m.DefenderXP,
		ResolvedAt: m.ResolvedAt,
	}, nil
}

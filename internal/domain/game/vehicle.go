package game

import (
	"math"
	"time"
)

type VehicleType string

const (
	VehicleTruck VehicleType = "truck"
	VehicleShip  VehicleType = "ship"
	VehiclePlane VehicleType = "plane"
	VehicleTrain VehicleType = "train"
)

// Profile holds the fixed stats of a vehicle type. Types form a closed set
// dispatched through this table, never through per-type behavior.
type Profile struct {
	Speed           float64
	CargoCapacity   int
	FuelCapacity    int
	FuelPerDistance float64
	MaxDurability   int
	AttackPower     int
	Defense         int
}

var profiles = map[VehicleType]Profile{
	VehicleTruck: {Speed: 60, CargoCapacity: 150, FuelCapacity: 200, FuelPerDistance: 0.1, MaxDurability: 100, AttackPower: 10, Defense: 10},
	VehicleShip:  {Speed: 40, CargoCapacity: 500, FuelCapacity: 300, FuelPerDistance: 0.1, MaxDurability: 140, AttackPower: 14, Defense: 16},
	VehiclePlane: {Speed: 200, CargoCapacity: 100, FuelCapacity: 400, FuelPerDistance: 0.1, MaxDurability: 80, AttackPower: 12, Defense: 6},
	VehicleTrain: {Speed: 80, CargoCapacity: 1000, FuelCapacity: 500, FuelPerDistance: 0.1, MaxDurability: 160, AttackPower: 8, Defense: 20},
}

func ProfileFor(t VehicleType) (Profile, bool) {
	p, ok := profiles[t]
	return p, ok
}

// Travel is present exactly when the vehicle is in transit.
type Travel struct {
	Origin      LocationID `json:"origin"`
	Destination LocationID `json:"destination"`
	DepartedAt  time.Time  `json:"departed_at"`
	ETA         time.Time  `json:"eta"`
}

type Vehicle struct {
	ID         string      `json:"id"`
	OwnerID    string      `json:"owner_id"`
	Name       string      `json:"name"`
	Type       VehicleType `json:"type"`
	Fuel       int         `json:"fuel"`
	Durability int         `json:"durability"`
	Cargo      Manifest    `json:"cargo"`
	Destroyed  bool        `json:"destroyed"`

	// LocationID is set when stationary, Travel when in transit; never both.
	LocationID LocationID `json:"location_id,omitempty"`
	Travel     *Travel    `json:"travel,omitempty"`

	// LastArrivalETA marks the most recently resolved arrival so a due
	// travel entry is applied at most once.
	LastArrivalETA time.Time `json:"last_arrival_eta,omitempty"`

	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Vehicle) Stationary() bool {
	return v.Travel == nil
}

func (v *Vehicle) Profile() Profile {
	p, _ := ProfileFor(v.Type)
	return p
}

func (v *Vehicle) CargoUsed() int {
	return v.Cargo.Total()
}

func (v *Vehicle) CanCarry(qty int) bool {
	return v.CargoUsed()+qty <= v.Profile().CargoCapacity
}

func (v *Vehicle) AddCargo(t CargoType, qty int) bool {
	if !v.CanCarry(qty) {
		return false
	}
	if v.Cargo == nil {
		v.Cargo = Manifest{}
	}
	v.Cargo.Add(t, qty)
	return true
}

func (v *Vehicle) RemoveCargo(t CargoType, qty int) bool {
	if v.Cargo == nil {
		return false
	}
	return v.Cargo.Remove(t, qty)
}

// Depart moves the vehicle into the traveling state and deducts fuel.
// The stationary location is cleared so the location-XOR-travel invariant holds.
func (v *Vehicle) Depart(t Travel, fuelCost int) {
	v.Travel = &t
	v.LocationID = ""
	v.Fuel -= fuelCost
}

// ArriveAt completes the current travel leg.
func (v *Vehicle) ArriveAt(now time.Time) {
	if v.Travel == nil {
		return
	}
	v.LocationID = v.Travel.Destination
	v.LastArrivalETA = v.Travel.ETA
	v.Travel = nil
	v.UpdatedAt = now
}

// ApplyDamage reduces durability, flooring at zero, and reports destruction.
func (v *Vehicle) ApplyDamage(dmg int) bool {
	v.Durability -= dmg
	if v.Durability <= 0 {
		v.Durability = 0
		return true
	}
	return false
}

// MarkDestroyed clears cargo and any in-flight travel.
func (v *Vehicle) MarkDestroyed() {
	v.Destroyed = true
	v.Cargo = Manifest{}
	if v.Travel != nil {
		v.LocationID = v.Travel.Origin
		v.Travel = nil
	}
}

// FuelCost is the deterministic fuel requirement for covering distance.
func FuelCost(distance float64, p Profile) int {
	return int(math.Ceil(distance * p.FuelPerDistance))
}

// TravelDuration is the deterministic transit time for distance at the
// profile's speed, expressed in multiples of unit.
func TravelDuration(distance float64, p Profile, unit time.Duration) time.Duration {
	if p.Speed <= 0 {
		return 0
	}
	return time.Duration(distance / p.Speed * float64(unit))
}

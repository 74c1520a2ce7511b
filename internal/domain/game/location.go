package game

import "math"

type LocationID string

type Location struct {
	ID          LocationID `json:"id"`
	Name        string     `json:"name"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	DangerLevel int        `json:"danger_level"`

	// Market self-correction targets for this location's entries.
	EquilibriumSupply int `json:"equilibrium_supply"`
	EquilibriumDemand int `json:"equilibrium_demand"`
}

func Distance(a, b Location) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

package worldgen

import (
	"fmt"
	"os"

	"cargoclash/internal/domain/game"

	"gopkg.in/yaml.v3"
)

// Seed describes the initial world: the location graph, per-location market
// baselines, and any starter players with their vehicles.
type Seed struct {
	Locations []SeedLocation `yaml:"locations"`
	Players   []SeedPlayer   `yaml:"players"`
}

type SeedLocation struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	X           float64        `yaml:"x"`
	Y           float64        `yaml:"y"`
	DangerLevel int            `yaml:"danger_level"`
	Supply      int            `yaml:"equilibrium_supply"`
	Demand      int            `yaml:"equilibrium_demand"`
	Prices      map[string]int `yaml:"prices"`
}

type SeedPlayer struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Credits  int           `yaml:"credits"`
	Vehicles []SeedVehicle `yaml:"vehicles"`
}

type SeedVehicle struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Location string `yaml:"location"`
}

// Parse decodes and validates a seed document.
func Parse(data []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	if err := s.validate(); err != nil {
		return Seed{}, err
	}
	return s, nil
}

// LoadFile reads the seed from disk, falling back to the built-in world when
// the file does not exist.
func LoadFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Seed{}, err
	}
	return Parse(data)
}

func (s Seed) validate() error {
	if len(s.Locations) < 2 {
		return fmt.Errorf("seed needs at least two locations, got %d", len(s.Locations))
	}
	locs := make(map[string]bool, len(s.Locations))
	for _, l := range s.Locations {
		if l.ID == "" {
			return fmt.Errorf("location %q has no id", l.Name)
		}
		if locs[l.ID] {
			return fmt.Errorf("duplicate location id %q", l.ID)
		}
		locs[l.ID] = true
		for cargo := range l.Prices {
			if !game.ValidCargoType(game.CargoType(cargo)) {
				return fmt.Errorf("location %q prices unknown cargo %q", l.ID, cargo)
			}
		}
	}
	vehicles := make(map[string]bool)
	for _, p := range s.Players {
		if p.ID == "" {
			return fmt.Errorf("player %q has no id", p.Name)
		}
		for _, v := range p.Vehicles {
			if vehicles[v.ID] {
				return fmt.Errorf("duplicate vehicle id %q", v.ID)
			}
			vehicles[v.ID] = true
			if _, ok := game.ProfileFor(game.VehicleType(v.Type)); !ok {
				return fmt.Errorf("vehicle %q has unknown type %q", v.ID, v.Type)
			}
			if !locs[v.Location] {
				return fmt.Errorf("vehicle %q starts at unknown location %q", v.ID, v.Location)
			}
		}
	}
	return nil
}

// Default is the built-in demo world used when no seed file is configured.
func Default() Seed {
	standardPrices := map[string]int{
		string(game.CargoFood):        10,
		string(game.CargoFuel):        8,
		string(game.CargoElectronics): 45,
		string(game.CargoWeapons):     60,
		string(game.CargoMaterials):   15,
	}
	frontierPrices := map[string]int{
		string(game.CargoFood):      14,
		string(game.CargoFuel):      12,
		string(game.CargoWeapons):   50,
		string(game.CargoArtifacts): 120,
		string(game.CargoMaterials): 11,
	}
	return Seed{
		Locations: []SeedLocation{
			{ID: "haven-port", Name: "Haven Port", X: 0, Y: 0, DangerLevel: 0, Supply: 120, Demand: 100, Prices: standardPrices},
			{ID: "ironworks", Name: "Ironworks", X: 400, Y: 120, DangerLevel: 1, Supply: 100, Demand: 110, Prices: standardPrices},
			{ID: "gulf-crossing", Name: "Gulf Crossing", X: 250, Y: 480, DangerLevel: 2, Supply: 90, Demand: 120, Prices: standardPrices},
			{ID: "dustfall", Name: "Dustfall", X: 700, Y: 300, DangerLevel: 3, Supply: 80, Demand: 130, Prices: frontierPrices},
			{ID: "the-reach", Name: "The Reach", X: 900, Y: 650, DangerLevel: 4, Supply: 60, Demand: 140, Prices: frontierPrices},
		},
		Players: []SeedPlayer{
			{
				ID: "demo", Name: "Demo Hauler", Credits: 2000,
				Vehicles: []SeedVehicle{
					{ID: "demo-truck", Name: "Rust Bucket", Type: string(game.VehicleTruck), Location: "haven-port"},
					{ID: "demo-ship", Name: "Salt Queen", Type: string(game.VehicleShip), Location: "gulf-crossing"},
				},
			},
		},
	}
}

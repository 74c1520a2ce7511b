package game

type CargoType string

const (
	CargoFood        CargoType = "food"
	CargoFuel        CargoType = "fuel"
	CargoElectronics CargoType = "electronics"
	CargoWeapons     CargoType = "weapons"
	CargoArtifacts   CargoType = "artifacts"
	CargoMaterials   CargoType = "materials"
)

func ValidCargoType(t CargoType) bool {
	switch t {
	case CargoFood, CargoFuel, CargoElectronics, CargoWeapons, CargoArtifacts, CargoMaterials:
		return true
	default:
		return false
	}
}

// Manifest maps cargo type to quantity. Zero-quantity entries are removed.
type Manifest map[CargoType]int

func (m Manifest) Total() int {
	total := 0
	for _, qty := range m {
		total += qty
	}
	return total
}

func (m Manifest) Add(t CargoType, qty int) {
	if qty <= 0 {
		return
	}
	m[t] += qty
}

func (m Manifest) Remove(t CargoType, qty int) bool {
	if qty <= 0 {
		return false
	}
	current := m[t]
	if current < qty {
		return false
	}
	if current == qty {
		delete(m, t)
	} else {
		m[t] = current - qty
	}
	return true
}

// Contains reports whether every entry of required is present in m.
func (m Manifest) Contains(required Manifest) bool {
	for t, qty := range required {
		if m[t] < qty {
			return false
		}
	}
	return true
}

func (m Manifest) Clone() Manifest {
	if m == nil {
		return nil
	}
	out := make(Manifest, len(m))
	for t, qty := range m {
		out[t] = qty
	}
	return out
}

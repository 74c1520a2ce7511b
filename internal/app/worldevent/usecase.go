package worldevent

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"

	"cargoclash/internal/app/ports"
	"cargoclash/internal/domain/game"

	"github.com/google/uuid"
)

// DefaultChance is the probability one sweep produces a notice.
const DefaultChance = 0.1

const maxAffected = 3

// UseCase broadcasts ambient world notices: weather, market rumors, pirate
// sightings, blocked routes. Notices are flavor only; they never mutate
// state, so a sweep either emits one broadcast or nothing.
type UseCase struct {
	Tx        ports.TxManager
	Locations ports.LocationRepository
	Publisher ports.EventPublisher
	Chance    float64
	// Rand, when set, makes the sweep deterministic. Nil uses the shared
	// math/rand source.
	Rand *rand.Rand
}

type notice struct {
	Kind     string
	Title    string
	Detail   string
	Severity int
	Extra    map[string]any
}

// Emit rolls for a world notice and broadcasts it to every live session.
// Returns the number of notices published, 0 or 1.
func (u UseCase) Emit(ctx context.Context, now time.Time) (int, error) {
	chance := u.Chance
	if chance <= 0 {
		chance = DefaultChance
	}
	if u.roll() >= chance {
		return 0, nil
	}

	var locs []game.Location
	err := u.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		locs, err = u.Locations.ListAll(txCtx)
		return err
	})
	if err != nil {
		return 0, err
	}
	if len(locs) == 0 {
		return 0, nil
	}

	affected := u.pick(locs)
	n := u.compose(affected)

	ids := make([]string, len(affected))
	for i, loc := range affected {
		ids[i] = string(loc.ID)
	}
	payload := map[string]any{
		"kind":               n.Kind,
		"title":              n.Title,
		"detail":             n.Detail,
		"severity":           n.Severity,
		"affected_locations": ids,
	}
	for k, v := range n.Extra {
		payload[k] = v
	}
	u.Publisher.Publish(game.Event{
		ID:         uuid.NewString(),
		Type:       game.EventWorldNotice,
		OccurredAt: now,
		Payload:    payload,
	})
	return 1, nil
}

// pick selects up to maxAffected distinct locations.
func (u UseCase) pick(locs []game.Location) []game.Location {
	shuffled := append([]game.Location(nil), locs...)
	u.shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > maxAffected {
		shuffled = shuffled[:maxAffected]
	}
	sort.Slice(shuffled, func(i, j int) bool { return shuffled[i].ID < shuffled[j].ID })
	return shuffled
}

var noticeCargo = []game.CargoType{
	game.CargoFood, game.CargoFuel, game.CargoElectronics,
	game.CargoWeapons, game.CargoArtifacts, game.CargoMaterials,
}

func (u UseCase) compose(affected []game.Location) notice {
	names := make([]string, len(affected))
	danger := 0
	for i, loc := range affected {
		names[i] = loc.Name
		if loc.DangerLevel > danger {
			danger = loc.DangerLevel
		}
	}
	where := strings.Join(names, ", ")

	switch u.intn(4) {
	case 0:
		cargo := noticeCargo[u.intn(len(noticeCargo))]
		direction := "surge"
		if u.intn(2) == 1 {
			direction = "crash"
		}
		return notice{
			Kind:     "market_shift",
			Title:    titleCase(string(cargo)) + " market " + direction,
			Detail:   "Traders report a sudden " + direction + " in " + string(cargo) + " prices around " + where + ".",
			Severity: 1,
			Extra:    map[string]any{"cargo": string(cargo), "direction": direction},
		}
	case 1:
		return notice{
			Kind:     "weather_change",
			Title:    "Severe weather front",
			Detail:   "Heavy weather is moving over " + where + "; expect slow passage.",
			Severity: 1,
		}
	case 2:
		return notice{
			Kind:     "pirate_attack",
			Title:    "Pirate activity reported",
			Detail:   "Convoys near " + where + " report raider contact.",
			Severity: 1 + danger,
		}
	default:
		return notice{
			Kind:     "trade_route_blocked",
			Title:    "Trade route blocked",
			Detail:   "A main route through " + where + " is impassable until further notice.",
			Severity: 2,
		}
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (u UseCase) roll() float64 {
	if u.Rand != nil {
		return u.Rand.Float64()
	}
	return rand.Float64()
}

func (u UseCase) intn(n int) int {
	if u.Rand != nil {
		return u.Rand.Intn(n)
	}
	return rand.Intn(n)
}

func (u UseCase) shuffle(n int, swap func(i, j int)) {
	if u.Rand != nil {
		u.Rand.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

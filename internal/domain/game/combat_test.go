package game

import (
	"reflect"
	"testing"
	"time"
)

func testCombatants() (Combatant, Combatant) {
	attacker := Combatant{
		PlayerID:      "p-1",
		VehicleID:     "v-1",
		AttackPower:   14,
		Defense:       10,
		Durability:    100,
		MaxDurability: 100,
		Cargo:         Manifest{CargoFood: 20},
		Credits:       500,
	}
	defender := Combatant{
		PlayerID:      "p-2",
		VehicleID:     "v-2",
		AttackPower:   8,
		Defense:       6,
		Durability:    40,
		MaxDurability: 100,
		Cargo:         Manifest{CargoElectronics: 12, CargoFuel: 3},
		Credits:       300,
	}
	return attacker, defender
}

func TestResolveCombatDeterministic(t *testing.T) {
	cfg := DefaultCombat()
	now := time.Unix(1000, 0)

	att, def := testCombatants()
	first := ResolveCombat("combat-1", att, def, ActionAttack, now, cfg)

	att, def = testCombatants()
	second := ResolveCombat("combat-1", att, def, ActionAttack, now, cfg)

	if !reflect.DeepEqual(first.Record, second.Record) {
		t.Fatalf("same id and inputs produced different records:\n%+v\n%+v", first.Record, second.Record)
	}
	if first.Attacker.Durability != second.Attacker.Durability {
		t.Fatalf("attacker durability diverged: %d vs %d", first.Attacker.Durability, second.Attacker.Durability)
	}
}

func TestResolveCombatDifferentSeedDiverges(t *testing.T) {
	cfg := DefaultCombat()
	now := time.Unix(1000, 0)

	att, def := testCombatants()
	first := ResolveCombat("combat-1", att, def, ActionAttack, now, cfg)
	att, def = testCombatants()
	second := ResolveCombat("combat-2", att, def, ActionAttack, now, cfg)

	if reflect.DeepEqual(first.Record.Rounds, second.Record.Rounds) {
		t.Fatalf("expected different ids to draw different variance")
	}
}

func TestResolveCombatWinnerLootsCargoAndCredits(t *testing.T) {
	cfg := DefaultCombat()
	att, def := testCombatants()
	def.Durability = 5 // one strike from destruction

	out := ResolveCombat("combat-loot", att, def, ActionSpecial, time.Unix(0, 0), cfg)
	if out.Record.WinnerPlayerID != "p-1" {
		t.Fatalf("expected attacker to win, got %q", out.Record.WinnerPlayerID)
	}
	if !out.DefenderDestroyed {
		t.Fatalf("expected defender destroyed")
	}
	if len(out.Record.CargoTransfer) == 0 {
		t.Fatalf("expected cargo transfer from loser")
	}
	for cargo, qty := range out.Record.CargoTransfer {
		if out.Attacker.Cargo[cargo] < qty {
			t.Fatalf("winner missing looted %s", cargo)
		}
	}
	if out.Record.CreditTransfer <= 0 {
		t.Fatalf("expected credit transfer to winner")
	}
	if out.Attacker.Credits != 500+out.Record.CreditTransfer {
		t.Fatalf("expected winner credits 500+%d, got %d", out.Record.CreditTransfer, out.Attacker.Credits)
	}
	if out.Record.AttackerXP <= out.Record.DefenderXP {
		t.Fatalf("expected winner to gain more experience")
	}
}

func TestResolveCombatMinimumDamageFloor(t *testing.T) {
	cfg := DefaultCombat()
	att, def := testCombatants()
	att.AttackPower = 1
	def.Defense = 100

	out := ResolveCombat("combat-floor", att, def, ActionAttack, time.Unix(0, 0), cfg)
	for _, round := range out.Record.Rounds {
		if round.DamageToDefender < cfg.MinDamage {
			t.Fatalf("round %d dealt %d, below floor %d", round.Round, round.DamageToDefender, cfg.MinDamage)
		}
	}
}

func TestResolveCombatLeavesInputsUntouched(t *testing.T) {
	att, def := testCombatants()
	defCargoBefore := def.Cargo.Clone()
	def.Durability = 5

	ResolveCombat("combat-copy", att, def, ActionAttack, time.Unix(0, 0), DefaultCombat())
	if !reflect.DeepEqual(map[CargoType]int(def.Cargo), map[CargoType]int(defCargoBefore)) {
		t.Fatalf("resolver mutated the caller's manifest")
	}
}

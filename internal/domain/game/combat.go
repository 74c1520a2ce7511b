package game

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

type CombatAction string

const (
	ActionAttack    CombatAction = "attack"
	ActionSpecial   CombatAction = "special"
	ActionDefensive CombatAction = "defensive"
)

func ValidCombatAction(a CombatAction) bool {
	switch a {
	case ActionAttack, ActionSpecial, ActionDefensive:
		return true
	default:
		return false
	}
}

// CombatConfig tunes the round resolution. Values follow the scale of the
// vehicle profiles' attack/defense stats.
type CombatConfig struct {
	MaxRounds            int
	MinDamage            int     // progress floor per strike
	ReductionFactor      float64 // defender power weight when absorbing a hit
	DestructionThreshold int     // durability at or below which a side loses
	LootFraction         float64 // share of the loser's manifest moved to the winner
	CreditTransfer       int
	WinnerXP             int
	LoserXP              int
}

func DefaultCombat() CombatConfig {
	return CombatConfig{
		MaxRounds:            6,
		MinDamage:            1,
		ReductionFactor:      0.6,
		DestructionThreshold: 0,
		LootFraction:         0.25,
		CreditTransfer:       100,
		WinnerXP:             100,
		LoserXP:              25,
	}
}

// Combatant is the slice of vehicle and owner state combat reads and writes.
// PlayerID is empty for NPC opponents.
type Combatant struct {
	PlayerID      string
	VehicleID     string
	AttackPower   int
	Defense       int
	Durability    int
	MaxDurability int
	Cargo         Manifest
	Credits       int
}

type CombatRound struct {
	Round            int `json:"round"`
	DamageToDefender int `json:"damage_to_defender"`
	DamageToAttacker int `json:"damage_to_attacker"`
	AttackerLeft     int `json:"attacker_left"`
	DefenderLeft     int `json:"defender_left"`
}

// CombatRecord is immutable once resolved; it is only ever appended to the log.
type CombatRecord struct {
	ID               string        `json:"id"`
	AttackerPlayerID string        `json:"attacker_player_id"`
	DefenderPlayerID string        `json:"defender_player_id,omitempty"`
	AttackerVehicle  string        `json:"attacker_vehicle"`
	DefenderVehicle  string        `json:"defender_vehicle,omitempty"`
	Action           CombatAction  `json:"action"`
	Rounds           []CombatRound `json:"rounds"`
	WinnerPlayerID   string        `json:"winner_player_id,omitempty"`
	CargoTransfer    Manifest      `json:"cargo_transfer,omitempty"`
	CreditTransfer   int           `json:"credit_transfer"`
	AttackerXP       int           `json:"attacker_xp"`
	DefenderXP       int           `json:"defender_xp"`
	ResolvedAt       time.Time     `json:"resolved_at"`
}

// CombatOutcome carries the record plus the post-combat combatant state for
// the caller to persist.
type CombatOutcome struct {
	Record            CombatRecord
	Attacker          Combatant
	Defender          Combatant
	AttackerDestroyed bool
	DefenderDestroyed bool
}

func actionModifier(a CombatAction) float64 {
	switch a {
	case ActionSpecial:
		return 1.5
	case ActionDefensive:
		return 0.8
	default:
		return 1.0
	}
}

// combatSeed derives the deterministic stream seed from the record id.
func combatSeed(id string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return int64(h.Sum64())
}

func effectivePower(base int, durability, maxDurability int, mod float64) float64 {
	ratio := 1.0
	if maxDurability > 0 {
		ratio = 0.5 + 0.5*float64(durability)/float64(maxDurability)
	}
	return float64(base) * ratio * mod
}

// ResolveCombat computes a full battle deterministically for a given record
// id: the same id and inputs always produce the same rounds and outcome.
func ResolveCombat(id string, attacker, defender Combatant, action CombatAction, now time.Time, cfg CombatConfig) CombatOutcome {
	rng := rand.New(rand.NewSource(combatSeed(id)))

	rec := CombatRecord{
		ID:               id,
		AttackerPlayerID: attacker.PlayerID,
		DefenderPlayerID: defender.PlayerID,
		AttackerVehicle:  attacker.VehicleID,
		DefenderVehicle:  defender.VehicleID,
		Action:           action,
		ResolvedAt:       now,
	}

	att := attacker
	def := defender
	att.Cargo = attacker.Cargo.Clone()
	def.Cargo = defender.Cargo.Clone()
	attMod := actionModifier(action)

	for round := 1; round <= cfg.MaxRounds; round++ {
		variance := 0.8 + 0.4*rng.Float64()
		attPower := effectivePower(att.AttackPower, att.Durability, att.MaxDurability, attMod) * variance
		defAbsorb := effectivePower(def.Defense, def.Durability, def.MaxDurability, 1.0) * cfg.ReductionFactor
		dmgToDef := int(math.Max(float64(cfg.MinDamage), attPower-defAbsorb))
		def.Durability -= dmgToDef
		if def.Durability < 0 {
			def.Durability = 0
		}

		dmgToAtt := 0
		if def.Durability > cfg.DestructionThreshold {
			counterVariance := 0.5 + 0.3*rng.Float64()
			counter := effectivePower(def.AttackPower, def.Durability, def.MaxDurability, 1.0) * counterVariance
			attAbsorb := effectivePower(att.Defense, att.Durability, att.MaxDurability, 1.0) * cfg.ReductionFactor
			dmgToAtt = int(math.Max(float64(cfg.MinDamage), counter-attAbsorb))
			att.Durability -= dmgToAtt
			if att.Durability < 0 {
				att.Durability = 0
			}
		}

		rec.Rounds = append(rec.Rounds, CombatRound{
			Round:            round,
			DamageToDefender: dmgToDef,
			DamageToAttacker: dmgToAtt,
			AttackerLeft:     att.Durability,
			DefenderLeft:     def.Durability,
		})

		if def.Durability <= cfg.DestructionThreshold || att.Durability <= cfg.DestructionThreshold {
			break
		}
	}

	out := CombatOutcome{
		AttackerDestroyed: att.Durability <= 0,
		DefenderDestroyed: def.Durability <= 0,
	}

	var winner, loser *Combatant
	switch {
	case def.Durability <= cfg.DestructionThreshold && att.Durability > cfg.DestructionThreshold:
		winner, loser = &att, &def
	case att.Durability <= cfg.DestructionThreshold && def.Durability > cfg.DestructionThreshold:
		winner, loser = &def, &att
	}

	if winner != nil {
		rec.WinnerPlayerID = winner.PlayerID
		rec.CargoTransfer = lootManifest(loser.Cargo, cfg.LootFraction)
		for t, qty := range rec.CargoTransfer {
			loser.Cargo.Remove(t, qty)
			if winner.Cargo == nil {
				winner.Cargo = Manifest{}
			}
			winner.Cargo.Add(t, qty)
		}
		transfer := cfg.CreditTransfer
		if transfer > loser.Credits {
			transfer = loser.Credits
		}
		loser.Credits -= transfer
		winner.Credits += transfer
		rec.CreditTransfer = transfer
	}

	if winner == &att || winner == nil {
		rec.AttackerXP = cfg.WinnerXP
		rec.DefenderXP = cfg.LoserXP
	} else {
		rec.AttackerXP = cfg.LoserXP
		rec.DefenderXP = cfg.WinnerXP
	}
	if winner == nil {
		// Stalemate: both sides learn a little.
		rec.AttackerXP = cfg.LoserXP
		rec.DefenderXP = cfg.LoserXP
	}

	out.Record = rec
	out.Attacker = att
	out.Defender = def
	return out
}

// lootManifest takes the configured fraction of each stack, rounding down.
func lootManifest(cargo Manifest, fraction float64) Manifest {
	loot := Manifest{}
	for t, qty := range cargo {
		take := int(float64(qty) * fraction)
		if take > 0 {
			loot[t] = take
		}
	}
	if len(loot) == 0 {
		return nil
	}
	return loot
}

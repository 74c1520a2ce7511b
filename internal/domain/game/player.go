package game

import "time"

type Player struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Level      int       `json:"level"`
	Experience int       `json:"experience"`
	Credits    int       `json:"credits"`
	Reputation int       `json:"reputation"`
	Version    int64     `json:"version"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// experienceToLevel is the XP required to advance past the given level.
func experienceToLevel(level int) int {
	return level * 1000
}

// GainExperience adds xp and advances the level while thresholds are met.
// Returns the number of levels gained.
func (p *Player) GainExperience(xp int) int {
	if xp <= 0 {
		return 0
	}
	p.Experience += xp
	gained := 0
	for p.Experience >= experienceToLevel(p.Level) {
		p.Experience -= experienceToLevel(p.Level)
		p.Level++
		gained++
	}
	return gained
}

// SpendCredits deducts amount and reports whether the balance covered it.
func (p *Player) SpendCredits(amount int) bool {
	if amount < 0 || p.Credits < amount {
		return false
	}
	p.Credits -= amount
	return true
}

// Penalize deducts credits, flooring the balance at zero.
func (p *Player) Penalize(amount int) {
	if amount <= 0 {
		return
	}
	p.Credits -= amount
	if p.Credits < 0 {
		p.Credits = 0
	}
}

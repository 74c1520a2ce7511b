package game

import "time"

type MissionStatus string

const (
	MissionAvailable  MissionStatus = "available"
	MissionAccepted   MissionStatus = "accepted"
	MissionInProgress MissionStatus = "in_progress"
	MissionCompleted  MissionStatus = "completed"
	MissionFailed     MissionStatus = "failed"
	MissionExpired    MissionStatus = "expired"
)

// Terminal statuses permit no further transitions.
func (s MissionStatus) Terminal() bool {
	switch s {
	case MissionCompleted, MissionFailed, MissionExpired:
		return true
	default:
		return false
	}
}

type Mission struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Origin         LocationID    `json:"origin"`
	Destination    LocationID    `json:"destination"`
	RequiredCargo  Manifest      `json:"required_cargo"`
	Difficulty     int           `json:"difficulty"`
	RewardCredits  int           `json:"reward_credits"`
	RewardXP       int           `json:"reward_xp"`
	PenaltyCredits int           `json:"penalty_credits"`
	TimeLimit      time.Duration `json:"time_limit,omitempty"`

	MinLevel            int         `json:"min_level"`
	RequiredReputation  int         `json:"required_reputation"`
	RequiredVehicleType VehicleType `json:"required_vehicle_type,omitempty"`

	Status      MissionStatus `json:"status"`
	PlayerID    string        `json:"player_id,omitempty"`
	VehicleID   string        `json:"vehicle_id,omitempty"`
	AcceptedAt  *time.Time    `json:"accepted_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Deadline    *time.Time    `json:"deadline,omitempty"`

	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Eligible reports whether the player and vehicle satisfy the mission's
// acceptance requirements.
func (m *Mission) Eligible(p Player, v Vehicle) bool {
	if p.Level < m.MinLevel || p.Reputation < m.RequiredReputation {
		return false
	}
	if m.RequiredVehicleType != "" && v.Type != m.RequiredVehicleType {
		return false
	}
	return true
}

// Assign transitions AVAILABLE -> ACCEPTED, fixing the deadline from the
// configured time limit.
func (m *Mission) Assign(playerID, vehicleID string, now time.Time) {
	m.Status = MissionAccepted
	m.PlayerID = playerID
	m.VehicleID = vehicleID
	acceptedAt := now
	m.AcceptedAt = &acceptedAt
	if m.TimeLimit > 0 {
		deadline := now.Add(m.TimeLimit)
		m.Deadline = &deadline
	}
	m.UpdatedAt = now
}

// DeadlinePassed reports whether a configured deadline is behind now.
func (m *Mission) DeadlinePassed(now time.Time) bool {
	return m.Deadline != nil && m.Deadline.Before(now)
}

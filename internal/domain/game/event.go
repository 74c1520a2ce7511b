package game

import "time"

type EventType string

const (
	EventVehicleArrived       EventType = "vehicle_arrived"
	EventMissionStatusChanged EventType = "mission_status_changed"
	EventPriceChanged         EventType = "price_changed"
	EventCombatResolved       EventType = "combat_resolved"
	EventWorldNotice          EventType = "world_notice"
)

// Critical events must survive a disconnect; best-effort ones may be dropped
// under backpressure.
func (t EventType) Critical() bool {
	return t == EventMissionStatusChanged || t == EventCombatResolved
}

// Event is the outbound notification unit. An empty Recipients set means
// broadcast to every live session.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Recipients []string       `json:"-"`
	Payload    map[string]any `json:"payload"`
}

package ports

import "cargoclash/internal/domain/game"

// EventPublisher fans events out to live sessions. Publish is fire-and-forget:
// it never blocks on a recipient and never returns delivery errors to the
// simulation.
type EventPublisher interface {
	Publish(ev game.Event)
}

// NopPublisher discards events; used where fanout is not wired.
type NopPublisher struct{}

func (NopPublisher) Publish(game.Event) {}

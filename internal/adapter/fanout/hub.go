package fanout

import (
	"sync"
	"time"

	"cargoclash/internal/domain/game"

	"github.com/rs/zerolog"
)

// Envelope is the wire frame for one event. Seq is set only on journaled
// critical events; acking it trims the journal.
type Envelope struct {
	Seq        uint64         `json:"seq,omitempty"`
	ID         string         `json:"id"`
	Type       game.EventType `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Hub fans events out to live sessions. It implements ports.EventPublisher:
// Publish never blocks the game loop, whatever the sockets are doing.
//
// Delivery is best effort for routine events. Critical ones are journaled
// per recipient before delivery, so a full queue or a dead connection only
// costs the push, not the event.
type Hub struct {
	Log      zerolog.Logger
	journal  *Journal
	queueCap int

	mu       sync.RWMutex
	sessions map[string]map[*session]struct{}
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		Log:      log,
		journal:  NewJournal(256),
		queueCap: 64,
		sessions: make(map[string]map[*session]struct{}),
	}
}

// Publish routes the event to its recipients, or to every session when the
// recipient set is empty.
func (h *Hub) Publish(ev game.Event) {
	env := Envelope{ID: ev.ID, Type: ev.Type, OccurredAt: ev.OccurredAt, Payload: ev.Payload}

	if len(ev.Recipients) == 0 {
		h.mu.RLock()
		for _, set := range h.sessions {
			for s := range set {
				s.push(env)
			}
		}
		h.mu.RUnlock()
		return
	}

	for _, playerID := range ev.Recipients {
		perPlayer := env
		if ev.Type.Critical() {
			perPlayer.Seq = h.journal.Append(playerID, ev)
		}
		h.mu.RLock()
		for s := range h.sessions[playerID] {
			s.push(perPlayer)
		}
		h.mu.RUnlock()
	}
}

// Pending returns the player's unacknowledged critical events so a client
// can reconcile after a disconnect.
func (h *Hub) Pending(playerID string, afterSeq uint64) []JournalEntry {
	return h.journal.Pending(playerID, afterSeq)
}

// Ack trims the player's journal up to and including seq.
func (h *Hub) Ack(playerID string, seq uint64) {
	h.journal.Ack(playerID, seq)
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	set, ok := h.sessions[s.playerID]
	if !ok {
		set = make(map[*session]struct{})
		h.sessions[s.playerID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	h.Log.Debug().Str("player", s.playerID).Msg("fanout session registered")
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	if set, ok := h.sessions[s.playerID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.sessions, s.playerID)
		}
	}
	h.mu.Unlock()
	s.close()
	h.Log.Debug().Str("player", s.playerID).Msg("fanout session gone")
}

// session is one live connection's outbound queue. The queue is hard-bounded:
// when full, the oldest non-critical frame is evicted to make room; if only
// criticals remain, the incoming frame is dropped whatever its kind. A
// dropped critical is already journaled, so Pending replays it.
type session struct {
	hub      *Hub
	playerID string

	mu     sync.Mutex
	queue  []Envelope
	closed bool
	notify chan struct{}
}

func newSession(h *Hub, playerID string) *session {
	return &session{hub: h, playerID: playerID, notify: make(chan struct{}, 1)}
}

func (s *session) push(env Envelope) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.queue) >= s.hub.queueCap {
		if !s.evictOldestRoutine() {
			s.mu.Unlock()
			return
		}
	}
	s.queue = append(s.queue, env)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// evictOldestRoutine drops the oldest non-critical frame. Caller holds s.mu.
func (s *session) evictOldestRoutine() bool {
	for i, queued := range s.queue {
		if !queued.Type.Critical() {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return true
		}
	}
	return false
}

// drain takes the queued frames, leaving the queue empty.
func (s *session) drain() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queue
	s.queue = nil
	return out
}

func (s *session) close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.notify)
	}
	s.mu.Unlock()
}

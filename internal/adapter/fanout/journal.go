package fanout

import (
	"sync"

	"cargoclash/internal/domain/game"
)

// JournalEntry is a critical event retained until the player acknowledges it.
type JournalEntry struct {
	Seq   uint64     `json:"seq"`
	Event game.Event `json:"event"`
}

// Journal retains critical events per player so a disconnect or a dropped
// frame never loses a mission or combat outcome. Entries survive until acked
// or pushed out by the retention cap.
type Journal struct {
	mu        sync.Mutex
	retention int
	entries   map[string][]JournalEntry
	nextSeq   map[string]uint64
}

func NewJournal(retention int) *Journal {
	return &Journal{
		retention: retention,
		entries:   make(map[string][]JournalEntry),
		nextSeq:   make(map[string]uint64),
	}
}

// Append records the event for the player and returns its sequence number.
func (j *Journal) Append(playerID string, ev game.Event) uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.nextSeq[playerID]++
	seq := j.nextSeq[playerID]
	list := append(j.entries[playerID], JournalEntry{Seq: seq, Event: ev})
	if j.retention > 0 && len(list) > j.retention {
		list = list[len(list)-j.retention:]
	}
	j.entries[playerID] = list
	return seq
}

// Pending returns the player's unacknowledged entries after afterSeq, oldest
// first.
func (j *Journal) Pending(playerID string, afterSeq uint64) []JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []JournalEntry
	for _, e := range j.entries[playerID] {
		if e.Seq > afterSeq {
			out = append(out, e)
		}
	}
	return out
}

// Ack discards every entry up to and including seq.
func (j *Journal) Ack(playerID string, seq uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	list := j.entries[playerID]
	keep := list[:0]
	for _, e := range list {
		if e.Seq > seq {
			keep = append(keep, e)
		}
	}
	if len(keep) == 0 {
		delete(j.entries, playerID)
		return
	}
	j.entries[playerID] = keep
}

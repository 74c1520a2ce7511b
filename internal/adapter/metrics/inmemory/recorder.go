package inmemory

import "sync"

type OpCounts struct {
	Success  uint64 `json:"success"`
	Conflict uint64 `json:"conflict"`
	Failure  uint64 `json:"failure"`
}

type Snapshot struct {
	CommandTotal    uint64              `json:"command_total"`
	CommandSuccess  uint64              `json:"command_success"`
	CommandConflict uint64              `json:"command_conflict"`
	CommandFailure  uint64              `json:"command_failure"`
	ByOperation     map[string]OpCounts `json:"by_operation"`
}

// Recorder counts command outcomes per operation. It backs the ops endpoint;
// nothing in the game loop reads it.
type Recorder struct {
	mu   sync.Mutex
	byOp map[string]OpCounts
}

func NewRecorder() *Recorder {
	return &Recorder{byOp: map[string]OpCounts{}}
}

func (r *Recorder) RecordSuccess(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byOp[op]
	c.Success++
	r.byOp[op] = c
}

func (r *Recorder) RecordConflict(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byOp[op]
	c.Conflict++
	r.byOp[op] = c
}

func (r *Recorder) RecordFailure(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byOp[op]
	c.Failure++
	r.byOp[op] = c
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{ByOperation: make(map[string]OpCounts, len(r.byOp))}
	for op, c := range r.byOp {
		out.ByOperation[op] = c
		out.CommandSuccess += c.Success
		out.CommandConflict += c.Conflict
		out.CommandFailure += c.Failure
	}
	out.CommandTotal = out.CommandSuccess + out.CommandConflict + out.CommandFailure
	return out
}

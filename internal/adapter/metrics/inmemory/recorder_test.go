package inmemory

import "testing"

func TestRecorderSnapshot(t *testing.T) {
	r := NewRecorder()
	r.RecordSuccess("market.trade")
	r.RecordSuccess("market.trade")
	r.RecordConflict("market.trade")
	r.RecordFailure("travel.start")

	snap := r.Snapshot()
	if snap.CommandTotal != 4 {
		t.Fatalf("total = %d, want 4", snap.CommandTotal)
	}
	trade := snap.ByOperation["market.trade"]
	if trade.Success != 2 || trade.Conflict != 1 || trade.Failure != 0 {
		t.Fatalf("market.trade counts = %+v", trade)
	}
	if snap.ByOperation["travel.start"].Failure != 1 {
		t.Fatalf("travel.start counts = %+v", snap.ByOperation["travel.start"])
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRecorder()
	r.RecordSuccess("combat.attack")
	snap := r.Snapshot()
	snap.ByOperation["combat.attack"] = OpCounts{Success: 99}
	if r.Snapshot().ByOperation["combat.attack"].Success != 1 {
		t.Fatal("snapshot shares state with the recorder")
	}
}

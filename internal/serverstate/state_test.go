package serverstate

import (
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	tr := NewTracker(NewMemoryStore(), "test")

	if got := tr.Status(); got != StatusStopped {
		t.Fatalf("initial state = %q; want %q", got, StatusStopped)
	}
	if tr.IsDraining() {
		t.Fatalf("initial draining = true; want false")
	}

	tr.SetStatus(StatusListening)
	if got := tr.Status(); got != StatusListening {
		t.Fatalf("state after SetStatus = %q; want %q", got, StatusListening)
	}

	tr.StartDrain()
	if got := tr.Status(); got != StatusDraining {
		t.Fatalf("state after StartDrain = %q; want %q", got, StatusDraining)
	}
	if !tr.IsDraining() {
		t.Fatalf("IsDraining = false; want true")
	}

	tr.SetStatus(StatusStopped)
	if tr.IsDraining() {
		t.Fatalf("IsDraining after stop = true; want false")
	}
}

func TestTrackerSnapshot(t *testing.T) {
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(nil, "")
	tr.now = func() time.Time { return at }

	if tr.InstanceID() == "" {
		t.Fatalf("expected generated instance id")
	}
	st := tr.Snapshot()
	if st.InstanceID != tr.InstanceID() {
		t.Fatalf("snapshot instance = %q; want %q", st.InstanceID, tr.InstanceID())
	}

	tr.SetStatus(StatusListening)
	st = tr.Snapshot()
	if st.Status != StatusListening || !st.Since.Equal(at) {
		t.Fatalf("snapshot = %#v", st)
	}
}

func TestTrackerDistinctInstances(t *testing.T) {
	a := NewTracker(nil, "")
	b := NewTracker(nil, "")
	if a.InstanceID() == b.InstanceID() {
		t.Fatalf("expected distinct instance ids, got %q twice", a.InstanceID())
	}
}

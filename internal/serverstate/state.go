package serverstate

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Lifecycle states of a status server instance.
const (
	StatusStopped   = "stopped"
	StatusListening = "listening"
	StatusDraining  = "draining"
)

// State holds the server status and draining flag. All fields are updated
// together so callers always observe a consistent snapshot.
type State struct {
	Status     string    `json:"status"`
	Draining   bool      `json:"draining"`
	InstanceID string    `json:"instance_id"`
	Since      time.Time `json:"since"`
}

// Store defines how the server state is persisted. Implementations may store
// state in memory or in an external service such as Redis.
type Store interface {
	Load() State
	Store(State)
}

// memoryStore implements Store using an atomic.Value. It is the default
// strategy and is safe for concurrent use within a single process.
type memoryStore struct {
	v atomic.Value
}

// NewMemoryStore returns a memory-backed Store initialized to "stopped".
func NewMemoryStore() *memoryStore {
	ms := &memoryStore{}
	ms.v.Store(State{Status: StatusStopped})
	return ms
}

func (m *memoryStore) Load() State {
	if st, ok := m.v.Load().(State); ok {
		return st
	}
	return State{Status: "unknown"}
}

func (m *memoryStore) Store(s State) {
	m.v.Store(s)
}

// Tracker records the lifecycle of one server instance in a Store.
type Tracker struct {
	mu    sync.Mutex
	store Store
	id    string
	now   func() time.Time
}

// NewTracker returns a Tracker writing to store. A nil store selects the
// memory implementation and an empty instanceID is replaced by a random one.
func NewTracker(store Store, instanceID string) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	return &Tracker{store: store, id: instanceID, now: time.Now}
}

// InstanceID identifies the tracked server instance.
func (t *Tracker) InstanceID() string { return t.id }

// SetStatus records a lifecycle transition.
func (t *Tracker) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.store.Store(State{
		Status:     status,
		Draining:   status == StatusDraining,
		InstanceID: t.id,
		Since:      t.now().UTC(),
	})
}

// StartDrain marks the server as draining.
func (t *Tracker) StartDrain() {
	t.SetStatus(StatusDraining)
}

// Status returns the current server status.
func (t *Tracker) Status() string {
	return t.store.Load().Status
}

// IsDraining reports whether the server is draining.
func (t *Tracker) IsDraining() bool {
	return t.store.Load().Draining
}

// Snapshot returns the full stored state.
func (t *Tracker) Snapshot() State {
	st := t.store.Load()
	if st.InstanceID == "" {
		st.InstanceID = t.id
	}
	return st
}

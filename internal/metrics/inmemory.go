package metrics

import (
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered     uint64
	LoginsSucceeded     uint64
	LoginsFailed        uint64
	AuthDenied          map[string]uint64
	IdentityCacheHits   uint64
	IdentityCacheMisses uint64
	TemplatesCreated    uint64
	TemplatesUpdated    uint64
	TemplatesDeleted    uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	usersRegistered     uint64
	loginsSucceeded     uint64
	loginsFailed        uint64
	identityCacheHits   uint64
	identityCacheMisses uint64
	templatesCreated    uint64
	templatesUpdated    uint64
	templatesDeleted    uint64

	mu         sync.Mutex
	authDenied map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authDenied: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	denied := make(map[string]uint64)
	m.mu.Lock()
	for reason, count := range m.authDenied {
		denied[reason] = count
	}
	m.mu.Unlock()

	return Snapshot{
		UsersRegistered:     atomic.LoadUint64(&m.usersRegistered),
		LoginsSucceeded:     atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:        atomic.LoadUint64(&m.loginsFailed),
		AuthDenied:          denied,
		IdentityCacheHits:   atomic.LoadUint64(&m.identityCacheHits),
		IdentityCacheMisses: atomic.LoadUint64(&m.identityCacheMisses),
		TemplatesCreated:    atomic.LoadUint64(&m.templatesCreated),
		TemplatesUpdated:    atomic.LoadUint64(&m.templatesUpdated),
		TemplatesDeleted:    atomic.LoadUint64(&m.templatesDeleted),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLoginSucceeded increments the successful login counter.
func (m *InMemoryRecorder) IncLoginSucceeded() {
	atomic.AddUint64(&m.loginsSucceeded, 1)
}

// IncLoginFailed increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailed() {
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncAuthDenied increments the denial counter for a reason.
func (m *InMemoryRecorder) IncAuthDenied(reason string) {
	m.mu.Lock()
	m.authDenied[reason]++
	m.mu.Unlock()
}

// IncIdentityCacheHit increments the identity cache hit counter.
func (m *InMemoryRecorder) IncIdentityCacheHit() {
	atomic.AddUint64(&m.identityCacheHits, 1)
}

// IncIdentityCacheMiss increments the identity cache miss counter.
func (m *InMemoryRecorder) IncIdentityCacheMiss() {
	atomic.AddUint64(&m.identityCacheMisses, 1)
}

// IncTemplateCreated increments the template created counter.
func (m *InMemoryRecorder) IncTemplateCreated() {
	atomic.AddUint64(&m.templatesCreated, 1)
}

// IncTemplateUpdated increments the template updated counter.
func (m *InMemoryRecorder) IncTemplateUpdated() {
	atomic.AddUint64(&m.templatesUpdated, 1)
}

// IncTemplateDeleted increments the template deleted counter.
func (m *InMemoryRecorder) IncTemplateDeleted() {
	atomic.AddUint64(&m.templatesDeleted, 1)
}

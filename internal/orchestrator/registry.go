package orchestrator

import (
	"sync"
	"time"

	"github.com/jobwright/applypilot/internal/model"
)

// registry holds the live sessions of this process, keyed by user ID.
// It also owns one mutex per user so quota-consuming operations (scan,
// process) are serialized: a manual trigger racing the scheduled tick
// must not overrun the daily cap.
type registry struct {
	mu sync.Mutex

	sessions  map[string]*model.Session
	locks     map[string]*sync.Mutex
	qualified map[string][]*model.JobCandidate
}

func newRegistry() *registry {
	return &registry{
		sessions:  make(map[string]*model.Session),
		locks:     make(map[string]*sync.Mutex),
		qualified: make(map[string][]*model.JobCandidate),
	}
}

// userLock returns the per-user mutex, creating it on first use. The
// mutex survives session removal so a stop/start race stays serialized.
func (r *registry) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[userID] = lock
	}
	return lock
}

// get returns a copy of the user's session, or nil. Copying keeps
// readers safe from concurrent markScanned/markSubmitted updates.
func (r *registry) get(userID string) *model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[userID]; ok {
		copied := *session
		return &copied
	}
	return nil
}

func (r *registry) put(session *model.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.UserID] = session
}

// remove takes the session out of the registry and returns it, or nil
// when the user had none.
func (r *registry) remove(userID string) *model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.sessions[userID]
	delete(r.sessions, userID)
	delete(r.qualified, userID)
	return session
}

// activeUsers snapshots the user IDs with a live session.
func (r *registry) activeUsers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]string, 0, len(r.sessions))
	for userID := range r.sessions {
		users = append(users, userID)
	}
	return users
}

func (r *registry) markScanned(userID string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[userID]; ok {
		scanned := at
		session.LastScanAt = &scanned
	}
}

func (r *registry) markSubmitted(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[userID]; ok {
		session.SubmittedToday++
	}
}

func (r *registry) setQualified(userID string, jobs []*model.JobCandidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.qualified[userID] = jobs
}

func (r *registry) takeQualified(userID string) []*model.JobCandidate {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs := r.qualified[userID]
	delete(r.qualified, userID)
	return jobs
}

func (r *registry) qualifiedCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.qualified[userID])
}

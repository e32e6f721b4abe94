package feeder

import (
	"sync"
	"time"
)

// Divert is the outcome of offering a scan to the registration slot.
type Divert int

const (
	// NotDiverted means the slot was not armed; the scan belongs to the
	// decision engine.
	NotDiverted Divert = iota
	// DivertCaptured means the tag was captured for a pending registration.
	DivertCaptured
	// DivertConflict means the tag is already bound to a pet.
	DivertConflict
)

// PetLookup resolves a tag to the name of an existing pet, if any.
type PetLookup func(tagID string) (name string, found bool, err error)

// Registration is the single-slot rendezvous between a web "register new
// tag" action and the next physical scan. All state lives behind one
// mutex: dispatch's disarm-lookup-capture and Poll's consume-once read are
// each a single critical section, so a captured tag can never be delivered
// twice and arming races resolve to one outcome.
type Registration struct {
	mu       sync.Mutex
	armed    bool
	armedAt  time.Time
	captured string
	ttl      time.Duration
}

// NewRegistration creates an empty slot. ttl bounds how long an armed slot
// waits for a scan; zero disables expiry.
func NewRegistration(ttl time.Duration) *Registration {
	return &Registration{ttl: ttl}
}

// Begin arms the slot for the next scan. Re-arming while already armed
// resets any stale captured tag.
func (r *Registration) Begin(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = true
	r.armedAt = now
	r.captured = ""
}

// Dispatch offers a scan to the slot. An armed slot is disarmed before
// anything else happens: only the next scan is diverted, whatever the
// outcome. The lookup runs under the lock; it is a local read and keeps
// the whole sequence atomic against Begin and Poll.
func (r *Registration) Dispatch(tagID string, now time.Time, lookup PetLookup) (Divert, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.armedLocked(now) {
		return NotDiverted, "", nil
	}
	r.armed = false

	name, found, err := lookup(tagID)
	if err != nil {
		return NotDiverted, "", err
	}
	if found {
		return DivertConflict, name, nil
	}
	r.captured = tagID
	return DivertCaptured, tagID, nil
}

// Poll reads and clears the captured tag (consume-once), and reports
// whether the slot is still armed.
func (r *Registration) Poll(now time.Time) (uid string, ok bool, armed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid = r.captured
	r.captured = ""
	return uid, uid != "", r.armedLocked(now)
}

// armedLocked reports the armed state, expiring a stale arm in place.
// Callers hold r.mu.
func (r *Registration) armedLocked(now time.Time) bool {
	if r.armed && r.ttl > 0 && now.Sub(r.armedAt) > r.ttl {
		r.armed = false
	}
	return r.armed
}

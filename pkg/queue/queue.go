// Package queue admits connections into verification. Admission is the
// only entry point to a session: it consults the verdict caches first,
// deduplicates concurrent attempts per address, bounds how many
// sessions exist at once, and optionally spaces admissions out under
// attack. Everything it tracks is in-process; only the verdict caches
// behind it are shared.
package queue

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bastionmc/bastion/pkg/fingerprint"
	"github.com/bastionmc/bastion/pkg/store"
)

// Decision is the admission outcome for one connection attempt.
type Decision int

// Admission outcomes. Only Admitted creates a session; the others tell
// the caller how to dispose of the connection.
const (
	// Admitted means a session slot was taken. The caller must
	// Release the address exactly when the session ends.
	Admitted Decision = iota

	// AlreadyVerified means the address holds a live verified entry
	// and bypasses verification entirely.
	AlreadyVerified

	// Blacklisted means the address holds a live blacklist entry and
	// is rejected before any packet is decoded.
	Blacklisted

	// AlreadyQueued means another connection from this address is
	// mid-verification; parallel attempts are rejected.
	AlreadyQueued

	// AtCapacity means the queue is full. Connections are rejected
	// rather than buffered so memory stays bounded.
	AtCapacity

	// Throttled means the admission rate limit rejected the attempt.
	Throttled
)

var decisionNames = [...]string{
	Admitted:        "admitted",
	AlreadyVerified: "already verified",
	Blacklisted:     "blacklisted",
	AlreadyQueued:   "already queued",
	AtCapacity:      "at capacity",
	Throttled:       "throttled",
}

// String returns a log-friendly name.
func (d Decision) String() string {
	if d < 0 || int(d) >= len(decisionNames) {
		return "unknown"
	}
	return decisionNames[d]
}

// Config bounds the queue.
type Config struct {
	// Capacity is the maximum number of concurrently verifying
	// sessions. <= 0 selects DefaultCapacity.
	Capacity int

	// ThrottleEvery spaces admissions out: at most one admission per
	// interval once the burst is spent. Zero disables throttling.
	ThrottleEvery time.Duration

	// ThrottleBurst is how many admissions may land back to back
	// before spacing kicks in. <= 0 selects 1 when throttling is on.
	ThrottleBurst int
}

// DefaultCapacity bounds concurrent verifications when the
// configuration does not.
const DefaultCapacity = 1024

// Queue is safe for concurrent use by every connection handler.
type Queue struct {
	verified  store.Store
	blacklist store.Store
	keyer     *fingerprint.Keyer
	capacity  int
	limiter   *rate.Limiter // nil when throttling is off

	mu      sync.Mutex
	entries map[string]time.Time
}

// New builds a queue over the two verdict caches.
func New(verified, blacklist store.Store, keyer *fingerprint.Keyer, cfg Config) *Queue {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	var limiter *rate.Limiter
	if cfg.ThrottleEvery > 0 {
		burst := cfg.ThrottleBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(cfg.ThrottleEvery), burst)
	}
	return &Queue{
		verified:  verified,
		blacklist: blacklist,
		keyer:     keyer,
		capacity:  cfg.Capacity,
		limiter:   limiter,
		entries:   make(map[string]time.Time),
	}
}

// TryAdmit decides what to do with a new connection from addr. The
// caches are consulted before any slot accounting so cached verdicts
// stay the cheapest path. A store error rejects the attempt; the
// caller closes the connection without a verdict.
func (q *Queue) TryAdmit(ctx context.Context, addr string) (Decision, error) {
	key := q.keyer.Address(addr)

	listed, err := q.blacklist.Has(ctx, key)
	if err != nil {
		return Blacklisted, err
	}
	if listed {
		return Blacklisted, nil
	}

	ok, err := q.verified.Has(ctx, key)
	if err != nil {
		return AlreadyVerified, err
	}
	if ok {
		return AlreadyVerified, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, dup := q.entries[addr]; dup {
		return AlreadyQueued, nil
	}
	if len(q.entries) >= q.capacity {
		return AtCapacity, nil
	}
	if q.limiter != nil && !q.limiter.Allow() {
		return Throttled, nil
	}

	q.entries[addr] = time.Now()
	return Admitted, nil
}

// Release frees addr's session slot. Terminal verdicts and abrupt
// disconnects can race, so releasing an absent address is a no-op.
func (q *Queue) Release(addr string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.entries, addr)
}

// Contains reports whether addr is mid-verification.
func (q *Queue) Contains(addr string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.entries[addr]
	return ok
}

// Len is the number of sessions currently admitted.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// ForEach visits every admitted address and its enqueue time, in no
// particular order, until fn returns false. The lock is held for the
// whole walk; fn must not call back into the queue.
func (q *Queue) ForEach(fn func(addr string, since time.Time) bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for addr, since := range q.entries {
		if !fn(addr, since) {
			return
		}
	}
}

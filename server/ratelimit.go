package server

import (
	"container/list"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultLimiterTTL  = 10 * time.Minute
	defaultMaxLimiters = 100_000
)

// limiterRegistry keeps one token bucket per client. Buckets idle for longer
// than ttl are dropped, and at most capacity buckets are kept, evicting the
// least recently used. ttl is never shorter than the time an empty bucket
// takes to refill, so dropping a bucket never lets a client burst early.
type limiterRegistry struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front is most recently used
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	capacity int
}

type limiterEntry struct {
	client   string
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterRegistry(limit rate.Limit, burst int) *limiterRegistry {
	return &limiterRegistry{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		limit:    limit,
		burst:    burst,
		ttl:      max(defaultLimiterTTL, refillTime(limit, burst)),
		capacity: defaultMaxLimiters,
	}
}

// refillTime is how long an empty bucket takes to fill up again.
func refillTime(limit rate.Limit, burst int) time.Duration {
	if limit == rate.Inf || limit <= 0 {
		return 0
	}
	return time.Duration(float64(burst) / float64(limit) * float64(time.Second))
}

// getOrCreate returns the bucket of client, marking it used at now.
func (r *limiterRegistry) getOrCreate(client string, now time.Time) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleanupExpiredLocked(now)
	if elem, exists := r.items[client]; exists {
		entry := elem.Value.(*limiterEntry)
		entry.lastSeen = now
		r.order.MoveToFront(elem)
		return entry.limiter
	}

	for r.order.Len() >= r.capacity {
		oldest := r.order.Back()
		delete(r.items, oldest.Value.(*limiterEntry).client)
		r.order.Remove(oldest)
	}
	entry := &limiterEntry{
		client:   client,
		limiter:  rate.NewLimiter(r.limit, r.burst),
		lastSeen: now,
	}
	r.items[client] = r.order.PushFront(entry)
	return entry.limiter
}

// cleanupExpiredLocked drops buckets idle for ttl or longer.
func (r *limiterRegistry) cleanupExpiredLocked(now time.Time) {
	for elem := r.order.Back(); elem != nil; {
		entry := elem.Value.(*limiterEntry)
		if now.Sub(entry.lastSeen) < r.ttl {
			// Entries further to the front were used more recently.
			break
		}
		prev := elem.Prev()
		delete(r.items, entry.client)
		r.order.Remove(elem)
		elem = prev
	}
}

// size returns the number of buckets held.
func (r *limiterRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// allow takes one token for client. When none is available it reports how
// long the client should wait.
func (r *limiterRegistry) allow(client string, now time.Time) (time.Duration, bool) {
	res := r.getOrCreate(client, now).ReserveN(now, 1)
	if !res.OK() {
		return time.Second, false
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return delay, false
	}
	return 0, true
}

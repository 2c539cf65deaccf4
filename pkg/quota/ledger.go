// Package quota implements the daily quota ledger and the anonymous-to-user
// link protocol on top of Redis. Both mutations run as single Lua scripts so
// that concurrent requests from the same identity can never race past a
// ceiling or double-fold linked usage.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Kind string

const (
	KindAnonymous Kind = "anon"
	KindUser      Kind = "user"
	KindIP        Kind = "ip"
)

// checkAndIncrScript admits the call and increments atomically, or leaves the
// counter untouched. Re-arms the UTC-midnight expiry on every admit.
// KEYS[1] counter, ARGV[1] ceiling, ARGV[2] ttl seconds.
// Returns {allowed, remaining}.
var checkAndIncrScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local ceiling = tonumber(ARGV[1])
if current >= ceiling then
  return {0, 0}
end
current = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
return {1, ceiling - current}
`)

// linkScript folds today's anonymous usage into the user counter exactly once
// per (user, anon, day). The marker, the INCRBY and the expiry refresh commit
// together. A zero/absent anonymous counter creates no marker, so a later
// non-zero anonymous session the same day can still be linked. The anonymous
// counter is deliberately left in place: deleting it could race an in-flight
// anonymous request.
// KEYS[1] marker, KEYS[2] anon counter, KEYS[3] user counter, ARGV[1] ttl.
// Returns {linked, count}.
var linkScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return {0, 0}
end
local anon = tonumber(redis.call('GET', KEYS[2]) or '0')
if anon == 0 then
  return {0, 0}
end
redis.call('INCRBY', KEYS[3], anon)
redis.call('EXPIRE', KEYS[3], tonumber(ARGV[1]))
redis.call('SET', KEYS[1], '1', 'EX', tonumber(ARGV[1]))
return {1, anon}
`)

type Decision struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
}

type Usage struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

type LinkResult struct {
	Linked bool `json:"linked"`
	Count  int  `json:"count"`
}

type Ledger struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewLedger(rdb redis.Cmdable) *Ledger {
	return &Ledger{
		rdb: rdb,
		now: time.Now,
	}
}

// NewLedgerWithClock exists for tests that pin the wall clock.
func NewLedgerWithClock(rdb redis.Cmdable, now func() time.Time) *Ledger {
	return &Ledger{rdb: rdb, now: now}
}

func counterKey(kind Kind, key, day string) string {
	return fmt.Sprintf("quota:%s:%s:%s", kind, key, day)
}

func markerKey(userID, anonID, day string) string {
	return fmt.Sprintf("quotalink:%s:%s:%s", userID, anonID, day)
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// secondsUntilMidnight returns the TTL that makes a counter expire at the
// next UTC midnight, never less than one second.
func secondsUntilMidnight(t time.Time) int {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	secs := int(next.Sub(t).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// CheckAndIncrement atomically admits and counts one call for today, or
// rejects without touching the counter when the ceiling is reached.
func (l *Ledger) CheckAndIncrement(ctx context.Context, kind Kind, key string, ceiling int) (Decision, error) {
	now := l.now()
	redisKey := counterKey(kind, key, dayKey(now))
	ttl := secondsUntilMidnight(now)

	res, err := checkAndIncrScript.Run(ctx, l.rdb, []string{redisKey}, ceiling, ttl).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("quota check-and-increment: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("quota check-and-increment: unexpected script reply %v", res)
	}

	return Decision{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
	}, nil
}

// GetUsage is a read-only snapshot: no increment, no expiry refresh.
func (l *Ledger) GetUsage(ctx context.Context, kind Kind, key string, ceiling int) (Usage, error) {
	redisKey := counterKey(kind, key, dayKey(l.now()))

	used, err := l.rdb.Get(ctx, redisKey).Int()
	if err != nil && err != redis.Nil {
		return Usage{}, fmt.Errorf("quota usage: %w", err)
	}

	remaining := ceiling - used
	if remaining < 0 {
		remaining = 0
	}
	return Usage{Used: used, Limit: ceiling, Remaining: remaining}, nil
}

// LinkAnonymousToUser folds today's anonymous usage into the user counter.
// Idempotent per (user, anon, day); already-linked is a no-op success with
// count 0, not an error.
func (l *Ledger) LinkAnonymousToUser(ctx context.Context, userID, anonID string) (LinkResult, error) {
	now := l.now()
	day := dayKey(now)
	ttl := secondsUntilMidnight(now)

	keys := []string{
		markerKey(userID, anonID, day),
		counterKey(KindAnonymous, anonID, day),
		counterKey(KindUser, userID, day),
	}

	res, err := linkScript.Run(ctx, l.rdb, keys, ttl).Int64Slice()
	if err != nil {
		return LinkResult{}, fmt.Errorf("quota link: %w", err)
	}
	if len(res) != 2 {
		return LinkResult{}, fmt.Errorf("quota link: unexpected script reply %v", res)
	}

	return LinkResult{
		Linked: res[0] == 1,
		Count:  int(res[1]),
	}, nil
}

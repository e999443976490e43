package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// How long an in-progress claim lives if its holder never completes.
	provisionalLockTTL = 10 * time.Minute
	keyPrefix          = "riskrun:fp:"
)

type runEntry struct {
	InProgress bool      `json:"in_progress"`
	RunID      string    `json:"run_id"`
	Owner      string    `json:"owner"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunCache collapses identical simulation requests. A fingerprint is
// claimed with SETNX while a run is in flight and then points at the stored
// run until the TTL expires.
type RunCache struct {
	rdb   *redis.Client
	ttl   time.Duration
	owner string
}

func NewRunCache(rdb *redis.Client, ttl time.Duration, owner string) *RunCache {
	return &RunCache{rdb: rdb, ttl: ttl, owner: owner}
}

func buildKey(fingerprint string) string { return keyPrefix + fingerprint }

func nowUTC() time.Time { return time.Now().UTC() }

// Claim marks fingerprint as in progress. When the key already exists it
// returns false with the stored run ID, or an empty ID while another run is
// still in flight.
func (c *RunCache) Claim(ctx context.Context, fingerprint string) (bool, string, error) {
	key := buildKey(fingerprint)
	ok, err := provisionalSet(ctx, c.rdb, key, runEntry{InProgress: true, Owner: c.owner, CreatedAt: nowUTC()})
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, "", nil
	}
	cur, err := loadEntry(ctx, c.rdb, key)
	switch {
	case errors.Is(err, redis.Nil):
		// expired between SETNX and GET; try once more
		ok, err = provisionalSet(ctx, c.rdb, key, runEntry{InProgress: true, Owner: c.owner, CreatedAt: nowUTC()})
		return ok, "", err
	case err != nil:
		return false, "", err
	}
	if cur.InProgress {
		return false, "", nil
	}
	return false, cur.RunID, nil
}

// Complete points fingerprint at a stored run.
func (c *RunCache) Complete(ctx context.Context, fingerprint, runID string) error {
	return saveFinal(ctx, c.rdb, buildKey(fingerprint), runEntry{RunID: runID, Owner: c.owner, CreatedAt: nowUTC()}, c.ttl)
}

// Release drops a claim after a failed run so the next request can retry.
func (c *RunCache) Release(ctx context.Context, fingerprint string) error {
	return c.rdb.Del(ctx, buildKey(fingerprint)).Err()
}

// ---- Redis helpers ----
func provisionalSet(ctx context.Context, rdb *redis.Client, key string, entry runEntry) (bool, error) {
	payload, _ := json.Marshal(entry)
	return rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (runEntry, error) {
	var e runEntry
	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	err = json.Unmarshal(v, &e)
	return e, err
}

func saveFinal(ctx context.Context, rdb *redis.Client, key string, entry runEntry, ttl time.Duration) error {
	payload, _ := json.Marshal(entry)
	return rdb.Set(ctx, key, payload, ttl).Err()
}

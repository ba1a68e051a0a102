// Package cache provides the key-value session/aggregate cache used to
// keep in-flight round state out of process memory. Values are stored
// as JSON so a process restart can pick up live sessions and unsettled
// round aggregates.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is advisory; readers must tolerate a miss by treating it
// as "no session" / "empty aggregate".
const DefaultTTL = time.Hour

// Cache is implemented by the Redis client and by an in-memory
// tracker used in tests.
type Cache interface {
	// Set marshals value as JSON and stores it under key. A zero ttl
	// means DefaultTTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get unmarshals the value stored under key into dest. Returns
	// false if the key is not present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error
}

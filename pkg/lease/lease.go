// Package lease provides short-lived exclusive claims used to keep two workers
// from stepping the same enrollment concurrently.
package lease

import (
	"context"
	"time"
)

// Release gives a held lease back. Releasing an expired or stolen lease is a no-op.
type Release func(ctx context.Context) error

// Locker hands out leases on string keys.
type Locker interface {
	// Acquire claims key for ttl. It returns ok=false without error when another
	// holder owns an unexpired lease.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release Release, ok bool, err error)
}

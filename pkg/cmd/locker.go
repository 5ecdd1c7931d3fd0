package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/automaton/pkg/lease"
	leaseredis "github.com/dukex/automaton/pkg/lease/redis"
	"github.com/dukex/automaton/pkg/persistence"
	"github.com/dukex/automaton/pkg/persistence/postgresql"
)

// NewLocker creates the enrollment lease backend. The returned close function
// is never nil.
func NewLocker(
	ctx context.Context,
	logger *slog.Logger,
	provider, redisURL, owner string,
	store persistence.Persistence,
) (lease.Locker, func() error, error) {
	noop := func() error { return nil }

	switch provider {
	case "memory", "":
		return lease.NewMemory(time.Now), noop, nil
	case "redis":
		locker, err := leaseredis.Connect(ctx, redisURL, logger)
		if err != nil {
			return nil, noop, err
		}

		return locker, locker.Close, nil
	case "postgres":
		pg, ok := store.(*postgresql.Persistence)
		if !ok {
			return nil, noop, errors.New("postgres lease requires a postgres database url")
		}

		return pg.Locker(owner), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported lease provider %q", provider)
	}
}

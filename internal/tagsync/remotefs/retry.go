package remotefs

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/logsetup"
)

// maxLockRetries bounds the unbounded retry loop of
// requests/common.rs's Connection::request (spec.md §9, Open
// Question 2: "unbounded retry on lock wait — resolved to a bounded
// exponential backoff").
const maxLockRetries = 8

// withLockRetry retries fn while it fails with a lockWaitError, bounded
// to maxLockRetries attempts with exponential backoff. The wait between
// attempts goes through c.clock rather than a bare time.Sleep so that
// tests can drive it with a clock.Mock instead of burning wall-clock
// time on every backoff, the same way tagstore_test.go substitutes a
// mock clock for TagStore's pruning ticker.
func (c *connection) withLockRetry(ctx context.Context, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	bo.Clock = c.clock

	var lastErr error
	for attempt := 1; attempt <= maxLockRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var lockErr *lockWaitError
		if !errors.As(lastErr, &lockErr) {
			return lastErr
		}
		if attempt == maxLockRetries {
			break
		}

		logsetup.Infof("retrying after transient error (attempt %d/%d): %v", attempt, maxLockRetries, lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(bo.NextBackOff()):
		}
	}
	return lastErr
}

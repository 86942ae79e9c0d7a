package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Healthcheck reports Redis connectivity for the health endpoint.
func Healthcheck(client redis.UniversalClient) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrHealthcheckFailed
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Shutdown adapts client teardown to the shutdown-hook shape used by the
// server's run loop.
func Shutdown(client redis.UniversalClient) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Close()
	}
}

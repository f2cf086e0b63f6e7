// SPDX-License-Identifier: MPL-2.0

package checks

import (
	"context"
	"errors"
	"fmt"
	"net"

	"conu-cli/pkg/probe"

	"github.com/redis/go-redis/v9"
)

// redisPing reports whether the Redis server at args["address"] answers PING.
// With args["key"] set it instead reports whether that key holds
// args["value"]; a missing key surfaces as the redis-nil error kind.
func redisPing(ctx context.Context, args probe.Args) (any, error) {
	addr, err := args.String("address")
	if err != nil {
		return nil, err
	}
	password, err := args.StringOr("password", "")
	if err != nil {
		return nil, err
	}
	db, err := args.IntOr("db", 0)
	if err != nil {
		return nil, err
	}
	key, err := args.StringOr("key", "")
	if err != nil {
		return nil, err
	}
	timeout, err := args.Duration("dial_timeout", defaultRequestTimeout)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: timeout,
		MaxRetries:  -1,
	})
	defer client.Close()

	if key == "" {
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, redisError(err)
		}
		return true, nil
	}

	want, err := args.StringOr("value", "")
	if err != nil {
		return nil, err
	}
	got, err := client.Get(ctx, key).Result()
	if err != nil {
		return nil, redisError(err)
	}
	return got == want, nil
}

func redisError(err error) error {
	if errors.Is(err, redis.Nil) {
		return err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: redis: %w", ErrUnavailable, err)
	}
	return fmt.Errorf("redis: %w", err)
}

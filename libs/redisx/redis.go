package redisx

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Addr     string
	Password string
	DB       string
}

func Open(opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis addr not configured")
	}
	dbNum := 0
	if opts.DB != "" {
		n, err := strconv.Atoi(opts.DB)
		if err != nil || n < 0 {
			return nil, errors.New("invalid redis db number: " + opts.DB)
		}
		dbNum = n
	}
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       dbNum,
	}), nil
}

func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}

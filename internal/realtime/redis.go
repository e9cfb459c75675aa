package realtime

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedis builds the shared Redis client. Returns nil when no address is
// configured; callers treat a nil client as "realtime/revocation disabled".
func NewRedis(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	zap.L().Info("redis client created", zap.String("addr", addr))
	return rdb
}

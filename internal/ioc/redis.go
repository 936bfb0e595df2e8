package ioc

import (
	"time"

	"gitee.com/flycash/rental-notification/internal/pkg/idempotent"

	"github.com/gotomicro/ego/core/econf"
	"github.com/meoying/dlock-go"
	dlockRedis "github.com/meoying/dlock-go/redis"
	"github.com/redis/go-redis/v9"
)

func InitRedisClient() *redis.Client {
	type Config struct {
		Addr string
	}
	var cfg Config
	err := econf.UnmarshalKey("redis", &cfg)
	if err != nil {
		panic(err)
	}
	return redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
}

func InitDistributedLock(client *redis.Client) dlock.Client {
	return dlockRedis.NewClient(client)
}

func InitIdempotencyService(client *redis.Client) idempotent.IdempotencyService {
	const ttl = 24 * time.Hour
	return idempotent.NewRedisIdempotencyService(client, "rental_notification", ttl)
}

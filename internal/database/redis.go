package database

import (
	"context"
	"fmt"
	"time"

	"go-gin-event-booking/config"

	"github.com/redis/go-redis/v9"
)

// InitRedis 快照與事件 stream 共用同一個 client；XREADGROUP 的阻塞時間由 go-redis 自行延長讀取逾時
func InitRedis(config *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Host, config.Port),
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	err := connectWithRetry("redis", config.ConnectAttempts, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return rdb, nil
}

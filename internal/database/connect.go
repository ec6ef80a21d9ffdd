package database

import (
	"context"
	"fmt"
	"time"

	"go-gin-event-booking/pkg/logger"

	"go.uber.org/zap"
)

const connectRetryDelay = 2 * time.Second

// connectWithRetry 容器剛啟動時連線常會失敗，最多嘗試 attempts 次
func connectWithRetry(name string, attempts int, connect func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	log := logger.WithComponent("database").With(zap.String("store", name))

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = connect(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt < attempts {
			log.Warn("connect failed, retrying",
				zap.Int("attempt", attempt), zap.Int("attempts", attempts), zap.Error(err))
			time.Sleep(connectRetryDelay)
		}
	}
	return fmt.Errorf("connect to %s: %w", name, err)
}

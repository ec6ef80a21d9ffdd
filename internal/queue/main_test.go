package queue_test

import (
	"log"
	"os"
	"testing"

	"go-gin-event-booking/internal/testutil"

	"github.com/redis/go-redis/v9"
)

var testRdb *redis.Client

func TestMain(m *testing.M) {
	rdb, cleanup, err := testutil.SetupRedisOnly()
	if err != nil {
		log.Printf("redis stream tests disabled: %v", err)
	} else {
		testRdb = rdb
	}

	code := m.Run()
	if cleanup != nil {
		cleanup()
	}

	os.Exit(code)
}

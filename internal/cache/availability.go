package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go-gin-event-booking/internal/model"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss 快照不存在或已過期
var ErrCacheMiss = errors.New("availability snapshot not cached")

// AvailabilityCache 座位剩餘快照，只給查詢用，訂位判斷一律以 DB 為準
type AvailabilityCache interface {
	// 寫入：較舊的快照不會覆蓋較新的 (使用Lua腳本確保原子性)
	Store(ctx context.Context, availability model.EventAvailability) error
	// 讀取：不存在時回傳 ErrCacheMiss
	Get(ctx context.Context, eventID int) (model.EventAvailability, error)
	// 刪除
	Invalidate(ctx context.Context, eventID int) error
}

type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) AvailabilityCache {
	return &RedisAvailabilityCache{
		client: client,
		ttl:    ttl,
	}
}

func availabilityKey(eventID int) string {
	return fmt.Sprintf("event:%d:availability", eventID)
}

var storeScript = redis.NewScript(`
	-- 1. 取得參數
	local key = KEYS[1]
	local version = tonumber(ARGV[1])
	local ttl_ms = tonumber(ARGV[2])

	-- 2. 已有較新的快照就不覆蓋；version 為微秒，仍在 double 可精確表示的範圍內
	local current = redis.call('HGET', key, 'version')
	if current and tonumber(current) > version then
		return 0
	end

	-- 3. 寫入快照
	redis.call('HSET', key,
		'version', ARGV[1],
		'total', ARGV[3],
		'available', ARGV[4],
		'occupancy', ARGV[5])
	if ttl_ms > 0 then
		redis.call('PEXPIRE', key, ttl_ms)
	end

	return 1
`)

func (c *RedisAvailabilityCache) Store(ctx context.Context, availability model.EventAvailability) error {
	key := availabilityKey(availability.EventID)

	err := storeScript.Run(ctx, c.client, []string{key},
		availability.UpdatedAt.UnixMicro(),
		c.ttl.Milliseconds(),
		availability.TotalSeats,
		availability.AvailableSeats,
		strconv.FormatFloat(availability.OccupancyPercent, 'f', 2, 64),
	).Err()
	if err != nil {
		return fmt.Errorf("store availability: %w", err)
	}
	return nil
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, eventID int) (model.EventAvailability, error) {
	result, err := c.client.HGetAll(ctx, availabilityKey(eventID)).Result()
	if err != nil {
		return model.EventAvailability{}, fmt.Errorf("get availability: %w", err)
	}

	// 檢查 key 是否存在
	if len(result) == 0 {
		return model.EventAvailability{}, ErrCacheMiss
	}

	version, err := strconv.ParseInt(result["version"], 10, 64)
	if err != nil {
		return model.EventAvailability{}, fmt.Errorf("invalid version: %v", err)
	}

	total, err := strconv.Atoi(result["total"])
	if err != nil {
		return model.EventAvailability{}, fmt.Errorf("invalid total: %v", err)
	}

	available, err := strconv.Atoi(result["available"])
	if err != nil {
		return model.EventAvailability{}, fmt.Errorf("invalid available: %v", err)
	}

	occupancy, err := strconv.ParseFloat(result["occupancy"], 64)
	if err != nil {
		return model.EventAvailability{}, fmt.Errorf("invalid occupancy: %v", err)
	}

	return model.EventAvailability{
		EventID:          eventID,
		TotalSeats:       total,
		AvailableSeats:   available,
		SoldSeats:        total - available,
		OccupancyPercent: occupancy,
		UpdatedAt:        time.UnixMicro(version).UTC(),
	}, nil
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, eventID int) error {
	return c.client.Del(ctx, availabilityKey(eventID)).Err()
}

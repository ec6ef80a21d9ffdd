package cache_test

import (
	"context"
	"testing"
	"time"

	"go-gin-event-booking/internal/cache"
	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(eventID, total, available int, at time.Time) model.EventAvailability {
	event := &model.Event{ID: eventID, TotalSeats: total, AvailableSeats: available, UpdatedAt: at}
	return event.Availability()
}

func TestRedisAvailabilityCache_StoreAndGet(t *testing.T) {
	testutil.RequireRedis(t, testRdb)
	c := cache.NewRedisAvailabilityCache(testRdb, time.Minute)
	ctx := context.Background()
	eventID := testutil.NextUserID()
	defer c.Invalidate(ctx, eventID)

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, c.Store(ctx, snapshot(eventID, 8, 6, now)))

	got, err := c.Get(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, eventID, got.EventID)
	assert.Equal(t, 8, got.TotalSeats)
	assert.Equal(t, 6, got.AvailableSeats)
	assert.Equal(t, 2, got.SoldSeats)
	assert.Equal(t, 25.0, got.OccupancyPercent)
	assert.True(t, now.Equal(got.UpdatedAt))
}

func TestRedisAvailabilityCache_OlderSnapshotIgnored(t *testing.T) {
	testutil.RequireRedis(t, testRdb)
	c := cache.NewRedisAvailabilityCache(testRdb, time.Minute)
	ctx := context.Background()
	eventID := testutil.NextUserID()
	defer c.Invalidate(ctx, eventID)

	now := time.Now().UTC()
	require.NoError(t, c.Store(ctx, snapshot(eventID, 10, 3, now)))
	require.NoError(t, c.Store(ctx, snapshot(eventID, 10, 9, now.Add(-time.Second))))

	got, err := c.Get(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableSeats)
}

func TestRedisAvailabilityCache_MicrosecondOrdering(t *testing.T) {
	testutil.RequireRedis(t, testRdb)
	c := cache.NewRedisAvailabilityCache(testRdb, time.Minute)
	ctx := context.Background()
	eventID := testutil.NextUserID()
	defer c.Invalidate(ctx, eventID)

	// Postgres timestamp 精度為微秒，相差 1µs 的快照也要分得出先後
	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, c.Store(ctx, snapshot(eventID, 10, 4, now.Add(time.Microsecond))))
	require.NoError(t, c.Store(ctx, snapshot(eventID, 10, 5, now)))

	got, err := c.Get(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.AvailableSeats)
	assert.True(t, now.Add(time.Microsecond).Equal(got.UpdatedAt))
}

func TestRedisAvailabilityCache_Miss(t *testing.T) {
	testutil.RequireRedis(t, testRdb)
	c := cache.NewRedisAvailabilityCache(testRdb, time.Minute)
	ctx := context.Background()
	eventID := testutil.NextUserID()

	require.NoError(t, c.Store(ctx, snapshot(eventID, 5, 5, time.Now())))
	require.NoError(t, c.Invalidate(ctx, eventID))

	_, err := c.Get(ctx, eventID)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"go-gin-event-booking/config"
	"go-gin-event-booking/internal/database"
	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/refund"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// 測試之間不 TRUNCATE，每個測試用自己的 user id 與活動，可以跨 package 平行跑
var userSeq atomic.Int64

func init() {
	userSeq.Store(time.Now().UnixNano() % 1_000_000_000)
}

// NextUserID 產生這次測試執行中不重複的 user id
func NextUserID() int {
	return int(userSeq.Add(1))
}

// Setup 連線測試 DB 並跑 migration；連不上時回傳 error，由呼叫端決定 skip
func Setup() (*pgxpool.Pool, func(), error) {
	cfg := config.LoadTestConfig()

	testDB, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize test database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, testDB); err != nil {
		testDB.Close()
		return nil, nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	return testDB, testDB.Close, nil
}

// SetupRedisOnly 僅初始化 Redis，用於只依賴 Redis 的測試（如 queue、cache）
func SetupRedisOnly() (*redis.Client, func(), error) {
	cfg := config.LoadTestConfig()
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	cleanup := func() { _ = rdb.Close() }
	return rdb, cleanup, nil
}

// RequireDB 沒有測試 DB 時 skip
func RequireDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if pool == nil {
		t.Skip("test database unavailable")
	}
}

func RequireRedis(t *testing.T, rdb *redis.Client) {
	t.Helper()
	if rdb == nil {
		t.Skip("test redis unavailable")
	}
}

type EventOption func(*model.Event)

func WithSeats(total int) EventOption {
	return func(e *model.Event) { e.TotalSeats = total }
}

func WithPrice(price float64) EventOption {
	return func(e *model.Event) { e.Price = price }
}

func WithStartIn(d time.Duration) EventOption {
	return func(e *model.Event) { e.Date = time.Now().UTC().Add(d) }
}

func WithRefundPolicy(tier refund.Tier) EventOption {
	return func(e *model.Event) { e.RefundPolicy = tier }
}

func WithMaxPerUser(n int) EventOption {
	return func(e *model.Event) { e.MaxBookingsPerUser = n }
}

func Inactive() EventOption {
	return func(e *model.Event) { e.IsActive = false }
}

// CreateEvent 直接寫入一筆活動，預設 10 席、單價 100、一週後開始
func CreateEvent(t *testing.T, pool *pgxpool.Pool, opts ...EventOption) *model.Event {
	t.Helper()

	event := &model.Event{
		Name:               fmt.Sprintf("Test Event %d", NextUserID()),
		Venue:              "Test Hall",
		Date:               time.Now().UTC().Add(7 * 24 * time.Hour),
		Price:              100,
		TotalSeats:         10,
		MaxBookingsPerUser: 10,
		RefundPolicy:       refund.Moderate,
		IsActive:           true,
	}
	for _, opt := range opts {
		opt(event)
	}

	query := `
		INSERT INTO events (name, venue, event_date, price, total_seats, available_seats,
			max_bookings_per_user, refund_policy, is_active)
		VALUES ($1, $2, $3, $4, $5, $5, $6, $7, $8)
		RETURNING id, available_seats, created_at, updated_at
	`
	err := pool.QueryRow(context.Background(), query,
		event.Name, event.Venue, event.Date, event.Price, event.TotalSeats,
		event.MaxBookingsPerUser, event.RefundPolicy, event.IsActive,
	).Scan(&event.ID, &event.AvailableSeats, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}

	return event
}

// AvailableSeats 直接從帳本讀剩餘座位
func AvailableSeats(t *testing.T, pool *pgxpool.Pool, eventID int) int {
	t.Helper()

	var seats int
	err := pool.QueryRow(context.Background(), "SELECT available_seats FROM events WHERE id = $1", eventID).Scan(&seats)
	if err != nil {
		t.Fatalf("Failed to read available seats: %v", err)
	}
	return seats
}

// ActiveSeats 該活動所有 pending/confirmed 訂位的票數總和
func ActiveSeats(t *testing.T, pool *pgxpool.Pool, eventID int) int {
	t.Helper()

	var seats int
	query := `
		SELECT COALESCE(SUM(number_of_tickets), 0)
		FROM bookings
		WHERE event_id = $1 AND status IN ('pending', 'confirmed')
	`
	if err := pool.QueryRow(context.Background(), query, eventID).Scan(&seats); err != nil {
		t.Fatalf("Failed to sum active seats: %v", err)
	}
	return seats
}

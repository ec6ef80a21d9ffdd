package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-gin-event-booking/internal/database"
	"go-gin-event-booking/internal/model"
	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `
	id, name, description, venue, event_date, price,
	total_seats, available_seats, max_bookings_per_user,
	refund_policy, is_active, created_at, updated_at
`

// EventRepository 活動與座位帳本 (available_seats) 的存取
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error)
	FindByID(ctx context.Context, id int) (*model.Event, error)
	Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error)

	// Transaction methods
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Event, error)
	Reserve(ctx context.Context, tx pgx.Tx, id int, quantity int) (int, error)
	Release(ctx context.Context, tx pgx.Tx, id int, quantity int) (int, error)
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Venue,
		&event.Date,
		&event.Price,
		&event.TotalSeats,
		&event.AvailableSeats,
		&event.MaxBookingsPerUser,
		&event.RefundPolicy,
		&event.IsActive,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Create 新活動的 available_seats 一律等於 total_seats
func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := `
		INSERT INTO events (
			name, description, venue, event_date, price,
			total_seats, available_seats, max_bookings_per_user, refund_policy, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8, $9)
		RETURNING ` + eventColumns

	created, err := scanEvent(r.pool.QueryRow(ctx, query,
		event.Name, event.Description, event.Venue, event.Date, event.Price,
		event.TotalSeats, event.MaxBookingsPerUser, event.RefundPolicy, event.IsActive,
	))
	if err != nil {
		return nil, database.WrapError("create event", err)
	}

	return created, nil
}

func (r *EventRepositoryImpl) List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("event_date >= $%d", argPos))
		args = append(args, *filter.From)
		argPos++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("event_date <= $%d", argPos))
		args = append(args, *filter.To)
		argPos++
	}

	query := "SELECT " + eventColumns + " FROM events"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY event_date ASC, id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, database.WrapError("list events", err)
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, database.WrapError("scan event", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, database.WrapError("list events", err)
	}

	return events, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Event, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE id = $1"

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, database.WrapError("find event", err)
	}

	return event, nil
}

// FindByIDWithLock 鎖住活動列，同一活動的訂位/取消會在這裡排隊
func (r *EventRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Event, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE id = $1 FOR UPDATE"

	event, err := scanEvent(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, database.WrapError("lock event", err)
	}

	return event, nil
}

// Update 只允許修改非庫存欄位，座位數不開放直接寫入
func (r *EventRepositoryImpl) Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.Venue != nil {
		add("venue", *params.Venue)
	}
	if params.Date != nil {
		add("event_date", *params.Date)
	}
	if params.Price != nil {
		add("price", *params.Price)
	}
	if params.MaxBookingsPerUser != nil {
		add("max_bookings_per_user", *params.MaxBookingsPerUser)
	}
	if params.RefundPolicy != nil {
		add("refund_policy", *params.RefundPolicy)
	}
	if params.IsActive != nil {
		add("is_active", *params.IsActive)
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	// add updated_at
	add("updated_at", time.Now().UTC())

	// add id
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE events
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, eventColumns)

	event, err := scanEvent(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, database.WrapError("update event", err)
	}

	return event, nil
}

// Reserve 扣座位；條件式 UPDATE 保證不會扣成負數，回傳剩餘座位
func (r *EventRepositoryImpl) Reserve(ctx context.Context, tx pgx.Tx, id int, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, apperrors.ErrInvalidInput
	}

	query := `
		UPDATE events
		SET available_seats = available_seats - $1, updated_at = $2
		WHERE id = $3 AND available_seats >= $1
		RETURNING available_seats
	`

	var remaining int
	err := tx.QueryRow(ctx, query, quantity, time.Now().UTC(), id).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, r.ledgerMiss(ctx, tx, id, apperrors.ErrInsufficientCapacity)
		}
		return 0, database.WrapError("reserve seats", err)
	}

	return remaining, nil
}

// Release 歸還座位，不會超過 total_seats
func (r *EventRepositoryImpl) Release(ctx context.Context, tx pgx.Tx, id int, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, apperrors.ErrInvalidInput
	}

	query := `
		UPDATE events
		SET available_seats = available_seats + $1, updated_at = $2
		WHERE id = $3 AND available_seats + $1 <= total_seats
		RETURNING available_seats
	`

	var remaining int
	err := tx.QueryRow(ctx, query, quantity, time.Now().UTC(), id).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, r.ledgerMiss(ctx, tx, id, apperrors.ErrSeatOverflow)
		}
		return 0, database.WrapError("release seats", err)
	}

	return remaining, nil
}

// ledgerMiss 條件式 UPDATE 沒有更新任何列時，區分活動不存在與條件不成立
func (r *EventRepositoryImpl) ledgerMiss(ctx context.Context, tx pgx.Tx, id int, conditionErr error) error {
	var exists bool
	err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return database.WrapError("check event", err)
	}
	if !exists {
		return apperrors.ErrEventNotFound
	}
	return conditionErr
}

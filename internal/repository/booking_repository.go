package repository

import (
	"context"
	"encoding/json"
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

const (
	constraintActiveBooking    = "bookings_active_user_event_key"
	constraintBookingReference = "bookings_booking_reference_key"
	constraintRefundAmount     = "bookings_refund_amount_check"

	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

const bookingColumns = `
	id, user_id, event_id, number_of_tickets, total_amount, status,
	payment_status, payment_method, booking_reference, attendee_info,
	special_requests, cancellation_date, cancellation_reason,
	refund_amount, refund_reason, booking_date, created_at, updated_at
`

// 允許排序的欄位，避免把使用者輸入拼進 SQL
var bookingSortColumns = map[string]string{
	"":                  "booking_date",
	"booking_date":      "booking_date",
	"total_amount":      "total_amount",
	"number_of_tickets": "number_of_tickets",
	"created_at":        "created_at",
}

type BookingRepository interface {
	FindByID(ctx context.Context, id int) (*model.Booking, error)
	FindByReference(ctx context.Context, reference string) (*model.Booking, error)
	List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, int, error)

	// Transaction methods
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Booking, error)
	HasActive(ctx context.Context, tx pgx.Tx, userID int, eventID int) (bool, error)
	CreateActive(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error)
	TransitionStatus(ctx context.Context, tx pgx.Tx, id int, transition model.StatusTransition) (*model.Booking, error)
}

type BookingRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &BookingRepositoryImpl{
		pool: pool,
	}
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	var attendees []byte

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.EventID,
		&booking.NumberOfTickets,
		&booking.TotalAmount,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.PaymentMethod,
		&booking.BookingReference,
		&attendees,
		&booking.SpecialRequests,
		&booking.CancellationDate,
		&booking.CancellationReason,
		&booking.RefundAmount,
		&booking.RefundReason,
		&booking.BookingDate,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(attendees) > 0 {
		if err := json.Unmarshal(attendees, &booking.AttendeeInfo); err != nil {
			return nil, fmt.Errorf("decode attendee info: %w", err)
		}
	}

	return &booking, nil
}

func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Booking, error) {
	query := "SELECT " + bookingColumns + " FROM bookings WHERE id = $1"

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, database.WrapError("find booking", err)
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) FindByReference(ctx context.Context, reference string) (*model.Booking, error) {
	query := "SELECT " + bookingColumns + " FROM bookings WHERE booking_reference = $1"

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, database.WrapError("find booking by reference", err)
	}

	return booking, nil
}

// List 回傳當頁資料與符合條件的總筆數
func (r *BookingRepositoryImpl) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	add := func(condition string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(condition, argPos))
		args = append(args, value)
		argPos++
	}

	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.EventID != nil {
		add("event_id = $%d", *filter.EventID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.From != nil {
		add("booking_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("booking_date <= $%d", *filter.To)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	column, ok := bookingSortColumns[filter.SortBy]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unsupported sort field %q", apperrors.ErrInvalidInput, filter.SortBy)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM bookings"+where, args...).Scan(&total); err != nil {
		return nil, 0, database.WrapError("count bookings", err)
	}

	order := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		order = "ASC"
	}

	page, limit := normalizePage(filter.Page, filter.Limit)

	query := fmt.Sprintf("SELECT %s FROM bookings%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d",
		bookingColumns, where, column, order, order, argPos, argPos+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, database.WrapError("list bookings", err)
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, 0, database.WrapError("scan booking", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, database.WrapError("list bookings", err)
	}

	return bookings, total, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// FindByIDWithLock 呼叫前必須已經鎖住對應的活動列
func (r *BookingRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Booking, error) {
	query := "SELECT " + bookingColumns + " FROM bookings WHERE id = $1 FOR UPDATE"

	booking, err := scanBooking(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, database.WrapError("lock booking", err)
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) HasActive(ctx context.Context, tx pgx.Tx, userID int, eventID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND event_id = $2 AND status IN ('pending', 'confirmed')
		)
	`

	var exists bool
	if err := tx.QueryRow(ctx, query, userID, eventID).Scan(&exists); err != nil {
		return false, database.WrapError("check active booking", err)
	}

	return exists, nil
}

// CreateActive 寫入新的訂位；partial unique index 是重複訂位的最後防線
func (r *BookingRepositoryImpl) CreateActive(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error) {
	if !booking.Status.IsActive() {
		return nil, fmt.Errorf("%w: new booking must be pending or confirmed", apperrors.ErrInvalidInput)
	}

	var attendees []byte
	if booking.AttendeeInfo != nil {
		var err error
		if attendees, err = json.Marshal(booking.AttendeeInfo); err != nil {
			return nil, fmt.Errorf("encode attendee info: %w", err)
		}
	}

	bookingDate := booking.BookingDate
	if bookingDate.IsZero() {
		bookingDate = time.Now().UTC()
	}

	query := `
		INSERT INTO bookings (
			user_id, event_id, number_of_tickets, total_amount, status,
			payment_status, payment_method, booking_reference, attendee_info,
			special_requests, booking_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + bookingColumns

	created, err := scanBooking(tx.QueryRow(ctx, query,
		booking.UserID, booking.EventID, booking.NumberOfTickets, booking.TotalAmount, booking.Status,
		booking.PaymentStatus, booking.PaymentMethod, booking.BookingReference, attendees,
		booking.SpecialRequests, bookingDate,
	))
	if err != nil {
		switch {
		case database.IsConstraintViolation(err, constraintActiveBooking):
			return nil, apperrors.ErrDuplicateActiveBooking
		case database.IsConstraintViolation(err, constraintBookingReference):
			return nil, apperrors.ErrDuplicateReference
		}
		return nil, database.WrapError("create booking", err)
	}

	return created, nil
}

// TransitionStatus 只有目前狀態等於 transition.From 時才會更新 (compare-and-set)
func (r *BookingRepositoryImpl) TransitionStatus(ctx context.Context, tx pgx.Tx, id int, transition model.StatusTransition) (*model.Booking, error) {
	if !transition.From.CanTransitionTo(transition.To) {
		return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidStateTransition, transition.From, transition.To)
	}

	query := `
		UPDATE bookings
		SET status = $1,
		    cancellation_date = COALESCE($2, cancellation_date),
		    cancellation_reason = COALESCE($3, cancellation_reason),
		    refund_amount = COALESCE($4, refund_amount),
		    refund_reason = COALESCE($5, refund_reason),
		    payment_status = COALESCE($6, payment_status),
		    updated_at = $7
		WHERE id = $8 AND status = $9
		RETURNING ` + bookingColumns

	booking, err := scanBooking(tx.QueryRow(ctx, query,
		transition.To,
		transition.CancellationDate,
		transition.CancellationReason,
		transition.RefundAmount,
		transition.RefundReason,
		transition.PaymentStatus,
		time.Now().UTC(),
		id,
		transition.From,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.transitionMiss(ctx, tx, id, transition)
		}
		if database.IsConstraintViolation(err, constraintRefundAmount) {
			return nil, apperrors.ErrRefundExceedsTotal
		}
		return nil, database.WrapError("transition booking", err)
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) transitionMiss(ctx context.Context, tx pgx.Tx, id int, transition model.StatusTransition) error {
	var current model.BookingStatus
	err := tx.QueryRow(ctx, "SELECT status FROM bookings WHERE id = $1", id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrBookingNotFound
		}
		return database.WrapError("check booking status", err)
	}
	return fmt.Errorf("%w: booking is %s, expected %s", apperrors.ErrInvalidStateTransition, current, transition.From)
}

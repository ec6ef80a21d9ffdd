package repository_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/repository"
	"go-gin-event-booking/internal/testutil"
	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReference() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BK" + strings.ToUpper(hex[:10])
}

func newBooking(userID, eventID, tickets int) *model.Booking {
	return &model.Booking{
		UserID:           userID,
		EventID:          eventID,
		NumberOfTickets:  tickets,
		TotalAmount:      float64(tickets) * 100,
		Status:           model.BookingStatusConfirmed,
		PaymentStatus:    model.PaymentStatusPaid,
		BookingReference: testReference(),
	}
}

// createCommitted 建立並 commit 一筆訂位，給不走 transaction 的查詢測試用
func createCommitted(t *testing.T, repo repository.BookingRepository, booking *model.Booking) *model.Booking {
	t.Helper()
	ctx := context.Background()

	var created *model.Booking
	err := pgx.BeginFunc(ctx, testDB, func(tx pgx.Tx) error {
		var err error
		created, err = repo.CreateActive(ctx, tx, booking)
		return err
	})
	require.NoError(t, err)
	return created
}

func TestBookingRepository_CreateActive(t *testing.T) {
	repo := repository.NewBookingRepository(testDB)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		tx, cleanup := setupTestWithTransaction(t)
		defer cleanup()
		event := testutil.CreateEvent(t, testDB)

		booking := newBooking(testutil.NextUserID(), event.ID, 2)
		booking.AttendeeInfo = []model.Attendee{{Name: "Ann"}, {Name: "Bob", Email: "bob@example.com"}}
		booking.SpecialRequests = lo.ToPtr("aisle seat")

		created, err := repo.CreateActive(ctx, tx, booking)

		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, model.BookingStatusConfirmed, created.Status)
		assert.Equal(t, 200.0, created.TotalAmount)
		assert.Equal(t, booking.BookingReference, created.BookingReference)
		require.Len(t, created.AttendeeInfo, 2)
		assert.Equal(t, "bob@example.com", created.AttendeeInfo[1].Email)
		assert.Equal(t, "aisle seat", *created.SpecialRequests)
		assert.Zero(t, created.RefundAmount)
		assert.NotZero(t, created.BookingDate)
	})

	t.Run("DuplicateActive", func(t *testing.T) {
		tx, cleanup := setupTestWithTransaction(t)
		defer cleanup()
		event := testutil.CreateEvent(t, testDB)
		userID := testutil.NextUserID()

		_, err := repo.CreateActive(ctx, tx, newBooking(userID, event.ID, 1))
		require.NoError(t, err)

		_, err = repo.CreateActive(ctx, tx, newBooking(userID, event.ID, 1))
		assert.ErrorIs(t, err, apperrors.ErrDuplicateActiveBooking)
	})

	t.Run("DuplicateReference", func(t *testing.T) {
		tx, cleanup := setupTestWithTransaction(t)
		defer cleanup()
		event := testutil.CreateEvent(t, testDB)

		first := newBooking(testutil.NextUserID(), event.ID, 1)
		_, err := repo.CreateActive(ctx, tx, first)
		require.NoError(t, err)

		second := newBooking(testutil.NextUserID(), event.ID, 1)
		second.BookingReference = first.BookingReference
		_, err = repo.CreateActive(ctx, tx, second)
		assert.ErrorIs(t, err, apperrors.ErrDuplicateReference)
	})

	t.Run("RejectsInactiveStatus", func(t *testing.T) {
		booking := newBooking(1, 1, 1)
		booking.Status = model.BookingStatusCancelled

		_, err := repo.CreateActive(ctx, nil, booking)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestBookingRepository_HasActive(t *testing.T) {
	repo := repository.NewBookingRepository(testDB)
	ctx := context.Background()

	tx, cleanup := setupTestWithTransaction(t)
	defer cleanup()
	event := testutil.CreateEvent(t, testDB)
	userID := testutil.NextUserID()

	has, err := repo.HasActive(ctx, tx, userID, event.ID)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = repo.CreateActive(ctx, tx, newBooking(userID, event.ID, 1))
	require.NoError(t, err)

	has, err = repo.HasActive(ctx, tx, userID, event.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestBookingRepository_TransitionStatus(t *testing.T) {
	repo := repository.NewBookingRepository(testDB)
	ctx := context.Background()

	t.Run("CancelThenRefund", func(t *testing.T) {
		tx, cleanup := setupTestWithTransaction(t)
		defer cleanup()
		event := testutil.CreateEvent(t, testDB)
		created, err := repo.CreateActive(ctx, tx, newBooking(testutil.NextUserID(), event.ID, 2))
		require.NoError(t, err)

		now := time.Now().UTC()
		cancelled, err := repo.TransitionStatus(ctx, tx, created.ID, model.StatusTransition{
			From:               model.BookingStatusConfirmed,
			To:                 model.BookingStatusCancelled,
			CancellationDate:   &now,
			CancellationReason: lo.ToPtr("plans changed"),
			RefundAmount:       lo.ToPtr(100.0),
			PaymentStatus:      lo.ToPtr(model.PaymentStatusRefunded),
		})
		require.NoError(t, err)
		assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
		assert.Equal(t, 100.0, cancelled.RefundAmount)
		assert.Equal(t, "plans changed", *cancelled.CancellationReason)
		require.NotNil(t, cancelled.CancellationDate)

		refunded, err := repo.TransitionStatus(ctx, tx, created.ID, model.StatusTransition{
			From:         model.BookingStatusCancelled,
			To:           model.BookingStatusRefunded,
			RefundAmount: lo.ToPtr(150.0),
			RefundReason: lo.ToPtr("goodwill"),
		})
		require.NoError(t, err)
		assert.Equal(t, model.BookingStatusRefunded, refunded.Status)
		assert.Equal(t, 150.0, refunded.RefundAmount)
		// 沒有指定的欄位維持原值
		assert.Equal(t, "plans changed", *refunded.CancellationReason)
		assert.Equal(t, model.PaymentStatusRefunded, refunded.PaymentStatus)
	})

	t.Run("StaleFromStatus", func(t *testing.T) {
		tx, cleanup := setupTestWithTransaction(t)
		defer cleanup()
		event := testutil.CreateEvent(t, testDB)
		created, err := repo.CreateActive(ctx, tx, newBooking(testutil.NextUserID(), event.ID, 1))
		require.NoError(t, err)

		_, err = repo.TransitionStatus(ctx, tx, created.ID, model.StatusTransition{
			From: model.BookingStatusPending,
			To:   model.BookingStatusCancelled,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	})

	t.Run("IllegalTransition", func(t *testing.T) {
		_, err := repo.TransitionStatus(ctx, nil, 1, model.StatusTransition{
			From: model.BookingStatusRefunded,
			To:   model.BookingStatusConfirmed,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	})

	t.Run("NotFound", func(t *testing.T) {
		tx, cleanup := setupTestWithTransaction(t)
		defer cleanup()

		_, err := repo.TransitionStatus(ctx, tx, 0, model.StatusTransition{
			From: model.BookingStatusConfirmed,
			To:   model.BookingStatusCancelled,
		})
		assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
	})

	t.Run("RefundExceedsTotal", func(t *testing.T) {
		tx, cleanup := setupTestWithTransaction(t)
		defer cleanup()
		event := testutil.CreateEvent(t, testDB)
		created, err := repo.CreateActive(ctx, tx, newBooking(testutil.NextUserID(), event.ID, 1))
		require.NoError(t, err)

		_, err = repo.TransitionStatus(ctx, tx, created.ID, model.StatusTransition{
			From:         model.BookingStatusConfirmed,
			To:           model.BookingStatusCancelled,
			RefundAmount: lo.ToPtr(100.01),
		})
		assert.ErrorIs(t, err, apperrors.ErrRefundExceedsTotal)
	})

	t.Run("CancelledFreesDuplicateSlot", func(t *testing.T) {
		tx, cleanup := setupTestWithTransaction(t)
		defer cleanup()
		event := testutil.CreateEvent(t, testDB)
		userID := testutil.NextUserID()
		created, err := repo.CreateActive(ctx, tx, newBooking(userID, event.ID, 1))
		require.NoError(t, err)

		_, err = repo.TransitionStatus(ctx, tx, created.ID, model.StatusTransition{
			From: model.BookingStatusConfirmed,
			To:   model.BookingStatusCancelled,
		})
		require.NoError(t, err)

		_, err = repo.CreateActive(ctx, tx, newBooking(userID, event.ID, 1))
		assert.NoError(t, err)
	})
}

func TestBookingRepository_Find(t *testing.T) {
	testutil.RequireDB(t, testDB)
	repo := repository.NewBookingRepository(testDB)
	ctx := context.Background()

	event := testutil.CreateEvent(t, testDB)
	created := createCommitted(t, repo, newBooking(testutil.NextUserID(), event.ID, 1))

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.BookingReference, found.BookingReference)

	found, err = repo.FindByReference(ctx, created.BookingReference)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByID(ctx, 0)
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)

	_, err = repo.FindByReference(ctx, "BK0000000000")
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
}

func TestBookingRepository_List(t *testing.T) {
	testutil.RequireDB(t, testDB)
	repo := repository.NewBookingRepository(testDB)
	ctx := context.Background()

	userID := testutil.NextUserID()
	for i := 1; i <= 3; i++ {
		event := testutil.CreateEvent(t, testDB)
		createCommitted(t, repo, newBooking(userID, event.ID, i))
	}
	other := testutil.CreateEvent(t, testDB)
	createCommitted(t, repo, newBooking(testutil.NextUserID(), other.ID, 1))

	t.Run("FilterAndPaginate", func(t *testing.T) {
		bookings, total, err := repo.List(ctx, model.BookingFilter{
			UserID: &userID,
			SortBy: "total_amount",
			Order:  "asc",
			Page:   1,
			Limit:  2,
		})

		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, bookings, 2)
		assert.Equal(t, 100.0, bookings[0].TotalAmount)
		assert.Equal(t, 200.0, bookings[1].TotalAmount)

		bookings, _, err = repo.List(ctx, model.BookingFilter{
			UserID: &userID, SortBy: "total_amount", Order: "asc", Page: 2, Limit: 2,
		})
		require.NoError(t, err)
		require.Len(t, bookings, 1)
		assert.Equal(t, 300.0, bookings[0].TotalAmount)
	})

	t.Run("ByEventAndStatus", func(t *testing.T) {
		status := model.BookingStatusConfirmed
		bookings, total, err := repo.List(ctx, model.BookingFilter{EventID: &other.ID, Status: &status})

		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, bookings, 1)
	})

	t.Run("UnsupportedSort", func(t *testing.T) {
		_, _, err := repo.List(ctx, model.BookingFilter{UserID: &userID, SortBy: "user_id; DROP TABLE bookings"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

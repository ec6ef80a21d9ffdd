package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-gin-event-booking/internal/database"
	"go-gin-event-booking/internal/metrics"
	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/queue"
	"go-gin-event-booking/internal/refund"
	"go-gin-event-booking/internal/repository"
	apperrors "go-gin-event-booking/pkg/app_errors"
	"go-gin-event-booking/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	// reference 碰撞時整個交易重跑的次數上限
	maxReferenceAttempts = 3
	publishTimeout       = 3 * time.Second

	defaultUserCancelReason  = "Cancelled by user"
	defaultAdminCancelReason = "Cancelled by admin"
)

type BookingService interface {
	// 建立訂位：扣座位與寫入訂位在同一個交易
	CreateBooking(ctx context.Context, params model.CreateBookingParams) (*model.Booking, error)
	// 取消訂位：計算退款並歸還座位
	CancelBooking(ctx context.Context, params model.CancelBookingParams) (*model.CancelResult, error)
	// 管理員退款：已取消的訂位轉為已退款，不動座位
	RefundBooking(ctx context.Context, params model.RefundBookingParams) (*model.Booking, error)
	GetBooking(ctx context.Context, id int, actor model.Actor) (*model.Booking, error)
	ListBookings(ctx context.Context, actor model.Actor, filter model.BookingFilter) (*model.BookingPage, error)
}

// BookingPolicy 可由設定調整的訂位規則
type BookingPolicy struct {
	CancellationWindow   time.Duration
	DefaultRefundTier    refund.Tier
	MaxTicketsPerBooking int
}

func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		CancellationWindow:   24 * time.Hour,
		DefaultRefundTier:    refund.Moderate,
		MaxTicketsPerBooking: 10,
	}
}

type BookingServiceImpl struct {
	transactor  database.Transactor
	eventRepo   repository.EventRepository
	bookingRepo repository.BookingRepository
	events      queue.BookingEventQueue
	policy      BookingPolicy
	now         func() time.Time
	reference   ReferenceGenerator
	log         *zap.Logger
}

type BookingServiceOption func(*BookingServiceImpl)

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingServiceImpl) { s.now = now }
}

func WithReferenceGenerator(gen ReferenceGenerator) BookingServiceOption {
	return func(s *BookingServiceImpl) { s.reference = gen }
}

func NewBookingService(
	transactor database.Transactor,
	eventRepo repository.EventRepository,
	bookingRepo repository.BookingRepository,
	events queue.BookingEventQueue,
	policy BookingPolicy,
	opts ...BookingServiceOption,
) BookingService {
	if !policy.DefaultRefundTier.IsValid() {
		policy.DefaultRefundTier = refund.Moderate
	}
	s := &BookingServiceImpl{
		transactor:  transactor,
		eventRepo:   eventRepo,
		bookingRepo: bookingRepo,
		events:      events,
		policy:      policy,
		now:         time.Now,
		reference:   NewBookingReference,
		log:         logger.WithComponent("booking"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingServiceImpl) CreateBooking(ctx context.Context, params model.CreateBookingParams) (booking *model.Booking, err error) {
	defer s.observe("create", time.Now(), &err)

	if params.NumberOfTickets < 1 {
		return nil, fmt.Errorf("%w: numberOfTickets must be at least 1", apperrors.ErrInvalidInput)
	}

	for attempt := 1; ; attempt++ {
		booking, err = s.createOnce(ctx, params)
		if !errors.Is(err, apperrors.ErrDuplicateReference) {
			break
		}
		if attempt >= maxReferenceAttempts {
			return nil, fmt.Errorf("%w: could not allocate a unique booking reference", apperrors.ErrInternalServerError)
		}
		metrics.BookingRetries.WithLabelValues("create").Inc()
		s.log.Warn("booking reference collision, retrying", zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	metrics.SeatsReserved.Add(float64(booking.NumberOfTickets))
	s.log.Info("booking created",
		zap.Int("booking_id", booking.ID),
		zap.String("reference", booking.BookingReference),
		zap.Int("event_id", booking.EventID),
		zap.Int("user_id", booking.UserID),
		zap.Int("tickets", booking.NumberOfTickets),
	)
	s.publish(ctx, model.BookingEventCreated, booking)

	return booking, nil
}

func (s *BookingServiceImpl) createOnce(ctx context.Context, params model.CreateBookingParams) (*model.Booking, error) {
	var created *model.Booking

	err := s.transactor.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// 1. 鎖住活動列，同一活動的訂位在此排隊
		event, err := s.eventRepo.FindByIDWithLock(ctx, tx, params.EventID)
		if err != nil {
			if errors.Is(err, apperrors.ErrEventNotFound) {
				return apperrors.ErrEventUnavailable
			}
			return err
		}
		if !event.IsBookable(s.now()) {
			return apperrors.ErrEventUnavailable
		}

		// 2. 重複訂位 (unique index 仍是最後防線)
		exists, err := s.bookingRepo.HasActive(ctx, tx, params.UserID, params.EventID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrDuplicateActiveBooking
		}

		// 3. 座位
		if event.AvailableSeats < params.NumberOfTickets {
			return apperrors.ErrInsufficientCapacity
		}

		// 4. 單筆上限
		if params.NumberOfTickets > event.MaxBookingsPerUser ||
			(s.policy.MaxTicketsPerBooking > 0 && params.NumberOfTickets > s.policy.MaxTicketsPerBooking) {
			return apperrors.ErrBookingLimitExceeded
		}

		// 5. 有給參加者資料時人數必須一致
		if params.AttendeeInfo != nil && len(params.AttendeeInfo) != params.NumberOfTickets {
			return apperrors.ErrAttendeeMismatch
		}

		reference, err := s.reference()
		if err != nil {
			return err
		}

		// 6. 寫入訂位並扣座位，任何一步失敗整個 rollback
		created, err = s.bookingRepo.CreateActive(ctx, tx, &model.Booking{
			UserID:           params.UserID,
			EventID:          event.ID,
			NumberOfTickets:  params.NumberOfTickets,
			TotalAmount:      refund.RoundCents(event.Price * float64(params.NumberOfTickets)),
			Status:           model.BookingStatusConfirmed,
			PaymentStatus:    model.PaymentStatusPaid,
			PaymentMethod:    params.PaymentMethod,
			BookingReference: reference,
			AttendeeInfo:     params.AttendeeInfo,
			SpecialRequests:  params.SpecialRequests,
			BookingDate:      s.now().UTC(),
		})
		if err != nil {
			return err
		}

		_, err = s.eventRepo.Reserve(ctx, tx, event.ID, params.NumberOfTickets)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *BookingServiceImpl) CancelBooking(ctx context.Context, params model.CancelBookingParams) (result *model.CancelResult, err error) {
	defer s.observe("cancel", time.Now(), &err)

	// 先不加鎖讀出 event_id，交易內再依 活動 -> 訂位 的順序上鎖
	current, err := s.bookingRepo.FindByID(ctx, params.BookingID)
	if err != nil {
		return nil, err
	}
	if !params.Actor.CanAccess(current.UserID) {
		return nil, apperrors.ErrForbidden
	}

	err = s.transactor.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		event, err := s.eventRepo.FindByIDWithLock(ctx, tx, current.EventID)
		if err != nil {
			return err
		}

		booking, err := s.bookingRepo.FindByIDWithLock(ctx, tx, params.BookingID)
		if err != nil {
			return err
		}
		if booking.Status != model.BookingStatusConfirmed {
			return fmt.Errorf("%w: booking is %s", apperrors.ErrInvalidStateTransition, booking.Status)
		}

		now := s.now()
		hoursUntil := event.HoursUntil(now)
		if !params.Actor.IsAdmin() && hoursUntil < s.policy.CancellationWindow.Hours() {
			return fmt.Errorf("%w: bookings cannot be cancelled less than %s before the event",
				apperrors.ErrCancellationWindowClosed, formatWindow(s.policy.CancellationWindow))
		}

		refundAmount, err := refund.Amount(booking.TotalAmount, hoursUntil, s.refundTier(event))
		if err != nil {
			return err
		}

		paymentStatus := model.PaymentStatusPaid
		if refundAmount > 0 {
			paymentStatus = model.PaymentStatusRefunded
		}

		reason := strings.TrimSpace(params.Reason)
		if reason == "" {
			reason = defaultUserCancelReason
			if params.Actor.IsAdmin() {
				reason = defaultAdminCancelReason
			}
		}

		cancelledAt := now.UTC()
		updated, err := s.bookingRepo.TransitionStatus(ctx, tx, booking.ID, model.StatusTransition{
			From:               model.BookingStatusConfirmed,
			To:                 model.BookingStatusCancelled,
			CancellationDate:   &cancelledAt,
			CancellationReason: &reason,
			RefundAmount:       &refundAmount,
			PaymentStatus:      &paymentStatus,
		})
		if err != nil {
			return err
		}

		if _, err := s.eventRepo.Release(ctx, tx, event.ID, booking.NumberOfTickets); err != nil {
			return err
		}

		result = &model.CancelResult{
			Booking:      updated,
			RefundAmount: refundAmount,
			Message:      refund.Message(refundAmount, booking.TotalAmount),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SeatsReleased.Add(float64(result.Booking.NumberOfTickets))
	s.log.Info("booking cancelled",
		zap.Int("booking_id", result.Booking.ID),
		zap.Int("event_id", result.Booking.EventID),
		zap.Int("actor_id", params.Actor.UserID),
		zap.Float64("refund_amount", result.RefundAmount),
	)
	s.publish(ctx, model.BookingEventCancelled, result.Booking)

	return result, nil
}

func (s *BookingServiceImpl) RefundBooking(ctx context.Context, params model.RefundBookingParams) (booking *model.Booking, err error) {
	defer s.observe("refund", time.Now(), &err)

	if !params.Actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if params.RefundAmount < 0 {
		return nil, fmt.Errorf("%w: refundAmount must not be negative", apperrors.ErrInvalidInput)
	}
	amount := refund.RoundCents(params.RefundAmount)

	err = s.transactor.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.bookingRepo.FindByIDWithLock(ctx, tx, params.BookingID)
		if err != nil {
			return err
		}
		if current.Status != model.BookingStatusCancelled {
			return fmt.Errorf("%w: booking is %s", apperrors.ErrInvalidStateTransition, current.Status)
		}
		if amount > current.TotalAmount {
			return apperrors.ErrRefundExceedsTotal
		}

		paymentStatus := model.PaymentStatusPaid
		switch {
		case amount >= current.TotalAmount:
			paymentStatus = model.PaymentStatusRefunded
		case amount > 0:
			paymentStatus = model.PaymentStatusPartial
		}

		transition := model.StatusTransition{
			From:          model.BookingStatusCancelled,
			To:            model.BookingStatusRefunded,
			RefundAmount:  &amount,
			PaymentStatus: &paymentStatus,
		}
		if reason := strings.TrimSpace(params.Reason); reason != "" {
			transition.RefundReason = &reason
		}

		booking, err = s.bookingRepo.TransitionStatus(ctx, tx, current.ID, transition)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking refunded",
		zap.Int("booking_id", booking.ID),
		zap.Int("actor_id", params.Actor.UserID),
		zap.Float64("refund_amount", booking.RefundAmount),
	)
	s.publish(ctx, model.BookingEventRefunded, booking)

	return booking, nil
}

func (s *BookingServiceImpl) GetBooking(ctx context.Context, id int, actor model.Actor) (*model.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// 不讓非本人探測訂位是否存在
	if !actor.CanAccess(booking.UserID) {
		return nil, apperrors.ErrBookingNotFound
	}
	return booking, nil
}

// ListBookings 一般使用者只能看到自己的訂位
func (s *BookingServiceImpl) ListBookings(ctx context.Context, actor model.Actor, filter model.BookingFilter) (*model.BookingPage, error) {
	if !actor.IsAdmin() {
		filter.UserID = &actor.UserID
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrInvalidInput, *filter.Status)
	}

	bookings, total, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = repository.DefaultPageLimit
	}
	if limit > repository.MaxPageLimit {
		limit = repository.MaxPageLimit
	}

	return &model.BookingPage{
		Bookings: bookings,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (s *BookingServiceImpl) refundTier(event *model.Event) refund.Tier {
	if event.RefundPolicy.IsValid() {
		return event.RefundPolicy
	}
	return s.policy.DefaultRefundTier
}

// publish 在 commit 之後發送事件；失敗只記錄，不影響已完成的訂位
func (s *BookingServiceImpl) publish(ctx context.Context, eventType model.BookingEventType, booking *model.Booking) {
	if s.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := &model.BookingEvent{
		ID:               uuid.NewString(),
		Type:             eventType,
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		EventID:          booking.EventID,
		UserID:           booking.UserID,
		NumberOfTickets:  booking.NumberOfTickets,
		RefundAmount:     booking.RefundAmount,
		OccurredAt:       s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		metrics.EventsPublishFailed.WithLabelValues(string(eventType)).Inc()
		s.log.Error("failed to publish booking event",
			zap.String("type", string(eventType)),
			zap.Int("booking_id", booking.ID),
			zap.Error(err),
		)
	}
}

func (s *BookingServiceImpl) observe(operation string, start time.Time, errp *error) {
	outcome := "ok"
	if *errp != nil {
		outcome = strings.ToLower(string(apperrors.KindOf(*errp)))
	}
	metrics.BookingOperations.WithLabelValues(operation, outcome).Inc()
	metrics.BookingDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// formatWindow 24h0m0s -> "24 hours"
func formatWindow(d time.Duration) string {
	if d%time.Hour == 0 {
		if hours := int(d / time.Hour); hours != 1 {
			return fmt.Sprintf("%d hours", hours)
		}
		return "1 hour"
	}
	return d.String()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-gin-event-booking/internal/cache"
	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/refund"
	"go-gin-event-booking/internal/repository"
	apperrors "go-gin-event-booking/pkg/app_errors"
	"go-gin-event-booking/pkg/logger"

	"go.uber.org/zap"
)

// 與 bookings.number_of_tickets 的 CHECK 一致
const maxTicketsPerBookingCap = 10

type EventService interface {
	List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error)
	Get(ctx context.Context, id int) (*model.Event, error)
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error)
	// Availability 優先讀 Redis 快照，miss 時回 DB 並補寫快照
	Availability(ctx context.Context, id int) (model.EventAvailability, error)
	// RefreshAvailability 從 DB 重新產生快照
	RefreshAvailability(ctx context.Context, id int) (model.EventAvailability, error)
}

type EventServiceImpl struct {
	repo         repository.EventRepository
	availability cache.AvailabilityCache
	policy       BookingPolicy
	now          func() time.Time
	log          *zap.Logger
}

// NewEventService availability 可為 nil，此時一律讀 DB
func NewEventService(repo repository.EventRepository, availability cache.AvailabilityCache, policy BookingPolicy) EventService {
	if !policy.DefaultRefundTier.IsValid() {
		policy.DefaultRefundTier = refund.Moderate
	}
	return &EventServiceImpl{
		repo:         repo,
		availability: availability,
		policy:       policy,
		now:          time.Now,
		log:          logger.WithComponent("event"),
	}
}

func (s *EventServiceImpl) List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	return s.repo.List(ctx, filter)
}

func (s *EventServiceImpl) Get(ctx context.Context, id int) (*model.Event, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *EventServiceImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	if event.TotalSeats < 1 {
		return nil, fmt.Errorf("%w: totalSeats must be at least 1", apperrors.ErrInvalidInput)
	}
	if event.Price < 0 || event.Price > model.MaxEventPrice {
		return nil, fmt.Errorf("%w: price must be between 0 and %.2f", apperrors.ErrInvalidInput, model.MaxEventPrice)
	}
	if !event.Date.After(s.now()) {
		return nil, fmt.Errorf("%w: event date must be in the future", apperrors.ErrInvalidInput)
	}
	if event.MaxBookingsPerUser == 0 {
		event.MaxBookingsPerUser = min(s.policy.MaxTicketsPerBooking, maxTicketsPerBookingCap)
	}
	if event.MaxBookingsPerUser < 1 || event.MaxBookingsPerUser > maxTicketsPerBookingCap {
		return nil, fmt.Errorf("%w: maxBookingsPerUser must be between 1 and %d", apperrors.ErrInvalidInput, maxTicketsPerBookingCap)
	}
	if event.RefundPolicy == "" {
		event.RefundPolicy = s.policy.DefaultRefundTier
	}
	if !event.RefundPolicy.IsValid() {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, refund.ErrUnknownTier)
	}
	event.Price = refund.RoundCents(event.Price)
	event.AvailableSeats = event.TotalSeats

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return nil, err
	}

	s.log.Info("event created", zap.Int("event_id", created.ID), zap.Int("total_seats", created.TotalSeats))
	return created, nil
}

func (s *EventServiceImpl) Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error) {
	if params.RefundPolicy != nil && !params.RefundPolicy.IsValid() {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, refund.ErrUnknownTier)
	}
	if params.Price != nil {
		if *params.Price < 0 || *params.Price > model.MaxEventPrice {
			return nil, fmt.Errorf("%w: price must be between 0 and %.2f", apperrors.ErrInvalidInput, model.MaxEventPrice)
		}
		rounded := refund.RoundCents(*params.Price)
		params.Price = &rounded
	}

	event, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}

	// 座位數不會因為更新而改變，但 is_active 等欄位可能讓快照過時
	if s.availability != nil {
		if err := s.availability.Invalidate(ctx, id); err != nil {
			s.log.Warn("invalidate availability failed", zap.Int("event_id", id), zap.Error(err))
		}
	}
	return event, nil
}

func (s *EventServiceImpl) Availability(ctx context.Context, id int) (model.EventAvailability, error) {
	if s.availability != nil {
		snapshot, err := s.availability.Get(ctx, id)
		if err == nil {
			return snapshot, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("read availability snapshot failed", zap.Int("event_id", id), zap.Error(err))
		}
	}
	return s.RefreshAvailability(ctx, id)
}

func (s *EventServiceImpl) RefreshAvailability(ctx context.Context, id int) (model.EventAvailability, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return model.EventAvailability{}, err
	}

	snapshot := event.Availability()
	if s.availability != nil {
		if err := s.availability.Store(ctx, snapshot); err != nil {
			s.log.Warn("store availability snapshot failed", zap.Int("event_id", id), zap.Error(err))
		}
	}
	return snapshot, nil
}

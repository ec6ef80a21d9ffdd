package worker

import (
	"context"

	"go-gin-event-booking/internal/metrics"
	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/queue"
	"go-gin-event-booking/internal/service"
	apperrors "go-gin-event-booking/pkg/app_errors"
	"go-gin-event-booking/pkg/logger"

	"go.uber.org/zap"
)

type BookingWorker interface {
	// 訂閱訂位事件隊列，阻塞直到 ctx 結束
	Run(ctx context.Context) error
}

// BookingWorkerImpl 把訂位事件轉成可用座位快照的更新
type BookingWorkerImpl struct {
	events service.EventService
	queue  queue.BookingEventQueue
	log    *zap.Logger
}

func NewBookingWorker(events service.EventService, queue queue.BookingEventQueue) BookingWorker {
	return &BookingWorkerImpl{
		events: events,
		queue:  queue,
		log:    logger.WithComponent("booking-worker"),
	}
}

func (w *BookingWorkerImpl) Run(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	w.log.Info("booking worker started")
	for msg := range msgs {
		w.handle(ctx, msg)
	}
	w.log.Info("booking worker stopped")
	return nil
}

func (w *BookingWorkerImpl) handle(ctx context.Context, msg queue.Delivery) {
	event := msg.Data
	if event == nil {
		msg.Ack()
		return
	}

	_, err := w.events.RefreshAvailability(ctx, event.EventID)
	switch {
	case err == nil:
		metrics.EventsProcessed.WithLabelValues(string(event.Type), "ok").Inc()
		msg.Ack()
	case apperrors.IsRetryable(err) && ctx.Err() == nil:
		// 資料庫暫時連不上，交回隊列重試
		metrics.EventsProcessed.WithLabelValues(string(event.Type), "retry").Inc()
		w.log.Warn("refresh availability failed, requeue", eventFields(event, err)...)
		msg.Nack(true)
	default:
		metrics.EventsProcessed.WithLabelValues(string(event.Type), "dropped").Inc()
		w.log.Error("refresh availability failed, drop", eventFields(event, err)...)
		msg.Nack(false)
	}
}

func eventFields(event *model.BookingEvent, err error) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int("booking_id", event.BookingID),
		zap.Int("target_event_id", event.EventID),
		zap.Error(err),
	}
}

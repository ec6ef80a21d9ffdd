package queue

import (
	"context"

	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/pkg/logger"

	"go.uber.org/zap"
)

type Delivery struct {
	Data *model.BookingEvent
	Ack  func()
	Nack func(requeue bool)
}

// BookingEventQueue 訂位事件的發佈與訂閱；交易 commit 後才發佈
type BookingEventQueue interface {
	// 發送事件到隊列
	Publish(ctx context.Context, event *model.BookingEvent) error
	// 訂閱事件隊列
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}

const defaultMaxAttempts = 5

type memoryMessage struct {
	event    *model.BookingEvent
	attempts int
}

type MemoryQueue struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch          chan memoryMessage
	maxAttempts int
}

func NewMemoryQueue(bufferSize int) BookingEventQueue {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &MemoryQueue{
		ch:          make(chan memoryMessage, bufferSize),
		maxAttempts: defaultMaxAttempts,
	}
}

func (q *MemoryQueue) Publish(ctx context.Context, event *model.BookingEvent) error {
	select {
	case q.ch <- memoryMessage{event: event}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-q.ch:
				select {
				case out <- q.newDelivery(msg):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (q *MemoryQueue) newDelivery(msg memoryMessage) Delivery {
	return Delivery{
		Data: msg.event,
		Ack:  func() { /* 記憶體版不用做特別動作 */ },
		Nack: func(requeue bool) {
			if !requeue {
				return
			}
			msg.attempts++
			if msg.attempts >= q.maxAttempts {
				logger.WithComponent("mq").Warn("discard poison message",
					zap.String("event_id", msg.event.ID), zap.Int("attempts", msg.attempts))
				return
			}
			// 不阻塞 consumer：隊列滿時直接丟棄
			select {
			case q.ch <- msg:
			default:
				logger.WithComponent("mq").Warn("requeue dropped, queue full", zap.String("event_id", msg.event.ID))
			}
		},
	}
}

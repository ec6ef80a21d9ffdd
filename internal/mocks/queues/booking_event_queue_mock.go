package queues

import (
	"context"

	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/queue"

	"github.com/stretchr/testify/mock"
)

type BookingEventQueueMock struct {
	mock.Mock
}

func NewBookingEventQueueMock() *BookingEventQueueMock {
	return &BookingEventQueueMock{}
}

func (m *BookingEventQueueMock) Publish(ctx context.Context, event *model.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *BookingEventQueueMock) Subscribe(ctx context.Context) (<-chan queue.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan queue.Delivery), args.Error(1)
}

package caches

import (
	"context"

	"go-gin-event-booking/internal/model"

	"github.com/stretchr/testify/mock"
)

type AvailabilityCacheMock struct {
	mock.Mock
}

func NewAvailabilityCacheMock() *AvailabilityCacheMock {
	return &AvailabilityCacheMock{}
}

func (m *AvailabilityCacheMock) Store(ctx context.Context, availability model.EventAvailability) error {
	args := m.Called(ctx, availability)
	return args.Error(0)
}

func (m *AvailabilityCacheMock) Get(ctx context.Context, eventID int) (model.EventAvailability, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(model.EventAvailability), args.Error(1)
}

func (m *AvailabilityCacheMock) Invalidate(ctx context.Context, eventID int) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

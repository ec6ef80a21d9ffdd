package handler_test

import (
	"net/http"
	"testing"
	"time"

	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/refund"
	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func sampleEvent(id int) *model.Event {
	return &model.Event{
		ID:                 id,
		Name:               "Go Conf",
		Venue:              "Hall A",
		Date:               time.Now().Add(72 * time.Hour).UTC(),
		Price:              50,
		TotalSeats:         10,
		AvailableSeats:     7,
		MaxBookingsPerUser: 10,
		RefundPolicy:       refund.Moderate,
		IsActive:           true,
	}
}

func TestListEvents(t *testing.T) {
	t.Run("Public with derived fields", func(t *testing.T) {
		s := setupTestRouter(t)
		s.events.On("List", mock.Anything, model.EventFilter{}).Return([]*model.Event{sampleEvent(1), sampleEvent(2)}, nil).Once()

		w := s.do(t, http.MethodGet, "/api/v1/events", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var got []struct {
			ID               int     `json:"id"`
			AvailableSeats   int     `json:"availableSeats"`
			SoldSeats        int     `json:"soldSeats"`
			OccupancyPercent float64 `json:"occupancyPercent"`
		}
		decode(t, w, &got)
		if assert.Len(t, got, 2) {
			assert.Equal(t, 1, got[0].ID)
			assert.Equal(t, 7, got[0].AvailableSeats)
			assert.Equal(t, 3, got[0].SoldSeats)
			assert.Equal(t, 30.0, got[0].OccupancyPercent)
		}
		s.events.AssertExpectations(t)
	})

	t.Run("Date window", func(t *testing.T) {
		s := setupTestRouter(t)
		to := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
		s.events.On("List", mock.Anything, mock.MatchedBy(func(f model.EventFilter) bool {
			return f.From == nil && f.To != nil && f.To.Equal(to) && !f.IncludeInactive
		})).Return([]*model.Event{}, nil).Once()

		w := s.do(t, http.MethodGet, "/api/v1/events?to=2026-12-31T00:00:00Z", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
		s.events.AssertExpectations(t)
	})
}

func TestGetEvent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := setupTestRouter(t)
		s.events.On("Get", mock.Anything, 1).Return(sampleEvent(1), nil).Once()

		w := s.do(t, http.MethodGet, "/api/v1/events/1", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		s.events.AssertExpectations(t)
	})

	t.Run("Failed - not found", func(t *testing.T) {
		s := setupTestRouter(t)
		s.events.On("Get", mock.Anything, 99).Return(nil, apperrors.ErrEventNotFound).Once()

		w := s.do(t, http.MethodGet, "/api/v1/events/99", nil, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decodeError(t, w).Error.Code)
	})

	t.Run("Failed - invalid id", func(t *testing.T) {
		s := setupTestRouter(t)

		w := s.do(t, http.MethodGet, "/api/v1/events/0", nil, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		s.events.AssertNotCalled(t, "Get")
	})
}

func TestEventAvailability(t *testing.T) {
	s := setupTestRouter(t)
	s.events.On("Availability", mock.Anything, 1).Return(model.EventAvailability{
		EventID: 1, TotalSeats: 10, AvailableSeats: 7, SoldSeats: 3, OccupancyPercent: 30,
	}, nil).Once()

	w := s.do(t, http.MethodGet, "/api/v1/events/1/availability", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var got model.EventAvailability
	decode(t, w, &got)
	assert.Equal(t, 7, got.AvailableSeats)
	s.events.AssertExpectations(t)
}

func TestCreateEvent(t *testing.T) {
	request := model.CreateEventRequest{
		Name:         "Go Conf",
		Date:         time.Now().Add(72 * time.Hour).UTC(),
		Price:        50,
		TotalSeats:   10,
		RefundPolicy: refund.Strict,
	}

	t.Run("Success", func(t *testing.T) {
		s := setupTestRouter(t)
		s.events.On("Create", mock.Anything, mock.MatchedBy(func(e *model.Event) bool {
			return e.Name == "Go Conf" && e.TotalSeats == 10 && e.AvailableSeats == 10 && e.IsActive && e.RefundPolicy == refund.Strict
		})).Return(sampleEvent(1), nil).Once()

		w := s.do(t, http.MethodPost, "/api/v1/events", &admin, request)

		assert.Equal(t, http.StatusCreated, w.Code)
		s.events.AssertExpectations(t)
	})

	t.Run("Failed - not admin", func(t *testing.T) {
		s := setupTestRouter(t)

		w := s.do(t, http.MethodPost, "/api/v1/events", &user, request)

		assert.Equal(t, http.StatusForbidden, w.Code)
		s.events.AssertNotCalled(t, "Create")
	})

	t.Run("Failed - no seats", func(t *testing.T) {
		s := setupTestRouter(t)

		w := s.do(t, http.MethodPost, "/api/v1/events", &admin, `{"name":"x","date":"2030-01-01T00:00:00Z","totalSeats":0}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		s.events.AssertNotCalled(t, "Create")
	})

	t.Run("Failed - unknown refund policy", func(t *testing.T) {
		s := setupTestRouter(t)

		w := s.do(t, http.MethodPost, "/api/v1/events", &admin, `{"name":"x","date":"2030-01-01T00:00:00Z","totalSeats":5,"refundPolicy":"generous"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		s.events.AssertNotCalled(t, "Create")
	})

	t.Run("Failed - price above cap", func(t *testing.T) {
		s := setupTestRouter(t)

		w := s.do(t, http.MethodPost, "/api/v1/events", &admin, `{"name":"x","date":"2030-01-01T00:00:00Z","totalSeats":5,"price":10000000}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		s.events.AssertNotCalled(t, "Create")
	})

	t.Run("Failed - service validation", func(t *testing.T) {
		s := setupTestRouter(t)
		s.events.On("Create", mock.Anything, mock.Anything).Return(nil, apperrors.ErrInvalidInput).Once()

		w := s.do(t, http.MethodPost, "/api/v1/events", &admin, request)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", decodeError(t, w).Error.Code)
	})
}

func TestUpdateEvent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := setupTestRouter(t)
		s.events.On("Update", mock.Anything, 1, mock.MatchedBy(func(p model.UpdateEventParams) bool {
			return p.IsActive != nil && !*p.IsActive && p.Name == nil
		})).Return(sampleEvent(1), nil).Once()

		w := s.do(t, http.MethodPatch, "/api/v1/events/1", &admin, `{"isActive":false}`)

		assert.Equal(t, http.StatusOK, w.Code)
		s.events.AssertExpectations(t)
	})

	t.Run("Failed - not found", func(t *testing.T) {
		s := setupTestRouter(t)
		s.events.On("Update", mock.Anything, 99, mock.Anything).Return(nil, apperrors.ErrEventNotFound).Once()

		w := s.do(t, http.MethodPut, "/api/v1/events/99", &admin, `{"name":"renamed"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

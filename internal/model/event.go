package model

import (
	"math"
	"time"

	"go-gin-event-booking/internal/refund"
)

// Event 活動，同時持有座位庫存 (ledger)
type Event struct {
	ID                 int         `json:"id" db:"id"`
	Name               string      `json:"name" db:"name"`
	Description        *string     `json:"description,omitempty" db:"description"`
	Venue              string      `json:"venue" db:"venue"`
	Date               time.Time   `json:"date" db:"event_date"`
	Price              float64     `json:"price" db:"price"`
	TotalSeats         int         `json:"totalSeats" db:"total_seats"`
	AvailableSeats     int         `json:"availableSeats" db:"available_seats"`
	MaxBookingsPerUser int         `json:"maxBookingsPerUser" db:"max_bookings_per_user"`
	RefundPolicy       refund.Tier `json:"refundPolicy" db:"refund_policy"`
	IsActive           bool        `json:"isActive" db:"is_active"`
	CreatedAt          time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time   `json:"updatedAt" db:"updated_at"`
}

func (e *Event) SoldSeats() int {
	return e.TotalSeats - e.AvailableSeats
}

func (e *Event) OccupancyPercent() float64 {
	if e.TotalSeats == 0 {
		return 0
	}
	return math.Round(float64(e.SoldSeats())/float64(e.TotalSeats)*10000) / 100
}

// IsBookable 活動啟用中且尚未開始
func (e *Event) IsBookable(now time.Time) bool {
	return e.IsActive && e.Date.After(now)
}

func (e *Event) HoursUntil(now time.Time) float64 {
	return e.Date.Sub(now).Hours()
}

func (e *Event) Availability() EventAvailability {
	return EventAvailability{
		EventID:          e.ID,
		TotalSeats:       e.TotalSeats,
		AvailableSeats:   e.AvailableSeats,
		SoldSeats:        e.SoldSeats(),
		OccupancyPercent: e.OccupancyPercent(),
		UpdatedAt:        e.UpdatedAt,
	}
}

type UpdateEventParams struct {
	Name               *string
	Description        *string
	Venue              *string
	Date               *time.Time
	Price              *float64
	MaxBookingsPerUser *int
	RefundPolicy       *refund.Tier
	IsActive           *bool
}

type EventFilter struct {
	IncludeInactive bool
	From            *time.Time
	To              *time.Time
}

// EventAvailability 座位剩餘狀況快照，只用於顯示
type EventAvailability struct {
	EventID          int       `json:"eventId"`
	TotalSeats       int       `json:"totalSeats"`
	AvailableSeats   int       `json:"availableSeats"`
	SoldSeats        int       `json:"soldSeats"`
	OccupancyPercent float64   `json:"occupancyPercent"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// MaxEventPrice 單張票價上限：最多 10 張的總額要放得進 NUMERIC(10,2)
const MaxEventPrice = 9_999_999.99

// CreateEventRequest 建立活動請求，座位數只在建立時指定
type CreateEventRequest struct {
	Name               string      `json:"name" binding:"required,max=200"`
	Description        *string     `json:"description" binding:"omitempty,max=2000"`
	Venue              string      `json:"venue" binding:"max=200"`
	Date               time.Time   `json:"date" binding:"required"`
	Price              float64     `json:"price" binding:"min=0,max=9999999.99"`
	TotalSeats         int         `json:"totalSeats" binding:"required,min=1"`
	MaxBookingsPerUser int         `json:"maxBookingsPerUser" binding:"omitempty,min=1,max=10"`
	RefundPolicy       refund.Tier `json:"refundPolicy" binding:"omitempty,oneof=flexible moderate strict no_refund"`
}

func (r CreateEventRequest) ToEvent() *Event {
	return &Event{
		Name:               r.Name,
		Description:        r.Description,
		Venue:              r.Venue,
		Date:               r.Date,
		Price:              r.Price,
		TotalSeats:         r.TotalSeats,
		AvailableSeats:     r.TotalSeats,
		MaxBookingsPerUser: r.MaxBookingsPerUser,
		RefundPolicy:       r.RefundPolicy,
		IsActive:           true,
	}
}

type UpdateEventRequest struct {
	Name               *string      `json:"name" binding:"omitempty,max=200"`
	Description        *string      `json:"description" binding:"omitempty,max=2000"`
	Venue              *string      `json:"venue" binding:"omitempty,max=200"`
	Date               *time.Time   `json:"date"`
	Price              *float64     `json:"price" binding:"omitempty,min=0,max=9999999.99"`
	MaxBookingsPerUser *int         `json:"maxBookingsPerUser" binding:"omitempty,min=1,max=10"`
	RefundPolicy       *refund.Tier `json:"refundPolicy" binding:"omitempty,oneof=flexible moderate strict no_refund"`
	IsActive           *bool        `json:"isActive"`
}

func (r UpdateEventRequest) ToParams() UpdateEventParams {
	return UpdateEventParams{
		Name:               r.Name,
		Description:        r.Description,
		Venue:              r.Venue,
		Date:               r.Date,
		Price:              r.Price,
		MaxBookingsPerUser: r.MaxBookingsPerUser,
		RefundPolicy:       r.RefundPolicy,
		IsActive:           r.IsActive,
	}
}

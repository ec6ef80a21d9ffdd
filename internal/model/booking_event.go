package model

import "time"

type BookingEventType string

const (
	BookingEventCreated   BookingEventType = "booking.created"
	BookingEventCancelled BookingEventType = "booking.cancelled"
	BookingEventRefunded  BookingEventType = "booking.refunded"
)

// BookingEvent 交易 commit 後發出的事件
type BookingEvent struct {
	ID               string           `json:"id"`
	Type             BookingEventType `json:"type"`
	BookingID        int              `json:"bookingId"`
	BookingReference string           `json:"bookingReference"`
	EventID          int              `json:"eventId"`
	UserID           int              `json:"userId"`
	NumberOfTickets  int              `json:"numberOfTickets"`
	RefundAmount     float64          `json:"refundAmount,omitempty"`
	OccurredAt       time.Time        `json:"occurredAt"`
}

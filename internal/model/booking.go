package model

import "time"

// BookingStatus 訂位狀態類型
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusRefunded  BookingStatus = "refunded"
)

// IsValid 驗證狀態是否有效
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusRefunded:
		return true
	}
	return false
}

// IsActive pending 與 confirmed 會佔用座位，也受重複訂位限制
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
		BookingStatusConfirmed: {BookingStatusCancelled},
		BookingStatusCancelled: {BookingStatusRefunded},
		BookingStatusRefunded:  {}, // 不能轉換到任何狀態
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusPartial  PaymentStatus = "partial"
)

type Attendee struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email,omitempty" binding:"omitempty,email"`
	Age   *int   `json:"age,omitempty" binding:"omitempty,min=0,max=150"`
}

// Booking 訂位模型
type Booking struct {
	ID                 int           `json:"id" db:"id"`
	UserID             int           `json:"userId" db:"user_id"`
	EventID            int           `json:"eventId" db:"event_id"`
	NumberOfTickets    int           `json:"numberOfTickets" db:"number_of_tickets"`
	TotalAmount        float64       `json:"totalAmount" db:"total_amount"`
	Status             BookingStatus `json:"status" db:"status"`
	PaymentStatus      PaymentStatus `json:"paymentStatus" db:"payment_status"`
	PaymentMethod      *string       `json:"paymentMethod,omitempty" db:"payment_method"`
	BookingReference   string        `json:"bookingReference" db:"booking_reference"`
	AttendeeInfo       []Attendee    `json:"attendeeInfo,omitempty" db:"attendee_info"`
	SpecialRequests    *string       `json:"specialRequests,omitempty" db:"special_requests"`
	CancellationDate   *time.Time    `json:"cancellationDate,omitempty" db:"cancellation_date"`
	CancellationReason *string       `json:"cancellationReason,omitempty" db:"cancellation_reason"`
	RefundAmount       float64       `json:"refundAmount" db:"refund_amount"`
	RefundReason       *string       `json:"refundReason,omitempty" db:"refund_reason"`
	BookingDate        time.Time     `json:"bookingDate" db:"booking_date"`
	CreatedAt          time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time     `json:"updatedAt" db:"updated_at"`
}

func (b *Booking) IsActive() bool {
	return b.Status.IsActive()
}

// RefundPercent 已退款金額佔總額的百分比
func (b *Booking) RefundPercent() float64 {
	if b.TotalAmount <= 0 {
		return 0
	}
	return b.RefundAmount / b.TotalAmount * 100
}

// StatusTransition 狀態轉換與要一起寫入的欄位，From 用來做樂觀檢查
type StatusTransition struct {
	From               BookingStatus
	To                 BookingStatus
	CancellationDate   *time.Time
	CancellationReason *string
	RefundAmount       *float64
	RefundReason       *string
	PaymentStatus      *PaymentStatus
}

// CreateBookingRequest 建立訂位請求
type CreateBookingRequest struct {
	EventID         int        `json:"eventId" binding:"required,min=1"`
	NumberOfTickets int        `json:"numberOfTickets" binding:"required,min=1,max=10"`
	AttendeeInfo    []Attendee `json:"attendeeInfo" binding:"omitempty,dive"`
	SpecialRequests *string    `json:"specialRequests" binding:"omitempty,max=500"`
	PaymentMethod   *string    `json:"paymentMethod" binding:"omitempty,oneof=credit_card debit_card paypal bank_transfer"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type RefundBookingRequest struct {
	RefundAmount *float64 `json:"refundAmount" binding:"required,min=0"`
	Reason       string   `json:"reason" binding:"max=500"`
}

type CreateBookingParams struct {
	UserID          int
	EventID         int
	NumberOfTickets int
	AttendeeInfo    []Attendee
	SpecialRequests *string
	PaymentMethod   *string
}

type CancelBookingParams struct {
	BookingID int
	Actor     Actor
	Reason    string
}

type RefundBookingParams struct {
	BookingID    int
	Actor        Actor
	RefundAmount float64
	Reason       string
}

// CancelResult 取消結果
type CancelResult struct {
	Booking      *Booking `json:"booking"`
	RefundAmount float64  `json:"refundAmount"`
	Message      string   `json:"message"`
}

type BookingFilter struct {
	UserID  *int
	EventID *int
	Status  *BookingStatus
	From    *time.Time
	To      *time.Time
	SortBy  string // booking_date, total_amount, number_of_tickets
	Order   string // asc, desc
	Page    int
	Limit   int
}

type BookingPage struct {
	Bookings []*Booking `json:"bookings"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}

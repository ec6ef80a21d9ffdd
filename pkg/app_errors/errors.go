package apperrors

import (
	"errors"
	"fmt"
)

// Kind 錯誤分類代碼，回傳給呼叫端用來區分失敗原因
type Kind string

const (
	KindEventUnavailable         Kind = "EVENT_UNAVAILABLE"
	KindDuplicateActiveBooking   Kind = "DUPLICATE_ACTIVE_BOOKING"
	KindInsufficientCapacity     Kind = "INSUFFICIENT_CAPACITY"
	KindBookingLimitExceeded     Kind = "BOOKING_LIMIT_EXCEEDED"
	KindAttendeeMismatch         Kind = "ATTENDEE_MISMATCH"
	KindInvalidStateTransition   Kind = "INVALID_STATE_TRANSITION"
	KindCancellationWindowClosed Kind = "CANCELLATION_WINDOW_CLOSED"
	KindRefundExceedsTotal       Kind = "REFUND_EXCEEDS_TOTAL"
	KindNotFound                 Kind = "NOT_FOUND"
	KindStorageUnavailable       Kind = "STORAGE_UNAVAILABLE"
	KindForbidden                Kind = "FORBIDDEN"
	KindUnauthorized             Kind = "UNAUTHORIZED"
	KindInvalidInput             Kind = "INVALID_INPUT"
	KindInternal                 Kind = "INTERNAL"
)

var (
	ErrEventUnavailable         = errors.New("event is not available for booking")
	ErrDuplicateActiveBooking   = errors.New("an active booking already exists for this event")
	ErrInsufficientCapacity     = errors.New("not enough seats available")
	ErrBookingLimitExceeded     = errors.New("number of tickets exceeds the per-user limit")
	ErrAttendeeMismatch         = errors.New("attendee count must match number of tickets")
	ErrInvalidStateTransition   = errors.New("booking is not in a state that allows this operation")
	ErrCancellationWindowClosed = errors.New("the cancellation window for this event has closed")
	ErrRefundExceedsTotal       = errors.New("refund amount exceeds booking total")
	ErrStorageUnavailable       = errors.New("storage unavailable")

	ErrEventNotFound   = errors.New("event not found")
	ErrBookingNotFound = errors.New("booking not found")

	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternalServerError = errors.New("internal server error")

	// 以下兩個不會直接回傳給使用者
	ErrDuplicateReference = errors.New("booking reference collision")
	ErrSeatOverflow       = errors.New("release would exceed total seats")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrEventUnavailable, KindEventUnavailable},
	{ErrDuplicateActiveBooking, KindDuplicateActiveBooking},
	{ErrInsufficientCapacity, KindInsufficientCapacity},
	{ErrBookingLimitExceeded, KindBookingLimitExceeded},
	{ErrAttendeeMismatch, KindAttendeeMismatch},
	{ErrInvalidStateTransition, KindInvalidStateTransition},
	{ErrCancellationWindowClosed, KindCancellationWindowClosed},
	{ErrRefundExceedsTotal, KindRefundExceedsTotal},
	{ErrStorageUnavailable, KindStorageUnavailable},
	{ErrEventNotFound, KindNotFound},
	{ErrBookingNotFound, KindNotFound},
	{ErrForbidden, KindForbidden},
	{ErrUnauthorized, KindUnauthorized},
	{ErrInvalidInput, KindInvalidInput},
}

// KindOf 回傳錯誤所屬的分類，無法辨識時回傳 KindInternal
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsRetryable 只有儲存層暫時不可用時，呼叫端才可以安全重試
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// Unavailable 將底層錯誤包裝成 ErrStorageUnavailable，保留原始錯誤鏈
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

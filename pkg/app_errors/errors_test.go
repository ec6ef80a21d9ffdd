package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want apperrors.Kind
	}{
		{nil, ""},
		{apperrors.ErrEventUnavailable, apperrors.KindEventUnavailable},
		{fmt.Errorf("create: %w", apperrors.ErrDuplicateActiveBooking), apperrors.KindDuplicateActiveBooking},
		{apperrors.ErrInsufficientCapacity, apperrors.KindInsufficientCapacity},
		{apperrors.ErrBookingLimitExceeded, apperrors.KindBookingLimitExceeded},
		{apperrors.ErrAttendeeMismatch, apperrors.KindAttendeeMismatch},
		{fmt.Errorf("%w: booking is cancelled", apperrors.ErrInvalidStateTransition), apperrors.KindInvalidStateTransition},
		{apperrors.ErrCancellationWindowClosed, apperrors.KindCancellationWindowClosed},
		{apperrors.ErrRefundExceedsTotal, apperrors.KindRefundExceedsTotal},
		{apperrors.ErrEventNotFound, apperrors.KindNotFound},
		{apperrors.ErrBookingNotFound, apperrors.KindNotFound},
		{apperrors.ErrForbidden, apperrors.KindForbidden},
		{apperrors.ErrUnauthorized, apperrors.KindUnauthorized},
		{apperrors.ErrInvalidInput, apperrors.KindInvalidInput},
		{apperrors.Unavailable("find event", errors.New("conn reset")), apperrors.KindStorageUnavailable},
		{apperrors.ErrDuplicateReference, apperrors.KindInternal},
		{errors.New("boom"), apperrors.KindInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, apperrors.KindOf(tt.err), "%v", tt.err)
	}
}

func TestIsRetryable(t *testing.T) {
	cause := errors.New("conn reset")
	err := apperrors.Unavailable("find event", cause)

	assert.True(t, apperrors.IsRetryable(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "find event: storage unavailable: conn reset", err.Error())

	assert.False(t, apperrors.IsRetryable(apperrors.ErrInsufficientCapacity))
	assert.False(t, apperrors.IsRetryable(nil))
}

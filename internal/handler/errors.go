package handler

import (
	"net/http"

	apperrors "go-gin-event-booking/pkg/app_errors"
	"go-gin-event-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindEventUnavailable:         http.StatusNotFound,
	apperrors.KindNotFound:                 http.StatusNotFound,
	apperrors.KindDuplicateActiveBooking:   http.StatusConflict,
	apperrors.KindInsufficientCapacity:     http.StatusBadRequest,
	apperrors.KindBookingLimitExceeded:     http.StatusBadRequest,
	apperrors.KindAttendeeMismatch:         http.StatusBadRequest,
	apperrors.KindInvalidStateTransition:   http.StatusBadRequest,
	apperrors.KindCancellationWindowClosed: http.StatusBadRequest,
	apperrors.KindRefundExceedsTotal:       http.StatusBadRequest,
	apperrors.KindInvalidInput:             http.StatusBadRequest,
	apperrors.KindForbidden:                http.StatusForbidden,
	apperrors.KindUnauthorized:             http.StatusUnauthorized,
	apperrors.KindStorageUnavailable:       http.StatusServiceUnavailable,
}

func statusFor(kind apperrors.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func handleError(c *gin.Context, err error, operation string) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)
	log := logger.WithComponent("handler").With(
		zap.String("operation", operation),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)

	switch status {
	case http.StatusServiceUnavailable:
		log.Error("Storage unavailable")
		c.Header("Retry-After", "1")
		writeError(c, status, kind, "Service temporarily unavailable", err)
	case http.StatusInternalServerError:
		log.Error("Unexpected error")
		writeError(c, status, kind, "Internal server error", err)
	default:
		log.Warn("Request rejected")
		writeError(c, status, kind, err.Error(), nil)
	}
}

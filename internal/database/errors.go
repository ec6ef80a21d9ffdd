package database

import (
	"context"
	"errors"
	"fmt"
	"net"

	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeNumericOutOfRange    = "22003"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeTooManyConnections   = "53300"
	codeAdminShutdown        = "57P01"
	codeCrashShutdown        = "57P02"
	codeCannotConnectNow     = "57P03"
)

// IsUnavailable 連線中斷、逾時、死結等重試可能成功的錯誤
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeTooManyConnections,
			codeAdminShutdown, codeCrashShutdown, codeCannotConnectNow:
			return true
		}
		// class 08: connection exception
		return len(pgErr.Code) == 5 && pgErr.Code[:2] == "08"
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsConstraintViolation 判斷是否違反指定名稱的 unique / check 約束
func IsConstraintViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != codeUniqueViolation && pgErr.Code != codeCheckViolation {
		return false
	}
	return pgErr.ConstraintName == constraint
}

// WrapError 加上操作名稱，可重試的錯誤統一包成 ErrStorageUnavailable
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsUnavailable(err) {
		return apperrors.Unavailable(op, err)
	}
	// 金額超出 NUMERIC 欄位範圍是輸入問題，不是內部錯誤
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeNumericOutOfRange {
		return fmt.Errorf("%s: %w: %w", op, apperrors.ErrInvalidInput, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

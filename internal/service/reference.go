package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"sync/atomic"
	"time"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	referencePattern = regexp.MustCompile(`^BK[A-Z0-9]{8,12}$`)
	lastReferenceMs  atomic.Int64
)

// ReferenceGenerator 產生訂位編號，測試時可替換
type ReferenceGenerator func() (string, error)

// NewBookingReference BK + 毫秒時間戳末 6 碼 + 4 碼隨機字元
// 同一毫秒內的呼叫會借用下一毫秒，確保時間部分在程序內遞增
func NewBookingReference() (string, error) {
	ms := nextReferenceMillis(time.Now().UnixMilli())

	suffix := make([]byte, 4)
	alphabetLen := big.NewInt(int64(len(referenceAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("generate booking reference: %w", err)
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}

	return fmt.Sprintf("BK%06d%s", ms%1_000_000, suffix), nil
}

func nextReferenceMillis(now int64) int64 {
	for {
		last := lastReferenceMs.Load()
		next := now
		if next <= last {
			next = last + 1
		}
		if lastReferenceMs.CompareAndSwap(last, next) {
			return next
		}
	}
}

func ValidBookingReference(reference string) bool {
	return referencePattern.MatchString(reference)
}

package refund

import (
	"errors"
	"fmt"
	"math"
)

// Tier 退款方案
type Tier string

const (
	Flexible Tier = "flexible"
	Moderate Tier = "moderate"
	Strict   Tier = "strict"
	NoRefund Tier = "no_refund"
)

const partialFraction = 0.5

var ErrUnknownTier = errors.New("unknown refund policy tier")

// threshold 距離活動開始的小時數門檻：>= full 全額退款，>= partial 退一半
type threshold struct {
	full    float64
	partial float64
}

var schedules = map[Tier]*threshold{
	Flexible: {full: 24, partial: 2},
	Moderate: {full: 48, partial: 24},
	Strict:   {full: 168, partial: 72},
	NoRefund: nil,
}

func (t Tier) IsValid() bool {
	_, ok := schedules[t]
	return ok
}

func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

// Fraction 回傳可退款比例 (0, 0.5, 1)
func Fraction(hoursUntilEvent float64, tier Tier) (float64, error) {
	schedule, ok := schedules[tier]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	if schedule == nil || hoursUntilEvent < 0 {
		return 0, nil
	}
	switch {
	case hoursUntilEvent >= schedule.full:
		return 1, nil
	case hoursUntilEvent >= schedule.partial:
		return partialFraction, nil
	default:
		return 0, nil
	}
}

// Amount 依方案計算退款金額，結果四捨五入到分
func Amount(totalAmount, hoursUntilEvent float64, tier Tier) (float64, error) {
	fraction, err := Fraction(hoursUntilEvent, tier)
	if err != nil {
		return 0, err
	}
	return RoundCents(totalAmount * fraction), nil
}

func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// Message 給使用者看的退款說明
func Message(refundAmount, totalAmount float64) string {
	switch {
	case refundAmount <= 0:
		return "Booking cancelled. No refund is applicable at this time."
	case refundAmount >= totalAmount:
		return fmt.Sprintf("Booking cancelled. A full refund of %.2f will be processed.", refundAmount)
	default:
		return fmt.Sprintf("Booking cancelled. A partial refund of %.2f (%.0f%%) will be processed.",
			refundAmount, refundAmount/totalAmount*100)
	}
}

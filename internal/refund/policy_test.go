package refund

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		hours float64
		tier  Tier
		want  float64
	}{
		{"moderate full", 100, 50, Moderate, 100},
		{"moderate partial", 100, 30, Moderate, 50},
		{"moderate none", 100, 10, Moderate, 0},
		{"moderate full boundary", 100, 48, Moderate, 100},
		{"moderate partial boundary", 100, 24, Moderate, 50},
		{"strict full", 100, 200, Strict, 100},
		{"strict partial", 100, 80, Strict, 50},
		{"strict none", 100, 71.9, Strict, 0},
		{"flexible full", 100, 24, Flexible, 100},
		{"flexible partial", 100, 2, Flexible, 50},
		{"flexible none", 100, 1.5, Flexible, 0},
		{"no refund", 100, 1000, NoRefund, 0},
		{"event already past", 100, -5, Flexible, 0},
		{"keeps cents", 33.34, 30, Moderate, 16.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Amount(tt.total, tt.hours, tt.tier)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmount_UnknownTier(t *testing.T) {
	_, err := Amount(100, 50, Tier("generous"))
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("strict")
	require.NoError(t, err)
	assert.Equal(t, Strict, tier)

	_, err = ParseTier("")
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestMessage(t *testing.T) {
	assert.Contains(t, Message(0, 100), "No refund")
	assert.Contains(t, Message(100, 100), "full refund of 100.00")
	assert.Contains(t, Message(50, 100), "partial refund of 50.00 (50%)")
}

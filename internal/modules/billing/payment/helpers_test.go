package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountToCents(t *testing.T) {
	assert.Equal(t, int64(1000), AmountToCents(10))
	assert.Equal(t, int64(1999), AmountToCents(19.99))
	assert.Equal(t, int64(1), AmountToCents(0.005))
	assert.Equal(t, int64(0), AmountToCents(0))
}

func TestCreditsFor(t *testing.T) {
	assert.Equal(t, 10.0, CreditsFor(10, 1))
	assert.Equal(t, 20.0, CreditsFor(10, 0.5))
	assert.Equal(t, 0.0, CreditsFor(10, 0), "zero rate yields no credits")
	assert.Equal(t, 0.0, CreditsFor(10, -1))
}

package domain_test

import (
	"testing"

	"github.com/spooky-finn/go-bsdex-bridge/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewInstrument(t *testing.T) {
	tests := []struct {
		name        string
		symbol      string
		expected    domain.Instrument
		expectError bool
	}{
		{"LowercaseHyphenated", "btc-eur", "BTC-EUR", false},
		{"AlreadyUppercase", "ETH-EUR", "ETH-EUR", false},
		{"SurroundingSpaces", " xrp-eur ", "XRP-EUR", false},
		{"EmptySymbol", "", "", true},
		{"InnerSpace", "btc eur", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instrument, err := domain.NewInstrument(tt.symbol)

			if tt.expectError {
				assert.ErrorIs(t, err, domain.ErrInvalidSymbol, "NewInstrument() should return an error")
				return
			}

			assert.NoError(t, err, "NewInstrument() should not return an error")
			assert.Equal(t, tt.expected, instrument)
		})
	}
}

func TestInstrument_Symbol(t *testing.T) {
	instrument, err := domain.NewInstrument("btc-eur")
	assert.NoError(t, err)

	assert.Equal(t, "btc-eur", instrument.Symbol(), "Symbol() should return the wire form")
	assert.Equal(t, "BTC-EUR", instrument.String())
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSymbol = errors.New("invalid instrument symbol")

// Instrument is the normalized market identifier, e.g. "BTC-EUR".
type Instrument string

// NewInstrument derives an instrument from the exchange's lowercase, hyphenated symbol.
func NewInstrument(symbol string) (Instrument, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol must not be empty", ErrInvalidSymbol)
	}
	if strings.ContainsAny(symbol, " \t\n") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}

	return Instrument(strings.ToUpper(symbol)), nil
}

// Symbol returns the exchange wire form of the instrument.
func (i Instrument) Symbol() string {
	return strings.ToLower(string(i))
}

func (i Instrument) String() string {
	return string(i)
}

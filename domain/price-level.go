package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidSide = errors.New("invalid book side")

type Side int

const (
	Bid Side = iota
	Ask
)

// ParseSide maps the exchange side tag onto a book side: "buy" rests on the bid side,
// "sell" on the ask side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Bid, nil
	case "sell":
		return Ask, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

func (l PriceLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Price string `json:"price"`
		Size  string `json:"size"`
	}{
		Price: FormatDecimal(l.Price),
		Size:  FormatDecimal(l.Size),
	})
}

// FormatDecimal renders d with the scale it was parsed with: "0.1500" stays "0.1500"
// where d.String() would print "0.15".
func FormatDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// LevelUpdate is one record of a book data frame.
type LevelUpdate struct {
	Side  Side
	Price decimal.Decimal
	Size  decimal.Decimal
}

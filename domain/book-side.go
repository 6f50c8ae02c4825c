package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BookSide holds the price levels of one side of a book, ordered by price ascending.
// Prices are unique and a zero size is represented by absence.
type BookSide struct {
	levels []PriceLevel
}

func NewBookSide() *BookSide {
	return &BookSide{}
}

func (bs *BookSide) Len() int {
	return len(bs.levels)
}

// search returns the index where price is or would be inserted.
func (bs *BookSide) search(price decimal.Decimal) (int, bool) {
	i := sort.Search(len(bs.levels), func(i int) bool {
		return bs.levels[i].Price.Cmp(price) >= 0
	})

	return i, i < len(bs.levels) && bs.levels[i].Price.Equal(price)
}

func (bs *BookSide) Get(price decimal.Decimal) (decimal.Decimal, bool) {
	i, ok := bs.search(price)
	if !ok {
		return decimal.Decimal{}, false
	}

	return bs.levels[i].Size, true
}

// Set upserts the size at price. A zero size removes the level.
func (bs *BookSide) Set(price, size decimal.Decimal) {
	if size.IsZero() {
		bs.Remove(price)
		return
	}

	i, ok := bs.search(price)
	if ok {
		bs.levels[i].Size = size
		return
	}

	bs.levels = append(bs.levels, PriceLevel{})
	copy(bs.levels[i+1:], bs.levels[i:])
	bs.levels[i] = PriceLevel{Price: price, Size: size}
}

// Remove deletes the level at price and reports whether it was present.
func (bs *BookSide) Remove(price decimal.Decimal) bool {
	i, ok := bs.search(price)
	if !ok {
		return false
	}

	bs.levels = append(bs.levels[:i], bs.levels[i+1:]...)
	return true
}

// Levels returns a copy of at most limit levels, best first when descending is set.
// A limit <= 0 returns every level.
func (bs *BookSide) Levels(limit int, descending bool) []PriceLevel {
	n := len(bs.levels)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]PriceLevel, n)
	if descending {
		for i := 0; i < n; i++ {
			out[i] = bs.levels[len(bs.levels)-1-i]
		}
		return out
	}

	copy(out, bs.levels[:n])
	return out
}

// Map returns the levels keyed by canonical price string.
func (bs *BookSide) Map() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(bs.levels))
	for _, level := range bs.levels {
		m[level.Price.String()] = level.Size
	}
	return m
}

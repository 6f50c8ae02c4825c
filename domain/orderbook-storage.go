package domain

import (
	"errors"
	"sort"
	"time"
)

var ErrOrderBookNotFound = errors.New("order book not found")

// OrderBookStorage owns one replica per instrument. It is not safe for concurrent use:
// a single processing goroutine is its only reader and writer.
type OrderBookStorage struct {
	storage map[Instrument]*OrderBook
}

func NewOrderBookStorage() *OrderBookStorage {
	return &OrderBookStorage{
		storage: make(map[Instrument]*OrderBook),
	}
}

func (o *OrderBookStorage) Add(instrument Instrument, orderBook *OrderBook) {
	o.storage[instrument] = orderBook
}

func (o *OrderBookStorage) Get(instrument Instrument) (*OrderBook, error) {
	orderBook, ok := o.storage[instrument]
	if !ok {
		return nil, ErrOrderBookNotFound
	}

	return orderBook, nil
}

// ApplyDepth applies a book data frame received at now. The first frame seen for an
// instrument is a full snapshot and yields snapshot=true with an empty delta.
func (o *OrderBookStorage) ApplyDepth(instrument Instrument, levels []LevelUpdate, now time.Time) (ob *OrderBook, delta Delta, snapshot bool) {
	ob, ok := o.storage[instrument]
	if !ok {
		ob = NewOrderBook(instrument, levels, now)
		o.storage[instrument] = ob
		return ob, Delta{}, true
	}

	return ob, ob.ApplyUpdate(levels, now), false
}

// Evict drops the replica of instrument and reports whether one existed.
func (o *OrderBookStorage) Evict(instrument Instrument) bool {
	if _, ok := o.storage[instrument]; !ok {
		return false
	}

	delete(o.storage, instrument)
	return true
}

// EvictAll drops every replica and returns how many were dropped.
func (o *OrderBookStorage) EvictAll() int {
	n := len(o.storage)
	for instrument := range o.storage {
		delete(o.storage, instrument)
	}
	return n
}

func (o *OrderBookStorage) OrderBookCount() int {
	return len(o.storage)
}

func (o *OrderBookStorage) Instruments() []Instrument {
	out := make([]Instrument, 0, len(o.storage))
	for instrument := range o.storage {
		out = append(out, instrument)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

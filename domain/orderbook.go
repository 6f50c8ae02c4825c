package domain

import (
	"time"
)

type OrderBookStatus string

const (
	OrderBookStatus_Ok       OrderBookStatus = "Ok"
	OrderBookStatus_Outdated OrderBookStatus = "Outdated"
)

// OrderBookSnapshot is a detached copy of a replica: bids best (highest) first,
// asks best (lowest) first. A snapshot taken from a live replica is Ok; it becomes
// Outdated once the replica it was taken from is evicted.
type OrderBookSnapshot struct {
	Instrument Instrument      `json:"instrument"`
	Status     OrderBookStatus `json:"status"`
	Bids       []PriceLevel    `json:"bids"`
	Asks       []PriceLevel    `json:"asks"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Delta lists the levels changed by one incremental frame. A zero size marks a removal.
type Delta struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

func (d *Delta) IsEmpty() bool {
	return len(d.Bids) == 0 && len(d.Asks) == 0
}

func (d *Delta) add(side Side, level PriceLevel) {
	if side == Bid {
		d.Bids = append(d.Bids, level)
	} else {
		d.Asks = append(d.Asks, level)
	}
}

// OrderBook is the local replica of one instrument's level-2 book.
type OrderBook struct {
	Instrument     Instrument
	Bids           *BookSide
	Asks           *BookSide
	LastUpdateTime time.Time
}

// NewOrderBook builds a replica from a full snapshot received at now. Zero-size records
// are discarded.
func NewOrderBook(instrument Instrument, snapshot []LevelUpdate, now time.Time) *OrderBook {
	ob := &OrderBook{
		Instrument:     instrument,
		Bids:           NewBookSide(),
		Asks:           NewBookSide(),
		LastUpdateTime: now,
	}

	for _, level := range snapshot {
		ob.side(level.Side).Set(level.Price, level.Size)
	}

	return ob
}

// ApplyUpdate applies incremental records in order and returns the changed levels.
// Non-zero sizes are always reported, even when equal to the stored size; removals are
// reported only for prices that were present.
func (ob *OrderBook) ApplyUpdate(levels []LevelUpdate, now time.Time) Delta {
	delta := Delta{}

	for _, level := range levels {
		side := ob.side(level.Side)

		if level.Size.IsZero() {
			if side.Remove(level.Price) {
				delta.add(level.Side, PriceLevel{Price: level.Price, Size: level.Size})
			}
			continue
		}

		side.Set(level.Price, level.Size)
		delta.add(level.Side, PriceLevel{Price: level.Price, Size: level.Size})
	}

	ob.LastUpdateTime = now
	return delta
}

func (ob *OrderBook) TakeSnapshot(limit int) *OrderBookSnapshot {
	return &OrderBookSnapshot{
		Instrument: ob.Instrument,
		Status:     OrderBookStatus_Ok,
		Bids:       ob.Bids.Levels(limit, true),
		Asks:       ob.Asks.Levels(limit, false),
		UpdatedAt:  ob.LastUpdateTime,
	}
}

func (ob *OrderBook) side(s Side) *BookSide {
	if s == Bid {
		return ob.Bids
	}
	return ob.Asks
}

// Limit returns a copy of the snapshot truncated to limit levels per side.
func (s *OrderBookSnapshot) Limit(limit int) *OrderBookSnapshot {
	return &OrderBookSnapshot{
		Instrument: s.Instrument,
		Status:     s.Status,
		Bids:       limitDepth(s.Bids, limit),
		Asks:       limitDepth(s.Asks, limit),
		UpdatedAt:  s.UpdatedAt,
	}
}

// Outdated returns a copy of the snapshot marked as no longer maintained.
func (s *OrderBookSnapshot) Outdated() *OrderBookSnapshot {
	out := s.Limit(0)
	out.Status = OrderBookStatus_Outdated
	return out
}

func limitDepth(depth []PriceLevel, limit int) []PriceLevel {
	if limit > 0 && len(depth) > limit {
		depth = depth[:limit]
	}

	out := make([]PriceLevel, len(depth))
	copy(out, depth)
	return out
}

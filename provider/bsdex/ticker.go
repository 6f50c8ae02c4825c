package bsdex

import (
	"time"

	"github.com/spooky-finn/go-bsdex-bridge/domain"
)

// normalizeQuote maps a quote frame onto a ticker event. The exchange's sell_price is
// published as the bid and its buy_price as the ask. This mirrors the upstream feed
// handler and is kept until the exchange documentation confirms otherwise.
// The exchange sends no event time, so both timestamps are the processing time.
func normalizeQuote(msg *QuoteMessage, now time.Time) *domain.TickerEvent {
	return &domain.TickerEvent{
		Feed:             FeedID,
		Instrument:       msg.Instrument,
		Bid:              msg.SellPrice,
		Ask:              msg.BuyPrice,
		Timestamp:        now,
		ReceiptTimestamp: now,
	}
}

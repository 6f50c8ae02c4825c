package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type TickerEvent struct {
	Feed             string          `json:"feed"`
	Instrument       Instrument      `json:"instrument"`
	Bid              decimal.Decimal `json:"bid"`
	Ask              decimal.Decimal `json:"ask"`
	Timestamp        time.Time       `json:"timestamp"`
	ReceiptTimestamp time.Time       `json:"receiptTimestamp"`
}

func (e TickerEvent) MarshalJSON() ([]byte, error) {
	type event TickerEvent
	return json.Marshal(struct {
		event
		Bid string `json:"bid"`
		Ask string `json:"ask"`
	}{
		event: event(e),
		Bid:   FormatDecimal(e.Bid),
		Ask:   FormatDecimal(e.Ask),
	})
}

type BookEvent struct {
	Feed       string     `json:"feed"`
	Instrument Instrument `json:"instrument"`
	// Snapshot is set on the frame that created the replica; Delta is empty then.
	Snapshot         bool               `json:"snapshot"`
	Delta            Delta              `json:"delta"`
	Book             *OrderBookSnapshot `json:"book"`
	Timestamp        time.Time          `json:"timestamp"`
	ReceiptTimestamp time.Time          `json:"receiptTimestamp"`
}

type ChannelStatusEvent struct {
	Feed       string        `json:"feed"`
	Channel    string        `json:"channel"`
	Instrument Instrument    `json:"instrument"`
	Status     ChannelStatus `json:"status"`
	Timestamp  time.Time     `json:"timestamp"`
}

// EventHandler receives normalized events. Calls come from the feed's processing
// goroutine and must not block for long.
type EventHandler interface {
	OnTicker(event *TickerEvent)
	OnBook(event *BookEvent)
	OnChannelStatus(event *ChannelStatusEvent)
}

// EventHandlers fans every event out to each handler in order.
type EventHandlers []EventHandler

func (hs EventHandlers) OnTicker(event *TickerEvent) {
	for _, h := range hs {
		h.OnTicker(event)
	}
}

func (hs EventHandlers) OnBook(event *BookEvent) {
	for _, h := range hs {
		h.OnBook(event)
	}
}

func (hs EventHandlers) OnChannelStatus(event *ChannelStatusEvent) {
	for _, h := range hs {
		h.OnChannelStatus(event)
	}
}

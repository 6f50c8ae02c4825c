package bsdex

import (
	"github.com/spooky-finn/go-bsdex-bridge/domain"
)

// Subscribe queues a subscribe request per instrument and remembers it so it is
// re-sent after a reconnect. Order book subscriptions ask the exchange to keep the
// channel alive. Call it before Run or from the goroutine running it.
func (f *Feed) Subscribe(channel string, instruments ...domain.Instrument) {
	for _, instrument := range instruments {
		req := NewSubscribeRequest(channel, instrument)
		f.subscriptions = append(f.subscriptions, req)
		f.outbox.Push(req)
	}
}

func (f *Feed) resubscribe() {
	for _, req := range f.subscriptions {
		f.outbox.Push(req)
	}
}

func NewSubscribeRequest(channel string, instrument domain.Instrument) SubscribeRequest {
	req := SubscribeRequest{
		Type:       "subscribe",
		Channel:    channel,
		Subchannel: instrument.Symbol(),
	}
	if channel == ChannelOrderBook {
		req.Params = map[string]interface{}{"keep_alive": true}
	}
	return req
}

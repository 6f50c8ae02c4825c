package bsdex

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spooky-finn/go-bsdex-bridge/domain"
	promclient "github.com/spooky-finn/go-bsdex-bridge/infrastructure/prometheus"
)

const FeedID = "BSDEX"

var ErrStreamClosed = errors.New("stream closed")

var logger = logrus.WithField("component", "bsdex")

// Inbound is one item delivered by a Transport. Reconnected marks a fresh connection;
// Data is empty then.
type Inbound struct {
	Data        []byte
	Reconnected bool
}

type Transport interface {
	Frames() <-chan Inbound
	WriteJSON(v interface{}) error
}

type Option func(*Feed)

func WithLogger(l logrus.FieldLogger) Option {
	return func(f *Feed) { f.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

// Feed replicates the order books and normalizes quotes of one connection. All state
// is owned by the goroutine calling HandleFrame or Run.
type Feed struct {
	storage  *domain.OrderBookStorage
	channels *domain.ChannelTracker
	handler  domain.EventHandler
	outbox   *Outbox

	subscriptions []SubscribeRequest

	logger logrus.FieldLogger
	now    func() time.Time
}

func NewFeed(handler domain.EventHandler, opts ...Option) *Feed {
	f := &Feed{
		storage:  domain.NewOrderBookStorage(),
		channels: domain.NewChannelTracker(),
		handler:  handler,
		outbox:   NewOutbox(),
		logger:   logger,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *Feed) Storage() *domain.OrderBookStorage {
	return f.storage
}

func (f *Feed) Channels() *domain.ChannelTracker {
	return f.channels
}

func (f *Feed) Outbox() *Outbox {
	return f.outbox
}

// HandleFrame decodes and dispatches one raw frame. Malformed and unrecognized frames are
// logged and dropped; replica state is left untouched by them.
func (f *Feed) HandleFrame(raw []byte) {
	msg, err := ParseMessage(raw)
	if err != nil {
		promclient.DroppedFramesCounter.Inc()
		f.logger.WithError(err).Warnf("%s: dropping frame %s", FeedID, raw)
		return
	}

	f.Dispatch(msg)
}

// Dispatch routes a decoded message. Each message causes at most one of: an emitted
// event, a queued control frame or a lifecycle/replica state change.
func (f *Feed) Dispatch(msg Message) {
	promclient.FramesCounter.WithLabelValues(msg.Kind()).Inc()

	switch m := msg.(type) {
	case PingMessage:
		f.outbox.Push(PongFrame{Pong: m.Token})
	case StatusMessage:
		f.onStatus(&m)
	case QuoteMessage:
		f.handler.OnTicker(normalizeQuote(&m, f.now()))
		promclient.EventsCounter.WithLabelValues("ticker").Inc()
	case BookMessage:
		f.onBook(&m)
	case UnknownMessage:
		f.logger.Warnf("%s: invalid message type %s", FeedID, m.Raw)
	default:
		f.logger.Warnf("%s: unhandled message %T", FeedID, msg)
	}
}

func (f *Feed) onBook(m *BookMessage) {
	now := f.now()
	ob, delta, snapshot := f.storage.ApplyDepth(m.Instrument, m.Levels, now)
	if snapshot {
		promclient.OpenOrderBookGauge.Set(float64(f.storage.OrderBookCount()))
		f.logger.Debugf("%s: order book snapshot for %s: bids=%d asks=%d", FeedID, m.Instrument, ob.Bids.Len(), ob.Asks.Len())
	}

	f.handler.OnBook(&domain.BookEvent{
		Feed:             FeedID,
		Instrument:       m.Instrument,
		Snapshot:         snapshot,
		Delta:            delta,
		Book:             ob.TakeSnapshot(0),
		Timestamp:        now,
		ReceiptTimestamp: now,
	})
	promclient.EventsCounter.WithLabelValues("book").Inc()
}

func (f *Feed) onStatus(m *StatusMessage) {
	if m.Status == domain.ChannelOffline && m.Channel != ChannelOrderBook {
		f.logger.Infof("%s: channel %s offline for %q", FeedID, m.Channel, m.Instrument)
		return
	}

	f.channels.Set(m.Channel, m.Instrument, m.Status)

	if m.Status == domain.ChannelOffline {
		f.evict(m.Instrument)
	} else {
		f.logger.Infof("%s: channel %s %s for %q", FeedID, m.Channel, m.Status, m.Instrument)
	}

	f.handler.OnChannelStatus(&domain.ChannelStatusEvent{
		Feed:       FeedID,
		Channel:    m.Channel,
		Instrument: m.Instrument,
		Status:     m.Status,
		Timestamp:  f.now(),
	})
}

// evict drops the replica of instrument, or every replica when instrument is empty.
func (f *Feed) evict(instrument domain.Instrument) {
	if instrument == "" {
		n := f.storage.EvictAll()
		f.logger.Infof("%s: orderbook channel offline, evicted %d order books", FeedID, n)
	} else if f.storage.Evict(instrument) {
		f.logger.Infof("%s: orderbook channel offline, evicted order book %s", FeedID, instrument)
	}

	promclient.OpenOrderBookGauge.Set(float64(f.storage.OrderBookCount()))
}

// Reset drops all replicas and channel statuses. It is called when the transport
// reconnects since the next frame per instrument will be a fresh snapshot.
func (f *Feed) Reset() {
	f.storage.EvictAll()
	f.channels.Reset()
	promclient.OpenOrderBookGauge.Set(0)

	f.handler.OnChannelStatus(&domain.ChannelStatusEvent{
		Feed:      FeedID,
		Channel:   ChannelOrderBook,
		Status:    domain.ChannelOffline,
		Timestamp: f.now(),
	})
}

// Run processes inbound frames one at a time in arrival order until ctx is done or the
// transport closes its frame channel. Queued control frames are written by a separate
// goroutine so that slow writes never delay processing.
func (f *Feed) Run(ctx context.Context, t Transport) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go f.outbox.Drain(ctx, t, f.logger)

	frames := t.Frames()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-frames:
			if !ok {
				return ErrStreamClosed
			}

			if in.Reconnected {
				f.logger.Warnf("%s: reconnected, resetting order books and resubscribing", FeedID)
				f.Reset()
				f.resubscribe()
				continue
			}

			f.HandleFrame(in.Data)
		}
	}
}

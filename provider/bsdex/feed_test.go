package bsdex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spooky-finn/go-bsdex-bridge/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	tickers  []*domain.TickerEvent
	books    []*domain.BookEvent
	statuses []*domain.ChannelStatusEvent
}

func (h *recordingHandler) OnTicker(e *domain.TickerEvent)               { h.tickers = append(h.tickers, e) }
func (h *recordingHandler) OnBook(e *domain.BookEvent)                   { h.books = append(h.books, e) }
func (h *recordingHandler) OnChannelStatus(e *domain.ChannelStatusEvent) { h.statuses = append(h.statuses, e) }

func (h *recordingHandler) count() int {
	return len(h.tickers) + len(h.books) + len(h.statuses)
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestFeed(t *testing.T) (*Feed, *recordingHandler, *test.Hook) {
	t.Helper()

	log, hook := test.NewNullLogger()
	handler := &recordingHandler{}
	feed := NewFeed(handler, WithLogger(log), WithClock(func() time.Time { return fixedNow }))

	return feed, handler, hook
}

const (
	snapshotFrame = `{"chan_name": "orderbook", "subchan_name": "btc-eur", "type": "data", "data": [
		{"price": "0.2", "side": "buy", "size": "1", "market": "btc-eur"},
		{"price": "1003512.3", "side": "sell", "size": "0.15", "market": "btc-eur"}]}`
	removalFrame = `{"chan_name": "orderbook", "subchan_name": "btc-eur", "type": "data", "data": [
		{"price": "1003512.3", "side": "sell", "size": "0", "market": "btc-eur"}]}`
	offlineFrame = `{"chan_name": "orderbook", "subchan_name": "btc-eur", "type": "offline"}`
)

func sideMap(levels []domain.PriceLevel) map[string]string {
	out := map[string]string{}
	for _, level := range levels {
		out[level.Price.String()] = level.Size.String()
	}
	return out
}

func TestFeed_BookSnapshot(t *testing.T) {
	feed, handler, _ := newTestFeed(t)

	feed.HandleFrame([]byte(snapshotFrame))

	require.Len(t, handler.books, 1)
	event := handler.books[0]
	assert.True(t, event.Snapshot)
	assert.True(t, event.Delta.IsEmpty())
	assert.Equal(t, domain.Instrument("BTC-EUR"), event.Instrument)
	assert.Equal(t, FeedID, event.Feed)
	assert.Equal(t, fixedNow, event.Timestamp)
	assert.Equal(t, fixedNow, event.ReceiptTimestamp)
	assert.Equal(t, map[string]string{"0.2": "1"}, sideMap(event.Book.Bids))
	assert.Equal(t, map[string]string{"1003512.3": "0.15"}, sideMap(event.Book.Asks))
	assert.Equal(t, 1, feed.Storage().OrderBookCount())
}

func TestFeed_BookRemoval(t *testing.T) {
	feed, handler, _ := newTestFeed(t)

	feed.HandleFrame([]byte(snapshotFrame))
	feed.HandleFrame([]byte(removalFrame))

	require.Len(t, handler.books, 2)
	event := handler.books[1]
	assert.False(t, event.Snapshot)
	assert.Empty(t, event.Delta.Bids)
	require.Len(t, event.Delta.Asks, 1)
	assert.Equal(t, "1003512.3", event.Delta.Asks[0].Price.String())
	assert.True(t, event.Delta.Asks[0].Size.IsZero())
	assert.Empty(t, event.Book.Asks)

	ob, err := feed.Storage().Get("BTC-EUR")
	require.NoError(t, err)
	assert.Equal(t, 0, ob.Asks.Len())
	assert.Equal(t, 1, ob.Bids.Len())
}

func TestFeed_BookTimesFollowFeedClock(t *testing.T) {
	log, _ := test.NewNullLogger()
	handler := &recordingHandler{}
	now := fixedNow
	feed := NewFeed(handler, WithLogger(log), WithClock(func() time.Time { return now }))

	feed.HandleFrame([]byte(snapshotFrame))
	now = now.Add(time.Second)
	feed.HandleFrame([]byte(`{"chan_name": "orderbook", "subchan_name": "btc-eur", "type": "data", "data": [
		{"price": "100.1", "side": "sell", "size": "0.1500", "market": "btc-eur"}]}`))

	require.Len(t, handler.books, 2)
	assert.Equal(t, fixedNow, handler.books[0].Book.UpdatedAt)
	event := handler.books[1]
	assert.Equal(t, now, event.Timestamp)
	assert.Equal(t, event.Timestamp, event.Book.UpdatedAt)

	data, err := json.Marshal(event.Delta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bids":null,"asks":[{"price":"100.1","size":"0.1500"}]}`, string(data))
}

func TestFeed_OfflineResetsReplica(t *testing.T) {
	feed, handler, _ := newTestFeed(t)

	feed.HandleFrame([]byte(snapshotFrame))
	feed.HandleFrame([]byte(offlineFrame))

	_, err := feed.Storage().Get("BTC-EUR")
	assert.ErrorIs(t, err, domain.ErrOrderBookNotFound)
	require.Len(t, handler.statuses, 1)
	assert.Equal(t, domain.ChannelOffline, handler.statuses[0].Status)

	// evicting an absent replica again is a no-op
	feed.HandleFrame([]byte(offlineFrame))
	assert.Equal(t, 0, feed.Storage().OrderBookCount())

	feed.HandleFrame([]byte(`{"chan_name": "orderbook", "subchan_name": "btc-eur", "type": "data", "data": [
		{"price": "7", "side": "sell", "size": "3", "market": "btc-eur"}]}`))

	require.Len(t, handler.books, 2)
	event := handler.books[1]
	assert.True(t, event.Snapshot, "frame after offline starts a new replica")
	assert.Empty(t, event.Book.Bids)
	assert.Equal(t, map[string]string{"7": "3"}, sideMap(event.Book.Asks))
}

func TestFeed_OfflineWithoutSubchannelEvictsAll(t *testing.T) {
	feed, _, _ := newTestFeed(t)

	feed.HandleFrame([]byte(snapshotFrame))
	feed.HandleFrame([]byte(`{"chan_name": "orderbook", "subchan_name": "eth-eur", "type": "data", "data": [
		{"price": "1", "side": "buy", "size": "1"}]}`))
	require.Equal(t, 2, feed.Storage().OrderBookCount())

	feed.HandleFrame([]byte(`{"chan_name": "orderbook", "type": "offline"}`))

	assert.Equal(t, 0, feed.Storage().OrderBookCount())
}

func TestFeed_QuoteMapping(t *testing.T) {
	feed, handler, _ := newTestFeed(t)

	feed.HandleFrame([]byte(`{
		"chan_name": "quote",
		"subchan_name": "btc-eur",
		"type": "data",
		"data": {
			"buy_price": "48649.27",
			"buy_volume": "0.01",
			"sell_price": "48701.74",
			"sell_volume": "0.01",
			"market": "btc-eur"
		}
	}`))

	require.Len(t, handler.tickers, 1)
	ticker := handler.tickers[0]
	assert.Equal(t, FeedID, ticker.Feed)
	assert.Equal(t, domain.Instrument("BTC-EUR"), ticker.Instrument)
	assert.Equal(t, "48701.74", ticker.Bid.String(), "bid is sourced from sell_price")
	assert.Equal(t, "48649.27", ticker.Ask.String(), "ask is sourced from buy_price")
	assert.Equal(t, fixedNow, ticker.Timestamp)
	assert.Equal(t, fixedNow, ticker.ReceiptTimestamp)
	assert.Equal(t, 0, feed.Storage().OrderBookCount())
}

func TestFeed_UnknownFrameOnlyWarns(t *testing.T) {
	feed, handler, hook := newTestFeed(t)

	feed.HandleFrame([]byte(`{"type": "welcome", "version": 2}`))

	assert.Equal(t, 0, handler.count())
	assert.Equal(t, 0, feed.Storage().OrderBookCount())
	assert.Equal(t, 0, feed.Outbox().Len())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "welcome")
}

func TestFeed_MalformedFrameLeavesReplicaUntouched(t *testing.T) {
	feed, handler, hook := newTestFeed(t)
	feed.HandleFrame([]byte(snapshotFrame))

	// second record has an unparseable size: the whole frame is dropped
	feed.HandleFrame([]byte(`{"chan_name": "orderbook", "subchan_name": "btc-eur", "type": "data", "data": [
		{"price": "0.2", "side": "buy", "size": "0"},
		{"price": "5", "side": "buy", "size": "x"}]}`))

	assert.Len(t, handler.books, 1)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	ob, err := feed.Storage().Get("BTC-EUR")
	require.NoError(t, err)
	size, ok := ob.Bids.Get(ob.Bids.Levels(1, true)[0].Price)
	assert.True(t, ok)
	assert.Equal(t, "1", size.String())

	feed.HandleFrame([]byte(removalFrame))
	assert.Len(t, handler.books, 2, "processing continues after a malformed frame")
}

func TestFeed_PingQueuesPong(t *testing.T) {
	feed, handler, _ := newTestFeed(t)

	feed.HandleFrame([]byte(`{"ping": 1718000000}`))
	feed.HandleFrame([]byte(`{"ping": "abc"}`))

	assert.Equal(t, 0, handler.count())
	frames := feed.Outbox().PopAll()
	require.Len(t, frames, 2)

	b, err := json.Marshal(frames[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"pong": 1718000000}`, string(b))

	b, err = json.Marshal(frames[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"pong": "abc"}`, string(b))
}

func TestFeed_LifecycleIsInformational(t *testing.T) {
	feed, handler, _ := newTestFeed(t)

	feed.HandleFrame([]byte(`{"chan_name": "orderbook", "subchan_name": "btc-eur", "type": "online"}`))
	assert.Equal(t, domain.ChannelOnline, feed.Channels().Status(ChannelOrderBook, "BTC-EUR"))

	feed.HandleFrame([]byte(`{"chan_name": "orderbook", "subchan_name": "btc-eur", "type": "subscribed"}`))
	assert.Equal(t, domain.ChannelSubscribed, feed.Channels().Status(ChannelOrderBook, "BTC-EUR"))

	assert.Equal(t, 0, feed.Storage().OrderBookCount())
	require.Len(t, handler.statuses, 2)
	assert.Equal(t, domain.ChannelSubscribed, handler.statuses[1].Status)
}

func TestFeed_OfflineOnOtherChannelOnlyLogs(t *testing.T) {
	feed, handler, hook := newTestFeed(t)
	feed.HandleFrame([]byte(snapshotFrame))
	feed.HandleFrame([]byte(`{"chan_name": "quote", "subchan_name": "btc-eur", "type": "subscribed"}`))

	feed.HandleFrame([]byte(`{"chan_name": "quote", "subchan_name": "btc-eur", "type": "offline"}`))

	assert.Equal(t, 1, feed.Storage().OrderBookCount())
	assert.Equal(t, domain.ChannelSubscribed, feed.Channels().Status(ChannelQuote, "BTC-EUR"))
	assert.Len(t, handler.statuses, 1)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}

func TestFeed_Subscribe(t *testing.T) {
	feed, _, _ := newTestFeed(t)

	feed.Subscribe(ChannelOrderBook, "BTC-EUR")
	feed.Subscribe(ChannelQuote, "BTC-EUR", "ETH-EUR")

	frames := feed.Outbox().PopAll()
	require.Len(t, frames, 3)

	b, err := json.Marshal(frames[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "subscribe", "chan_name": "orderbook", "subchan_name": "btc-eur", "params": {"keep_alive": true}}`, string(b))

	b, err = json.Marshal(frames[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "subscribe", "chan_name": "quote", "subchan_name": "eth-eur"}`, string(b))
}

package usecase

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spooky-finn/go-bsdex-bridge/domain"
)

var logger = logrus.WithField("component", "orderbook-snapshot-usecase")

// OrderBookSnapshotUseCase keeps the latest detached snapshot of every replicated book so
// that concurrent readers never touch the feed's own storage. Books whose channel went
// offline stay readable with an Outdated status.
type OrderBookSnapshotUseCase struct {
	orderBookChannel string

	mu        sync.RWMutex
	snapshots map[domain.Instrument]*domain.OrderBookSnapshot
}

func NewOrderBookSnapshotUseCase(orderBookChannel string) *OrderBookSnapshotUseCase {
	return &OrderBookSnapshotUseCase{
		orderBookChannel: orderBookChannel,
		snapshots:        make(map[domain.Instrument]*domain.OrderBookSnapshot),
	}
}

// GetOrderBookSnapshot returns at most limit levels per side of the instrument's book.
func (o *OrderBookSnapshotUseCase) GetOrderBookSnapshot(instrument domain.Instrument, limit int) (*domain.OrderBookSnapshot, error) {
	o.mu.RLock()
	snapshot, ok := o.snapshots[instrument]
	o.mu.RUnlock()

	if !ok {
		return nil, domain.ErrOrderBookNotFound
	}

	return snapshot.Limit(limit), nil
}

func (o *OrderBookSnapshotUseCase) OrderBookCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.snapshots)
}

func (o *OrderBookSnapshotUseCase) OnBook(event *domain.BookEvent) {
	if event.Book == nil {
		return
	}

	o.mu.Lock()
	o.snapshots[event.Instrument] = event.Book
	o.mu.Unlock()

	if event.Snapshot {
		logger.Infof("orderbook snapshot for %s is added to the runtime storage. Feed=%s", event.Instrument, event.Feed)
	}
}

// OnChannelStatus marks the cached books of an instrument, or all of them when the event
// names none, as Outdated once their order book channel goes offline. The next book event
// for the instrument replaces the outdated copy.
func (o *OrderBookSnapshotUseCase) OnChannelStatus(event *domain.ChannelStatusEvent) {
	if event.Channel != o.orderBookChannel || event.Status != domain.ChannelOffline {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for instrument, snapshot := range o.snapshots {
		if event.Instrument != "" && instrument != event.Instrument {
			continue
		}
		if snapshot.Status != domain.OrderBookStatus_Outdated {
			o.snapshots[instrument] = snapshot.Outdated()
			logger.Infof("orderbook snapshot for %s is outdated. Feed=%s", instrument, event.Feed)
		}
	}
}

func (o *OrderBookSnapshotUseCase) OnTicker(*domain.TickerEvent) {}

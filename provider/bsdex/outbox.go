package bsdex

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gammazero/deque"
	"github.com/sirupsen/logrus"
)

type PongFrame struct {
	Pong json.RawMessage `json:"pong"`
}

type SubscribeRequest struct {
	Type       string                 `json:"type"`
	Channel    string                 `json:"chan_name"`
	Subchannel string                 `json:"subchan_name"`
	Params     map[string]interface{} `json:"params,omitempty"`
}

// Outbox is a one-way queue of control frames consumed by the transport writer.
// Frames are sent at most once.
type Outbox struct {
	queue  deque.Deque[interface{}]
	mu     sync.Mutex
	notify chan struct{}
}

func NewOutbox() *Outbox {
	return &Outbox{
		queue:  deque.Deque[interface{}]{},
		notify: make(chan struct{}, 1),
	}
}

func (o *Outbox) Push(frame interface{}) {
	o.mu.Lock()
	o.queue.PushBack(frame)
	o.mu.Unlock()

	select {
	case o.notify <- struct{}{}:
	default:
	}
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.queue.Len()
}

// PopAll removes and returns every queued frame in push order.
func (o *Outbox) PopAll() []interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	frames := make([]interface{}, 0, o.queue.Len())
	for o.queue.Len() > 0 {
		frames = append(frames, o.queue.PopFront())
	}
	return frames
}

// Drain writes queued frames to t until ctx is done. Failed writes are logged and
// dropped.
func (o *Outbox) Drain(ctx context.Context, t Transport, log logrus.FieldLogger) {
	for {
		for _, frame := range o.PopAll() {
			if err := t.WriteJSON(frame); err != nil {
				log.WithError(err).Warnf("%s: failed to send %T", FeedID, frame)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-o.notify:
		}
	}
}

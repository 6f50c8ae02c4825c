package kafka

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/spooky-finn/go-bsdex-bridge/domain"
)

var logger = logrus.WithField("component", "kafka-publisher")

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type envelope struct {
	Type  string      `json:"type"`
	Event interface{} `json:"event"`
}

// Publisher forwards normalized events to a Kafka topic keyed by instrument, so every
// instrument's events stay ordered within one partition. Failed writes are logged only.
type Publisher struct {
	writer  MessageWriter
	timeout time.Duration
}

func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{
		writer:  writer,
		timeout: 5 * time.Second,
	}
}

// NewWriter returns an asynchronous writer; WriteMessages does not wait for the broker.
func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafkago.RequireOne,
		Async:        true,
		Completion: func(messages []kafkago.Message, err error) {
			if err != nil {
				logger.WithError(err).Warnf("failed to deliver %d messages", len(messages))
			}
		},
	}
}

func (p *Publisher) OnTicker(event *domain.TickerEvent) {
	p.publish(event.Instrument, "ticker", event)
}

func (p *Publisher) OnBook(event *domain.BookEvent) {
	p.publish(event.Instrument, "book", event)
}

func (p *Publisher) OnChannelStatus(event *domain.ChannelStatusEvent) {
	p.publish(event.Instrument, "status", event)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) publish(instrument domain.Instrument, eventType string, event interface{}) {
	value, err := json.Marshal(envelope{Type: eventType, Event: event})
	if err != nil {
		logger.WithError(err).Errorf("failed to encode %s event", eventType)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(instrument),
		Value: value,
	})
	if err != nil {
		logger.WithError(err).Warnf("failed to publish %s event for %s", eventType, instrument)
	}
}

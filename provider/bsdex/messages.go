package bsdex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spooky-finn/go-bsdex-bridge/domain"
)

const (
	ChannelQuote     = "quote"
	ChannelOrderBook = "orderbook"

	typeOnline     = "online"
	typeSubscribed = "subscribed"
	typeOffline    = "offline"
	typeData       = "data"
)

var ErrMalformedFrame = errors.New("malformed frame")

// Message is one decoded inbound frame. The concrete types are PingMessage,
// StatusMessage, QuoteMessage, BookMessage and UnknownMessage.
type Message interface {
	Kind() string
}

type PingMessage struct {
	Token json.RawMessage
}

// StatusMessage announces a channel lifecycle change. Instrument is empty when the
// frame carries no subchannel.
type StatusMessage struct {
	Channel    string
	Instrument domain.Instrument
	Status     domain.ChannelStatus
}

type QuoteMessage struct {
	Instrument domain.Instrument
	BuyPrice   decimal.Decimal
	BuyVolume  decimal.Decimal
	SellPrice  decimal.Decimal
	SellVolume decimal.Decimal
}

type BookMessage struct {
	Instrument domain.Instrument
	Levels     []domain.LevelUpdate
}

type UnknownMessage struct {
	Raw []byte
}

func (PingMessage) Kind() string    { return "ping" }
func (StatusMessage) Kind() string  { return "status" }
func (QuoteMessage) Kind() string   { return "quote" }
func (BookMessage) Kind() string    { return "book" }
func (UnknownMessage) Kind() string { return "unknown" }

type frame struct {
	Ping        json.RawMessage `json:"ping"`
	ChanName    string          `json:"chan_name"`
	SubchanName string          `json:"subchan_name"`
	Type        string          `json:"type"`
	Data        json.RawMessage `json:"data"`
}

type quoteData struct {
	BuyPrice   *decimal.Decimal `json:"buy_price"`
	BuyVolume  *decimal.Decimal `json:"buy_volume"`
	SellPrice  *decimal.Decimal `json:"sell_price"`
	SellVolume *decimal.Decimal `json:"sell_volume"`
	Market     string           `json:"market"`
}

type levelData struct {
	Price  *decimal.Decimal `json:"price"`
	Side   string           `json:"side"`
	Size   *decimal.Decimal `json:"size"`
	Market string           `json:"market"`
}

// ParseMessage decodes and classifies a raw frame. Classification order: ping, online,
// subscribed, quote data, orderbook data, offline, anything else.
func ParseMessage(raw []byte) (Message, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedFrame, err)
	}

	if len(f.Ping) > 0 {
		return PingMessage{Token: f.Ping}, nil
	}

	switch {
	case f.Type == typeOnline:
		return parseStatus(&f, domain.ChannelOnline)
	case f.Type == typeSubscribed:
		return parseStatus(&f, domain.ChannelSubscribed)
	case f.ChanName == ChannelQuote && f.Type == typeData:
		return parseQuote(&f)
	case f.ChanName == ChannelOrderBook && f.Type == typeData:
		return parseBook(&f)
	case f.Type == typeOffline:
		return parseStatus(&f, domain.ChannelOffline)
	}

	return UnknownMessage{Raw: raw}, nil
}

func parseStatus(f *frame, status domain.ChannelStatus) (Message, error) {
	msg := StatusMessage{Channel: f.ChanName, Status: status}
	if f.SubchanName == "" {
		return msg, nil
	}

	instrument, err := domain.NewInstrument(f.SubchanName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedFrame, err)
	}
	msg.Instrument = instrument

	return msg, nil
}

func parseInstrument(f *frame) (domain.Instrument, error) {
	instrument, err := domain.NewInstrument(f.SubchanName)
	if err != nil {
		return "", fmt.Errorf("%w: %s frame: %s", ErrMalformedFrame, f.ChanName, err)
	}
	return instrument, nil
}

func checkMarket(instrument domain.Instrument, market string) error {
	if market != "" && market != instrument.Symbol() {
		return fmt.Errorf("%w: market %q does not match subchannel %q", ErrMalformedFrame, market, instrument.Symbol())
	}
	return nil
}

func parseQuote(f *frame) (Message, error) {
	instrument, err := parseInstrument(f)
	if err != nil {
		return nil, err
	}

	var data quoteData
	if err := decodeData(f.Data, &data); err != nil {
		return nil, err
	}
	if data.BuyPrice == nil || data.SellPrice == nil {
		return nil, fmt.Errorf("%w: quote for %s misses buy_price or sell_price", ErrMalformedFrame, instrument)
	}
	if err := checkMarket(instrument, data.Market); err != nil {
		return nil, err
	}

	msg := QuoteMessage{
		Instrument: instrument,
		BuyPrice:   *data.BuyPrice,
		SellPrice:  *data.SellPrice,
	}
	if data.BuyVolume != nil {
		msg.BuyVolume = *data.BuyVolume
	}
	if data.SellVolume != nil {
		msg.SellVolume = *data.SellVolume
	}

	return msg, nil
}

func parseBook(f *frame) (Message, error) {
	instrument, err := parseInstrument(f)
	if err != nil {
		return nil, err
	}

	var data []levelData
	if err := decodeData(f.Data, &data); err != nil {
		return nil, err
	}

	levels := make([]domain.LevelUpdate, 0, len(data))
	for i, l := range data {
		if l.Price == nil || l.Size == nil {
			return nil, fmt.Errorf("%w: level %d for %s misses price or size", ErrMalformedFrame, i, instrument)
		}
		if l.Size.IsNegative() {
			return nil, fmt.Errorf("%w: level %d for %s has negative size %s", ErrMalformedFrame, i, instrument, l.Size)
		}
		side, err := domain.ParseSide(l.Side)
		if err != nil {
			return nil, fmt.Errorf("%w: level %d for %s: %s", ErrMalformedFrame, i, instrument, err)
		}
		if err := checkMarket(instrument, l.Market); err != nil {
			return nil, err
		}

		levels = append(levels, domain.LevelUpdate{Side: side, Price: *l.Price, Size: *l.Size})
	}

	return BookMessage{Instrument: instrument, Levels: levels}, nil
}

func decodeData(data json.RawMessage, v interface{}) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: missing data", ErrMalformedFrame)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedFrame, err)
	}
	return nil
}

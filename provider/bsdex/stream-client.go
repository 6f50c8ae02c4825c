package bsdex

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/recws-org/recws"
)

const (
	DefaultWebsocketEndpoint = "wss://api.bsdex.de/consumer/ws"

	pingDelay        = time.Minute * 9
	handshakeTimeout = 5 * time.Second
	readRetryDelay   = 100 * time.Millisecond
)

// StreamClient is a reconnecting websocket connection to the exchange. Frames are
// delivered in arrival order; after a connection loss an Inbound with Reconnected set
// precedes the frames of the new connection.
type StreamClient struct {
	url              string
	handshakeTimeout time.Duration
	conn             *recws.RecConn
	frames           chan Inbound

	done      chan struct{}
	closeOnce sync.Once
}

func NewStreamClient(endpoint, accessToken string) (*StreamClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse websocket endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("websocket endpoint must use ws or wss scheme, got %q", endpoint)
	}

	if accessToken != "" {
		q := u.Query()
		q.Set("access_token", accessToken)
		u.RawQuery = q.Encode()
	}

	return &StreamClient{
		url:              u.String(),
		handshakeTimeout: handshakeTimeout,
		frames:           make(chan Inbound, 256),
		done:             make(chan struct{}),
	}, nil
}

// Connect dials the endpoint, waiting at most one handshake for the first attempt.
// A failed dial is not an error: the connection keeps retrying in the background and
// its first success is reported as a reconnect.
func (c *StreamClient) Connect() {
	conn := &recws.RecConn{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.handshakeTimeout,
		KeepAliveTimeout: pingDelay,
		Conn:             nil,
		NonVerbose:       true,
	}

	conn.Dial(c.url, nil)
	c.conn = conn

	connected := conn.IsConnected()
	if !connected {
		logger.Warnf("%s: websocket not connected yet, retrying in background", FeedID)
	} else {
		logger.Infof("%s: connected to the stream websocket", FeedID)
	}

	go c.read(connected)
}

func (c *StreamClient) Frames() <-chan Inbound {
	return c.frames
}

func (c *StreamClient) WriteJSON(v interface{}) error {
	return c.conn.WriteJSON(v)
}

func (c *StreamClient) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn == nil {
			return
		}

		werr := c.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		if werr != nil {
			logger.WithError(werr).Debugf("%s: could not send close message", FeedID)
		}
		c.conn.Close()
	})
	return nil
}

// read pumps frames until Close. Writes queued while the first dial was still failing
// are lost, so in that case the first established connection is reported as a
// reconnect as well.
func (c *StreamClient) read(connectedAtDial bool) {
	defer close(c.frames)

	connected := false
	seen := !connectedAtDial

	for {
		select {
		case <-c.done:
			return
		default:
		}

		if !c.conn.IsConnected() {
			connected = false
			time.Sleep(readRetryDelay)
			continue
		}

		if !connected {
			if seen && !c.deliver(Inbound{Reconnected: true}) {
				return
			}
			connected, seen = true, true
		}

		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Infof("%s: websocket closed by exchange", FeedID)
			} else {
				logger.WithError(err).Warnf("%s: error while reading from connection", FeedID)
			}
			connected = false
			time.Sleep(readRetryDelay)
			continue
		}

		if !c.deliver(Inbound{Data: msg}) {
			return
		}
	}
}

func (c *StreamClient) deliver(in Inbound) bool {
	select {
	case c.frames <- in:
		return true
	case <-c.done:
		return false
	}
}

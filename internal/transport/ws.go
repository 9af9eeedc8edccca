// Package transport provides concrete FeedTransport/SnapshotSource
// implementations over a WebSocket feed and a REST snapshot endpoint.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fenrir/internal/book"
	"fenrir/internal/engine"
	"fenrir/internal/orderbook"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrMissingField is returned when a feed message cannot be decoded as JSON.
// Messages are not checked for the fields their type needs: an absent field
// is left at its zero value (PriceSet and NewSizeSet mark price and new_size).
var ErrMissingField = errors.New("transport: missing field")

// WSConfig configures a WebSocket FeedTransport.
type WSConfig struct {
	URL            string
	ProductID      string
	Channels       []string
	ReconnectDelay time.Duration
	DialTimeout    time.Duration
}

// WS is a FeedTransport over a JSON WebSocket feed (e.g. an exchange's
// "full" channel). It does not authenticate; the delay between reconnects
// is WSConfig.ReconnectDelay. Reconnect-on-disconnect is handled here since a fresh
// connection can't be trusted to resume exactly where the last one left off.
type WS struct {
	cfg  WSConfig
	conn *websocket.Conn
}

// NewWS builds a WS transport from cfg. Defaults ReconnectDelay to 1s and
// DialTimeout to 10s if unset.
func NewWS(cfg WSConfig) *WS {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &WS{cfg: cfg}
}

// Start dials the feed and forwards messages to sink until ctx is
// cancelled, reconnecting on every disconnect.
func (w *WS) Start(ctx context.Context, sink engine.FeedSink) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.runOnce(ctx, sink); err != nil {
			log.Error().Err(err).Str("url", w.cfg.URL).Msg("transport: websocket session ended")
		}
		sink.OnClose()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.ReconnectDelay):
		}
	}
}

func (w *WS) runOnce(ctx context.Context, sink engine.FeedSink) error {
	// connID tags every log line for this dial attempt so repeated
	// reconnects can be told apart in aggregated logs.
	connID := uuid.NewString()
	logger := log.With().Str("conn_id", connID).Str("product", w.cfg.ProductID).Logger()

	dialCtx, cancel := context.WithTimeout(ctx, w.cfg.DialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, w.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	w.conn = conn
	defer conn.Close()

	if err := conn.WriteJSON(subscribeRequest{
		Type:       "subscribe",
		ProductIDs: []string{w.cfg.ProductID},
		Channels:   w.cfg.Channels,
	}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	logger.Info().Msg("transport: subscribed")
	sink.OnOpen()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		msg, skip, err := parseFeedMessage(raw)
		if err != nil {
			logger.Error().Err(err).Msg("transport: discarding malformed message")
			continue
		}
		if skip {
			continue
		}
		sink.OnMessage(msg)
	}
}

// Close closes the underlying connection, if any is open.
func (w *WS) Close() error {
	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}

type subscribeRequest struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

// wireMessage mirrors the exchange's full-channel wire format: prices and
// sizes arrive as decimal strings.
type wireMessage struct {
	Type          string  `json:"type"`
	Sequence      *int64  `json:"sequence"`
	Side          string  `json:"side"`
	OrderID       string  `json:"order_id"`
	MakerOrderID  string  `json:"maker_order_id"`
	Price         *string `json:"price"`
	Size          *string `json:"size"`
	RemainingSize *string `json:"remaining_size"`
	NewSize       *string `json:"new_size"`
}

// parseFeedMessage decodes a wire message into an orderbook.FeedMessage.
// skip is true for message types the book state machine does not model at
// all (e.g. heartbeats) so the caller can drop them before they ever reach
// FullOrderBook.OnMessage.
func parseFeedMessage(raw []byte) (msg orderbook.FeedMessage, skip bool, err error) {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return orderbook.FeedMessage{}, false, fmt.Errorf("%w: %v", ErrMissingField, err)
	}

	switch w.Type {
	case "subscriptions", "heartbeat", "error":
		return orderbook.FeedMessage{}, true, nil
	}

	msg.Type = orderbook.MessageType(w.Type)
	msg.OrderID = w.OrderID
	msg.MakerOrderID = w.MakerOrderID

	// Missing sequence is never valid for ordering.
	if w.Sequence != nil {
		msg.Sequence = *w.Sequence
	} else {
		msg.Sequence = -1
	}

	switch w.Side {
	case "buy":
		msg.Side = book.Buy
	case "sell":
		msg.Side = book.Sell
	}

	if w.Price != nil {
		p, perr := book.ParsePrice(*w.Price)
		if perr != nil {
			return orderbook.FeedMessage{}, false, perr
		}
		msg.Price = p
		msg.PriceSet = true
	}
	if w.Size != nil {
		s, serr := book.ParsePrice(*w.Size)
		if serr != nil {
			return orderbook.FeedMessage{}, false, serr
		}
		msg.Size = s
	}
	if w.RemainingSize != nil {
		s, serr := book.ParsePrice(*w.RemainingSize)
		if serr != nil {
			return orderbook.FeedMessage{}, false, serr
		}
		msg.RemainingSize = s
	}
	if w.NewSize != nil {
		s, serr := book.ParsePrice(*w.NewSize)
		if serr != nil {
			return orderbook.FeedMessage{}, false, serr
		}
		msg.NewSize = s
		msg.NewSizeSet = true
	}

	return msg, false, nil
}

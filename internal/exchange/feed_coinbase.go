package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"revertbot-go/internal/signal"
)

type coinbaseSubscribe struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

type coinbaseTicker struct {
	Type      string          `json:"type"`
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Volume24h decimal.Decimal `json:"volume_24h"`
	Time      time.Time       `json:"time"`
	Message   string          `json:"message"`
	Reason    string          `json:"reason"`
}

// TickerStream reads one ticker message from the Coinbase websocket feed per quote.
type TickerStream struct {
	url              string
	log              zerolog.Logger
	handshakeTimeout time.Duration
	readTimeout      time.Duration
}

// Quote subscribes to the ticker channel for pair and returns the first matching update.
func (s *TickerStream) Quote(ctx context.Context, pair string) (signal.Quote, error) {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if pair == "" {
		return signal.Quote{}, fmt.Errorf("ticker stream requires a pair")
	}

	dialer := websocket.Dialer{HandshakeTimeout: s.handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return signal.Quote{}, fmt.Errorf("dial ticker feed: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sub := coinbaseSubscribe{Type: "subscribe", ProductIDs: []string{pair}, Channels: []string{"ticker"}}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(sub); err != nil {
		return signal.Quote{}, fmt.Errorf("subscribe ticker: %w", err)
	}
	s.log.Debug().Str("pair", pair).Str("url", s.url).Msg("subscribed ticker feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return signal.Quote{}, ctx.Err()
			}
			return signal.Quote{}, fmt.Errorf("read ticker feed: %w", err)
		}

		var msg coinbaseTicker
		if err := json.Unmarshal(message, &msg); err != nil {
			s.log.Warn().Err(err).Msg("failed to decode ticker message")
			continue
		}
		switch msg.Type {
		case "error":
			return signal.Quote{}, fmt.Errorf("ticker feed error: %s %s", msg.Message, msg.Reason)
		case "ticker":
			if !strings.EqualFold(msg.ProductID, pair) {
				continue
			}
			ts := msg.Time
			if ts.IsZero() {
				ts = time.Now().UTC()
			}
			return signal.Quote{Price: msg.Price, Volume: msg.Volume24h, Ts: ts}, nil
		default:
			// subscriptions acks and heartbeats
			continue
		}
	}
}

package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revertbot-go/internal/signal"
)

type staticQuotes struct{ q signal.Quote }

func (s staticQuotes) Quote(context.Context, string) (signal.Quote, error) { return s.q, nil }

func tickerServer(t *testing.T, messages ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err, "upgrade") {
			return
		}
		defer conn.Close()
		var sub coinbaseSubscribe
		if !assert.NoError(t, conn.ReadJSON(&sub), "read subscribe") {
			return
		}
		assert.Equal(t, "subscribe", sub.Type)
		assert.Equal(t, []string{"BTC-USD"}, sub.ProductIDs)
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// keep the connection open until the client hangs up
		_, _, _ = conn.ReadMessage()
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestNewQuoteFeedDefaultsToREST(t *testing.T) {
	rest := staticQuotes{}
	assert.Equal(t, QuoteSource(rest), NewQuoteFeed("", rest, zerolog.Nop()), "REST source for empty provider")
	assert.IsType(t, &TickerStream{}, NewQuoteFeed(ProviderWebsocket, rest, zerolog.Nop()))
}

func TestTickerStreamReturnsFirstMatchingTicker(t *testing.T) {
	server := tickerServer(t,
		`{"type":"subscriptions","channels":[{"name":"ticker","product_ids":["BTC-USD"]}]}`,
		`{"type":"ticker","product_id":"ETH-USD","price":"3000.00","volume_24h":"100"}`,
		`{"type":"ticker","product_id":"BTC-USD","price":"64000.50","volume_24h":"12345.6","time":"2024-03-08T12:00:00.000000Z"}`,
	)
	defer server.Close()

	src := NewQuoteFeed(ProviderWebsocket, nil, zerolog.Nop(), WithTickerURL(wsURL(server)), WithReadTimeout(2*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	q, err := src.Quote(ctx, "btc-usd")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("64000.50")), q.Price.String())
	assert.True(t, q.Volume.Equal(decimal.RequireFromString("12345.6")), q.Volume.String())
	assert.Equal(t, 2024, q.Ts.Year(), "ticker timestamp")
}

func TestTickerStreamSurfacesFeedError(t *testing.T) {
	server := tickerServer(t, `{"type":"error","message":"Failed to subscribe","reason":"BTC-USD is delisted"}`)
	defer server.Close()

	src := NewQuoteFeed(ProviderWebsocket, nil, zerolog.Nop(), WithTickerURL(wsURL(server)))
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := src.Quote(ctx, "BTC-USD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, StatusDone.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusUnknown.Terminal())
}

// Package coinbase implements the venue capability set against the Coinbase Exchange REST API.
package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"revertbot-go/internal/exchange"
	"revertbot-go/internal/signal"
)

const (
	// ProductionURL is the Coinbase Exchange REST endpoint.
	ProductionURL = "https://api.exchange.coinbase.com"
	// SandboxURL is the public sandbox REST endpoint.
	SandboxURL = "https://api-public.sandbox.exchange.coinbase.com"

	defaultTimeout           = 10 * time.Second
	defaultRequestsPerSecond = 10
)

// Config holds connection and credential settings for the client.
type Config struct {
	BaseURL           string
	APIKey            string
	APISecret         string
	Passphrase        string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client talks to Coinbase Exchange. Credentials are only needed for order endpoints.
type Client struct {
	http    *resty.Client
	signer  *Signer
	limiter *rate.Limiter
	log     zerolog.Logger
	now     func() time.Time
}

var _ exchange.Venue = (*Client)(nil)

// NewClient builds a client; an empty BaseURL targets production.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = ProductionURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	signer, err := NewSigner(cfg.APIKey, cfg.APISecret, cfg.Passphrase)
	if err != nil {
		return nil, err
	}
	httpClient := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "revertbot-go/1.0")

	return &Client{
		http:    httpClient,
		signer:  signer,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     log,
		now:     time.Now,
	}, nil
}

// Close wipes credentials held by the client.
func (c *Client) Close() error {
	c.signer.Wipe()
	return nil
}

// HistoricBars returns candles at the requested granularity, newest first as the venue sends them.
func (c *Client) HistoricBars(ctx context.Context, pair string, granularity time.Duration) ([]exchange.Bar, error) {
	q := url.Values{}
	q.Set("granularity", strconv.FormatInt(int64(granularity/time.Second), 10))
	path := fmt.Sprintf("/products/%s/candles?%s", url.PathEscape(pair), q.Encode())

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, apiError(resp, "get candles")
	}

	// rows are [time, low, high, open, close, volume]
	var rows [][]json.Number
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, malformed(err, "decode candles")
	}
	bars := make([]exchange.Bar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, errors.Wrapf(exchange.ErrBadResponse, "candle row has %d fields, want 6", len(row))
		}
		ts, err := row[0].Int64()
		if err != nil {
			return nil, malformed(err, fmt.Sprintf("parse candle time %q", row[0]))
		}
		var vals [5]decimal.Decimal
		for i := range vals {
			v, err := decimal.NewFromString(row[i+1].String())
			if err != nil {
				return nil, malformed(err, fmt.Sprintf("parse candle field %d %q", i+1, row[i+1]))
			}
			vals[i] = v
		}
		bars = append(bars, exchange.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Low:    vals[0],
			High:   vals[1],
			Open:   vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	c.log.Debug().Str("pair", pair).Int("bars", len(bars)).Msg("fetched candles")
	return bars, nil
}

// Quote reads the last trade price and 24h volume from the product ticker.
func (c *Client) Quote(ctx context.Context, pair string) (signal.Quote, error) {
	path := fmt.Sprintf("/products/%s/ticker", url.PathEscape(pair))
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return signal.Quote{}, err
	}
	if !resp.IsSuccess() {
		return signal.Quote{}, apiError(resp, "get ticker")
	}
	var tk tickerResponse
	if err := json.Unmarshal(resp.Body(), &tk); err != nil {
		return signal.Quote{}, malformed(err, "decode ticker")
	}
	ts := tk.Time
	if ts.IsZero() {
		ts = c.now().UTC()
	}
	return signal.Quote{Price: tk.Price, Volume: tk.Volume, Ts: ts}, nil
}

// PlaceOrder submits a GTC limit order tagged with a fresh client_oid.
func (c *Client) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderAck, error) {
	body, err := json.Marshal(placeOrderRequest{
		ClientOID:   uuid.NewString(),
		ProductID:   req.Pair,
		Side:        strings.ToLower(string(req.Side)),
		Type:        "limit",
		Price:       req.LimitPrice.String(),
		Size:        req.Size.String(),
		TimeInForce: "GTC",
	})
	if err != nil {
		return exchange.OrderAck{}, errors.Wrap(err, "encode order")
	}
	resp, err := c.do(ctx, http.MethodPost, "/orders", body)
	if err != nil {
		return exchange.OrderAck{}, err
	}
	if resp.StatusCode() == http.StatusBadRequest {
		return exchange.OrderAck{}, errors.Wrapf(exchange.ErrRejected, "place order: %s", errorMessage(resp))
	}
	if !resp.IsSuccess() {
		return exchange.OrderAck{}, apiError(resp, "place order")
	}
	var order orderResponse
	if err := json.Unmarshal(resp.Body(), &order); err != nil {
		return exchange.OrderAck{}, malformed(err, "decode order")
	}
	status := mapStatus(order)
	if status == exchange.StatusRejected {
		return exchange.OrderAck{}, errors.Wrapf(exchange.ErrRejected, "order %s: %s", order.ID, order.DoneReason)
	}
	return exchange.OrderAck{ID: order.ID, Status: status}, nil
}

// OrderStatus polls a single order. Orders purged after cancellation without fills report REJECTED.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (exchange.OrderStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return exchange.StatusUnknown, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return exchange.StatusRejected, nil
	}
	if !resp.IsSuccess() {
		return exchange.StatusUnknown, apiError(resp, "get order")
	}
	var order orderResponse
	if err := json.Unmarshal(resp.Body(), &order); err != nil {
		return exchange.StatusUnknown, malformed(err, "decode order")
	}
	c.log.Debug().
		Str("order_id", order.ID).
		Str("status", order.Status).
		Str("done_reason", order.DoneReason).
		Str("filled_size", order.FilledSize.String()).
		Msg("order status")
	return mapStatus(order), nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", exchange.ErrTransport, err)
	}
	r := c.http.R().SetContext(ctx)
	if body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if c.signer != nil {
		r.SetHeaders(c.signer.Headers(c.now(), method, path, body))
	}
	resp, err := r.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", exchange.ErrTransport, method, path, err)
	}
	return resp, nil
}

func mapStatus(o orderResponse) exchange.OrderStatus {
	switch strings.ToLower(o.Status) {
	case "done":
		if o.DoneReason == "" || strings.EqualFold(o.DoneReason, "filled") {
			return exchange.StatusDone
		}
		return exchange.StatusRejected
	case "rejected":
		return exchange.StatusRejected
	case "pending", "received", "open", "active":
		return exchange.StatusPending
	default:
		return exchange.StatusUnknown
	}
}

func errorMessage(resp *resty.Response) string {
	var body errorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(resp.Body()))
}

func apiError(resp *resty.Response, op string) error {
	return errors.Wrapf(exchange.ErrBadResponse, "%s: http %d: %s", op, resp.StatusCode(), errorMessage(resp))
}

// malformed tags a decode failure as a bad response while keeping the cause.
func malformed(err error, op string) error {
	return errors.Wrap(fmt.Errorf("%w: %w", exchange.ErrBadResponse, err), op)
}

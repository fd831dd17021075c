// Package exchange hosts the venue capability interface and live quote sources.
package exchange

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// ProviderREST reads quotes from the venue's REST ticker endpoint.
	ProviderREST = "rest"
	// ProviderWebsocket reads the first ticker message from the Coinbase websocket feed.
	ProviderWebsocket = "websocket"
)

const (
	// DefaultTickerURL is the Coinbase Exchange production websocket feed.
	DefaultTickerURL = "wss://ws-feed.exchange.coinbase.com"
	// SandboxTickerURL is the Coinbase Exchange sandbox websocket feed.
	SandboxTickerURL = "wss://ws-feed-public.sandbox.exchange.coinbase.com"

	defaultHandshakeTimeout = 10 * time.Second
	defaultReadTimeout      = 30 * time.Second
)

type feedOptions struct {
	tickerURL        string
	handshakeTimeout time.Duration
	readTimeout      time.Duration
}

// Option configures quote feed construction parameters.
type Option func(*feedOptions)

// WithTickerURL overrides the websocket endpoint.
func WithTickerURL(url string) Option {
	return func(o *feedOptions) {
		if url != "" {
			o.tickerURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithReadTimeout bounds how long the websocket source waits for a ticker message.
func WithReadTimeout(d time.Duration) Option {
	return func(o *feedOptions) {
		if d > 0 {
			o.readTimeout = d
		}
	}
}

// WithHandshakeTimeout bounds the websocket dial.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *feedOptions) {
		if d > 0 {
			o.handshakeTimeout = d
		}
	}
}

// NewQuoteFeed picks the live quote source for the requested provider. Unknown or empty
// providers fall back to the REST source.
func NewQuoteFeed(provider string, rest QuoteSource, log zerolog.Logger, opts ...Option) QuoteSource {
	o := feedOptions{
		tickerURL:        DefaultTickerURL,
		handshakeTimeout: defaultHandshakeTimeout,
		readTimeout:      defaultReadTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderWebsocket, "ws":
		return &TickerStream{
			url:              o.tickerURL,
			log:              log,
			handshakeTimeout: o.handshakeTimeout,
			readTimeout:      o.readTimeout,
		}
	default:
		return rest
	}
}

// Package app assembles a trading run from configuration.
package app

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"revertbot-go/internal/config"
	"revertbot-go/internal/exchange"
	"revertbot-go/internal/exchange/coinbase"
	"revertbot-go/internal/execution"
	"revertbot-go/internal/ledger"
	"revertbot-go/internal/market"
	"revertbot-go/internal/paper"
	"revertbot-go/internal/risk"
	"revertbot-go/internal/strategy"
	"revertbot-go/internal/trader"
)

// Runtime holds the wired controller and the resources that need releasing.
type Runtime struct {
	Controller *trader.Controller
	Ledger     *ledger.Ledger
	Paper      *paper.Venue

	closers []func() error
}

// Close releases the journal and wipes credentials.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

type executionVenue struct {
	exchange.QuoteSource
	exchange.Trading
}

// New wires market data, strategy, executor and ledger for cfg. Extra executor options are
// appended after the configured ones.
func New(cfg *config.Config, log zerolog.Logger, extra ...execution.Option) (*Runtime, error) {
	rt := &Runtime{}

	baseURL := cfg.Exchange.BaseURL
	tickerURL := cfg.Exchange.WebsocketURL
	if cfg.Exchange.Sandbox {
		if baseURL == "" {
			baseURL = coinbase.SandboxURL
		}
		if tickerURL == "" {
			tickerURL = exchange.SandboxTickerURL
		}
	}

	isPaper := strings.EqualFold(cfg.Exchange.Name, config.ExchangePaper)
	ccfg := coinbase.Config{
		BaseURL:           baseURL,
		Timeout:           time.Duration(cfg.Exchange.TimeoutMs) * time.Millisecond,
		RequestsPerSecond: cfg.Exchange.RequestsPerSecond,
		Burst:             cfg.Exchange.Burst,
	}
	if !isPaper {
		ccfg.APIKey = cfg.Exchange.APIKey
		ccfg.APISecret = cfg.Exchange.APISecret
		ccfg.Passphrase = cfg.Exchange.Passphrase
	}
	client, err := coinbase.NewClient(ccfg, log.With().Str("component", "coinbase").Logger())
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, client.Close)

	var venue exchange.Venue = client
	if isPaper {
		account := paper.NewAccount(cfg.Trading.AvailableFunds, cfg.Paper.MaxPositionPerPair)
		account.Seed(cfg.Trading.Pair, cfg.Trading.AssetBalance, decimal.Zero)
		rt.Paper = paper.NewVenue(client, account, log.With().Str("component", "paper").Logger())
		venue = rt.Paper
	}

	quotes := exchange.NewQuoteFeed(cfg.Exchange.QuoteSource, venue, log.With().Str("component", "feed").Logger(),
		exchange.WithTickerURL(tickerURL))

	strat, err := strategy.Build(cfg.Trading.Strategy, strategy.Params{
		PriceThresholdPct:  cfg.Trading.PriceThresholdPct,
		VolumeThresholdPct: cfg.Trading.VolumeThresholdPct,
	})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.Ledger = ledger.New(cfg.Trading.AssetBalance, cfg.Trading.AvailableFunds)

	opts := []execution.Option{
		execution.WithSettlement(execution.Settlement{
			Delay:       cfg.Settlement.Delay,
			MaxAttempts: cfg.Settlement.MaxAttempts,
			MaxBackoff:  cfg.Settlement.MaxBackoff,
			Timeout:     cfg.Settlement.Timeout,
		}),
		execution.WithRiskLimits(risk.Limits{MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade}),
	}
	if cfg.Trading.JournalPath != "" {
		journal, err := paper.NewJSONLRecorder(cfg.Trading.JournalPath, log)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, journal.Close)
		opts = append(opts, execution.WithRecorder(journal))
	}
	opts = append(opts, extra...)

	executor := execution.NewExecutor(executionVenue{QuoteSource: quotes, Trading: venue}, rt.Ledger,
		log.With().Str("component", "executor").Logger(), opts...)
	fetcher := market.NewFetcher(venue, log.With().Str("component", "market").Logger())

	rt.Controller = trader.NewController(fetcher, quotes, strat, executor, rt.Ledger, log)
	return rt, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"revertbot-go/internal/app"
	"revertbot-go/internal/config"
	"revertbot-go/internal/metrics"
	"revertbot-go/internal/paper"
	"revertbot-go/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", defaultConfigPath, "path to the YAML config")
	pair := flag.String("pair", "", "product to trade, e.g. BTC-USD")
	balance := flag.String("balance", "", "starting asset balance")
	funds := flag.String("funds", "", "starting available funds")
	size := flag.String("size", "", "asset units bought per BUY")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	if err := applyFlags(cfg, *pair, *balance, *funds, *size); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		return 1
	}

	log, closer, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		return 1
	}
	defer closer.Close()

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := app.New(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("wire run")
		return 1
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn().Err(err).Msg("close runtime")
		}
	}()

	log.Info().
		Str("exchange", cfg.Exchange.Name).
		Str("pair", cfg.Trading.Pair).
		Str("trade_size", cfg.Trading.TradeSize.String()).
		Msg("run started")
	report, runErr := rt.Controller.Run(ctx, cfg.Trading.Pair, cfg.Trading.TradeSize)

	exitCtx, exitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer exitCancel()
	if rt.Paper != nil {
		logPaperSummary(exitCtx, log, rt.Paper, cfg.Trading.Pair, report.Outcome.Result.OrderID)
	}
	if err := metrics.Push(exitCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
		log.Warn().Err(err).Msg("metrics push failed")
	}

	fmt.Println(report.String())
	if runErr != nil {
		return 1
	}
	return 0
}

func applyFlags(cfg *config.Config, pair, balance, funds, size string) error {
	if pair != "" {
		cfg.Trading.Pair = pair
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"balance", balance, &cfg.Trading.AssetBalance},
		{"funds", funds, &cfg.Trading.AvailableFunds},
		{"size", size, &cfg.Trading.TradeSize},
	} {
		if f.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return fmt.Errorf("-%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return nil
}

// logPaperSummary reports the simulated account after the run.
func logPaperSummary(ctx context.Context, log zerolog.Logger, venue *paper.Venue, pair, orderID string) {
	if orderID != "" {
		if fill, ok := venue.Fill(orderID); ok {
			log.Info().
				Str("order_id", fill.OrderID).
				Str("side", string(fill.Side)).
				Str("size", fill.Size.String()).
				Str("px", fill.Price.String()).
				Msg("paper fill this run")
		}
	}
	sum, err := venue.Summary(ctx, pair)
	if err != nil {
		log.Warn().Err(err).Msg("paper summary unavailable")
		return
	}
	log.Info().
		Str("pair", sum.Pair).
		Str("starting_cash", sum.StartingCash.String()).
		Str("cash", sum.Cash.String()).
		Str("position", sum.Position.String()).
		Str("realized_pnl", sum.RealizedPnL.String()).
		Str("equity", sum.Equity.String()).
		Int("fills", sum.Fills).
		Msg("paper account")
}

func newLogger(cfg *config.Config) (zerolog.Logger, io.Closer, error) {
	if cfg.App.LogFile == "" {
		return util.NewLogger(cfg.App.LogLevel), io.NopCloser(nil), nil
	}
	return util.NewFileLogger(cfg.App.LogLevel, cfg.App.LogFile, util.FileOptions{})
}

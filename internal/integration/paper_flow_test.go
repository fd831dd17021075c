package integration

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revertbot-go/internal/app"
	"revertbot-go/internal/config"
	"revertbot-go/internal/exchange"
	"revertbot-go/internal/execution"
	"revertbot-go/internal/market"
	"revertbot-go/internal/signal"
)

type fakeCoinbase struct {
	mu          sync.Mutex
	price       string
	volume      string
	orderStatus string
	doneReason  string
	orders      []map[string]string
	signed      bool
	delisted    bool
}

func (f *fakeCoinbase) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case strings.HasSuffix(r.URL.Path, "/candles") && f.delisted:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"NotFound"}`)
	case strings.HasSuffix(r.URL.Path, "/candles"):
		today := time.Now().UTC().Truncate(24 * time.Hour)
		rows := make([][]float64, 0, 10)
		for i := 0; i < 10; i++ {
			ts := float64(today.AddDate(0, 0, -i).Unix())
			rows = append(rows, []float64{ts, 95, 105, 100, 100, 1000})
		}
		_ = json.NewEncoder(w).Encode(rows)
	case strings.HasSuffix(r.URL.Path, "/ticker"):
		fmt.Fprintf(w, `{"price":%q,"volume":%q}`, f.price, f.volume)
	case r.Method == http.MethodPost && r.URL.Path == "/orders":
		f.signed = r.Header.Get("CB-ACCESS-SIGN") != ""
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.orders = append(f.orders, body)
		fmt.Fprint(w, `{"id":"live-1","status":"pending"}`)
	case r.Method == http.MethodGet && r.URL.Path == "/orders/live-1":
		fmt.Fprintf(w, `{"id":"live-1","status":%q,"done_reason":%q}`, f.orderStatus, f.doneReason)
	default:
		http.NotFound(w, r)
	}
}

func baseConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Exchange.BaseURL = url
	cfg.Exchange.RequestsPerSecond = 1000
	cfg.Trading.Pair = "BTC-USD"
	cfg.Trading.AvailableFunds = decimal.NewFromInt(1000)
	cfg.Trading.TradeSize = decimal.RequireFromString("0.5")
	return cfg
}

func noWait(context.Context, time.Duration) error { return nil }

func TestPaperRunBuysAndJournals(t *testing.T) {
	cb := &fakeCoinbase{price: "80", volume: "2000"}
	srv := httptest.NewServer(cb)
	defer srv.Close()

	cfg := baseConfig(srv.URL)
	cfg.Trading.JournalPath = filepath.Join(t.TempDir(), "fills.jsonl")

	rt, err := app.New(cfg, zerolog.Nop(), execution.WithSleeper(noWait))
	require.NoError(t, err)
	report, err := rt.Controller.Run(context.Background(), cfg.Trading.Pair, cfg.Trading.TradeSize)
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	assert.Equal(t, signal.Buy, report.Decision.Action)
	require.True(t, report.Outcome.Filled, report.String())
	assert.True(t, report.Ledger.AssetBalance.Equal(decimal.RequireFromString("0.5")), report.Ledger.AssetBalance.String())
	assert.True(t, report.Ledger.AvailableFunds.Equal(decimal.NewFromInt(960)), report.Ledger.AvailableFunds.String())
	assert.Len(t, rt.Paper.Fills(), 1)
	assert.Empty(t, cb.orders, "paper run must not hit the order endpoint")

	paperFill, ok := rt.Paper.Fill(report.Outcome.Result.OrderID)
	require.True(t, ok)
	assert.True(t, paperFill.Size.Equal(decimal.RequireFromString("0.5")))

	sum, err := rt.Paper.Summary(context.Background(), cfg.Trading.Pair)
	require.NoError(t, err)
	assert.True(t, sum.StartingCash.Equal(decimal.NewFromInt(1000)), sum.StartingCash.String())
	assert.True(t, sum.Cash.Equal(decimal.NewFromInt(960)), sum.Cash.String())
	assert.True(t, sum.Equity.Equal(decimal.NewFromInt(1000)), sum.Equity.String())
	assert.True(t, sum.RealizedPnL.IsZero())

	file, err := os.Open(cfg.Trading.JournalPath)
	require.NoError(t, err)
	defer file.Close()
	var fill execution.Fill
	scanner := bufio.NewScanner(file)
	require.True(t, scanner.Scan(), "expected journal line")
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &fill))
	assert.Equal(t, "BTC-USD", fill.Pair)
	assert.True(t, fill.Price.Equal(decimal.NewFromInt(80)), fill.Price.String())
}

func TestPaperRunUndeterminedLeavesLedger(t *testing.T) {
	cb := &fakeCoinbase{price: "80", volume: "1300"}
	srv := httptest.NewServer(cb)
	defer srv.Close()

	cfg := baseConfig(srv.URL)
	rt, err := app.New(cfg, zerolog.Nop(), execution.WithSleeper(noWait))
	require.NoError(t, err)
	defer rt.Close()

	report, err := rt.Controller.Run(context.Background(), cfg.Trading.Pair, cfg.Trading.TradeSize)
	require.NoError(t, err)
	assert.Equal(t, signal.Undetermined, report.Decision.Action)
	assert.Equal(t, execution.StatusNoAction, report.Outcome.Status)
	assert.Empty(t, rt.Paper.Fills())
}

func TestRunUnknownProductIsDataUnavailable(t *testing.T) {
	cb := &fakeCoinbase{price: "80", volume: "2000", delisted: true}
	srv := httptest.NewServer(cb)
	defer srv.Close()

	cfg := baseConfig(srv.URL)
	rt, err := app.New(cfg, zerolog.Nop(), execution.WithSleeper(noWait))
	require.NoError(t, err)
	defer rt.Close()

	_, err = rt.Controller.Run(context.Background(), cfg.Trading.Pair, cfg.Trading.TradeSize)
	require.ErrorIs(t, err, market.ErrDataUnavailable)
	assert.NotErrorIs(t, err, exchange.ErrTransport)
	assert.Empty(t, rt.Paper.Fills())
}

func liveConfig(url string) *config.Config {
	cfg := baseConfig(url)
	cfg.Exchange.Name = config.ExchangeCoinbase
	cfg.Exchange.APIKey = "key"
	cfg.Exchange.APISecret = base64.StdEncoding.EncodeToString([]byte("secret"))
	cfg.Exchange.Passphrase = "phrase"
	cfg.Settlement.MaxAttempts = 1
	return cfg
}

func TestLiveRunBuySettles(t *testing.T) {
	cb := &fakeCoinbase{price: "80", volume: "2000", orderStatus: "done", doneReason: "filled"}
	srv := httptest.NewServer(cb)
	defer srv.Close()

	cfg := liveConfig(srv.URL)
	rt, err := app.New(cfg, zerolog.Nop(), execution.WithSleeper(noWait))
	require.NoError(t, err)
	defer rt.Close()

	report, err := rt.Controller.Run(context.Background(), cfg.Trading.Pair, cfg.Trading.TradeSize)
	require.NoError(t, err)
	assert.True(t, report.Outcome.Filled, report.String())
	assert.Nil(t, rt.Paper)
	assert.True(t, cb.signed, "order must be signed")
	require.Len(t, cb.orders, 1)
	assert.Equal(t, "buy", cb.orders[0]["side"])
	assert.Equal(t, "80", cb.orders[0]["price"])
	assert.Equal(t, "0.5", cb.orders[0]["size"])
	assert.True(t, report.Ledger.AvailableFunds.Equal(decimal.NewFromInt(960)), report.Ledger.AvailableFunds.String())
}

func TestLiveRunSellCanceledLeavesLedger(t *testing.T) {
	cb := &fakeCoinbase{price: "110", volume: "900", orderStatus: "done", doneReason: "canceled"}
	srv := httptest.NewServer(cb)
	defer srv.Close()

	cfg := liveConfig(srv.URL)
	cfg.Trading.AssetBalance = decimal.RequireFromString("0.01")
	rt, err := app.New(cfg, zerolog.Nop(), execution.WithSleeper(noWait))
	require.NoError(t, err)
	defer rt.Close()

	report, err := rt.Controller.Run(context.Background(), cfg.Trading.Pair, cfg.Trading.TradeSize)
	require.NoError(t, err)
	assert.Equal(t, signal.Sell, report.Decision.Action)
	assert.False(t, report.Outcome.Filled)
	require.Len(t, cb.orders, 1)
	assert.Equal(t, "0.01", cb.orders[0]["size"], "full-position sell")
	assert.True(t, report.Ledger.AssetBalance.Equal(decimal.RequireFromString("0.01")), report.Ledger.AssetBalance.String())
	assert.True(t, report.Ledger.AvailableFunds.Equal(decimal.NewFromInt(1000)), report.Ledger.AvailableFunds.String())
	assert.Contains(t, report.String(), "Sell Order Execution Unsuccessful")
}

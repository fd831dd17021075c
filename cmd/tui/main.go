package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"revertbot-go/internal/config"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== RevertBot Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit balances and trade size")
		fmt.Println("3) Edit signal and settlement settings")
		fmt.Println("4) Save config")
		fmt.Println("5) Run once")
		fmt.Println("6) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editTrading(reader, cfg)
		case "3":
			editSignal(reader, cfg)
		case "4":
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "not saved: %v\n", err)
			} else if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "5":
			launchRun(reader)
		case "6":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Exchange: %s (sandbox=%t, quotes=%s)\n", cfg.Exchange.Name, cfg.Exchange.Sandbox, cfg.Exchange.QuoteSource)
	fmt.Printf("Pair: %s | strategy: %s\n", cfg.Trading.Pair, cfg.Trading.Strategy)
	fmt.Printf("Asset balance: %s | available funds: $%s\n", cfg.Trading.AssetBalance, cfg.Trading.AvailableFunds.StringFixed(2))
	fmt.Printf("Trade size: %s\n", cfg.Trading.TradeSize)
	fmt.Printf("Thresholds: price %.2f%% | volume %.2f%%\n", cfg.Trading.PriceThresholdPct, cfg.Trading.VolumeThresholdPct)
	fmt.Printf("Settlement: delay %s, %d attempts, backoff cap %s, timeout %s\n",
		cfg.Settlement.Delay, cfg.Settlement.MaxAttempts, cfg.Settlement.MaxBackoff, cfg.Settlement.Timeout)
	fmt.Printf("Per-trade notional cap: $%s\n", cfg.Risk.MaxNotionalPerTrade.StringFixed(2))
	fmt.Printf("Paper position cap: %s\n", cfg.Paper.MaxPositionPerPair)
}

func editTrading(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Balances ---")
	fmt.Printf("Pair [%s]: ", cfg.Trading.Pair)
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		cfg.Trading.Pair = strings.ToUpper(strings.TrimSpace(line))
	}
	cfg.Trading.AssetBalance = promptDecimal(reader, "Asset balance", cfg.Trading.AssetBalance)
	cfg.Trading.AvailableFunds = promptDecimal(reader, "Available funds", cfg.Trading.AvailableFunds)
	cfg.Trading.TradeSize = promptDecimal(reader, "Trade size (units per BUY)", cfg.Trading.TradeSize)
	cfg.Risk.MaxNotionalPerTrade = promptDecimal(reader, "Max notional per trade (0 disables)", cfg.Risk.MaxNotionalPerTrade)
}

func editSignal(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Signal / Settlement ---")
	cfg.Trading.PriceThresholdPct = promptFloat(reader, "Price threshold (%)", cfg.Trading.PriceThresholdPct)
	cfg.Trading.VolumeThresholdPct = promptFloat(reader, "Volume threshold (%)", cfg.Trading.VolumeThresholdPct)
	cfg.Settlement.Delay = promptDuration(reader, "Settlement delay", cfg.Settlement.Delay)
	cfg.Settlement.MaxAttempts = int(promptFloat(reader, "Status poll attempts", float64(cfg.Settlement.MaxAttempts)))
	cfg.Settlement.Timeout = promptDuration(reader, "Settlement timeout", cfg.Settlement.Timeout)
}

func launchRun(reader *bufio.Reader) {
	fmt.Println("Running one trading cycle...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/revertbot", "-config", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start bot: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to return to menu (aborts the run if still settling)...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptDecimal(reader *bufio.Reader, label string, current decimal.Decimal) decimal.Decimal {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := decimal.NewFromString(line)
	if err != nil {
		fmt.Printf("invalid number, keeping %s\n", current)
		return current
	}
	return val
}

func promptDuration(reader *bufio.Reader, label string, current time.Duration) time.Duration {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := time.ParseDuration(line)
	if err != nil || val < 0 {
		fmt.Printf("invalid duration, keeping %s\n", current)
		return current
	}
	return val
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}

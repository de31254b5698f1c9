package cmd

import (
	"context"
	"fmt"

	"margintrader/exchange"
	"margintrader/market"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download kline history from Binance to a candle CSV",
	Long: `Fetch downloads closed klines from the Binance futures API and writes
them to a CSV usable by the backtest command. Klines are public data, no
credentials are needed.

Example:
  margintrader fetch --symbol BTCUSDT --interval 1h --days 30 --output btcusdt-1h.csv`,
	RunE: runFetch,
}

var (
	fetchSymbol   string
	fetchInterval string
	fetchDays     int
	fetchOutput   string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchSymbol, "symbol", "s", "BTCUSDT", "instrument symbol")
	fetchCmd.Flags().StringVarP(&fetchInterval, "interval", "i", "1h", "kline interval (1m, 5m, 15m, 1h, 4h, 1d)")
	fetchCmd.Flags().IntVarP(&fetchDays, "days", "d", 30, "days of history")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "output CSV path (required)")
	fetchCmd.MarkFlagRequired("output")
}

func runFetch(cmd *cobra.Command, args []string) error {
	interval := market.Interval(fetchInterval)
	if interval.Duration() == 0 {
		return fmt.Errorf("unknown interval: %s", fetchInterval)
	}

	exch := exchange.NewBinance("", "")
	candles, err := exch.Klines(context.Background(), fetchSymbol, interval, fetchDays)
	if err != nil {
		return fmt.Errorf("fetch klines: %w", err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("no klines returned for %s", fetchSymbol)
	}

	if err := market.SaveCSV(fetchOutput, candles); err != nil {
		return fmt.Errorf("save csv: %w", err)
	}

	fmt.Printf("Wrote %d candles to %s\n", len(candles), fetchOutput)
	fmt.Printf("  Range: %s .. %s\n",
		candles[0].Time.Format("2006-01-02 15:04"),
		candles[len(candles)-1].Time.Format("2006-01-02 15:04"))
	return nil
}

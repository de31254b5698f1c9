package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "margintrader",
	Short: "A leveraged crypto futures trading bot for Binance",
	Long: `Margintrader runs a single-instrument leveraged trading strategy
against Binance USDT-margined futures.

It provides tools for:
  - Live trading driven by closed klines over a websocket stream
  - Backtesting strategies against historical candle CSVs
  - Downloading kline history from Binance
  - Fee-aware position sizing with isolated margin
  - Trade journaling to CSV or SQLite
  - Periodic performance reports over Telegram`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

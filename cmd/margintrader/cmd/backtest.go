package cmd

import (
	"context"
	"fmt"

	"margintrader/agent"
	"margintrader/backtest"
	"margintrader/journal"
	"margintrader/ledger"
	"margintrader/strategies"

	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay a candle CSV through the MACD crossover strategy",
	Long: `Backtest replays historical candles from a CSV (see the fetch command)
through the strategy and prints the resulting performance report.

Example:
  margintrader backtest --candles btcusdt-1h.csv --capital 100 --leverage 2`,
	RunE: runBacktest,
}

var (
	btCandlesPath string
	btSymbol      string
	btCapital     float64
	btFeeRate     float64
	btLeverage    float64
	btPrecision   int
	btCloseEnd    bool
	btDBPath      string
	btFast        int
	btSlow        int
	btSignal      int
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btCandlesPath, "candles", "c", "", "path to candle CSV (required)")
	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "s", "BTCUSDT", "instrument symbol for reporting")
	backtestCmd.Flags().Float64VarP(&btCapital, "capital", "b", 100, "starting capital")
	backtestCmd.Flags().Float64Var(&btFeeRate, "fee", 0.0005, "taker fee rate")
	backtestCmd.Flags().Float64VarP(&btLeverage, "leverage", "l", 2, "leverage multiplier")
	backtestCmd.Flags().IntVarP(&btPrecision, "precision", "p", 3, "quantity precision (decimal places)")
	backtestCmd.Flags().BoolVar(&btCloseEnd, "close-end", true, "close any open position at the last candle")
	backtestCmd.Flags().StringVarP(&btDBPath, "db", "d", "", "optional SQLite journal path")

	backtestCmd.Flags().IntVar(&btFast, "fast", 12, "MACD fast EMA period")
	backtestCmd.Flags().IntVar(&btSlow, "slow", 26, "MACD slow EMA period")
	backtestCmd.Flags().IntVar(&btSignal, "signal", 9, "MACD signal EMA period")

	backtestCmd.MarkFlagRequired("candles")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	feed, err := backtest.NewCSVFeed(btCandlesPath)
	if err != nil {
		return fmt.Errorf("open candles: %w", err)
	}

	var jrnl journal.Journal
	if btDBPath != "" {
		jrnl, err = journal.NewSQLite(btDBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer jrnl.Close()
	}

	strat := strategies.NewMACDCross(strategies.MACDCrossConfig{
		FastPeriod:   btFast,
		SlowPeriod:   btSlow,
		SignalPeriod: btSignal,
	})

	led := ledger.New(btCapital, btFeeRate, btLeverage, btPrecision)
	a := agent.New(led, nil, nil, jrnl, btSymbol)

	runner := &backtest.Runner{
		Agent:    a,
		Feed:     feed,
		Strategy: strat,
		Options:  backtest.RunnerOptions{CloseEnd: btCloseEnd},
	}

	fmt.Printf("Running backtest with strategy: %s\n", strat.Name())
	fmt.Printf("  Candles: %s\n\n", btCandlesPath)

	res, err := runner.Run(context.Background())
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	fmt.Printf("Backtest Complete!\n")
	fmt.Printf("  Range: %s .. %s (%d candles)\n",
		res.Start.Format("2006-01-02 15:04"),
		res.End.Format("2006-01-02 15:04"),
		res.Candles)
	fmt.Println()
	fmt.Print(res.Report.String())

	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"margintrader/agent"
	"margintrader/config"
	"margintrader/exchange"
	"margintrader/journal"
	"margintrader/ledger"
	"margintrader/market"
	"margintrader/notify"
	"margintrader/strategies"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trade live against Binance futures",
	Long: `Run the trading loop: warm the strategy with recent klines, then act
on each closed kline from the websocket stream. A performance report goes
out over the notification channel at the end of every report cycle.

The exchange credentials come from the environment variables named in the
config file. Stop with Ctrl-C; any open position stays open on the exchange.

Example:
  margintrader run --config margintrader.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func buildJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.FillsFile, cfg.Journal.ProfitsFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Telegram.ChatID != "" && cfg.BotToken() != "" {
		return notify.NewTelegram(cfg.BotToken(), cfg.Telegram.ChatID)
	}
	return notify.Log{}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.APIKey() == "" || cfg.SecretKey() == "" {
		return fmt.Errorf("exchange credentials missing: set %s and %s",
			cfg.Trading.APIKeyEnv, cfg.Trading.SecretKeyEnv)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exch := exchange.NewBinance(cfg.APIKey(), cfg.SecretKey())

	precision, err := exch.SymbolPrecision(ctx, cfg.Trading.Symbol)
	if err != nil {
		return fmt.Errorf("symbol precision: %w", err)
	}

	jrnl, err := buildJournal(cfg)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer jrnl.Close()

	led := ledger.New(cfg.Account.InitialCapital, cfg.Account.FeeRate, cfg.Account.Leverage, precision)
	a := agent.New(led, exch, buildNotifier(cfg), jrnl, cfg.Trading.Symbol)

	if err := a.Setup(ctx); err != nil {
		return fmt.Errorf("exchange setup: %w", err)
	}

	strat := strategies.NewMACDCross(strategies.MACDCrossConfig{
		FastPeriod:   cfg.Strategy.FastPeriod,
		SlowPeriod:   cfg.Strategy.SlowPeriod,
		SignalPeriod: cfg.Strategy.SignalPeriod,
	})

	fmt.Printf("Trading %s @ %s with %s\n", cfg.Trading.Symbol, cfg.Trading.Interval, strat.Name())
	fmt.Printf("  Capital: %.2f (fee %.4f, leverage %.0fx, precision %d)\n",
		cfg.Account.InitialCapital, cfg.Account.FeeRate, cfg.Account.Leverage, precision)

	loop := &liveLoop{
		cfg:      cfg,
		exch:     exch,
		agent:    a,
		strategy: strat,
	}
	return loop.run(ctx)
}

// liveLoop drives the agent from closed klines.
type liveLoop struct {
	cfg      *config.Config
	exch     *exchange.Binance
	agent    *agent.Agent
	strategy strategies.Strategy

	// window holds the candles of the current report cycle, newest last.
	window []market.Candle
}

func (l *liveLoop) run(ctx context.Context) error {
	if err := l.warmup(ctx); err != nil {
		return err
	}

	var reports <-chan time.Time
	if h := l.cfg.Trading.ReportCycleHours; h > 0 {
		t := time.NewTicker(time.Duration(h) * time.Hour)
		defer t.Stop()
		reports = t.C
	}

	for {
		err := l.stream(ctx, reports)
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			log.Printf("shutting down")
			return nil
		}
		// TODO: backfill klines missed during the gap before resuming
		log.Printf("stream error, reconnecting in 5s: %v", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
		}
	}
}

// warmup seeds the strategy with recent history so it is ready before the
// first live candle. No orders come out of warmup, signals are discarded.
func (l *liveLoop) warmup(ctx context.Context) error {
	candles, err := l.exch.Klines(ctx, l.cfg.Trading.Symbol, l.cfg.Trading.Interval, l.cfg.Trading.HistoryDays)
	if err != nil {
		return fmt.Errorf("warmup klines: %w", err)
	}
	if len(candles) < l.strategy.Warmup() {
		return fmt.Errorf("warmup: %d candles for a %d-candle warmup, increase history_days",
			len(candles), l.strategy.Warmup())
	}

	l.strategy.Reset()
	for _, c := range candles {
		l.strategy.OnCandle(c)
	}
	l.window = append(l.window[:0], candles[len(candles)-1])

	log.Printf("warmed up on %d candles, last close %v", len(candles), candles[len(candles)-1].Close)
	return nil
}

func (l *liveLoop) stream(ctx context.Context, reports <-chan time.Time) error {
	stream, err := exchange.DialKlineStream(ctx, exchange.FuturesWSURL, l.cfg.Trading.Symbol, l.cfg.Trading.Interval)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer stream.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case c, ok := <-stream.Candles():
			if !ok {
				return stream.Err()
			}
			l.window = append(l.window, c)

			sig := l.strategy.OnCandle(c)
			if err := l.agent.OnSignal(ctx, sig, c.Close); err != nil {
				log.Printf("signal %s at %v: %v", sig, c.Close, err)
			}

		case <-reports:
			if _, err := l.agent.Analyze(ctx, l.window); err != nil {
				log.Printf("analyze: %v", err)
				continue
			}
			// the last candle anchors the next cycle's comparison
			l.window = append(l.window[:0], l.window[len(l.window)-1])
		}
	}
}

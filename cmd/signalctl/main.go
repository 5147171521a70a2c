package main

import (
	"fmt"
	"log/slog"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"intraday-signals/config"
	"intraday-signals/internal/logger"
	"intraday-signals/internal/model"
	"intraday-signals/internal/signal"
)

// Global flags
var (
	flagInterval string
	flagConfig   string
	flagLogLevel string
	flagNoColor  bool
)

var rootCmd = &cobra.Command{
	Use:   "signalctl",
	Short: "Evaluate intraday technical-indicator signals from the command line",
	Long: `signalctl computes RSI, Stochastic, MACD, ADX, CCI, Williams %R,
Ultimate Oscillator, ROC and Bull/Bear Power for a watchlist and combines
them into a BUY / SELL / NEUTRAL verdict per ticker.

Bars come from Yahoo Finance, a directory of CSV files or a SQLite archive.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup("signalctl", logger.Options{Level: logger.ParseLevel(flagLogLevel), Stdout: os.Stderr})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagInterval, "interval", "i", "5m", "bar interval (1m, 5m, 15m, 30m, 1h, 1d)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", os.Getenv("SIGNALS_CONFIG"), "signal tuning YAML file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func interval() (model.Interval, error) {
	return model.ParseInterval(flagInterval)
}

func newEngine() (*signal.Engine, *signal.Registry, error) {
	cfg, err := config.LoadSignal(flagConfig)
	if err != nil {
		return nil, nil, err
	}
	reg := signal.DefaultRegistry()
	eng, err := signal.NewEngine(cfg, reg, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return eng, reg, nil
}

// tickers returns args, or the SYMBOLS watchlist when no args are given.
func tickers(args []string) ([]string, error) {
	if len(args) > 0 {
		out := make([]string, len(args))
		for i, a := range args {
			out[i] = normalize(a)
		}
		return out, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("no tickers given and SYMBOLS is empty")
	}
	return cfg.Symbols, nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"intraday-signals/internal/evaluator"
	"intraday-signals/internal/feed"
	"intraday-signals/internal/store/sqlite"
)

var (
	evalCSVDir  string
	evalArchive string
	evalWorkers int
	evalJSON    bool
	evalTimeout time.Duration
)

var evalCmd = &cobra.Command{
	Use:   "eval [TICKER...]",
	Short: "Evaluate the signal table for a watchlist",
	Long: `Fetch bars for each ticker, compute every configured indicator and print
the combined verdict table.

Examples:
  signalctl eval TCS.NS INFY.NS
  signalctl eval --interval 15m --csv-dir ./bars RELIANCE.NS
  signalctl eval --archive data/bars.db --json`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalCSVDir, "csv-dir", "", "read bars from <dir>/<TICKER>_<interval>.csv")
	evalCmd.Flags().StringVar(&evalArchive, "archive", "", "read bars from a SQLite archive")
	evalCmd.Flags().IntVarP(&evalWorkers, "workers", "w", evaluator.DefaultWorkers, "concurrent fetches")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "print rows as JSON")
	evalCmd.Flags().DurationVar(&evalTimeout, "timeout", time.Minute, "overall deadline")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	iv, err := interval()
	if err != nil {
		return err
	}
	eng, _, err := newEngine()
	if err != nil {
		return err
	}
	list, err := tickers(args)
	if err != nil {
		return err
	}

	var src feed.Source
	switch {
	case evalCSVDir != "" && evalArchive != "":
		return fmt.Errorf("--csv-dir and --archive are mutually exclusive")
	case evalCSVDir != "":
		src = feed.CSVSource{Dir: evalCSVDir}
	case evalArchive != "":
		r, err := sqlite.NewReader(evalArchive, nil)
		if err != nil {
			return err
		}
		defer r.Close()
		src = r
	default:
		src = feed.NewYahooSource(feed.YahooConfig{Retries: 2}, nil, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()
	batch := &evaluator.Batch{Source: src, Engine: eng, Workers: evalWorkers}
	rows := batch.Run(ctx, list, iv)

	if evalJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	fmt.Println(renderTable(rows, eng.Indicators(), !flagNoColor))
	return nil
}

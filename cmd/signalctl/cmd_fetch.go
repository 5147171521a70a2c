package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"intraday-signals/internal/feed"
	"intraday-signals/internal/store/sqlite"
)

var (
	fetchArchive string
	fetchCSVDir  string
	fetchRange   string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [TICKER...]",
	Short: "Download bars from Yahoo Finance",
	Long: `Download the latest bars for each ticker and optionally store them in a
SQLite archive or as CSV files that "eval --csv-dir" can read back.

Examples:
  signalctl fetch TCS.NS --archive data/bars.db
  signalctl fetch --interval 1h --range 1mo --csv ./bars INFY.NS`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchArchive, "archive", "", "upsert bars into this SQLite archive")
	fetchCmd.Flags().StringVar(&fetchCSVDir, "csv", "", "write <dir>/<TICKER>_<interval>.csv files")
	fetchCmd.Flags().StringVar(&fetchRange, "range", "", "lookback range (default per interval)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	iv, err := interval()
	if err != nil {
		return err
	}
	list, err := tickers(args)
	if err != nil {
		return err
	}

	var w *sqlite.Writer
	if fetchArchive != "" {
		if w, err = sqlite.New(sqlite.WriterConfig{DBPath: fetchArchive}, nil, nil); err != nil {
			return err
		}
		defer w.Close()
	}
	if fetchCSVDir != "" {
		if err := os.MkdirAll(fetchCSVDir, 0o755); err != nil {
			return err
		}
	}

	src := feed.NewYahooSource(feed.YahooConfig{Range: fetchRange, Retries: 2}, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	failed := 0
	for _, t := range list {
		series, err := src.Fetch(ctx, t, iv)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%-14s %v\n", t, err)
			failed++
			continue
		}
		clean, rejected := series.Sanitize()
		line := fmt.Sprintf("%-14s %4d bars", t, clean.Len())
		if len(rejected) > 0 {
			line += fmt.Sprintf(" (%d malformed dropped)", len(rejected))
		}
		if first, ok := firstLast(clean.Bars); ok {
			line += "  " + first
		}

		if w != nil {
			if _, err := w.SaveBars(ctx, clean); err != nil {
				return fmt.Errorf("archive %s: %w", t, err)
			}
		}
		if fetchCSVDir != "" {
			if err := writeCSVFile(filepath.Join(fetchCSVDir, feed.FileName(t, iv)), clean); err != nil {
				return err
			}
		}
		fmt.Println(line)
	}
	if failed == len(list) {
		return fmt.Errorf("no ticker could be fetched")
	}
	return nil
}

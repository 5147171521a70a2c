package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"intraday-signals/internal/feed"
	"intraday-signals/internal/indicator"
	"intraday-signals/internal/model"
)

var (
	seriesLast    int
	seriesCSVDir  string
	seriesOverlay []string
)

var seriesCmd = &cobra.Command{
	Use:   "series TICKER",
	Short: "Print the trailing indicator values for one ticker",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeries,
}

func init() {
	seriesCmd.Flags().IntVarP(&seriesLast, "last", "n", 10, "number of trailing bars")
	seriesCmd.Flags().StringVar(&seriesCSVDir, "csv-dir", "", "read bars from CSV files instead of Yahoo")
	seriesCmd.Flags().StringSliceVar(&seriesOverlay, "overlay", nil, "extra moving averages, e.g. SMA:20,EMA:50")
	rootCmd.AddCommand(seriesCmd)
}

func runSeries(cmd *cobra.Command, args []string) error {
	iv, err := interval()
	if err != nil {
		return err
	}
	eng, _, err := newEngine()
	if err != nil {
		return err
	}
	overlays, err := parseOverlays(seriesOverlay)
	if err != nil {
		return err
	}

	var src feed.Source = feed.NewYahooSource(feed.YahooConfig{Retries: 2}, nil, nil)
	if seriesCSVDir != "" {
		src = feed.CSVSource{Dir: seriesCSVDir}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	bars, err := src.Fetch(ctx, normalize(args[0]), iv)
	if err != nil {
		return err
	}

	all := eng.Series(bars)
	names := eng.Indicators()
	sort.Strings(names)
	if overlays != nil {
		clean, _ := bars.Sanitize()
		extra := overlays.Compute(clean.Bars)
		keys := make([]string, 0, len(extra))
		for key, s := range extra {
			all[key] = s
			keys = append(keys, key)
		}
		sort.Strings(keys)
		names = append(names, keys...)
	}
	var ts []time.Time
	if len(names) > 0 {
		ts = all[names[0]].TS
	}
	start := len(ts) - seriesLast
	if start < 0 {
		start = 0
	}

	header := append([]string{"Time"}, names...)
	var rows [][]string
	for i := start; i < len(ts); i++ {
		row := []string{ts[i].Format("01-02 15:04")}
		for _, n := range names {
			row = append(row, all[n].Values[i].String())
		}
		rows = append(rows, row)
	}
	fmt.Println(plainTable(header, rows, !flagNoColor))
	return nil
}

// parseOverlays turns TYPE:PERIOD pairs into an indicator engine. It returns
// nil when no overlays were requested.
func parseOverlays(args []string) (*indicator.Engine, error) {
	if len(args) == 0 {
		return nil, nil
	}
	configs := make([]indicator.IndicatorConfig, 0, len(args))
	for _, arg := range args {
		typ, period, ok := strings.Cut(strings.TrimSpace(arg), ":")
		if !ok {
			return nil, &model.ConfigError{Field: "overlay", Reason: fmt.Sprintf("%q is not TYPE:PERIOD", arg)}
		}
		typ = strings.ToUpper(typ)
		switch typ {
		case indicator.TypeSMA, indicator.TypeEMA, indicator.TypeSMMA:
		default:
			return nil, &model.ConfigError{Field: "overlay", Reason: fmt.Sprintf("%q is not a moving average", typ)}
		}
		n, err := strconv.Atoi(period)
		if err != nil {
			return nil, &model.ConfigError{Field: "overlay", Reason: fmt.Sprintf("bad period in %q", arg)}
		}
		configs = append(configs, indicator.IndicatorConfig{Type: typ, Period: n})
	}
	return indicator.NewEngine(configs)
}

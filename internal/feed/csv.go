package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"intraday-signals/internal/model"
)

// CSVSource reads bars from <Dir>/<TICKER>_<interval>.csv.
//
// Columns: timestamp,open,high,low,close,volume. The timestamp is RFC3339 or
// unix seconds; a header row is optional. Unparseable prices become NaN so
// the engine drops and logs the bar like any other malformed bar.
type CSVSource struct {
	Dir string
	// Location applies to unix-second timestamps. Defaults to UTC.
	Location *time.Location
}

// FileName returns the file CSVSource reads for ticker at interval.
func FileName(ticker string, interval model.Interval) string {
	return strings.ToUpper(ticker) + "_" + interval.String() + ".csv"
}

func (s CSVSource) Fetch(ctx context.Context, ticker string, interval model.Interval) (model.BarSeries, error) {
	path := filepath.Join(s.Dir, FileName(ticker, interval))
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return model.BarSeries{}, fmt.Errorf("csv %s: %w", path, ErrNoData)
	}
	if err != nil {
		return model.BarSeries{}, fmt.Errorf("csv %s: %w", path, err)
	}
	defer f.Close()

	series, err := ReadCSV(f, ticker, interval, s.Location)
	if err != nil {
		return model.BarSeries{}, fmt.Errorf("csv %s: %w", path, err)
	}
	if series.Len() == 0 {
		return model.BarSeries{}, fmt.Errorf("csv %s: %w", path, ErrNoData)
	}
	return series, nil
}

// ReadCSV parses bar rows from r.
func ReadCSV(r io.Reader, ticker string, interval model.Interval, loc *time.Location) (model.BarSeries, error) {
	if loc == nil {
		loc = time.UTC
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	series := model.BarSeries{Ticker: ticker, Interval: interval}
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.BarSeries{}, err
		}
		ts, err := parseTime(rec[0], loc)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return model.BarSeries{}, fmt.Errorf("line %d: %w", line, err)
		}
		series.Bars = append(series.Bars, model.Bar{
			TS:     ts,
			Open:   parseFloat(rec[1]),
			High:   parseFloat(rec[2]),
			Low:    parseFloat(rec[3]),
			Close:  parseFloat(rec[4]),
			Volume: parseFloat(rec[5]),
		})
	}
	return series, nil
}

// WriteCSV writes series in the format ReadCSV accepts, with a header row.
func WriteCSV(w io.Writer, series model.BarSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range series.Bars {
		rec := []string{
			b.TS.Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).In(loc), nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

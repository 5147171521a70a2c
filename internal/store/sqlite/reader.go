package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"intraday-signals/internal/feed"
	"intraday-signals/internal/model"
)

// DefaultFetchLimit caps the bars returned by Reader.Fetch.
const DefaultFetchLimit = 500

// Reader provides read access to the archive. It also serves as a
// feed.Source for offline evaluation.
type Reader struct {
	db *sql.DB

	// Limit is the number of most recent bars Fetch returns.
	Limit int
}

// NewReader opens the archive for reading.
func NewReader(dbPath string, logger *slog.Logger) (*Reader, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("sqlite reader opened", "path", dbPath)
	return &Reader{db: db, Limit: DefaultFetchLimit}, nil
}

// ReadBars returns the bars of ticker at or after since, oldest first.
// A zero since reads everything.
func (r *Reader) ReadBars(ctx context.Context, ticker string, interval model.Interval, since time.Time) (model.BarSeries, error) {
	var after int64
	if !since.IsZero() {
		after = since.Unix()
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, tz, open, high, low, close, volume
		FROM bars
		WHERE ticker = ? AND interval = ? AND ts >= ?
		ORDER BY ts ASC
	`, ticker, interval.String(), after)
	if err != nil {
		return model.BarSeries{}, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	series := model.BarSeries{Ticker: ticker, Interval: interval}
	series.Bars, err = scanBars(rows)
	return series, err
}

// Fetch returns the most recent Limit bars of ticker. An empty result is
// feed.ErrNoData.
func (r *Reader) Fetch(ctx context.Context, ticker string, interval model.Interval) (model.BarSeries, error) {
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, tz, open, high, low, close, volume FROM (
			SELECT * FROM bars
			WHERE ticker = ? AND interval = ?
			ORDER BY ts DESC
			LIMIT ?
		) ORDER BY ts ASC
	`, ticker, interval.String(), limit)
	if err != nil {
		return model.BarSeries{}, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return model.BarSeries{}, err
	}
	if len(bars) == 0 {
		return model.BarSeries{}, fmt.Errorf("archive %s %s: %w", ticker, interval, feed.ErrNoData)
	}
	return model.BarSeries{Ticker: ticker, Interval: interval, Bars: bars}, nil
}

// Tickers lists the archived tickers for interval.
func (r *Reader) Tickers(ctx context.Context, interval model.Interval) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT ticker FROM bars WHERE interval = ? ORDER BY ticker`, interval.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite query tickers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("sqlite scan ticker: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanBars(rows *sql.Rows) ([]model.Bar, error) {
	var bars []model.Bar
	zones := map[string]*time.Location{}
	for rows.Next() {
		var (
			b      model.Bar
			tsUnix int64
			tz     string
		)
		if err := rows.Scan(&tsUnix, &tz, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bars: %w", err)
		}
		loc, ok := zones[tz]
		if !ok {
			var err error
			if loc, err = time.LoadLocation(tz); err != nil {
				loc = time.UTC
			}
			zones[tz] = loc
		}
		b.TS = time.Unix(tsUnix, 0).In(loc)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}

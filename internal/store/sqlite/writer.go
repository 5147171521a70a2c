// Package sqlite archives fetched bar series in a local SQLite database and
// serves them back as a bar source for offline evaluation.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"intraday-signals/internal/metrics"
	"intraday-signals/internal/model"
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/bars.db"
}

// Writer upserts bar series into the archive, one transaction per series.
type Writer struct {
	db      *sql.DB
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New opens the archive in WAL mode and creates the schema.
// m and logger may be nil.
func New(cfg WriterConfig, m *metrics.Metrics, logger *slog.Logger) (*Writer, error) {
	db, err := open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	// Single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("sqlite archive opened", "path", cfg.DBPath)
	return &Writer{db: db, metrics: m, logger: logger}, nil
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	return db, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			ticker   TEXT    NOT NULL,
			interval TEXT    NOT NULL,
			ts       INTEGER NOT NULL,
			tz       TEXT    NOT NULL,
			open     REAL    NOT NULL,
			high     REAL    NOT NULL,
			low      REAL    NOT NULL,
			close    REAL    NOT NULL,
			volume   REAL    NOT NULL DEFAULT 0,
			PRIMARY KEY (ticker, interval, ts)
		);
	`)
	return err
}

// SaveBars upserts every bar of series in a single transaction and returns
// the number of rows written. A later fetch of the same bucket replaces the
// stored bar.
func (w *Writer) SaveBars(ctx context.Context, series model.BarSeries) (int, error) {
	if series.Len() == 0 {
		return 0, nil
	}
	start := time.Now()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (ticker, interval, ts, tz, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	iv := series.Interval.String()
	for _, b := range series.Bars {
		_, err := stmt.ExecContext(ctx, series.Ticker, iv, b.TS.Unix(), b.TS.Location().String(),
			b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("sqlite insert %s %s: %w", series.Ticker, b.TS.Format(time.RFC3339), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite commit: %w", err)
	}

	if w.metrics != nil {
		w.metrics.ArchivedBars.Add(float64(series.Len()))
		w.metrics.SQLiteWriteDur.Observe(time.Since(start).Seconds())
	}
	w.logger.Debug("committed bars", "ticker", series.Ticker, "interval", iv,
		"count", series.Len(), "took", time.Since(start))
	return series.Len(), nil
}

// LastTimestamp returns the newest stored bar time for ticker. ok is false
// when nothing is stored.
func (w *Writer) LastTimestamp(ctx context.Context, ticker string, interval model.Interval) (time.Time, bool, error) {
	var ts sql.NullInt64
	err := w.db.QueryRowContext(ctx,
		`SELECT MAX(ts) FROM bars WHERE ticker = ? AND interval = ?`,
		ticker, interval.String(),
	).Scan(&ts)
	if err != nil {
		return time.Time{}, false, err
	}
	if !ts.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), true, nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}

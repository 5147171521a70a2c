package feed

import (
	"context"
	"log/slog"

	"intraday-signals/internal/model"
)

// BarArchive persists bars.
type BarArchive interface {
	SaveBars(ctx context.Context, series model.BarSeries) (int, error)
}

// ArchivingSource tees every successful fetch into an archive. Only bars
// that pass validation are written. Archive failures are logged and never
// fail the fetch.
type ArchivingSource struct {
	src     Source
	archive BarArchive
	logger  *slog.Logger
}

// NewArchivingSource wraps src.
func NewArchivingSource(src Source, archive BarArchive, logger *slog.Logger) *ArchivingSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchivingSource{src: src, archive: archive, logger: logger}
}

func (a *ArchivingSource) Fetch(ctx context.Context, ticker string, interval model.Interval) (model.BarSeries, error) {
	series, err := a.src.Fetch(ctx, ticker, interval)
	if err != nil {
		return series, err
	}
	clean, _ := series.Sanitize()
	n, err := a.archive.SaveBars(ctx, clean)
	if err != nil {
		a.logger.Warn("bar archive write failed", "ticker", ticker, "interval", interval.String(), "error", err)
	} else {
		a.logger.Debug("archived bars", "ticker", ticker, "interval", interval.String(), "count", n)
	}
	return series, nil
}

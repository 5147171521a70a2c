// Package notification delivers verdict-change alerts to external channels
// (log, generic webhooks, Telegram).
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"intraday-signals/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Ticker  string     `json:"ticker,omitempty"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// VerdictChange builds the alert for a ticker whose combined verdict moved
// from prev to the verdict in ev.
func VerdictChange(prev model.Signal, ev model.Evaluation) Alert {
	c := ev.Combined
	level := AlertInfo
	if c.Verdict != model.Neutral {
		level = AlertWarning
	}
	return Alert{
		Level:  level,
		Ticker: c.Ticker,
		Title:  fmt.Sprintf("%s %s -> %s", c.Ticker, prev, c.Verdict),
		Message: fmt.Sprintf("score %+d (%d of %d indicators) at %s, close %s",
			c.Score, c.Participating, c.Configured, c.TS.Format("2006-01-02 15:04 MST"), ev.Report.Close),
	}
}

// LogNotifier logs alerts.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-based notifier. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	n.logger.Info("alert", "level", string(alert.Level), "title", alert.Title, "message", alert.Message)
	return nil
}

// Multi fans an alert out to every notifier. All are tried; the errors are joined.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

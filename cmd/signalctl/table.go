package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"intraday-signals/internal/feed"
	"intraday-signals/internal/model"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	buyStyle     = cellStyle.Foreground(lipgloss.Color("42")).Bold(true)
	sellStyle    = cellStyle.Foreground(lipgloss.Color("196")).Bold(true)
	mutedStyle   = cellStyle.Foreground(lipgloss.Color("240"))
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	verdictWidth = len("NEUTRAL")
)

// renderTable draws one row per ticker: close, each indicator's value and
// call, the combined verdict and its score. Rows without a computed verdict
// show their status instead.
func renderTable(rows []model.Evaluation, indicators []string, color bool) string {
	header := append([]string{"Ticker", "Time", "Close"}, indicators...)
	header = append(header, "Verdict", "Score", "Status")

	cells := make([][]string, len(rows))
	for i, ev := range rows {
		r := []string{ev.Ticker(), "", ev.Report.Close.String()}
		if !ev.Report.TS.IsZero() {
			r[1] = ev.Report.TS.Format("01-02 15:04")
		}
		for _, name := range indicators {
			rd, ok := ev.Report.Reading(name)
			if !ok || !rd.Value.Valid {
				r = append(r, model.Missing().String())
				continue
			}
			r = append(r, rd.Value.String()+" "+rd.Signal.String())
		}
		c := ev.Combined
		verdict, score := c.Verdict.String(), strconv.Itoa(c.Score)
		if c.Status.DataUnavailable() {
			verdict, score = "", ""
		} else if c.Score > 0 {
			score = "+" + score
		}
		status := c.Status.Label()
		if status == "" {
			status = strconv.Itoa(c.Participating) + "/" + strconv.Itoa(c.Configured)
		}
		cells[i] = append(r, padRight(verdict, verdictWidth), score, status)
	}
	return draw(header, cells, color, true)
}

// plainTable draws a table without verdict coloring.
func plainTable(header []string, rows [][]string, color bool) string {
	return draw(header, rows, color, false)
}

func draw(header []string, rows [][]string, color, signals bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(header...).
		Rows(rows...)
	if !color {
		return t.StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		}).String()
	}
	return t.BorderStyle(borderStyle).StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if !signals || row < 0 || row >= len(rows) || col >= len(rows[row]) {
			return cellStyle
		}
		return styleFor(rows[row][col])
	}).String()
}

// styleFor colors a cell by the call it carries.
func styleFor(cell string) lipgloss.Style {
	s := strings.TrimSpace(cell)
	switch {
	case strings.HasSuffix(s, "BUY"):
		return buyStyle
	case strings.HasSuffix(s, "SELL"):
		return sellStyle
	case s == model.Missing().String() || strings.HasSuffix(s, "data") || strings.HasSuffix(s, "error"):
		return mutedStyle
	}
	return cellStyle
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// firstLast describes the time span of bars.
func firstLast(bars []model.Bar) (string, bool) {
	if len(bars) == 0 {
		return "", false
	}
	return bars[0].TS.Format("2006-01-02 15:04") + " .. " + bars[len(bars)-1].TS.Format("2006-01-02 15:04 MST"), true
}

func writeCSVFile(path string, series model.BarSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := feed.WriteCSV(f, series); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Package markethours knows when an exchange session is open. The dashboard
// uses it for its status line and to skip refreshes while the market is shut.
package markethours

import (
	"fmt"
	"strings"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST = time.FixedZone("IST", 5*3600+30*60)

// Session is one exchange's regular trading window. A nil *Session is
// always open.
type Session struct {
	Name        string
	Location    *time.Location
	OpenHour    int
	OpenMinute  int
	CloseHour   int
	CloseMinute int
	holidays    map[string]bool
}

// NSE returns the National Stock Exchange session: 09:15 to 15:30 IST,
// Monday to Friday, excluding listed holidays.
func NSE() *Session {
	s := &Session{Name: "NSE", Location: IST, OpenHour: 9, OpenMinute: 15, CloseHour: 15, CloseMinute: 30}
	s.AddHolidays(nseHolidays...)
	return s
}

// NYSE returns the New York session: 09:30 to 16:00 Eastern. Exchange
// holidays are not listed.
func NYSE() *Session {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*3600)
	}
	return &Session{Name: "NYSE", Location: loc, OpenHour: 9, OpenMinute: 30, CloseHour: 16}
}

// ByName returns the session for "NSE" or "NYSE". "", "none" and "24x7"
// return nil, which is always open.
func ByName(name string) (*Session, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NSE":
		return NSE(), nil
	case "NYSE":
		return NYSE(), nil
	case "", "NONE", "24X7":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown market session %q", name)
}

// AddHolidays marks dates (compared in the session location) as closed.
func (s *Session) AddHolidays(days ...time.Time) {
	if s.holidays == nil {
		s.holidays = make(map[string]bool, len(days))
	}
	for _, d := range days {
		s.holidays[d.Format("2006-01-02")] = true
	}
}

// IsHoliday reports whether t falls on a listed holiday.
func (s *Session) IsHoliday(t time.Time) bool {
	if s == nil {
		return false
	}
	return s.holidays[t.In(s.Location).Format("2006-01-02")]
}

// IsTradingDay reports whether t is a weekday and not a holiday.
func (s *Session) IsTradingDay(t time.Time) bool {
	if s == nil {
		return true
	}
	local := t.In(s.Location)
	wd := local.Weekday()
	return wd != time.Saturday && wd != time.Sunday && !s.IsHoliday(local)
}

// IsOpen reports whether t falls within the session.
func (s *Session) IsOpen(t time.Time) bool {
	if s == nil {
		return true
	}
	local := t.In(s.Location)
	if !s.IsTradingDay(local) {
		return false
	}
	hm := local.Hour()*60 + local.Minute()
	return hm >= s.OpenHour*60+s.OpenMinute && hm < s.CloseHour*60+s.CloseMinute
}

// NextOpen returns the next session open at or after t. If t is before
// today's open on a trading day, it returns today's open.
func (s *Session) NextOpen(t time.Time) time.Time {
	if s == nil {
		return t
	}
	local := t.In(s.Location)
	open := func(d time.Time) time.Time {
		return time.Date(d.Year(), d.Month(), d.Day(), s.OpenHour, s.OpenMinute, 0, 0, s.Location)
	}
	if today := open(local); local.Before(today) && s.IsTradingDay(local) {
		return today
	}
	d := local.AddDate(0, 0, 1)
	for i := 0; i < 14; i++ {
		if s.IsTradingDay(d) {
			return open(d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return open(local.AddDate(0, 0, 1))
}

// TodayClose returns the close time on t's calendar day.
func (s *Session) TodayClose(t time.Time) time.Time {
	local := t.In(s.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), s.CloseHour, s.CloseMinute, 0, 0, s.Location)
}

// Status returns a human-readable session status.
func (s *Session) Status(t time.Time) string {
	if s == nil {
		return "Market Open"
	}
	if s.IsOpen(t) {
		return fmt.Sprintf("%s Open: closes in %s", s.Name, fmtDur(s.TodayClose(t).Sub(t)))
	}
	next := s.NextOpen(t)
	local := next.In(s.Location)
	return fmt.Sprintf("%s Closed: opens %s %s (%s)",
		s.Name, local.Weekday().String()[:3], local.Format("15:04"), fmtDur(next.Sub(t)))
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	layoutDate  = "2006-01-02"
	layoutClock = "15:04"
)

// Accepted departure time spellings. Vendors type these by hand.
var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"03:04 PM",
	"3:04PM",
	"03:04PM",
}

// ParseDate parses YYYY-MM-DD in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), loc)
}

// NormalizeClock turns any accepted time spelling into HH:MM.
func NormalizeClock(raw string) (string, error) {
	t, err := parseClock(raw)
	if err != nil {
		return "", err
	}
	return t.Format(layoutClock), nil
}

func parseClock(raw string) (time.Time, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
}

// DepartureInstant combines a YYYY-MM-DD date and a clock time in loc.
func DepartureInstant(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("departure date: %w", err)
	}
	c, err := parseClock(clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("departure time: %w", err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, d.Location()), nil
}

package table

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Granularity is the bucket width of Resample.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ErrInvalidGranularity is returned for anything but daily, weekly or monthly.
var ErrInvalidGranularity = errors.New("invalid granularity")

// ParseGranularity accepts the canonical names and the D/W/M shorthands.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "d":
		return Daily, nil
	case "weekly", "week", "w":
		return Weekly, nil
	case "monthly", "month", "m":
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
}

// Point is one resampled bucket. Period is the last day of the bucket.
type Point struct {
	Period time.Time `json:"period"`
	Value  float64   `json:"value"`
	Count  int       `json:"count"`
}

// Resample sums value into calendar buckets keyed by date. Weeks end on
// Sunday and months on their last day. Every bucket between the first and
// the last observation is present; empty ones carry a zero value.
func Resample[T any](t *Table[T], date func(T) time.Time, value func(T) float64, g Granularity) (*Table[Point], error) {
	if g != Daily && g != Weekly && g != Monthly {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGranularity, g)
	}

	sums := make(map[time.Time]*Point)
	var first, last time.Time
	for _, row := range rowsOf(t) {
		d := date(row)
		if d.IsZero() {
			continue
		}
		end := PeriodEnd(d, g)
		p, ok := sums[end]
		if !ok {
			p = &Point{Period: end}
			sums[end] = p
		}
		p.Value += value(row)
		p.Count++

		if first.IsZero() || end.Before(first) {
			first = end
		}
		if end.After(last) {
			last = end
		}
	}

	var points []Point
	if !first.IsZero() {
		for end := first; !end.After(last); end = nextPeriodEnd(end, g) {
			if p, ok := sums[end]; ok {
				points = append(points, *p)
			} else {
				points = append(points, Point{Period: end})
			}
		}
	}

	return derive(t, []string{"period", "value", "count"}, points), nil
}

// PeriodEnd returns the last day of the bucket containing d, at midnight UTC.
func PeriodEnd(d time.Time, g Granularity) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	switch g {
	case Weekly:
		return day.AddDate(0, 0, (7-int(day.Weekday()))%7)
	case Monthly:
		return time.Date(day.Year(), day.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

func nextPeriodEnd(end time.Time, g Granularity) time.Time {
	switch g {
	case Weekly:
		return end.AddDate(0, 0, 7)
	case Monthly:
		return time.Date(end.Year(), end.Month()+2, 0, 0, 0, 0, 0, time.UTC)
	default:
		return end.AddDate(0, 0, 1)
	}
}

package util

import (
	"fmt"
	"strings"
	"time"
)

func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func ParseDates(values []string) ([]time.Time, error) {
	out := make([]time.Time, len(values))
	for i, v := range values {
		t, err := ParseDate(v)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// EqualDates compares two date indexes day by day.
func EqualDates(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Format(time.DateOnly) != b[i].Format(time.DateOnly) {
			return false
		}
	}
	return true
}

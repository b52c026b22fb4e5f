package inventory

import (
	"fmt"
	"time"
)

// Range limits which cards are fetched by creation date.
type Range string

// Supported ranges.
const (
	RangeWeek  Range = "7d"
	RangeMonth Range = "30d"
	RangeAll   Range = "all"
)

// Ranges lists the ranges in the order the dashboard offers them.
var Ranges = []Range{RangeWeek, RangeMonth, RangeAll}

// ParseRange accepts "7d", "30d", "all" and the bare day counts "7" and "30".
func ParseRange(s string) (Range, error) {
	switch s {
	case "7", "7d":
		return RangeWeek, nil
	case "30", "30d":
		return RangeMonth, nil
	case "all":
		return RangeAll, nil
	}
	return "", fmt.Errorf("unknown range %q", s)
}

// Since returns the earliest creation time included by r, or the zero time
// for RangeAll.
func (r Range) Since(now time.Time) time.Time {
	switch r {
	case RangeWeek:
		return now.AddDate(0, 0, -7)
	case RangeMonth:
		return now.AddDate(0, 0, -30)
	}
	return time.Time{}
}

// Label is the short button text for r.
func (r Range) Label() string {
	if r == RangeAll {
		return "All"
	}
	return string(r)
}

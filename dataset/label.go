package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Label is the normalized form of an explicit win/loss column.
type Label int8

const (
	LabelUnknown Label = iota
	LabelWin
	LabelLoss
)

func (l Label) String() string {
	switch l {
	case LabelWin:
		return "W"
	case LabelLoss:
		return "L"
	}
	return ""
}

// ParseLabel maps the encodings seen in trade exports ("W", "win", 1,
// true, ...) onto a Label. Blank input is LabelUnknown.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return LabelUnknown, nil
	case "w", "win", "winner", "1", "1.0", "true", "t", "yes", "y":
		return LabelWin, nil
	case "l", "loss", "loser", "lose", "0", "0.0", "-1", "false", "f", "no", "n":
		return LabelLoss, nil
	}
	return LabelUnknown, fmt.Errorf("unrecognized win/loss value %q", s)
}

// ParseFloat parses a numeric cell. Blank and NaN-like cells become NaN.
// A trailing percent sign is stripped without rescaling.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na", "n/a", "null", "none", "-":
		return math.NaN(), nil
	}
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
}

// ParseDate parses a date cell in one of the common export layouts, in UTC.
// Blank input returns the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// NoClock marks a missing time-of-day value.
const NoClock = time.Duration(-1)

// ParseClock parses "15:04", "15:04:05" or "3:04PM" into an offset from
// midnight. Blank input returns NoClock.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoClock, nil
	}
	for _, layout := range []string{"15:04:05", "15:04", "3:04PM", "3:04:05PM"} {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return NoClock, fmt.Errorf("unrecognized time %q", s)
}

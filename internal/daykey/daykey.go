// Package daykey provides civil-date arithmetic over string-encoded dates.
//
// A Key is a yyyy-MM-dd string resolved once in the household's timezone.
// Because the encoding is fixed-width, lexicographic ordering of keys equals
// chronological ordering, which makes keys safe to use as sort keys and SQL
// range bounds. All key-to-key arithmetic is done on a date pinned to noon
// UTC so DST transitions can never shift date-only math; the timezone is
// consulted only when converting wall-clock "now" to a Key.
package daykey

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// Key is a civil date encoded as yyyy-MM-dd.
type Key string

// Parse validates s as a yyyy-MM-dd civil date.
func Parse(s string) (Key, error) {
	if _, err := time.Parse(layout, s); err != nil {
		return "", fmt.Errorf("parse day key %q: %w", s, err)
	}
	return Key(s), nil
}

// Today resolves the current wall-clock time to a civil date in the given
// IANA timezone. An unknown timezone falls back to UTC rather than failing:
// a wrong-but-valid date beats no date on a household dashboard.
func Today(timezone string) Key {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return FromTime(time.Now().In(loc))
}

// FromTime converts a wall-clock time to the civil date in its location.
func FromTime(t time.Time) Key {
	return Key(t.Format(layout))
}

// Time returns the key's date pinned to noon UTC. Invalid keys yield the
// zero time.
func (k Key) Time() time.Time {
	t, err := time.Parse(layout, string(k))
	if err != nil {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
}

// AddDays returns the key n days after k (n may be negative).
func (k Key) AddDays(n int) Key {
	return FromTime(k.Time().AddDate(0, 0, n))
}

// Weekday returns the key's day of week as 0=Sunday .. 6=Saturday.
func (k Key) Weekday() int {
	return int(k.Time().Weekday())
}

// DaysBetween returns the signed number of days from a to b.
func DaysBetween(a, b Key) int {
	return int(b.Time().Sub(a.Time()) / (24 * time.Hour))
}

// Range returns every key from start through end inclusive, ascending.
// Returns nil if end is before start.
func Range(start, end Key) []Key {
	n := DaysBetween(start, end)
	if n < 0 {
		return nil
	}
	keys := make([]Key, 0, n+1)
	for i := 0; i <= n; i++ {
		keys = append(keys, start.AddDays(i))
	}
	return keys
}

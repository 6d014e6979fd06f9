package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LateGrace is how far past shift start a clock-in may land and still count as present.
const LateGrace = 15 * time.Minute

// ParseShiftStart reads an "HH:MM" (or "HH:MM:SS") time of day.
func ParseShiftStart(s string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, 0, false
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 || len(parts[2]) != 2 {
			return 0, 0, false
		}
	}
	return h, m, true
}

// ShiftStartOn returns the shift start on the calendar day of day, in day's location.
func ShiftStartOn(shift string, day time.Time) (time.Time, bool) {
	h, m, ok := ParseShiftStart(shift)
	if !ok {
		return time.Time{}, false
	}
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, m, 0, 0, day.Location()), true
}

// LateBy returns how far at is past the shift start of its own day.
// Early arrivals yield a negative duration.
func LateBy(shift string, at time.Time) (time.Duration, bool) {
	start, ok := ShiftStartOn(shift, at)
	if !ok {
		return 0, false
	}
	return at.Sub(start), true
}

// IsLate reports whether at is more than LateGrace after shift start.
// A missing or malformed shift is never late.
func IsLate(shift string, at time.Time) bool {
	d, ok := LateBy(shift, at)
	return ok && d > LateGrace
}

// IsDue reports whether the shift has started by now. A missing shift is always due.
func IsDue(shift string, now time.Time) bool {
	d, ok := LateBy(shift, now)
	return !ok || d >= 0
}

// FormatLateBy renders a lateness like "Late by 1h 5m".
func FormatLateBy(d time.Duration) string {
	mins := int(d / time.Minute)
	if mins < 0 {
		mins = 0
	}
	if mins >= 60 {
		return fmt.Sprintf("Late by %dh %dm", mins/60, mins%60)
	}
	return fmt.Sprintf("Late by %dm", mins)
}

package runlog

import (
	"fmt"
	"strconv"
	"time"
)

// ElapsedLine returns the line appended after a run completes, e.g.
//
//	Run length: 12.5 seconds (0:00:12.500000)
func ElapsedLine(start, end time.Time) string {
	d := end.Sub(start)
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%s %s seconds (%s)", ElapsedPrefix, formatSeconds(d), FormatTimedelta(d))
}

// FormatTimedelta renders d the way Python prints a datetime.timedelta:
// "[N day[s], ]H:MM:SS[.ffffff]".
func FormatTimedelta(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	us := d.Microseconds()
	days := us / (24 * 3600 * 1e6)
	us -= days * 24 * 3600 * 1e6
	hours := us / (3600 * 1e6)
	us -= hours * 3600 * 1e6
	minutes := us / (60 * 1e6)
	us -= minutes * 60 * 1e6
	seconds := us / 1e6
	us -= seconds * 1e6

	s := fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	if us > 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	switch {
	case days == 1:
		s = "1 day, " + s
	case days > 1:
		s = fmt.Sprintf("%d days, %s", days, s)
	}
	return s
}

// formatSeconds prints total seconds with microsecond precision and at
// least one decimal, matching timedelta.total_seconds().
func formatSeconds(d time.Duration) string {
	secs := float64(d.Microseconds()) / 1e6
	s := strconv.FormatFloat(secs, 'f', -1, 64)
	for _, c := range s {
		if c == '.' {
			return s
		}
	}
	return s + ".0"
}

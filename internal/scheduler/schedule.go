package scheduler

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// Schedule describes when the periodic job fires. Two cron forms are
// understood: "M H * * *" (daily at H:M) and "0 */N * * *" (every N hours).
type Schedule struct {
	kind       scheduleKind
	hour       int
	minute     int
	everyHours int
	expr       string
}

type scheduleKind int

const (
	scheduleDaily scheduleKind = iota
	scheduleEveryHours
)

// DefaultSchedule is the fallback used when an expression cannot be parsed
var DefaultSchedule = Schedule{kind: scheduleDaily, hour: 2, minute: 0, expr: "0 2 * * *"}

// ParseSchedule parses the supported cron subset. Unparseable expressions
// fall back to daily at 02:00 with a warning rather than failing startup.
func ParseSchedule(expr string) Schedule {
	s, err := parseSchedule(expr)
	if err != nil {
		log.Printf("[Scheduler] %v, falling back to daily at 02:00", err)
		return DefaultSchedule
	}
	return s
}

func parseSchedule(expr string) (Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return Schedule{}, fmt.Errorf("unsupported schedule %q", expr)
	}
	if fields[2] != "*" || fields[3] != "*" || fields[4] != "*" {
		return Schedule{}, fmt.Errorf("unsupported schedule %q", expr)
	}

	if strings.HasPrefix(fields[1], "*/") {
		if fields[0] != "0" {
			return Schedule{}, fmt.Errorf("unsupported schedule %q", expr)
		}
		n, err := strconv.Atoi(fields[1][2:])
		if err != nil || n <= 0 || n > 23 {
			return Schedule{}, fmt.Errorf("unsupported schedule %q", expr)
		}
		return Schedule{kind: scheduleEveryHours, everyHours: n, expr: expr}, nil
	}

	minute, err := strconv.Atoi(fields[0])
	if err != nil || minute < 0 || minute > 59 {
		return Schedule{}, fmt.Errorf("unsupported schedule %q", expr)
	}
	hour, err := strconv.Atoi(fields[1])
	if err != nil || hour < 0 || hour > 23 {
		return Schedule{}, fmt.Errorf("unsupported schedule %q", expr)
	}
	return Schedule{kind: scheduleDaily, hour: hour, minute: minute, expr: expr}, nil
}

// String returns the cron expression this schedule was parsed from
func (s Schedule) String() string {
	return s.expr
}

// NextAfter returns the first firing time strictly after t
func (s Schedule) NextAfter(t time.Time) time.Time {
	switch s.kind {
	case scheduleEveryHours:
		next := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
		for !next.After(t) || next.Hour()%s.everyHours != 0 {
			next = next.Add(time.Hour)
		}
		return next
	default:
		next := time.Date(t.Year(), t.Month(), t.Day(), s.hour, s.minute, 0, 0, t.Location())
		if !next.After(t) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
}

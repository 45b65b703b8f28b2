package scheduler

import (
	"testing"
	"time"
)

func TestParseScheduleDaily(t *testing.T) {
	s := ParseSchedule("30 14 * * *")
	if s.kind != scheduleDaily || s.hour != 14 || s.minute != 30 {
		t.Fatalf("unexpected schedule: %+v", s)
	}

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	next := s.NextAfter(at)
	want := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextAfter = %s, want %s", next, want)
	}

	// Past today's firing time rolls to tomorrow
	after := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	next = s.NextAfter(after)
	want = time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextAfter = %s, want %s", next, want)
	}
}

func TestParseScheduleEveryHours(t *testing.T) {
	s := ParseSchedule("0 */6 * * *")
	if s.kind != scheduleEveryHours || s.everyHours != 6 {
		t.Fatalf("unexpected schedule: %+v", s)
	}

	at := time.Date(2025, 6, 1, 7, 15, 0, 0, time.UTC)
	next := s.NextAfter(at)
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextAfter = %s, want %s", next, want)
	}

	// Exactly on a firing hour moves to the following one
	onHour := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	next = s.NextAfter(onHour)
	want = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextAfter = %s, want %s", next, want)
	}
}

func TestParseScheduleFallback(t *testing.T) {
	cases := []string{
		"",
		"not a schedule",
		"* * * * *",
		"0 2 1 * *",
		"0 */0 * * *",
		"61 2 * * *",
		"0 25 * * *",
	}
	for _, expr := range cases {
		s := ParseSchedule(expr)
		if s != DefaultSchedule {
			t.Errorf("ParseSchedule(%q) = %+v, want fallback", expr, s)
		}
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s := New(nil, nil, nil, nil, Options{
		Schedule:            ParseSchedule("0 2 * * *"),
		PollIntervalSeconds: 3600,
	})

	status := s.GetStatus()
	if status.Running {
		t.Fatal("new scheduler should be stopped")
	}
	if status.NextRunTime != nil {
		t.Error("stopped scheduler should not report a next run time")
	}

	s.Start()
	status = s.GetStatus()
	if !status.Running {
		t.Fatal("scheduler should be running after Start")
	}
	if status.NextRunTime == nil || !status.NextRunTime.After(time.Now()) {
		t.Error("running scheduler should report a future next run time")
	}
	if status.Schedule != "0 2 * * *" {
		t.Errorf("unexpected schedule string %q", status.Schedule)
	}

	// Second start is a no-op
	s.Start()

	s.Stop()
	if s.GetStatus().Running {
		t.Fatal("scheduler should be stopped after Stop")
	}

	// Stop on a stopped scheduler is a no-op
	s.Stop()

	// Restart works
	s.Start()
	if !s.GetStatus().Running {
		t.Fatal("scheduler should restart")
	}
	s.Stop()
}

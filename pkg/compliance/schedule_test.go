package compliance

import (
	"testing"
	"time"
)

func day(dayOfMonth int) time.Time {
	return time.Date(2025, 1, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func TestStatusOfTracksDueDates(t *testing.T) {
	ob := Obligation{
		DueAt:   day(10),
		Windows: Windows{Warning: 7 * 24 * time.Hour, Grace: 5 * 24 * time.Hour},
	}
	cases := []struct {
		name string
		now  time.Time
		want ScheduleStatus
	}{
		{"well before warning window", day(1), ScheduleCurrent},
		{"warning window opens", day(3), ScheduleDueSoon},
		{"day before due", day(9), ScheduleDueSoon},
		{"due day", day(10), ScheduleDueSoon},
		{"inside grace period", day(12), ScheduleDueSoon},
		{"grace period ends", day(15), ScheduleDueSoon},
		{"past grace period", day(16), ScheduleOverdue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusOf(ob, tc.now); got != tc.want {
				t.Fatalf("at %s expected %s got %s", tc.now.Format("2006-01-02"), tc.want, got)
			}
		})
	}
}

func TestStatusOfCompletedIsCurrent(t *testing.T) {
	completed := day(12)
	ob := Obligation{
		DueAt:       day(10),
		CompletedAt: &completed,
		Windows:     Windows{Warning: 7 * 24 * time.Hour, Grace: 5 * 24 * time.Hour},
	}
	for _, now := range []time.Time{day(1), day(10), day(16), day(30)} {
		if got := StatusOf(ob, now); got != ScheduleCurrent {
			t.Fatalf("completed obligation at %s: expected current got %s", now.Format("2006-01-02"), got)
		}
	}
}

func TestStatusOfLateCompletionStillCurrent(t *testing.T) {
	completed := day(20)
	ob := Obligation{DueAt: day(10), CompletedAt: &completed, Windows: Windows{Grace: 5 * 24 * time.Hour}}
	if got := StatusOf(ob, day(25)); got != ScheduleCurrent {
		t.Fatalf("expected current got %s", got)
	}
}

func TestStatusOfZeroWindows(t *testing.T) {
	ob := Obligation{DueAt: day(10)}
	if got := StatusOf(ob, day(9)); got != ScheduleCurrent {
		t.Fatalf("expected current before due got %s", got)
	}
	if got := StatusOf(ob, day(10)); got != ScheduleDueSoon {
		t.Fatalf("expected due_soon on the due instant got %s", got)
	}
	if got := StatusOf(ob, day(11)); got != ScheduleOverdue {
		t.Fatalf("expected overdue after due got %s", got)
	}
}

func TestStatusOfIsDeterministic(t *testing.T) {
	ob := Obligation{DueAt: day(10), Windows: Windows{Warning: 48 * time.Hour, Grace: 24 * time.Hour}}
	for _, now := range []time.Time{day(5), day(9), day(10), day(11), day(12)} {
		first := StatusOf(ob, now)
		second := StatusOf(ob, now)
		if first != second {
			t.Fatalf("status at %s changed between evaluations: %s then %s", now.Format("2006-01-02"), first, second)
		}
	}
}

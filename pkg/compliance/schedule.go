package compliance

import "time"

// ScheduleStatus is the standing of a time-bound obligation at a reference
// time.
type ScheduleStatus string

const (
	ScheduleCurrent ScheduleStatus = "current"
	ScheduleDueSoon ScheduleStatus = "due_soon"
	ScheduleOverdue ScheduleStatus = "overdue"
)

// Windows configures how early an obligation starts warning and how long past
// its due time it remains in the warning band before turning overdue.
type Windows struct {
	Warning time.Duration
	Grace   time.Duration
}

// Obligation is a due-date-bearing fact such as a maintenance task or a
// certificate renewal.
type Obligation struct {
	DueAt       time.Time
	CompletedAt *time.Time
	Windows     Windows
}

// StatusOf reports the obligation's standing at now. Completed obligations
// are always current regardless of when completion happened. An uncompleted
// obligation is current strictly before the warning window opens, overdue
// strictly after the grace period ends, and due soon in between. The result
// depends only on the arguments, so evaluating twice at the same instant
// yields the same status.
func StatusOf(ob Obligation, now time.Time) ScheduleStatus {
	if ob.CompletedAt != nil {
		return ScheduleCurrent
	}
	if now.After(ob.DueAt.Add(ob.Windows.Grace)) {
		return ScheduleOverdue
	}
	if now.Before(ob.DueAt.Add(-ob.Windows.Warning)) {
		return ScheduleCurrent
	}
	return ScheduleDueSoon
}

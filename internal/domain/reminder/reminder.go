// Package reminder holds the reminder variants derived from prescriptions
// and their due-check rules. Every predicate takes "now" explicitly and
// never mutates the reminder; only the lifecycle manager advances state.
package reminder

import (
	"time"

	"github.com/dmehra2102/prod-golang-projects/medremind/pkg/timeutil"
)

type Kind string

const (
	KindAppointment Kind = "appointment"
	KindIntake      Kind = "intake"
)

func (k Kind) IsValid() bool {
	return k == KindAppointment || k == KindIntake
}

// Appointment is a one-shot reminder tied to a doctor appointment.
// At most one live Appointment exists per prescription id.
type Appointment struct {
	ID         int
	DoctorName string
	StartsAt   time.Time
	Done       bool
}

// Due reports whether the reminder should currently be surfaced: the
// appointment is today and now is within buffer of its start.
func (a *Appointment) Due(now time.Time, buffer time.Duration) bool {
	return timeutil.SameDay(now, a.StartsAt) && !now.Before(a.StartsAt.Add(-buffer))
}

// IsDayBefore reports whether the appointment is tomorrow. Used by the
// shell for its "upcoming tomorrow" banner.
func (a *Appointment) IsDayBefore(now time.Time) bool {
	return timeutil.SameDay(now.Add(timeutil.Day), a.StartsAt)
}

// Expired reports whether the appointment date has passed by more than
// grace without being acknowledged. Expired appointments are archived
// during refresh so a missed appointment does not stay due forever.
func (a *Appointment) Expired(now time.Time, grace time.Duration) bool {
	return timeutil.DateOf(now).Sub(timeutil.DateOf(a.StartsAt)) > grace
}

// MedicationIntake is a recurring reminder for doses within an active
// course. Doses within a day are spaced DoseInterval apart starting at
// a fixed daily anchor; IntakeCount tracks acknowledged doses in the
// current cycle and resets when the cycle rolls over.
type MedicationIntake struct {
	ID           int
	MedicineName string
	Dosage       string

	FrequencySchedule string // raw spec, e.g. "2/day"
	FrequencyCount    int
	CycleLength       time.Duration // one day or one week
	DoseInterval      time.Duration

	StartDate time.Time
	EndDate   time.Time

	IntakeCount  int
	CycleStart   time.Time
	LastIntakeAt *time.Time
}

// Active reports whether now falls inside the [StartDate, EndDate] course.
func (m *MedicationIntake) Active(now time.Time) bool {
	today := timeutil.DateOf(now)
	return !today.Before(m.StartDate) && !today.After(m.EndDate)
}

// NextDoseAt returns the scheduled time of the next dose on now's date:
// anchor + IntakeCount * DoseInterval.
func (m *MedicationIntake) NextDoseAt(now time.Time, anchor time.Duration) time.Time {
	return timeutil.At(now, anchor+time.Duration(m.IntakeCount)*m.DoseInterval)
}

// Due reports whether the next dose is currently pending: the course is
// active, doses remain in this cycle, and now has reached the schedule.
func (m *MedicationIntake) Due(now time.Time, anchor time.Duration) bool {
	return m.Active(now) &&
		m.IntakeCount < m.FrequencyCount &&
		!now.Before(m.NextDoseAt(now, anchor))
}

// CycleElapsed reports whether a full cycle has passed since CycleStart.
func (m *MedicationIntake) CycleElapsed(now time.Time) bool {
	return timeutil.DateOf(now).Sub(m.CycleStart) >= m.CycleLength
}

// ResetCycle starts a new cycle anchored at now's date with a fresh count.
func (m *MedicationIntake) ResetCycle(now time.Time) {
	m.IntakeCount = 0
	m.CycleStart = timeutil.DateOf(now)
}

// RecordIntake logs one acknowledged dose.
func (m *MedicationIntake) RecordIntake(now time.Time) {
	m.IntakeCount++
	m.LastIntakeAt = &now
}

// Completed reports whether the course is finished: the cycle's doses are
// all taken and the end date has been reached.
func (m *MedicationIntake) Completed(now time.Time) bool {
	return m.IntakeCount >= m.FrequencyCount &&
		!timeutil.DateOf(now).Before(m.EndDate)
}

// Lapsed reports whether the course end date has passed by more than grace.
// A lapsed intake can no longer become due and is archived during refresh.
func (m *MedicationIntake) Lapsed(now time.Time, grace time.Duration) bool {
	return timeutil.DateOf(now).Sub(m.EndDate) > grace
}

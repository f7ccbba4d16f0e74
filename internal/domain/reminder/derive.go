package reminder

import (
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medremind/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/medremind/pkg/timeutil"
)

// NewAppointment builds the appointment reminder for a prescription.
// A malformed date or clock fails just this record.
func NewAppointment(rec prescription.Record) (*Appointment, error) {
	day, err := timeutil.ParseDate(rec.AppointmentDate)
	if err != nil {
		return nil, fmt.Errorf("prescription %d appointment_date: %w", rec.ID, err)
	}
	clock, err := timeutil.ParseClock(rec.AppointmentTime)
	if err != nil {
		return nil, fmt.Errorf("prescription %d appointment_time: %w", rec.ID, err)
	}
	return &Appointment{
		ID:         rec.ID,
		DoctorName: rec.Doctor,
		StartsAt:   timeutil.At(day, clock),
	}, nil
}

// NewMedicationIntake builds the intake reminder for a prescription with
// a fresh cycle anchored at now's date. The caller decides, via Active,
// whether the course has started yet.
func NewMedicationIntake(rec prescription.Record, now time.Time) (*MedicationIntake, error) {
	count, cycle, err := timeutil.ParseFrequency(rec.Frequency)
	if err != nil {
		return nil, fmt.Errorf("prescription %d frequency: %w", rec.ID, err)
	}
	start, err := timeutil.ParseDate(rec.StartDate)
	if err != nil {
		return nil, fmt.Errorf("prescription %d start_date: %w", rec.ID, err)
	}
	end, err := timeutil.ParseDate(rec.EndDate)
	if err != nil {
		return nil, fmt.Errorf("prescription %d end_date: %w", rec.ID, err)
	}
	if start.After(end) {
		return nil, fmt.Errorf("prescription %d: %w", rec.ID, ErrCourseInvalid)
	}
	if rec.IntervalHr <= 0 {
		return nil, fmt.Errorf("prescription %d: time_interval must be positive, got %v", rec.ID, rec.IntervalHr)
	}

	return &MedicationIntake{
		ID:                rec.ID,
		MedicineName:      rec.Medication,
		Dosage:            rec.Dosage,
		FrequencySchedule: rec.Frequency,
		FrequencyCount:    count,
		CycleLength:       cycle,
		DoseInterval:      time.Duration(rec.IntervalHr * float64(time.Hour)),
		StartDate:         start,
		EndDate:           end,
		CycleStart:        timeutil.DateOf(now),
	}, nil
}

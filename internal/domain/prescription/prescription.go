package prescription

import (
	"strings"
	"time"
)

// Record is a single prescription as entered by the user: a medication
// intake course plus the doctor appointment it was issued at. The reminder
// engine treats records as immutable input; only the store mutates them.
//
// Date fields are MM/DD/YYYY strings and clock fields HH:MM strings, kept
// as entered so a malformed value surfaces during reminder derivation for
// that one record instead of poisoning the whole document.
type Record struct {
	ID         int     `json:"id"`
	Medication string  `json:"medication"`
	Dosage     string  `json:"dosage"`
	Frequency  string  `json:"frequency"`     // e.g. "2/day", "weekly"
	IntervalHr float64 `json:"time_interval"` // hours between doses within a day

	Doctor          string `json:"doctor"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`

	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	CreatedAt time.Time  `json:"created_at,omitzero"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Validate checks that every field a reminder can be derived from is present.
// Format correctness is deliberately left to derivation.
func (r *Record) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"medication", r.Medication},
		{"dosage", r.Dosage},
		{"frequency", r.Frequency},
		{"doctor", r.Doctor},
		{"appointment_date", r.AppointmentDate},
		{"appointment_time", r.AppointmentTime},
		{"start_date", r.StartDate},
		{"end_date", r.EndDate},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

type UpdateRecordCommand struct {
	Medication      *string
	Dosage          *string
	Frequency       *string
	IntervalHr      *float64
	Doctor          *string
	AppointmentDate *string
	AppointmentTime *string
	StartDate       *string
	EndDate         *string
}

func (c *UpdateRecordCommand) apply(r *Record) {
	if c.Medication != nil {
		r.Medication = *c.Medication
	}
	if c.Dosage != nil {
		r.Dosage = *c.Dosage
	}
	if c.Frequency != nil {
		r.Frequency = *c.Frequency
	}
	if c.IntervalHr != nil {
		r.IntervalHr = *c.IntervalHr
	}
	if c.Doctor != nil {
		r.Doctor = *c.Doctor
	}
	if c.AppointmentDate != nil {
		r.AppointmentDate = *c.AppointmentDate
	}
	if c.AppointmentTime != nil {
		r.AppointmentTime = *c.AppointmentTime
	}
	if c.StartDate != nil {
		r.StartDate = *c.StartDate
	}
	if c.EndDate != nil {
		r.EndDate = *c.EndDate
	}
}

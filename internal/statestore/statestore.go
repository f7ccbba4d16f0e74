// Package statestore persists the lifecycle manager's working sets and
// archive sets as a single versioned JSON document. Saves are atomic
// (temp file + rename); loads degrade to an empty state instead of
// failing the application.
package statestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medremind/internal/domain/reminder"
	"github.com/dmehra2102/prod-golang-projects/medremind/pkg/timeutil"
)

const formatVersion = 1

// State is everything the lifecycle manager owns that survives restart.
// The recomputed "due now" views are never part of it.
type State struct {
	Appointments         map[int]*reminder.Appointment
	Intakes              map[int]*reminder.MedicationIntake
	FinishedAppointments map[int]struct{}
	FinishedIntakes      map[int]struct{}
}

func NewState() *State {
	return &State{
		Appointments:         make(map[int]*reminder.Appointment),
		Intakes:              make(map[int]*reminder.MedicationIntake),
		FinishedAppointments: make(map[int]struct{}),
		FinishedIntakes:      make(map[int]struct{}),
	}
}

type appointmentRecord struct {
	ID              int    `json:"id"`
	DoctorName      string `json:"doctor_name"`
	AppointmentDate string `json:"appointment_date"` // YYYY-MM-DD
	AppointmentTime string `json:"appointment_time"` // HH:MM
}

type intakeRecord struct {
	ID                  int        `json:"id"`
	MedicineName        string     `json:"medicine_name"`
	Dosage              string     `json:"dosage"`
	FrequencySchedule   string     `json:"frequency_schedule"`
	TimeIntervalSeconds int64      `json:"time_interval_seconds"`
	StartDate           string     `json:"start_date"` // YYYY-MM-DD
	EndDate             string     `json:"end_date"`   // YYYY-MM-DD
	IntakeCountToday    int        `json:"intake_count_today"`
	CycleStart          string     `json:"cycle_start,omitempty"` // YYYY-MM-DD
	LastIntakeAt        *time.Time `json:"last_intake_at,omitempty"`
}

type envelope struct {
	Version                int                 `json:"version"`
	Appointments           []appointmentRecord `json:"appointments"`
	Intakes                []intakeRecord      `json:"intakes"`
	FinishedAppointmentIDs []int               `json:"finished_appointment_ids"`
	FinishedMedicationIDs  []int               `json:"finished_medication_ids"`
}

// Store reads and writes the state document at a fixed path. It never
// mutates a State itself; the lifecycle manager owns all state.
type Store struct {
	path string
	log  *zap.Logger
}

func New(path string, log *zap.Logger) *Store {
	return &Store{path: path, log: log}
}

// Save serializes the state atomically. On error the previously saved
// document is untouched and the caller's in-memory state stays authoritative.
func (s *Store) Save(state *State) error {
	env := encode(state)
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("syncing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// Load restores the last saved state. A missing file is a first run and
// yields an empty state. A corrupt or unreadable file also yields an
// empty state, with a non-nil warning the caller may report; Load never
// leaves the application without a usable state.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewState(), nil
	}
	if err != nil {
		return NewState(), fmt.Errorf("state file unreadable, starting empty: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return NewState(), fmt.Errorf("state file corrupt, starting empty: %w", err)
	}
	return s.decode(&env), nil
}

func encode(state *State) *envelope {
	env := &envelope{
		Version:                formatVersion,
		Appointments:           []appointmentRecord{},
		Intakes:                []intakeRecord{},
		FinishedAppointmentIDs: sortedIDs(state.FinishedAppointments),
		FinishedMedicationIDs:  sortedIDs(state.FinishedIntakes),
	}

	for _, a := range state.Appointments {
		env.Appointments = append(env.Appointments, appointmentRecord{
			ID:              a.ID,
			DoctorName:      a.DoctorName,
			AppointmentDate: timeutil.FormatISODate(a.StartsAt),
			AppointmentTime: a.StartsAt.Format(timeutil.ClockLayout),
		})
	}
	sort.Slice(env.Appointments, func(i, j int) bool {
		return env.Appointments[i].ID < env.Appointments[j].ID
	})

	for _, m := range state.Intakes {
		env.Intakes = append(env.Intakes, intakeRecord{
			ID:                  m.ID,
			MedicineName:        m.MedicineName,
			Dosage:              m.Dosage,
			FrequencySchedule:   m.FrequencySchedule,
			TimeIntervalSeconds: int64(m.DoseInterval / time.Second),
			StartDate:           timeutil.FormatISODate(m.StartDate),
			EndDate:             timeutil.FormatISODate(m.EndDate),
			IntakeCountToday:    m.IntakeCount,
			CycleStart:          timeutil.FormatISODate(m.CycleStart),
			LastIntakeAt:        m.LastIntakeAt,
		})
	}
	sort.Slice(env.Intakes, func(i, j int) bool {
		return env.Intakes[i].ID < env.Intakes[j].ID
	})

	return env
}

// decode rebuilds domain objects record by record; a single bad record is
// skipped with a warning rather than discarding the whole document.
func (s *Store) decode(env *envelope) *State {
	state := NewState()

	for _, rec := range env.Appointments {
		day, err := timeutil.ParseISODate(rec.AppointmentDate)
		if err != nil {
			s.log.Warn("skipping persisted appointment", zap.Int("id", rec.ID), zap.Error(err))
			continue
		}
		clock, err := timeutil.ParseClock(rec.AppointmentTime)
		if err != nil {
			s.log.Warn("skipping persisted appointment", zap.Int("id", rec.ID), zap.Error(err))
			continue
		}
		state.Appointments[rec.ID] = &reminder.Appointment{
			ID:         rec.ID,
			DoctorName: rec.DoctorName,
			StartsAt:   timeutil.At(day, clock),
		}
	}

	for _, rec := range env.Intakes {
		m, err := decodeIntake(rec)
		if err != nil {
			s.log.Warn("skipping persisted intake", zap.Int("id", rec.ID), zap.Error(err))
			continue
		}
		state.Intakes[rec.ID] = m
	}

	for _, id := range env.FinishedAppointmentIDs {
		state.FinishedAppointments[id] = struct{}{}
	}
	for _, id := range env.FinishedMedicationIDs {
		state.FinishedIntakes[id] = struct{}{}
	}
	return state
}

func decodeIntake(rec intakeRecord) (*reminder.MedicationIntake, error) {
	count, cycle, err := timeutil.ParseFrequency(rec.FrequencySchedule)
	if err != nil {
		return nil, err
	}
	start, err := timeutil.ParseISODate(rec.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := timeutil.ParseISODate(rec.EndDate)
	if err != nil {
		return nil, err
	}
	cycleStart := start
	if rec.CycleStart != "" {
		if cycleStart, err = timeutil.ParseISODate(rec.CycleStart); err != nil {
			return nil, err
		}
	}
	return &reminder.MedicationIntake{
		ID:                rec.ID,
		MedicineName:      rec.MedicineName,
		Dosage:            rec.Dosage,
		FrequencySchedule: rec.FrequencySchedule,
		FrequencyCount:    count,
		CycleLength:       cycle,
		DoseInterval:      time.Duration(rec.TimeIntervalSeconds) * time.Second,
		StartDate:         start,
		EndDate:           end,
		IntakeCount:       rec.IntakeCountToday,
		CycleStart:        cycleStart,
		LastIntakeAt:      rec.LastIntakeAt,
	}, nil
}

func sortedIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

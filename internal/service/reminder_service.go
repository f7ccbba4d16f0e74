package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medremind/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medremind/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/medremind/internal/domain/reminder"
	"github.com/dmehra2102/prod-golang-projects/medremind/internal/statestore"
	"github.com/dmehra2102/prod-golang-projects/medremind/pkg/metrics"
)

var tracer = otel.Tracer("medremind/service")

// Listener receives the recomputed due sets whenever they change. The
// shell registers one to drive its reminder cards. Callbacks run outside
// the service lock but on the caller's goroutine; keep them fast.
type Listener interface {
	OnDueAppointmentsChanged([]reminder.Appointment)
	OnDueIntakesChanged([]reminder.MedicationIntake)
}

// ReminderService owns the reminder working sets and archive sets and
// moves reminders through their lifecycle. All mutating operations are
// serialized by a single mutex, so acknowledgments are processed strictly
// in arrival order and refreshes never interleave with them.
type ReminderService struct {
	cfg           config.ReminderConfig
	prescriptions prescription.Store
	store         *statestore.Store
	journal       *JournalService
	metrics       *metrics.Collector
	log           *zap.Logger

	mu       sync.Mutex
	working  *statestore.State
	dueAppts []reminder.Appointment
	dueMeds  []reminder.MedicationIntake
	listener Listener

	now func() time.Time
}

func NewReminderService(
	cfg config.ReminderConfig,
	prescriptions prescription.Store,
	store *statestore.Store,
	journal *JournalService,
	m *metrics.Collector,
	log *zap.Logger,
) *ReminderService {
	working, err := store.Load()
	if err != nil {
		m.StateLoadWarnings.Inc()
		log.Warn("restoring reminder state degraded", zap.Error(err))
	}
	return &ReminderService{
		cfg:           cfg,
		prescriptions: prescriptions,
		store:         store,
		journal:       journal,
		metrics:       m,
		log:           log,
		working:       working,
		now:           time.Now,
	}
}

// SetListener registers the presentation-layer callback target.
func (s *ReminderService) SetListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// Run drives periodic refreshes until ctx is cancelled. Refresh is also
// safe to call directly, e.g. when the shell brings its reminder page to
// the foreground.
func (s *ReminderService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		if err := s.Refresh(ctx); err != nil {
			s.log.Error("refresh failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Refresh re-derives reminders from the prescription store, rolls intake
// cycles over day boundaries, archives reminders that expired without
// acknowledgment, and recomputes the due sets against the wall clock.
// A reminder is never dropped merely for not being due right now.
func (s *ReminderService) Refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "reminder.refresh")
	defer span.End()

	started := time.Now()
	defer func() {
		s.metrics.RefreshDuration.Observe(time.Since(started).Seconds())
	}()

	records, err := s.prescriptions.GetAllPrescriptions(ctx)
	if err != nil {
		return fmt.Errorf("fetching prescriptions: %w", err)
	}

	s.mu.Lock()
	now := s.now()
	cycleID := uuid.New()

	mutated := s.deriveLocked(records, now, cycleID)
	mutated = s.rollCyclesLocked(now) || mutated
	mutated = s.expireLocked(now, cycleID) || mutated

	apptsChanged, medsChanged := s.recomputeDueLocked(now)

	var saveErr error
	if mutated {
		saveErr = s.persistLocked(ctx)
	}
	listener := s.listener
	dueAppts := append([]reminder.Appointment(nil), s.dueAppts...)
	dueMeds := append([]reminder.MedicationIntake(nil), s.dueMeds...)
	s.mu.Unlock()

	if listener != nil {
		if apptsChanged {
			listener.OnDueAppointmentsChanged(dueAppts)
		}
		if medsChanged {
			listener.OnDueIntakesChanged(dueMeds)
		}
	}
	return saveErr
}

// Acknowledge advances one reminder's lifecycle: an appointment is marked
// done and archived; an intake logs one dose and is archived only once
// the course is complete. State is persisted after every acknowledgment;
// a failed save is returned for retry while in-memory state stands.
func (s *ReminderService) Acknowledge(ctx context.Context, id int, kind reminder.Kind) error {
	ctx, span := tracer.Start(ctx, "reminder.acknowledge")
	defer span.End()

	s.mu.Lock()
	now := s.now()

	switch kind {
	case reminder.KindAppointment:
		a, ok := s.working.Appointments[id]
		if !ok {
			s.mu.Unlock()
			s.log.Warn("acknowledgment for unknown appointment", zap.Int("id", id))
			return fmt.Errorf("appointment %d: %w", id, reminder.ErrNotFound)
		}
		a.Done = true
		delete(s.working.Appointments, id)
		s.working.FinishedAppointments[id] = struct{}{}

	case reminder.KindIntake:
		m, ok := s.working.Intakes[id]
		if !ok {
			s.mu.Unlock()
			s.log.Warn("acknowledgment for unknown intake", zap.Int("id", id))
			return fmt.Errorf("intake %d: %w", id, reminder.ErrNotFound)
		}
		m.RecordIntake(now)
		if m.Completed(now) {
			delete(s.working.Intakes, id)
			s.working.FinishedIntakes[id] = struct{}{}
		}

	default:
		s.mu.Unlock()
		return fmt.Errorf("%q: %w", kind, reminder.ErrUnknownKind)
	}

	s.metrics.AcknowledgmentsTotal.WithLabelValues(string(kind)).Inc()
	s.journal.Record(JournalEntry{Event: EventAcknowledged, Kind: kind, ReminderID: id})

	apptsChanged, medsChanged := s.recomputeDueLocked(now)
	saveErr := s.persistLocked(ctx)
	listener := s.listener
	dueAppts := append([]reminder.Appointment(nil), s.dueAppts...)
	dueMeds := append([]reminder.MedicationIntake(nil), s.dueMeds...)
	s.mu.Unlock()

	if listener != nil {
		if apptsChanged {
			listener.OnDueAppointmentsChanged(dueAppts)
		}
		if medsChanged {
			listener.OnDueIntakesChanged(dueMeds)
		}
	}
	return saveErr
}

// DueAppointments returns the last-computed due appointment reminders.
func (s *ReminderService) DueAppointments() []reminder.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reminder.Appointment(nil), s.dueAppts...)
}

// DueIntakes returns the last-computed due intake reminders.
func (s *ReminderService) DueIntakes() []reminder.MedicationIntake {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reminder.MedicationIntake(nil), s.dueMeds...)
}

// TomorrowAppointments returns live appointments scheduled for tomorrow,
// for the shell's heads-up banner.
func (s *ReminderService) TomorrowAppointments() []reminder.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var out []reminder.Appointment
	for _, a := range s.working.Appointments {
		if a.IsDayBefore(now) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}

// deriveLocked builds reminders for prescriptions not yet live and not
// archived. A malformed record skips only itself; derivation of the rest
// of the batch continues.
func (s *ReminderService) deriveLocked(records []prescription.Record, now time.Time, cycleID uuid.UUID) bool {
	mutated := false

	for _, rec := range records {
		if _, done := s.working.FinishedAppointments[rec.ID]; !done {
			if _, live := s.working.Appointments[rec.ID]; !live {
				a, err := reminder.NewAppointment(rec)
				if err != nil {
					s.skipRecord(rec.ID, reminder.KindAppointment, cycleID, err)
				} else {
					s.working.Appointments[rec.ID] = a
					s.metrics.RemindersDerivedTotal.WithLabelValues(string(reminder.KindAppointment)).Inc()
					s.journal.Record(JournalEntry{
						Event: EventDerived, Kind: reminder.KindAppointment,
						ReminderID: rec.ID, CycleID: cycleID,
					})
					mutated = true
				}
			}
		}

		if _, done := s.working.FinishedIntakes[rec.ID]; done {
			continue
		}
		if _, live := s.working.Intakes[rec.ID]; live {
			continue
		}
		m, err := reminder.NewMedicationIntake(rec, now)
		if err != nil {
			s.skipRecord(rec.ID, reminder.KindIntake, cycleID, err)
			continue
		}
		if !m.Active(now) {
			// Course not started yet or already over; a future course is
			// picked up by a later refresh once its start date arrives.
			continue
		}
		s.working.Intakes[rec.ID] = m
		s.metrics.RemindersDerivedTotal.WithLabelValues(string(reminder.KindIntake)).Inc()
		s.journal.Record(JournalEntry{
			Event: EventDerived, Kind: reminder.KindIntake,
			ReminderID: rec.ID, CycleID: cycleID,
		})
		mutated = true
	}
	return mutated
}

func (s *ReminderService) skipRecord(id int, kind reminder.Kind, cycleID uuid.UUID, err error) {
	s.log.Warn("skipping malformed prescription",
		zap.Int("id", id), zap.String("kind", string(kind)), zap.Error(err))
	s.metrics.DerivationSkipsTotal.Inc()
	s.journal.Record(JournalEntry{
		Event: EventSkipped, Kind: kind, ReminderID: id,
		CycleID: cycleID, Detail: err.Error(),
	})
}

// rollCyclesLocked resets intake counts for reminders whose cycle has
// elapsed, so daily courses start each day at zero doses taken.
func (s *ReminderService) rollCyclesLocked(now time.Time) bool {
	mutated := false
	for _, m := range s.working.Intakes {
		if m.Active(now) && m.CycleElapsed(now) {
			m.ResetCycle(now)
			mutated = true
		}
	}
	return mutated
}

// expireLocked archives reminders whose date has drifted past the grace
// period without acknowledgment, so a missed appointment does not stay
// due forever and the working set stays bounded.
func (s *ReminderService) expireLocked(now time.Time, cycleID uuid.UUID) bool {
	mutated := false

	for id, a := range s.working.Appointments {
		if a.Expired(now, s.cfg.ExpiryGrace) {
			delete(s.working.Appointments, id)
			s.working.FinishedAppointments[id] = struct{}{}
			s.metrics.RemindersExpiredTotal.WithLabelValues(string(reminder.KindAppointment)).Inc()
			s.journal.Record(JournalEntry{
				Event: EventExpired, Kind: reminder.KindAppointment,
				ReminderID: id, CycleID: cycleID,
			})
			mutated = true
		}
	}

	for id, m := range s.working.Intakes {
		if m.Lapsed(now, s.cfg.ExpiryGrace) {
			delete(s.working.Intakes, id)
			s.working.FinishedIntakes[id] = struct{}{}
			s.metrics.RemindersExpiredTotal.WithLabelValues(string(reminder.KindIntake)).Inc()
			s.journal.Record(JournalEntry{
				Event: EventExpired, Kind: reminder.KindIntake,
				ReminderID: id, CycleID: cycleID,
			})
			mutated = true
		}
	}
	return mutated
}

// recomputeDueLocked rebuilds both due views and reports which changed.
// Due checks are pure; nothing here mutates a reminder.
func (s *ReminderService) recomputeDueLocked(now time.Time) (apptsChanged, medsChanged bool) {
	appts := make([]reminder.Appointment, 0, len(s.working.Appointments))
	for _, a := range s.working.Appointments {
		if a.Due(now, s.cfg.AppointmentBuffer) {
			appts = append(appts, *a)
		}
	}
	sort.Slice(appts, func(i, j int) bool {
		if appts[i].StartsAt.Equal(appts[j].StartsAt) {
			return appts[i].ID < appts[j].ID
		}
		return appts[i].StartsAt.Before(appts[j].StartsAt)
	})

	meds := make([]reminder.MedicationIntake, 0, len(s.working.Intakes))
	for _, m := range s.working.Intakes {
		if m.Due(now, s.cfg.DoseAnchor) {
			meds = append(meds, *m)
		}
	}
	sort.Slice(meds, func(i, j int) bool { return meds[i].ID < meds[j].ID })

	apptsChanged = !sameAppointmentIDs(s.dueAppts, appts)
	medsChanged = !sameIntakeIDs(s.dueMeds, meds)
	s.dueAppts = appts
	s.dueMeds = meds

	s.metrics.DueReminders.WithLabelValues(string(reminder.KindAppointment)).Set(float64(len(appts)))
	s.metrics.DueReminders.WithLabelValues(string(reminder.KindIntake)).Set(float64(len(meds)))
	return apptsChanged, medsChanged
}

func (s *ReminderService) persistLocked(ctx context.Context) error {
	_, span := tracer.Start(ctx, "reminder.save_state")
	defer span.End()

	if err := s.store.Save(s.working); err != nil {
		s.metrics.StateSaveErrorsTotal.Inc()
		s.log.Error("failed to persist reminder state", zap.Error(err))
		return fmt.Errorf("persisting reminder state: %w", err)
	}
	s.metrics.StateSavesTotal.Inc()
	return nil
}

func sameAppointmentIDs(a []reminder.Appointment, b []reminder.Appointment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func sameIntakeIDs(a []reminder.MedicationIntake, b []reminder.MedicationIntake) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

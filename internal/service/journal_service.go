package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medremind/internal/domain/reminder"
	"github.com/dmehra2102/prod-golang-projects/medremind/pkg/metrics"
)

type JournalEvent string

const (
	EventDerived      JournalEvent = "derived"
	EventAcknowledged JournalEvent = "acknowledged"
	EventExpired      JournalEvent = "expired"
	EventSkipped      JournalEvent = "skipped"
)

// JournalEntry is one lifecycle event. Entries are an append-only
// diagnostic history and are never read back by the engine.
type JournalEntry struct {
	ID         uuid.UUID     `json:"id"`
	OccurredAt time.Time     `json:"occurred_at"`
	Event      JournalEvent  `json:"event"`
	Kind       reminder.Kind `json:"kind"`
	ReminderID int           `json:"reminder_id"`
	CycleID    uuid.UUID     `json:"cycle_id,omitzero"`
	Detail     string        `json:"detail,omitempty"`
}

type JournalAppender interface {
	Append(ctx context.Context, entry any) error
}

type JournalService struct {
	appender JournalAppender
	log      *zap.Logger
	metrics  *metrics.Collector
	entries  chan *JournalEntry
	done     chan struct{}
}

const journalBufferSize = 1024

func NewJournalService(appender JournalAppender, m *metrics.Collector, log *zap.Logger) *JournalService {
	svc := &JournalService{
		appender: appender,
		log:      log,
		metrics:  m,
		entries:  make(chan *JournalEntry, journalBufferSize),
		done:     make(chan struct{}),
	}
	go svc.worker()
	return svc
}

// Record enqueues an entry for async persistence. If the buffer is full,
// the entry is dropped and a warning is emitted.
func (s *JournalService) Record(entry JournalEntry) {
	entry.ID = uuid.New()
	entry.OccurredAt = time.Now()

	select {
	case s.entries <- &entry:
	default:
		s.metrics.JournalDropped.Inc()
		s.log.Warn("journal buffer full, dropping entry",
			zap.String("event", string(entry.Event)),
			zap.Int("reminder_id", entry.ReminderID),
		)
	}
}

func (s *JournalService) Shutdown() {
	close(s.entries)
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn("journal shutdown timed out; some entries may be lost")
	}
}

func (s *JournalService) worker() {
	defer close(s.done)
	for entry := range s.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.appender.Append(ctx, entry); err != nil {
			s.log.Error("failed to persist journal entry", zap.Error(err))
		} else {
			s.metrics.JournalEntriesTotal.Inc()
		}
		cancel()
	}
}

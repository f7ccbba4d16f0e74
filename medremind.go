// Package medremind is the medication-reminder engine embedded by the
// GUI shell: it derives reminders from prescriptions, evaluates which are
// due against the wall clock, tracks acknowledgments, and persists
// lifecycle state across restarts. The shell renders what the engine
// exposes and feeds user acknowledgments back in; there is no network or
// CLI surface.
package medremind

import (
	"context"
	"fmt"
	"os"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medremind/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medremind/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/medremind/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medremind/internal/statestore"
	"github.com/dmehra2102/prod-golang-projects/medremind/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/medremind/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/medremind/pkg/tracer"
)

// Engine wires the reminder service, its stores and the ambient stack
// together from configuration.
type Engine struct {
	cfg           *config.Config
	log           *zap.Logger
	metrics       *metrics.Collector
	tp            *sdktrace.TracerProvider
	prescriptions *prescription.FileStore
	journal       *service.JournalService
	reminders     *service.ReminderService
}

// New builds an Engine from environment configuration.
func New() (*Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg *config.Config) (*Engine, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracer: %w", err)
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	m := metrics.NewCollector(cfg.App.Name)

	prescriptions, err := prescription.NewFileStore(cfg.Storage.PrescriptionsPath())
	if err != nil {
		return nil, err
	}

	journal := service.NewJournalService(
		statestore.NewFileJournal(cfg.Storage.JournalPath()), m, log)
	stateStore := statestore.New(cfg.Storage.StatePath(), log)
	reminders := service.NewReminderService(cfg.Reminder, prescriptions, stateStore, journal, m, log)

	return &Engine{
		cfg:           cfg,
		log:           log,
		metrics:       m,
		tp:            tp,
		prescriptions: prescriptions,
		journal:       journal,
		reminders:     reminders,
	}, nil
}

// Reminders exposes the lifecycle manager: Refresh, Acknowledge, the due
// views and listener registration.
func (e *Engine) Reminders() *service.ReminderService {
	return e.reminders
}

// Prescriptions exposes the prescription document store for the shell's
// CRUD pages.
func (e *Engine) Prescriptions() *prescription.FileStore {
	return e.prescriptions
}

// Run drives periodic due-status refreshes until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.reminders.Run(ctx)
}

// Close flushes the journal and tracer. Call after Run returns.
func (e *Engine) Close(ctx context.Context) error {
	e.journal.Shutdown()
	if err := e.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down tracer: %w", err)
	}
	_ = e.log.Sync()
	return nil
}

package sched

import (
	"context"
	"time"

	"telegram-signals-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// ReminderWorker drives the notification scheduler: every interval it runs one
// full pass over the user population and lets the use case decide per user
// whether anything is due.
type ReminderWorker struct {
	interval   time.Duration
	reminderUC usecase.ReminderUseCase
	log        *zerolog.Logger
}

func NewReminderWorker(interval time.Duration, reminderUC usecase.ReminderUseCase, logger *zerolog.Logger) *ReminderWorker {
	wlog := logger.With().Str("component", "ReminderWorker").Logger()
	return &ReminderWorker{
		interval:   interval,
		reminderUC: reminderUC,
		log:        &wlog,
	}
}

func (w *ReminderWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting reminder worker")

	// One pass on startup so a restart never pushes a due reminder a full
	// interval into the future.
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping reminder worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ReminderWorker) tick(ctx context.Context) {
	report, err := w.reminderUC.Tick(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("scheduler tick failed")
		return
	}
	if report.TrialReminders+report.TrialExpired+report.SuspensionReminders+report.Failures > 0 {
		w.log.Info().
			Int("trial_reminders", report.TrialReminders).
			Int("trial_expired", report.TrialExpired).
			Int("suspension_reminders", report.SuspensionReminders).
			Int("failures", report.Failures).
			Msg("scheduler tick complete")
	}
}

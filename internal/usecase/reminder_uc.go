package usecase

import (
	"context"
	"errors"
	"time"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/model"
	"telegram-signals-bot/internal/domain/ports/adapter"
	"telegram-signals-bot/internal/domain/ports/repository"
	"telegram-signals-bot/internal/infra/logging"
	"telegram-signals-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// suspendedReminderEvery is the minimum spacing between daily reminders to a
// suspended user.
const suspendedReminderEvery = 24 * time.Hour

// Compile-time check
var _ ReminderUseCase = (*reminderUC)(nil)

// TickReport aggregates what one scheduler pass did.
type TickReport struct {
	TrialReminders      int
	TrialExpired        int
	SuspensionReminders int
	Failures            int
}

// ReminderUseCase evaluates every user record against the time-based rules:
// trial countdown reminders at 7/3/1 days, trial expiry, and daily reminders
// to suspended users.
type ReminderUseCase interface {
	Tick(ctx context.Context) (TickReport, error)
}

type reminderUC struct {
	users       repository.UserStore
	bot         adapter.TelegramBotAdapter
	brokerLink  string
	sendTimeout time.Duration
	now         Clock
	log         *zerolog.Logger
}

func NewReminderUseCase(users repository.UserStore, bot adapter.TelegramBotAdapter, brokerLink string, sendTimeout time.Duration, clock Clock, logger *zerolog.Logger) *reminderUC {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &reminderUC{
		users:       users,
		bot:         bot,
		brokerLink:  brokerLink,
		sendTimeout: sendTimeout,
		now:         orWallClock(clock),
		log:         logger,
	}
}

// Tick runs one scheduler pass over a store snapshot. Failures on one user
// never block the rest of the population; each record is processed under its
// own panic guard. Re-running a tick is safe: the markers and the status
// transitions themselves make every rule fire at most once per episode.
func (uc *reminderUC) Tick(ctx context.Context) (TickReport, error) {
	defer logging.TraceDuration(uc.log, "ReminderUC.Tick")()

	started := uc.now()
	users, err := uc.users.ScanAll(ctx)
	if err != nil {
		return TickReport{}, err
	}

	var report TickReport
	for _, u := range users {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		uc.processOne(ctx, u, &report)
	}

	metrics.ObserveTick(time.Since(started), report.Failures)
	uc.log.Info().
		Int("trial_reminders", report.TrialReminders).
		Int("trial_expired", report.TrialExpired).
		Int("suspension_reminders", report.SuspensionReminders).
		Int("failures", report.Failures).
		Msg("scheduler tick finished")
	return report, nil
}

func (uc *reminderUC) processOne(ctx context.Context, u *model.UserRecord, report *TickReport) {
	defer func() {
		if r := recover(); r != nil {
			report.Failures++
			uc.log.Error().Interface("panic", r).Int64("tg_id", u.TelegramID).Msg("user processing panicked")
		}
	}()

	switch u.Status {
	case model.StatusTrial:
		uc.processTrial(ctx, u, report)
	case model.StatusSuspended:
		uc.processSuspended(ctx, u, report)
	}
}

func (uc *reminderUC) processTrial(ctx context.Context, u *model.UserRecord, report *TickReport) {
	now := uc.now()
	if u.TrialEnd != nil && !now.Before(*u.TrialEnd) {
		uc.expireTrial(ctx, u, report)
		return
	}

	daysLeft := u.TrialDaysLeft(now)
	kind, ok := model.TrialReminderKind(daysLeft)
	if !ok || u.HasReminder(kind) {
		return
	}

	// Write the marker first, then send. A marker without a delivery is
	// recoverable by an admin resend; a delivery without a marker would spam
	// the user on every future tick.
	intent, err := uc.mark(ctx, u.TelegramID, func(rec *model.UserRecord) (model.Intent, error) {
		dl := rec.TrialDaysLeft(uc.now())
		k, ok := model.TrialReminderKind(dl)
		if !ok || k != kind || rec.HasReminder(k) {
			return model.Intent{}, errAlreadyHandled
		}
		rec.MarkReminder(k, uc.now())
		it := model.NewIntent(model.IntentTrialReminder, rec)
		it.DaysLeft = dl
		return it, nil
	})
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			report.Failures++
			uc.log.Error().Err(err).Int64("tg_id", u.TelegramID).Msg("trial reminder marker write failed")
		}
		return
	}

	metrics.IncReminder(string(kind))
	report.TrialReminders++
	if err := uc.deliver(ctx, intent.TelegramID, trialReminderText(intent.DaysLeft, uc.brokerLink)); err != nil {
		report.Failures++
		uc.log.Warn().Err(err).Int64("tg_id", u.TelegramID).Int("days_left", intent.DaysLeft).
			Msg("trial reminder marked but delivery failed")
	}
}

func (uc *reminderUC) expireTrial(ctx context.Context, u *model.UserRecord, report *TickReport) {
	_, err := uc.mark(ctx, u.TelegramID, func(rec *model.UserRecord) (model.Intent, error) {
		it, err := rec.ExpireTrial(uc.now())
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Another tick or handler already expired it.
			return model.Intent{}, errAlreadyHandled
		}
		return it, err
	})
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			report.Failures++
			uc.log.Error().Err(err).Int64("tg_id", u.TelegramID).Msg("trial expiry failed")
		}
		return
	}

	metrics.IncTransition(string(model.IntentTrialExpired))
	report.TrialExpired++
	if err := uc.deliver(ctx, u.TelegramID, trialExpiredText(uc.brokerLink)); err != nil {
		report.Failures++
		uc.log.Warn().Err(err).Int64("tg_id", u.TelegramID).Msg("trial expired but delivery failed")
	}
}

func (uc *reminderUC) processSuspended(ctx context.Context, u *model.UserRecord, report *TickReport) {
	now := uc.now()
	if at, ok := u.ReminderSentAt(model.ReminderSuspendedDaily); ok && now.Sub(at) < suspendedReminderEvery {
		return
	}

	_, err := uc.mark(ctx, u.TelegramID, func(rec *model.UserRecord) (model.Intent, error) {
		n := uc.now()
		if at, ok := rec.ReminderSentAt(model.ReminderSuspendedDaily); ok && n.Sub(at) < suspendedReminderEvery {
			return model.Intent{}, errAlreadyHandled
		}
		if rec.Status != model.StatusSuspended {
			return model.Intent{}, errAlreadyHandled
		}
		rec.MarkReminder(model.ReminderSuspendedDaily, n)
		return model.NewIntent(model.IntentSuspensionDailyReminder, rec), nil
	})
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			report.Failures++
			uc.log.Error().Err(err).Int64("tg_id", u.TelegramID).Msg("suspension reminder marker write failed")
		}
		return
	}

	metrics.IncReminder(string(model.ReminderSuspendedDaily))
	report.SuspensionReminders++
	if err := uc.deliver(ctx, u.TelegramID, suspensionDailyText(uc.brokerLink)); err != nil {
		report.Failures++
		uc.log.Warn().Err(err).Int64("tg_id", u.TelegramID).Msg("suspension reminder marked but delivery failed")
	}
}

// errAlreadyHandled signals that the scanned snapshot was stale and the fresh
// record no longer needs the action. Not a failure.
var errAlreadyHandled = errors.New("already handled")

// mark reruns a read-modify-CAS cycle like lifecycleUC.transition, but keyed
// to the scheduler's marker writes.
func (uc *reminderUC) mark(ctx context.Context, tgID int64, fn func(rec *model.UserRecord) (model.Intent, error)) (model.Intent, error) {
	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		cur, err := uc.users.FindByTelegramID(ctx, tgID)
		if err != nil {
			return model.Intent{}, err
		}
		next := cur.Clone()
		intent, err := fn(next)
		if err != nil {
			return model.Intent{}, err
		}
		if err := uc.users.CompareAndSwap(ctx, next); err != nil {
			if errors.Is(err, domain.ErrStoreConflict) {
				lastErr = err
				continue
			}
			return model.Intent{}, err
		}
		return intent, nil
	}
	return model.Intent{}, errors.Join(domain.ErrTransientFailure, lastErr)
}

// deliver sends one message with a bounded timeout so a stalled delivery
// cannot hold up the tick.
func (uc *reminderUC) deliver(ctx context.Context, tgID int64, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, uc.sendTimeout)
	defer cancel()
	if err := uc.bot.SendMessage(sendCtx, tgID, text); err != nil {
		metrics.IncDeliveryFailure("scheduler")
		return errors.Join(domain.ErrDeliveryFailure, err)
	}
	return nil
}

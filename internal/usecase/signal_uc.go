package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/model"
	"telegram-signals-bot/internal/domain/ports/adapter"
	"telegram-signals-bot/internal/domain/ports/repository"
	"telegram-signals-bot/internal/infra/metrics"
	"telegram-signals-bot/internal/infra/worker"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SignalUseCase = (*signalUC)(nil)

// SignalReport aggregates one distribution run.
type SignalReport struct {
	Sent    int
	Teasers int
	Failed  int
}

// SignalUseCase distributes trading signals: full setups to Premium and Trial
// users, a locked teaser to Suspended users. The signal contents are opaque
// to the lifecycle core.
type SignalUseCase interface {
	Distribute(ctx context.Context, sig *model.Signal) (SignalReport, error)
}

type signalUC struct {
	users       repository.UserStore
	bot         adapter.TelegramBotAdapter
	pool        *worker.Pool
	brokerLink  string
	sendTimeout time.Duration
	now         Clock
	log         *zerolog.Logger
}

func NewSignalUseCase(users repository.UserStore, bot adapter.TelegramBotAdapter, pool *worker.Pool, brokerLink string, sendTimeout time.Duration, clock Clock, logger *zerolog.Logger) *signalUC {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &signalUC{
		users:       users,
		bot:         bot,
		pool:        pool,
		brokerLink:  brokerLink,
		sendTimeout: sendTimeout,
		now:         orWallClock(clock),
		log:         logger,
	}
}

func (uc *signalUC) Distribute(ctx context.Context, sig *model.Signal) (SignalReport, error) {
	if sig == nil {
		return SignalReport{}, domain.ErrInvalidArgument
	}
	users, err := uc.users.ScanAll(ctx)
	if err != nil {
		return SignalReport{}, err
	}

	full := signalText(sig)
	teaser := signalTeaserText(sig, uc.brokerLink)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report SignalReport
	)
	for _, u := range users {
		var text string
		var isTeaser bool
		switch u.Status {
		case model.StatusPremium, model.StatusTrial:
			text = full
		case model.StatusSuspended:
			text, isTeaser = teaser, true
		default:
			continue
		}

		tgID := u.TelegramID
		wg.Add(1)
		task := func(taskCtx context.Context) error {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(taskCtx, uc.sendTimeout)
			defer cancel()
			err := uc.bot.SendMessage(sendCtx, tgID, text)
			mu.Lock()
			if err != nil {
				report.Failed++
				mu.Unlock()
				uc.log.Warn().Err(err).Int64("tg_id", tgID).Str("signal_id", sig.ID).Msg("signal delivery failed")
				return nil
			}
			if isTeaser {
				report.Teasers++
			} else {
				report.Sent++
			}
			mu.Unlock()
			if !isTeaser {
				uc.recordDelivery(taskCtx, tgID)
			}
			return nil
		}
		if err := uc.pool.Do(ctx, task); err != nil {
			wg.Done()
			mu.Lock()
			report.Failed++
			mu.Unlock()
		}
	}
	wg.Wait()

	metrics.ObserveSignal(report.Sent, report.Teasers, report.Failed)
	uc.log.Info().Str("signal_id", sig.ID).Str("symbol", sig.Symbol).
		Int("sent", report.Sent).Int("teasers", report.Teasers).Int("failed", report.Failed).
		Msg("signal distributed")
	return report, nil
}

// recordDelivery bumps the per-user signal counter. Best effort: the counter
// is accounting, not correctness, so a lost race is only logged.
func (uc *signalUC) recordDelivery(ctx context.Context, tgID int64) {
	for attempt := 0; attempt < casRetries; attempt++ {
		cur, err := uc.users.FindByTelegramID(ctx, tgID)
		if err != nil {
			return
		}
		next := cur.Clone()
		next.RecordSignalDelivery(uc.now())
		err = uc.users.CompareAndSwap(ctx, next)
		if err == nil {
			return
		}
		if !errors.Is(err, domain.ErrStoreConflict) {
			return
		}
	}
	uc.log.Debug().Int64("tg_id", tgID).Msg("signal counter update lost to contention")
}

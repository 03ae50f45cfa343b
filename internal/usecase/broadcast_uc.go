package usecase

import (
	"context"
	"sync"
	"time"

	"telegram-signals-bot/internal/domain/model"
	"telegram-signals-bot/internal/domain/ports/adapter"
	"telegram-signals-bot/internal/domain/ports/repository"
	"telegram-signals-bot/internal/infra/logging"
	"telegram-signals-bot/internal/infra/metrics"
	"telegram-signals-bot/internal/infra/worker"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ BroadcastUseCase = (*broadcastUC)(nil)

// BroadcastResult aggregates per-user outcomes of one batch. Failures are
// collected, never fatal to the batch.
type BroadcastResult struct {
	BatchID   string
	Sent      int
	Failed    int
	FailedIDs []int64
}

// BroadcastUseCase enumerates one store snapshot, filters it by segment and
// emits one send per match. Re-running a broadcast re-sends to the full
// segment; at-least-once is the accepted semantics.
type BroadcastUseCase interface {
	Broadcast(ctx context.Context, segment model.Segment, message string) (BroadcastResult, error)
}

type broadcastUC struct {
	users       repository.UserStore
	bot         adapter.TelegramBotAdapter
	pool        *worker.Pool
	sendTimeout time.Duration
	log         *zerolog.Logger
}

func NewBroadcastUseCase(users repository.UserStore, bot adapter.TelegramBotAdapter, pool *worker.Pool, sendTimeout time.Duration, logger *zerolog.Logger) *broadcastUC {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &broadcastUC{
		users:       users,
		bot:         bot,
		pool:        pool,
		sendTimeout: sendTimeout,
		log:         logger,
	}
}

func (uc *broadcastUC) Broadcast(ctx context.Context, segment model.Segment, message string) (BroadcastResult, error) {
	defer logging.TraceDuration(uc.log, "BroadcastUC.Broadcast")()

	if _, err := model.ParseSegment(string(segment)); err != nil {
		return BroadcastResult{}, err
	}

	users, err := uc.users.ScanAll(ctx)
	if err != nil {
		uc.log.Error().Err(err).Msg("broadcast snapshot scan failed")
		return BroadcastResult{}, err
	}

	var targets []*model.UserRecord
	for _, u := range users {
		if segment.Matches(u) {
			targets = append(targets, u)
		}
	}

	result := BroadcastResult{BatchID: ulid.Make().String()}
	uc.log.Info().Str("batch_id", result.BatchID).Str("segment", string(segment)).
		Int("targets", len(targets)).Msg("starting broadcast batch")

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, u := range targets {
		tgID := u.TelegramID
		wg.Add(1)
		task := func(taskCtx context.Context) error {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(taskCtx, uc.sendTimeout)
			defer cancel()
			err := uc.bot.SendMessage(sendCtx, tgID, message)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.FailedIDs = append(result.FailedIDs, tgID)
				uc.log.Warn().Err(err).Int64("tg_id", tgID).Str("batch_id", result.BatchID).
					Msg("broadcast delivery failed")
				return nil // isolated; the pool must not treat it as a task error
			}
			result.Sent++
			return nil
		}
		if err := uc.pool.Do(ctx, task); err != nil {
			// Could not even queue: the batch is being shut down.
			wg.Done()
			mu.Lock()
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, tgID)
			mu.Unlock()
		}
	}
	wg.Wait()

	metrics.ObserveBroadcast(string(segment), result.Sent, result.Failed)
	uc.log.Info().Str("batch_id", result.BatchID).Int("sent", result.Sent).
		Int("failed", result.Failed).Msg("broadcast batch finished")
	return result, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/model"
	"telegram-signals-bot/internal/domain/ports/repository"
	"telegram-signals-bot/internal/infra/logging"
	"telegram-signals-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// casRetries bounds the internal retry loop on store conflicts before the
// operation surfaces domain.ErrTransientFailure.
const casRetries = 3

// Compile-time check
var _ LifecycleUseCase = (*lifecycleUC)(nil)

// RegistrationProfile carries the broker registration answers collected from
// the user before a verification submission.
type RegistrationProfile struct {
	Country       string
	FullName      string
	Email         string
	AccountNumber string
	TermsAccepted bool
}

// LifecycleUseCase is the single writer of user records: every status change
// goes through one of its transition operations.
type LifecycleUseCase interface {
	RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.UserRecord, error)
	GetByTelegramID(ctx context.Context, tgID int64) (*model.UserRecord, error)
	StartTrial(ctx context.Context, tgID int64) (*model.UserRecord, model.Intent, error)
	SubmitVerification(ctx context.Context, tgID int64, profile RegistrationProfile) (*model.UserRecord, model.Intent, error)
	Approve(ctx context.Context, tgID int64, subscriptionEnd *time.Time) (*model.UserRecord, model.Intent, error)
	Reject(ctx context.Context, tgID int64) (*model.UserRecord, model.Intent, error)
	Suspend(ctx context.Context, tgID int64, reason string) (*model.UserRecord, model.Intent, error)
	Reactivate(ctx context.Context, tgID int64) (*model.UserRecord, model.Intent, error)
}

type lifecycleUC struct {
	users     repository.UserStore
	trialDays int
	now       Clock
	log       *zerolog.Logger
}

func NewLifecycleUseCase(users repository.UserStore, trialDays int, clock Clock, logger *zerolog.Logger) *lifecycleUC {
	if trialDays <= 0 {
		trialDays = 14
	}
	return &lifecycleUC{
		users:     users,
		trialDays: trialDays,
		now:       orWallClock(clock),
		log:       logger,
	}
}

// RegisterOrFetch creates a record on first contact, or refreshes the
// activity timestamp of an existing one.
func (uc *lifecycleUC) RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.UserRecord, error) {
	defer logging.TraceDuration(uc.log, "LifecycleUC.RegisterOrFetch")()

	u, err := uc.users.FindByTelegramID(ctx, tgID)
	if err == nil {
		next := u.Clone()
		if username != "" && next.Username != username {
			next.Username = username
		}
		next.Touch(uc.now())
		// Best effort: losing this write only loses an activity timestamp.
		if casErr := uc.users.CompareAndSwap(ctx, next); casErr != nil {
			uc.log.Debug().Err(casErr).Int64("tg_id", tgID).Msg("activity refresh lost")
			return u, nil
		}
		return next, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	nu, err := model.NewUserRecord("", tgID, username)
	if err != nil {
		return nil, err
	}
	if err := uc.users.Create(ctx, nu); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost the creation race to a concurrent handler.
			return uc.users.FindByTelegramID(ctx, tgID)
		}
		return nil, err
	}
	uc.log.Info().Int64("tg_id", tgID).Str("user_id", nu.ID).Msg("new user registered")
	return nu, nil
}

func (uc *lifecycleUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.UserRecord, error) {
	return uc.users.FindByTelegramID(ctx, tgID)
}

func (uc *lifecycleUC) StartTrial(ctx context.Context, tgID int64) (*model.UserRecord, model.Intent, error) {
	return uc.transition(ctx, tgID, func(u *model.UserRecord) (model.Intent, error) {
		return u.StartTrial(uc.now(), uc.trialDays)
	})
}

func (uc *lifecycleUC) SubmitVerification(ctx context.Context, tgID int64, profile RegistrationProfile) (*model.UserRecord, model.Intent, error) {
	return uc.transition(ctx, tgID, func(u *model.UserRecord) (model.Intent, error) {
		if profile.Country != "" {
			u.Country = profile.Country
		}
		if profile.FullName != "" {
			u.FullName = profile.FullName
		}
		if profile.Email != "" {
			u.Email = profile.Email
		}
		if profile.AccountNumber != "" {
			u.AccountNumber = profile.AccountNumber
		}
		if profile.TermsAccepted {
			u.TermsAccepted = true
		}
		return u.SubmitVerification(uc.now())
	})
}

func (uc *lifecycleUC) Approve(ctx context.Context, tgID int64, subscriptionEnd *time.Time) (*model.UserRecord, model.Intent, error) {
	return uc.transition(ctx, tgID, func(u *model.UserRecord) (model.Intent, error) {
		return u.ApproveVerification(uc.now(), subscriptionEnd)
	})
}

func (uc *lifecycleUC) Reject(ctx context.Context, tgID int64) (*model.UserRecord, model.Intent, error) {
	return uc.transition(ctx, tgID, func(u *model.UserRecord) (model.Intent, error) {
		return u.RejectVerification(uc.now())
	})
}

func (uc *lifecycleUC) Suspend(ctx context.Context, tgID int64, reason string) (*model.UserRecord, model.Intent, error) {
	return uc.transition(ctx, tgID, func(u *model.UserRecord) (model.Intent, error) {
		return u.Suspend(uc.now(), reason)
	})
}

func (uc *lifecycleUC) Reactivate(ctx context.Context, tgID int64) (*model.UserRecord, model.Intent, error) {
	return uc.transition(ctx, tgID, func(u *model.UserRecord) (model.Intent, error) {
		return u.Reactivate(uc.now())
	})
}

// transition runs one read-modify-write cycle under the store's per-key CAS
// guarantee. fn is applied to a clone of the stored record so validation
// errors leave no trace; on a version conflict the whole cycle reruns against
// the fresh record, a bounded number of times.
func (uc *lifecycleUC) transition(ctx context.Context, tgID int64, fn func(u *model.UserRecord) (model.Intent, error)) (*model.UserRecord, model.Intent, error) {
	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		cur, err := uc.users.FindByTelegramID(ctx, tgID)
		if err != nil {
			return nil, model.Intent{}, err
		}
		next := cur.Clone()
		intent, err := fn(next)
		if err != nil {
			return nil, model.Intent{}, err
		}
		if err := uc.users.CompareAndSwap(ctx, next); err != nil {
			if errors.Is(err, domain.ErrStoreConflict) {
				metrics.IncTransitionConflict(string(intent.Kind))
				lastErr = err
				continue
			}
			return nil, model.Intent{}, err
		}
		metrics.IncTransition(string(intent.Kind))
		uc.log.Info().
			Int64("tg_id", tgID).
			Str("transition", string(intent.Kind)).
			Str("status", string(next.Status)).
			Msg("lifecycle transition applied")
		return next, intent, nil
	}
	return nil, model.Intent{}, fmt.Errorf("%w: %v", domain.ErrTransientFailure, lastErr)
}

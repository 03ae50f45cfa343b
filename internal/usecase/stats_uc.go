package usecase

import (
	"context"
	"math"
	"time"

	"telegram-signals-bot/internal/domain/model"
	"telegram-signals-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Analytics is a point-in-time population summary.
type Analytics struct {
	TotalUsers           int     `json:"total_users"`
	FreeUsers            int     `json:"free_users"`
	TrialUsers           int     `json:"trial_users"`
	PremiumUsers         int     `json:"premium_users"`
	SuspendedUsers       int     `json:"suspended_users"`
	PendingVerifications int     `json:"pending_verifications"`
	ConversionRate       float64 `json:"conversion_rate"`
	TrialConversionRate  float64 `json:"trial_conversion_rate"`
	RecentUsers7d        int     `json:"recent_users_7d"`
}

type StatsUseCase interface {
	Analytics(ctx context.Context) (Analytics, error)
}

type statsUC struct {
	users repository.UserStore
	now   Clock
	log   *zerolog.Logger
}

func NewStatsUseCase(users repository.UserStore, clock Clock, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, now: orWallClock(clock), log: logger}
}

func (s *statsUC) Analytics(ctx context.Context) (Analytics, error) {
	users, err := s.users.ScanAll(ctx)
	if err != nil {
		return Analytics{}, err
	}

	var a Analytics
	a.TotalUsers = len(users)
	weekAgo := s.now().Add(-7 * 24 * time.Hour)
	for _, u := range users {
		switch u.Status {
		case model.StatusFree:
			a.FreeUsers++
		case model.StatusTrial:
			a.TrialUsers++
		case model.StatusPremium:
			a.PremiumUsers++
		case model.StatusSuspended:
			a.SuspendedUsers++
		case model.StatusPendingVerification:
			a.PendingVerifications++
		}
		if u.CreatedAt.After(weekAgo) {
			a.RecentUsers7d++
		}
	}

	if a.TotalUsers > 0 {
		a.ConversionRate = round2(float64(a.PremiumUsers) / float64(a.TotalUsers) * 100)
	}
	if a.TrialUsers+a.PremiumUsers > 0 {
		a.TrialConversionRate = round2(float64(a.PremiumUsers) / float64(a.TrialUsers+a.PremiumUsers) * 100)
	}
	return a, nil
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

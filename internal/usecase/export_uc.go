package usecase

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"time"

	"telegram-signals-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ExportUseCase = (*exportUC)(nil)

// ExportUseCase serializes a read-only store snapshot as CSV rows for the
// external reporting collaborator.
type ExportUseCase interface {
	ExportCSV(ctx context.Context, w io.Writer) (int, error)
}

type exportUC struct {
	users repository.UserStore
	log   *zerolog.Logger
}

func NewExportUseCase(users repository.UserStore, logger *zerolog.Logger) *exportUC {
	return &exportUC{users: users, log: logger}
}

var exportHeader = []string{
	"user_id", "telegram_id", "username", "status", "trial_used", "trial_end",
	"subscription_end", "verified", "suspended", "suspension_reason", "country",
	"created_at", "last_activity", "verification_requests",
	"total_signals_received", "premium_since",
}

// ExportCSV writes one row per user and returns the row count. Rows are
// ordered by telegram id so repeated exports diff cleanly.
func (uc *exportUC) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	users, err := uc.users.ScanAll(ctx)
	if err != nil {
		return 0, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].TelegramID < users[j].TelegramID })

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, err
	}
	for _, u := range users {
		row := []string{
			u.ID,
			strconv.FormatInt(u.TelegramID, 10),
			u.Username,
			string(u.Status),
			strconv.FormatBool(u.TrialUsed),
			fmtTime(u.TrialEnd),
			fmtTime(u.SubscriptionEnd),
			strconv.FormatBool(u.Verified),
			strconv.FormatBool(u.Suspended),
			u.SuspensionReason,
			u.Country,
			u.CreatedAt.Format(time.RFC3339),
			u.LastActivity.Format(time.RFC3339),
			strconv.Itoa(u.VerificationRequestCount),
			strconv.Itoa(u.TotalSignalsReceived),
			fmtTime(u.PremiumSince),
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	uc.log.Info().Int("rows", len(users)).Msg("user export written")
	return len(users), nil
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

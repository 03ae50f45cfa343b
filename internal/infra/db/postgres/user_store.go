package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/model"
	"telegram-signals-bot/internal/domain/ports/repository"
)

var _ repository.UserStore = (*UserStore)(nil)

// UserStore persists UserRecords in a single `users` table. Optimistic
// concurrency rides on the version column: CompareAndSwap updates only the
// row whose version still matches, so writers on the same key race on one
// UPDATE while writers on different keys never interact.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `
id, telegram_id, username, status, resume_status, trial_end, subscription_end,
trial_used, verified, suspended, suspension_reason, country, terms_accepted,
full_name, email, account_number, created_at, last_activity,
last_verification_request_at, verification_request_count, reminders_sent,
total_signals_received, premium_since, version`

func (r *UserStore) Create(ctx context.Context, u *model.UserRecord) error {
	reminders, err := marshalReminders(u.RemindersSent)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO users (` + userColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,1);`
	_, err = r.pool.Exec(ctx, q,
		u.ID, u.TelegramID, u.Username, u.Status, nullStatus(u.ResumeStatus),
		u.TrialEnd, u.SubscriptionEnd, u.TrialUsed, u.Verified, u.Suspended,
		u.SuspensionReason, u.Country, u.TermsAccepted, u.FullName, u.Email,
		u.AccountNumber, u.CreatedAt, u.LastActivity, u.LastVerificationRequestAt,
		u.VerificationRequestCount, reminders, u.TotalSignalsReceived, u.PremiumSince)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.Version = 1
	return nil
}

func (r *UserStore) FindByID(ctx context.Context, id string) (*model.UserRecord, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1;`
	return r.scanOne(r.pool.QueryRow(ctx, q, id))
}

func (r *UserStore) FindByTelegramID(ctx context.Context, tgID int64) (*model.UserRecord, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE telegram_id=$1;`
	return r.scanOne(r.pool.QueryRow(ctx, q, tgID))
}

func (r *UserStore) CompareAndSwap(ctx context.Context, u *model.UserRecord) error {
	reminders, err := marshalReminders(u.RemindersSent)
	if err != nil {
		return err
	}
	const q = `
UPDATE users SET
  username=$3, status=$4, resume_status=$5, trial_end=$6, subscription_end=$7,
  trial_used=$8, verified=$9, suspended=$10, suspension_reason=$11, country=$12,
  terms_accepted=$13, full_name=$14, email=$15, account_number=$16,
  last_activity=$17, last_verification_request_at=$18,
  verification_request_count=$19, reminders_sent=$20,
  total_signals_received=$21, premium_since=$22, version=version+1
WHERE id=$1 AND version=$2;`
	tag, err := r.pool.Exec(ctx, q,
		u.ID, u.Version, u.Username, u.Status, nullStatus(u.ResumeStatus),
		u.TrialEnd, u.SubscriptionEnd, u.TrialUsed, u.Verified, u.Suspended,
		u.SuspensionReason, u.Country, u.TermsAccepted, u.FullName, u.Email,
		u.AccountNumber, u.LastActivity, u.LastVerificationRequestAt,
		u.VerificationRequestCount, reminders, u.TotalSignalsReceived, u.PremiumSince)
	if err != nil {
		return fmt.Errorf("cas user: %w", err)
	}
	if tag.RowsAffected() == 1 {
		u.Version++
		return nil
	}

	// Zero rows: either the version moved on or the row is gone.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1);`, u.ID).Scan(&exists); err != nil {
		return fmt.Errorf("cas user existence check: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrStoreConflict
}

func (r *UserStore) ScanAll(ctx context.Context) ([]*model.UserRecord, error) {
	const q = `SELECT ` + userColumns + ` FROM users;`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.UserRecord
	for rows.Next() {
		u, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *UserStore) scanOne(row pgx.Row) (*model.UserRecord, error) {
	u, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserStore) scanRow(row rowScanner) (*model.UserRecord, error) {
	var (
		u            model.UserRecord
		resumeStatus *string
		reminders    []byte
	)
	err := row.Scan(
		&u.ID, &u.TelegramID, &u.Username, &u.Status, &resumeStatus,
		&u.TrialEnd, &u.SubscriptionEnd, &u.TrialUsed, &u.Verified, &u.Suspended,
		&u.SuspensionReason, &u.Country, &u.TermsAccepted, &u.FullName, &u.Email,
		&u.AccountNumber, &u.CreatedAt, &u.LastActivity, &u.LastVerificationRequestAt,
		&u.VerificationRequestCount, &reminders, &u.TotalSignalsReceived,
		&u.PremiumSince, &u.Version)
	if err != nil {
		return nil, err
	}
	if resumeStatus != nil {
		u.ResumeStatus = model.Status(*resumeStatus)
	}
	if err := unmarshalReminders(reminders, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func nullStatus(s model.Status) *string {
	if s == "" {
		return nil
	}
	v := string(s)
	return &v
}

func marshalReminders(m map[model.ReminderKind]time.Time) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func unmarshalReminders(b []byte, u *model.UserRecord) error {
	u.RemindersSent = map[model.ReminderKind]time.Time{}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, &u.RemindersSent)
}

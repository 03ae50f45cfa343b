package model

import (
	"time"

	"telegram-signals-bot/internal/domain"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a user account.
type Status string

const (
	StatusFree                Status = "free"
	StatusTrial               Status = "trial"
	StatusPremium             Status = "premium"
	StatusPendingVerification Status = "pending_verification"
	StatusSuspended           Status = "suspended"
)

// ReminderKind identifies a scheduled notification that must be delivered at
// most once per trial/suspension episode.
type ReminderKind string

const (
	ReminderTrial7Days     ReminderKind = "trial_7d"
	ReminderTrial3Days     ReminderKind = "trial_3d"
	ReminderTrial1Day      ReminderKind = "trial_1d"
	ReminderSuspendedDaily ReminderKind = "suspended_daily"
)

// TrialReminderKind maps a days-left threshold to its marker. Only 7, 3 and 1
// are reminder thresholds.
func TrialReminderKind(daysLeft int) (ReminderKind, bool) {
	switch daysLeft {
	case 7:
		return ReminderTrial7Days, true
	case 3:
		return ReminderTrial3Days, true
	case 1:
		return ReminderTrial1Day, true
	}
	return "", false
}

// UserRecord is the domain entity for a Telegram end user. It is mutated
// exclusively through the transition methods in transition.go; every other
// component treats it as read-only.
type UserRecord struct {
	ID         string // UUID, immutable after creation
	TelegramID int64
	Username   string

	Status       Status
	ResumeStatus Status // status to restore on Reactivate, set by Suspend

	TrialEnd        *time.Time // present only while Status == Trial
	SubscriptionEnd *time.Time // present only while Status == Premium; nil = unlimited
	TrialUsed       bool       // set by StartTrial, never reset

	Verified         bool
	Suspended        bool // kept in sync with Status == Suspended
	SuspensionReason string

	// Broker registration profile.
	Country       string
	TermsAccepted bool
	FullName      string
	Email         string
	AccountNumber string

	CreatedAt                 time.Time
	LastActivity              time.Time
	LastVerificationRequestAt *time.Time
	VerificationRequestCount  int

	// RemindersSent holds delivery markers for the current trial/suspension
	// episode, keyed by reminder kind. Starting a new episode clears it.
	RemindersSent map[ReminderKind]time.Time

	TotalSignalsReceived int
	PremiumSince         *time.Time

	// Version is the store's compare-and-swap token. The store bumps it on
	// every successful write.
	Version int64
}

// NewUserRecord creates a fresh record on first contact.
func NewUserRecord(id string, tgID int64, username string) (*UserRecord, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &UserRecord{
		ID:            id,
		TelegramID:    tgID,
		Username:      username,
		Status:        StatusFree,
		CreatedAt:     now,
		LastActivity:  now,
		RemindersSent: map[ReminderKind]time.Time{},
	}, nil
}

func (u *UserRecord) IsZero() bool { return u == nil || u.ID == "" }

// Touch updates the activity timestamp. LastActivity never moves backwards.
func (u *UserRecord) Touch(now time.Time) {
	if now.After(u.LastActivity) {
		u.LastActivity = now
	}
}

// Clone returns a deep copy safe to mutate without affecting the original.
func (u *UserRecord) Clone() *UserRecord {
	cp := *u
	cp.RemindersSent = make(map[ReminderKind]time.Time, len(u.RemindersSent))
	for k, v := range u.RemindersSent {
		cp.RemindersSent[k] = v
	}
	cp.TrialEnd = copyTime(u.TrialEnd)
	cp.SubscriptionEnd = copyTime(u.SubscriptionEnd)
	cp.LastVerificationRequestAt = copyTime(u.LastVerificationRequestAt)
	cp.PremiumSince = copyTime(u.PremiumSince)
	return &cp
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// TrialDaysLeft reports full days remaining in the trial, floored.
// Returns -1 when the user is not on a trial.
func (u *UserRecord) TrialDaysLeft(now time.Time) int {
	if u.Status != StatusTrial || u.TrialEnd == nil {
		return -1
	}
	left := u.TrialEnd.Sub(now)
	if left < 0 {
		return -1
	}
	return int(left / (24 * time.Hour))
}

// HasReminder reports whether a marker for kind exists in the current episode.
func (u *UserRecord) HasReminder(kind ReminderKind) bool {
	_, ok := u.RemindersSent[kind]
	return ok
}

// ReminderSentAt returns the marker timestamp for kind, if present.
func (u *UserRecord) ReminderSentAt(kind ReminderKind) (time.Time, bool) {
	at, ok := u.RemindersSent[kind]
	return at, ok
}

// MarkReminder records that a reminder of the given kind was scheduled for
// delivery at the given time.
func (u *UserRecord) MarkReminder(kind ReminderKind, at time.Time) {
	if u.RemindersSent == nil {
		u.RemindersSent = map[ReminderKind]time.Time{}
	}
	u.RemindersSent[kind] = at
}

// clearReminders starts a fresh episode for the anti-duplication markers.
func (u *UserRecord) clearReminders() {
	u.RemindersSent = map[ReminderKind]time.Time{}
}

package model

import "github.com/oklog/ulid/v2"

// IntentKind names a side effect the core asks the transport to perform.
type IntentKind string

const (
	IntentTrialStarted            IntentKind = "trial_started"
	IntentTrialReminder           IntentKind = "trial_reminder"
	IntentTrialExpired            IntentKind = "trial_expired"
	IntentVerificationSubmitted   IntentKind = "verification_submitted"
	IntentVerificationApproved    IntentKind = "verification_approved"
	IntentVerificationRejected    IntentKind = "verification_rejected"
	IntentSuspended               IntentKind = "suspended"
	IntentSuspensionDailyReminder IntentKind = "suspension_daily_reminder"
	IntentReactivated             IntentKind = "reactivated"
)

// Intent describes a message to deliver. It is produced by the core and
// executed by the transport collaborator; the ULID doubles as a dedup key
// should a delivery log ever be layered in front of the transport.
type Intent struct {
	ID         string
	Kind       IntentKind
	UserID     string
	TelegramID int64
	DaysLeft   int
	Reason     string
}

// NewIntent builds an intent addressed to the given user.
func NewIntent(kind IntentKind, u *UserRecord) Intent {
	return Intent{
		ID:         ulid.Make().String(),
		Kind:       kind,
		UserID:     u.ID,
		TelegramID: u.TelegramID,
	}
}
